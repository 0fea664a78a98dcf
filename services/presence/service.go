package presence

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
	"guildcore/state"
)

// PresenceService tracks live per-guild statuses. The in-memory map is
// authoritative; the presences table only exists so statuses survive a
// restart. Dispatch is synchronous: when an update call returns, every
// watcher has been handed the PRESENCE_UPDATE.
type PresenceService struct {
	store         *state.EntityStore
	presencesRepo db.PresencesRepository
	dispatcher    clients.Dispatcher
	clock         core.Clock

	mu sync.RWMutex
	// guildID -> userID -> presence. Global presences live under guild ID 0.
	presences map[snowflake.ID]map[snowflake.ID]*models.Presence
}

// GlobalGuildID keys a user's guild-independent presence.
const GlobalGuildID snowflake.ID = 0

func NewPresenceService(
	store *state.EntityStore,
	presencesRepo db.PresencesRepository,
	dispatcher clients.Dispatcher,
	clock core.Clock,
) *PresenceService {
	return &PresenceService{
		store:         store,
		presencesRepo: presencesRepo,
		dispatcher:    dispatcher,
		clock:         clock,
		presences:     map[snowflake.ID]map[snowflake.ID]*models.Presence{},
	}
}

// GetPresence returns the live presence for a (guild, user) pair.
func (s *PresenceService) GetPresence(guildID, userID snowflake.ID) mo.Option[*models.Presence] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.presences[guildID][userID]; ok {
		return mo.Some(p)
	}
	return mo.None[*models.Presence]()
}

// PresenceCount reports how many members of a guild are not offline.
func (s *PresenceService) PresenceCount(guildID snowflake.ID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.presences[guildID] {
		if p.Status != models.StatusOffline {
			count++
		}
	}
	return count
}

// GuildPresences returns every tracked presence for a guild.
func (s *PresenceService) GuildPresences(guildID snowflake.ID) []*models.Presence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Presence, 0, len(s.presences[guildID]))
	for _, p := range s.presences[guildID] {
		out = append(out, p)
	}
	return out
}

// StatusUpdate applies a status change for one (guild, user) pair. Aliases
// are normalized first; an update that changes no field is suppressed
// entirely, including its dispatch. The first update for a pair creates the
// presence and always dispatches.
func (s *PresenceService) StatusUpdate(
	ctx context.Context,
	guildID, userID snowflake.ID,
	status models.PresenceStatus,
) error {
	status = status.Normalize()

	s.mu.Lock()
	existing, ok := s.presences[guildID][userID]
	if ok && existing.PresenceStatus.Equal(status) {
		s.mu.Unlock()
		log.Printf("🔇 Suppressing no-op presence update for user %s in guild %s", userID, guildID)
		return nil
	}

	var presence *models.Presence
	if ok {
		existing.PresenceStatus = status
		presence = existing
	} else {
		presence = &models.Presence{GuildID: guildID, UserID: userID, PresenceStatus: status}
		s.putLocked(presence)
	}
	s.mu.Unlock()

	if err := s.presencesRepo.UpsertPresence(ctx, presence); err != nil {
		return fmt.Errorf("failed to persist presence: %w", err)
	}

	if guildID == GlobalGuildID {
		return nil
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventPresenceUpdate, presence.EventPayload()); err != nil {
		return fmt.Errorf("failed to dispatch presence update: %w", err)
	}
	return nil
}

// CreatePresence bootstraps the presence for a user who just became visible
// in a guild. The initial status is copied from a guild the user already
// belongs to; a recorded guild with no presence for them is a consistency
// violation. A user entering their first guild starts from their global
// presence, then offline. The guild must already be cached.
func (s *PresenceService) CreatePresence(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (*models.Presence, error) {
	if _, ok := s.store.GetGuild(guildID).Get(); !ok {
		return nil, fmt.Errorf("guild %s is not cached: %w", guildID, core.ErrInconsistency)
	}

	s.mu.Lock()
	if existing, ok := s.presences[guildID][userID]; ok {
		s.mu.Unlock()
		return existing, nil
	}

	status, err := s.seedStatusLocked(guildID, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	presence := &models.Presence{
		GuildID:        guildID,
		UserID:         userID,
		PresenceStatus: status,
	}
	s.putLocked(presence)
	s.mu.Unlock()

	if err := s.presencesRepo.UpsertPresence(ctx, presence); err != nil {
		return nil, fmt.Errorf("failed to persist presence: %w", err)
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventPresenceUpdate, presence.EventPayload()); err != nil {
		return nil, fmt.Errorf("failed to dispatch presence update: %w", err)
	}
	return presence, nil
}

// GlobalUpdate applies one status to the user's global presence and fans it
// out to every guild the user belongs to.
func (s *PresenceService) GlobalUpdate(
	ctx context.Context,
	userID snowflake.ID,
	status models.PresenceStatus,
) error {
	if err := s.StatusUpdate(ctx, GlobalGuildID, userID, status); err != nil {
		return err
	}

	for _, guild := range s.store.GuildsWithUser(userID) {
		if err := s.StatusUpdate(ctx, guild.ID, userID, status); err != nil {
			return fmt.Errorf("failed to fan out presence to guild %s: %w", guild.ID, err)
		}
	}
	return nil
}

// TypingStart broadcasts a typing indicator; nothing is persisted.
func (s *PresenceService) TypingStart(ctx context.Context, channelID, userID snowflake.ID) error {
	payload := map[string]any{
		"channel_id": channelID.String(),
		"user_id":    userID.String(),
		"timestamp":  s.clock.Now().Unix(),
	}
	if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(channelID), models.EventTypingStart, payload); err != nil {
		return fmt.Errorf("failed to dispatch typing start: %w", err)
	}
	return nil
}

// DropGuild forgets a deleted guild's presences, in memory and in the store.
func (s *PresenceService) DropGuild(ctx context.Context, guildID snowflake.ID) error {
	s.mu.Lock()
	delete(s.presences, guildID)
	s.mu.Unlock()

	if _, err := s.presencesRepo.DeletePresencesByGuild(ctx, guildID); err != nil {
		return fmt.Errorf("failed to delete guild presences: %w", err)
	}
	return nil
}

// DropMember forgets one member's presence in a guild.
func (s *PresenceService) DropMember(guildID, userID snowflake.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.presences[guildID], userID)
	if len(s.presences[guildID]) == 0 {
		delete(s.presences, guildID)
	}
}

// seedStatusLocked picks the initial status for a new per-guild presence.
// Every other guild the user is recorded in must already track a presence
// for them; a missing record means the presence map and the membership
// lists have drifted apart.
func (s *PresenceService) seedStatusLocked(guildID, userID snowflake.ID) (models.PresenceStatus, error) {
	var status models.PresenceStatus
	found := false
	for _, guild := range s.store.GuildsWithUser(userID) {
		if guild.ID == guildID {
			continue
		}
		p, ok := s.presences[guild.ID][userID]
		if !ok {
			return models.PresenceStatus{}, fmt.Errorf(
				"user %s has no presence in guild %s: %w", userID, guild.ID, core.ErrInconsistency)
		}
		if !found {
			status = p.PresenceStatus
			found = true
		}
	}
	if found {
		return status, nil
	}
	if p, ok := s.presences[GlobalGuildID][userID]; ok {
		return p.PresenceStatus, nil
	}
	return models.OfflineStatus(), nil
}

func (s *PresenceService) putLocked(presence *models.Presence) {
	if s.presences[presence.GuildID] == nil {
		s.presences[presence.GuildID] = map[snowflake.ID]*models.Presence{}
	}
	s.presences[presence.GuildID][presence.UserID] = presence
}
