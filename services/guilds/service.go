package guilds

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
	"guildcore/state"
)

// PresenceTracker is the slice of the presence service the guild lifecycle
// needs: seeding presences on joins and dropping them on leaves.
type PresenceTracker interface {
	CreatePresence(ctx context.Context, guildID, userID snowflake.ID) (*models.Presence, error)
	StatusUpdate(ctx context.Context, guildID, userID snowflake.ID, status models.PresenceStatus) error
	DropGuild(ctx context.Context, guildID snowflake.ID) error
	DropMember(guildID, userID snowflake.ID)
	PresenceCount(guildID snowflake.ID) int
}

// GuildsService owns the guild aggregate: the guild document itself plus its
// channels, roles, members and bans. Every mutation follows the same shape:
// write the row, refresh the cache from it, then dispatch.
type GuildsService struct {
	store        *state.EntityStore
	reloader     *state.Reloader
	guildsRepo   db.GuildsRepository
	channelsRepo db.ChannelsRepository
	rolesRepo    db.RolesRepository
	membersRepo  db.MembersRepository
	messagesRepo db.MessagesRepository
	invitesRepo  db.InvitesRepository
	presences    PresenceTracker
	dispatcher   clients.Dispatcher
	idgen        *core.SnowflakeGenerator
	clock        core.Clock
}

func NewGuildsService(
	store *state.EntityStore,
	reloader *state.Reloader,
	guildsRepo db.GuildsRepository,
	channelsRepo db.ChannelsRepository,
	rolesRepo db.RolesRepository,
	membersRepo db.MembersRepository,
	messagesRepo db.MessagesRepository,
	invitesRepo db.InvitesRepository,
	presences PresenceTracker,
	dispatcher clients.Dispatcher,
	idgen *core.SnowflakeGenerator,
	clock core.Clock,
) *GuildsService {
	return &GuildsService{
		store:        store,
		reloader:     reloader,
		guildsRepo:   guildsRepo,
		channelsRepo: channelsRepo,
		rolesRepo:    rolesRepo,
		membersRepo:  membersRepo,
		messagesRepo: messagesRepo,
		invitesRepo:  invitesRepo,
		presences:    presences,
		dispatcher:   dispatcher,
		idgen:        idgen,
		clock:        clock,
	}
}

func (s *GuildsService) GetGuild(id snowflake.ID) mo.Option[*models.Guild] {
	return s.store.GetGuild(id)
}

// Snapshot assembles the GUILD_CREATE shaped view of a guild from the cache.
func (s *GuildsService) Snapshot(guild *models.Guild) *models.GuildSnapshot {
	members := s.store.GuildMembers(guild.ID)
	return &models.GuildSnapshot{
		ID:          guild.ID.String(),
		Name:        guild.Name,
		Icon:        guild.Icon,
		OwnerID:     guild.OwnerID.String(),
		Region:      guild.Region,
		Features:    guild.Features,
		MemberCount: len(members),
		Members:     members,
		Channels:    s.store.GuildChannels(guild.ID),
		Roles:       s.store.GuildRoles(guild.ID),
	}
}

// CreateGuild provisions a guild with its default channel and default role.
// All three share the same snowflake: the guild ID doubles as the ID of the
// "general" channel and the everyone role. The owner becomes the first
// member and watcher and is seeded an online presence.
func (s *GuildsService) CreateGuild(
	ctx context.Context,
	ownerID snowflake.ID,
	name, region string,
) (*models.Guild, error) {
	log.Printf("📋 Starting to create guild %q for owner %s", name, ownerID)

	id := s.idgen.NextID()
	now := s.clock.Now()

	member := &models.Member{GuildID: id, UserID: ownerID, JoinedAt: now}
	if err := s.membersRepo.InsertMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to insert owner member: %w", err)
	}

	role := &models.Role{
		ID:          id,
		GuildID:     id,
		Name:        "@everyone",
		Permissions: models.DefaultRolePermissions,
	}
	if err := s.rolesRepo.InsertRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to insert default role: %w", err)
	}

	guildID := id
	channel := &models.Channel{
		ID:      id,
		GuildID: &guildID,
		Name:    "general",
		Type:    models.ChannelTypeText,
	}
	if err := s.channelsRepo.InsertChannel(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to insert default channel: %w", err)
	}

	guild := &models.Guild{
		ID:         id,
		Name:       name,
		OwnerID:    ownerID,
		Region:     region,
		Features:   []string{},
		ChannelIDs: models.IDList{id},
		RoleIDs:    models.IDList{id},
		MemberIDs:  models.IDList{ownerID},
		BannedIDs:  models.IDList{},
	}
	if err := s.guildsRepo.InsertGuild(ctx, guild); err != nil {
		return nil, fmt.Errorf("failed to insert guild: %w", err)
	}

	s.store.PutRawMember(member)
	s.store.PutRole(role)
	s.store.PutChannel(channel)
	s.store.PutGuild(guild)
	s.store.MarkWatcher(id, ownerID)

	if err := s.dispatcher.Dispatch(ctx, clients.UserScope(ownerID), models.EventGuildCreate, s.Snapshot(guild)); err != nil {
		return nil, fmt.Errorf("failed to dispatch guild create: %w", err)
	}
	err := s.dispatcher.Dispatch(ctx, clients.UserScope(ownerID), models.EventUserGuildSettingsUpdate, guild.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("failed to dispatch guild settings: %w", err)
	}

	status := models.PresenceStatus{Status: models.StatusOnline}
	if err := s.presences.StatusUpdate(ctx, id, ownerID, status); err != nil {
		return nil, fmt.Errorf("failed to seed owner presence: %w", err)
	}

	log.Printf("📋 Completed successfully - created guild %s", id)
	return guild, nil
}

// EditGuild patches the guild document.
func (s *GuildsService) EditGuild(
	ctx context.Context,
	guildID snowflake.ID,
	patch models.GuildPatch,
) (*models.Guild, error) {
	log.Printf("📋 Starting to edit guild %s", guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { patch.Apply(g) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return nil, err
	}
	maybeGuild, err := s.reloader.ReloadGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	guild, ok = maybeGuild.Get()
	if !ok {
		return nil, fmt.Errorf("guild %s vanished after update: %w", guildID, core.ErrNotFound)
	}

	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildUpdate, guild); err != nil {
		return nil, fmt.Errorf("failed to dispatch guild update: %w", err)
	}

	log.Printf("📋 Completed successfully - edited guild %s", guildID)
	return guild, nil
}

// DeleteGuild removes a guild, its member rows and presences. Watchers
// receive GUILD_DELETE before the cache eviction tears the watcher list
// down.
func (s *GuildsService) DeleteGuild(ctx context.Context, guildID snowflake.ID) error {
	log.Printf("📋 Starting to delete guild %s", guildID)

	if _, ok := s.store.GetGuild(guildID).Get(); !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}

	affected, err := s.guildsRepo.DeleteGuild(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild: %w", err)
	}
	if affected == 0 {
		log.Printf("⚠️ Guild %s had no backing row to delete", guildID)
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("guild delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	if _, err := s.membersRepo.DeleteMembersByGuild(ctx, guildID); err != nil {
		return fmt.Errorf("failed to delete guild members: %w", err)
	}
	if err := s.presences.DropGuild(ctx, guildID); err != nil {
		return err
	}

	payload := map[string]any{"id": guildID.String(), "unavailable": false}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildDelete, payload); err != nil {
		return fmt.Errorf("failed to dispatch guild delete: %w", err)
	}

	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}

	log.Printf("📋 Completed successfully - deleted guild %s", guildID)
	return nil
}

// GuildCountForUser reports how many guilds a user belongs to, straight from
// the store.
func (s *GuildsService) GuildCountForUser(ctx context.Context, userID snowflake.ID) (int, error) {
	count, err := s.membersRepo.CountMembershipsByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}
	return count, nil
}

// ShardCountForUser derives the shard count a user's client should connect
// with from how many guilds that user belongs to.
func (s *GuildsService) ShardCountForUser(ctx context.Context, userID snowflake.ID) (int, error) {
	count, err := s.GuildCountForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return core.RecommendedShardCount(count), nil
}

// ShardForGuild maps a guild onto a shard under the user's shard count.
func (s *GuildsService) ShardForGuild(ctx context.Context, userID, guildID snowflake.ID) (int, error) {
	count, err := s.ShardCountForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return core.ShardFor(guildID, count), nil
}

// persistGuild writes the guild document back, mapping affected-row counts
// onto not-found and consistency errors.
func (s *GuildsService) persistGuild(ctx context.Context, guild *models.Guild) error {
	affected, err := s.guildsRepo.UpdateGuild(ctx, guild)
	if err != nil {
		return fmt.Errorf("failed to update guild: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("guild %s: %w", guild.ID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("guild update touched %d rows: %w", affected, core.ErrInconsistency)
	}
	return nil
}
