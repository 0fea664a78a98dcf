package invites

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
	"guildcore/state"
)

// codeAllocationAttempts bounds the retry loop for fresh invite codes. With
// an 8-character code over a 52-symbol alphabet, collisions are effectively
// impossible; hitting the bound means the code space is broken.
const codeAllocationAttempts = 32

// GuildJoiner admits a user into a guild. Satisfied by the guilds service.
type GuildJoiner interface {
	AddMember(ctx context.Context, guildID, userID snowflake.ID) error
}

type InvitesService struct {
	store       *state.EntityStore
	reloader    *state.Reloader
	invitesRepo db.InvitesRepository
	joiner      GuildJoiner
	clock       core.Clock
}

func NewInvitesService(
	store *state.EntityStore,
	reloader *state.Reloader,
	invitesRepo db.InvitesRepository,
	joiner GuildJoiner,
	clock core.Clock,
) *InvitesService {
	return &InvitesService{
		store:       store,
		reloader:    reloader,
		invitesRepo: invitesRepo,
		joiner:      joiner,
		clock:       clock,
	}
}

func (s *InvitesService) GetInvite(code string) mo.Option[*models.Invite] {
	return s.store.GetInvite(code)
}

func (s *InvitesService) GuildInvites(guildID snowflake.ID) []*models.Invite {
	return s.store.GuildInvites(guildID)
}

// AllocateCode generates a code that no existing invite uses. The check goes
// to the store, not the cache, since invalid invites can exist as rows
// without being cached.
func (s *InvitesService) AllocateCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAllocationAttempts; attempt++ {
		code := core.NewInviteCode()

		existing, err := s.invitesRepo.FindInviteByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check invite code: %w", err)
		}
		if existing.IsAbsent() {
			return code, nil
		}
		log.Printf("⚠️ Invite code collision on %s, retrying", code)
	}
	return "", fmt.Errorf("failed to allocate invite code after %d attempts", codeAllocationAttempts)
}

// CreateInvite mints an invite for a channel. A max age of 0 means the
// invite never expires; a max use count of 0 is normalized to unlimited.
func (s *InvitesService) CreateInvite(
	ctx context.Context,
	channelID, inviterID snowflake.ID,
	params models.InviteParams,
) (*models.Invite, error) {
	log.Printf("📋 Starting to create invite for channel %s", channelID)

	channel, ok := s.store.GetChannel(channelID).Get()
	if !ok || channel.GuildID == nil {
		return nil, fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}

	code, err := s.AllocateCode(ctx)
	if err != nil {
		return nil, err
	}

	invite := &models.Invite{
		Code:      code,
		ChannelID: channelID,
		InviterID: inviterID,
		Uses:      params.MaxUses,
		Temporary: params.Temporary,
		Unique:    params.Unique,
	}
	if invite.Uses == 0 {
		invite.Uses = models.UnlimitedUses
	}
	if params.MaxAge > 0 {
		expiresAt := s.clock.Now().Add(time.Duration(params.MaxAge) * time.Second)
		invite.ExpiresAt = &expiresAt
	}

	if err := s.invitesRepo.InsertInvite(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to insert invite: %w", err)
	}
	if invite.Valid(s.clock.Now()) {
		s.store.PutInvite(invite)
	}

	log.Printf("📋 Completed successfully - created invite %s", code)
	return invite, nil
}

// UseInvite redeems a code for a user. An unusable invite (unknown code,
// dead channel or guild, expired, exhausted) yields None without error;
// the caller cannot distinguish why, matching the external surface. A
// successfully consumed invite admits the user into the guild.
func (s *InvitesService) UseInvite(
	ctx context.Context,
	code string,
	userID snowflake.ID,
) (mo.Option[*models.Invite], error) {
	log.Printf("📋 Starting to use invite %s for user %s", code, userID)

	invite, ok := s.store.GetInvite(code).Get()
	if !ok {
		return mo.None[*models.Invite](), nil
	}

	guildID, ok := s.store.ChannelGuildID(invite.ChannelID).Get()
	if !ok {
		log.Printf("⚠️ Invite %s points at unresolvable channel %s", code, invite.ChannelID)
		return mo.None[*models.Invite](), nil
	}
	if _, ok := s.store.GetGuild(guildID).Get(); !ok {
		log.Printf("⚠️ Invite %s points at unresolvable guild %s", code, guildID)
		return mo.None[*models.Invite](), nil
	}

	// An exhausted or expired invite is only rejected here; the row and the
	// cache entry stay until a deliberate delete or the boot-time sweep.
	now := s.clock.Now()
	if !invite.Consume(now) {
		log.Printf("📭 Invite %s is no longer redeemable", code)
		return mo.None[*models.Invite](), nil
	}

	if _, err := s.invitesRepo.UpdateInviteUses(ctx, code, invite.Uses); err != nil {
		return mo.None[*models.Invite](), fmt.Errorf("failed to persist invite uses: %w", err)
	}

	if err := s.joiner.AddMember(ctx, guildID, userID); err != nil {
		return mo.None[*models.Invite](), fmt.Errorf("failed to join guild via invite: %w", err)
	}

	log.Printf("📋 Completed successfully - invite %s used, %d uses left", code, invite.Uses)
	return mo.Some(invite), nil
}

// DeleteInvite revokes a code.
func (s *InvitesService) DeleteInvite(ctx context.Context, code string) error {
	log.Printf("📋 Starting to delete invite %s", code)

	affected, err := s.invitesRepo.DeleteInvite(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("invite %s: %w", code, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("invite delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	if _, err := s.reloader.ReloadInvite(ctx, code); err != nil {
		return err
	}

	log.Printf("📋 Completed successfully - deleted invite %s", code)
	return nil
}
