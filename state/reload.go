package state

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/db"
	"guildcore/models"
)

// Reloader refreshes cached entities from their backing rows after every
// write. A reload never replaces a cached pointer: fresh fields are merged
// into the existing struct so concurrent holders observe the update. When
// the backing row is gone the entity is evicted along with everything
// scoped under it, and the reload reports None instead of an error.
type Reloader struct {
	store        *EntityStore
	guildsRepo   db.GuildsRepository
	channelsRepo db.ChannelsRepository
	rolesRepo    db.RolesRepository
	membersRepo  db.MembersRepository
	messagesRepo db.MessagesRepository
	invitesRepo  db.InvitesRepository
}

func NewReloader(
	store *EntityStore,
	guildsRepo db.GuildsRepository,
	channelsRepo db.ChannelsRepository,
	rolesRepo db.RolesRepository,
	membersRepo db.MembersRepository,
	messagesRepo db.MessagesRepository,
	invitesRepo db.InvitesRepository,
) *Reloader {
	return &Reloader{
		store:        store,
		guildsRepo:   guildsRepo,
		channelsRepo: channelsRepo,
		rolesRepo:    rolesRepo,
		membersRepo:  membersRepo,
		messagesRepo: messagesRepo,
		invitesRepo:  invitesRepo,
	}
}

func (r *Reloader) ReloadGuild(ctx context.Context, id snowflake.ID) (mo.Option[*models.Guild], error) {
	maybeFresh, err := r.guildsRepo.FindGuildByID(ctx, id)
	if err != nil {
		return mo.None[*models.Guild](), fmt.Errorf("failed to reload guild: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		log.Printf("🗑️ Guild %s row is gone, evicting it and its children from cache", id)
		r.store.EvictGuild(id)
		return mo.None[*models.Guild](), nil
	}

	if existing, ok := r.store.MergeGuild(fresh).Get(); ok {
		return mo.Some(existing), nil
	}

	r.store.PutGuild(fresh)
	return mo.Some(fresh), nil
}

func (r *Reloader) ReloadChannel(ctx context.Context, id snowflake.ID) (mo.Option[*models.Channel], error) {
	maybeFresh, err := r.channelsRepo.FindChannelByID(ctx, id)
	if err != nil {
		return mo.None[*models.Channel](), fmt.Errorf("failed to reload channel: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		r.store.EvictChannel(id)
		return mo.None[*models.Channel](), nil
	}

	if existing, ok := r.store.MergeChannel(fresh).Get(); ok {
		return mo.Some(existing), nil
	}

	r.store.PutChannel(fresh)
	return mo.Some(fresh), nil
}

func (r *Reloader) ReloadRole(ctx context.Context, id snowflake.ID) (mo.Option[*models.Role], error) {
	maybeFresh, err := r.rolesRepo.FindRoleByID(ctx, id)
	if err != nil {
		return mo.None[*models.Role](), fmt.Errorf("failed to reload role: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		r.store.EvictRole(id)
		return mo.None[*models.Role](), nil
	}

	if existing, ok := r.store.MergeRole(fresh).Get(); ok {
		return mo.Some(existing), nil
	}

	r.store.PutRole(fresh)
	return mo.Some(fresh), nil
}

func (r *Reloader) ReloadMember(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (mo.Option[*models.Member], error) {
	maybeFresh, err := r.membersRepo.FindMember(ctx, guildID, userID)
	if err != nil {
		return mo.None[*models.Member](), fmt.Errorf("failed to reload member: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		r.store.RemoveRawMember(guildID, userID)
		return mo.None[*models.Member](), nil
	}

	r.store.PutRawMember(fresh)
	return mo.Some(fresh), nil
}

func (r *Reloader) ReloadMessage(ctx context.Context, id snowflake.ID) (mo.Option[*models.Message], error) {
	maybeFresh, err := r.messagesRepo.FindMessageByID(ctx, id)
	if err != nil {
		return mo.None[*models.Message](), fmt.Errorf("failed to reload message: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		r.store.RemoveMessage(id)
		return mo.None[*models.Message](), nil
	}

	if existing, ok := r.store.MergeMessage(fresh).Get(); ok {
		return mo.Some(existing), nil
	}

	r.store.PutMessage(fresh)
	return mo.Some(fresh), nil
}

func (r *Reloader) ReloadInvite(ctx context.Context, code string) (mo.Option[*models.Invite], error) {
	maybeFresh, err := r.invitesRepo.FindInviteByCode(ctx, code)
	if err != nil {
		return mo.None[*models.Invite](), fmt.Errorf("failed to reload invite: %w", err)
	}

	fresh, ok := maybeFresh.Get()
	if !ok {
		r.store.RemoveInvite(code)
		return mo.None[*models.Invite](), nil
	}

	if existing, ok := r.store.MergeInvite(fresh).Get(); ok {
		return mo.Some(existing), nil
	}

	r.store.PutInvite(fresh)
	return mo.Some(fresh), nil
}
