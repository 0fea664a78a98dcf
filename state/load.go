package state

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
)

// Loader fills an empty EntityStore from the backing store at boot. Load
// order follows the dependency chain bottom-up so parents can heal their
// reference lists against already-loaded children: members, roles, channels,
// guilds, invites, messages.
type Loader struct {
	store        *EntityStore
	guildsRepo   db.GuildsRepository
	channelsRepo db.ChannelsRepository
	rolesRepo    db.RolesRepository
	membersRepo  db.MembersRepository
	messagesRepo db.MessagesRepository
	invitesRepo  db.InvitesRepository
	clock        core.Clock
}

func NewLoader(
	store *EntityStore,
	guildsRepo db.GuildsRepository,
	channelsRepo db.ChannelsRepository,
	rolesRepo db.RolesRepository,
	membersRepo db.MembersRepository,
	messagesRepo db.MessagesRepository,
	invitesRepo db.InvitesRepository,
	clock core.Clock,
) *Loader {
	return &Loader{
		store:        store,
		guildsRepo:   guildsRepo,
		channelsRepo: channelsRepo,
		rolesRepo:    rolesRepo,
		membersRepo:  membersRepo,
		messagesRepo: messagesRepo,
		invitesRepo:  invitesRepo,
		clock:        clock,
	}
}

// LoadAll populates the cache and repairs the inconsistencies it can: member
// rows missing for listed member IDs are backfilled, dangling channel/role
// references are swept from guild documents, invalid invites are deleted and
// messages pointing at dead channels are purged.
func (l *Loader) LoadAll(ctx context.Context) error {
	log.Printf("📋 Starting to load entity state from store")

	if err := l.loadMembers(ctx); err != nil {
		return err
	}
	if err := l.loadRoles(ctx); err != nil {
		return err
	}
	if err := l.loadChannels(ctx); err != nil {
		return err
	}
	if err := l.loadGuilds(ctx); err != nil {
		return err
	}
	if err := l.loadInvites(ctx); err != nil {
		return err
	}
	if err := l.loadMessages(ctx); err != nil {
		return err
	}

	log.Printf("📋 Completed successfully - loaded %d guilds into cache", l.store.GuildCount())
	return nil
}

func (l *Loader) loadMembers(ctx context.Context) error {
	members, err := l.membersRepo.ListMembers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}
	for _, member := range members {
		l.store.PutRawMember(member)
	}
	log.Printf("📋 Loaded %d member rows", len(members))
	return nil
}

func (l *Loader) loadRoles(ctx context.Context) error {
	roles, err := l.rolesRepo.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roles: %w", err)
	}
	for _, role := range roles {
		l.store.PutRole(role)
	}
	log.Printf("📋 Loaded %d roles", len(roles))
	return nil
}

func (l *Loader) loadChannels(ctx context.Context) error {
	channels, err := l.channelsRepo.ListChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load channels: %w", err)
	}
	for _, channel := range channels {
		l.store.PutChannel(channel)
	}
	log.Printf("📋 Loaded %d channels", len(channels))
	return nil
}

func (l *Loader) loadGuilds(ctx context.Context) error {
	guilds, err := l.guildsRepo.ListGuilds(ctx)
	if err != nil {
		return fmt.Errorf("failed to load guilds: %w", err)
	}

	for _, guild := range guilds {
		if err := l.backfillMembers(ctx, guild); err != nil {
			return err
		}
		if err := l.sweepDanglingRefs(ctx, guild); err != nil {
			return err
		}
		l.store.PutGuild(guild)
	}

	log.Printf("📋 Loaded %d guilds", len(guilds))
	return nil
}

// backfillMembers inserts a member row for every listed member ID that has
// none, so the raw member map stays in lockstep with the guild document.
func (l *Loader) backfillMembers(ctx context.Context, guild *models.Guild) error {
	for _, userID := range guild.MemberIDs {
		if _, ok := l.store.GetRawMember(guild.ID, userID).Get(); ok {
			continue
		}

		log.Printf("⚠️ Guild %s lists member %s without a row, backfilling", guild.ID, userID)
		member := &models.Member{
			GuildID:  guild.ID,
			UserID:   userID,
			JoinedAt: l.clock.Now(),
		}
		if err := l.membersRepo.InsertMember(ctx, member); err != nil {
			return fmt.Errorf("failed to backfill member: %w", err)
		}
		l.store.PutRawMember(member)
	}
	return nil
}

// sweepDanglingRefs drops channel and role IDs that resolve to nothing (or
// to an entity owned by another guild) and persists the cleaned document.
func (l *Loader) sweepDanglingRefs(ctx context.Context, guild *models.Guild) error {
	changed := false

	kept := make(models.IDList, 0, len(guild.ChannelIDs))
	for _, channelID := range guild.ChannelIDs {
		channel, ok := l.store.GetChannel(channelID).Get()
		if ok && channel.GuildID != nil && *channel.GuildID == guild.ID {
			kept = append(kept, channelID)
			continue
		}
		log.Printf("⚠️ Guild %s lists dangling channel %s, sweeping", guild.ID, channelID)
		changed = true
	}
	guild.ChannelIDs = kept

	keptRoles := make(models.IDList, 0, len(guild.RoleIDs))
	for _, roleID := range guild.RoleIDs {
		role, ok := l.store.GetRole(roleID).Get()
		if ok && role.GuildID == guild.ID {
			keptRoles = append(keptRoles, roleID)
			continue
		}
		log.Printf("⚠️ Guild %s lists dangling role %s, sweeping", guild.ID, roleID)
		changed = true
	}
	guild.RoleIDs = keptRoles

	if !changed {
		return nil
	}
	if _, err := l.guildsRepo.UpdateGuild(ctx, guild); err != nil {
		return fmt.Errorf("failed to persist swept guild: %w", err)
	}
	return nil
}

// loadInvites caches redeemable invites and deletes the rest: expired,
// exhausted, or pointing at a channel that no longer exists.
func (l *Loader) loadInvites(ctx context.Context) error {
	invites, err := l.invitesRepo.ListInvites(ctx)
	if err != nil {
		return fmt.Errorf("failed to load invites: %w", err)
	}

	now := l.clock.Now()
	cached := 0
	for _, invite := range invites {
		_, channelKnown := l.store.GetChannel(invite.ChannelID).Get()
		if !channelKnown || !invite.Valid(now) {
			log.Printf("🗑️ Deleting invalid invite %s", invite.Code)
			if _, err := l.invitesRepo.DeleteInvite(ctx, invite.Code); err != nil {
				return fmt.Errorf("failed to delete invalid invite: %w", err)
			}
			continue
		}
		l.store.PutInvite(invite)
		cached++
	}

	log.Printf("📋 Loaded %d invites", cached)
	return nil
}

// loadMessages caches messages of known channels and purges the rest,
// one bulk delete per dead channel.
func (l *Loader) loadMessages(ctx context.Context) error {
	messages, err := l.messagesRepo.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("failed to load messages: %w", err)
	}

	orphanChannels := map[snowflake.ID]struct{}{}
	cached := 0
	for _, message := range messages {
		if _, ok := l.store.GetChannel(message.ChannelID).Get(); !ok {
			orphanChannels[message.ChannelID] = struct{}{}
			continue
		}
		l.store.PutMessage(message)
		cached++
	}

	for channelID := range orphanChannels {
		log.Printf("🗑️ Purging messages of dead channel %s", channelID)
		if _, err := l.messagesRepo.DeleteMessagesByChannel(ctx, channelID); err != nil {
			return fmt.Errorf("failed to purge orphaned messages: %w", err)
		}
	}

	log.Printf("📋 Loaded %d messages", cached)
	return nil
}
