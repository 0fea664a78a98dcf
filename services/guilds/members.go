package guilds

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/models"
)

// AddMember admits a user into a guild: member row, guild document, cache,
// presence, events. Joining a guild the user is already in is a no-op;
// banned users are rejected.
func (s *GuildsService) AddMember(ctx context.Context, guildID, userID snowflake.ID) error {
	log.Printf("📋 Starting to add member %s to guild %s", userID, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if guild.BannedIDs.Contains(userID) {
		return fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrUserBanned)
	}
	if guild.MemberIDs.Contains(userID) {
		log.Printf("⚠️ User %s is already a member of guild %s", userID, guildID)
		return nil
	}

	member := &models.Member{GuildID: guildID, UserID: userID, JoinedAt: s.clock.Now()}
	if err := s.membersRepo.InsertMember(ctx, member); err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.MemberIDs.Add(userID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}
	s.store.PutRawMember(member)
	s.store.MarkWatcher(guildID, userID)

	if _, err := s.presences.CreatePresence(ctx, guildID, userID); err != nil {
		return err
	}

	addPayload := map[string]any{
		"guild_id":  guildID.String(),
		"user":      map[string]any{"id": userID.String()},
		"joined_at": member.JoinedAt,
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildMemberAdd, addPayload); err != nil {
		return fmt.Errorf("failed to dispatch member add: %w", err)
	}
	if err := s.dispatcher.Dispatch(ctx, clients.UserScope(userID), models.EventGuildCreate, s.Snapshot(guild)); err != nil {
		return fmt.Errorf("failed to dispatch guild create: %w", err)
	}
	err := s.dispatcher.Dispatch(ctx, clients.UserScope(userID), models.EventUserGuildSettingsUpdate, guild.DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to dispatch guild settings: %w", err)
	}

	log.Printf("📋 Completed successfully - added member %s to guild %s", userID, guildID)
	return nil
}

// RemoveMember takes a user out of a guild. The guild hears
// GUILD_MEMBER_REMOVE; the user themselves hears GUILD_DELETE, since from
// their point of view the guild ceased to exist.
func (s *GuildsService) RemoveMember(ctx context.Context, guildID, userID snowflake.ID) error {
	log.Printf("📋 Starting to remove member %s from guild %s", userID, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if !guild.MemberIDs.Contains(userID) {
		return fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrMemberNotFound)
	}

	affected, err := s.membersRepo.DeleteMember(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrMemberNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("member delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.MemberIDs.Remove(userID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadMember(ctx, guildID, userID); err != nil {
		return err
	}

	removePayload := map[string]any{
		"guild_id": guildID.String(),
		"user":     map[string]any{"id": userID.String()},
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildMemberRemove, removePayload); err != nil {
		return fmt.Errorf("failed to dispatch member remove: %w", err)
	}
	deletePayload := map[string]any{"id": guildID.String(), "unavailable": false}
	if err := s.dispatcher.Dispatch(ctx, clients.UserScope(userID), models.EventGuildDelete, deletePayload); err != nil {
		return fmt.Errorf("failed to dispatch guild delete: %w", err)
	}

	s.store.UnmarkWatcher(guildID, userID)
	s.presences.DropMember(guildID, userID)

	log.Printf("📋 Completed successfully - removed member %s from guild %s", userID, guildID)
	return nil
}

// KickMember is a moderator-initiated removal; the state transition is the
// same as a voluntary leave.
func (s *GuildsService) KickMember(ctx context.Context, guildID, userID snowflake.ID) error {
	return s.RemoveMember(ctx, guildID, userID)
}

// EditMember patches a member's guild-local profile.
func (s *GuildsService) EditMember(
	ctx context.Context,
	guildID, userID snowflake.ID,
	patch models.MemberPatch,
) (*models.Member, error) {
	log.Printf("📋 Starting to edit member %s in guild %s", userID, guildID)

	member, ok := s.store.GetRawMember(guildID, userID).Get()
	if !ok {
		return nil, fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrMemberNotFound)
	}

	patch.Apply(member)
	affected, err := s.membersRepo.UpdateMember(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrMemberNotFound)
	}
	if affected > 1 {
		return nil, fmt.Errorf("member update touched %d rows: %w", affected, core.ErrInconsistency)
	}

	maybeMember, err := s.reloader.ReloadMember(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	member, ok = maybeMember.Get()
	if !ok {
		return nil, fmt.Errorf("member vanished after update: %w", core.ErrMemberNotFound)
	}

	payload := map[string]any{
		"guild_id": guildID.String(),
		"user":     map[string]any{"id": userID.String()},
		"nick":     member.Nick,
		"deaf":     member.Deaf,
		"mute":     member.Mute,
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildMemberUpdate, payload); err != nil {
		return nil, fmt.Errorf("failed to dispatch member update: %w", err)
	}

	log.Printf("📋 Completed successfully - edited member %s in guild %s", userID, guildID)
	return member, nil
}

// BanUser bans a user, removing them from the guild if they are a member.
// When deleteMessageDays is positive, the user's recent messages are swept
// in the background; sweep failures are logged, never surfaced, since the
// ban itself already took effect.
func (s *GuildsService) BanUser(
	ctx context.Context,
	guildID, userID snowflake.ID,
	deleteMessageDays int,
) error {
	log.Printf("📋 Starting to ban user %s from guild %s", userID, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if guild.BannedIDs.Contains(userID) {
		return fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrAlreadyBanned)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.BannedIDs.Add(userID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}

	payload := map[string]any{
		"guild_id": guildID.String(),
		"user":     map[string]any{"id": userID.String()},
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildBanAdd, payload); err != nil {
		return fmt.Errorf("failed to dispatch ban add: %w", err)
	}

	if guild.MemberIDs.Contains(userID) {
		if err := s.RemoveMember(ctx, guildID, userID); err != nil {
			return err
		}
	}

	if deleteMessageDays > 0 {
		channelIDs := make([]snowflake.ID, len(guild.ChannelIDs))
		copy(channelIDs, guild.ChannelIDs)
		go s.banSweep(context.WithoutCancel(ctx), channelIDs, userID, deleteMessageDays)
	}

	log.Printf("📋 Completed successfully - banned user %s from guild %s", userID, guildID)
	return nil
}

// banSweep deletes the banned user's messages newer than the cutoff, one
// channel at a time, announcing each purge as a MESSAGE_DELETE_BULK.
func (s *GuildsService) banSweep(
	ctx context.Context,
	channelIDs []snowflake.ID,
	userID snowflake.ID,
	days int,
) {
	cutoff := s.clock.Now().Add(-time.Duration(days) * 24 * time.Hour)
	minID := core.IDAt(cutoff)

	for _, channelID := range channelIDs {
		candidates, err := s.messagesRepo.FindChannelMessagesSince(ctx, channelID, minID)
		if err != nil {
			log.Printf("❌ Ban sweep failed to scan channel %s: %v", channelID, err)
			continue
		}

		ids := []snowflake.ID{}
		for _, message := range candidates {
			if message.AuthorID != nil && *message.AuthorID == userID {
				ids = append(ids, message.ID)
			}
		}
		if len(ids) == 0 {
			continue
		}

		if _, err := s.messagesRepo.DeleteMessages(ctx, ids); err != nil {
			log.Printf("❌ Ban sweep failed to delete messages in channel %s: %v", channelID, err)
			continue
		}
		for _, id := range ids {
			s.store.RemoveMessage(id)
		}

		payload := map[string]any{
			"ids":        models.IDList(ids).Strings(),
			"channel_id": channelID.String(),
		}
		if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(channelID), models.EventMessageDeleteBulk, payload); err != nil {
			log.Printf("❌ Ban sweep failed to dispatch bulk delete for channel %s: %v", channelID, err)
			continue
		}
		log.Printf("🧹 Ban sweep purged %d messages from channel %s", len(ids), channelID)
	}
}

// UnbanUser lifts a ban. The user does not rejoin; they merely become able
// to.
func (s *GuildsService) UnbanUser(ctx context.Context, guildID, userID snowflake.ID) error {
	log.Printf("📋 Starting to unban user %s from guild %s", userID, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if !guild.BannedIDs.Contains(userID) {
		return fmt.Errorf("user %s in guild %s: %w", userID, guildID, core.ErrNotBanned)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.BannedIDs.Remove(userID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}

	payload := map[string]any{
		"guild_id": guildID.String(),
		"user":     map[string]any{"id": userID.String()},
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventGuildBanRemove, payload); err != nil {
		return fmt.Errorf("failed to dispatch ban remove: %w", err)
	}

	log.Printf("📋 Completed successfully - unbanned user %s from guild %s", userID, guildID)
	return nil
}
