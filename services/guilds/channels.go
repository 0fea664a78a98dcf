package guilds

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/models"
)

// CreateChannel adds a channel to a guild. Only guild channel types are
// accepted; the type is fixed for the channel's lifetime.
func (s *GuildsService) CreateChannel(
	ctx context.Context,
	guildID snowflake.ID,
	name string,
	channelType models.ChannelType,
	parentID *snowflake.ID,
) (*models.Channel, error) {
	log.Printf("📋 Starting to create channel %q in guild %s", name, guildID)

	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return nil, fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if !channelType.IsGuildType() {
		return nil, fmt.Errorf("channel type %d: %w", channelType, core.ErrInvalidChannelType)
	}

	owner := guildID
	channel := &models.Channel{
		ID:       s.idgen.NextID(),
		GuildID:  &owner,
		ParentID: parentID,
		Name:     name,
		Type:     channelType,
		Position: len(guild.ChannelIDs),
	}
	if err := s.channelsRepo.InsertChannel(ctx, channel); err != nil {
		return nil, fmt.Errorf("failed to insert channel: %w", err)
	}
	s.store.PutChannel(channel)

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.ChannelIDs.Add(channel.ID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return nil, err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return nil, err
	}

	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventChannelCreate, channel); err != nil {
		return nil, fmt.Errorf("failed to dispatch channel create: %w", err)
	}

	log.Printf("📋 Completed successfully - created channel %s", channel.ID)
	return channel, nil
}

// EditChannel patches a channel's mutable fields.
func (s *GuildsService) EditChannel(
	ctx context.Context,
	channelID snowflake.ID,
	patch models.ChannelPatch,
) (*models.Channel, error) {
	log.Printf("📋 Starting to edit channel %s", channelID)

	channel, ok := s.store.GetChannel(channelID).Get()
	if !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}

	s.store.MutateChannel(channelID, func(c *models.Channel) { patch.Apply(c) })
	if err := s.persistChannel(ctx, channel); err != nil {
		return nil, err
	}
	maybeChannel, err := s.reloader.ReloadChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	channel, ok = maybeChannel.Get()
	if !ok {
		return nil, fmt.Errorf("channel %s vanished after update: %w", channelID, core.ErrNotFound)
	}

	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(*channel.GuildID), models.EventChannelUpdate, channel); err != nil {
		return nil, fmt.Errorf("failed to dispatch channel update: %w", err)
	}

	log.Printf("📋 Completed successfully - edited channel %s", channelID)
	return channel, nil
}

// DeleteChannel removes a channel, its messages and its invites. The
// CHANNEL_DELETE goes to the guild scope since the channel itself is gone by
// dispatch time.
func (s *GuildsService) DeleteChannel(ctx context.Context, channelID snowflake.ID) error {
	log.Printf("📋 Starting to delete channel %s", channelID)

	channel, ok := s.store.GetChannel(channelID).Get()
	if !ok || channel.GuildID == nil {
		return fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}
	guildID := *channel.GuildID
	guild, ok := s.store.GetGuild(guildID).Get()
	if !ok {
		return fmt.Errorf("guild %s: %w", guildID, core.ErrNotFound)
	}
	if channelID == guildID {
		return fmt.Errorf("cannot delete the default channel of guild %s", guildID)
	}

	for _, invite := range s.store.GuildInvites(guildID) {
		if invite.ChannelID != channelID {
			continue
		}
		if _, err := s.invitesRepo.DeleteInvite(ctx, invite.Code); err != nil {
			return fmt.Errorf("failed to delete channel invite: %w", err)
		}
	}
	if _, err := s.messagesRepo.DeleteMessagesByChannel(ctx, channelID); err != nil {
		return fmt.Errorf("failed to delete channel messages: %w", err)
	}

	affected, err := s.channelsRepo.DeleteChannel(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("channel delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	s.store.MutateGuild(guildID, func(g *models.Guild) { g.ChannelIDs.Remove(channelID) })
	if err := s.persistGuild(ctx, guild); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadGuild(ctx, guildID); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadChannel(ctx, channelID); err != nil {
		return err
	}

	payload := map[string]any{
		"id":       channelID.String(),
		"guild_id": guildID.String(),
	}
	if err := s.dispatcher.Dispatch(ctx, clients.GuildScope(guildID), models.EventChannelDelete, payload); err != nil {
		return fmt.Errorf("failed to dispatch channel delete: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted channel %s", channelID)
	return nil
}

// PinMessage adds a message to its channel's pin list.
func (s *GuildsService) PinMessage(ctx context.Context, channelID, messageID snowflake.ID) error {
	return s.setPinned(ctx, channelID, messageID, true)
}

// UnpinMessage removes a message from its channel's pin list.
func (s *GuildsService) UnpinMessage(ctx context.Context, channelID, messageID snowflake.ID) error {
	return s.setPinned(ctx, channelID, messageID, false)
}

func (s *GuildsService) setPinned(ctx context.Context, channelID, messageID snowflake.ID, pinned bool) error {
	channel, ok := s.store.GetChannel(channelID).Get()
	if !ok || channel.GuildID == nil {
		return fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}
	message, ok := s.store.GetMessage(messageID).Get()
	if !ok || message.ChannelID != channelID {
		return fmt.Errorf("message %s in channel %s: %w", messageID, channelID, core.ErrNotFound)
	}

	var alreadyPinned, notPinned bool
	s.store.MutateChannel(channelID, func(c *models.Channel) {
		if pinned {
			if c.PinnedIDs.Contains(messageID) {
				alreadyPinned = true
				return
			}
			c.PinnedIDs.Add(messageID)
		} else if !c.PinnedIDs.Remove(messageID) {
			notPinned = true
		}
	})
	if alreadyPinned {
		return nil
	}
	if notPinned {
		return fmt.Errorf("message %s is not pinned: %w", messageID, core.ErrNotFound)
	}

	if err := s.persistChannel(ctx, channel); err != nil {
		return err
	}
	if _, err := s.reloader.ReloadChannel(ctx, channelID); err != nil {
		return err
	}

	payload := map[string]any{
		"channel_id":         channelID.String(),
		"last_pin_timestamp": s.clock.Now(),
	}
	if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(channelID), models.EventChannelPinsUpdate, payload); err != nil {
		return fmt.Errorf("failed to dispatch pins update: %w", err)
	}
	return nil
}

func (s *GuildsService) persistChannel(ctx context.Context, channel *models.Channel) error {
	affected, err := s.channelsRepo.UpdateChannel(ctx, channel)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("channel %s: %w", channel.ID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("channel update touched %d rows: %w", affected, core.ErrInconsistency)
	}
	return nil
}
