package guilds

import (
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/models"
	"guildcore/testutils"
)

func TestCreateChannel(t *testing.T) {
	t.Run("appends_channel_after_existing_ones", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		f.channels.On("InsertChannel", f.ctx, mock.Anything).Return(nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventChannelCreate, mock.Anything).
			Return(nil)

		channel, err := f.service.CreateChannel(f.ctx, guild.ID, "random", models.ChannelTypeText, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, channel.Position, "new channel lands after the default one")
		assert.True(t, guild.ChannelIDs.Contains(channel.ID))
		assert.True(t, f.store.GetChannel(channel.ID).IsPresent())
	})

	t.Run("non_guild_type_is_rejected", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		_, err := f.service.CreateChannel(f.ctx, guild.ID, "dm", models.ChannelType(1), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidChannelType)
		f.channels.AssertNotCalled(t, "InsertChannel", mock.Anything, mock.Anything)
	})
}

func TestEditChannel(t *testing.T) {
	t.Run("patches_persist_and_dispatch", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()

		f.channels.On("UpdateChannel", f.ctx, channel).Return(int64(1), nil)
		f.channels.On("FindChannelByID", f.ctx, channel.ID).Return(mo.Some(channel), nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventChannelUpdate, channel).
			Return(nil)

		topic := "announcements only"
		edited, err := f.service.EditChannel(f.ctx, channel.ID, models.ChannelPatch{Topic: &topic})
		require.NoError(t, err)

		assert.Same(t, channel, edited)
		assert.Equal(t, "announcements only", channel.Topic)
	})
}

func TestDeleteChannel(t *testing.T) {
	t.Run("default_channel_cannot_be_deleted", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		err := f.service.DeleteChannel(f.ctx, guild.ID)
		require.Error(t, err)
		f.channels.AssertNotCalled(t, "DeleteChannel", mock.Anything, mock.Anything)
	})

	t.Run("takes_messages_and_invites_along", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := &models.Channel{ID: testutils.GenerateID(), GuildID: &guild.ID, Name: "doomed", Type: models.ChannelTypeText}
		guild.ChannelIDs.Add(channel.ID)
		f.store.PutChannel(channel)
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}
		f.store.PutMessage(message)
		invite := &models.Invite{Code: "lastcall", ChannelID: channel.ID, Uses: -1}
		f.store.PutInvite(invite)

		f.invites.On("DeleteInvite", f.ctx, invite.Code).Return(int64(1), nil)
		f.messages.On("DeleteMessagesByChannel", f.ctx, channel.ID).Return(int64(1), nil)
		f.channels.On("DeleteChannel", f.ctx, channel.ID).Return(int64(1), nil)
		f.channels.On("FindChannelByID", f.ctx, channel.ID).Return(mo.None[*models.Channel](), nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventChannelDelete,
			mock.MatchedBy(func(payload any) bool {
				m, ok := payload.(map[string]any)
				return ok && m["id"] == channel.ID.String() && m["guild_id"] == guild.ID.String()
			})).Return(nil)

		require.NoError(t, f.service.DeleteChannel(f.ctx, channel.ID))

		assert.False(t, guild.ChannelIDs.Contains(channel.ID))
		assert.True(t, f.store.GetChannel(channel.ID).IsAbsent())
		assert.True(t, f.store.GetMessage(message.ID).IsAbsent())
		assert.True(t, f.store.GetInvite(invite.Code).IsAbsent())
		f.invites.AssertExpectations(t)
	})
}

func TestPinning(t *testing.T) {
	t.Run("pin_then_unpin_round_trip", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}
		f.store.PutMessage(message)

		f.channels.On("UpdateChannel", f.ctx, channel).Return(int64(1), nil)
		f.channels.On("FindChannelByID", f.ctx, channel.ID).Return(mo.Some(channel), nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.ChannelScope(channel.ID), models.EventChannelPinsUpdate, mock.Anything).
			Return(nil)

		require.NoError(t, f.service.PinMessage(f.ctx, channel.ID, message.ID))
		assert.True(t, channel.PinnedIDs.Contains(message.ID))

		require.NoError(t, f.service.UnpinMessage(f.ctx, channel.ID, message.ID))
		assert.False(t, channel.PinnedIDs.Contains(message.ID))
	})

	t.Run("repinning_is_a_noop", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}
		f.store.PutMessage(message)
		channel.PinnedIDs.Add(message.ID)

		require.NoError(t, f.service.PinMessage(f.ctx, channel.ID, message.ID))
		f.channels.AssertNotCalled(t, "UpdateChannel", mock.Anything, mock.Anything)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unpinning_an_unpinned_message_is_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}
		f.store.PutMessage(message)

		err := f.service.UnpinMessage(f.ctx, channel.ID, message.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("message_from_another_channel_is_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: testutils.GenerateID()}
		f.store.PutMessage(message)

		err := f.service.PinMessage(f.ctx, channel.ID, message.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
