package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guildcore/db"
	"guildcore/models"
	"guildcore/testutils"
)

type loaderFixture struct {
	store    *EntityStore
	loader   *Loader
	guilds   *db.MockGuildsRepository
	channels *db.MockChannelsRepository
	roles    *db.MockRolesRepository
	members  *db.MockMembersRepository
	messages *db.MockMessagesRepository
	invites  *db.MockInvitesRepository
	clock    *testutils.FixedClock
	ctx      context.Context
}

func setupLoaderTest(t *testing.T) *loaderFixture {
	f := &loaderFixture{
		store:    NewEntityStore(),
		guilds:   new(db.MockGuildsRepository),
		channels: new(db.MockChannelsRepository),
		roles:    new(db.MockRolesRepository),
		members:  new(db.MockMembersRepository),
		messages: new(db.MockMessagesRepository),
		invites:  new(db.MockInvitesRepository),
		clock:    &testutils.FixedClock{T: time.Now()},
		ctx:      context.Background(),
	}
	f.loader = NewLoader(f.store, f.guilds, f.channels, f.roles, f.members, f.messages, f.invites, f.clock)
	return f
}

func (f *loaderFixture) expectLists(
	members []*models.Member,
	roles []*models.Role,
	channels []*models.Channel,
	guilds []*models.Guild,
	invites []*models.Invite,
	messages []*models.Message,
) {
	f.members.On("ListMembers", f.ctx).Return(members, nil)
	f.roles.On("ListRoles", f.ctx).Return(roles, nil)
	f.channels.On("ListChannels", f.ctx).Return(channels, nil)
	f.guilds.On("ListGuilds", f.ctx).Return(guilds, nil)
	f.invites.On("ListInvites", f.ctx).Return(invites, nil)
	f.messages.On("ListMessages", f.ctx).Return(messages, nil)
}

func TestLoadAll(t *testing.T) {
	t.Run("consistent_state_loads_verbatim", func(t *testing.T) {
		f := setupLoaderTest(t)
		userID := testutils.GenerateID()
		guild := newTestGuild(userID)
		channel := &models.Channel{ID: guild.ID, GuildID: &guild.ID, Name: "general", Type: models.ChannelTypeText}
		role := &models.Role{ID: guild.ID, GuildID: guild.ID, Name: "@everyone"}
		member := &models.Member{GuildID: guild.ID, UserID: userID}
		message := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}
		invite := &models.Invite{Code: "abcdefgh", ChannelID: channel.ID, Uses: -1}

		f.expectLists(
			[]*models.Member{member},
			[]*models.Role{role},
			[]*models.Channel{channel},
			[]*models.Guild{guild},
			[]*models.Invite{invite},
			[]*models.Message{message},
		)

		require.NoError(t, f.loader.LoadAll(f.ctx))

		assert.True(t, f.store.GetGuild(guild.ID).IsPresent())
		assert.True(t, f.store.GetChannel(channel.ID).IsPresent())
		assert.True(t, f.store.GetRole(role.ID).IsPresent())
		assert.True(t, f.store.GetRawMember(guild.ID, userID).IsPresent())
		assert.True(t, f.store.GetMessage(message.ID).IsPresent())
		assert.True(t, f.store.GetInvite(invite.Code).IsPresent())
		assert.Equal(t, 1, f.store.GuildCount())
	})

	t.Run("backfills_missing_member_rows", func(t *testing.T) {
		f := setupLoaderTest(t)
		userID := testutils.GenerateID()
		guild := newTestGuild(userID)
		channel := &models.Channel{ID: guild.ID, GuildID: &guild.ID, Type: models.ChannelTypeText}
		role := &models.Role{ID: guild.ID, GuildID: guild.ID}

		f.members.On("InsertMember", f.ctx, mock.MatchedBy(func(m *models.Member) bool {
			return m.GuildID == guild.ID && m.UserID == userID
		})).Return(nil)
		f.expectLists(
			nil,
			[]*models.Role{role},
			[]*models.Channel{channel},
			[]*models.Guild{guild},
			nil,
			nil,
		)

		require.NoError(t, f.loader.LoadAll(f.ctx))

		assert.True(t, f.store.GetRawMember(guild.ID, userID).IsPresent())
		f.members.AssertExpectations(t)
	})

	t.Run("sweeps_dangling_channel_and_role_refs", func(t *testing.T) {
		f := setupLoaderTest(t)
		userID := testutils.GenerateID()
		guild := newTestGuild(userID)
		channel := &models.Channel{ID: guild.ID, GuildID: &guild.ID, Type: models.ChannelTypeText}
		role := &models.Role{ID: guild.ID, GuildID: guild.ID}
		danglingChannel := testutils.GenerateID()
		danglingRole := testutils.GenerateID()
		guild.ChannelIDs.Add(danglingChannel)
		guild.RoleIDs.Add(danglingRole)
		member := &models.Member{GuildID: guild.ID, UserID: userID}

		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectLists(
			[]*models.Member{member},
			[]*models.Role{role},
			[]*models.Channel{channel},
			[]*models.Guild{guild},
			nil,
			nil,
		)

		require.NoError(t, f.loader.LoadAll(f.ctx))

		assert.False(t, guild.ChannelIDs.Contains(danglingChannel))
		assert.False(t, guild.RoleIDs.Contains(danglingRole))
		f.guilds.AssertExpectations(t)
	})

	t.Run("deletes_invalid_invites", func(t *testing.T) {
		f := setupLoaderTest(t)
		userID := testutils.GenerateID()
		guild := newTestGuild(userID)
		channel := &models.Channel{ID: guild.ID, GuildID: &guild.ID, Type: models.ChannelTypeText}
		role := &models.Role{ID: guild.ID, GuildID: guild.ID}
		member := &models.Member{GuildID: guild.ID, UserID: userID}

		expired := f.clock.T.Add(-time.Hour)
		deadInvite := &models.Invite{Code: "deadcode", ChannelID: channel.ID, Uses: -1, ExpiresAt: &expired}
		exhausted := &models.Invite{Code: "usedupup", ChannelID: channel.ID, Uses: 0}
		alive := &models.Invite{Code: "livecode", ChannelID: channel.ID, Uses: 3}

		f.invites.On("DeleteInvite", f.ctx, "deadcode").Return(int64(1), nil)
		f.invites.On("DeleteInvite", f.ctx, "usedupup").Return(int64(1), nil)
		f.expectLists(
			[]*models.Member{member},
			[]*models.Role{role},
			[]*models.Channel{channel},
			[]*models.Guild{guild},
			[]*models.Invite{deadInvite, exhausted, alive},
			nil,
		)

		require.NoError(t, f.loader.LoadAll(f.ctx))

		assert.True(t, f.store.GetInvite("livecode").IsPresent())
		assert.True(t, f.store.GetInvite("deadcode").IsAbsent())
		assert.True(t, f.store.GetInvite("usedupup").IsAbsent())
		f.invites.AssertExpectations(t)
	})

	t.Run("purges_messages_of_dead_channels", func(t *testing.T) {
		f := setupLoaderTest(t)
		userID := testutils.GenerateID()
		guild := newTestGuild(userID)
		channel := &models.Channel{ID: guild.ID, GuildID: &guild.ID, Type: models.ChannelTypeText}
		role := &models.Role{ID: guild.ID, GuildID: guild.ID}
		member := &models.Member{GuildID: guild.ID, UserID: userID}

		deadChannelID := testutils.GenerateID()
		orphan := &models.Message{ID: testutils.GenerateID(), ChannelID: deadChannelID}
		kept := &models.Message{ID: testutils.GenerateID(), ChannelID: channel.ID}

		f.messages.On("DeleteMessagesByChannel", f.ctx, deadChannelID).Return(int64(1), nil)
		f.expectLists(
			[]*models.Member{member},
			[]*models.Role{role},
			[]*models.Channel{channel},
			[]*models.Guild{guild},
			nil,
			[]*models.Message{orphan, kept},
		)

		require.NoError(t, f.loader.LoadAll(f.ctx))

		assert.True(t, f.store.GetMessage(kept.ID).IsPresent())
		assert.True(t, f.store.GetMessage(orphan.ID).IsAbsent())
		f.messages.AssertExpectations(t)
	})
}
