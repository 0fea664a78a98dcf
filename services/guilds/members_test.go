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

func TestAddMember(t *testing.T) {
	t.Run("joins_caches_and_announces", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		userID := testutils.GenerateID()

		f.members.On("InsertMember", f.ctx, mock.MatchedBy(func(m *models.Member) bool {
			return m.GuildID == guild.ID && m.UserID == userID
		})).Return(nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.presences.On("CreatePresence", f.ctx, guild.ID, userID).Return(&models.Presence{}, nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildMemberAdd, mock.Anything).
			Return(nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.UserScope(userID), models.EventGuildCreate, mock.Anything).
			Return(nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.UserScope(userID), models.EventUserGuildSettingsUpdate, mock.Anything).
			Return(nil)

		require.NoError(t, f.service.AddMember(f.ctx, guild.ID, userID))

		assert.True(t, guild.MemberIDs.Contains(userID))
		assert.True(t, guild.Watchers.Contains(userID))
		assert.True(t, f.store.GetRawMember(guild.ID, userID).IsPresent())
		f.dispatcher.AssertExpectations(t)
		f.presences.AssertExpectations(t)
	})

	t.Run("banned_user_is_rejected", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		userID := testutils.GenerateID()
		guild.BannedIDs.Add(userID)

		err := f.service.AddMember(f.ctx, guild.ID, userID)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrUserBanned)
		f.members.AssertNotCalled(t, "InsertMember", mock.Anything, mock.Anything)
	})

	t.Run("existing_member_is_a_noop", func(t *testing.T) {
		f := setupGuildsTest(t)
		ownerID := testutils.GenerateID()
		guild := f.seedGuild(ownerID)

		require.NoError(t, f.service.AddMember(f.ctx, guild.ID, ownerID))
		f.members.AssertNotCalled(t, "InsertMember", mock.Anything, mock.Anything)
		f.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRemoveMember(t *testing.T) {
	t.Run("leaves_guild_and_hears_guild_delete", func(t *testing.T) {
		f := setupGuildsTest(t)
		ownerID := testutils.GenerateID()
		guild := f.seedGuild(ownerID)

		f.members.On("DeleteMember", f.ctx, guild.ID, ownerID).Return(int64(1), nil)
		f.members.On("FindMember", f.ctx, guild.ID, ownerID).Return(mo.None[*models.Member](), nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.presences.On("DropMember", guild.ID, ownerID).Return()
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildMemberRemove, mock.Anything).
			Return(nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.UserScope(ownerID), models.EventGuildDelete,
			mock.MatchedBy(func(payload any) bool {
				m, ok := payload.(map[string]any)
				return ok && m["id"] == guild.ID.String()
			})).Return(nil)

		require.NoError(t, f.service.RemoveMember(f.ctx, guild.ID, ownerID))

		assert.False(t, guild.MemberIDs.Contains(ownerID))
		assert.False(t, guild.Watchers.Contains(ownerID))
		assert.True(t, f.store.GetRawMember(guild.ID, ownerID).IsAbsent())
		f.presences.AssertExpectations(t)
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("non_member_is_member_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		err := f.service.RemoveMember(f.ctx, guild.ID, testutils.GenerateID())
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMemberNotFound)
	})
}

func TestEditMember(t *testing.T) {
	t.Run("patches_and_announces", func(t *testing.T) {
		f := setupGuildsTest(t)
		ownerID := testutils.GenerateID()
		guild := f.seedGuild(ownerID)
		member := f.store.GetRawMember(guild.ID, ownerID).MustGet()

		f.members.On("UpdateMember", f.ctx, member).Return(int64(1), nil)
		f.members.On("FindMember", f.ctx, guild.ID, ownerID).Return(mo.Some(member), nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildMemberUpdate, mock.Anything).
			Return(nil)

		nick := "captain"
		edited, err := f.service.EditMember(f.ctx, guild.ID, ownerID, models.MemberPatch{Nick: &nick})
		require.NoError(t, err)

		require.NotNil(t, edited.Nick)
		assert.Equal(t, "captain", *edited.Nick)
	})

	t.Run("unknown_member_is_member_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		_, err := f.service.EditMember(f.ctx, guild.ID, testutils.GenerateID(), models.MemberPatch{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMemberNotFound)
	})
}

func TestBanUser(t *testing.T) {
	t.Run("bans_and_removes_member", func(t *testing.T) {
		f := setupGuildsTest(t)
		ownerID := testutils.GenerateID()
		guild := f.seedGuild(ownerID)

		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.members.On("DeleteMember", f.ctx, guild.ID, ownerID).Return(int64(1), nil)
		f.members.On("FindMember", f.ctx, guild.ID, ownerID).Return(mo.None[*models.Member](), nil)
		f.presences.On("DropMember", guild.ID, ownerID).Return()
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildBanAdd, mock.Anything).
			Return(nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildMemberRemove, mock.Anything).
			Return(nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.UserScope(ownerID), models.EventGuildDelete, mock.Anything).
			Return(nil)

		require.NoError(t, f.service.BanUser(f.ctx, guild.ID, ownerID, 0))

		assert.True(t, guild.BannedIDs.Contains(ownerID))
		assert.False(t, guild.MemberIDs.Contains(ownerID))
		f.dispatcher.AssertExpectations(t)
	})

	t.Run("double_ban_is_already_banned", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		userID := testutils.GenerateID()
		guild.BannedIDs.Add(userID)

		err := f.service.BanUser(f.ctx, guild.ID, userID, 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrAlreadyBanned)
	})

	t.Run("banning_a_non_member_skips_removal", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		userID := testutils.GenerateID()

		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildBanAdd, mock.Anything).
			Return(nil)

		require.NoError(t, f.service.BanUser(f.ctx, guild.ID, userID, 0))

		assert.True(t, guild.BannedIDs.Contains(userID))
		f.members.AssertNotCalled(t, "DeleteMember", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestUnbanUser(t *testing.T) {
	t.Run("lifts_ban_and_allows_rejoin", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		userID := testutils.GenerateID()
		guild.BannedIDs.Add(userID)

		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildBanRemove, mock.Anything).
			Return(nil)

		require.NoError(t, f.service.UnbanUser(f.ctx, guild.ID, userID))
		assert.False(t, guild.BannedIDs.Contains(userID))
	})

	t.Run("not_banned_is_an_error", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		err := f.service.UnbanUser(f.ctx, guild.ID, testutils.GenerateID())
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotBanned)
	})
}
