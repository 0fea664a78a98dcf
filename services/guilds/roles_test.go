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

func TestCreateRole(t *testing.T) {
	t.Run("appends_role_after_existing_ones", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		f.roles.On("InsertRole", f.ctx, mock.Anything).Return(nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.expectGuildReload(guild)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventGuildRoleCreate, mock.Anything).
			Return(nil)

		role, err := f.service.CreateRole(f.ctx, guild.ID, "mods", 0x8)
		require.NoError(t, err)

		assert.Equal(t, 1, role.Position, "new role lands after the default one")
		assert.True(t, guild.RoleIDs.Contains(role.ID))
		assert.True(t, f.store.GetRole(role.ID).IsPresent())
	})

	t.Run("unknown_guild_is_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)

		_, err := f.service.CreateRole(f.ctx, testutils.GenerateID(), "mods", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestDeleteRole(t *testing.T) {
	t.Run("strips_channel_overwrites", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		channel := f.store.GetChannel(guild.ID).MustGet()
		role := &models.Role{ID: testutils.GenerateID(), GuildID: guild.ID, Name: "mods"}
		guild.RoleIDs.Add(role.ID)
		channel.Overwrites = models.IDList{role.ID}
		f.store.PutRole(role)

		f.channels.On("UpdateChannel", f.ctx, channel).Return(int64(1), nil)
		f.guilds.On("UpdateGuild", f.ctx, guild).Return(int64(1), nil)
		f.roles.On("DeleteRole", f.ctx, role.ID).Return(int64(1), nil)
		f.roles.On("FindRoleByID", f.ctx, role.ID).Return(mo.None[*models.Role](), nil)
		f.dispatcher.On("Dispatch", f.ctx, clients.GuildScope(guild.ID), models.EventRoleDelete,
			mock.MatchedBy(func(payload any) bool {
				m, ok := payload.(map[string]any)
				return ok && m["role_id"] == role.ID.String() && m["guild_id"] == guild.ID.String()
			})).Return(nil)

		require.NoError(t, f.service.DeleteRole(f.ctx, guild.ID, role.ID))

		assert.False(t, channel.Overwrites.Contains(role.ID))
		assert.False(t, guild.RoleIDs.Contains(role.ID))
		assert.True(t, f.store.GetRole(role.ID).IsAbsent())
		f.channels.AssertExpectations(t)
	})

	t.Run("default_role_cannot_be_deleted", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())

		err := f.service.DeleteRole(f.ctx, guild.ID, guild.ID)
		require.Error(t, err)
		f.roles.AssertNotCalled(t, "DeleteRole", mock.Anything, mock.Anything)
	})

	t.Run("role_from_another_guild_is_not_found", func(t *testing.T) {
		f := setupGuildsTest(t)
		guild := f.seedGuild(testutils.GenerateID())
		otherGuild := f.seedGuild(testutils.GenerateID())
		role := &models.Role{ID: testutils.GenerateID(), GuildID: otherGuild.ID, Name: "foreign"}
		f.store.PutRole(role)

		err := f.service.DeleteRole(f.ctx, guild.ID, role.ID)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
