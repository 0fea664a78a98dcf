package invites

import (
	"context"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
	"guildcore/state"
	"guildcore/testutils"
)

type invitesFixture struct {
	service *InvitesService
	store   *state.EntityStore
	repo    *db.MockInvitesRepository
	joiner  *MockGuildJoiner
	clock   *testutils.FixedClock
	ctx     context.Context
}

func setupInvitesTest(t *testing.T) *invitesFixture {
	f := &invitesFixture{
		store:  state.NewEntityStore(),
		repo:   new(db.MockInvitesRepository),
		joiner: new(MockGuildJoiner),
		clock:  &testutils.FixedClock{T: time.Now()},
		ctx:    context.Background(),
	}
	reloader := state.NewReloader(
		f.store,
		new(db.MockGuildsRepository),
		new(db.MockChannelsRepository),
		new(db.MockRolesRepository),
		new(db.MockMembersRepository),
		new(db.MockMessagesRepository),
		f.repo,
	)
	f.service = NewInvitesService(f.store, reloader, f.repo, f.joiner, f.clock)
	return f
}

// seedGuildChannel caches a guild plus one channel belonging to it.
func (f *invitesFixture) seedGuildChannel() *models.Channel {
	guildID := testutils.GenerateID()
	guild := &models.Guild{
		ID:         guildID,
		OwnerID:    testutils.GenerateID(),
		ChannelIDs: models.IDList{guildID},
		RoleIDs:    models.IDList{guildID},
		MemberIDs:  models.IDList{},
	}
	channel := &models.Channel{ID: guildID, GuildID: &guild.ID, Name: "general", Type: models.ChannelTypeText}
	f.store.PutGuild(guild)
	f.store.PutChannel(channel)
	return channel
}

func TestCreateInvite(t *testing.T) {
	t.Run("zero_max_uses_means_unlimited", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()

		f.repo.On("FindInviteByCode", f.ctx, mock.Anything).Return(mo.None[*models.Invite](), nil)
		f.repo.On("InsertInvite", f.ctx, mock.Anything).Return(nil)

		invite, err := f.service.CreateInvite(f.ctx, channel.ID, testutils.GenerateID(), models.InviteParams{})
		require.NoError(t, err)

		assert.Equal(t, models.UnlimitedUses, invite.Uses)
		assert.Nil(t, invite.ExpiresAt, "zero max age must not set an expiry")
		assert.True(t, f.store.GetInvite(invite.Code).IsPresent())
	})

	t.Run("max_age_sets_expiry_from_clock", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()

		f.repo.On("FindInviteByCode", f.ctx, mock.Anything).Return(mo.None[*models.Invite](), nil)
		f.repo.On("InsertInvite", f.ctx, mock.Anything).Return(nil)

		invite, err := f.service.CreateInvite(f.ctx, channel.ID, testutils.GenerateID(),
			models.InviteParams{MaxAge: 3600, MaxUses: 5})
		require.NoError(t, err)

		require.NotNil(t, invite.ExpiresAt)
		assert.Equal(t, f.clock.T.Add(time.Hour), *invite.ExpiresAt)
		assert.Equal(t, 5, invite.Uses)
	})

	t.Run("unknown_channel_is_not_found", func(t *testing.T) {
		f := setupInvitesTest(t)

		_, err := f.service.CreateInvite(f.ctx, testutils.GenerateID(), testutils.GenerateID(), models.InviteParams{})
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("code_collision_retries", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()

		taken := &models.Invite{Code: "occupied", ChannelID: channel.ID, Uses: -1}
		f.repo.On("FindInviteByCode", f.ctx, mock.Anything).Return(mo.Some(taken), nil).Once()
		f.repo.On("FindInviteByCode", f.ctx, mock.Anything).Return(mo.None[*models.Invite](), nil)
		f.repo.On("InsertInvite", f.ctx, mock.Anything).Return(nil)

		invite, err := f.service.CreateInvite(f.ctx, channel.ID, testutils.GenerateID(), models.InviteParams{})
		require.NoError(t, err)
		assert.NotEqual(t, "occupied", invite.Code)
		f.repo.AssertNumberOfCalls(t, "FindInviteByCode", 2)
	})
}

func TestUseInvite(t *testing.T) {
	t.Run("consumes_and_joins_guild", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()
		userID := testutils.GenerateID()
		invite := &models.Invite{Code: "welcomes", ChannelID: channel.ID, Uses: 3}
		f.store.PutInvite(invite)

		f.repo.On("UpdateInviteUses", f.ctx, invite.Code, 2).Return(int64(1), nil)
		f.joiner.On("AddMember", f.ctx, *channel.GuildID, userID).Return(nil)

		used, err := f.service.UseInvite(f.ctx, invite.Code, userID)
		require.NoError(t, err)

		got, ok := used.Get()
		require.True(t, ok)
		assert.Equal(t, 2, got.Uses)
		f.joiner.AssertExpectations(t)
	})

	t.Run("unlimited_invite_never_exhausts", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()
		invite := &models.Invite{Code: "foreverx", ChannelID: channel.ID, Uses: models.UnlimitedUses}
		f.store.PutInvite(invite)

		f.repo.On("UpdateInviteUses", f.ctx, invite.Code, models.UnlimitedUses).Return(int64(1), nil)
		f.joiner.On("AddMember", f.ctx, *channel.GuildID, mock.Anything).Return(nil)

		for i := 0; i < 5; i++ {
			used, err := f.service.UseInvite(f.ctx, invite.Code, testutils.GenerateID())
			require.NoError(t, err)
			require.True(t, used.IsPresent())
		}
		assert.Equal(t, models.UnlimitedUses, invite.Uses)
	})

	t.Run("single_use_invite_rejects_second_use", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()
		invite := &models.Invite{Code: "onetimer", ChannelID: channel.ID, Uses: 1}
		f.store.PutInvite(invite)

		f.repo.On("UpdateInviteUses", f.ctx, invite.Code, 0).Return(int64(1), nil)
		f.joiner.On("AddMember", f.ctx, *channel.GuildID, mock.Anything).Return(nil)

		first, err := f.service.UseInvite(f.ctx, invite.Code, testutils.GenerateID())
		require.NoError(t, err)
		assert.True(t, first.IsPresent())
		assert.Equal(t, 0, invite.Uses)
		assert.False(t, invite.Valid(f.clock.T))

		second, err := f.service.UseInvite(f.ctx, invite.Code, testutils.GenerateID())
		require.NoError(t, err)
		assert.True(t, second.IsAbsent())
		// exhaustion invalidates the invite but never deletes it
		assert.True(t, f.store.GetInvite(invite.Code).IsPresent())
		f.repo.AssertNotCalled(t, "DeleteInvite", mock.Anything, mock.Anything)
		f.joiner.AssertNumberOfCalls(t, "AddMember", 1)
	})

	t.Run("expired_invite_is_rejected_but_kept", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()
		past := f.clock.T.Add(-time.Minute)
		invite := &models.Invite{Code: "bygones1", ChannelID: channel.ID, Uses: -1, ExpiresAt: &past}
		f.store.PutInvite(invite)

		used, err := f.service.UseInvite(f.ctx, invite.Code, testutils.GenerateID())
		require.NoError(t, err)
		assert.True(t, used.IsAbsent())
		assert.True(t, f.store.GetInvite(invite.Code).IsPresent())
		f.repo.AssertNotCalled(t, "DeleteInvite", mock.Anything, mock.Anything)
		f.joiner.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown_code_is_silently_none", func(t *testing.T) {
		f := setupInvitesTest(t)

		used, err := f.service.UseInvite(f.ctx, "nosuchxx", testutils.GenerateID())
		require.NoError(t, err)
		assert.True(t, used.IsAbsent())
	})

	t.Run("dangling_channel_is_silently_none", func(t *testing.T) {
		f := setupInvitesTest(t)
		invite := &models.Invite{Code: "orphaned", ChannelID: testutils.GenerateID(), Uses: -1}
		f.store.PutInvite(invite)

		used, err := f.service.UseInvite(f.ctx, invite.Code, testutils.GenerateID())
		require.NoError(t, err)
		assert.True(t, used.IsAbsent())
		f.joiner.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteInvite(t *testing.T) {
	t.Run("deletes_row_and_evicts", func(t *testing.T) {
		f := setupInvitesTest(t)
		channel := f.seedGuildChannel()
		invite := &models.Invite{Code: "revokeme", ChannelID: channel.ID, Uses: -1}
		f.store.PutInvite(invite)

		f.repo.On("DeleteInvite", f.ctx, invite.Code).Return(int64(1), nil)
		f.repo.On("FindInviteByCode", f.ctx, invite.Code).Return(mo.None[*models.Invite](), nil)

		require.NoError(t, f.service.DeleteInvite(f.ctx, invite.Code))
		assert.True(t, f.store.GetInvite(invite.Code).IsAbsent())
	})

	t.Run("zero_rows_affected_is_not_found", func(t *testing.T) {
		f := setupInvitesTest(t)
		f.repo.On("DeleteInvite", f.ctx, "missing1").Return(int64(0), nil)

		err := f.service.DeleteInvite(f.ctx, "missing1")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("multiple_rows_affected_is_inconsistency", func(t *testing.T) {
		f := setupInvitesTest(t)
		f.repo.On("DeleteInvite", f.ctx, "doubled1").Return(int64(2), nil)

		err := f.service.DeleteInvite(f.ctx, "doubled1")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInconsistency)
	})
}
