package db

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"guildcore/models"
)

// Testify mocks for the repository contracts, used by service and cache
// tests that must run without a database.

type MockGuildsRepository struct {
	mock.Mock
}

func (m *MockGuildsRepository) FindGuildByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Guild], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.Guild](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Guild]), args.Error(1)
}

func (m *MockGuildsRepository) ListGuilds(ctx context.Context) ([]*models.Guild, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Guild), args.Error(1)
}

func (m *MockGuildsRepository) InsertGuild(ctx context.Context, guild *models.Guild) error {
	args := m.Called(ctx, guild)
	return args.Error(0)
}

func (m *MockGuildsRepository) UpdateGuild(ctx context.Context, guild *models.Guild) (int64, error) {
	args := m.Called(ctx, guild)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGuildsRepository) DeleteGuild(ctx context.Context, id snowflake.ID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockChannelsRepository struct {
	mock.Mock
}

func (m *MockChannelsRepository) FindChannelByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Channel], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.Channel](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Channel]), args.Error(1)
}

func (m *MockChannelsRepository) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Channel), args.Error(1)
}

func (m *MockChannelsRepository) InsertChannel(ctx context.Context, channel *models.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockChannelsRepository) UpdateChannel(ctx context.Context, channel *models.Channel) (int64, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChannelsRepository) DeleteChannel(ctx context.Context, id snowflake.ID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockRolesRepository struct {
	mock.Mock
}

func (m *MockRolesRepository) FindRoleByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Role], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.Role](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Role]), args.Error(1)
}

func (m *MockRolesRepository) ListRoles(ctx context.Context) ([]*models.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Role), args.Error(1)
}

func (m *MockRolesRepository) InsertRole(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRolesRepository) DeleteRole(ctx context.Context, id snowflake.ID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type MockMembersRepository struct {
	mock.Mock
}

func (m *MockMembersRepository) FindMember(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (mo.Option[*models.Member], error) {
	args := m.Called(ctx, guildID, userID)
	if args.Get(0) == nil {
		return mo.None[*models.Member](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Member]), args.Error(1)
}

func (m *MockMembersRepository) ListMembers(ctx context.Context) ([]*models.Member, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMembersRepository) InsertMember(ctx context.Context, member *models.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMembersRepository) UpdateMember(ctx context.Context, member *models.Member) (int64, error) {
	args := m.Called(ctx, member)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembersRepository) DeleteMember(ctx context.Context, guildID, userID snowflake.ID) (int64, error) {
	args := m.Called(ctx, guildID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembersRepository) DeleteMembersByGuild(ctx context.Context, guildID snowflake.ID) (int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMembersRepository) CountMembershipsByUser(ctx context.Context, userID snowflake.ID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type MockMessagesRepository struct {
	mock.Mock
}

func (m *MockMessagesRepository) FindMessageByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Message], error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return mo.None[*models.Message](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Message]), args.Error(1)
}

func (m *MockMessagesRepository) ListMessages(ctx context.Context) ([]*models.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockMessagesRepository) FindChannelMessagesSince(
	ctx context.Context,
	channelID, minID snowflake.ID,
) ([]*models.Message, error) {
	args := m.Called(ctx, channelID, minID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Message), args.Error(1)
}

func (m *MockMessagesRepository) InsertMessage(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessagesRepository) UpdateMessageContent(
	ctx context.Context,
	id snowflake.ID,
	content string,
) (int64, error) {
	args := m.Called(ctx, id, content)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessagesRepository) DeleteMessage(ctx context.Context, id snowflake.ID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessagesRepository) DeleteMessages(ctx context.Context, ids []snowflake.ID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMessagesRepository) DeleteMessagesByChannel(
	ctx context.Context,
	channelID snowflake.ID,
) (int64, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Error(1)
}

type MockInvitesRepository struct {
	mock.Mock
}

func (m *MockInvitesRepository) FindInviteByCode(
	ctx context.Context,
	code string,
) (mo.Option[*models.Invite], error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return mo.None[*models.Invite](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.Invite]), args.Error(1)
}

func (m *MockInvitesRepository) ListInvites(ctx context.Context) ([]*models.Invite, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invite), args.Error(1)
}

func (m *MockInvitesRepository) InsertInvite(ctx context.Context, invite *models.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInvitesRepository) UpdateInviteUses(ctx context.Context, code string, uses int) (int64, error) {
	args := m.Called(ctx, code, uses)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvitesRepository) DeleteInvite(ctx context.Context, code string) (int64, error) {
	args := m.Called(ctx, code)
	return args.Get(0).(int64), args.Error(1)
}

type MockPresencesRepository struct {
	mock.Mock
}

func (m *MockPresencesRepository) UpsertPresence(ctx context.Context, presence *models.Presence) error {
	args := m.Called(ctx, presence)
	return args.Error(0)
}

func (m *MockPresencesRepository) DeletePresencesByGuild(
	ctx context.Context,
	guildID snowflake.ID,
) (int64, error) {
	args := m.Called(ctx, guildID)
	return args.Get(0).(int64), args.Error(1)
}
