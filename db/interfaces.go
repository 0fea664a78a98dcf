package db

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"

	"guildcore/models"
)

// Per-entity-kind store contracts. Every collection exposes find, insert,
// update and delete semantics; updates and deletes report how many rows were
// affected so callers can map zero onto not-found and more-than-one onto a
// consistency error. The core never relies on store-side joins or
// transactions.

type GuildsRepository interface {
	FindGuildByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Guild], error)
	ListGuilds(ctx context.Context) ([]*models.Guild, error)
	InsertGuild(ctx context.Context, guild *models.Guild) error
	UpdateGuild(ctx context.Context, guild *models.Guild) (int64, error)
	DeleteGuild(ctx context.Context, id snowflake.ID) (int64, error)
}

type ChannelsRepository interface {
	FindChannelByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Channel], error)
	ListChannels(ctx context.Context) ([]*models.Channel, error)
	InsertChannel(ctx context.Context, channel *models.Channel) error
	UpdateChannel(ctx context.Context, channel *models.Channel) (int64, error)
	DeleteChannel(ctx context.Context, id snowflake.ID) (int64, error)
}

type RolesRepository interface {
	FindRoleByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Role], error)
	ListRoles(ctx context.Context) ([]*models.Role, error)
	InsertRole(ctx context.Context, role *models.Role) error
	DeleteRole(ctx context.Context, id snowflake.ID) (int64, error)
}

type MembersRepository interface {
	FindMember(ctx context.Context, guildID, userID snowflake.ID) (mo.Option[*models.Member], error)
	ListMembers(ctx context.Context) ([]*models.Member, error)
	InsertMember(ctx context.Context, member *models.Member) error
	UpdateMember(ctx context.Context, member *models.Member) (int64, error)
	DeleteMember(ctx context.Context, guildID, userID snowflake.ID) (int64, error)
	DeleteMembersByGuild(ctx context.Context, guildID snowflake.ID) (int64, error)
	CountMembershipsByUser(ctx context.Context, userID snowflake.ID) (int, error)
}

type MessagesRepository interface {
	FindMessageByID(ctx context.Context, id snowflake.ID) (mo.Option[*models.Message], error)
	ListMessages(ctx context.Context) ([]*models.Message, error)
	FindChannelMessagesSince(ctx context.Context, channelID, minID snowflake.ID) ([]*models.Message, error)
	InsertMessage(ctx context.Context, message *models.Message) error
	UpdateMessageContent(ctx context.Context, id snowflake.ID, content string) (int64, error)
	DeleteMessage(ctx context.Context, id snowflake.ID) (int64, error)
	DeleteMessages(ctx context.Context, ids []snowflake.ID) (int64, error)
	DeleteMessagesByChannel(ctx context.Context, channelID snowflake.ID) (int64, error)
}

type InvitesRepository interface {
	FindInviteByCode(ctx context.Context, code string) (mo.Option[*models.Invite], error)
	ListInvites(ctx context.Context) ([]*models.Invite, error)
	InsertInvite(ctx context.Context, invite *models.Invite) error
	UpdateInviteUses(ctx context.Context, code string, uses int) (int64, error)
	DeleteInvite(ctx context.Context, code string) (int64, error)
}

type PresencesRepository interface {
	UpsertPresence(ctx context.Context, presence *models.Presence) error
	DeletePresencesByGuild(ctx context.Context, guildID snowflake.ID) (int64, error)
}

