package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"guildcore/models"
)

type PostgresChannelsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for channels table
var channelsColumns = []string{
	"id",
	"guild_id",
	"parent_id",
	"name",
	"type",
	"position",
	"topic",
	"pinned_ids",
	"nsfw",
	"bitrate",
	"user_limit",
	"overwrites",
}

func NewPostgresChannelsRepository(db *sqlx.DB, schema string) *PostgresChannelsRepository {
	return &PostgresChannelsRepository{db: db, schema: schema}
}

func (r *PostgresChannelsRepository) FindChannelByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Channel], error) {
	columnsStr := strings.Join(channelsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.channels
		WHERE id = $1`, columnsStr, r.schema)

	channel := &models.Channel{}
	err := r.db.QueryRowxContext(ctx, query, idArg(id)).StructScan(channel)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Channel](), nil
		}
		return mo.None[*models.Channel](), fmt.Errorf("failed to get channel by ID: %w", err)
	}

	return mo.Some(channel), nil
}

func (r *PostgresChannelsRepository) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	columnsStr := strings.Join(channelsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.channels
		ORDER BY id`, columnsStr, r.schema)

	channels := []*models.Channel{}
	if err := r.db.SelectContext(ctx, &channels, query); err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	return channels, nil
}

func (r *PostgresChannelsRepository) InsertChannel(ctx context.Context, channel *models.Channel) error {
	columnsStr := strings.Join(channelsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.channels (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		idArg(channel.ID),
		idPtrArg(channel.GuildID),
		idPtrArg(channel.ParentID),
		channel.Name,
		channel.Type,
		channel.Position,
		channel.Topic,
		channel.PinnedIDs,
		channel.NSFW,
		channel.Bitrate,
		channel.UserLimit,
		channel.Overwrites,
	)
	if err != nil {
		return fmt.Errorf("failed to insert channel: %w", err)
	}

	return nil
}

func (r *PostgresChannelsRepository) UpdateChannel(ctx context.Context, channel *models.Channel) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s.channels
		SET guild_id = $2, parent_id = $3, name = $4, type = $5, position = $6,
		    topic = $7, pinned_ids = $8, nsfw = $9, bitrate = $10,
		    user_limit = $11, overwrites = $12
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query,
		idArg(channel.ID),
		idPtrArg(channel.GuildID),
		idPtrArg(channel.ParentID),
		channel.Name,
		channel.Type,
		channel.Position,
		channel.Topic,
		channel.PinnedIDs,
		channel.NSFW,
		channel.Bitrate,
		channel.UserLimit,
		channel.Overwrites,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update channel: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresChannelsRepository) DeleteChannel(ctx context.Context, id snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.channels
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete channel: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
