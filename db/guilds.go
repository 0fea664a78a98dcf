package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"
	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	"guildcore/models"
)

type PostgresGuildsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for guilds table
var guildsColumns = []string{
	"id",
	"name",
	"owner_id",
	"icon",
	"region",
	"features",
	"channel_ids",
	"role_ids",
	"member_ids",
	"banned_ids",
}

func NewPostgresGuildsRepository(db *sqlx.DB, schema string) *PostgresGuildsRepository {
	return &PostgresGuildsRepository{db: db, schema: schema}
}

func (r *PostgresGuildsRepository) FindGuildByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Guild], error) {
	columnsStr := strings.Join(guildsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.guilds
		WHERE id = $1`, columnsStr, r.schema)

	guild := &models.Guild{}
	err := r.db.QueryRowxContext(ctx, query, idArg(id)).StructScan(guild)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Guild](), nil
		}
		return mo.None[*models.Guild](), fmt.Errorf("failed to get guild by ID: %w", err)
	}

	return mo.Some(guild), nil
}

func (r *PostgresGuildsRepository) ListGuilds(ctx context.Context) ([]*models.Guild, error) {
	columnsStr := strings.Join(guildsColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.guilds
		ORDER BY id`, columnsStr, r.schema)

	guilds := []*models.Guild{}
	if err := r.db.SelectContext(ctx, &guilds, query); err != nil {
		return nil, fmt.Errorf("failed to list guilds: %w", err)
	}

	return guilds, nil
}

func (r *PostgresGuildsRepository) InsertGuild(ctx context.Context, guild *models.Guild) error {
	columnsStr := strings.Join(guildsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.guilds (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		idArg(guild.ID),
		guild.Name,
		idArg(guild.OwnerID),
		guild.Icon,
		guild.Region,
		guild.Features,
		guild.ChannelIDs,
		guild.RoleIDs,
		guild.MemberIDs,
		guild.BannedIDs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert guild: %w", err)
	}

	return nil
}

func (r *PostgresGuildsRepository) UpdateGuild(ctx context.Context, guild *models.Guild) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s.guilds
		SET name = $2, owner_id = $3, icon = $4, region = $5, features = $6,
		    channel_ids = $7, role_ids = $8, member_ids = $9, banned_ids = $10
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query,
		idArg(guild.ID),
		guild.Name,
		idArg(guild.OwnerID),
		guild.Icon,
		guild.Region,
		guild.Features,
		guild.ChannelIDs,
		guild.RoleIDs,
		guild.MemberIDs,
		guild.BannedIDs,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update guild: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresGuildsRepository) DeleteGuild(ctx context.Context, id snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.guilds
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete guild: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
