package db

import (
	"context"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jmoiron/sqlx"

	"guildcore/models"
)

type PostgresPresencesRepository struct {
	db     *sqlx.DB
	schema string
}

func NewPostgresPresencesRepository(db *sqlx.DB, schema string) *PostgresPresencesRepository {
	return &PostgresPresencesRepository{db: db, schema: schema}
}

// UpsertPresence writes the current status for a (guild, user) pair. The
// presence cache is authoritative at runtime; this row only survives
// restarts.
func (r *PostgresPresencesRepository) UpsertPresence(ctx context.Context, presence *models.Presence) error {
	query := fmt.Sprintf(`
		INSERT INTO %s.presences (guild_id, user_id, status, activity_name, activity_url, activity_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (guild_id, user_id)
		DO UPDATE SET status = $3, activity_name = $4, activity_url = $5, activity_type = $6`, r.schema)

	_, err := r.db.ExecContext(ctx, query,
		idArg(presence.GuildID),
		idArg(presence.UserID),
		presence.Status,
		presence.ActivityName,
		presence.ActivityURL,
		presence.ActivityType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert presence: %w", err)
	}

	return nil
}

func (r *PostgresPresencesRepository) DeletePresencesByGuild(
	ctx context.Context,
	guildID snowflake.ID,
) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.presences
		WHERE guild_id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(guildID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete guild presences: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
