package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	"guildcore/models"
)

type PostgresInvitesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for invites table. "unique" is a reserved word, hence the
// quoting.
var invitesColumns = []string{
	"code",
	"channel_id",
	"inviter_id",
	"expires_at",
	"uses",
	"temporary",
	`"unique"`,
}

func NewPostgresInvitesRepository(db *sqlx.DB, schema string) *PostgresInvitesRepository {
	return &PostgresInvitesRepository{db: db, schema: schema}
}

func (r *PostgresInvitesRepository) FindInviteByCode(
	ctx context.Context,
	code string,
) (mo.Option[*models.Invite], error) {
	columnsStr := strings.Join(invitesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.invites
		WHERE code = $1`, columnsStr, r.schema)

	invite := &models.Invite{}
	err := r.db.QueryRowxContext(ctx, query, code).StructScan(invite)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Invite](), nil
		}
		return mo.None[*models.Invite](), fmt.Errorf("failed to get invite by code: %w", err)
	}

	return mo.Some(invite), nil
}

func (r *PostgresInvitesRepository) ListInvites(ctx context.Context) ([]*models.Invite, error) {
	columnsStr := strings.Join(invitesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.invites
		ORDER BY code`, columnsStr, r.schema)

	invites := []*models.Invite{}
	if err := r.db.SelectContext(ctx, &invites, query); err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	return invites, nil
}

func (r *PostgresInvitesRepository) InsertInvite(ctx context.Context, invite *models.Invite) error {
	columnsStr := strings.Join(invitesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.invites (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		invite.Code,
		idArg(invite.ChannelID),
		idArg(invite.InviterID),
		invite.ExpiresAt,
		invite.Uses,
		invite.Temporary,
		invite.Unique,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invite: %w", err)
	}

	return nil
}

func (r *PostgresInvitesRepository) UpdateInviteUses(ctx context.Context, code string, uses int) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s.invites
		SET uses = $2
		WHERE code = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, code, uses)
	if err != nil {
		return 0, fmt.Errorf("failed to update invite uses: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresInvitesRepository) DeleteInvite(ctx context.Context, code string) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.invites
		WHERE code = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return 0, fmt.Errorf("failed to delete invite: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
