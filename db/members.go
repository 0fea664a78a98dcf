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

type PostgresMembersRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for members table
var membersColumns = []string{
	"guild_id",
	"user_id",
	"nick",
	"joined_at",
	"deaf",
	"mute",
}

func NewPostgresMembersRepository(db *sqlx.DB, schema string) *PostgresMembersRepository {
	return &PostgresMembersRepository{db: db, schema: schema}
}

func (r *PostgresMembersRepository) FindMember(
	ctx context.Context,
	guildID, userID snowflake.ID,
) (mo.Option[*models.Member], error) {
	columnsStr := strings.Join(membersColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.members
		WHERE guild_id = $1 AND user_id = $2`, columnsStr, r.schema)

	member := &models.Member{}
	err := r.db.QueryRowxContext(ctx, query, idArg(guildID), idArg(userID)).StructScan(member)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Member](), nil
		}
		return mo.None[*models.Member](), fmt.Errorf("failed to get member: %w", err)
	}

	return mo.Some(member), nil
}

func (r *PostgresMembersRepository) ListMembers(ctx context.Context) ([]*models.Member, error) {
	columnsStr := strings.Join(membersColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.members
		ORDER BY guild_id, user_id`, columnsStr, r.schema)

	members := []*models.Member{}
	if err := r.db.SelectContext(ctx, &members, query); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	return members, nil
}

func (r *PostgresMembersRepository) InsertMember(ctx context.Context, member *models.Member) error {
	columnsStr := strings.Join(membersColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.members (%s)
		VALUES ($1, $2, $3, $4, $5, $6)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		idArg(member.GuildID),
		idArg(member.UserID),
		member.Nick,
		member.JoinedAt,
		member.Deaf,
		member.Mute,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}

	return nil
}

func (r *PostgresMembersRepository) UpdateMember(ctx context.Context, member *models.Member) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s.members
		SET nick = $3, joined_at = $4, deaf = $5, mute = $6
		WHERE guild_id = $1 AND user_id = $2`, r.schema)

	res, err := r.db.ExecContext(ctx, query,
		idArg(member.GuildID),
		idArg(member.UserID),
		member.Nick,
		member.JoinedAt,
		member.Deaf,
		member.Mute,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update member: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMembersRepository) DeleteMember(ctx context.Context, guildID, userID snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.members
		WHERE guild_id = $1 AND user_id = $2`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(guildID), idArg(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete member: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMembersRepository) DeleteMembersByGuild(ctx context.Context, guildID snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.members
		WHERE guild_id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(guildID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete guild members: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMembersRepository) CountMembershipsByUser(ctx context.Context, userID snowflake.ID) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s.members
		WHERE user_id = $1`, r.schema)

	var count int
	if err := r.db.GetContext(ctx, &count, query, idArg(userID)); err != nil {
		return 0, fmt.Errorf("failed to count memberships: %w", err)
	}

	return count, nil
}
