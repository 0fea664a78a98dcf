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

type PostgresRolesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for roles table
var rolesColumns = []string{
	"id",
	"guild_id",
	"name",
	"permissions",
	"position",
}

func NewPostgresRolesRepository(db *sqlx.DB, schema string) *PostgresRolesRepository {
	return &PostgresRolesRepository{db: db, schema: schema}
}

func (r *PostgresRolesRepository) FindRoleByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Role], error) {
	columnsStr := strings.Join(rolesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.roles
		WHERE id = $1`, columnsStr, r.schema)

	role := &models.Role{}
	err := r.db.QueryRowxContext(ctx, query, idArg(id)).StructScan(role)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Role](), nil
		}
		return mo.None[*models.Role](), fmt.Errorf("failed to get role by ID: %w", err)
	}

	return mo.Some(role), nil
}

func (r *PostgresRolesRepository) ListRoles(ctx context.Context) ([]*models.Role, error) {
	columnsStr := strings.Join(rolesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.roles
		ORDER BY id`, columnsStr, r.schema)

	roles := []*models.Role{}
	if err := r.db.SelectContext(ctx, &roles, query); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}

func (r *PostgresRolesRepository) InsertRole(ctx context.Context, role *models.Role) error {
	columnsStr := strings.Join(rolesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.roles (%s)
		VALUES ($1, $2, $3, $4, $5)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		idArg(role.ID),
		idArg(role.GuildID),
		role.Name,
		role.Permissions,
		role.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert role: %w", err)
	}

	return nil
}

func (r *PostgresRolesRepository) DeleteRole(ctx context.Context, id snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.roles
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete role: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
