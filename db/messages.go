package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/mo"

	"guildcore/models"
)

type PostgresMessagesRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for messages table
var messagesColumns = []string{
	"id",
	"channel_id",
	"author_id",
	"content",
	"timestamp",
	"edited",
}

func NewPostgresMessagesRepository(db *sqlx.DB, schema string) *PostgresMessagesRepository {
	return &PostgresMessagesRepository{db: db, schema: schema}
}

func (r *PostgresMessagesRepository) FindMessageByID(
	ctx context.Context,
	id snowflake.ID,
) (mo.Option[*models.Message], error) {
	columnsStr := strings.Join(messagesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		WHERE id = $1`, columnsStr, r.schema)

	message := &models.Message{}
	err := r.db.QueryRowxContext(ctx, query, idArg(id)).StructScan(message)
	if err != nil {
		if strings.Contains(err.Error(), "no rows") {
			return mo.None[*models.Message](), nil
		}
		return mo.None[*models.Message](), fmt.Errorf("failed to get message by ID: %w", err)
	}

	return mo.Some(message), nil
}

func (r *PostgresMessagesRepository) ListMessages(ctx context.Context) ([]*models.Message, error) {
	columnsStr := strings.Join(messagesColumns, ", ")

	// chronological order comes from the monotonic ID, not insertion order
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		ORDER BY id`, columnsStr, r.schema)

	messages := []*models.Message{}
	if err := r.db.SelectContext(ctx, &messages, query); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

func (r *PostgresMessagesRepository) FindChannelMessagesSince(
	ctx context.Context,
	channelID, minID snowflake.ID,
) ([]*models.Message, error) {
	columnsStr := strings.Join(messagesColumns, ", ")

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.messages
		WHERE channel_id = $1 AND id > $2
		ORDER BY id`, columnsStr, r.schema)

	messages := []*models.Message{}
	if err := r.db.SelectContext(ctx, &messages, query, idArg(channelID), idArg(minID)); err != nil {
		return nil, fmt.Errorf("failed to get channel messages: %w", err)
	}

	return messages, nil
}

func (r *PostgresMessagesRepository) InsertMessage(ctx context.Context, message *models.Message) error {
	columnsStr := strings.Join(messagesColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.messages (%s)
		VALUES ($1, $2, $3, $4, $5, $6)`, r.schema, columnsStr)

	_, err := r.db.ExecContext(ctx, query,
		idArg(message.ID),
		idArg(message.ChannelID),
		idPtrArg(message.AuthorID),
		message.Content,
		message.Timestamp,
		message.Edited,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

func (r *PostgresMessagesRepository) UpdateMessageContent(
	ctx context.Context,
	id snowflake.ID,
	content string,
) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s.messages
		SET content = $2, edited = TRUE
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(id), content)
	if err != nil {
		return 0, fmt.Errorf("failed to update message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMessagesRepository) DeleteMessage(ctx context.Context, id snowflake.ID) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.messages
		WHERE id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(id))
	if err != nil {
		return 0, fmt.Errorf("failed to delete message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMessagesRepository) DeleteMessages(ctx context.Context, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	arr := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}

	query := fmt.Sprintf(`
		DELETE FROM %s.messages
		WHERE id = ANY($1)`, r.schema)

	res, err := r.db.ExecContext(ctx, query, arr)
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}

func (r *PostgresMessagesRepository) DeleteMessagesByChannel(
	ctx context.Context,
	channelID snowflake.ID,
) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s.messages
		WHERE channel_id = $1`, r.schema)

	res, err := r.db.ExecContext(ctx, query, idArg(channelID))
	if err != nil {
		return 0, fmt.Errorf("failed to delete channel messages: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected, nil
}
