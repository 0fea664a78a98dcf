package messages

import (
	"context"
	"fmt"
	"log"

	"github.com/disgoorg/snowflake/v2"
	"github.com/samber/mo"
	"golang.org/x/sync/semaphore"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/db"
	"guildcore/models"
	"guildcore/state"
)

// maxConcurrentCreates bounds in-flight message inserts so a burst cannot
// swamp the store.
const maxConcurrentCreates = 3

type MessagesService struct {
	store        *state.EntityStore
	reloader     *state.Reloader
	messagesRepo db.MessagesRepository
	dispatcher   clients.Dispatcher
	idgen        *core.SnowflakeGenerator
	clock        core.Clock
	createGate   *semaphore.Weighted
}

func NewMessagesService(
	store *state.EntityStore,
	reloader *state.Reloader,
	messagesRepo db.MessagesRepository,
	dispatcher clients.Dispatcher,
	idgen *core.SnowflakeGenerator,
	clock core.Clock,
) *MessagesService {
	return &MessagesService{
		store:        store,
		reloader:     reloader,
		messagesRepo: messagesRepo,
		dispatcher:   dispatcher,
		idgen:        idgen,
		clock:        clock,
		createGate:   semaphore.NewWeighted(maxConcurrentCreates),
	}
}

func (s *MessagesService) GetMessage(id snowflake.ID) mo.Option[*models.Message] {
	return s.store.GetMessage(id)
}

func (s *MessagesService) ChannelMessages(channelID snowflake.ID) []*models.Message {
	return s.store.ChannelMessages(channelID)
}

// CreateMessage appends a message to a channel. The insert runs under the
// create gate; the gate is released before the dispatch so a slow consumer
// never holds a permit.
func (s *MessagesService) CreateMessage(
	ctx context.Context,
	channelID, authorID snowflake.ID,
	content string,
) (*models.Message, error) {
	log.Printf("📋 Starting to create message in channel %s by user %s", channelID, authorID)

	if _, ok := s.store.GetChannel(channelID).Get(); !ok {
		return nil, fmt.Errorf("channel %s: %w", channelID, core.ErrNotFound)
	}

	if err := s.createGate.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire message create permit: %w", err)
	}

	author := authorID
	message := &models.Message{
		ID:        s.idgen.NextID(),
		ChannelID: channelID,
		AuthorID:  &author,
		Content:   content,
		Timestamp: s.clock.Now(),
	}

	if err := s.messagesRepo.InsertMessage(ctx, message); err != nil {
		s.createGate.Release(1)
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	s.store.PutMessage(message)
	s.createGate.Release(1)

	if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(channelID), models.EventMessageCreate, message); err != nil {
		return nil, fmt.Errorf("failed to dispatch message create: %w", err)
	}

	log.Printf("📋 Completed successfully - created message %s", message.ID)
	return message, nil
}

// EditMessage replaces a message's content and marks it edited.
func (s *MessagesService) EditMessage(
	ctx context.Context,
	messageID snowflake.ID,
	patch models.MessagePatch,
) (*models.Message, error) {
	log.Printf("📋 Starting to edit message %s", messageID)

	if patch.Content == nil {
		message, ok := s.store.GetMessage(messageID).Get()
		if !ok {
			return nil, fmt.Errorf("message %s: %w", messageID, core.ErrNotFound)
		}
		return message, nil
	}

	affected, err := s.messagesRepo.UpdateMessageContent(ctx, messageID, *patch.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("message %s: %w", messageID, core.ErrNotFound)
	}
	if affected > 1 {
		return nil, fmt.Errorf("message update touched %d rows: %w", affected, core.ErrInconsistency)
	}

	maybeMessage, err := s.reloader.ReloadMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	message, ok := maybeMessage.Get()
	if !ok {
		return nil, fmt.Errorf("message %s vanished after update: %w", messageID, core.ErrNotFound)
	}

	if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(message.ChannelID), models.EventMessageUpdate, message); err != nil {
		return nil, fmt.Errorf("failed to dispatch message update: %w", err)
	}

	log.Printf("📋 Completed successfully - edited message %s", messageID)
	return message, nil
}

// DeleteMessage removes a message row and evicts it from the cache. The
// MESSAGE_DELETE payload carries only IDs, never the dead content.
func (s *MessagesService) DeleteMessage(ctx context.Context, messageID snowflake.ID) error {
	log.Printf("📋 Starting to delete message %s", messageID)

	message, ok := s.store.GetMessage(messageID).Get()
	if !ok {
		return fmt.Errorf("message %s: %w", messageID, core.ErrNotFound)
	}
	channelID := message.ChannelID

	affected, err := s.messagesRepo.DeleteMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("message %s: %w", messageID, core.ErrNotFound)
	}
	if affected > 1 {
		return fmt.Errorf("message delete touched %d rows: %w", affected, core.ErrInconsistency)
	}

	if _, err := s.reloader.ReloadMessage(ctx, messageID); err != nil {
		return err
	}

	payload := map[string]any{
		"id":         messageID.String(),
		"channel_id": channelID.String(),
	}
	if err := s.dispatcher.Dispatch(ctx, clients.ChannelScope(channelID), models.EventMessageDelete, payload); err != nil {
		return fmt.Errorf("failed to dispatch message delete: %w", err)
	}

	log.Printf("📋 Completed successfully - deleted message %s", messageID)
	return nil
}
