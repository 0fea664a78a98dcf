package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"guildcore/clients"
	"guildcore/db"
	"guildcore/models"
	"guildcore/services/guilds"
	"guildcore/services/invites"
	"guildcore/services/messages"
	"guildcore/services/presence"
	"guildcore/state"
	"guildcore/testutils"
)

type handlerFixture struct {
	handler      *RequestsHandler
	store        *state.EntityStore
	messagesRepo *db.MockMessagesRepository
	dispatcher   *clients.MockDispatcher
	session      *clients.Session
}

func setupHandlerTest(t *testing.T) *handlerFixture {
	store := state.NewEntityStore()
	guildsRepo := new(db.MockGuildsRepository)
	channelsRepo := new(db.MockChannelsRepository)
	rolesRepo := new(db.MockRolesRepository)
	membersRepo := new(db.MockMembersRepository)
	messagesRepo := new(db.MockMessagesRepository)
	invitesRepo := new(db.MockInvitesRepository)
	presencesRepo := new(db.MockPresencesRepository)
	dispatcher := new(clients.MockDispatcher)
	clock := &testutils.FixedClock{T: time.Now()}

	reloader := state.NewReloader(store, guildsRepo, channelsRepo, rolesRepo, membersRepo, messagesRepo, invitesRepo)
	presenceService := presence.NewPresenceService(store, presencesRepo, dispatcher, clock)
	guildsService := guilds.NewGuildsService(
		store, reloader,
		guildsRepo, channelsRepo, rolesRepo, membersRepo, messagesRepo, invitesRepo,
		presenceService, dispatcher, testutils.Generator(), clock,
	)
	messagesService := messages.NewMessagesService(store, reloader, messagesRepo, dispatcher, testutils.Generator(), clock)
	invitesService := invites.NewInvitesService(store, reloader, invitesRepo, guildsService, clock)

	return &handlerFixture{
		handler:      NewRequestsHandler(guildsService, messagesService, invitesService, presenceService),
		store:        store,
		messagesRepo: messagesRepo,
		dispatcher:   dispatcher,
		session:      &clients.Session{ID: "sess_test", UserID: testutils.GenerateID()},
	}
}

func TestHandleRequest(t *testing.T) {
	t.Run("routes_create_message_to_the_service", func(t *testing.T) {
		f := setupHandlerTest(t)
		guildID := testutils.GenerateID()
		channel := &models.Channel{ID: testutils.GenerateID(), GuildID: &guildID, Type: models.ChannelTypeText}
		f.store.PutChannel(channel)

		f.messagesRepo.On("InsertMessage", mock.Anything, mock.MatchedBy(func(m *models.Message) bool {
			return m.ChannelID == channel.ID && *m.AuthorID == f.session.UserID && m.Content == "hi"
		})).Return(nil)
		f.dispatcher.On("Dispatch", mock.Anything, clients.ChannelScope(channel.ID), models.EventMessageCreate, mock.Anything).
			Return(nil)

		msg := map[string]any{
			"type": models.RequestTypeCreateMessage,
			"payload": map[string]any{
				"channel_id": channel.ID.String(),
				"content":    "hi",
			},
		}
		require.NoError(t, f.handler.HandleRequest(f.session, msg))
		f.messagesRepo.AssertExpectations(t)
	})

	t.Run("malformed_snowflake_is_rejected", func(t *testing.T) {
		f := setupHandlerTest(t)

		msg := map[string]any{
			"type":    models.RequestTypeDeleteChannel,
			"payload": map[string]any{"channel_id": "not-a-number"},
		}
		err := f.handler.HandleRequest(f.session, msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a valid snowflake")
	})

	t.Run("unknown_request_type_is_an_error", func(t *testing.T) {
		f := setupHandlerTest(t)

		msg := map[string]any{"type": "reverse_entropy"}
		err := f.handler.HandleRequest(f.session, msg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown request type")
	})
}
