package socketio

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/gorilla/mux"
	"github.com/samber/mo"
	"github.com/zishang520/socket.io/v2/socket"

	"guildcore/clients"
	"guildcore/core"
	"guildcore/utils"
)

// Event is the wire envelope for dispatched events.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ConnectionHookFunc func(session *clients.Session) error
type RequestHandlerFunc func(session *clients.Session, msg any) error

// TargetResolver maps guild and channel scopes onto the user IDs that should
// receive the event. Satisfied by the entity store.
type TargetResolver interface {
	GuildWatchers(guildID snowflake.ID) []snowflake.ID
	ChannelGuildID(channelID snowflake.ID) mo.Option[snowflake.ID]
}

// GatewayImpl is the Socket.IO event gateway. Every session joins its user's
// room on connect; guild and channel scoped dispatches fan out to the rooms
// of the guild's watchers, so room membership never has to chase guild
// joins and leaves.
type GatewayImpl struct {
	server             *socket.Server
	resolver           TargetResolver
	sessions           []*clients.Session
	sessionsBySocketID map[string]*clients.Session
	mutex              sync.RWMutex
	connectionHooks    []ConnectionHookFunc
	disconnectionHooks []ConnectionHookFunc
	requestHandlers    []RequestHandlerFunc
}

func NewGateway(resolver TargetResolver) *GatewayImpl {
	server := socket.NewServer(nil, nil)
	gw := &GatewayImpl{
		server:             server,
		resolver:           resolver,
		sessions:           make([]*clients.Session, 0),
		sessionsBySocketID: make(map[string]*clients.Session),
		connectionHooks:    make([]ConnectionHookFunc, 0),
		disconnectionHooks: make([]ConnectionHookFunc, 0),
		requestHandlers:    make([]RequestHandlerFunc, 0),
	}

	err := server.On("connection", func(sockets ...any) {
		sock := sockets[0].(*socket.Socket)
		gw.handleConnection(sock)
	})
	utils.AssertInvariant(err == nil, fmt.Sprintf("Failed to register connection handler: %v", err))

	return gw
}

func (gw *GatewayImpl) RegisterWithRouter(router *mux.Router) {
	log.Printf("🚀 Registering Socket.IO gateway on /socket.io/ endpoint")
	router.PathPrefix("/socket.io/").Handler(gw.server.ServeHandler(nil))
	log.Printf("✅ Socket.IO gateway registered on /socket.io/")
}

// getHeader performs a case-insensitive lookup for a header in the handshake
// headers map
func getHeader(headers map[string][]string, headerName string) (string, bool) {
	for key, value := range headers {
		if strings.EqualFold(key, headerName) {
			if len(value) > 0 && value[0] != "" {
				return value[0], true
			}
		}
	}
	return "", false
}

func (gw *GatewayImpl) handleConnection(sock *socket.Socket) {
	log.Printf("🔗 New Socket.IO connection attempt, socket ID: %s", sock.Id())

	headers := sock.Handshake().Headers
	rawUserID, exists := getHeader(headers, "X-GUILDCORE-USER-ID")
	if !exists {
		log.Printf("❌ Rejecting Socket.IO connection: missing X-GUILDCORE-USER-ID header")
		sock.Disconnect(true)
		return
	}

	userID, ok := core.ParseID(rawUserID)
	if !ok {
		log.Printf("❌ Rejecting Socket.IO connection: user ID must be a valid snowflake")
		sock.Disconnect(true)
		return
	}

	session := &clients.Session{
		ID:     core.NewSessionID("sess"),
		UserID: userID,
		Socket: sock,
	}

	sock.Join(socket.Room(userRoom(userID)))

	gw.addSession(session)
	log.Printf("✅ Session %s connected for user %s, socket ID: %s", session.ID, userID, sock.Id())
	gw.invokeConnectionHooks(session)

	err := sock.On("gc_request", func(data ...any) {
		if len(data) == 0 {
			log.Printf("❌ No request data received from session %s", session.ID)
			return
		}
		gw.invokeRequestHandlers(session, data[0])
	})
	utils.AssertInvariant(
		err == nil,
		fmt.Sprintf("Failed to set up request handler for session %s: %v", session.ID, err),
	)

	err = sock.On("disconnect", func(data ...any) {
		log.Printf("🔌 Socket.IO connection closed for session %s (socket ID: %s)", session.ID, sock.Id())
		gw.removeSession(session.ID)
		gw.invokeDisconnectionHooks(session)
	})
	utils.AssertInvariant(
		err == nil,
		fmt.Sprintf("Failed to set up disconnection handler for session %s: %v", session.ID, err),
	)
}

// Dispatch resolves the scope to user IDs and emits the event into each
// user's room. A scope that resolves to nobody is a no-op, not an error.
func (gw *GatewayImpl) Dispatch(ctx context.Context, scope clients.Scope, event string, payload any) error {
	targets := gw.resolveTargets(scope)
	if len(targets) == 0 {
		log.Printf("📭 No sessions in scope %s for event %s", scope, event)
		return nil
	}

	for _, userID := range targets {
		err := gw.server.To(socket.Room(userRoom(userID))).Emit("gc_event", Event{Type: event, Payload: payload})
		if err != nil {
			return fmt.Errorf("failed to dispatch %s to user %s: %w", event, userID, err)
		}
	}

	log.Printf("📤 Dispatched %s to %d users in scope %s", event, len(targets), scope)
	return nil
}

func (gw *GatewayImpl) resolveTargets(scope clients.Scope) []snowflake.ID {
	switch scope.Kind {
	case clients.ScopeKindUser:
		return []snowflake.ID{scope.ID}
	case clients.ScopeKindGuild:
		return gw.resolver.GuildWatchers(scope.ID)
	case clients.ScopeKindChannel:
		guildID, ok := gw.resolver.ChannelGuildID(scope.ID).Get()
		if !ok {
			return nil
		}
		return gw.resolver.GuildWatchers(guildID)
	}
	return nil
}

func userRoom(userID snowflake.ID) string {
	return "user:" + userID.String()
}

func (gw *GatewayImpl) addSession(session *clients.Session) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()
	gw.sessions = append(gw.sessions, session)
	gw.sessionsBySocketID[string(session.Socket.Id())] = session
	log.Printf("📊 Session %s added to active connections. Total sessions: %d", session.ID, len(gw.sessions))
}

func (gw *GatewayImpl) removeSession(sessionID string) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()
	for i, session := range gw.sessions {
		if session.ID == sessionID {
			delete(gw.sessionsBySocketID, string(session.Socket.Id()))
			gw.sessions = append(gw.sessions[:i], gw.sessions[i+1:]...)
			log.Printf("🔌 Session %s removed. Remaining sessions: %d", sessionID, len(gw.sessions))
			return
		}
	}
	log.Printf("⚠️ Attempted to remove session %s but not found in active connections", sessionID)
}

// UserSessionCount reports how many live sessions a user holds. Zero after a
// disconnect means the user went fully offline.
func (gw *GatewayImpl) UserSessionCount(userID snowflake.ID) int {
	gw.mutex.RLock()
	defer gw.mutex.RUnlock()
	count := 0
	for _, session := range gw.sessions {
		if session.UserID == userID {
			count++
		}
	}
	return count
}

func (gw *GatewayImpl) RegisterConnectionHook(hook ConnectionHookFunc) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()
	gw.connectionHooks = append(gw.connectionHooks, hook)
	log.Printf("🔗 Connection hook registered. Total connection hooks: %d", len(gw.connectionHooks))
}

func (gw *GatewayImpl) RegisterDisconnectionHook(hook ConnectionHookFunc) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()
	gw.disconnectionHooks = append(gw.disconnectionHooks, hook)
	log.Printf("🔌 Disconnection hook registered. Total disconnection hooks: %d", len(gw.disconnectionHooks))
}

func (gw *GatewayImpl) RegisterRequestHandler(handler RequestHandlerFunc) {
	gw.mutex.Lock()
	defer gw.mutex.Unlock()
	gw.requestHandlers = append(gw.requestHandlers, handler)
	log.Printf("📝 Request handler registered. Total handlers: %d", len(gw.requestHandlers))
}

func (gw *GatewayImpl) invokeRequestHandlers(session *clients.Session, msg any) {
	gw.mutex.RLock()
	handlers := make([]RequestHandlerFunc, len(gw.requestHandlers))
	copy(handlers, gw.requestHandlers)
	gw.mutex.RUnlock()

	for i, handler := range handlers {
		if err := handler(session, msg); err != nil {
			log.Printf("❌ Request handler %d failed for session %s: %v", i+1, session.ID, err)
		}
	}
}

func (gw *GatewayImpl) invokeConnectionHooks(session *clients.Session) {
	gw.mutex.RLock()
	hooks := make([]ConnectionHookFunc, len(gw.connectionHooks))
	copy(hooks, gw.connectionHooks)
	gw.mutex.RUnlock()

	for i, hook := range hooks {
		if err := hook(session); err != nil {
			log.Printf("❌ Connection hook %d failed for session %s: %v", i+1, session.ID, err)
		}
	}
}

func (gw *GatewayImpl) invokeDisconnectionHooks(session *clients.Session) {
	gw.mutex.RLock()
	hooks := make([]ConnectionHookFunc, len(gw.disconnectionHooks))
	copy(hooks, gw.disconnectionHooks)
	gw.mutex.RUnlock()

	for i, hook := range hooks {
		if err := hook(session); err != nil {
			log.Printf("❌ Disconnection hook %d failed for session %s: %v", i+1, session.ID, err)
		}
	}
}
