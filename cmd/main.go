package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"guildcore/clients"
	"guildcore/clients/socketio"
	"guildcore/config"
	"guildcore/core"
	"guildcore/db"
	"guildcore/handlers"
	"guildcore/models"
	"guildcore/services/guilds"
	"guildcore/services/invites"
	"guildcore/services/messages"
	"guildcore/services/presence"
	"guildcore/state"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	guildsRepo := db.NewPostgresGuildsRepository(dbConn, cfg.DatabaseSchema)
	channelsRepo := db.NewPostgresChannelsRepository(dbConn, cfg.DatabaseSchema)
	rolesRepo := db.NewPostgresRolesRepository(dbConn, cfg.DatabaseSchema)
	membersRepo := db.NewPostgresMembersRepository(dbConn, cfg.DatabaseSchema)
	messagesRepo := db.NewPostgresMessagesRepository(dbConn, cfg.DatabaseSchema)
	invitesRepo := db.NewPostgresInvitesRepository(dbConn, cfg.DatabaseSchema)
	presencesRepo := db.NewPostgresPresencesRepository(dbConn, cfg.DatabaseSchema)

	clock := core.SystemClock{}
	idgen := core.NewSnowflakeGenerator(cfg.WorkerID)

	// Build the entity cache and fill it from the store
	store := state.NewEntityStore()
	reloader := state.NewReloader(store, guildsRepo, channelsRepo, rolesRepo, membersRepo, messagesRepo, invitesRepo)
	loader := state.NewLoader(store, guildsRepo, channelsRepo, rolesRepo, membersRepo, messagesRepo, invitesRepo, clock)
	if err := loader.LoadAll(context.Background()); err != nil {
		return err
	}

	gateway := socketio.NewGateway(store)

	presenceService := presence.NewPresenceService(store, presencesRepo, gateway, clock)
	guildsService := guilds.NewGuildsService(
		store,
		reloader,
		guildsRepo,
		channelsRepo,
		rolesRepo,
		membersRepo,
		messagesRepo,
		invitesRepo,
		presenceService,
		gateway,
		idgen,
		clock,
	)
	messagesService := messages.NewMessagesService(store, reloader, messagesRepo, gateway, idgen, clock)
	invitesService := invites.NewInvitesService(store, reloader, invitesRepo, guildsService, clock)

	requestsHandler := handlers.NewRequestsHandler(guildsService, messagesService, invitesService, presenceService)
	gateway.RegisterRequestHandler(requestsHandler.HandleRequest)

	// Session lifecycle: a connecting user starts watching their guilds and
	// goes online; the last session dropping takes them offline again.
	gateway.RegisterConnectionHook(func(session *clients.Session) error {
		for _, guild := range store.GuildsWithUser(session.UserID) {
			store.MarkWatcher(guild.ID, session.UserID)
		}
		return presenceService.GlobalUpdate(
			context.Background(),
			session.UserID,
			models.PresenceStatus{Status: models.StatusOnline},
		)
	})
	gateway.RegisterDisconnectionHook(func(session *clients.Session) error {
		if gateway.UserSessionCount(session.UserID) > 0 {
			return nil
		}
		err := presenceService.GlobalUpdate(
			context.Background(),
			session.UserID,
			models.OfflineStatus(),
		)
		for _, guild := range store.GuildsWithUser(session.UserID) {
			store.UnmarkWatcher(guild.ID, session.UserID)
		}
		return err
	})

	// Create a new router
	router := mux.NewRouter()
	gateway.RegisterWithRouter(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
