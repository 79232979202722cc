package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HammerMeetNail/friendgraph/internal/config"
	"github.com/HammerMeetNail/friendgraph/internal/database"
	"github.com/HammerMeetNail/friendgraph/internal/handlers"
	"github.com/HammerMeetNail/friendgraph/internal/logging"
	"github.com/HammerMeetNail/friendgraph/internal/middleware"
	"github.com/HammerMeetNail/friendgraph/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		_ = logging.Default.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := logging.ParseLevel(cfg.Server.LogLevel)
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logging.SetDefaultLevel(level)
	logger := logging.Default.WithField("service", "friendgraph")
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting friendgraph server...", map[string]interface{}{
		"env":       cfg.Server.Environment,
		"log_level": level.String(),
	})

	ctx := context.Background()

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := database.MigrateUp(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()

	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter, userService)

	store := services.NewPostgresRelationshipStore(dbAdapter)
	friendshipService := services.NewFriendshipService(store)
	requestService := services.NewFriendRequestService(store, friendshipService)
	queryService := services.NewFriendQueryService(store)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	sendLimiter := middleware.NewFriendRequestLimiter(redisDB.Client, cfg.RateLimit.FriendRequestLimit, cfg.RateLimit.Window)

	mux := http.NewServeMux()
	handlers.Routes{
		Health:  handlers.NewHealthHandler(db, redisDB),
		Auth:    handlers.NewAuthHandler(userService, authService, cfg.Server.Secure),
		Users:   handlers.NewUserHandler(userService, authService, queryService),
		Friends: handlers.NewFriendHandler(userService, requestService, friendshipService, queryService),
	}.Register(mux, authMiddleware.RequireAuth, sendLimiter.Middleware)

	// Order matters: outermost last. The request logger runs inside
	// Authenticate so it can see the user.
	var handler http.Handler = mux
	handler = middleware.NewRequestLogger(logger).Apply(handler)
	handler = middleware.NewSecurityHeaders(cfg.Server.Secure).Apply(handler)
	handler = authMiddleware.Authenticate(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{"addr": addr})
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
