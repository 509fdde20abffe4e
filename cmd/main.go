package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-api/internal/auth"
	"todo-api/internal/cache"
	"todo-api/internal/config"
	"todo-api/internal/controller"
	"todo-api/internal/database"
	"todo-api/internal/queue"
	"todo-api/internal/repository"
	"todo-api/internal/repository/memory"
	"todo-api/internal/routes"
	"todo-api/internal/service"
	"todo-api/internal/worker"
	"todo-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop); err != nil {
		logger.Error(context.Background(), "Exiting", "error", err)
		stop()
		os.Exit(1)
	}
}

// run owns every resource it opens, so all deferred closes happen before main exits.
func run(ctx context.Context, stop context.CancelFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Setup(os.Stdout, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL())
	if err != nil {
		return fmt.Errorf("token service setup: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	checks := map[string]controller.Check{}
	var (
		users service.UserRepository
		todos service.TodoRepository
	)
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn(ctx, "Using in-memory storage; data is lost on restart")
		users, todos = memory.NewUsers(), memory.NewTodos()
	default:
		db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
		if err != nil {
			return fmt.Errorf("database not available: %w", err)
		}
		defer closeDB(db)
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("schema migration: %w", err)
		}
		users, todos = repository.NewUsers(db), repository.NewTodos(db)
		checks["database"] = db.PingContext
	}

	var opts []service.TodoOption
	var todoCache *cache.TodoCache
	if cfg.RedisURL != "" {
		todoCache, err = cache.New(ctx, cfg.RedisURL, cfg.RedisPoolSize, cfg.CacheTTLDuration())
		if err != nil {
			logger.Warn(ctx, "Redis unavailable; list cache disabled", "error", err)
			todoCache = nil
		} else {
			defer todoCache.Close()
			opts = append(opts, service.WithCache(todoCache))
			checks["redis"] = todoCache.Ping
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaPartitions)
		publisher := queue.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
		opts = append(opts, service.WithEvents(publisher))

		// Consumes todo events and invalidates the cache a second time.
		if todoCache != nil {
			go worker.Run(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, todoCache)
		}
	}

	accounts := service.NewAccountService(users, hasher)
	todoService := service.NewTodoService(todos, opts...)

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Router(routes.Deps{
			Auth:        controller.NewAuthController(accounts, tokens),
			Todos:       controller.NewTodoController(todoService),
			Health:      controller.NewHealthController(checks),
			Tokens:      tokens,
			BasePath:    cfg.APIBasePath,
			CORSOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server shutdown error", "error", err)
	}
	logger.Info(shutdownCtx, "Server stopped")
	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Error(context.Background(), "Database close failed", "error", err)
	}
}
