package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/api"
	"github.com/contactbook/backend/internal/auth"
	"github.com/contactbook/backend/internal/config"
	"github.com/contactbook/backend/internal/dedup"
	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/push"
	"github.com/contactbook/backend/internal/repository"
	"github.com/contactbook/backend/internal/worker"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	// Initialize logger
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Starting contact book API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	// Initialize database
	ctx := context.Background()
	db, err := initDatabase(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Connected to database")

	rdb, err := initRedis(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Initialize dependencies
	repo := repository.NewPostgresRepository(db)
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessExpiry, cfg.JWT.RefreshExpiry)
	guard := dedup.NewRedisGuard(rdb, cfg.Push.DedupTTL)
	sender := initPush(ctx, cfg.Push, logger)

	pool := worker.NewPool(worker.Config{
		Workers:    cfg.Dispatch.Workers,
		QueueSize:  cfg.Dispatch.QueueSize,
		JobTimeout: cfg.Dispatch.JobTimeout,
	}, logger)
	pool.Start()

	// Initialize WebSocket manager
	wsCtx, wsCancel := context.WithCancel(ctx)
	wsManager := api.NewWebSocketManager(logger)
	go wsManager.Run(wsCtx)

	// Initialize services
	tokenService := domain.NewTokenService(repo, logger)
	alertService := domain.NewAlertService(repo, repo, guard, sender, logger)
	chatService := domain.NewChatService(repo, alertService, wsManager, pool, logger)

	// Initialize handlers
	router := api.NewRouter(
		api.NewDeviceTokenHandler(tokenService, logger),
		api.NewSessionHandler(jwtManager, logger),
		api.NewAlertHandler(alertService, logger),
		api.NewChatHandler(chatService, wsManager, logger),
		api.NewHealthHandler(map[string]api.Pinger{
			"database": repo,
			"redis":    guard,
		}),
		jwtManager,
		cfg.Server.AllowedOrigins,
		logger,
	)
	r := router.Setup()

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	wsCancel()

	// queued alert jobs still get their pushes out
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Dispatch pool shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENV")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func initDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pool settings
	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func initRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// initPush builds the provider router. FCM is optional; without it only
// Expo tokens receive pushes.
func initPush(ctx context.Context, cfg config.PushConfig, logger *zap.Logger) *push.Router {
	expo := push.NewExpo(cfg.ExpoURL, cfg.ExpoAccessToken, logger)

	fcm, err := push.NewFCM(ctx, logger, cfg.FirebaseCredentialsFile)
	if err != nil {
		logger.Warn("Failed to initialize Firebase client - FCM pushes will be disabled", zap.Error(err))
		return push.NewRouter(nil, expo)
	}
	logger.Info("Firebase client initialized")
	return push.NewRouter(fcm, expo)
}
