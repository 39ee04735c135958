// Package main is the entry point for the tournament ledger API server.
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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tournament-ledger/internal/bot"
	"tournament-ledger/internal/config"
	"tournament-ledger/internal/handler"
	"tournament-ledger/internal/pkg/db"
	"tournament-ledger/internal/pkg/session"
	"tournament-ledger/internal/repository"
	"tournament-ledger/internal/repository/memory"
	"tournament-ledger/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.App.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info().
		Str("env", cfg.App.Env).
		Str("driver", cfg.Database.Driver).
		Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.Close()

	revocations, closeRevocations, err := openRevocations(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer closeRevocations()

	sessions := session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, revocations)
	locks := service.NewLocks(cfg.Ledger.LockTimeout)

	// Initialize services
	accountService := service.NewAccountService(store, locks, sessions, cfg.Auth.BcryptCost)
	tournamentService := service.NewTournamentService(store, locks)
	walletService := service.NewWalletService(store, locks, nil)
	settingsService := service.NewSettingsService(store, cfg.Settings)

	created, err := accountService.EnsureAdmin(ctx, service.AdminSeed{
		Username:       cfg.Admin.Username,
		Email:          cfg.Admin.Email,
		Password:       cfg.Admin.Password,
		Phone:          cfg.Admin.Phone,
		InitialBalance: cfg.Admin.InitialBalance,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin account")
	}
	if created && cfg.App.IsProduction() && cfg.Admin.Password == "daddyjii" {
		log.Warn().Msg("Admin account seeded with the default password, change it now")
	}

	// Optional Telegram admin console
	var telegramBot *bot.Bot
	if cfg.Bot.Enabled {
		telegramBot, err = bot.New(&bot.Dependencies{
			Config:      cfg,
			Accounts:    accountService,
			Tournaments: tournamentService,
			Wallet:      walletService,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		walletService.SetNotifier(telegramBot.Notifier())
		go telegramBot.Start()
	}

	router, err := handler.NewRouter(&handler.Dependencies{
		Accounts:       accountService,
		Tournaments:    tournamentService,
		Wallet:         walletService,
		Settings:       settingsService,
		Sessions:       sessions,
		Store:          store,
		TrustedProxies: cfg.App.TrustedProxies,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if telegramBot != nil {
		telegramBot.Stop()
	}
	log.Info().Msg("Server stopped gracefully")
}

// openStore connects the configured ledger store driver.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.New(), nil
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, pool.Pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &pooledStore{PostgresStore: repository.NewPostgresStore(pool.Pool), pool: pool}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// pooledStore closes the connection pool along with the store.
type pooledStore struct {
	*repository.PostgresStore
	pool *db.Pool
}

func (s *pooledStore) Close() {
	s.PostgresStore.Close()
	s.pool.Close()
}

// openRevocations returns the Redis revocation list when configured,
// otherwise an in-process one.
func openRevocations(ctx context.Context, cfg *config.RedisConfig) (session.RevocationList, func(), error) {
	if cfg.Addr == "" {
		log.Info().Msg("Redis not configured, keeping session revocations in memory")
		return session.NewMemoryRevocations(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, err
	}
	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")
	return session.NewRedisRevocations(rdb), func() { _ = rdb.Close() }, nil
}
