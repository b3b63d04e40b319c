// Package main is the entry point for the arena bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-arena-bot/internal/bot"
	"telegram-arena-bot/internal/config"
	"telegram-arena-bot/internal/game"
	"telegram-arena-bot/internal/game/cards"
	"telegram-arena-bot/internal/game/duel"
	"telegram-arena-bot/internal/game/race"
	"telegram-arena-bot/internal/pkg/db"
	"telegram-arena-bot/internal/pkg/lock"
	"telegram-arena-bot/internal/pkg/sched"
	"telegram-arena-bot/internal/repository"
	"telegram-arena-bot/internal/service"
	"telegram-arena-bot/internal/session"
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

	log.Info().Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	statRepo := repository.NewGameStatRepository(dbPool.Pool)
	sessionRepo := repository.NewSessionRepository(dbPool.Pool)

	// Initialize services
	accountService := service.NewAccountService(
		userRepo,
		txRepo,
		cfg.Daily.Reward,
		cfg.Daily.CooldownHours,
	)
	transferService := service.NewTransferService(userRepo)

	// Register game resolvers
	gameRegistry := game.NewRegistry()
	for _, res := range []game.Resolver{duel.New(), cards.New(), race.New()} {
		if err := gameRegistry.Register(res); err != nil {
			log.Fatal().Err(err).Str("kind", res.Kind()).Msg("Failed to register game")
		}
	}

	log.Info().
		Int("game_count", gameRegistry.Count()).
		Strs("games", gameRegistry.Kinds()).
		Msg("Games registered")

	// Telegram client first: the session manager narrates through it
	client, err := bot.NewClient(cfg.Bot.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram client")
	}

	// Session state machine core
	manager := session.NewManager(
		sessionRepo,
		userRepo,
		statRepo,
		bot.NewNotifier(client),
		sched.New(),
		lock.NewChatLock(),
		gameRegistry,
		session.Config{
			InviteTimeout: cfg.Session.InviteTimeout,
			RecoveryGrace: cfg.Session.RecoveryGrace,
			MaxAge:        cfg.Session.MaxAge,
			MinStake:      cfg.Games.MinStake,
			MaxStake:      cfg.Games.MaxStake,
		},
	)

	// Void sessions orphaned by the previous run before accepting
	// any new trigger; their timers died with the old process.
	if err := manager.Recover(ctx); err != nil {
		log.Fatal().Err(err).Msg("Session recovery sweep failed")
	}

	telegramBot := bot.New(client, &bot.Dependencies{
		Config:          cfg,
		AccountService:  accountService,
		TransferService: transferService,
		StatRepo:        statRepo,
		Manager:         manager,
		GameKinds:       gameRegistry.Kinds(),
	})

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 1000,
			last_daily_claim BIGINT DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: transactions table created")

	// Migration 3: Create game_stats table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_stats (
			user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id) ON DELETE CASCADE,
			wins BIGINT NOT NULL DEFAULT 0,
			losses BIGINT NOT NULL DEFAULT 0,
			net BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_game_stats_net ON game_stats(net DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: game_stats table created")

	// Migration 4: Create game_sessions table (pending/active wagers only)
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_sessions (
			id UUID PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			challenger_id BIGINT NOT NULL,
			challenger_name VARCHAR(255) NOT NULL DEFAULT '',
			target_id BIGINT NOT NULL,
			target_name VARCHAR(255) NOT NULL DEFAULT '',
			game VARCHAR(50) NOT NULL,
			stake BIGINT NOT NULL DEFAULT 0,
			status VARCHAR(20) NOT NULL,
			settled BOOLEAN NOT NULL DEFAULT FALSE,
			message_id INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_game_sessions_chat ON game_sessions(chat_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: game_sessions table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
