// Package repository tests use testcontainers-go to spin up a
// PostgreSQL container; they skip automatically when Docker is not
// available.
package repository

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-arena-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	return cmd.Run() == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, applySchema(ctx, pool))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return pool, cleanup
}

// applySchema creates the tables the repositories expect.
func applySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			telegram_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 1000,
			last_daily_claim BIGINT DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(telegram_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_stats (
			user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id) ON DELETE CASCADE,
			wins BIGINT NOT NULL DEFAULT 0,
			losses BIGINT NOT NULL DEFAULT 0,
			net BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

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
		)
	`)
	return err
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "testuser")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.TelegramID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, int64(1000), user.Balance)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.Equal(t, user.TelegramID, got.TelegramID)

	_, err = repo.GetByID(ctx, 99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 12345, "first")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1000), user.Balance)

	user, created, err = repo.GetOrCreate(ctx, 12345, "second")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "first", user.Username, "existing row wins")
}

func TestUserRepository_TransferStake(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "loser")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "winner")
	require.NoError(t, err)

	ok, err := repo.TransferStake(ctx, 1, 2, 300, model.TxTypeGameWin, "lost", "won")
	require.NoError(t, err)
	assert.True(t, ok)

	fromBal, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	toBal, err := repo.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(700), fromBal)
	assert.Equal(t, int64(1300), toBal)

	// Both journal rows land in the same transaction.
	fromTxs, err := txRepo.GetByUserID(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, fromTxs, 1)
	assert.Equal(t, int64(-300), fromTxs[0].Amount)
	assert.Equal(t, model.TxTypeGameWin, fromTxs[0].Type)

	toTxs, err := txRepo.GetByUserID(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, toTxs, 1)
	assert.Equal(t, int64(300), toTxs[0].Amount)
}

func TestUserRepository_TransferStakeInsufficientFunds(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "poor")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "rich")
	require.NoError(t, err)

	ok, err := repo.TransferStake(ctx, 1, 2, 5000, model.TxTypeGameWin, "lost", "won")
	require.NoError(t, err)
	assert.False(t, ok, "insufficient funds is a refusal, not an error")

	// Nothing moved, nothing journaled.
	fromBal, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	toBal, err := repo.Balance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), fromBal)
	assert.Equal(t, int64(1000), toBal)

	txs, err := txRepo.GetByUserID(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestUserRepository_TransferStakeZeroAmount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "a")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "b")
	require.NoError(t, err)

	ok, err := repo.TransferStake(ctx, 1, 2, 0, model.TxTypeGameWin, "", "")
	require.NoError(t, err)
	assert.True(t, ok)

	bal, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal)
}

func TestUserRepository_TransferStakeNegativeAmount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.TransferStake(ctx, 1, 2, -100, model.TxTypeGameWin, "", "")
	assert.Error(t, err)
}

// TestUserRepository_ConcurrentTransfers hammers one payer from many
// goroutines. The conditional debit must never let the balance go
// negative or lose an update.
func TestUserRepository_ConcurrentTransfers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "payer")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "payee")
	require.NoError(t, err)

	// 1000 coins, 20 attempts of 100 each: at most 10 can succeed.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TransferStake(ctx, 1, 2, 100, model.TxTypeGameWin, "l", "w")
			if err == nil && ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	fromBal, err := repo.Balance(ctx, 1)
	require.NoError(t, err)
	toBal, err := repo.Balance(ctx, 2)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, fromBal, int64(0), "conditional debit must never overdraw")
	assert.Equal(t, int64(1000)-int64(succeeded)*100, fromBal)
	assert.Equal(t, int64(1000)+int64(succeeded)*100, toBal)
	assert.Equal(t, int64(2000), fromBal+toBal, "transfers must conserve total balance")
}

func TestUserRepository_GetTopUsers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	for i, bal := range []int64{500, 2000, 1500} {
		id := int64(i + 1)
		_, err := repo.Create(ctx, id, "user")
		require.NoError(t, err)
		_, err = repo.UpdateBalance(ctx, id, bal-1000)
		require.NoError(t, err)
	}

	top, err := repo.GetTopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2000), top[0].Balance)
	assert.Equal(t, int64(1500), top[1].Balance)
}

// ============================================================================
// GameStatRepository Tests
// ============================================================================

func TestGameStatRepository_RecordAccumulates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	repo := NewGameStatRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 1, "player")
	require.NoError(t, err)

	require.NoError(t, repo.Record(ctx, 1, true, 300))
	require.NoError(t, repo.Record(ctx, 1, false, -100))
	require.NoError(t, repo.Record(ctx, 1, true, 50))

	stat, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stat.Wins)
	assert.Equal(t, int64(1), stat.Losses)
	assert.Equal(t, int64(250), stat.Net)
	assert.Equal(t, "player", stat.Username)
}

func TestGameStatRepository_GetZeroRecord(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewGameStatRepository(pool)

	stat, err := repo.Get(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, int64(404), stat.UserID)
	assert.Zero(t, stat.Wins)
	assert.Zero(t, stat.Losses)
	assert.Zero(t, stat.Net)
}

func TestGameStatRepository_TopOrdersByNet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	repo := NewGameStatRepository(pool)
	ctx := context.Background()

	for i, net := range []int64{100, 900, -50} {
		id := int64(i + 1)
		_, err := userRepo.Create(ctx, id, "player")
		require.NoError(t, err)
		require.NoError(t, repo.Record(ctx, id, net > 0, net))
	}

	top, err := repo.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, int64(900), top[0].Net)
	assert.Equal(t, int64(100), top[1].Net)
	assert.Equal(t, int64(-50), top[2].Net)
}

// ============================================================================
// SessionRepository Tests
// ============================================================================

func makeSession(chatID int64) *model.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Session{
		ID:             uuid.NewString(),
		ChatID:         chatID,
		ChallengerID:   11,
		ChallengerName: "甲",
		TargetID:       22,
		TargetName:     "乙",
		Game:           "duel",
		Stake:          300,
		Status:         model.StatusInvited,
		MessageID:      42,
		CreatedAt:      now,
		ExpiresAt:      now.Add(time.Minute),
	}
}

func TestSessionRepository_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	s := makeSession(-100)
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, -100, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, model.StatusInvited, got.Status)
	assert.False(t, got.Settled)
	assert.Equal(t, 42, got.MessageID)
	assert.Equal(t, int64(300), got.Stake)

	// Wrong chat must not find the row.
	got, err = repo.Get(ctx, -200, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Missing session is nil, not an error.
	got, err = repo.Get(ctx, -100, uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_SaveUpserts(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	s := makeSession(-100)
	require.NoError(t, repo.Save(ctx, s))

	s.Status = model.StatusActive
	s.Settled = true
	s.MessageID = 77
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, -100, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.StatusActive, got.Status)
	assert.True(t, got.Settled)
	assert.Equal(t, 77, got.MessageID)
}

func TestSessionRepository_ListChat(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	a := makeSession(-100)
	b := makeSession(-100)
	b.ChallengerID, b.TargetID = 33, 44
	c := makeSession(-200)
	for _, s := range []*model.Session{a, b, c} {
		require.NoError(t, repo.Save(ctx, s))
	}

	sessions, err := repo.ListChat(ctx, -100)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	sessions, err = repo.ListChat(ctx, -300)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionRepository_LoadAllGroupsByChat(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, makeSession(-100)))
	require.NoError(t, repo.Save(ctx, makeSession(-100)))
	require.NoError(t, repo.Save(ctx, makeSession(-200)))

	byChat, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, byChat, 2)
	assert.Len(t, byChat[-100], 2)
	assert.Len(t, byChat[-200], 1)
}

func TestSessionRepository_DeleteIsIdempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewSessionRepository(pool)
	ctx := context.Background()

	s := makeSession(-100)
	require.NoError(t, repo.Save(ctx, s))

	require.NoError(t, repo.Delete(ctx, -100, s.ID))
	got, err := repo.Get(ctx, -100, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again finds nothing and stays quiet.
	require.NoError(t, repo.Delete(ctx, -100, s.ID))
}
