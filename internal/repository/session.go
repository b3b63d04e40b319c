package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-arena-bot/internal/model"
)

// SessionRepository persists pending and active wager sessions so they
// survive a process restart. Finished sessions are deleted, never kept.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, chat_id, challenger_id, challenger_name, target_id, target_name,
		game, stake, status, settled, message_id, created_at, expires_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	var status string
	err := row.Scan(
		&s.ID,
		&s.ChatID,
		&s.ChallengerID,
		&s.ChallengerName,
		&s.TargetID,
		&s.TargetName,
		&s.Game,
		&s.Stake,
		&status,
		&s.Settled,
		&s.MessageID,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = model.SessionStatus(status)
	return &s, nil
}

// Save upserts a session row.
func (r *SessionRepository) Save(ctx context.Context, s *model.Session) error {
	const query = `
		INSERT INTO game_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    settled = EXCLUDED.settled,
		    message_id = EXCLUDED.message_id,
		    expires_at = EXCLUDED.expires_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.ChatID, s.ChallengerID, s.ChallengerName, s.TargetID, s.TargetName,
		s.Game, s.Stake, string(s.Status), s.Settled, s.MessageID, s.CreatedAt, s.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session row. Deleting an already-removed session is
// a no-op, which keeps the recovery sweep idempotent.
func (r *SessionRepository) Delete(ctx context.Context, chatID int64, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM game_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session %s in chat %d: %w", id, chatID, err)
	}
	return nil
}

// Get retrieves one session by chat and id. Returns nil without error
// when the session does not exist: a vanished session is a normal
// race outcome, not a failure.
func (r *SessionRepository) Get(ctx context.Context, chatID int64, id string) (*model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM game_sessions WHERE chat_id = $1 AND id = $2`

	s, err := scanSession(r.pool.QueryRow(ctx, query, chatID, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListChat retrieves all persisted sessions for one chat.
func (r *SessionRepository) ListChat(ctx context.Context, chatID int64) ([]*model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM game_sessions WHERE chat_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// LoadAll retrieves every persisted session grouped by chat. Used by
// the recovery sweep at startup.
func (r *SessionRepository) LoadAll(ctx context.Context) (map[int64][]*model.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM game_sessions ORDER BY chat_id, created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}
	defer rows.Close()

	byChat := make(map[int64][]*model.Session)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		byChat[s.ChatID] = append(byChat[s.ChatID], s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return byChat, nil
}
