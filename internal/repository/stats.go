package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-arena-bot/internal/model"
)

// GameStatRepository handles per-user wager-game statistics. Stats are
// the only thing that outlives a finished session.
type GameStatRepository struct {
	pool *pgxpool.Pool
}

// NewGameStatRepository creates a new GameStatRepository instance.
func NewGameStatRepository(pool *pgxpool.Pool) *GameStatRepository {
	return &GameStatRepository{pool: pool}
}

// Record applies one settled session outcome to a user's record.
// delta is the signed balance change the settlement produced.
func (r *GameStatRepository) Record(ctx context.Context, userID int64, won bool, delta int64) error {
	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}

	const query = `
		INSERT INTO game_stats (user_id, wins, losses, net, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET wins = game_stats.wins + $2,
		    losses = game_stats.losses + $3,
		    net = game_stats.net + $4,
		    updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, wins, losses, delta); err != nil {
		return fmt.Errorf("failed to record game stat: %w", err)
	}
	return nil
}

// Get retrieves a user's lifetime record. Returns a zero record for
// users who have never finished a game.
func (r *GameStatRepository) Get(ctx context.Context, userID int64) (*model.GameStat, error) {
	const query = `
		SELECT s.user_id, u.username, s.wins, s.losses, s.net, s.updated_at
		FROM game_stats s
		JOIN users u ON s.user_id = u.telegram_id
		WHERE s.user_id = $1
	`

	var stat model.GameStat
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&stat.UserID,
		&stat.Username,
		&stat.Wins,
		&stat.Losses,
		&stat.Net,
		&stat.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.GameStat{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to get game stat: %w", err)
	}
	return &stat, nil
}

// Top retrieves the best lifetime records ordered by net winnings.
func (r *GameStatRepository) Top(ctx context.Context, limit int) ([]*model.GameStat, error) {
	const query = `
		SELECT s.user_id, u.username, s.wins, s.losses, s.net, s.updated_at
		FROM game_stats s
		JOIN users u ON s.user_id = u.telegram_id
		ORDER BY s.net DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top stats: %w", err)
	}
	defer rows.Close()

	var stats []*model.GameStat
	for rows.Next() {
		var stat model.GameStat
		err := rows.Scan(
			&stat.UserID,
			&stat.Username,
			&stat.Wins,
			&stat.Losses,
			&stat.Net,
			&stat.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game stat: %w", err)
		}
		stats = append(stats, &stat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game stats: %w", err)
	}

	return stats, nil
}
