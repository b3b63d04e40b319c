// Package model defines the data models for the arena bot.
package model

import "time"

// User represents a Telegram user account in the game system.
type User struct {
	TelegramID     int64     `db:"telegram_id"`
	Username       string    `db:"username"`
	Balance        int64     `db:"balance"`
	LastDailyClaim int64     `db:"last_daily_claim"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Transaction represents a balance change record.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// GameStat aggregates a user's lifetime wager-game record.
// Only aggregate stats survive a finished session; the session
// row itself is deleted on settlement.
type GameStat struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Wins      int64     `db:"wins"`
	Losses    int64     `db:"losses"`
	Net       int64     `db:"net"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Transaction types for categorizing balance changes.
const (
	TxTypeInitial  = "initial"   // Initial balance on account creation
	TxTypeDaily    = "daily"     // Daily reward claim
	TxTypeTransfer = "transfer"  // User-to-user transfer
	TxTypeGameWin  = "game_win"  // Wager session winnings
	TxTypeGameLose = "game_lose" // Wager session loss
)

// SessionStatus is the lifecycle phase of a wager session.
// Transitions are forward-only: invited -> active -> finished,
// with invited -> finished allowed for decline/timeout/stop.
type SessionStatus string

const (
	StatusInvited  SessionStatus = "invited"
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle step. Finished is terminal and no status re-enters invited.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	switch s {
	case StatusInvited:
		return next == StatusActive || next == StatusFinished
	case StatusActive:
		return next == StatusFinished
	default:
		return false
	}
}

// Valid reports whether the status is one of the known phases.
func (s SessionStatus) Valid() bool {
	return s == StatusInvited || s == StatusActive || s == StatusFinished
}

// Session is one invited/active wager game between two chat members.
// A session lives in the store only while pending or active; it is
// deleted as soon as it finishes.
type Session struct {
	ID             string        `db:"id"`
	ChatID         int64         `db:"chat_id"`
	ChallengerID   int64         `db:"challenger_id"`
	ChallengerName string        `db:"challenger_name"`
	TargetID       int64         `db:"target_id"`
	TargetName     string        `db:"target_name"`
	Game           string        `db:"game"`
	Stake          int64         `db:"stake"`
	Status         SessionStatus `db:"status"`
	Settled        bool          `db:"settled"`
	MessageID      int           `db:"message_id"`
	CreatedAt      time.Time     `db:"created_at"`
	ExpiresAt      time.Time     `db:"expires_at"`
}

// Involves reports whether the user is one of the two participants.
func (s *Session) Involves(userID int64) bool {
	return s.ChallengerID == userID || s.TargetID == userID
}

// Expired reports whether the invitation window has passed at t.
func (s *Session) Expired(t time.Time) bool {
	return t.After(s.ExpiresAt)
}
