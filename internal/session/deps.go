package session

import (
	"context"
	"time"

	"telegram-arena-bot/internal/model"
	"telegram-arena-bot/internal/pkg/sched"
)

// Ledger is the atomic balance capability the session core consumes.
// TransferStake must be transactional on its own: it may be called
// concurrently from other subsystems and must never leave a partial
// transfer behind.
type Ledger interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	TransferStake(ctx context.Context, fromID, toID, amount int64, txType, fromDesc, toDesc string) (bool, error)
}

// Stats records settled outcomes. Failures are logged, never allowed
// to change a settlement result.
type Stats interface {
	Record(ctx context.Context, userID int64, won bool, delta int64) error
}

// Store persists pending and active sessions. Get returns (nil, nil)
// for a missing session.
type Store interface {
	Get(ctx context.Context, chatID int64, id string) (*model.Session, error)
	ListChat(ctx context.Context, chatID int64) ([]*model.Session, error)
	LoadAll(ctx context.Context) (map[int64][]*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	Delete(ctx context.Context, chatID int64, id string) error
}

// Notifier narrates session transitions in the chat. All methods are
// best-effort: a failed narration never rolls back a state change.
type Notifier interface {
	// SendInvite posts the invitation message with accept/decline
	// controls and returns its message ID.
	SendInvite(chatID int64, s *model.Session, text string) (int, error)
	// Finalize rewrites the invitation message with the terminal
	// narration, degrading to a keyboard strip and then to silence.
	Finalize(chatID int64, messageID int, text string)
}

// Scheduler provides one-shot cancelable timers for invite timeouts.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) sched.Handle
	Cancel(h sched.Handle)
}
