// Package session implements the wager session state machine: the
// invitation/acceptance/timeout/settlement lifecycle shared by all
// two-player games. Every transition for a chat runs under that chat's
// lock and re-reads the session from the store first, so concurrent
// button presses and timer callbacks collapse to exactly one outcome.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"telegram-arena-bot/internal/game"
	"telegram-arena-bot/internal/model"
	"telegram-arena-bot/internal/pkg/lock"
	"telegram-arena-bot/internal/pkg/sched"
)

// Config holds session lifecycle tuning.
type Config struct {
	InviteTimeout time.Duration
	RecoveryGrace time.Duration
	MaxAge        time.Duration
	MinStake      int64
	MaxStake      int64
}

// Manager drives the session lifecycle. All mutating entry points
// (Create, Respond, Timeout, Stop, Recover) serialize per chat through
// the chat lock.
type Manager struct {
	store  Store
	ledger Ledger
	stats  Stats
	notify Notifier
	sched  Scheduler
	locks  *lock.ChatLock
	games  *game.Registry
	cfg    Config

	timers *timerSet
}

// NewManager creates a Manager.
func NewManager(
	store Store,
	ledger Ledger,
	stats Stats,
	notify Notifier,
	scheduler Scheduler,
	locks *lock.ChatLock,
	games *game.Registry,
	cfg Config,
) *Manager {
	if cfg.InviteTimeout <= 0 {
		cfg.InviteTimeout = 60 * time.Second
	}
	if cfg.RecoveryGrace <= 0 {
		cfg.RecoveryGrace = 10 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	return &Manager{
		store:  store,
		ledger: ledger,
		stats:  stats,
		notify: notify,
		sched:  scheduler,
		locks:  locks,
		games:  games,
		cfg:    cfg,
		timers: newTimerSet(),
	}
}

// CreateRequest carries everything needed to open a challenge.
type CreateRequest struct {
	ChatID         int64
	ChallengerID   int64
	ChallengerName string
	TargetID       int64
	TargetName     string
	TargetIsBot    bool
	Game           string
	Stake          int64
}

// Create opens a new invited session. Preconditions are checked under
// the chat lock; any failure returns a typed rejection and leaves no
// state behind.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (*model.Session, error) {
	if req.ChallengerID == req.TargetID {
		return nil, ErrSelfChallenge
	}
	if req.TargetIsBot {
		return nil, ErrBotTarget
	}
	if req.Stake < 0 || req.Stake < m.cfg.MinStake || (m.cfg.MaxStake > 0 && req.Stake > m.cfg.MaxStake) {
		return nil, ErrStakeOutOfRange
	}

	resolver, err := m.games.Get(req.Game)
	if err != nil {
		return nil, err
	}

	var sess *model.Session
	err = m.locks.WithLock(req.ChatID, func() error {
		existing, err := m.store.ListChat(ctx, req.ChatID)
		if err != nil {
			return fmt.Errorf("failed to list chat sessions: %w", err)
		}
		for _, s := range existing {
			if s.Settled || s.Status == model.StatusFinished {
				continue
			}
			if s.Involves(req.ChallengerID) {
				return ErrChallengerBusy
			}
			if s.Involves(req.TargetID) {
				return ErrTargetBusy
			}
		}

		challengerBal, err := m.ledger.Balance(ctx, req.ChallengerID)
		if err != nil {
			return fmt.Errorf("failed to read challenger balance: %w", err)
		}
		if challengerBal < req.Stake {
			return ErrInsufficientBalance
		}
		targetBal, err := m.ledger.Balance(ctx, req.TargetID)
		if err != nil {
			return fmt.Errorf("failed to read target balance: %w", err)
		}
		if targetBal < req.Stake {
			return ErrTargetInsufficient
		}

		now := time.Now()
		sess = &model.Session{
			ID:             uuid.NewString(),
			ChatID:         req.ChatID,
			ChallengerID:   req.ChallengerID,
			ChallengerName: req.ChallengerName,
			TargetID:       req.TargetID,
			TargetName:     req.TargetName,
			Game:           req.Game,
			Stake:          req.Stake,
			Status:         model.StatusInvited,
			CreatedAt:      now,
			ExpiresAt:      now.Add(m.cfg.InviteTimeout),
		}
		if err := m.store.Save(ctx, sess); err != nil {
			return fmt.Errorf("failed to persist session: %w", err)
		}

		msgID, err := m.notify.SendInvite(req.ChatID, sess, inviteText(sess, resolver.Title()))
		if err != nil {
			// Narration is best-effort; the session still runs and times out.
			log.Warn().Err(err).Str("session_id", sess.ID).Msg("Failed to send invite message")
		} else {
			sess.MessageID = msgID
			if err := m.store.Save(ctx, sess); err != nil {
				log.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to persist invite message id")
			}
		}

		m.armTimeout(sess.ChatID, sess.ID, time.Until(sess.ExpiresAt))
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("chat_id", sess.ChatID).
		Str("session_id", sess.ID).
		Str("game", sess.Game).
		Int64("stake", sess.Stake).
		Msg("Session created")
	return sess, nil
}

// Respond handles the target's accept or decline. Everything is
// re-checked fresh under the chat lock: the session may have settled,
// expired, or vanished since the button was rendered. Stale presses
// are absorbed silently.
func (m *Manager) Respond(ctx context.Context, chatID int64, sessionID string, responderID int64, accept bool) error {
	return m.locks.WithLock(chatID, func() error {
		s, err := m.store.Get(ctx, chatID, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if s == nil || s.Settled || s.Status != model.StatusInvited {
			log.Debug().
				Int64("chat_id", chatID).
				Str("session_id", sessionID).
				Msg("Stale respond ignored")
			return nil
		}
		if responderID != s.TargetID {
			return ErrNotYourGame
		}

		// An expired invite counts as a timeout no matter which
		// button was pressed.
		if s.Expired(time.Now()) {
			return m.finishLocked(ctx, s, timeoutText(s))
		}

		if !accept {
			return m.finishLocked(ctx, s, declineText(s))
		}

		// Balances may have moved since creation; re-validate before
		// committing to the game.
		challengerBal, err := m.ledger.Balance(ctx, s.ChallengerID)
		if err != nil {
			return fmt.Errorf("failed to read challenger balance: %w", err)
		}
		targetBal, err := m.ledger.Balance(ctx, s.TargetID)
		if err != nil {
			return fmt.Errorf("failed to read target balance: %w", err)
		}
		if challengerBal < s.Stake || targetBal < s.Stake {
			return m.finishLocked(ctx, s, wagerFailedText(s))
		}

		if err := m.advance(s, model.StatusActive); err != nil {
			return err
		}
		if err := m.store.Save(ctx, s); err != nil {
			log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to persist active session")
		}

		return m.settleLocked(ctx, s)
	})
}

// settleLocked resolves the outcome and applies the stake transfer.
// Caller holds the chat lock and has moved the session to active.
func (m *Manager) settleLocked(ctx context.Context, s *model.Session) error {
	resolver, err := m.games.Get(s.Game)
	if err != nil {
		// Unknown kind can only mean a corrupted row; void the wager.
		log.Error().Err(err).Str("session_id", s.ID).Msg("No resolver for persisted session")
		return m.finishLocked(ctx, s, wagerFailedText(s))
	}

	outcome := resolver.Resolve()

	winnerID, winnerName := s.ChallengerID, s.ChallengerName
	loserID, loserName := s.TargetID, s.TargetName
	if !outcome.ChallengerWins {
		winnerID, winnerName = s.TargetID, s.TargetName
		loserID, loserName = s.ChallengerID, s.ChallengerName
	}

	ok, err := m.ledger.TransferStake(ctx, loserID, winnerID, s.Stake,
		model.TxTypeGameWin,
		fmt.Sprintf("%s对决 %s 失败，损失 %d 金币", resolver.Title(), winnerName, s.Stake),
		fmt.Sprintf("%s对决 %s 获胜，赢得 %d 金币", resolver.Title(), loserName, s.Stake),
	)
	if err != nil || !ok {
		if err != nil {
			log.Error().Err(err).Str("session_id", s.ID).Msg("Stake transfer failed")
		}
		// The wager is void but the session still terminates; no stats.
		return m.finishLocked(ctx, s, wagerFailedText(s))
	}

	// Stats are recorded exactly once, only after a successful transfer.
	if err := m.stats.Record(ctx, winnerID, true, s.Stake); err != nil {
		log.Warn().Err(err).Int64("user_id", winnerID).Msg("Failed to record winner stats")
	}
	if err := m.stats.Record(ctx, loserID, false, -s.Stake); err != nil {
		log.Warn().Err(err).Int64("user_id", loserID).Msg("Failed to record loser stats")
	}

	log.Info().
		Str("session_id", s.ID).
		Int64("winner", winnerID).
		Int64("loser", loserID).
		Int64("stake", s.Stake).
		Msg("Session settled")

	return m.finishLocked(ctx, s, resultText(s, resolver.Title(), outcome, winnerName))
}

// Timeout fires when an invitation expires. Losing the race against an
// accept or decline is the normal case, not an error.
func (m *Manager) Timeout(chatID int64, sessionID string) {
	ctx := context.Background()
	err := m.locks.WithLock(chatID, func() error {
		s, err := m.store.Get(ctx, chatID, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}
		if s == nil || s.Settled || s.Status != model.StatusInvited {
			log.Debug().
				Int64("chat_id", chatID).
				Str("session_id", sessionID).
				Msg("Timeout fired for already-resolved session")
			return nil
		}
		return m.finishLocked(ctx, s, timeoutText(s))
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Timeout handling failed")
	}
}

// StopResult is the outcome of a stop request.
type StopResult int

const (
	// StopNone means the requester has no unsettled session in the chat.
	StopNone StopResult = iota
	// StopForbidden means the requester is a participant but not the challenger.
	StopForbidden
	// StopStopped means the session was voided.
	StopStopped
)

// Stop lets the original challenger withdraw their own open challenge.
func (m *Manager) Stop(ctx context.Context, chatID, requesterID int64) (StopResult, error) {
	result := StopNone
	err := m.locks.WithLock(chatID, func() error {
		sessions, err := m.store.ListChat(ctx, chatID)
		if err != nil {
			return fmt.Errorf("failed to list chat sessions: %w", err)
		}
		for _, s := range sessions {
			if s.Settled || !s.Involves(requesterID) {
				continue
			}
			if s.ChallengerID != requesterID {
				result = StopForbidden
				return nil
			}
			result = StopStopped
			return m.finishLocked(ctx, s, stoppedText(s))
		}
		return nil
	})
	return result, err
}

// finishLocked terminates a session: marks it settled exactly once,
// removes it from the store, cancels its timer and narrates the
// outcome. Caller holds the chat lock.
func (m *Manager) finishLocked(ctx context.Context, s *model.Session, narration string) error {
	if s.Settled {
		return nil
	}
	if err := m.advance(s, model.StatusFinished); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("Illegal finish transition")
	}
	s.Settled = true

	m.disarmTimeout(s.ID)

	if err := m.store.Delete(ctx, s.ChatID, s.ID); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to delete finished session")
	}

	if s.MessageID != 0 {
		m.notify.Finalize(s.ChatID, s.MessageID, narration)
	}

	log.Info().
		Int64("chat_id", s.ChatID).
		Str("session_id", s.ID).
		Msg("Session finished")
	return nil
}

// advance applies a lifecycle transition, rejecting illegal ones
// centrally instead of scattering status checks across handlers.
func (m *Manager) advance(s *model.Session, next model.SessionStatus) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("illegal transition %s -> %s for session %s", s.Status, next, s.ID)
	}
	s.Status = next
	return nil
}

func (m *Manager) armTimeout(chatID int64, sessionID string, d time.Duration) {
	m.disarmTimeout(sessionID)
	if d <= 0 {
		d = time.Second
	}
	h := m.sched.Schedule(d, func() {
		m.Timeout(chatID, sessionID)
	})
	m.timers.put(sessionID, h)
}

func (m *Manager) disarmTimeout(sessionID string) {
	if h, ok := m.timers.take(sessionID); ok {
		m.sched.Cancel(h)
	}
}

// timerSet maps session ids to their pending timeout handles.
type timerSet struct {
	mu      sync.Mutex
	handles map[string]sched.Handle
}

func newTimerSet() *timerSet {
	return &timerSet{
		handles: make(map[string]sched.Handle),
	}
}

func (ts *timerSet) put(id string, h sched.Handle) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.handles[id] = h
}

func (ts *timerSet) take(id string) (sched.Handle, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	h, ok := ts.handles[id]
	if ok {
		delete(ts.handles, id)
	}
	return h, ok
}
