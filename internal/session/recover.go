package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Recover sweeps the session store once at startup, before any trigger
// is accepted. Timers do not survive a restart, so every persisted
// session is either voided (settled leftovers, expired invites, or
// anything older than the hard age ceiling) or has its timeout re-armed.
// Running the sweep twice in a row is a no-op the second time.
func (m *Manager) Recover(ctx context.Context) error {
	byChat, err := m.store.LoadAll(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	voided, rearmed := 0, 0

	for chatID, sessions := range byChat {
		if chatID == 0 {
			// Corrupted rows; drop without narration.
			for _, s := range sessions {
				if err := m.store.Delete(ctx, chatID, s.ID); err != nil {
					log.Warn().Err(err).Str("session_id", s.ID).Msg("Failed to drop corrupted session")
				}
			}
			continue
		}

		chatID, sessions := chatID, sessions
		err := m.locks.WithLock(chatID, func() error {
			for _, s := range sessions {
				stale := s.Settled ||
					now.After(s.ExpiresAt.Add(m.cfg.RecoveryGrace)) ||
					now.Sub(s.CreatedAt) > m.cfg.MaxAge

				if stale {
					if err := m.store.Delete(ctx, chatID, s.ID); err != nil {
						log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to delete stale session")
						continue
					}
					if !s.Settled && s.MessageID != 0 {
						m.notify.Finalize(chatID, s.MessageID, voidedText(s))
					}
					voided++
					continue
				}

				// Fresh invite: the restart happened inside the invite
				// window, give it back its timer.
				m.armTimeout(chatID, s.ID, time.Until(s.ExpiresAt))
				rearmed++
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	log.Info().
		Int("voided", voided).
		Int("rearmed", rearmed).
		Msg("Session recovery sweep complete")
	return nil
}
