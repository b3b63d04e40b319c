// Package sched provides one-shot cancelable timers for session timeouts.
// Timers live only in process memory; the recovery sweep compensates for
// timers lost across a restart.
package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks once after a delay. Cancel is idempotent and
// safe to call after the callback has fired.
type Scheduler struct {
	mu     sync.Mutex
	timers map[Handle]*time.Timer
	next   uint64
}

// New creates a Scheduler.
func New() *Scheduler {
	return &Scheduler{
		timers: make(map[Handle]*time.Timer),
	}
}

// Schedule arranges for fn to run once after d. The returned handle
// can be passed to Cancel before the timer fires.
func (s *Scheduler) Schedule(d time.Duration, fn func()) Handle {
	h := Handle(atomic.AddUint64(&s.next, 1))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.timers[h] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		fn()
	})
	return h
}

// Cancel stops a pending callback. If the callback already fired or was
// canceled before, Cancel is a no-op. Cancellation is best-effort: a
// callback already in flight still runs, and must tolerate finding its
// work already done.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	timer, ok := s.timers[h]
	if ok {
		delete(s.timers, h)
	}
	s.mu.Unlock()

	if ok {
		timer.Stop()
	}
}

// Pending returns the number of timers that have not fired or been
// canceled. Used by shutdown logging and tests.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
