// Package game defines the outcome resolver interface and registry for
// the wager session core. A resolver decides who won; staking, locking
// and settlement stay in the session manager.
package game

import (
	"errors"
	"fmt"
	"sync"
)

// Outcome is a resolved two-player game result. ChallengerScore and
// TargetScore are never equal: a draw is not a valid outcome, resolvers
// must re-draw until one side wins.
type Outcome struct {
	ChallengerScore int
	TargetScore     int
	ChallengerWins  bool
	Detail          string // human-readable roll/draw breakdown
}

// Resolver produces outcomes for one game kind.
type Resolver interface {
	// Kind is the stable identifier used in commands and persisted sessions.
	Kind() string
	// Title is the display name used in narration.
	Title() string
	// Resolve plays one game to completion. Implementations must never
	// return a tied outcome.
	Resolve() Outcome
}

// Registry errors.
var (
	ErrDuplicateKind = errors.New("game kind already registered")
	ErrUnknownKind   = errors.New("unknown game kind")
)

// Registry holds the available game resolvers.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
	order     []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[string]Resolver),
	}
}

// Register adds a resolver. Registering the same kind twice is an error.
func (r *Registry) Register(res Resolver) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := res.Kind()
	if _, exists := r.resolvers[kind]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateKind, kind)
	}
	r.resolvers[kind] = res
	r.order = append(r.order, kind)
	return nil
}

// Get returns the resolver for a kind.
func (r *Registry) Get(kind string) (Resolver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.resolvers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return res, nil
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Count returns the number of registered resolvers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resolvers)
}
