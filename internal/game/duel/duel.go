// Package duel implements the dice duel (对决) resolver: each side rolls
// two dice, higher total wins, ties are re-rolled.
package duel

import (
	"fmt"
	"math/rand"

	"telegram-arena-bot/internal/game"
)

// MaxRerolls bounds the tie re-roll loop. If every roll somehow ties,
// a final single-die shootout decides the winner.
const MaxRerolls = 10

// Duel is the dice duel resolver.
type Duel struct{}

// New creates a Duel resolver.
func New() *Duel {
	return &Duel{}
}

// Kind returns the game identifier.
func (d *Duel) Kind() string {
	return "duel"
}

// Title returns the display name.
func (d *Duel) Title() string {
	return "骰子对决"
}

func roll2d6() (int, int, int) {
	a := rand.Intn(6) + 1
	b := rand.Intn(6) + 1
	return a, b, a + b
}

// Resolve rolls 2d6 per side until the totals differ.
func (d *Duel) Resolve() game.Outcome {
	for i := 0; i < MaxRerolls; i++ {
		c1, c2, ctotal := roll2d6()
		t1, t2, ttotal := roll2d6()
		if ctotal == ttotal {
			continue
		}
		return game.Outcome{
			ChallengerScore: ctotal,
			TargetScore:     ttotal,
			ChallengerWins:  ctotal > ttotal,
			Detail:          fmt.Sprintf("🎲 %d+%d=%d vs %d+%d=%d", c1, c2, ctotal, t1, t2, ttotal),
		}
	}

	// Shootout: draw two distinct dice faces, one each.
	faces := rand.Perm(6)
	c, t := faces[0]+1, faces[1]+1
	return game.Outcome{
		ChallengerScore: c,
		TargetScore:     t,
		ChallengerWins:  c > t,
		Detail:          fmt.Sprintf("🎲 加赛 %d vs %d", c, t),
	}
}
