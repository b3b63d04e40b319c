// Package cards implements the high-card draw (比大小) resolver: both
// sides draw from one shuffled deck, higher rank wins, equal ranks
// draw again from the remaining cards.
package cards

import (
	"fmt"
	"math/rand"

	"telegram-arena-bot/internal/game"
)

var suits = []string{"♠", "♥", "♦", "♣"}
var ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// card is an index into a 52-card deck; rank is card/4, so two cards of
// the same rank always come from different suits.
type card int

func (c card) rank() int {
	return int(c) / 4
}

func (c card) String() string {
	return suits[int(c)%4] + ranks[c.rank()]
}

// Cards is the high-card resolver.
type Cards struct{}

// New creates a Cards resolver.
func New() *Cards {
	return &Cards{}
}

// Kind returns the game identifier.
func (c *Cards) Kind() string {
	return "cards"
}

// Title returns the display name.
func (c *Cards) Title() string {
	return "扑克比大小"
}

// Resolve draws pairs from a fresh shuffled deck until ranks differ.
// A 52-card deck holds only four cards per rank, so at most two tied
// pairs can precede a decisive one.
func (c *Cards) Resolve() game.Outcome {
	deck := rand.Perm(52)

	for i := 0; i+1 < len(deck); i += 2 {
		cc, tc := card(deck[i]), card(deck[i+1])
		if cc.rank() == tc.rank() {
			continue
		}
		return game.Outcome{
			ChallengerScore: cc.rank(),
			TargetScore:     tc.rank(),
			ChallengerWins:  cc.rank() > tc.rank(),
			Detail:          fmt.Sprintf("🃏 %s vs %s", cc, tc),
		}
	}

	// Unreachable with a 52-card deck; keep the compiler honest.
	return game.Outcome{ChallengerScore: 1, TargetScore: 0, ChallengerWins: true, Detail: "🃏"}
}
