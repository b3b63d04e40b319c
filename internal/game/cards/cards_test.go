package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCardsIdentity(t *testing.T) {
	c := New()
	assert.Equal(t, "cards", c.Kind())
	assert.NotEmpty(t, c.Title())
}

// TestCardRankMapping checks the deck index to rank/suit mapping.
func TestCardRankMapping(t *testing.T) {
	tests := []struct {
		card card
		rank int
		text string
	}{
		{0, 0, "♠2"},
		{3, 0, "♣2"},
		{4, 1, "♠3"},
		{48, 12, "♠A"},
		{51, 12, "♣A"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.rank, tt.card.rank())
		assert.Equal(t, tt.text, tt.card.String())
	}
}

// TestCardsNeverTie verifies the resolver keeps drawing until ranks differ.
func TestCardsNeverTie(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_ = rapid.IntRange(0, 1).Draw(t, "seed")

		o := New().Resolve()
		if o.ChallengerScore == o.TargetScore {
			t.Fatalf("tied outcome: %d vs %d (%s)", o.ChallengerScore, o.TargetScore, o.Detail)
		}
		if o.ChallengerWins != (o.ChallengerScore > o.TargetScore) {
			t.Fatalf("winner flag inconsistent with ranks: %+v", o)
		}
	})
}

func TestCardsRanksInRange(t *testing.T) {
	c := New()
	for i := 0; i < 1000; i++ {
		o := c.Resolve()
		assert.GreaterOrEqual(t, o.ChallengerScore, 0)
		assert.LessOrEqual(t, o.ChallengerScore, 12)
		assert.GreaterOrEqual(t, o.TargetScore, 0)
		assert.LessOrEqual(t, o.TargetScore, 12)
	}
}

func TestCardsBothSidesWin(t *testing.T) {
	c := New()
	var challengerWins, targetWins int
	for i := 0; i < 2000; i++ {
		if c.Resolve().ChallengerWins {
			challengerWins++
		} else {
			targetWins++
		}
	}
	assert.Greater(t, challengerWins, 0)
	assert.Greater(t, targetWins, 0)
}
