package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRaceIdentity(t *testing.T) {
	r := New()
	assert.Equal(t, "race", r.Kind())
	assert.NotEmpty(t, r.Title())
}

// TestRunFinishesTrack checks a single racer always crosses the line
// within sane turn bounds.
func TestRunFinishesTrack(t *testing.T) {
	for i := 0; i < 1000; i++ {
		turns, final := run()
		assert.GreaterOrEqual(t, final, TrackLength)
		assert.Less(t, final, TrackLength+6, "overshoot is at most one die face short of the line plus a six")
		// Worst case one cell per turn, best case six.
		assert.GreaterOrEqual(t, turns, TrackLength/6)
		assert.LessOrEqual(t, turns, TrackLength)
	}
}

// TestRaceNeverTies verifies the turn/overshoot tie break always
// produces a winner with scores ordered to match.
func TestRaceNeverTies(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		_ = rapid.IntRange(0, 1).Draw(t, "seed")

		o := New().Resolve()
		if o.ChallengerScore == o.TargetScore {
			t.Fatalf("tied outcome: %d vs %d (%s)", o.ChallengerScore, o.TargetScore, o.Detail)
		}
		if o.ChallengerWins != (o.ChallengerScore > o.TargetScore) {
			t.Fatalf("winner flag inconsistent with scores: %+v", o)
		}
	})
}

func TestRaceBothSidesWin(t *testing.T) {
	r := New()
	var challengerWins, targetWins int
	for i := 0; i < 2000; i++ {
		if r.Resolve().ChallengerWins {
			challengerWins++
		} else {
			targetWins++
		}
	}
	assert.Greater(t, challengerWins, 0)
	assert.Greater(t, targetWins, 0)
}
