// Package race implements the board race (赛跑) resolver: both sides
// roll one die per turn and advance along a fixed track; whoever
// crosses the finish line in fewer turns wins. Equal turn counts are
// broken by the final overshoot, re-racing if even that ties.
package race

import (
	"fmt"
	"math/rand"

	"telegram-arena-bot/internal/game"
)

const (
	// TrackLength is the number of cells to cross.
	TrackLength = 20
	// MaxRaces bounds the re-race loop on a full tie.
	MaxRaces = 10
)

// Race is the board race resolver.
type Race struct{}

// New creates a Race resolver.
func New() *Race {
	return &Race{}
}

// Kind returns the game identifier.
func (r *Race) Kind() string {
	return "race"
}

// Title returns the display name.
func (r *Race) Title() string {
	return "棋盘赛跑"
}

// run plays one racer to the finish, returning turns taken and the
// final position past the line.
func run() (turns, final int) {
	pos := 0
	for pos < TrackLength {
		pos += rand.Intn(6) + 1
		turns++
	}
	return turns, pos
}

// Resolve races both sides. Score folds the overshoot into the turn
// count so that the higher score always wins and scores never tie.
func (r *Race) Resolve() game.Outcome {
	for i := 0; i < MaxRaces; i++ {
		cTurns, cFinal := run()
		tTurns, tFinal := run()

		if cTurns == tTurns && cFinal == tFinal {
			continue
		}

		challengerWins := cTurns < tTurns || (cTurns == tTurns && cFinal > tFinal)
		return game.Outcome{
			ChallengerScore: -cTurns*100 + cFinal,
			TargetScore:     -tTurns*100 + tFinal,
			ChallengerWins:  challengerWins,
			Detail:          fmt.Sprintf("🏁 %d 回合冲到 %d 格 vs %d 回合冲到 %d 格", cTurns, cFinal, tTurns, tFinal),
		}
	}

	// Sudden death: single distinct rolls.
	faces := rand.Perm(6)
	c, t := faces[0]+1, faces[1]+1
	return game.Outcome{
		ChallengerScore: c,
		TargetScore:     t,
		ChallengerWins:  c > t,
		Detail:          fmt.Sprintf("🏁 决胜掷骰 %d vs %d", c, t),
	}
}
