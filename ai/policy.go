package ai

import (
	"math"

	"github.com/diamondburned/shotgun-ai/game"
)

// ChooseMove picks the highest scoring legal move. Illegal moves are forced
// to -Inf before the argmax; ties go to the first move in canonical order.
func ChooseMove(p Prediction, legal [game.NumMoves]bool) game.Move {
	best := game.Moves[0]
	bestScore := math.Inf(-1)
	found := false
	for _, move := range game.Moves {
		i := MoveIndex(move)
		score := p[i]
		if !legal[i] {
			score = math.Inf(-1)
		}
		if !found || score > bestScore {
			best, bestScore, found = move, score, true
		}
	}
	return best
}

// Margin returns the smallest lead of the intended move over any other
// move. ok is false when some other move scores strictly higher.
func Margin(p Prediction, intended game.Move) (margin float64, ok bool) {
	want := p.Score(intended)
	margin = math.Inf(1)
	ok = true
	for _, move := range game.Moves {
		if move == intended {
			continue
		}
		d := want - p.Score(move)
		if d < 0 {
			ok = false
		}
		margin = math.Min(margin, d)
	}
	return margin, ok
}

// MeetsTolerance reports whether intended is the top move and beats every
// other move by more than tolerance.
func MeetsTolerance(p Prediction, intended game.Move, tolerance float64) bool {
	margin, ok := Margin(p, intended)
	if !ok {
		return false
	}
	return tolerance < margin
}
