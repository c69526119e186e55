package ai

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/diamondburned/shotgun-ai/game"
)

// IncludeTurnCount controls whether the turn counter is appended as the
// last input feature. Models trained with one setting cannot be used with
// the other. The shipped models were trained without it.
const IncludeTurnCount = false

// FeatureWidth is the length of an encoded observation.
var FeatureWidth = len(EncodeObservation(game.Observation{}))

// BoolFeature is the numeric encoding of a flag: false is 0, true is 1.
func BoolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// EncodeObservation returns the predictor input for obs, laid out as
//
//	[myBullets, myShields, myKnife, oppBullets, oppShields, oppKnife, (turnCount)]
//
// Changing the order invalidates every trained model.
func EncodeObservation(obs game.Observation) []float64 {
	v := make([]float64, 0, 7)
	v = append(v,
		float64(obs.MyBulletsLoaded),
		float64(obs.MyShieldsRemaining),
		BoolFeature(obs.MyKnifeOut),
		float64(obs.OpponentBulletsLoaded),
		float64(obs.OpponentShieldsRemaining),
		BoolFeature(obs.OpponentKnifeOut),
	)
	if IncludeTurnCount {
		v = append(v, float64(obs.TurnCount))
	}
	return v
}

// EncodeMove returns the one-hot target vector of move in canonical order.
func EncodeMove(move game.Move) []float64 {
	v := make([]float64, game.NumMoves)
	v[MoveIndex(move)] = 1
	return v
}

// MoveIndex is the position of move in encoded vectors.
func MoveIndex(move game.Move) int {
	switch move {
	case game.Reload:
		return 0
	case game.Shoot:
		return 1
	case game.Block:
		return 2
	case game.TakeOutKnife:
		return 3
	case game.Stab:
		return 4
	default:
		panic(fmt.Sprintf("no index for invalid move %d", uint8(move)))
	}
}

// Prediction holds a non-negative score per move, indexed by MoveIndex.
// Scores are not guaranteed to sum to one.
type Prediction [game.NumMoves]float64

// Score returns the score of move.
func (p Prediction) Score(move game.Move) float64 {
	return p[MoveIndex(move)]
}

// String formats the scores in canonical order with two decimals.
func (p Prediction) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strings.Join(parts, ", ")
}

// DecodePrediction maps a raw predictor output back to per-move scores.
func DecodePrediction(v []float64) (Prediction, error) {
	var p Prediction
	if len(v) != len(p) {
		return p, fmt.Errorf("prediction has %d scores, want %d", len(v), len(p))
	}
	copy(p[:], v)
	return p, nil
}
