// Package ai turns game observations into predictor inputs and predictor
// outputs back into moves.
package ai

import "github.com/diamondburned/shotgun-ai/game"

// TrainOptions configures a single Train call.
type TrainOptions struct {
	// Epochs is the number of passes over the sample. Must be positive.
	Epochs int
	// ClassWeights optionally scales the loss of samples by the index of
	// their target move. Missing entries weigh 1.
	ClassWeights map[int]float64
}

// Predictor is a trainable function approximator mapping an encoded
// observation to a score per move.
type Predictor interface {
	Train(input, target []float64, opts TrainOptions) error
	Predict(input []float64) ([]float64, error)
}

// Predict runs p on the encoded observation and decodes its output.
func Predict(p Predictor, obs game.Observation) (Prediction, error) {
	out, err := p.Predict(EncodeObservation(obs))
	if err != nil {
		return Prediction{}, err
	}
	return DecodePrediction(out)
}

// Train fits p once to play move in the situation described by obs.
func Train(p Predictor, obs game.Observation, move game.Move, opts TrainOptions) error {
	return p.Train(EncodeObservation(obs), EncodeMove(move), opts)
}
