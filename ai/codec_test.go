package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diamondburned/shotgun-ai/game"
)

func TestEncodeObservation(t *testing.T) {
	obs := game.Observation{
		MyBulletsLoaded:          2,
		MyShieldsRemaining:       7,
		MyKnifeOut:               true,
		OpponentBulletsLoaded:    1,
		OpponentShieldsRemaining: 9,
		OpponentKnifeOut:         false,
		TurnCount:                4,
	}

	got := EncodeObservation(obs)

	want := []float64{2, 7, 1, 1, 9, 0}
	if IncludeTurnCount {
		want = append(want, 4)
	}
	require.Equal(t, want, got)
	require.Len(t, got, FeatureWidth)
}

func TestBoolFeature(t *testing.T) {
	require.Equal(t, 0.0, BoolFeature(false))
	require.Equal(t, 1.0, BoolFeature(true))
}

func TestEncodeMove(t *testing.T) {
	tests := []struct {
		move game.Move
		want []float64
	}{
		{game.Reload, []float64{1, 0, 0, 0, 0}},
		{game.Shoot, []float64{0, 1, 0, 0, 0}},
		{game.Block, []float64{0, 0, 1, 0, 0}},
		{game.TakeOutKnife, []float64{0, 0, 0, 1, 0}},
		{game.Stab, []float64{0, 0, 0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.move.String(), func(t *testing.T) {
			require.Equal(t, tt.want, EncodeMove(tt.move))
		})
	}

	t.Run("invalid move panics", func(t *testing.T) {
		require.Panics(t, func() { EncodeMove(game.Move(7)) })
	})
}

func TestDecodePrediction(t *testing.T) {
	t.Run("keeps canonical order", func(t *testing.T) {
		p, err := DecodePrediction([]float64{0.1, 0.2, 0.3, 0.4, 0.5})
		require.NoError(t, err)
		require.Equal(t, 0.1, p.Score(game.Reload))
		require.Equal(t, 0.2, p.Score(game.Shoot))
		require.Equal(t, 0.3, p.Score(game.Block))
		require.Equal(t, 0.4, p.Score(game.TakeOutKnife))
		require.Equal(t, 0.5, p.Score(game.Stab))
		require.Equal(t, "0.10, 0.20, 0.30, 0.40, 0.50", p.String())
	})

	t.Run("rejects wrong widths", func(t *testing.T) {
		_, err := DecodePrediction([]float64{1, 2, 3})
		require.Error(t, err)
	})
}

type stubPredictor struct {
	inputs  [][]float64
	targets [][]float64
	out     []float64
	err     error
}

func (s *stubPredictor) Train(input, target []float64, opts TrainOptions) error {
	s.inputs = append(s.inputs, input)
	s.targets = append(s.targets, target)
	return s.err
}

func (s *stubPredictor) Predict(input []float64) ([]float64, error) {
	s.inputs = append(s.inputs, input)
	return s.out, s.err
}

func TestPredictAndTrain(t *testing.T) {
	obs := game.Observe(game.NewResourceState(), game.NewResourceState(), 0)

	t.Run("predict encodes and decodes", func(t *testing.T) {
		stub := &stubPredictor{out: []float64{0.9, 0, 0, 0.1, 0}}
		p, err := Predict(stub, obs)
		require.NoError(t, err)
		require.Equal(t, Prediction{0.9, 0, 0, 0.1, 0}, p)
		require.Equal(t, EncodeObservation(obs), stub.inputs[0])
	})

	t.Run("train encodes the target move", func(t *testing.T) {
		stub := &stubPredictor{}
		require.NoError(t, Train(stub, obs, game.TakeOutKnife, TrainOptions{Epochs: 1}))
		require.Equal(t, EncodeMove(game.TakeOutKnife), stub.targets[0])
	})

	t.Run("predictor errors propagate", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Predict(&stubPredictor{err: boom}, obs)
		require.ErrorIs(t, err, boom)
	})
}
