package trainer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diamondburned/shotgun-ai/ai"
	"github.com/diamondburned/shotgun-ai/experiments/metrics"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/modelstore"
)

// memorizer predicts a case's target once it has been trained on it enough
// times and a flat distribution before that.
type memorizer struct {
	needed  int
	seen    map[string]int
	targets map[string][]float64
	epochs  []int
	weights []map[int]float64
	err     error
}

func newMemorizer(needed int) *memorizer {
	return &memorizer{
		needed:  needed,
		seen:    map[string]int{},
		targets: map[string][]float64{},
	}
}

func (m *memorizer) Train(input, target []float64, opts ai.TrainOptions) error {
	if m.err != nil {
		return m.err
	}
	key := fmt.Sprint(input)
	m.seen[key]++
	m.targets[key] = target
	m.epochs = append(m.epochs, opts.Epochs)
	m.weights = append(m.weights, opts.ClassWeights)
	return nil
}

func (m *memorizer) Predict(input []float64) ([]float64, error) {
	key := fmt.Sprint(input)
	if m.seen[key] >= m.needed {
		return m.targets[key], nil
	}
	return []float64{0.2, 0.2, 0.2, 0.2, 0.2}, nil
}

func (m *memorizer) Artifacts() (modelstore.Artifacts, error) {
	return modelstore.Artifacts{}, nil
}

type countingCheckpointer struct {
	calls int
	err   error
}

func (c *countingCheckpointer) Checkpoint(model modelstore.Saveable) error {
	c.calls++
	return c.err
}

type recordingReporter struct {
	records []metrics.IterationRecord
}

func (r *recordingReporter) WriteIterationRecords(records []metrics.IterationRecord) error {
	r.records = records
	return nil
}

func TestRunConverges(t *testing.T) {
	model := newMemorizer(3)
	checkpoints := &countingCheckpointer{}
	reporter := &recordingReporter{}

	tr := New(model, DefaultCases(),
		WithMaxIterations(10),
		WithCheckpointer(checkpoints),
		WithReporter(reporter),
	)

	result, err := tr.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, result.Iterations)
	require.Equal(t, 3, checkpoints.calls, "a checkpoint should be written after every iteration")
	require.Len(t, result.Margins, 4)
	for _, m := range result.Margins {
		require.True(t, m.Good, "case %q should meet tolerance", m.Case)
		require.Equal(t, 1.0, m.Margin)
	}

	require.Len(t, reporter.records, 12)
	require.Equal(t, 1, reporter.records[0].Iteration)
	require.Equal(t, "First round is always reload", reporter.records[0].Case)
	require.False(t, reporter.records[0].Good)
	require.True(t, reporter.records[11].Good)
}

func TestRunTimeout(t *testing.T) {
	model := newMemorizer(100)
	checkpoints := &countingCheckpointer{}

	result, err := New(model, DefaultCases(),
		WithMaxIterations(5),
		WithCheckpointer(checkpoints),
	).Run(context.Background())

	var timeout *ConvergenceTimeoutError
	require.ErrorAs(t, err, &timeout)
	require.Equal(t, 5, timeout.Iterations)
	require.Len(t, timeout.Margins, 4)
	for _, m := range timeout.Margins {
		require.False(t, m.Good)
		require.Equal(t, 0.0, m.Margin)
	}
	require.Contains(t, err.Error(), "First round is always reload")
	require.Equal(t, 5, result.Iterations)
	require.Equal(t, 5, checkpoints.calls)
}

func TestRunEpochsAndOrder(t *testing.T) {
	cases := CaseSet{{
		Name:      "group",
		Epochs:    10,
		Tolerance: 0.5,
		Data: []Case{
			{Name: "own epochs", State: game.Observation{MyBulletsLoaded: 1}, Move: game.Shoot, Epochs: 3},
			{Name: "group epochs", State: game.Observation{MyBulletsLoaded: 2}, Move: game.Reload},
		},
	}}

	model := newMemorizer(1)
	weights := map[int]float64{1: 2}
	_, err := New(model, cases, WithClassWeights(weights)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{3, 10}, model.epochs, "cases train in order with their own or the group's epochs")
	require.Equal(t, weights, model.weights[0])
}

func TestRunErrors(t *testing.T) {
	t.Run("invalid cases", func(t *testing.T) {
		_, err := New(newMemorizer(1), nil).Run(context.Background())
		require.Error(t, err)
	})

	t.Run("training error", func(t *testing.T) {
		boom := errors.New("boom")
		model := newMemorizer(1)
		model.err = boom
		_, err := New(model, DefaultCases()).Run(context.Background())
		require.ErrorIs(t, err, boom)
	})

	t.Run("checkpoint error", func(t *testing.T) {
		boom := errors.New("disk full")
		_, err := New(newMemorizer(1), DefaultCases(),
			WithCheckpointer(&countingCheckpointer{err: boom}),
		).Run(context.Background())
		require.ErrorIs(t, err, boom)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		result, err := New(newMemorizer(1), DefaultCases()).Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, 0, result.Iterations)
	})
}

func TestLoadCases(t *testing.T) {
	const doc = `
- name: openings
  epochs: 10
  tolerance: 0.01
  data:
    - name: first turn
      move: reload
      state:
        myShieldsRemaining: 9
        opponentShieldsRemaining: 9
    - name: shoot a loader
      move: shoot
      epochs: 4
      tolerance: 0.2
      state:
        myBulletsLoaded: 1
        myShieldsRemaining: 9
        opponentBulletsLoaded: 1
        opponentShieldsRemaining: 9
        turnCount: 1
`
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	set, err := LoadCases(path)
	require.NoError(t, err)
	require.Len(t, set, 1)

	g := set[0]
	require.Equal(t, "openings", g.Name)
	require.Len(t, g.Data, 2)
	require.Equal(t, game.Reload, g.Data[0].Move)
	require.Equal(t, 10, g.epochs(g.Data[0]))
	require.Equal(t, 0.01, g.tolerance(g.Data[0]))
	require.Equal(t, game.Shoot, g.Data[1].Move)
	require.Equal(t, 4, g.epochs(g.Data[1]))
	require.Equal(t, 0.2, g.tolerance(g.Data[1]))
	require.Equal(t, 1, g.Data[1].State.OpponentBulletsLoaded)
	require.Equal(t, 1, g.Data[1].State.TurnCount)

	t.Run("unknown move", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("- name: g\n  epochs: 1\n  data:\n    - name: c\n      move: dodge\n"), 0o644))
		_, err := LoadCases(bad)
		require.Error(t, err)
	})

	t.Run("missing epochs", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("- name: g\n  data:\n    - name: c\n      move: block\n"), 0o644))
		_, err := LoadCases(bad)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCases(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
}

func TestValidateRejectsNegativeOverrides(t *testing.T) {
	tests := []struct {
		name string
		c    Case
		want string
	}{
		{"tolerance", Case{Name: "c", Move: game.Block, Tolerance: -1}, "tolerance must not be negative"},
		{"epochs", Case{Name: "c", Move: game.Block, Epochs: -3}, "epochs must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := CaseSet{{Name: "g", Epochs: 5, Tolerance: 0.5, Data: []Case{tt.c}}}
			require.ErrorContains(t, set.Validate(), tt.want)
		})
	}
}

func TestDefaultCases(t *testing.T) {
	set := DefaultCases()
	require.NoError(t, set.Validate())
	require.Len(t, set[0].Data, 4)

	seen := map[string]bool{}
	for _, c := range set[0].Data {
		key := fmt.Sprint(ai.EncodeObservation(c.State))
		require.False(t, seen[key], "case %q should have a distinct encoding", c.Name)
		seen[key] = true
	}
}
