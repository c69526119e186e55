// Package trainer fits a predictor to a fixed set of labeled cases until
// every case is predicted within its tolerance.
package trainer

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/shotgun-ai/ai"
	"github.com/diamondburned/shotgun-ai/experiments/metrics"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/meta"
	"github.com/diamondburned/shotgun-ai/modelstore"
)

// Model is a predictor that can be checkpointed.
type Model interface {
	ai.Predictor
	modelstore.Saveable
}

// Checkpointer persists the model after every iteration.
type Checkpointer interface {
	Checkpoint(model modelstore.Saveable) error
}

// Reporter receives the diagnostics of every iteration once Run returns.
type Reporter interface {
	WriteIterationRecords(records []metrics.IterationRecord) error
}

type Trainer struct {
	model         Model
	cases         CaseSet
	maxIterations int
	checkpointer  Checkpointer
	reporter      Reporter
	classWeights  map[int]float64
}

type Option func(t *Trainer)

func WithMaxIterations(n int) Option {
	return func(t *Trainer) {
		t.maxIterations = n
	}
}

func WithCheckpointer(c Checkpointer) Option {
	return func(t *Trainer) {
		t.checkpointer = c
	}
}

func WithReporter(r Reporter) Option {
	return func(t *Trainer) {
		t.reporter = r
	}
}

// WithClassWeights is passed through to every Train call.
func WithClassWeights(weights map[int]float64) Option {
	return func(t *Trainer) {
		t.classWeights = weights
	}
}

func New(model Model, cases CaseSet, opts ...Option) *Trainer {
	t := &Trainer{
		model:         model,
		cases:         cases,
		maxIterations: meta.MAX_ITERATIONS,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CaseMargin is the evaluation of one case in one iteration.
type CaseMargin struct {
	Group      string
	Case       string
	Want       game.Move
	Prediction ai.Prediction
	Margin     float64
	Good       bool
}

type Result struct {
	Iterations int
	Margins    []CaseMargin
}

// ConvergenceTimeoutError is returned when the iteration limit is reached
// before every case met its tolerance.
type ConvergenceTimeoutError struct {
	Iterations int
	Margins    []CaseMargin
}

func (e *ConvergenceTimeoutError) Error() string {
	var failing []string
	for _, m := range e.Margins {
		if !m.Good {
			failing = append(failing, fmt.Sprintf("%q (margin %.4f)", m.Case, m.Margin))
		}
	}
	return fmt.Sprintf("training did not converge after %d iterations, failing: %s",
		e.Iterations, strings.Join(failing, ", "))
}

// Run trains until convergence, the iteration limit or ctx is done.
func (t *Trainer) Run(ctx context.Context) (Result, error) {
	if err := t.cases.Validate(); err != nil {
		return Result{}, err
	}

	var records []metrics.IterationRecord
	result, err := t.run(ctx, &records)

	if t.reporter != nil && len(records) > 0 {
		if rerr := t.reporter.WriteIterationRecords(records); rerr != nil {
			log.Error().Err(rerr).Msg("failed to write iteration records")
		}
	}
	return result, err
}

func (t *Trainer) run(ctx context.Context, records *[]metrics.IterationRecord) (Result, error) {
	var margins []CaseMargin
	for iteration := 1; t.maxIterations <= 0 || iteration <= t.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return Result{Iterations: iteration - 1, Margins: margins}, err
		}

		log.Info().Int("iteration", iteration).Msg("training")
		if err := t.train(); err != nil {
			return Result{Iterations: iteration, Margins: margins}, err
		}

		var converged bool
		var err error
		margins, converged, err = t.evaluate()
		if err != nil {
			return Result{Iterations: iteration, Margins: margins}, err
		}

		for _, m := range margins {
			*records = append(*records, metrics.IterationRecord{
				Iteration:  iteration,
				Group:      m.Group,
				Case:       m.Case,
				Want:       m.Want.String(),
				Prediction: m.Prediction.String(),
				Margin:     m.Margin,
				Good:       m.Good,
			})
		}

		if t.checkpointer != nil {
			if err := t.checkpointer.Checkpoint(t.model); err != nil {
				return Result{Iterations: iteration, Margins: margins}, errors.Wrapf(err, "checkpoint iteration %d", iteration)
			}
		}

		if converged {
			log.Info().Int("iterations", iteration).Msg("training converged")
			return Result{Iterations: iteration, Margins: margins}, nil
		}
	}

	return Result{Iterations: t.maxIterations, Margins: margins}, &ConvergenceTimeoutError{
		Iterations: t.maxIterations,
		Margins:    margins,
	}
}

func (t *Trainer) train() error {
	for _, g := range t.cases {
		log.Debug().Str("group", g.Name).Msg("training on group")
		for _, c := range g.Data {
			opts := ai.TrainOptions{Epochs: g.epochs(c), ClassWeights: t.classWeights}
			if err := ai.Train(t.model, c.State, c.Move, opts); err != nil {
				return errors.Wrapf(err, "train %q", c.Name)
			}
		}
	}
	return nil
}

func (t *Trainer) evaluate() ([]CaseMargin, bool, error) {
	var margins []CaseMargin
	converged := true
	for _, g := range t.cases {
		for _, c := range g.Data {
			pred, err := ai.Predict(t.model, c.State)
			if err != nil {
				return margins, false, errors.Wrapf(err, "predict %q", c.Name)
			}

			margin, _ := ai.Margin(pred, c.Move)
			good := ai.MeetsTolerance(pred, c.Move, g.tolerance(c))
			if !good {
				converged = false
			}

			log.Info().
				Str("prediction", pred.String()).
				Bool("good", good).
				Stringer("want", c.Move).
				Float64("margin", roundMargin(margin)).
				Msg(c.Name)

			margins = append(margins, CaseMargin{
				Group:      g.Name,
				Case:       c.Name,
				Want:       c.Move,
				Prediction: pred,
				Margin:     margin,
				Good:       good,
			})
		}
	}
	return margins, converged, nil
}

func roundMargin(m float64) float64 {
	return math.Round(m*1e4) / 1e4
}
