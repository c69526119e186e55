package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/diamondburned/shotgun-ai/experiments/metrics"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/meta"
)

// Match runs one duel between two players. It owns both ledgers and is not
// safe for concurrent use.
type Match struct {
	id        uuid.UUID
	players   [2]Player
	states    [2]game.ResourceState
	turn      int
	history   []Turn
	outcome   game.Outcome
	startTime time.Time

	maxTurns  int
	recorder  Recorder
	collector metrics.Collector
}

type Option func(m *Match)

// WithMaxTurns bounds Run. Zero means unbounded.
func WithMaxTurns(n int) Option {
	return func(m *Match) {
		m.maxTurns = n
	}
}

// WithRecorder records the match once it is decided.
func WithRecorder(r Recorder) Option {
	return func(m *Match) {
		m.recorder = r
	}
}

func WithCollector(c metrics.Collector) Option {
	return func(m *Match) {
		m.collector = c
	}
}

// New starts a match between p1 and p2 from fresh ledgers.
func New(p1, p2 Player, opts ...Option) *Match {
	m := &Match{
		id:        uuid.New(),
		players:   [2]Player{p1, p2},
		states:    [2]game.ResourceState{game.NewResourceState(), game.NewResourceState()},
		maxTurns:  meta.MAX_TURNS,
		collector: metrics.NewDummyCollector(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.collector.Start()
	return m
}

func (m *Match) ID() uuid.UUID {
	return m.id
}

// States returns copies of both ledgers.
func (m *Match) States() [2]game.ResourceState {
	return m.states
}

// TurnCount is the number of completed non-terminal turns.
func (m *Match) TurnCount() int {
	return m.turn
}

// Outcome is Continue until the match is decided.
func (m *Match) Outcome() game.Outcome {
	return m.outcome
}

// History returns every resolved turn, including the deciding one.
func (m *Match) History() []Turn {
	return append([]Turn(nil), m.history...)
}

// Metric completes the match's collector.
func (m *Match) Metric() metrics.GameMetric {
	return m.collector.Complete(m.outcome)
}

// PlayTurn asks both players for a move and resolves them. Errors from the
// players abort the turn without changing any state.
func (m *Match) PlayTurn(ctx context.Context) (game.Outcome, error) {
	if m.outcome.Terminal() {
		return m.outcome, ErrMatchOver
	}

	moves, err := m.solicit(ctx)
	if err != nil {
		return game.Continue, err
	}

	t := Turn{
		Number: m.turn,
		Moves:  moves,
		Before: m.states,
	}

	for i := range m.players {
		t.Illegal[i] = !m.states[i].IsLegal(moves[i])
	}
	if t.Illegal[0] || t.Illegal[1] {
		t.Outcome = game.IllegalMove
		t.After = m.states
		m.collector.AddIllegal()
		log.Warn().Msgf("match %s: illegal move %s/%s (player1 illegal: %t, player2 illegal: %t)",
			m.id, moves[0], moves[1], t.Illegal[0], t.Illegal[1])
		m.finish(t)
		return m.outcome, nil
	}

	t.Outcome = game.Resolve(moves[0], moves[1])
	m.states[0].Apply(moves[0])
	m.states[1].Apply(moves[1])
	t.After = m.states

	log.Debug().Msgf("match %s turn %d: %s vs %s -> %s", m.id, m.turn, moves[0], moves[1], t.Outcome)

	if t.Outcome.Terminal() {
		m.finish(t)
		return m.outcome, nil
	}

	m.turn++
	m.history = append(m.history, t)
	m.collector.AddTurn()
	m.players[0].Update(m.states[0], m.states[1], m.turn, moves[1])
	m.players[1].Update(m.states[1], m.states[0], m.turn, moves[0])
	return game.Continue, nil
}

// solicit requests both moves concurrently and waits for both.
func (m *Match) solicit(ctx context.Context) ([2]game.Move, error) {
	var moves [2]game.Move
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range m.players {
		g.Go(func() error {
			move, err := p.Play(ctx)
			if err != nil {
				return fmt.Errorf("player %d: %w", i+1, err)
			}
			moves[i] = move
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return moves, err
	}
	return moves, nil
}

func (m *Match) finish(t Turn) {
	m.outcome = t.Outcome
	m.history = append(m.history, t)
	for i, p := range m.players {
		if f, ok := p.(Finisher); ok {
			f.Finish(m.outcome, i+1, t)
		}
	}
}

// Run plays turns until the match is decided, a player fails or the turn
// limit is reached.
func (m *Match) Run(ctx context.Context) (game.Outcome, error) {
	for !m.outcome.Terminal() {
		if m.maxTurns > 0 && m.turn >= m.maxTurns {
			log.Info().Msgf("match %s stopped after %d turns", m.id, m.turn)
			return game.Continue, ErrTurnLimit
		}
		if _, err := m.PlayTurn(ctx); err != nil {
			return game.Continue, err
		}
	}

	log.Info().Msgf("match %s ended after %d turns: %s", m.id, m.turn, m.outcome)

	if m.recorder != nil {
		err := m.recorder.Record(ctx, Summary{
			ID:        m.id,
			Outcome:   m.outcome,
			Turns:     m.History(),
			StartTime: m.startTime,
			EndTime:   time.Now(),
		})
		if err != nil {
			return m.outcome, fmt.Errorf("failed to record match: %w", err)
		}
	}
	return m.outcome, nil
}
