package player

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/diamondburned/shotgun-ai/ai"
	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/meta"
)

// AIPlayer chooses moves with a predictor. It tracks both ledgers from the
// engine's updates.
type AIPlayer struct {
	mu             sync.Mutex
	model          ai.Predictor
	self, opponent game.ResourceState
	turn           int

	learn           bool
	learnIterations int
	learnEpochs     int

	temperature float64
	rng         *rand.Rand
}

var (
	_ engine.Player   = (*AIPlayer)(nil)
	_ engine.Finisher = (*AIPlayer)(nil)
)

type AIOption func(p *AIPlayer)

// WithLearning makes the player train on the move that beat it.
func WithLearning(iterations, epochs int) AIOption {
	return func(p *AIPlayer) {
		p.learn = iterations > 0 && epochs > 0
		p.learnIterations = iterations
		p.learnEpochs = epochs
	}
}

// WithTemperature samples moves from the prediction instead of always
// taking the best one. Zero keeps the player deterministic.
func WithTemperature(temperature float64, seed uint64) AIOption {
	return func(p *AIPlayer) {
		p.temperature = temperature
		p.rng = rand.New(rand.NewSource(seed))
	}
}

func NewAIPlayer(model ai.Predictor, opts ...AIOption) *AIPlayer {
	p := &AIPlayer{
		model:           model,
		self:            game.NewResourceState(),
		opponent:        game.NewResourceState(),
		learnIterations: meta.LEARN_ITERATIONS,
		learnEpochs:     meta.LEARN_EPOCHS,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AIPlayer) Play(ctx context.Context) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	p.mu.Lock()
	obs := game.Observe(p.self, p.opponent, p.turn)
	self := p.self
	p.mu.Unlock()

	return p.Choose(obs, self)
}

// Choose picks a legal move for self in the situation described by obs.
func (p *AIPlayer) Choose(obs game.Observation, self game.ResourceState) (game.Move, error) {
	pred, err := ai.Predict(p.model, obs)
	if err != nil {
		return 0, err
	}

	mask := self.LegalMask()

	p.mu.Lock()
	defer p.mu.Unlock()

	var move game.Move
	if p.temperature > 0 {
		move = sample(adjustTemperature(pred, mask, p.temperature), p.rng)
	} else {
		move = ai.ChooseMove(pred, mask)
	}

	log.Debug().
		Str("prediction", pred.String()).
		Stringer("move", move).
		Msg("ai chose move")
	return move, nil
}

func (p *AIPlayer) Update(self, opponent game.ResourceState, turn int, _ game.Move) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.self, p.opponent, p.turn = self, opponent, turn
}

// Finish learns from the deciding turn when the player lost and learning
// is enabled.
func (p *AIPlayer) Finish(outcome game.Outcome, seat int, last engine.Turn) {
	if !p.learn || !lost(outcome, seat) {
		return
	}
	if err := p.learnFromLoss(seat, last); err != nil {
		log.Error().Err(err).Msg("failed to learn from lost match")
	}
}

// Reset forgets the previous match. The model, and what it learned, is kept.
func (p *AIPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.self, p.opponent, p.turn = game.NewResourceState(), game.NewResourceState(), 0
}
