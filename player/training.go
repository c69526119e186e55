package player

import (
	"math"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"github.com/diamondburned/shotgun-ai/ai"
	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
)

// learnFromLoss trains the model to play what the opponent played, from
// the opponent's seat, on the turn that decided the match.
func (p *AIPlayer) learnFromLoss(seat int, last engine.Turn) error {
	opponentSeat := 3 - seat
	obs := last.Observation(seat).Mirror()
	move := last.Moves[opponentSeat-1]

	log.Info().Msgf("lost to %s, training %d iterations of %d epochs", move, p.learnIterations, p.learnEpochs)

	for i := 0; i < p.learnIterations; i++ {
		err := ai.Train(p.model, obs, move, ai.TrainOptions{Epochs: p.learnEpochs})
		if err != nil {
			return err
		}
	}
	return nil
}

// adjustTemperature turns scores into a distribution over legal moves.
// Higher temperatures flatten it.
func adjustTemperature(pred ai.Prediction, legal [game.NumMoves]bool, temperature float64) [game.NumMoves]float64 {
	var policy [game.NumMoves]float64

	exponent := 1.0 / temperature
	sum := 0.0
	for i, score := range pred {
		if !legal[i] || score <= 0 {
			continue
		}
		policy[i] = math.Pow(score, exponent)
		sum += policy[i]
	}

	if sum == 0 {
		// Nothing scored: uniform over legal moves.
		for i := range policy {
			if legal[i] {
				policy[i] = 1
				sum++
			}
		}
	}

	for i := range policy {
		policy[i] /= sum
	}
	return policy
}

func sample(policy [game.NumMoves]float64, rng *rand.Rand) game.Move {
	sampled := rng.Float64()
	cumulative := 0.0
	var lastMove game.Move
	for i, prob := range policy {
		if prob == 0 {
			continue
		}
		lastMove = game.Moves[i]
		cumulative += prob
		if sampled < cumulative {
			return lastMove
		}
	}
	return lastMove // rounding
}
