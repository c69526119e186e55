package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/diamondburned/shotgun-ai/game"
)

// ErrTurnLimit is returned by Run when the match reaches its turn limit
// without a decision.
var ErrTurnLimit = errors.New("turn limit reached")

// ErrMatchOver is returned when a turn is requested after the match ended.
var ErrMatchOver = errors.New("match is over")

// Player is a move source. Play may block until the move is known; it is
// called once per turn and concurrently with the opponent's Play.
type Player interface {
	Play(ctx context.Context) (game.Move, error)
	// Update is called after every non-terminal turn with copies of both
	// ledgers, the new turn count and the move the opponent just played.
	Update(self, opponent game.ResourceState, turn int, lastOpponentMove game.Move)
}

// Finisher is implemented by players that want to see how a match ended.
// seat is 1 or 2.
type Finisher interface {
	Finish(outcome game.Outcome, seat int, last Turn)
}

// Recorder persists finished matches.
type Recorder interface {
	Record(ctx context.Context, summary Summary) error
}

// Turn is one resolved pair of moves. Index 0 is player 1.
type Turn struct {
	// Number is the turn count both players observed when choosing.
	Number  int
	Moves   [2]game.Move
	Before  [2]game.ResourceState
	After   [2]game.ResourceState
	Outcome game.Outcome
	Illegal [2]bool
}

// Observation returns what the player in seat saw before this turn.
func (t Turn) Observation(seat int) game.Observation {
	self, opponent := seat-1, 2-seat
	return game.Observe(t.Before[self], t.Before[opponent], t.Number)
}

// Summary describes a finished match.
type Summary struct {
	ID        uuid.UUID
	Outcome   game.Outcome
	Turns     []Turn
	StartTime time.Time
	EndTime   time.Time
}
