package player

import (
	"context"

	"golang.org/x/exp/rand"

	"github.com/diamondburned/shotgun-ai/game"
)

// ScriptedPlayer plays a fixed sequence of moves and then repeats the last.
// It does not check legality.
type ScriptedPlayer struct {
	moves  []game.Move
	played int
}

func NewScriptedPlayer(moves ...game.Move) *ScriptedPlayer {
	if len(moves) == 0 {
		moves = []game.Move{game.Reload}
	}
	return &ScriptedPlayer{moves: moves}
}

func (p *ScriptedPlayer) Play(ctx context.Context) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	move := p.moves[min(p.played, len(p.moves)-1)]
	p.played++
	return move, nil
}

func (p *ScriptedPlayer) Update(self, opponent game.ResourceState, turn int, lastOpponentMove game.Move) {}

// RandomPlayer plays uniformly among its legal moves.
type RandomPlayer struct {
	rng  *rand.Rand
	self game.ResourceState
}

func NewRandomPlayer(seed uint64) *RandomPlayer {
	return &RandomPlayer{
		rng:  rand.New(rand.NewSource(seed)),
		self: game.NewResourceState(),
	}
}

func (p *RandomPlayer) Play(ctx context.Context) (game.Move, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	legal := p.self.LegalMoves()
	return legal[p.rng.Intn(len(legal))], nil
}

func (p *RandomPlayer) Update(self, opponent game.ResourceState, turn int, lastOpponentMove game.Move) {
	p.self = self
}

func (p *ScriptedPlayer) Reset() {
	p.played = 0
}

func (p *RandomPlayer) Reset() {
	p.self = game.NewResourceState()
}
