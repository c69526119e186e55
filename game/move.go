package game

import "fmt"

// Move is one of the five actions a player can take in a turn.
type Move uint8

// Moves in canonical order. The order is part of the feature encoding
// contract with trained models and must not change.
const (
	Reload Move = iota
	Shoot
	Block
	TakeOutKnife
	Stab
)

// NumMoves is the number of distinct moves.
const NumMoves = 5

// Moves lists every move in canonical order.
var Moves = [NumMoves]Move{Reload, Shoot, Block, TakeOutKnife, Stab}

var moveNames = [NumMoves]string{
	Reload:       "reload",
	Shoot:        "shoot",
	Block:        "block",
	TakeOutKnife: "takeOutKnife",
	Stab:         "stab",
}

// Valid reports whether m is one of the five moves.
func (m Move) Valid() bool {
	return m < NumMoves
}

func (m Move) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Move(%d)", uint8(m))
	}
	return moveNames[m]
}

// ParseMove parses the text form of a move ("reload", "shoot", "block",
// "takeOutKnife" or "stab").
func ParseMove(s string) (Move, error) {
	for i, name := range moveNames {
		if name == s {
			return Move(i), nil
		}
	}
	return 0, fmt.Errorf("unknown move %q", s)
}

func (m Move) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid move %d", uint8(m))
	}
	return []byte(moveNames[m]), nil
}

func (m *Move) UnmarshalText(text []byte) error {
	parsed, err := ParseMove(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// KillsOpponent reports whether playing move kills an opponent who
// simultaneously plays opponentMove.
func KillsOpponent(move, opponentMove Move) bool {
	switch move {
	case Shoot:
		return opponentMove != Block
	case Stab:
		return opponentMove != Block && opponentMove != Shoot
	default: // Reload, Block and TakeOutKnife never kill
		return false
	}
}
