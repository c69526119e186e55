package game

// Outcome classifies a resolved turn.
type Outcome uint8

const (
	Continue Outcome = iota
	Draw
	Player1Wins
	Player2Wins
	// IllegalMove is terminal and signals that a move source broke the
	// protocol, not a game result.
	IllegalMove
)

func (o Outcome) String() string {
	switch o {
	case Continue:
		return "continue"
	case Draw:
		return "draw"
	case Player1Wins:
		return "player1_wins"
	case Player2Wins:
		return "player2_wins"
	case IllegalMove:
		return "illegal_move"
	default:
		return "unknown"
	}
}

// Terminal reports whether the outcome ends the match.
func (o Outcome) Terminal() bool {
	return o != Continue
}

// Resolve computes the outcome of two legal moves played in the same turn.
func Resolve(move1, move2 Move) Outcome {
	kills1 := KillsOpponent(move1, move2)
	kills2 := KillsOpponent(move2, move1)
	switch {
	case kills1 && kills2:
		return Draw
	case kills1:
		return Player1Wins
	case kills2:
		return Player2Wins
	default:
		return Continue
	}
}
