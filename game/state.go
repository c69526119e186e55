package game

// InitialShields is the number of blocks each player starts a match with.
const InitialShields = 9

// ResourceState is a player's resource ledger. It is mutated only through
// Apply; everything handed to move sources is a copy.
type ResourceState struct {
	BulletsLoaded    int  `json:"bulletsLoaded"`
	ShieldsRemaining int  `json:"shieldsRemaining"`
	KnifeOut         bool `json:"knifeOut"`
}

// NewResourceState returns the ledger a player starts a match with.
func NewResourceState() ResourceState {
	return ResourceState{ShieldsRemaining: InitialShields}
}

// IsLegal reports whether move can be played from this state.
func (s ResourceState) IsLegal(move Move) bool {
	switch move {
	case Reload:
		return true
	case Shoot:
		return s.BulletsLoaded > 0
	case Block:
		return s.ShieldsRemaining > 0
	case TakeOutKnife:
		return !s.KnifeOut
	case Stab:
		return s.KnifeOut
	default:
		return false
	}
}

// Apply plays move against the ledger. It returns false and leaves the
// state untouched if the move is not legal.
func (s *ResourceState) Apply(move Move) bool {
	if !s.IsLegal(move) {
		return false
	}

	switch move {
	case Reload:
		s.BulletsLoaded++
	case Shoot:
		s.BulletsLoaded--
	case Block:
		s.ShieldsRemaining--
	case TakeOutKnife:
		s.KnifeOut = true
	case Stab:
		// Stab only decides the outcome
	}
	return true
}

// LegalMask returns the legality of every move in canonical order.
func (s ResourceState) LegalMask() [NumMoves]bool {
	var mask [NumMoves]bool
	for i, move := range Moves {
		mask[i] = s.IsLegal(move)
	}
	return mask
}

// LegalMoves returns the legal moves in canonical order.
func (s ResourceState) LegalMoves() []Move {
	moves := make([]Move, 0, NumMoves)
	for _, move := range Moves {
		if s.IsLegal(move) {
			moves = append(moves, move)
		}
	}
	return moves
}
