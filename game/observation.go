package game

// Observation is what a player sees of the match before choosing a move.
// It is derived from the two ledgers and the turn counter every turn.
type Observation struct {
	MyBulletsLoaded          int  `json:"myBulletsLoaded" yaml:"myBulletsLoaded"`
	MyShieldsRemaining       int  `json:"myShieldsRemaining" yaml:"myShieldsRemaining"`
	MyKnifeOut               bool `json:"myKnifeOut" yaml:"myKnifeOut"`
	OpponentBulletsLoaded    int  `json:"opponentBulletsLoaded" yaml:"opponentBulletsLoaded"`
	OpponentShieldsRemaining int  `json:"opponentShieldsRemaining" yaml:"opponentShieldsRemaining"`
	OpponentKnifeOut         bool `json:"opponentKnifeOut" yaml:"opponentKnifeOut"`
	TurnCount                int  `json:"turnCount" yaml:"turnCount"`
}

// Observe builds the observation of self facing opponent at the given turn.
func Observe(self, opponent ResourceState, turn int) Observation {
	return Observation{
		MyBulletsLoaded:          self.BulletsLoaded,
		MyShieldsRemaining:       self.ShieldsRemaining,
		MyKnifeOut:               self.KnifeOut,
		OpponentBulletsLoaded:    opponent.BulletsLoaded,
		OpponentShieldsRemaining: opponent.ShieldsRemaining,
		OpponentKnifeOut:         opponent.KnifeOut,
		TurnCount:                turn,
	}
}

// Mirror returns the same observation from the opponent's seat.
func (o Observation) Mirror() Observation {
	return Observation{
		MyBulletsLoaded:          o.OpponentBulletsLoaded,
		MyShieldsRemaining:       o.OpponentShieldsRemaining,
		MyKnifeOut:               o.OpponentKnifeOut,
		OpponentBulletsLoaded:    o.MyBulletsLoaded,
		OpponentShieldsRemaining: o.MyShieldsRemaining,
		OpponentKnifeOut:         o.MyKnifeOut,
		TurnCount:                o.TurnCount,
	}
}
