package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewResourceState(t *testing.T) {
	s := NewResourceState()

	require.Equal(t, 0, s.BulletsLoaded, "Players should start unloaded")
	require.Equal(t, InitialShields, s.ShieldsRemaining, "Players should start with every shield")
	require.False(t, s.KnifeOut, "Players should start with the knife away")
}

func TestResourceStateIsLegal(t *testing.T) {
	tests := []struct {
		name  string
		state ResourceState
		legal []Move
	}{
		{
			name:  "fresh state",
			state: NewResourceState(),
			legal: []Move{Reload, Block, TakeOutKnife},
		},
		{
			name:  "loaded with knife out",
			state: ResourceState{BulletsLoaded: 2, ShieldsRemaining: 3, KnifeOut: true},
			legal: []Move{Reload, Shoot, Block, Stab},
		},
		{
			name:  "no shields left",
			state: ResourceState{BulletsLoaded: 1, ShieldsRemaining: 0},
			legal: []Move{Reload, Shoot, TakeOutKnife},
		},
		{
			name:  "empty ledger with knife out",
			state: ResourceState{KnifeOut: true},
			legal: []Move{Reload, Stab},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.legal, tt.state.LegalMoves())
			for _, move := range Moves {
				require.Equal(t, contains(tt.legal, move), tt.state.IsLegal(move),
					"legality of %s", move)
			}
		})
	}

	t.Run("invalid move is never legal", func(t *testing.T) {
		require.False(t, NewResourceState().IsLegal(Move(42)))
	})
}

func TestResourceStateApply(t *testing.T) {
	t.Run("mutates iff the move was legal", func(t *testing.T) {
		states := []ResourceState{
			NewResourceState(),
			{BulletsLoaded: 1, ShieldsRemaining: 1},
			{BulletsLoaded: 0, ShieldsRemaining: 0, KnifeOut: true},
			{BulletsLoaded: 5, ShieldsRemaining: 9, KnifeOut: true},
		}
		for _, start := range states {
			for _, move := range Moves {
				s := start
				legal := s.IsLegal(move)
				applied := s.Apply(move)

				require.Equal(t, legal, applied, "Apply(%s) on %+v", move, start)
				if !legal {
					require.Equal(t, start, s, "Illegal %s should not mutate %+v", move, start)
				}
				require.GreaterOrEqual(t, s.BulletsLoaded, 0)
				require.GreaterOrEqual(t, s.ShieldsRemaining, 0)
			}
		}
	})

	t.Run("transitions", func(t *testing.T) {
		s := NewResourceState()

		require.True(t, s.Apply(Reload))
		require.Equal(t, 1, s.BulletsLoaded, "Reload should load a bullet")

		require.True(t, s.Apply(Shoot))
		require.Equal(t, 0, s.BulletsLoaded, "Shoot should spend a bullet")

		require.True(t, s.Apply(Block))
		require.Equal(t, InitialShields-1, s.ShieldsRemaining, "Block should spend a shield")

		require.True(t, s.Apply(TakeOutKnife))
		require.True(t, s.KnifeOut, "TakeOutKnife should set the knife flag")

		before := s
		require.True(t, s.Apply(Stab))
		require.Equal(t, before, s, "Stab should not touch resources")
	})

	t.Run("knife stays out", func(t *testing.T) {
		s := NewResourceState()
		require.True(t, s.Apply(TakeOutKnife))
		for _, move := range Moves {
			s.Apply(move)
			require.True(t, s.KnifeOut, "Knife should stay out after %s", move)
		}
	})
}

func TestLegalMask(t *testing.T) {
	s := ResourceState{BulletsLoaded: 1, ShieldsRemaining: 0, KnifeOut: true}
	require.Equal(t, [NumMoves]bool{true, true, false, false, true}, s.LegalMask())
}

func contains(moves []Move, m Move) bool {
	for _, move := range moves {
		if move == m {
			return true
		}
	}
	return false
}
