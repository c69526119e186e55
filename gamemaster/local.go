package gamemaster

import (
	"github.com/diamondburned/shotgun-ai/engine"
)

// Resetter is implemented by players that can be reused across matches.
type Resetter interface {
	Reset()
}

// Local returns a factory of matches between the same two players. Players
// implementing Resetter are reset before every match after the first.
func Local(p1, p2 engine.Player, opts ...engine.Option) MatchFactory {
	first := true
	return func() *engine.Match {
		if !first {
			for _, p := range []engine.Player{p1, p2} {
				if r, ok := p.(Resetter); ok {
					r.Reset()
				}
			}
		}
		first = false
		return engine.New(p1, p2, opts...)
	}
}
