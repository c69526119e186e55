// Package gamemaster runs sessions of matches and decides what a draw
// means for the session.
package gamemaster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/meta"
)

// DrawPolicy decides what happens when a match ends in a draw.
type DrawPolicy int

const (
	// DrawEndsSession reports the draw as the session result.
	DrawEndsSession DrawPolicy = iota
	// DrawReplays starts a fresh match until one is decided.
	DrawReplays
)

func (p DrawPolicy) String() string {
	switch p {
	case DrawEndsSession:
		return "end"
	case DrawReplays:
		return "replay"
	default:
		return fmt.Sprintf("DrawPolicy(%d)", int(p))
	}
}

// ParseDrawPolicy accepts "end" or "replay".
func ParseDrawPolicy(s string) (DrawPolicy, error) {
	switch s {
	case "end":
		return DrawEndsSession, nil
	case "replay":
		return DrawReplays, nil
	default:
		return 0, fmt.Errorf("unknown draw policy %q", s)
	}
}

// MatchFactory returns a new match every time it is called.
type MatchFactory func() *engine.Match

type Session struct {
	Outcome game.Outcome
	Matches []uuid.UUID
	// Replays counts drawn matches that were replayed.
	Replays int
}

type Option func(s *sessionConfig)

type sessionConfig struct {
	maxReplays int
}

// WithMaxReplays bounds DrawReplays. Once reached the draw stands.
func WithMaxReplays(n int) Option {
	return func(s *sessionConfig) {
		s.maxReplays = n
	}
}

// RunSession plays matches from newMatch until one is decided or the draw
// policy ends the session.
func RunSession(ctx context.Context, newMatch MatchFactory, policy DrawPolicy, opts ...Option) (Session, error) {
	cfg := sessionConfig{maxReplays: meta.MAX_REPLAYS}
	for _, opt := range opts {
		opt(&cfg)
	}

	var s Session
	for {
		m := newMatch()
		s.Matches = append(s.Matches, m.ID())

		outcome, err := m.Run(ctx)
		if err != nil {
			return s, fmt.Errorf("match %s: %w", m.ID(), err)
		}
		s.Outcome = outcome

		if outcome != game.Draw || policy != DrawReplays {
			return s, nil
		}
		if s.Replays >= cfg.maxReplays {
			log.Warn().Msgf("session drawn %d times, giving up", s.Replays+1)
			return s, nil
		}

		s.Replays++
		log.Info().Msgf("match %s drawn, replaying (%d/%d)", m.ID(), s.Replays, cfg.maxReplays)
	}
}
