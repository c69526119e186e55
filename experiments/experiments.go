// Package experiments pits move sources against each other and records
// the results as CSV.
package experiments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/experiments/metrics"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/meta"
)

// MaxTurns bounds evaluation matches so two passive players cannot stall.
const MaxTurns = 200

// Contestant creates a fresh player for every game.
type Contestant struct {
	Name string
	New  func(game int) engine.Player
}

type Config struct {
	Player1 Contestant
	Player2 Contestant
	Games   int
	// Workers is the number of games played at once.
	Workers  int
	MaxTurns int
	// Recorder optionally stores every decided match.
	Recorder engine.Recorder
}

// Summary tallies the outcomes of an evaluation.
type Summary struct {
	Games       int
	Player1Wins int
	Player2Wins int
	Draws       int
	Illegal     int
	Unfinished  int
	Records     []metrics.GameRecord
}

func (s Summary) String() string {
	return fmt.Sprintf("%d games: %d/%d wins, %d draws, %d illegal, %d unfinished",
		s.Games, s.Player1Wins, s.Player2Wins, s.Draws, s.Illegal, s.Unfinished)
}

func (s *Summary) add(record metrics.GameRecord, finished bool) {
	s.Games++
	s.Records = append(s.Records, record)
	switch {
	case !finished:
		s.Unfinished++
	case record.Outcome == game.Player1Wins:
		s.Player1Wins++
	case record.Outcome == game.Player2Wins:
		s.Player2Wins++
	case record.Outcome == game.Draw:
		s.Draws++
	case record.Outcome == game.IllegalMove:
		s.Illegal++
	}
}

// RunEvaluation plays cfg.Games matches. Records are ordered by game.
func RunEvaluation(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Games <= 0 {
		cfg.Games = meta.EVAL_GAMES
	}
	if cfg.Workers <= 0 {
		cfg.Workers = meta.GO_ROUTINES
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = MaxTurns
	}

	log.Info().Msgf("starting evaluation of %s vs %s over %d games...", cfg.Player1.Name, cfg.Player2.Name, cfg.Games)

	records := make([]metrics.GameRecord, cfg.Games)
	finished := make([]bool, cfg.Games)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := 0; i < cfg.Games; i++ {
		g.Go(func() error {
			record, ok, err := runGame(ctx, cfg, i)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			records[i], finished[i] = record, ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	var s Summary
	for i := range records {
		s.add(records[i], finished[i])
	}
	log.Info().Msgf("completed evaluation of %s vs %s: %s", cfg.Player1.Name, cfg.Player2.Name, s)
	return s, nil
}

func runGame(ctx context.Context, cfg Config, i int) (metrics.GameRecord, bool, error) {
	opts := []engine.Option{
		engine.WithMaxTurns(cfg.MaxTurns),
		engine.WithCollector(metrics.NewCollector()),
	}
	if cfg.Recorder != nil {
		opts = append(opts, engine.WithRecorder(cfg.Recorder))
	}

	m := engine.New(cfg.Player1.New(i), cfg.Player2.New(i), opts...)
	_, err := m.Run(ctx)
	finished := true
	if errors.Is(err, engine.ErrTurnLimit) {
		finished = false
	} else if err != nil {
		return metrics.GameRecord{}, false, err
	}

	return metrics.GameRecord{
		ID:         i + 1,
		MatchID:    m.ID().String(),
		Player1:    cfg.Player1.Name,
		Player2:    cfg.Player2.Name,
		GameMetric: m.Metric(),
	}, finished, nil
}

// syncRecorder serializes a recorder shared by concurrent games.
type syncRecorder struct {
	mu sync.Mutex
	r  engine.Recorder
}

// SyncRecorder wraps r so concurrent games can share it.
func SyncRecorder(r engine.Recorder) engine.Recorder {
	return &syncRecorder{r: r}
}

func (s *syncRecorder) Record(ctx context.Context, summary engine.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Record(ctx, summary)
}
