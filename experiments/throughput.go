package experiments

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/diamondburned/shotgun-ai/experiments/metrics"
)

// MatchUp is one pairing of a match-up experiment.
type MatchUp struct {
	Player1 Contestant
	Player2 Contestant
}

// RunMatchUps evaluates every pairing with the same settings and writes all
// game records into one game_records.csv under root/name.
func RunMatchUps(ctx context.Context, root, name string, matchUps []MatchUp, base Config) ([]Summary, error) {
	writer, err := metrics.NewWriter(root, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create experiment writer: %w", err)
	}

	log.Info().Msgf("starting %s experiment...", name)

	var summaries []Summary
	var records []metrics.GameRecord
	for mi, matchUp := range matchUps {
		log.Info().Msgf("starting matchup %d of %d between %s and %s...", mi+1, len(matchUps), matchUp.Player1.Name, matchUp.Player2.Name)

		cfg := base
		cfg.Player1, cfg.Player2 = matchUp.Player1, matchUp.Player2
		s, err := RunEvaluation(ctx, cfg)
		if err != nil {
			return summaries, fmt.Errorf("matchup %d: %w", mi+1, err)
		}

		for _, r := range s.Records {
			r.ID = len(records) + 1
			records = append(records, r)
		}
		summaries = append(summaries, s)
	}

	if err := writer.WriteGameRecords(records); err != nil {
		return summaries, fmt.Errorf("failed to write game records: %w", err)
	}
	log.Info().Msgf("stored %d game records in %s", len(records), writer.Dir())
	return summaries, nil
}
