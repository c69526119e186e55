package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diamondburned/shotgun-ai/game"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "eval")
	require.NoError(t, err)
	require.DirExists(t, w.Dir())

	t.Run("game records", func(t *testing.T) {
		start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		err := w.WriteGameRecords([]GameRecord{{
			ID:      1,
			MatchID: "abc",
			Player1: "ai",
			Player2: "random",
			GameMetric: GameMetric{
				Outcome:   game.Player1Wins,
				Turns:     4,
				StartTime: start,
				EndTime:   start.Add(time.Second),
				Duration:  time.Second,
			},
		}})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "game_records.csv"))
		require.Len(t, rows, 2)
		require.Equal(t, "outcome", rows[0][4])
		require.Equal(t, []string{"1", "abc", "ai", "random", "player1_wins", "4", "0",
			"2024-01-02T03:04:05Z", "2024-01-02T03:04:06Z", "1s"}, rows[1])
	})

	t.Run("iteration records", func(t *testing.T) {
		err := w.WriteIterationRecords([]IterationRecord{
			{Iteration: 1, Group: "g", Case: "c", Want: "reload", Prediction: "0.90, 0.10", Margin: 0.8, Good: true},
		})
		require.NoError(t, err)

		rows := readCSV(t, filepath.Join(w.Dir(), "iterations.csv"))
		require.Equal(t, []string{"1", "g", "c", "reload", "0.90, 0.10", "0.8000", "true"}, rows[1])
	})
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start()
	c.AddTurn()
	c.AddTurn()
	c.AddIllegal()

	m := c.Complete(game.IllegalMove)
	require.Equal(t, 2, m.Turns)
	require.Equal(t, 1, m.Illegal)
	require.Equal(t, game.IllegalMove, m.Outcome)
	require.False(t, m.EndTime.Before(m.StartTime))

	d := NewDummyCollector()
	d.Start()
	d.AddTurn()
	require.Equal(t, GameMetric{Outcome: game.Draw}, d.Complete(game.Draw))
}
