// Package history keeps finished matches in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
)

const schema = `
CREATE TABLE IF NOT EXISTS matches (
    id          TEXT PRIMARY KEY,
    outcome     TEXT NOT NULL,
    turns       INTEGER NOT NULL,
    started_at  TEXT NOT NULL,
    ended_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
    match_id    TEXT NOT NULL REFERENCES matches(id),
    seq         INTEGER NOT NULL,
    number      INTEGER NOT NULL,
    move1       TEXT NOT NULL,
    move2       TEXT NOT NULL,
    before_json TEXT NOT NULL,
    after_json  TEXT NOT NULL,
    outcome     TEXT NOT NULL,
    illegal1    INTEGER NOT NULL,
    illegal2    INTEGER NOT NULL,
    PRIMARY KEY (match_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_matches_ended ON matches(ended_at);
`

// ErrNotFound is returned for unknown match ids.
var ErrNotFound = errors.New("match not found")

// Store records matches. It implements engine.Recorder.
type Store struct {
	db *sql.DB
}

var _ engine.Recorder = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore creates the tables if needed.
func NewStore(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a finished match and its turns in one transaction.
func (s *Store) Record(ctx context.Context, m engine.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO matches (id, outcome, turns, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`,
		m.ID.String(), m.Outcome.String(), len(m.Turns),
		m.StartTime.UTC().Format(time.RFC3339Nano), m.EndTime.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	for i, t := range m.Turns {
		before, err := json.Marshal(t.Before)
		if err != nil {
			return fmt.Errorf("encode turn %d: %w", i, err)
		}
		after, err := json.Marshal(t.After)
		if err != nil {
			return fmt.Errorf("encode turn %d: %w", i, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO turns (match_id, seq, number, move1, move2, before_json, after_json, outcome, illegal1, illegal2)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID.String(), i, t.Number, t.Moves[0].String(), t.Moves[1].String(),
			string(before), string(after), t.Outcome.String(), t.Illegal[0], t.Illegal[1],
		)
		if err != nil {
			return fmt.Errorf("insert turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Match is a row of the matches table.
type Match struct {
	ID        uuid.UUID
	Outcome   string
	Turns     int
	StartTime time.Time
	EndTime   time.Time
}

// Recent lists the latest matches, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, outcome, turns, started_at, ended_at FROM matches ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		var id, started, ended string
		if err := rows.Scan(&id, &m.Outcome, &m.Turns, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if m.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse match id: %w", err)
		}
		m.StartTime, _ = time.Parse(time.RFC3339Nano, started)
		m.EndTime, _ = time.Parse(time.RFC3339Nano, ended)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Get reads a match back with all of its turns.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (engine.Summary, error) {
	var outcome, started, ended string
	err := s.db.QueryRowContext(ctx,
		`SELECT outcome, started_at, ended_at FROM matches WHERE id = ?`, id.String(),
	).Scan(&outcome, &started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Summary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return engine.Summary{}, fmt.Errorf("query match: %w", err)
	}

	summary := engine.Summary{ID: id}
	if summary.Outcome, err = parseOutcome(outcome); err != nil {
		return engine.Summary{}, err
	}
	summary.StartTime, _ = time.Parse(time.RFC3339Nano, started)
	summary.EndTime, _ = time.Parse(time.RFC3339Nano, ended)

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, move1, move2, before_json, after_json, outcome, illegal1, illegal2
		 FROM turns WHERE match_id = ? ORDER BY seq`, id.String())
	if err != nil {
		return engine.Summary{}, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t engine.Turn
		var move1, move2, before, after, turnOutcome string
		err := rows.Scan(&t.Number, &move1, &move2, &before, &after, &turnOutcome, &t.Illegal[0], &t.Illegal[1])
		if err != nil {
			return engine.Summary{}, fmt.Errorf("scan turn: %w", err)
		}
		if t.Moves[0], err = game.ParseMove(move1); err != nil {
			return engine.Summary{}, err
		}
		if t.Moves[1], err = game.ParseMove(move2); err != nil {
			return engine.Summary{}, err
		}
		if err := json.Unmarshal([]byte(before), &t.Before); err != nil {
			return engine.Summary{}, fmt.Errorf("decode turn: %w", err)
		}
		if err := json.Unmarshal([]byte(after), &t.After); err != nil {
			return engine.Summary{}, fmt.Errorf("decode turn: %w", err)
		}
		if t.Outcome, err = parseOutcome(turnOutcome); err != nil {
			return engine.Summary{}, err
		}
		summary.Turns = append(summary.Turns, t)
	}
	return summary, rows.Err()
}

func parseOutcome(s string) (game.Outcome, error) {
	for o := game.Continue; o <= game.IllegalMove; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// MovePair is one turn as exported to JSON.
type MovePair struct {
	Player1 game.Move `json:"player1"`
	Player2 game.Move `json:"player2"`
}

type export struct {
	ID      uuid.UUID  `json:"id"`
	Outcome string     `json:"outcome"`
	Moves   []MovePair `json:"moves"`
}

// ExportJSON writes the move pairs of a match as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, id uuid.UUID, w io.Writer) error {
	m, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return writeExport(m, w)
}

// ExportFile writes the JSON export of a match to dir as
// game-<start ms>-<id prefix>.json and returns its path.
func (s *Store) ExportFile(ctx context.Context, id uuid.UUID, dir string) (string, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("game-%d-%s.json", m.StartTime.UnixMilli(), id.String()[:8]))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export: %w", err)
	}
	if err := writeExport(m, f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	return path, nil
}

func writeExport(m engine.Summary, w io.Writer) error {
	e := export{ID: m.ID, Outcome: m.Outcome.String(), Moves: make([]MovePair, len(m.Turns))}
	for i, t := range m.Turns {
		e.Moves[i] = MovePair{Player1: t.Moves[0], Player2: t.Moves[1]}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return nil
}
