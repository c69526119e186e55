package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/history"
	"github.com/diamondburned/shotgun-ai/player"
)

func TestHistoryCommand(t *testing.T) {
	ctx := context.Background()
	db := filepath.Join(t.TempDir(), "history.db")

	store, err := history.Open(db)
	require.NoError(t, err)
	m := engine.New(
		player.NewScriptedPlayer(game.Reload, game.Shoot),
		player.NewScriptedPlayer(game.Reload),
		engine.WithRecorder(store),
	)
	_, err = m.Run(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	t.Run("lists recent matches", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, historyCommand(ctx, []string{"-db", db}, &out))
		require.Contains(t, out.String(), m.ID().String())
		require.Contains(t, out.String(), "player1_wins")
		require.Contains(t, out.String(), "2 turns")
	})

	t.Run("exports to stdout", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, historyCommand(ctx, []string{"-db", db, "-id", m.ID().String()}, &out))
		require.JSONEq(t, `{
			"id": "`+m.ID().String()+`",
			"outcome": "player1_wins",
			"moves": [
				{"player1": "reload", "player2": "reload"},
				{"player1": "shoot", "player2": "reload"}
			]
		}`, out.String())
	})

	t.Run("exports to a directory", func(t *testing.T) {
		dir := t.TempDir()
		var out bytes.Buffer
		require.NoError(t, historyCommand(ctx, []string{"-db", db, "-id", m.ID().String(), "-export", dir}, &out))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 1)
		require.Contains(t, out.String(), files[0].Name())
	})

	t.Run("rejects bad ids", func(t *testing.T) {
		err := historyCommand(ctx, []string{"-db", db, "-id", "nope"}, &bytes.Buffer{})
		require.ErrorContains(t, err, "invalid match id")
	})
}
