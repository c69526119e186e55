package client

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/diamondburned/shotgun-ai/communication/server"
	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/gamemaster"
	"github.com/diamondburned/shotgun-ai/player"
)

func TestClient(t *testing.T) {
	human := player.NewHumanPlayer()
	srv := httptest.NewServer(server.New(server.WithHuman(human)))
	defer srv.Close()

	c := New(srv.URL, srv.Client())

	state, err := c.State(context.Background())
	require.NoError(t, err)
	require.False(t, state.Waiting)

	_, err = c.SendMove(context.Background(), game.Reload)
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 409, reqErr.StatusCode)
}

func TestRunConsole(t *testing.T) {
	human := player.NewHumanPlayer()
	srv := httptest.NewServer(server.New(server.WithHuman(human)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The human reloads then shoots; the opponent keeps reloading.
	matchDone := make(chan game.Outcome, 1)
	go func() {
		outcome, _ := engine.New(human, player.NewScriptedPlayer(game.Reload)).Run(ctx)
		human.EndSession()
		matchDone <- outcome
	}()

	var out bytes.Buffer
	in := strings.NewReader("dodge\nreload\nshoot\n")
	state, err := RunConsole(ctx, New(srv.URL, srv.Client()), in, &out, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "player1_wins", state.Outcome)
	require.Equal(t, game.Player1Wins, <-matchDone)
	require.Contains(t, out.String(), "unknown move")
	require.Contains(t, out.String(), "opponent played reload")
}

func TestRunConsoleReplaysDraws(t *testing.T) {
	human := player.NewHumanPlayer()
	srv := httptest.NewServer(server.New(server.WithHuman(human)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Both shoot on turn 2 of the first match. The replay is won by
	// blocking the opponent's shot and shooting back.
	opponent := player.NewScriptedPlayer(game.Reload, game.Shoot, game.Reload)
	sessionDone := make(chan gamemaster.Session, 1)
	go func() {
		session, _ := gamemaster.RunSession(ctx, gamemaster.Local(human, opponent), gamemaster.DrawReplays)
		human.EndSession()
		sessionDone <- session
	}()

	var out bytes.Buffer
	in := strings.NewReader("reload\nshoot\nreload\nblock\nshoot\n")
	state, err := RunConsole(ctx, New(srv.URL, srv.Client()), in, &out, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, 2, state.Match)
	require.True(t, state.SessionOver)
	require.Equal(t, "player1_wins", state.Outcome)

	session := <-sessionDone
	require.Equal(t, game.Player1Wins, session.Outcome)
	require.Len(t, session.Matches, 2)
	require.Contains(t, out.String(), "match 1 over: draw")
	require.Contains(t, out.String(), "match 2 over: player1_wins")
}
