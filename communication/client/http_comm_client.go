// Package client plays a served match from a terminal.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diamondburned/shotgun-ai/communication"
	"github.com/diamondburned/shotgun-ai/game"
)

type Client struct {
	serverURL string
	http      *http.Client
}

func New(serverURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		http:      httpClient,
	}
}

// RequestError is a non-2xx answer from the server.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *Client) State(ctx context.Context) (communication.State, error) {
	var state communication.State
	err := c.do(ctx, http.MethodGet, "/state", nil, &state)
	return state, err
}

func (c *Client) SendMove(ctx context.Context, move game.Move) (communication.State, error) {
	var state communication.State
	err := c.do(ctx, http.MethodPost, "/move", communication.MoveRequest{Move: move.String()}, &state)
	return state, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, r)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e communication.ErrorResponse
		json.NewDecoder(resp.Body).Decode(&e)
		return &RequestError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RunConsole polls the server and prompts on out for a move whenever one
// is awaited. Every finished match is announced; drawn matches that are
// replayed keep the loop going until the session is over.
func RunConsole(ctx context.Context, c *Client, in io.Reader, out io.Writer, poll time.Duration) (communication.State, error) {
	scanner := bufio.NewScanner(in)
	type prompt struct{ match, turn int }
	last := prompt{-1, -1}
	announced := 0
	for {
		state, err := c.State(ctx)
		if err != nil {
			return state, err
		}

		for ; announced < len(state.Results); announced++ {
			fmt.Fprintf(out, "match %d over: %s\n", announced+1, state.Results[announced])
		}
		if state.SessionOver {
			return state, nil
		}

		current := prompt{state.Match, state.Turn}
		if state.Outcome != "" || !state.Waiting || current == last {
			select {
			case <-ctx.Done():
				return state, ctx.Err()
			case <-time.After(poll):
			}
			continue
		}

		if state.LastOpponentMove != nil {
			fmt.Fprintf(out, "opponent played %s\n", *state.LastOpponentMove)
		}
		fmt.Fprintf(out, "match %d, turn %d, bullets %d, shields %d, knife %t\nmoves: %s\n> ",
			state.Match, state.Turn, state.Self.BulletsLoaded, state.Self.ShieldsRemaining, state.Self.KnifeOut, joinMoves(state.LegalMoves))

		if !scanner.Scan() {
			return state, io.ErrUnexpectedEOF
		}
		move, err := game.ParseMove(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if _, err := c.SendMove(ctx, move); err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		last = current
	}
}

func joinMoves(moves []game.Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}
