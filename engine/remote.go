package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diamondburned/shotgun-ai/communication"
	"github.com/diamondburned/shotgun-ai/game"
)

// RemotePlayer asks an agent served over HTTP for every move. The agent
// receives the observation at POST <url>/findmove.
type RemotePlayer struct {
	url    string
	client *http.Client

	self, opponent game.ResourceState
	turn           int
}

func NewRemotePlayer(url string, client *http.Client) *RemotePlayer {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemotePlayer{
		url:      strings.TrimSuffix(url, "/"),
		client:   client,
		self:     game.NewResourceState(),
		opponent: game.NewResourceState(),
	}
}

func (p *RemotePlayer) Update(self, opponent game.ResourceState, turn int, _ game.Move) {
	p.self, p.opponent, p.turn = self, opponent, turn
}

// Reset forgets the previous match's ledgers.
func (p *RemotePlayer) Reset() {
	p.self, p.opponent, p.turn = game.NewResourceState(), game.NewResourceState(), 0
}

func (p *RemotePlayer) Play(ctx context.Context) (game.Move, error) {
	body, err := json.Marshal(communication.FindMoveRequest{
		Observation: game.Observe(p.self, p.opponent, p.turn),
		Self:        p.self,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url+"/findmove", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach agent: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("agent returned status %d: %s", resp.StatusCode, bytes.TrimSpace(out))
	}

	var found communication.FindMoveResponse
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return 0, fmt.Errorf("failed to decode move: %w", err)
	}
	return found.Move, nil
}
