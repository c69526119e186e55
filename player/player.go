// Package player implements the move sources a match can be played with.
package player

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/game"
)

var (
	// ErrNotWaiting is returned by Submit when no move is being asked for.
	ErrNotWaiting = errors.New("no move is awaited")
	// ErrIllegalMove is returned by Submit for moves the player cannot play.
	ErrIllegalMove = errors.New("illegal move")
)

// Snapshot is the latest view a player was given by the engine.
type Snapshot struct {
	Self             game.ResourceState
	Opponent         game.ResourceState
	Turn             int
	LastOpponentMove *game.Move
	Waiting          bool
	Outcome          game.Outcome
	Seat             int // set once the match is over
	// Match numbers the current match within its session, starting at 1.
	Match int
	// Results holds the outcomes of the session's finished matches.
	Results     []game.Outcome
	SessionOver bool
}

// Won reports whether the match ended with this player's win.
func (s Snapshot) Won() bool {
	return won(s.Outcome, s.Seat)
}

func won(outcome game.Outcome, seat int) bool {
	return (outcome == game.Player1Wins && seat == 1) || (outcome == game.Player2Wins && seat == 2)
}

func lost(outcome game.Outcome, seat int) bool {
	return (outcome == game.Player1Wins && seat == 2) || (outcome == game.Player2Wins && seat == 1)
}

// HumanPlayer waits for moves submitted from elsewhere, such as an HTTP
// handler. It is safe for concurrent use.
type HumanPlayer struct {
	mu    sync.Mutex
	snap  Snapshot
	moves chan game.Move
}

var (
	_ engine.Player   = (*HumanPlayer)(nil)
	_ engine.Finisher = (*HumanPlayer)(nil)
)

func NewHumanPlayer() *HumanPlayer {
	return &HumanPlayer{
		snap: Snapshot{
			Self:     game.NewResourceState(),
			Opponent: game.NewResourceState(),
			Match:    1,
		},
		moves: make(chan game.Move, 1),
	}
}

// Play blocks until a move is submitted or ctx is done.
func (p *HumanPlayer) Play(ctx context.Context) (game.Move, error) {
	p.mu.Lock()
	p.snap.Waiting = true
	p.mu.Unlock()

	select {
	case move := <-p.moves:
		return move, nil
	case <-ctx.Done():
		p.mu.Lock()
		p.snap.Waiting = false
		select {
		case <-p.moves:
		default:
		}
		p.mu.Unlock()
		return 0, ctx.Err()
	}
}

// Submit hands move to a pending Play call.
func (p *HumanPlayer) Submit(move game.Move) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.snap.Waiting {
		return ErrNotWaiting
	}
	if !p.snap.Self.IsLegal(move) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, move)
	}
	p.snap.Waiting = false
	p.moves <- move
	return nil
}

func (p *HumanPlayer) Update(self, opponent game.ResourceState, turn int, lastOpponentMove game.Move) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.Self = self
	p.snap.Opponent = opponent
	p.snap.Turn = turn
	p.snap.LastOpponentMove = &lastOpponentMove
}

func (p *HumanPlayer) Finish(outcome game.Outcome, seat int, last engine.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	opponentMove := last.Moves[2-seat]
	p.snap.Self = last.After[seat-1]
	p.snap.Opponent = last.After[2-seat]
	p.snap.LastOpponentMove = &opponentMove
	p.snap.Outcome = outcome
	p.snap.Seat = seat
	p.snap.Waiting = false
	p.snap.Results = append(p.snap.Results, outcome)
}

// Snapshot returns the latest state the player was shown.
func (p *HumanPlayer) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := p.snap
	snap.Results = slices.Clone(p.snap.Results)
	return snap
}

// ConsolePlayer reads move names line by line, prompting on out. Unknown
// or illegal moves are reported and asked for again.
type ConsolePlayer struct {
	name           string
	in             *bufio.Scanner
	out            io.Writer
	self, opponent game.ResourceState
	turn           int
}

var _ engine.Player = (*ConsolePlayer)(nil)

func NewConsolePlayer(name string, in io.Reader, out io.Writer) *ConsolePlayer {
	return &ConsolePlayer{
		name:     name,
		in:       bufio.NewScanner(in),
		out:      out,
		self:     game.NewResourceState(),
		opponent: game.NewResourceState(),
	}
}

// Play cannot interrupt a pending read; ctx is checked between prompts.
func (p *ConsolePlayer) Play(ctx context.Context) (game.Move, error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fmt.Fprintf(p.out, "%s (turn %d) %s vs %s\nmoves: %s\n> ",
			p.name, p.turn, formatState(p.self), formatState(p.opponent), formatMoves(p.self.LegalMoves()))

		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, fmt.Errorf("failed to read move: %w", err)
			}
			return 0, io.ErrUnexpectedEOF
		}

		move, err := game.ParseMove(strings.TrimSpace(p.in.Text()))
		if err != nil {
			fmt.Fprintln(p.out, err)
			continue
		}
		if !p.self.IsLegal(move) {
			fmt.Fprintf(p.out, "cannot %s now\n", move)
			continue
		}
		return move, nil
	}
}

func (p *ConsolePlayer) Update(self, opponent game.ResourceState, turn int, lastOpponentMove game.Move) {
	p.self, p.opponent, p.turn = self, opponent, turn
	fmt.Fprintf(p.out, "opponent played %s\n", lastOpponentMove)
}

func (p *ConsolePlayer) Finish(outcome game.Outcome, seat int, last engine.Turn) {
	switch {
	case won(outcome, seat):
		fmt.Fprintf(p.out, "opponent played %s, you win\n", last.Moves[2-seat])
	case lost(outcome, seat):
		fmt.Fprintf(p.out, "opponent played %s, you lose\n", last.Moves[2-seat])
	default:
		fmt.Fprintf(p.out, "match over: %s\n", outcome)
	}
}

func formatState(s game.ResourceState) string {
	return fmt.Sprintf("[bullets %d, shields %d, knife %t]", s.BulletsLoaded, s.ShieldsRemaining, s.KnifeOut)
}

func formatMoves(moves []game.Move) string {
	names := make([]string, len(moves))
	for i, m := range moves {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

// Reset prepares the player for a new match. A match following EndSession
// starts a new session.
func (p *HumanPlayer) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := Snapshot{
		Self:     game.NewResourceState(),
		Opponent: game.NewResourceState(),
		Match:    1,
	}
	if !p.snap.SessionOver {
		next.Match = p.snap.Match + 1
		next.Results = p.snap.Results
	}
	p.snap = next
	select {
	case <-p.moves:
	default:
	}
}

// EndSession marks the last finished match as the end of its session, so
// remote viewers stop waiting for a replay.
func (p *HumanPlayer) EndSession() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snap.SessionOver = true
}

// Reset prepares the player for a new match.
func (p *ConsolePlayer) Reset() {
	p.self, p.opponent, p.turn = game.NewResourceState(), game.NewResourceState(), 0
}
