// Package communication holds the JSON messages exchanged between the
// engine, remote agents and remote human players.
package communication

import "github.com/diamondburned/shotgun-ai/game"

// State is what a remote human sees: their ledger, the opponent's, the
// turn count and whether a move is currently awaited. Match numbers the
// matches of the session from 1 and Results lists the outcomes of those
// already finished. SessionOver is set once no replay follows.
type State struct {
	Match            int                `json:"match"`
	Results          []string           `json:"results"`
	SessionOver      bool               `json:"sessionOver"`
	Self             game.ResourceState `json:"self"`
	Opponent         game.ResourceState `json:"opponent"`
	Turn             int                `json:"turn"`
	LastOpponentMove *game.Move         `json:"lastOpponentMove,omitempty"`
	LegalMoves       []game.Move        `json:"legalMoves"`
	Waiting          bool               `json:"waiting"`
	Outcome          string             `json:"outcome,omitempty"`
}

// MoveRequest submits a move by name.
type MoveRequest struct {
	Move string `json:"move"`
}

// FindMoveRequest asks a remote agent for a move.
type FindMoveRequest struct {
	Observation game.Observation   `json:"observation"`
	Self        game.ResourceState `json:"self"`
}

type FindMoveResponse struct {
	Move game.Move `json:"move"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
