// Package server exposes a human player, and optionally an AI agent, over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/diamondburned/shotgun-ai/communication"
	"github.com/diamondburned/shotgun-ai/game"
	"github.com/diamondburned/shotgun-ai/player"
)

// Chooser picks a move for a remote match.
type Chooser interface {
	Choose(obs game.Observation, self game.ResourceState) (game.Move, error)
}

type Server struct {
	human *player.HumanPlayer
	agent Chooser
	mux   *http.ServeMux
}

type Option func(s *Server)

// WithHuman serves GET /state and POST /move for p.
func WithHuman(p *player.HumanPlayer) Option {
	return func(s *Server) {
		s.human = p
	}
}

// WithAgent serves POST /findmove using c.
func WithAgent(c Chooser) Option {
	return func(s *Server) {
		s.agent = c
	}
}

func New(opts ...Option) *Server {
	s := &Server{mux: http.NewServeMux()}
	for _, opt := range opts {
		opt(s)
	}
	s.mux.HandleFunc("GET /state", s.handleGetState)
	s.mux.HandleFunc("POST /move", s.handleMove)
	s.mux.HandleFunc("POST /findmove", s.handleFindMove)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	if s.human == nil {
		writeError(w, http.StatusNotFound, "no human player")
		return
	}
	writeJSON(w, http.StatusOK, stateOf(s.human.Snapshot()))
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	if s.human == nil {
		writeError(w, http.StatusNotFound, "no human player")
		return
	}

	var req communication.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request: "+err.Error())
		return
	}
	move, err := game.ParseMove(req.Move)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch err := s.human.Submit(move); {
	case errors.Is(err, player.ErrNotWaiting):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, player.ErrIllegalMove):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, stateOf(s.human.Snapshot()))
	}
}

func (s *Server) handleFindMove(w http.ResponseWriter, r *http.Request) {
	if s.agent == nil {
		writeError(w, http.StatusServiceUnavailable, "no agent")
		return
	}

	var req communication.FindMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request: "+err.Error())
		return
	}

	move, err := s.agent.Choose(req.Observation, req.Self)
	if err != nil {
		log.Error().Err(err).Msg("agent failed to choose a move")
		writeError(w, http.StatusInternalServerError, "failed to choose move: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, communication.FindMoveResponse{Move: move})
}

func stateOf(snap player.Snapshot) communication.State {
	state := communication.State{
		Match:            snap.Match,
		SessionOver:      snap.SessionOver,
		Self:             snap.Self,
		Opponent:         snap.Opponent,
		Turn:             snap.Turn,
		LastOpponentMove: snap.LastOpponentMove,
		LegalMoves:       snap.Self.LegalMoves(),
		Waiting:          snap.Waiting,
		Results:          make([]string, len(snap.Results)),
	}
	for i, o := range snap.Results {
		state.Results[i] = o.String()
	}
	if snap.Outcome.Terminal() {
		state.Outcome = snap.Outcome.String()
		state.LegalMoves = []game.Move{}
	}
	return state
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, communication.ErrorResponse{Error: msg})
}
