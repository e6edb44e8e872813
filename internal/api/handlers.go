package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fieldsignals/georange/core"
	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/model"
)

// Server exposes the range engine over a JSON HTTP API. The engine does
// not validate coordinates, and neither does the server beyond JSON
// shape: producers own validation.
type Server struct {
	engine *core.Engine
	log    logging.Logger
}

// NewServer wraps an engine with HTTP handlers.
func NewServer(engine *core.Engine, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{engine: engine, log: log}
}

type rosterResponse struct {
	RosterSize int `json:"roster_size"`
	InRange    int `json:"in_range"`
}

type distanceResponse struct {
	Status    string   `json:"status"` // ok | no_position | agent_not_found
	DistanceM *float64 `json:"distance_m,omitempty"`
}

type inRangeResponse struct {
	Agents []model.Agent `json:"agents"`
	Count  int           `json:"count"`
}

// handlePutPosition replaces the user position from a device fix.
func (s *Server) handlePutPosition(w http.ResponseWriter, r *http.Request) {
	var pos model.Position
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		s.logger(r).Debug(r.Context(), "rejected position payload", logging.Err(err))
		http.Error(w, "invalid position payload", http.StatusBadRequest)
		return
	}

	s.engine.UpdateUserPosition(pos)
	w.WriteHeader(http.StatusNoContent)
}

// handlePutAgents replaces the entire agent roster. Agents omitted from
// the payload are removed.
func (s *Server) handlePutAgents(w http.ResponseWriter, r *http.Request) {
	var agents []model.Agent
	if err := json.NewDecoder(r.Body).Decode(&agents); err != nil {
		s.logger(r).Debug(r.Context(), "rejected roster payload", logging.Err(err))
		http.Error(w, "invalid roster payload", http.StatusBadRequest)
		return
	}

	s.engine.UpdateAgentRoster(agents)
	writeJSON(w, http.StatusOK, rosterResponse{
		RosterSize: len(agents),
		InRange:    len(s.engine.InRange()),
	})
}

// handleDistance reports the latest computed distance for one agent,
// distinguishing "agent not in roster" from "no position yet" so display
// consumers can render the right placeholder.
func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	d, err := s.engine.DistanceToAgent(id)
	switch {
	case errors.Is(err, core.ErrAgentNotFound):
		writeJSON(w, http.StatusNotFound, distanceResponse{Status: "agent_not_found"})
	case errors.Is(err, core.ErrNoPosition):
		writeJSON(w, http.StatusOK, distanceResponse{Status: "no_position"})
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, distanceResponse{Status: "ok", DistanceM: &d})
	}
}

// handleInRange returns the current in-range snapshot in roster order.
func (s *Server) handleInRange(w http.ResponseWriter, r *http.Request) {
	set := s.engine.InRange()
	if set == nil {
		set = []model.Agent{}
	}
	writeJSON(w, http.StatusOK, inRangeResponse{Agents: set, Count: len(set)})
}

// logger prefers the per-request logger installed by the request-ID
// middleware, falling back to the server's own.
func (s *Server) logger(r *http.Request) logging.Logger {
	if l := logging.LoggerFromContext(r.Context()); l != nil {
		return l
	}
	return s.log
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
