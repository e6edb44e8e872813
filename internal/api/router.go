package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fieldsignals/georange/internal/logging"
	"github.com/fieldsignals/georange/internal/observability"
)

// NewRouter wires the API routes and middleware. The hub and collector
// are optional; passing nil skips the stream endpoint or the request
// metrics respectively.
func NewRouter(s *Server, hub *Hub, collector *observability.EngineCollector, log logging.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware(log))
	if collector != nil {
		r.Use(collector.Middleware)
	}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/position", s.handlePutPosition).Methods(http.MethodPut)
	r.HandleFunc("/v1/agents", s.handlePutAgents).Methods(http.MethodPut)
	r.HandleFunc("/v1/agents/{id}/distance", s.handleDistance).Methods(http.MethodGet)
	r.HandleFunc("/v1/inrange", s.handleInRange).Methods(http.MethodGet)

	if hub != nil {
		r.HandleFunc("/v1/stream", hub.HandleStream).Methods(http.MethodGet)
	}

	return r
}
