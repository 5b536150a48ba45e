package bid

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/celiakwan/cw20-bid/auction"
	"github.com/celiakwan/cw20-bid/event"
)

// EventSource is the subset of the database's event trail the server exposes
// over HTTP.
type EventSource interface {
	// AllEvents returns all recorded events of the given type, in
	// chronological order. Use event.TypeAny to not filter by type.
	AllEvents(evtType event.Type) ([]event.Event, error)
}

// callRequest is the envelope of a state-changing HTTP call. The host layer
// supplies the caller identity and the current chain height, the engine never
// derives either itself.
type callRequest struct {
	Sender string          `json:"sender"`
	Height uint64          `json:"height"`
	Msg    json.RawMessage `json:"msg"`
}

// queryRequest is the envelope of a read-only HTTP call.
type queryRequest struct {
	Msg json.RawMessage `json:"msg"`
}

// errorReply is the body of every failed HTTP call.
type errorReply struct {
	Error string `json:"error"`
}

// eventReply is the wire shape of a single recorded event.
type eventReply struct {
	Type        uint8  `json:"type"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
}

// Server exposes the engine's message surface over HTTP.
type Server struct {
	engine *Engine
	events EventSource

	mux *http.ServeMux
}

// NewServer creates an HTTP handler serving the given engine's boundary. The
// event source may be nil, in which case the events endpoint reports an empty
// trail.
func NewServer(engine *Engine, events EventSource) *Server {
	s := &Server{
		engine: engine,
		events: events,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/instantiate", s.handleInstantiate)
	s.mux.HandleFunc("/v1/execute", s.handleExecute)
	s.mux.HandleFunc("/v1/query", s.handleQuery)
	s.mux.HandleFunc("/v1/events", s.handleEvents)
	return s
}

// ServeHTTP dispatches to the registered handlers.
//
// NOTE: This is part of the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleInstantiate(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !decodeCall(w, r, &req) {
		return
	}

	resp, err := s.engine.Instantiate(req.Sender, req.Height, req.Msg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if !decodeCall(w, r, &req) {
		return
	}

	resp, err := s.engine.Execute(
		r.Context(), req.Sender, req.Height, req.Msg,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeCall(w, r, &req) {
		return
	}

	resp, err := s.engine.Query(req.Msg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, resp)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	replies := make([]*eventReply, 0)
	if s.events != nil {
		events, err := s.events.AllEvents(event.TypeAny)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, evt := range events {
			replies = append(replies, &eventReply{
				Type: uint8(evt.Type()),
				Timestamp: evt.Timestamp().Format(
					time.RFC3339Nano,
				),
				Description: evt.String(),
			})
		}
	}

	writeJSON(w, replies)
}

// decodeCall parses the request envelope, writing the error reply itself if
// the body is malformed.
func decodeCall(w http.ResponseWriter, r *http.Request,
	target interface{}) bool {

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}

	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeReply(w, http.StatusBadRequest, &errorReply{
			Error: "unable to decode request: " + err.Error(),
		})
		return false
	}

	return true
}

// writeError maps an engine error to an HTTP status and writes the error
// reply.
func writeError(w http.ResponseWriter, err error) {
	log.Debugf("Request failed: %v", err)

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, auction.ErrBidNotFound):
		status = http.StatusNotFound

	case errors.Is(err, auction.ErrNotInitialized):
		status = http.StatusPreconditionFailed
	}

	writeReply(w, status, &errorReply{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, resp interface{}) {
	writeReply(w, http.StatusOK, resp)
}

func writeReply(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Errorf("Unable to write response: %v", err)
	}
}
