// Package server exposes a memory manager over a websocket.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/becomeliminal/holomem-go/memory"
)

// Message types.
const (
	MsgRecord   = "record"
	MsgRecorded = "recorded"
	MsgRecall   = "recall"
	MsgRecalled = "recalled"
	MsgForget   = "forget"
	MsgForgot   = "forgot"
	MsgList     = "list"
	MsgListed   = "listed"
	MsgPing     = "ping"
	MsgPong     = "pong"
	MsgError    = "error"
)

// Manager is the part of memory.SimpleManager the server drives.
type Manager interface {
	Record(ctx context.Context, values [][]float64) (*memory.Trace, error)
	Retrieve(ctx context.Context, traceID string, index int) (*memory.Recollection, error)
	Forget(ctx context.Context, traceID string) error
	List(ctx context.Context) ([]string, error)
}

// Request is a client message.
type Request struct {
	Type    string      `json:"type"`
	Values  [][]float64 `json:"values,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
	Index   int         `json:"index,omitempty"`
}

// Response is a server message.
type Response struct {
	Type     string         `json:"type"`
	TraceID  string         `json:"trace_id,omitempty"`
	Count    int            `json:"count,omitempty"`
	Index    int            `json:"index,omitempty"`
	Value    []float64      `json:"value,omitempty"`
	Match    *MatchResponse `json:"match,omitempty"`
	TraceIDs []string       `json:"trace_ids,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// MatchResponse is the cleanup hit attached to a recall.
type MatchResponse struct {
	Index      int     `json:"index"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
}

// Config configures the server.
type Config struct {
	Manager Manager

	// ReadLimit caps the size of one client message in bytes.
	// Default: 16 MiB
	ReadLimit int64
}

// Server serves /ws, /health and /schema.
type Server struct {
	manager   Manager
	readLimit int64
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
}

// New creates a server.
func New(cfg Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, errors.New("server: manager is required")
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 16 << 20
	}

	s := &Server{
		manager:   cfg.Manager,
		readLimit: cfg.ReadLimit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 << 10,
			WriteBufferSize: 64 << 10,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		mux: http.NewServeMux(),
	}
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/schema", s.handleSchema)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Run listens on addr until the listener fails.
func (s *Server) Run(addr string) error {
	log.Printf("[SERVER] Listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	if err := json.NewEncoder(w).Encode(RequestSchema()); err != nil {
		log.Printf("[SERVER] Failed to write schema: %v", err)
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[SERVER] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.readLimit)

	log.Printf("[SERVER] Client connected: %s", r.RemoteAddr)
	ctx := r.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[SERVER] Read failed: %v", err)
			}
			return
		}

		var req Request
		var resp *Response
		if err := json.Unmarshal(data, &req); err != nil {
			resp = errorResponse(fmt.Errorf("decode request: %w", err))
		} else {
			resp = s.dispatch(ctx, &req)
		}

		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[SERVER] Write failed: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Type {
	case MsgRecord:
		trace, err := s.manager.Record(ctx, req.Values)
		if err != nil {
			return errorResponse(err)
		}
		return &Response{Type: MsgRecorded, TraceID: trace.ID(), Count: trace.Len()}

	case MsgRecall:
		rec, err := s.manager.Retrieve(ctx, req.TraceID, req.Index)
		if err != nil {
			return errorResponse(err)
		}
		resp := &Response{Type: MsgRecalled, TraceID: rec.TraceID, Index: rec.Index, Value: rec.Value}
		if rec.Match != nil {
			resp.Match = &MatchResponse{
				Index:      rec.Match.Index,
				Label:      rec.Match.Label,
				Similarity: rec.Match.Similarity,
			}
		}
		return resp

	case MsgForget:
		if err := s.manager.Forget(ctx, req.TraceID); err != nil {
			return errorResponse(err)
		}
		return &Response{Type: MsgForgot, TraceID: req.TraceID}

	case MsgList:
		ids, err := s.manager.List(ctx)
		if err != nil {
			return errorResponse(err)
		}
		return &Response{Type: MsgListed, TraceIDs: ids, Count: len(ids)}

	case MsgPing:
		return &Response{Type: MsgPong}
	}
	return errorResponse(fmt.Errorf("unknown message type %q", req.Type))
}

func errorResponse(err error) *Response {
	return &Response{Type: MsgError, Message: err.Error()}
}
