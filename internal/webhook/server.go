// internal/webhook/server.go
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/chatcal/internal/types"
)

// MessageHandler runs the pipeline for one inbound message.
type MessageHandler func(ctx context.Context, msg *types.Message) types.Outcome

// Server is the HTTP ingress for platform webhook callbacks. Every handled
// message is answered 200 regardless of outcome so the platform never
// retry-storms the endpoint; only a malformed payload is a client error.
type Server struct {
	handler MessageHandler
	mux     *http.ServeMux
}

// NewServer creates a webhook Server delivering messages to handler.
func NewServer(handler MessageHandler) *Server {
	s := &Server{
		handler: handler,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /webhook", s.handleMessage)
	return s
}

// ServeHTTP delegates to the internal mux, implementing http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// callbackPayload is the GroupMe message callback body. Unknown fields are
// ignored; the platform sends more than we read.
type callbackPayload struct {
	Text       string `json:"text"`
	SenderID   string `json:"sender_id"`
	SenderType string `json:"sender_type"`
	Name       string `json:"name"`
	GroupName  string `json:"group_name"`
	CreatedAt  int64  `json:"created_at"`
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var payload callbackPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if payload.SenderID == "" {
		http.Error(w, `{"error":"sender_id is required"}`, http.StatusBadRequest)
		return
	}

	receivedAt := time.Now()
	if payload.CreatedAt > 0 {
		receivedAt = time.Unix(payload.CreatedAt, 0)
	}

	msg := &types.Message{
		SenderID:   payload.SenderID,
		SenderType: types.SenderType(payload.SenderType),
		Name:       payload.Name,
		Text:       payload.Text,
		GroupName:  payload.GroupName,
		ReceivedAt: receivedAt,
	}

	outcome := s.handler(r.Context(), msg)
	if outcome.Status == types.StatusFailed {
		slog.Error("pipeline run failed", "stage", outcome.Stage, "error", outcome.Err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}
