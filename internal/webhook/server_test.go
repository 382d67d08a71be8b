// internal/webhook/server_test.go
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/chatcal/internal/types"
)

type mockHandler struct {
	outcome types.Outcome
	lastMsg *types.Message
	handled int
}

func (m *mockHandler) handle(ctx context.Context, msg *types.Message) types.Outcome {
	m.handled++
	m.lastMsg = msg
	return m.outcome
}

func TestHealthEndpoint(t *testing.T) {
	mock := &mockHandler{outcome: types.NoEvent()}
	srv := NewServer(mock.handle)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("expected status ok, got %s", resp["status"])
	}
}

func TestWebhookDeliversMessage(t *testing.T) {
	mock := &mockHandler{outcome: types.Scheduled("evt-1")}
	srv := NewServer(mock.handle)

	body := `{
		"text": "Meeting Tuesday at 7 in CUC 212",
		"sender_id": "u1",
		"sender_type": "user",
		"name": "Sam",
		"group_name": "CS Club",
		"created_at": 1763400000
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if mock.lastMsg.SenderID != "u1" || mock.lastMsg.SenderType != types.SenderHuman {
		t.Errorf("unexpected message: %+v", mock.lastMsg)
	}
	if mock.lastMsg.GroupName != "CS Club" {
		t.Errorf("expected group name, got %q", mock.lastMsg.GroupName)
	}
	if mock.lastMsg.ReceivedAt.Unix() != 1763400000 {
		t.Errorf("expected received_at from created_at, got %v", mock.lastMsg.ReceivedAt)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "scheduled" || resp["event_id"] != "evt-1" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestWebhookFailureStillAcknowledged(t *testing.T) {
	mock := &mockHandler{outcome: types.Failed("extract", errors.New("backend down"))}
	srv := NewServer(mock.handle)

	body := `{"text": "x", "sender_id": "u1", "sender_type": "user"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	// Failures are acknowledged with 200 so the platform does not retry.
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for a handled failure, got %d", w.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "failed" || resp["stage"] != "extract" {
		t.Errorf("unexpected response: %v", resp)
	}
}

func TestWebhookSkippedBotMessage(t *testing.T) {
	mock := &mockHandler{outcome: types.Skipped("bot sender")}
	srv := NewServer(mock.handle)

	body := `{"text": "I created an event", "sender_id": "b1", "sender_type": "bot"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if mock.lastMsg.SenderType != types.SenderBot {
		t.Errorf("expected bot sender type, got %q", mock.lastMsg.SenderType)
	}
}

func TestWebhookMalformedPayload(t *testing.T) {
	mock := &mockHandler{outcome: types.NoEvent()}
	srv := NewServer(mock.handle)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if mock.handled != 0 {
		t.Error("handler must not run for malformed payloads")
	}
}

func TestWebhookMissingSender(t *testing.T) {
	mock := &mockHandler{outcome: types.NoEvent()}
	srv := NewServer(mock.handle)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"text": "hi"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
