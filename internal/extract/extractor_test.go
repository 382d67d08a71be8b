// internal/extract/extractor_test.go
package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/user/chatcal/internal/types"
)

// mockProvider returns canned responses and records prompts.
type mockProvider struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (m *mockProvider) Generate(ctx context.Context, prompt string) (string, error) {
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	var resp string
	if i < len(m.responses) {
		resp = m.responses[i]
	}
	return resp, err
}

func newExtractor(t *testing.T, mock *mockProvider) *Extractor {
	t.Helper()
	e, err := New(mock, 0)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

var ref = time.Date(2025, 11, 17, 12, 0, 0, 0, time.UTC)

func TestExtractEvent(t *testing.T) {
	mock := &mockProvider{responses: []string{
		`{"is_event": true, "title": "Club Meeting", "date": "2025-11-18", "time": "19:00", "location": "CUC 212"}`,
	}}
	e := newExtractor(t, mock)

	extraction, err := e.Extract(context.Background(), "Meeting Tuesday at 7 in CUC 212", ref)
	if err != nil {
		t.Fatal(err)
	}
	if !extraction.IsEvent {
		t.Fatal("expected an event")
	}
	if extraction.Title != "Club Meeting" || extraction.Date != "2025-11-18" {
		t.Errorf("unexpected extraction: %+v", extraction)
	}
	if extraction.Time != "19:00" || extraction.Location != "CUC 212" {
		t.Errorf("unexpected extraction: %+v", extraction)
	}
}

func TestExtractNoEvent(t *testing.T) {
	mock := &mockProvider{responses: []string{`{"is_event": false}`}}
	e := newExtractor(t, mock)

	extraction, err := e.Extract(context.Background(), "lol that was fun yesterday", ref)
	if err != nil {
		t.Fatal(err)
	}
	if extraction.IsEvent {
		t.Error("expected no event")
	}
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	responses := []string{
		"```json\n{\"is_event\": true, \"title\": \"Dinner\", \"date\": \"2025-11-20\"}\n```",
		"```\n{\"is_event\": false}\n```",
		"Here is the result:\n{\"is_event\": false}\nLet me know if you need anything else.",
	}
	for _, resp := range responses {
		mock := &mockProvider{responses: []string{resp}}
		e := newExtractor(t, mock)
		if _, err := e.Extract(context.Background(), "x", ref); err != nil {
			t.Errorf("response %q: unexpected error %v", resp, err)
		}
	}
}

func TestExtractMalformedResponseIsError(t *testing.T) {
	responses := []string{
		"I could not find an event in this message.",
		`{"is_event": "maybe"}`,
		`{"is_event": true}`,
		`{"is_event": true, "title": "Party"}`,
		`{"is_event": true, "date": "2025-11-20"}`,
		"",
	}
	for _, resp := range responses {
		mock := &mockProvider{responses: []string{resp}}
		e := newExtractor(t, mock)

		_, err := e.Extract(context.Background(), "x", ref)
		if err == nil {
			t.Errorf("response %q: expected ExtractionError, got nil", resp)
			continue
		}
		var extractErr *types.ExtractionError
		if !errors.As(err, &extractErr) {
			t.Errorf("response %q: expected ExtractionError, got %T", resp, err)
		}
	}
}

func TestExtractRetriesOnceOnTransientError(t *testing.T) {
	mock := &mockProvider{
		errs:      []error{errors.New("dial tcp: connection refused"), nil},
		responses: []string{"", `{"is_event": false}`},
	}
	e := newExtractor(t, mock)

	if _, err := e.Extract(context.Background(), "x", ref); err != nil {
		t.Fatal(err)
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 calls, got %d", mock.calls)
	}
}

func TestExtractNoRetryOnPermanentError(t *testing.T) {
	mock := &mockProvider{
		errs: []error{errors.New("API error (status 401): invalid key")},
	}
	e := newExtractor(t, mock)

	if _, err := e.Extract(context.Background(), "x", ref); err == nil {
		t.Fatal("expected error")
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}

func TestPromptContainsReferenceDate(t *testing.T) {
	mock := &mockProvider{responses: []string{`{"is_event": false}`}}
	e := newExtractor(t, mock)

	if _, err := e.Extract(context.Background(), "pizza friday", ref); err != nil {
		t.Fatal(err)
	}
	prompt := mock.prompts[0]
	if !strings.Contains(prompt, "2025-11-17") {
		t.Error("prompt missing reference date")
	}
	if !strings.Contains(prompt, "Monday") {
		t.Error("prompt missing reference weekday")
	}
	if !strings.Contains(prompt, "pizza friday") {
		t.Error("prompt missing message text")
	}
}

func TestTruncateLongMessage(t *testing.T) {
	mock := &mockProvider{responses: []string{`{"is_event": false}`}}
	e, err := New(mock, 10)
	if err != nil {
		t.Fatal(err)
	}

	long := strings.Repeat("word ", 500)
	if _, err := e.Extract(context.Background(), long, ref); err != nil {
		t.Fatal(err)
	}
	if len(mock.prompts[0]) >= len(long) {
		t.Error("expected long message to be truncated in prompt")
	}
}
