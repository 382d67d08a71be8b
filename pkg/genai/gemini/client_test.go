package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/user/chatcal/pkg/genai"
)

func TestGeminiClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Error("missing or invalid API key header")
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": `{"is_event": false}`},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(&genai.Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gemini-2.5-flash",
	})

	out, err := client.Generate(context.Background(), "analyze this")
	if err != nil {
		t.Fatal(err)
	}
	if out != `{"is_event": false}` {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestGeminiClientRequestFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type 'application/json', got %q", r.Header.Get("Content-Type"))
		}

		body, _ := io.ReadAll(r.Body)
		var reqBody map[string]any
		json.Unmarshal(body, &reqBody)

		contents, ok := reqBody["contents"].([]any)
		if !ok || len(contents) != 1 {
			t.Fatalf("expected one content entry, got %v", reqBody["contents"])
		}
		parts := contents[0].(map[string]any)["parts"].([]any)
		if parts[0].(map[string]any)["text"] != "the prompt" {
			t.Errorf("unexpected prompt text: %v", parts[0])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}},
			},
		})
	}))
	defer server.Close()

	client := New(&genai.Config{BaseURL: server.URL, APIKey: "k", Model: "gemini-2.5-flash"})
	if _, err := client.Generate(context.Background(), "the prompt"); err != nil {
		t.Fatal(err)
	}
}

func TestGeminiClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"empty candidates", http.StatusOK, `{"candidates":[]}`},
		{"malformed body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			client := New(&genai.Config{BaseURL: server.URL, APIKey: "k", Model: "m"})
			if _, err := client.Generate(context.Background(), "x"); err == nil {
				t.Error("expected error")
			}
		})
	}
}
