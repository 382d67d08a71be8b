// internal/secrets/provider_test.go
package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/chatcal/internal/types"
)

const validSecret = `{
	"ai_api_key": "ai-key",
	"client_id": "cid",
	"client_secret": "csec",
	"refresh_token": "rtok",
	"calendar_id": "primary"
}`

type countingStore struct {
	data    []byte
	err     error
	fetches int
}

func (s *countingStore) Fetch(ctx context.Context) ([]byte, error) {
	s.fetches++
	return s.data, s.err
}

func TestLoadAndCache(t *testing.T) {
	store := &countingStore{data: []byte(validSecret)}
	p := NewProvider(store)

	creds, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AIAPIKey != "ai-key" || creds.CalendarID != "primary" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	// Second load must come from cache.
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.fetches != 1 {
		t.Errorf("expected 1 fetch, got %d", store.fetches)
	}
}

func TestLoadNestedGoogleFormat(t *testing.T) {
	nested := `{
		"ai_api_key": "ai-key",
		"refresh_token": "rtok",
		"calendar_id": "primary",
		"installed": {"client_id": "nested-cid", "client_secret": "nested-csec"}
	}`
	p := NewProvider(&countingStore{data: []byte(nested)})

	creds, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.ClientID != "nested-cid" || creds.ClientSecret != "nested-csec" {
		t.Errorf("expected nested fields merged, got %+v", creds)
	}
}

func TestLoadMissingField(t *testing.T) {
	incomplete := `{"ai_api_key": "ai-key", "client_id": "cid", "client_secret": "csec", "refresh_token": "rtok"}`
	p := NewProvider(&countingStore{data: []byte(incomplete)})

	_, err := p.Load(context.Background())
	if err == nil {
		t.Fatal("expected error for missing calendar_id")
	}
	var secErr *types.SecretUnavailableError
	if !errors.As(err, &secErr) {
		t.Fatalf("expected SecretUnavailableError, got %T", err)
	}
	if secErr.Key != "calendar_id" {
		t.Errorf("expected key calendar_id, got %q", secErr.Key)
	}
}

func TestLoadStoreFailureNotCached(t *testing.T) {
	store := &countingStore{err: errors.New("store unreachable")}
	p := NewProvider(store)

	if _, err := p.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	// A failed load must not poison the cache.
	store.err = nil
	store.data = []byte(validSecret)
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.fetches != 2 {
		t.Errorf("expected 2 fetches, got %d", store.fetches)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	if err := os.WriteFile(path, []byte(validSecret), 0600); err != nil {
		t.Fatal(err)
	}

	p := NewProvider(&FileStore{Path: path})
	creds, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.RefreshToken != "rtok" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestHTTPStore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer store-token" {
			t.Error("missing store auth header")
		}
		w.Write([]byte(validSecret))
	}))
	defer server.Close()

	p := NewProvider(NewHTTPStore(server.URL, "store-token"))
	creds, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.ClientID != "cid" {
		t.Errorf("unexpected credentials: %+v", creds)
	}
}

func TestHTTPStoreNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	p := NewProvider(NewHTTPStore(server.URL, ""))
	if _, err := p.Load(context.Background()); err == nil {
		t.Fatal("expected error for non-200 store response")
	}
}
