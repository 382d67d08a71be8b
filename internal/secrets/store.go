// internal/secrets/store.go
package secrets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// FileStore reads the secret object from a local file.
type FileStore struct {
	Path string
}

func (s *FileStore) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read secret file: %w", err)
	}
	return data, nil
}

// HTTPStore reads the secret object from an object-store URL, e.g. a
// pre-signed bucket object. The optional bearer token covers stores that
// require one.
type HTTPStore struct {
	URL    string
	Token  string
	client *http.Client
}

func NewHTTPStore(url, token string) *HTTPStore {
	return &HTTPStore{
		URL:    url,
		Token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *HTTPStore) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching secret object: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading secret object: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("secret store returned status %d", resp.StatusCode)
	}
	return body, nil
}
