// internal/secrets/provider.go
package secrets

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/user/chatcal/internal/types"
)

// Store fetches the raw secret object from a backing store.
type Store interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Provider reads and caches the credential object. The first successful
// load is kept for the remainder of the process lifetime; secrets do not
// rotate within a single process in this design.
type Provider struct {
	store Store

	mu     sync.Mutex
	cached *types.Credentials
}

// NewProvider creates a Provider backed by the given store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// secretObject is the on-store shape. The Google OAuth fields may appear
// flat or nested under "installed"/"web" as exported from the Google
// console; both are accepted.
type secretObject struct {
	AIAPIKey     string        `json:"ai_api_key"`
	ClientID     string        `json:"client_id"`
	ClientSecret string        `json:"client_secret"`
	RefreshToken string        `json:"refresh_token"`
	CalendarID   string        `json:"calendar_id"`
	Installed    *googleClient `json:"installed,omitempty"`
	Web          *googleClient `json:"web,omitempty"`
}

type googleClient struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// Load returns the cached credentials, fetching and validating them from
// the store on first use. Safe for concurrent callers.
func (p *Provider) Load(ctx context.Context) (*types.Credentials, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != nil {
		return p.cached, nil
	}

	data, err := p.store.Fetch(ctx)
	if err != nil {
		return nil, &types.SecretUnavailableError{Key: "secret object", Err: err}
	}

	var obj secretObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, &types.SecretUnavailableError{Key: "secret object", Err: err}
	}

	creds := &types.Credentials{
		AIAPIKey:     obj.AIAPIKey,
		ClientID:     obj.ClientID,
		ClientSecret: obj.ClientSecret,
		RefreshToken: obj.RefreshToken,
		CalendarID:   obj.CalendarID,
	}
	for _, nested := range []*googleClient{obj.Installed, obj.Web} {
		if nested == nil {
			continue
		}
		if creds.ClientID == "" {
			creds.ClientID = nested.ClientID
		}
		if creds.ClientSecret == "" {
			creds.ClientSecret = nested.ClientSecret
		}
		if creds.RefreshToken == "" {
			creds.RefreshToken = nested.RefreshToken
		}
	}

	for key, val := range map[string]string{
		"ai_api_key":    creds.AIAPIKey,
		"client_id":     creds.ClientID,
		"client_secret": creds.ClientSecret,
		"refresh_token": creds.RefreshToken,
		"calendar_id":   creds.CalendarID,
	} {
		if val == "" {
			return nil, &types.SecretUnavailableError{Key: key}
		}
	}

	p.cached = creds
	slog.Info("credentials loaded", "calendar_id", creds.CalendarID)
	return creds, nil
}
