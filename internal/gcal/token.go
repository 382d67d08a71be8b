// internal/gcal/token.go
package gcal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/user/chatcal/internal/types"
)

// DefaultTokenURL is Google's OAuth2 token endpoint.
const DefaultTokenURL = "https://oauth2.googleapis.com/token"

// expiryMargin is how close to expiry a cached access token may get before
// it is refreshed.
const expiryMargin = 60 * time.Second

// Refresher exchanges the long-lived refresh token for short-lived access
// tokens and caches the result process-wide. Concurrent refreshes near
// expiry are collapsed into one exchange via singleflight.
type Refresher struct {
	tokenURL string
	client   *http.Client
	group    singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewRefresher creates a Refresher against the given token endpoint.
// An empty tokenURL uses DefaultTokenURL.
func NewRefresher(tokenURL string) *Refresher {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	return &Refresher{
		tokenURL: tokenURL,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// AccessToken returns a valid access token, refreshing it when the cached
// one is missing or within the expiry margin.
func (r *Refresher) AccessToken(ctx context.Context, creds *types.Credentials) (string, error) {
	r.mu.Lock()
	if r.token != "" && time.Now().Before(r.expiry.Add(-expiryMargin)) {
		token := r.token
		r.mu.Unlock()
		return token, nil
	}
	r.mu.Unlock()

	token, err, _ := r.group.Do("refresh", func() (any, error) {
		return r.refresh(ctx, creds)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// tokenResponse is the token endpoint's success body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// refresh performs the refresh-token grant and updates the cache.
func (r *Refresher) refresh(ctx context.Context, creds *types.Credentials) (string, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {creds.RefreshToken},
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &types.AuthRefreshError{Reason: "creating request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", &types.AuthRefreshError{Reason: "token endpoint unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &types.AuthRefreshError{Reason: "reading response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &types.AuthRefreshError{StatusCode: resp.StatusCode, Reason: string(body)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &types.AuthRefreshError{Reason: "malformed token response", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &types.AuthRefreshError{Reason: "token response missing access_token"}
	}

	r.mu.Lock()
	r.token = tok.AccessToken
	r.expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	r.mu.Unlock()

	slog.Info("access token refreshed", "expires_in", tok.ExpiresIn)
	return tok.AccessToken, nil
}
