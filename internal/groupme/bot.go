// internal/groupme/bot.go
package groupme

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/chatcal/internal/types"
)

// DefaultPostURL is the GroupMe bot post endpoint.
const DefaultPostURL = "https://api.groupme.com/v3/bots/post"

// ConfirmationPrefix starts every confirmation the bot posts back to chat.
// The loop guard matches on it, so changing it without updating configured
// guards would re-process our own confirmations.
const ConfirmationPrefix = "📅 Added to calendar:"

// Bot posts messages to a GroupMe group through the bot API.
type Bot struct {
	botID   string
	postURL string
	client  *http.Client
}

// NewBot creates a Bot for the given bot identity. An empty postURL uses
// the public endpoint.
func NewBot(botID, postURL string) *Bot {
	if postURL == "" {
		postURL = DefaultPostURL
	}
	return &Bot{
		botID:   botID,
		postURL: postURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts a scheduling confirmation for the event back to the chat.
func (b *Bot) Notify(ctx context.Context, event *types.ResolvedEvent, eventID string) error {
	text := fmt.Sprintf("%s %s on %s", ConfirmationPrefix, event.Title, event.Start.Format("Mon Jan 2 at 3:04 PM"))
	if event.Location != "" {
		text += " (" + event.Location + ")"
	}
	return b.post(ctx, text)
}

func (b *Bot) post(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"bot_id": b.botID,
		"text":   text,
	})
	if err != nil {
		return fmt.Errorf("marshaling post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.postURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to chat: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("bot post returned status %d", resp.StatusCode)
	}
	return nil
}
