// internal/extract/extractor.go
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/chatcal/internal/types"
	"github.com/user/chatcal/pkg/genai"
)

// defaultMaxMessageTokens bounds how much of a message is forwarded to the
// inference backend. Chat messages are short; anything longer is pasted
// content and the schedulable part is at the front.
const defaultMaxMessageTokens = 1000

// Extractor turns free-form message text into a validated Extraction via
// a single inference call against the extraction contract.
type Extractor struct {
	provider  genai.Provider
	tokenizer *tiktoken.Tiktoken
	maxTokens int
}

// New creates an Extractor backed by the given provider. maxMessageTokens
// limits the message text embedded in the prompt; <= 0 uses the default.
func New(provider genai.Provider, maxMessageTokens int) (*Extractor, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("get tokenizer: %w", err)
	}
	if maxMessageTokens <= 0 {
		maxMessageTokens = defaultMaxMessageTokens
	}
	return &Extractor{
		provider:  provider,
		tokenizer: enc,
		maxTokens: maxMessageTokens,
	}, nil
}

// Extract runs the extraction contract for one message anchored at ref.
// Backend unavailability, malformed output, and schema violations all
// return an ExtractionError; a well-formed "is_event": false response is
// a successful no-event classification, not an error.
func (e *Extractor) Extract(ctx context.Context, text string, ref time.Time) (*types.Extraction, error) {
	prompt := buildPrompt(e.truncate(text), ref)

	raw, err := e.provider.Generate(ctx, prompt)
	if err != nil && isTransient(err) {
		// One bounded retry on transient network failure, nothing more;
		// per-message latency and cost stay bounded.
		slog.Warn("extraction call failed, retrying once", "error", err)
		raw, err = e.provider.Generate(ctx, prompt)
	}
	if err != nil {
		return nil, &types.ExtractionError{Reason: "backend call", Err: err}
	}

	return parseResponse(raw)
}

// truncate caps message text at the token budget.
func (e *Extractor) truncate(text string) string {
	tokens := e.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= e.maxTokens {
		return text
	}
	return e.tokenizer.Decode(tokens[:e.maxTokens])
}

// parseResponse normalizes and validates raw model output. Normalization
// (fences, wrapping prose) and strict schema validation are separate
// stages: the first tolerates formatting noise, the second does not.
func parseResponse(raw string) (*types.Extraction, error) {
	cleaned := stripWrapping(raw)
	if cleaned == "" {
		return nil, &types.ExtractionError{Reason: "empty response"}
	}

	var extraction types.Extraction
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return nil, &types.ExtractionError{Reason: "response is not a valid extraction object", Err: err}
	}

	if err := validate(&extraction); err != nil {
		return nil, err
	}
	return &extraction, nil
}

// stripWrapping removes markdown fences and any prose around the JSON
// object. The backend is told not to add either, but it sometimes does.
func stripWrapping(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// validate enforces the extraction invariants: an event needs a title and
// a date; a non-event carries no fields at all.
func validate(extraction *types.Extraction) error {
	if !extraction.IsEvent {
		return nil
	}
	if strings.TrimSpace(extraction.Title) == "" {
		return &types.ExtractionError{Reason: "event missing title"}
	}
	if strings.TrimSpace(extraction.Date) == "" {
		return &types.ExtractionError{Reason: "event missing date"}
	}
	return nil
}

// isTransient reports whether an error looks like a temporary network
// failure worth a single retry.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure")
}
