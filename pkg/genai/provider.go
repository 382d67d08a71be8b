package genai

import "context"

// Provider defines the interface for generative-language backends.
// Implementations handle protocol-specific details such as request
// formatting, authentication, and response parsing. The pipeline only
// needs a single-shot text-in, text-out capability.
type Provider interface {
	// Generate sends a single prompt and returns the model's raw text output.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds common configuration for generative-language providers.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}
