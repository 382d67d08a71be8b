package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chatcal/internal/extract"
	"github.com/user/chatcal/internal/resolve"
	"github.com/user/chatcal/internal/secrets"
	"github.com/user/chatcal/pkg/genai"
	"github.com/user/chatcal/pkg/genai/gemini"
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("ref", "", "reference time, RFC 3339 (defaults to now)")
}

var extractCmd = &cobra.Command{
	Use:   "extract <message text>",
	Short: "Run extraction on one message and print the result",
	Long: `Sends a single message through event extraction and date resolution
without touching the calendar. Useful for tuning the prompt or checking
how a phrasing resolves.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	text := strings.Join(args, " ")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	ref := time.Now().In(loc)
	if refStr, _ := cmd.Flags().GetString("ref"); refStr != "" {
		parsed, err := time.Parse(time.RFC3339, refStr)
		if err != nil {
			return fmt.Errorf("parse --ref: %w", err)
		}
		ref = parsed.In(loc)
	}

	store, err := secretsStore(cfg)
	if err != nil {
		return err
	}
	creds, err := secrets.NewProvider(store).Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	provider := gemini.New(&genai.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  creds.AIAPIKey,
		Model:   cfg.Gemini.Model,
	})
	extractor, err := extract.New(provider, cfg.Gemini.MaxMessageTokens)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	extraction, err := extractor.Extract(cmd.Context(), text, ref)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	out := map[string]any{"extraction": extraction}
	if extraction.IsEvent {
		resolver := resolve.New(loc, cfg.Events.DefaultTime,
			time.Duration(cfg.Events.DefaultDurationMinutes)*time.Minute)
		event, err := resolver.Resolve(extraction, ref)
		if err != nil {
			out["resolve_error"] = err.Error()
		} else {
			out["resolved"] = map[string]any{
				"title":    event.Title,
				"start":    event.Start.Format(time.RFC3339),
				"end":      event.End.Format(time.RFC3339),
				"location": event.Location,
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
