package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/chatcal/internal/config"
	"github.com/user/chatcal/internal/extract"
	"github.com/user/chatcal/internal/gcal"
	"github.com/user/chatcal/internal/groupme"
	"github.com/user/chatcal/internal/guard"
	"github.com/user/chatcal/internal/journal"
	"github.com/user/chatcal/internal/pipeline"
	"github.com/user/chatcal/internal/resolve"
	"github.com/user/chatcal/internal/secrets"
	"github.com/user/chatcal/internal/telegram"
	"github.com/user/chatcal/internal/webhook"
	"github.com/user/chatcal/pkg/genai"
	"github.com/user/chatcal/pkg/genai/gemini"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatcal daemon",
	RunE:  runServe,
}

func writePIDFile(dataDir string) (string, error) {
	pidPath := filepath.Join(dataDir, "chatcal.pid")
	pid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write PID file: %w", err)
	}
	return pidPath, nil
}

// secretsStore selects the secret backend from config.
func secretsStore(cfg *config.Config) (secrets.Store, error) {
	switch cfg.Secrets.Source {
	case "file", "":
		return &secrets.FileStore{Path: cfg.Secrets.Path}, nil
	case "http":
		if cfg.Secrets.URL == "" {
			return nil, fmt.Errorf("secrets.url is required when secrets.source is http")
		}
		return secrets.NewHTTPStore(cfg.Secrets.URL, cfg.Secrets.Token), nil
	default:
		return nil, fmt.Errorf("unknown secrets source %q", cfg.Secrets.Source)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	dataDir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	pidPath, err := writePIDFile(dataDir)
	if err != nil {
		return err
	}
	defer os.Remove(pidPath)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Credentials: fetched once at startup and cached for the process
	// lifetime. A missing or malformed secret object fails fast here
	// rather than on the first inbound message.
	store, err := secretsStore(cfg)
	if err != nil {
		return err
	}
	credentials := secrets.NewProvider(store)
	creds, err := credentials.Load(ctx)
	if err != nil {
		return fmt.Errorf("load credentials: %w", err)
	}

	// Extraction
	provider := gemini.New(&genai.Config{
		BaseURL: cfg.Gemini.BaseURL,
		APIKey:  creds.AIAPIKey,
		Model:   cfg.Gemini.Model,
	})
	extractor, err := extract.New(provider, cfg.Gemini.MaxMessageTokens)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	resolver := resolve.New(loc, cfg.Events.DefaultTime,
		time.Duration(cfg.Events.DefaultDurationMinutes)*time.Minute)

	loopGuard := guard.New(
		guard.BotSender(),
		guard.SelfIdentity(cfg.GroupMe.BotID),
		guard.ConfirmationPattern(groupme.ConfirmationPrefix),
	)

	refresher := gcal.NewRefresher("")
	publisher := gcal.NewPublisher("", loc)

	var notifier pipeline.Notifier
	if cfg.GroupMe.PostConfirmation && cfg.GroupMe.BotID != "" {
		notifier = groupme.NewBot(cfg.GroupMe.BotID, "")
	}

	pipe := pipeline.New(loopGuard, extractor, resolver, credentials, refresher, publisher, notifier)
	pipe.SetRecorder(journal.NewStore(dataDir))

	slog.Info("chatcal started",
		"log_level", cfg.LogLevel,
		"timezone", cfg.Timezone,
		"listen", cfg.HTTP.Listen,
		"model", cfg.Gemini.Model,
		"calendar_id", creds.CalendarID,
		"pid_file", pidPath,
	)

	// Webhook HTTP server
	webhookSrv := webhook.NewServer(pipe.Run)
	httpServer := &http.Server{
		Addr:    cfg.HTTP.Listen,
		Handler: webhookSrv,
	}
	go func() {
		slog.Info("webhook server started", "listen", cfg.HTTP.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("webhook server error", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	// Telegram adapter
	if cfg.Telegram.Token != "" {
		adapter, err := telegram.New(cfg.Telegram.Token, pipe.Run)
		if err != nil {
			return fmt.Errorf("create telegram adapter: %w", err)
		}
		go adapter.Start(ctx)
		slog.Info("telegram adapter started")
	} else {
		slog.Info("telegram adapter disabled (no token)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for {
		sig := <-sigChan
		if sig == syscall.SIGHUP {
			slog.Info("received SIGHUP, restarting")
			execPath, err := os.Executable()
			if err != nil {
				slog.Error("failed to get executable path", "error", err)
				continue
			}
			// Clean up PID file before re-exec
			os.Remove(pidPath)
			if err := syscall.Exec(execPath, os.Args, os.Environ()); err != nil {
				slog.Error("failed to re-exec", "error", err)
				if _, writeErr := writePIDFile(dataDir); writeErr != nil {
					slog.Error("failed to re-write PID file", "error", writeErr)
				}
				continue
			}
		}
		// SIGINT or SIGTERM
		slog.Info("shutting down", "signal", sig)
		return nil
	}
}
