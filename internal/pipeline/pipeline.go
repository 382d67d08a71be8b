// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/user/chatcal/internal/guard"
	"github.com/user/chatcal/internal/types"
)

// Extractor runs the extraction contract for one message.
type Extractor interface {
	Extract(ctx context.Context, text string, ref time.Time) (*types.Extraction, error)
}

// Resolver turns an extraction into an absolute-time event.
type Resolver interface {
	Resolve(extraction *types.Extraction, ref time.Time) (*types.ResolvedEvent, error)
}

// CredentialSource loads the (cached) credential object.
type CredentialSource interface {
	Load(ctx context.Context) (*types.Credentials, error)
}

// TokenSource returns a valid calendar access token.
type TokenSource interface {
	AccessToken(ctx context.Context, creds *types.Credentials) (string, error)
}

// Publisher creates the event on the calendar backend.
type Publisher interface {
	Publish(ctx context.Context, event *types.ResolvedEvent, calendarID, accessToken string) (string, error)
}

// Notifier posts a confirmation back to the chat. Best-effort: a notify
// failure never fails the run.
type Notifier interface {
	Notify(ctx context.Context, event *types.ResolvedEvent, eventID string) error
}

// Recorder journals one run's outcome. Best-effort: a record failure is
// logged, never returned.
type Recorder interface {
	Record(ctx context.Context, runID types.RunID, msg *types.Message, outcome types.Outcome) error
}

// Pipeline sequences one inbound message through guard, extraction,
// resolution, credential refresh, and publishing. It is stateless across
// invocations except for the caches its collaborators hold and the
// duplicate-delivery window.
type Pipeline struct {
	guard     *guard.Guard
	extractor Extractor
	resolver  Resolver
	creds     CredentialSource
	tokens    TokenSource
	publisher Publisher
	notifier  Notifier
	recorder  Recorder
	dedupe    *dedupe
	now       func() time.Time
}

// New wires a Pipeline. notifier may be nil when confirmation posting is
// disabled.
func New(g *guard.Guard, extractor Extractor, resolver Resolver, creds CredentialSource, tokens TokenSource, publisher Publisher, notifier Notifier) *Pipeline {
	return &Pipeline{
		guard:     g,
		extractor: extractor,
		resolver:  resolver,
		creds:     creds,
		tokens:    tokens,
		publisher: publisher,
		notifier:  notifier,
		dedupe:    newDedupe(defaultDedupeWindow),
		now:       time.Now,
	}
}

// SetRecorder attaches an outcome journal. Nil disables journaling.
func (p *Pipeline) SetRecorder(r Recorder) {
	p.recorder = r
}

// Run processes one message to a terminal Outcome. Stage errors short-
// circuit; no partial event is ever published.
func (p *Pipeline) Run(ctx context.Context, msg *types.Message) types.Outcome {
	runID := types.NewRunID()
	log := slog.With("run_id", runID, "sender_id", msg.SenderID)

	ref := msg.ReceivedAt
	if ref.IsZero() {
		ref = p.now()
	}

	if process, reason := p.guard.Classify(msg); !process {
		log.Info("message skipped", "reason", reason)
		return p.finish(ctx, runID, msg, types.Skipped(reason))
	}

	if p.dedupe.seenRecently(msg, p.now()) {
		log.Info("message skipped", "reason", "duplicate delivery")
		return p.finish(ctx, runID, msg, types.Skipped("duplicate delivery"))
	}

	extraction, err := p.extractor.Extract(ctx, msg.Text, ref)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return p.finish(ctx, runID, msg, types.Failed("extract", err))
	}
	if !extraction.IsEvent {
		log.Info("no event detected")
		return p.finish(ctx, runID, msg, types.NoEvent())
	}
	log.Info("event detected", "title", extraction.Title, "date", extraction.Date, "time", extraction.Time)

	event, err := p.resolver.Resolve(extraction, ref)
	if err != nil {
		log.Error("date resolution failed", "error", err)
		return p.finish(ctx, runID, msg, types.Failed("resolve", err))
	}
	if msg.GroupName != "" {
		event.Description = describeGroup(msg.GroupName, event.Description)
	}

	creds, err := p.creds.Load(ctx)
	if err != nil {
		log.Error("credential load failed", "error", err)
		return p.finish(ctx, runID, msg, types.Failed("credentials", err))
	}

	token, err := p.tokens.AccessToken(ctx, creds)
	if err != nil {
		log.Error("token refresh failed", "error", err)
		return p.finish(ctx, runID, msg, types.Failed("token_refresh", err))
	}

	eventID, err := p.publisher.Publish(ctx, event, creds.CalendarID, token)
	if err != nil {
		log.Error("publish failed", "error", err)
		return p.finish(ctx, runID, msg, types.Failed("publish", err))
	}
	log.Info("event scheduled", "event_id", eventID, "start", event.Start)

	if p.notifier != nil {
		if err := p.notifier.Notify(ctx, event, eventID); err != nil {
			log.Warn("confirmation post failed", "error", err)
		}
	}

	return p.finish(ctx, runID, msg, types.Scheduled(eventID))
}

// describeGroup prefixes the event description with the chat group it came
// from, matching what the calendar entry readers expect.
func describeGroup(group, detail string) string {
	if detail == "" {
		return "Group: " + group
	}
	return "Group: " + group + "\nDetails: " + detail
}

// finish journals the outcome before handing it back to the ingress.
func (p *Pipeline) finish(ctx context.Context, runID types.RunID, msg *types.Message, outcome types.Outcome) types.Outcome {
	if p.recorder != nil {
		if err := p.recorder.Record(ctx, runID, msg, outcome); err != nil {
			slog.Warn("outcome journal write failed", "run_id", runID, "error", err)
		}
	}
	return outcome
}
