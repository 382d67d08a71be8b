// internal/types/types.go
package types

import (
	"time"

	"github.com/google/uuid"
)

// RunID identifies a single pipeline invocation for log correlation.
type RunID string

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// SenderType distinguishes human senders from bot accounts.
type SenderType string

const (
	SenderHuman SenderType = "user"
	SenderBot   SenderType = "bot"
)

// Message is one inbound chat message as delivered by the platform webhook.
// Constructed once per delivery and discarded when the pipeline completes.
type Message struct {
	SenderID   string     `json:"sender_id"`
	SenderType SenderType `json:"sender_type"`
	Name       string     `json:"name,omitempty"`
	Text       string     `json:"text"`
	GroupName  string     `json:"group_name,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
}

// Extraction is the structured output of the event-extraction contract.
// When IsEvent is false all other fields are empty. When IsEvent is true,
// Title and Date are required; Time and Location may be absent.
type Extraction struct {
	IsEvent     bool   `json:"is_event"`
	Title       string `json:"title,omitempty"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD or a weekday name
	Time        string `json:"time,omitempty"` // HH:MM, 24h
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
}

// ResolvedEvent is a fully resolved calendar event ready for publishing.
// Invariant: End is strictly after Start.
type ResolvedEvent struct {
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// Credentials is the secret object read from the secret store. AccessToken
// and its expiry live in the token refresher's cache, not here.
type Credentials struct {
	AIAPIKey     string `json:"ai_api_key"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	CalendarID   string `json:"calendar_id"`
}

// OutcomeStatus enumerates the terminal states of one pipeline run.
type OutcomeStatus string

const (
	StatusSkipped   OutcomeStatus = "skipped"
	StatusNoEvent   OutcomeStatus = "no_event"
	StatusScheduled OutcomeStatus = "scheduled"
	StatusFailed    OutcomeStatus = "failed"
)

// Outcome is the terminal result of one pipeline run. It is logged,
// returned to the ingress, and journaled when a recorder is wired.
type Outcome struct {
	Status  OutcomeStatus `json:"status"`
	Reason  string        `json:"reason,omitempty"`   // set for Skipped
	Stage   string        `json:"stage,omitempty"`    // set for Failed
	EventID string        `json:"event_id,omitempty"` // set for Scheduled
	Err     error         `json:"-"`
}

func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func NoEvent() Outcome {
	return Outcome{Status: StatusNoEvent}
}

func Scheduled(eventID string) Outcome {
	return Outcome{Status: StatusScheduled, EventID: eventID}
}

func Failed(stage string, err error) Outcome {
	return Outcome{Status: StatusFailed, Stage: stage, Err: err}
}
