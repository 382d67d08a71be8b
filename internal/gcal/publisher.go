// internal/gcal/publisher.go
package gcal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/user/chatcal/internal/types"
)

// Publisher creates events on a Google Calendar. No idempotency key is
// sent; a redelivered webhook can create a duplicate event, which the
// pipeline's dedupe window mitigates but does not eliminate.
type Publisher struct {
	endpoint string
	loc      *time.Location
}

// NewPublisher creates a Publisher. endpoint overrides the Calendar API
// base URL (used by tests); empty means the real service. Events are sent
// with loc as their wall-clock timezone.
func NewPublisher(endpoint string, loc *time.Location) *Publisher {
	return &Publisher{endpoint: endpoint, loc: loc}
}

// Publish creates the event on the given calendar and returns the backend
// event ID.
func (p *Publisher) Publish(ctx context.Context, event *types.ResolvedEvent, calendarID, accessToken string) (string, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return "", &types.PublishError{Message: fmt.Sprintf("creating calendar service: %v", err), Err: err}
	}

	body := &calendar.Event{
		Summary:     event.Title,
		Location:    event.Location,
		Description: event.Description,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.In(p.loc).Format(time.RFC3339),
			TimeZone: p.loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.In(p.loc).Format(time.RFC3339),
			TimeZone: p.loc.String(),
		},
	}

	created, err := svc.Events.Insert(calendarID, body).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &types.PublishError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
		}
		return "", &types.PublishError{Message: err.Error(), Err: err}
	}

	slog.Info("event published", "event_id", created.Id, "link", created.HtmlLink)
	return created.Id, nil
}
