// internal/resolve/resolver.go
package resolve

import (
	"strings"
	"time"

	"github.com/user/chatcal/internal/types"
)

// Horizon limits how far a resolved date may sit from the reference time.
// Anything beyond it is treated as a misparse rather than a real event.
const Horizon = 2 * 365 * 24 * time.Hour

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Resolver turns extraction date/time strings into absolute timestamps.
// It exists separately from the extractor because calendar arithmetic
// (weekday resolution, rollover, default-time policy) is testable without
// any language model involved.
type Resolver struct {
	loc             *time.Location
	defaultTime     string
	defaultDuration time.Duration
}

// New creates a Resolver for the given timezone. defaultTime (HH:MM) is
// used when an extraction carries no time; defaultDuration fills in the
// event end when no duration signal exists.
func New(loc *time.Location, defaultTime string, defaultDuration time.Duration) *Resolver {
	if defaultTime == "" {
		defaultTime = "18:00"
	}
	if defaultDuration <= 0 {
		defaultDuration = time.Hour
	}
	return &Resolver{
		loc:             loc,
		defaultTime:     defaultTime,
		defaultDuration: defaultDuration,
	}
}

// Resolve combines an extraction's date and time into a ResolvedEvent
// anchored at ref. The extraction must have IsEvent set with a non-empty
// Date; the extractor guarantees this before calling.
func (r *Resolver) Resolve(extraction *types.Extraction, ref time.Time) (*types.ResolvedEvent, error) {
	clock := extraction.Time
	if clock == "" {
		clock = r.defaultTime
	}
	tod, err := time.Parse("15:04", clock)
	if err != nil {
		return nil, &types.DateResolutionError{Input: extraction.Time, Reason: "time is not HH:MM"}
	}

	day, fromWeekday, err := r.resolveDay(extraction.Date, ref)
	if err != nil {
		return nil, err
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), tod.Hour(), tod.Minute(), 0, 0, r.loc)
	if fromWeekday && start.Before(ref) {
		// Same weekday as ref but the time already passed; take next week's.
		start = start.AddDate(0, 0, 7)
	}

	if d := start.Sub(ref); d > Horizon || d < -Horizon {
		return nil, &types.DateResolutionError{Input: extraction.Date, Reason: "resolved date is implausibly far from now"}
	}

	return &types.ResolvedEvent{
		Title:       extraction.Title,
		Start:       start,
		End:         start.Add(r.defaultDuration),
		Location:    extraction.Location,
		Description: extraction.Description,
	}, nil
}

// resolveDay parses a calendar-literal date (YYYY-MM-DD) or a weekday name.
// Weekday names resolve to the next occurrence relative to ref, never a
// past one: a weekday matching ref's own day stays on ref's date so the
// time-of-day can still land later today.
func (r *Resolver) resolveDay(date string, ref time.Time) (day time.Time, fromWeekday bool, err error) {
	if t, perr := time.ParseInLocation("2006-01-02", date, r.loc); perr == nil {
		return t, false, nil
	}

	name := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(date), "next "))
	if wd, ok := weekdays[name]; ok {
		local := ref.In(r.loc)
		ahead := (int(wd) - int(local.Weekday()) + 7) % 7
		return local.AddDate(0, 0, ahead), true, nil
	}

	return time.Time{}, false, &types.DateResolutionError{Input: date, Reason: "not YYYY-MM-DD or a weekday name"}
}
