// internal/journal/journal.go
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/user/chatcal/internal/types"
)

// Record is one processed message, whatever its outcome. The journal is
// the only durable trace of a run; everything else lives in logs.
type Record struct {
	RunID    types.RunID         `json:"run_id"`
	At       time.Time           `json:"at"`
	SenderID string              `json:"sender_id"`
	Group    string              `json:"group,omitempty"`
	Status   types.OutcomeStatus `json:"status"`
	Reason   string              `json:"reason,omitempty"`
	Stage    string              `json:"stage,omitempty"`
	EventID  string              `json:"event_id,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// Store is a JSONL-backed append-only outcome journal. Records are stored
// per-day in journal/outcomes-<date>.jsonl under the root directory.
type Store struct {
	root string
	mu   sync.Mutex
	now  func() time.Time
}

// NewStore creates a file-backed Store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root, now: time.Now}
}

func (s *Store) path(day time.Time) string {
	return filepath.Join(s.root, "journal", "outcomes-"+day.Format("2006-01-02")+".jsonl")
}

// Record appends the outcome of one run. It satisfies the pipeline's
// recorder contract; failures surface to the caller, who treats them as
// best-effort.
func (s *Store) Record(ctx context.Context, runID types.RunID, msg *types.Message, outcome types.Outcome) error {
	rec := &Record{
		RunID:    runID,
		At:       s.now(),
		SenderID: msg.SenderID,
		Group:    msg.GroupName,
		Status:   outcome.Status,
		Reason:   outcome.Reason,
		Stage:    outcome.Stage,
		EventID:  outcome.EventID,
	}
	if outcome.Err != nil {
		rec.Error = outcome.Err.Error()
	}
	return s.Append(ctx, rec)
}

// Append adds a record to the current day's journal file.
func (s *Store) Append(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(rec.At)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	data = append(data, '\n')
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}

// Tail returns the last N records for the given day.
func (s *Store) Tail(_ context.Context, day time.Time, limit int) ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(day))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer f.Close()

	var records []*Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		records = append(records, &rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan journal file: %w", err)
	}

	if len(records) > limit {
		records = records[len(records)-limit:]
	}

	return records, nil
}
