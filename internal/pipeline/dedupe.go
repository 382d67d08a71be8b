// internal/pipeline/dedupe.go
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/user/chatcal/internal/types"
)

// defaultDedupeWindow is how long a sender+text pair is remembered.
// Platform webhook retries land well inside this; two genuinely separate
// identical announcements more than ten minutes apart still both schedule.
const defaultDedupeWindow = 10 * time.Minute

// dedupe is a best-effort in-memory duplicate-delivery filter. It is not
// durable: a process restart forgets everything, so duplicates remain
// possible. See the publisher note on idempotency.
type dedupe struct {
	window time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

func newDedupe(window time.Duration) *dedupe {
	return &dedupe{
		window: window,
		seen:   make(map[string]time.Time),
	}
}

// seenRecently reports whether the same sender+text was processed within
// the window, and records this delivery.
func (d *dedupe) seenRecently(msg *types.Message, now time.Time) bool {
	key := messageKey(msg)

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, at := range d.seen {
		if now.Sub(at) > d.window {
			delete(d.seen, k)
		}
	}

	if at, ok := d.seen[key]; ok && now.Sub(at) <= d.window {
		return true
	}
	d.seen[key] = now
	return false
}

func messageKey(msg *types.Message) string {
	h := sha256.New()
	h.Write([]byte(msg.SenderID))
	h.Write([]byte{0})
	h.Write([]byte(msg.Text))
	return hex.EncodeToString(h.Sum(nil))
}
