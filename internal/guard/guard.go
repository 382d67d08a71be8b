// internal/guard/guard.go
package guard

import (
	"strings"

	"github.com/user/chatcal/internal/types"
)

// Rule is a single self-message predicate. It returns a non-empty skip
// reason when the message should be dropped, or "" to let it through.
type Rule func(msg *types.Message) string

// Guard decides whether an inbound message should enter the pipeline.
// It exists to stop the system from reacting to its own output; a missed
// skip only wastes one inference call, while a wrong skip loses a real
// message for good, so ambiguous cases always process.
type Guard struct {
	rules []Rule
}

// New creates a Guard with the given rules. Rules are evaluated in order;
// the first non-empty reason wins.
func New(rules ...Rule) *Guard {
	return &Guard{rules: rules}
}

// Classify returns (false, reason) when the message should be skipped, or
// (true, "") when it should be processed. It is pure: same message in,
// same answer out.
func (g *Guard) Classify(msg *types.Message) (process bool, reason string) {
	for _, rule := range g.rules {
		if r := rule(msg); r != "" {
			return false, r
		}
	}
	return true, ""
}

// BotSender skips any message the platform marked as bot-authored.
func BotSender() Rule {
	return func(msg *types.Message) string {
		if msg.SenderType == types.SenderBot {
			return "bot sender"
		}
		return ""
	}
}

// SelfIdentity skips messages whose sender matches the system's own
// registered bot identity. An empty botID disables the rule.
func SelfIdentity(botID string) Rule {
	return func(msg *types.Message) string {
		if botID != "" && msg.SenderID == botID {
			return "own bot identity"
		}
		return ""
	}
}

// ConfirmationPattern skips messages that start with a prefix the system
// itself posts back to chat, e.g. the scheduling confirmation.
func ConfirmationPattern(prefix string) Rule {
	return func(msg *types.Message) string {
		if prefix != "" && strings.HasPrefix(strings.TrimSpace(msg.Text), prefix) {
			return "self-generated confirmation"
		}
		return ""
	}
}
