package telegram

import (
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/chatcal/internal/types"
)

func TestToMessage(t *testing.T) {
	tgMsg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 12345, UserName: "sam", IsBot: false},
		Chat: &tgbotapi.Chat{ID: 67890, Title: "CS Club"},
		Text: "Meeting Tuesday at 7",
		Date: 1763400000,
	}

	msg := toMessage(tgMsg)
	if msg.SenderID != "12345" {
		t.Errorf("expected sender 12345, got %q", msg.SenderID)
	}
	if msg.SenderType != types.SenderHuman {
		t.Errorf("expected human sender, got %q", msg.SenderType)
	}
	if msg.GroupName != "CS Club" {
		t.Errorf("expected group CS Club, got %q", msg.GroupName)
	}
	if msg.ReceivedAt.Unix() != 1763400000 {
		t.Errorf("unexpected received_at %v", msg.ReceivedAt)
	}
}

func TestToMessageBotSender(t *testing.T) {
	tgMsg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 999, IsBot: true},
		Chat: &tgbotapi.Chat{ID: 1},
		Text: "📅 Added to calendar (event evt-1)",
	}

	msg := toMessage(tgMsg)
	if msg.SenderType != types.SenderBot {
		t.Errorf("expected bot sender, got %q", msg.SenderType)
	}
}

func TestConfirmation(t *testing.T) {
	text := confirmation(types.Scheduled("evt-1"))
	if !strings.Contains(text, "evt-1") {
		t.Errorf("expected event id in confirmation, got %q", text)
	}
}
