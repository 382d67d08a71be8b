package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/user/chatcal/internal/types"
)

// MessageHandler runs the pipeline for one inbound message.
type MessageHandler func(ctx context.Context, msg *types.Message) types.Outcome

// Adapter bridges Telegram group chats to the scheduling pipeline. It is a
// second message source next to the webhook ingress; the same loop guard
// and pipeline apply.
type Adapter struct {
	bot     *tgbotapi.BotAPI
	handler MessageHandler
}

// New creates a Telegram adapter.
func New(token string, handler MessageHandler) (*Adapter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	return &Adapter{
		bot:     bot,
		handler: handler,
	}, nil
}

// Start begins long-polling for Telegram updates.
func (a *Adapter) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			a.handleMessage(ctx, update.Message)
		case <-ctx.Done():
			a.bot.StopReceivingUpdates()
			return
		}
	}
}

func (a *Adapter) handleMessage(ctx context.Context, tgMsg *tgbotapi.Message) {
	msg := toMessage(tgMsg)
	outcome := a.handler(ctx, msg)

	switch outcome.Status {
	case types.StatusScheduled:
		a.reply(tgMsg.Chat.ID, confirmation(outcome))
	case types.StatusFailed:
		// Silent toward the chat; the log already carries the failure.
		slog.Error("telegram message failed", "stage", outcome.Stage, "error", outcome.Err)
	}
}

// toMessage maps a Telegram message to the pipeline's message shape.
func toMessage(tgMsg *tgbotapi.Message) *types.Message {
	senderType := types.SenderHuman
	var senderID, name string
	if tgMsg.From != nil {
		senderID = strconv.FormatInt(tgMsg.From.ID, 10)
		name = tgMsg.From.UserName
		if tgMsg.From.IsBot {
			senderType = types.SenderBot
		}
	}
	return &types.Message{
		SenderID:   senderID,
		SenderType: senderType,
		Name:       name,
		Text:       tgMsg.Text,
		GroupName:  tgMsg.Chat.Title,
		ReceivedAt: time.Unix(int64(tgMsg.Date), 0),
	}
}

func confirmation(outcome types.Outcome) string {
	return fmt.Sprintf("📅 Added to calendar (event %s)", outcome.EventID)
}

func (a *Adapter) reply(chatID int64, text string) {
	reply := tgbotapi.NewMessage(chatID, text)
	if _, err := a.bot.Send(reply); err != nil {
		slog.Error("telegram send failed", "error", err)
	}
}
