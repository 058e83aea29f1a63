package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMessageLimit = 4096

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramTransport posts Markdown messages to one chat.
type TelegramTransport struct {
	api    telegramSender
	chatID int64
}

// NewTelegramTransport wraps an authorized bot API client.
func NewTelegramTransport(api telegramSender, chatID int64) *TelegramTransport {
	return &TelegramTransport{api: api, chatID: chatID}
}

func (t *TelegramTransport) Name() string { return "telegram" }

func (t *TelegramTransport) Send(ctx context.Context, msg Message) error {
	for _, chunk := range splitTelegram(renderTelegram(msg)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := tgbotapi.NewMessage(t.chatID, chunk)
		out.ParseMode = tgbotapi.ModeMarkdown
		out.DisableWebPagePreview = true
		if _, err := t.api.Send(out); err != nil {
			// Dish names can contain markup characters; retry as plain text.
			out.ParseMode = ""
			if _, retryErr := t.api.Send(out); retryErr != nil {
				return fmt.Errorf("failed to send telegram message: %w", err)
			}
		}
	}
	return nil
}

func renderTelegram(msg Message) []string {
	parts := make([]string, 0, len(msg.Sections)+2)
	if msg.Title != "" {
		parts = append(parts, "*"+msg.Title+"*")
	}
	parts = append(parts, msg.Sections...)
	if msg.Link != "" {
		text := msg.LinkText
		if text == "" {
			text = msg.Link
		}
		parts = append(parts, fmt.Sprintf("[%s](%s)", text, msg.Link))
	}
	if len(parts) == 0 {
		parts = append(parts, msg.Fallback)
	}
	return parts
}

// splitTelegram joins parts into as few messages as fit the API limit.
func splitTelegram(parts []string) []string {
	var chunks []string
	var b strings.Builder
	for _, p := range parts {
		if b.Len() > 0 && b.Len()+len(p)+2 > telegramMessageLimit {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
