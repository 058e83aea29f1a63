package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dinner-aide/internal/config"
	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier is the outbound notification channel. Methods report delivery
// success and never return errors.
type Notifier interface {
	NotifyWeeklySummary(ctx context.Context, entries []menu.ProposedEntry, start, end time.Time, storeLink string) bool
	NotifySkipped(ctx context.Context, reason, windowLabel string) bool
	NotifyDailyReminder(ctx context.Context, date time.Time, entries []menu.ProposedEntry, logLink string) bool
	NotifyError(ctx context.Context, message, contextLabel string) bool
	NotifyTest(ctx context.Context) bool
}

// Message is a channel-neutral notification. Sections use the *bold* markup
// shared by Slack mrkdwn and Telegram Markdown.
type Message struct {
	Title    string
	Fallback string
	Sections []string
	Link     string
	LinkText string
}

// Transport delivers a Message to one channel.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Service formats notifications and fans them out to every transport.
type Service struct {
	transports []Transport
	delimiter  string
	logger     *slog.Logger
}

var _ Notifier = (*Service)(nil)

// NewService creates a Service. With no transports every notification is
// dropped and reported as delivered.
func NewService(transports []Transport, shoppingDelimiter string, logger *slog.Logger) *Service {
	return &Service{
		transports: transports,
		delimiter:  shoppingDelimiter,
		logger:     logging.Component(logger, "notify"),
	}
}

// NewFromConfig builds the transports enabled in cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	var transports []Transport

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to init telegram api: %w", err)
		}
		transports = append(transports, NewTelegramTransport(api, cfg.TelegramChatID))
	}

	if strings.TrimSpace(cfg.SlackWebhookURL) != "" {
		transports = append(transports, NewSlackTransport(cfg.SlackWebhookURL, cfg.NotifyTimeout()))
	}

	return NewService(transports, cfg.ShoppingDelimiter, logger), nil
}

// Channels lists the names of the configured transports.
func (s *Service) Channels() []string {
	names := make([]string, 0, len(s.transports))
	for _, t := range s.transports {
		names = append(names, t.Name())
	}
	return names
}

func (s *Service) NotifyWeeklySummary(ctx context.Context, entries []menu.ProposedEntry, start, end time.Time, storeLink string) bool {
	return s.deliver(ctx, "weekly_summary", weeklySummaryMessage(entries, start, end, storeLink, s.delimiter))
}

func (s *Service) NotifySkipped(ctx context.Context, reason, windowLabel string) bool {
	return s.deliver(ctx, "skipped", skippedMessage(reason, windowLabel))
}

func (s *Service) NotifyDailyReminder(ctx context.Context, date time.Time, entries []menu.ProposedEntry, logLink string) bool {
	return s.deliver(ctx, "daily_reminder", dailyReminderMessage(date, entries, logLink))
}

func (s *Service) NotifyError(ctx context.Context, message, contextLabel string) bool {
	return s.deliver(ctx, "error", errorMessage(message, contextLabel))
}

func (s *Service) NotifyTest(ctx context.Context) bool {
	return s.deliver(ctx, "test", testMessage())
}

func (s *Service) deliver(ctx context.Context, kind string, msg Message) bool {
	if len(s.transports) == 0 {
		s.logger.Debug("no notification channel configured, dropping", "kind", kind)
		return true
	}

	ok := true
	for _, t := range s.transports {
		if err := t.Send(ctx, msg); err != nil {
			s.logger.Warn("failed to send notification", "kind", kind, "channel", t.Name(), "error", err)
			ok = false
			continue
		}
		s.logger.Debug("notification sent", "kind", kind, "channel", t.Name())
	}
	return ok
}
