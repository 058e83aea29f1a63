package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"dinner-aide/internal/config"
	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
	"dinner-aide/internal/metrics"
	"dinner-aide/internal/planner"
	"dinner-aide/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const handlerTimeout = 2 * time.Minute

// Service is the subset of the application the bot drives.
type Service interface {
	Today() time.Time
	LogMeal(ctx context.Context, date time.Time, text string) (menu.RawLogEntry, error)
	DayMenu(ctx context.Context, date time.Time) ([]menu.ProposedEntry, error)
	Week(ctx context.Context, ref time.Time, mode planner.WindowMode) (planner.Window, []menu.ProposedEntry, error)
	SetStatus(ctx context.Context, id string, status menu.Status) (menu.ProposedEntry, error)
}

// UsageReader reads recorded LLM usage.
type UsageReader interface {
	GetDailyUsage(days int) ([]metrics.DailyUsage, error)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot lets the household log meals and manage the plan from Telegram.
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	svc     Service
	usage   UsageReader
	cfg     *config.Config
	allowed map[int64]bool
	logger  *slog.Logger
}

// NewBot initializes the Telegram API client and sets the webhook.
func NewBot(cfg *config.Config, svc Service, usage UsageReader, logger *slog.Logger) (*Bot, error) {
	logger = logging.Component(logger, "telegram")

	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("authorized", "account", api.Self.UserName)

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", "description", resp.Description)

	b := newBot(api, cfg, svc, usage, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg *config.Config, svc Service, usage UsageReader, logger *slog.Logger) *Bot {
	allowed := make(map[int64]bool, len(cfg.TelegramAllowedUserIDs))
	for _, id := range cfg.TelegramAllowedUserIDs {
		allowed[id] = true
	}
	return &Bot{
		out:     out,
		svc:     svc,
		usage:   usage,
		cfg:     cfg,
		allowed: allowed,
		logger:  logger,
	}
}

// RegisterHandlers registers the webhook and health endpoints on mux.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.Warn("error parsing update", "error", err)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	if !b.allowed[msg.From.ID] {
		b.logger.Warn("unauthorized access attempt", "user_id", msg.From.ID, "username", msg.From.UserName)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		reply := b.handleText(ctx, msg.From.ID, msg.Text)
		b.send(msg.Chat.ID, reply)
	}()
}

// handleText runs a command or stores plain text as today's meal log and
// returns the Markdown reply.
func (b *Bot) handleText(ctx context.Context, userID int64, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "Send me what you ate, or /help."
	}
	if !strings.HasPrefix(text, "/") {
		return b.handleLog(ctx, text)
	}

	command, arg, _ := strings.Cut(text, " ")
	command, _, _ = strings.Cut(command, "@")
	arg = strings.TrimSpace(arg)
	logger := b.logger.With("command", command, "user_id", userID)
	logger.Info("handling command")

	switch command {
	case "/start", "/help":
		return helpText
	case "/today":
		return b.handleToday(ctx)
	case "/week":
		return b.handleWeek(ctx)
	case "/confirm":
		return b.handleStatus(ctx, arg, menu.StatusConfirmed)
	case "/eatout":
		return b.handleStatus(ctx, arg, menu.StatusEatingOut)
	case "/metrics":
		if userID != b.cfg.AdminTelegramID {
			return "⛔ *Access Denied*: Admin only."
		}
		return b.handleMetrics()
	default:
		return "Unknown command. " + helpText
	}
}

const helpText = `*dinner-aide*
Send what you ate as plain text to log it for today.
/today - today's planned menu
/week - the next seven days
/confirm <id> - keep a proposed dish
/eatout <id> - mark a day as eating out`

func (b *Bot) handleLog(ctx context.Context, text string) string {
	today := b.svc.Today()
	entry, err := b.svc.LogMeal(ctx, today, text)
	if err != nil {
		b.logger.Error("failed to log meal", "error", err)
		return errorReply("Error logging meal", err)
	}
	b.logger.Info("meal logged", "id", entry.ID, "date", menu.FormatDate(entry.Date))
	return fmt.Sprintf("📝 Logged for %s. It will be structured in the next run.", displayDate(entry.Date))
}

func (b *Bot) handleToday(ctx context.Context) string {
	today := b.svc.Today()
	entries, err := b.svc.DayMenu(ctx, today)
	if err != nil {
		b.logger.Error("failed to fetch today's menu", "error", err)
		return errorReply("Error fetching today's menu", err)
	}
	return formatDay(today, entries)
}

func (b *Bot) handleWeek(ctx context.Context) string {
	w, entries, err := b.svc.Week(ctx, b.svc.Today(), planner.ModeRolling)
	if err != nil {
		b.logger.Error("failed to fetch week", "error", err)
		return errorReply("Error fetching the week", err)
	}
	return formatWeek(w, entries)
}

func (b *Bot) handleStatus(ctx context.Context, id string, status menu.Status) string {
	if id == "" {
		return "Usage: /confirm <id> or /eatout <id>"
	}
	entry, err := b.svc.SetStatus(ctx, id, status)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Sprintf("No planned dish with id `%s`.", id)
	}
	if err != nil {
		b.logger.Error("failed to update status", "id", id, "error", err)
		return errorReply("Error updating dish", err)
	}
	return fmt.Sprintf("%s %s on %s is now *%s*.", statusEmoji[status], entry.DishName, displayDate(entry.Date), status)
}

func (b *Bot) handleMetrics() string {
	usage, err := b.usage.GetDailyUsage(7)
	if err != nil {
		return "❌ Error fetching metrics."
	}
	health := metrics.CollectHealth(filepath.Dir(b.cfg.DatabasePath))
	return formatMetrics(usage, health)
}

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Warn("markdown reply rejected, retrying as plain text", "error", err)
		msg.ParseMode = ""
		if _, err := b.out.Send(msg); err != nil {
			b.logger.Error("failed to send reply", "chat_id", chatID, "error", err)
		}
	}
}

func errorReply(title string, err error) string {
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *%s:*\n```\n%v\n```", title, safeErr)
}
