package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
	"dinner-aide/internal/preprocess"
)

// Preprocessor structures pending meal logs before the reminder goes out.
type Preprocessor interface {
	ProcessAllUnprocessed(ctx context.Context) preprocess.Result
}

// EntryReader reads the planned dishes of one day.
type EntryReader interface {
	ListByDate(ctx context.Context, date time.Time) ([]menu.ProposedEntry, error)
}

// Notifier delivers the reminder.
type Notifier interface {
	NotifyDailyReminder(ctx context.Context, date time.Time, entries []menu.ProposedEntry, logLink string) bool
}

// Result summarizes one reminder run.
type Result struct {
	Sent              bool
	MenuCount         int
	Error             string
	PreprocessedCount int
	StructuredCount   int
}

// Sender runs the daily flow: preprocess, then remind.
type Sender struct {
	pre      Preprocessor
	entries  EntryReader
	notifier Notifier
	logLink  string
	logger   *slog.Logger
}

// NewSender creates a Sender. pre may be nil to skip preprocessing.
func NewSender(pre Preprocessor, entries EntryReader, notifier Notifier, logLink string, logger *slog.Logger) *Sender {
	return &Sender{
		pre:      pre,
		entries:  entries,
		notifier: notifier,
		logLink:  logLink,
		logger:   logging.Component(logger, "reminder"),
	}
}

// Send reminds the household to log what they ate on date. Preprocessing
// problems are logged and never block the reminder.
func (s *Sender) Send(ctx context.Context, date time.Time) Result {
	date = menu.Day(date)
	logger := s.logger.With("date", menu.FormatDate(date))
	logger.Info("sending daily reminder")

	var res Result
	if s.pre != nil {
		pre := s.pre.ProcessAllUnprocessed(ctx)
		res.PreprocessedCount = pre.ProcessedCount
		res.StructuredCount = pre.CreatedCount
		for _, e := range pre.Errors {
			logger.Warn("preprocessing warning", "error", e)
		}
		logger.Info("preprocessing complete", "processed", pre.ProcessedCount, "created", pre.CreatedCount)
	}

	today, err := s.entries.ListByDate(ctx, date)
	if err != nil {
		logger.Error("failed to fetch today's dishes", "error", err)
		res.Error = fmt.Sprintf("failed to fetch today's dishes: %v", err)
		return res
	}
	res.MenuCount = len(today)

	res.Sent = s.notifier.NotifyDailyReminder(ctx, date, today, s.logLink)
	if !res.Sent {
		res.Error = "failed to send daily reminder"
		logger.Warn(res.Error)
	}
	return res
}
