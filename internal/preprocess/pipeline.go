package preprocess

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
)

// LogStore reads and flags raw meal logs.
type LogStore interface {
	ListUnprocessed(ctx context.Context) ([]menu.RawLogEntry, error)
	MarkProcessed(ctx context.Context, id string) error
}

// HistoryWriter persists structured dishes.
type HistoryWriter interface {
	Create(ctx context.Context, entry menu.HistoryEntry) (menu.HistoryEntry, error)
}

// Structurer splits free text into dishes.
type Structurer interface {
	Structure(ctx context.Context, freeText string, date time.Time) ([]menu.Dish, error)
}

// Result summarizes one preprocessing run.
type Result struct {
	ProcessedCount int
	CreatedCount   int
	Errors         []string
}

// Pipeline converts unprocessed raw logs into history exactly once per log.
type Pipeline struct {
	logs       LogStore
	history    HistoryWriter
	structurer Structurer
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(logs LogStore, history HistoryWriter, structurer Structurer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logs:       logs,
		history:    history,
		structurer: structurer,
		logger:     logging.Component(logger, "preprocess"),
	}
}

// ProcessAllUnprocessed structures every unprocessed log, oldest first.
// A log is flagged processed only after its dishes were written; a log whose
// flag could not be set is retried on the next run.
func (p *Pipeline) ProcessAllUnprocessed(ctx context.Context) Result {
	logs, err := p.logs.ListUnprocessed(ctx)
	if err != nil {
		p.logger.Error("failed to fetch unprocessed logs", "error", err)
		return Result{Errors: []string{fmt.Sprintf("failed to fetch unprocessed logs: %v", err)}}
	}
	if len(logs) == 0 {
		p.logger.Info("no unprocessed logs")
		return Result{}
	}

	p.logger.Info("processing raw logs", "count", len(logs))

	var res Result
	for _, entry := range logs {
		created, warnings, err := p.processOne(ctx, entry)
		res.CreatedCount += created
		res.Errors = append(res.Errors, warnings...)
		if err != nil {
			p.logger.Error("failed to process raw log", "id", entry.ID, "date", menu.FormatDate(entry.Date), "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("log %s (%s): %v", entry.ID, menu.FormatDate(entry.Date), err))
			continue
		}
		res.ProcessedCount++
	}

	p.logger.Info("preprocessing finished",
		"processed", res.ProcessedCount,
		"created", res.CreatedCount,
		"failed", len(res.Errors),
	)
	return res
}

// processOne returns the number of history entries written, which counts
// even when the log itself could not be flagged, plus one warning per dish
// that could not be saved.
func (p *Pipeline) processOne(ctx context.Context, entry menu.RawLogEntry) (int, []string, error) {
	if entry.ID == "" {
		return 0, nil, fmt.Errorf("log has no id")
	}

	text := strings.TrimSpace(entry.FreeText)
	if text == "" {
		p.logger.Debug("blank log, marking processed", "id", entry.ID)
		return 0, nil, p.markProcessed(ctx, entry.ID)
	}

	dishes, err := p.structurer.Structure(ctx, text, entry.Date)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to structure log: %w", err)
	}
	if len(dishes) == 0 {
		p.logger.Warn("no dishes extracted from log", "id", entry.ID, "text", text)
	}

	var (
		created  int
		warnings []string
	)
	for _, dish := range dishes {
		_, err := p.history.Create(ctx, menu.HistoryEntry{
			DishName: dish.Name,
			Date:     entry.Date,
			Category: menu.NormalizeCategory(string(dish.Category)),
		})
		if err != nil {
			p.logger.Warn("failed to save history entry", "id", entry.ID, "dish", dish.Name, "error", err)
			warnings = append(warnings, fmt.Sprintf("log %s (%s): failed to save dish %q: %v",
				entry.ID, menu.FormatDate(entry.Date), dish.Name, err))
			continue
		}
		created++
	}

	return created, warnings, p.markProcessed(ctx, entry.ID)
}

func (p *Pipeline) markProcessed(ctx context.Context, id string) error {
	if err := p.logs.MarkProcessed(ctx, id); err != nil {
		return fmt.Errorf("failed to mark processed: %w", err)
	}
	return nil
}
