package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
)

// Skip reasons reported in Result.SkipReason.
const (
	ReasonAllPlanned     = "all days already planned"
	ReasonNoCandidates   = "no menu items were generated"
	reasonFetchFailed    = "failed to fetch existing entries"
	reasonGenerateFailed = "menu generation failed"
)

// EntryStore reads and writes planned dishes.
type EntryStore interface {
	ListByDateRange(ctx context.Context, start, end time.Time, statuses ...menu.Status) ([]menu.ProposedEntry, error)
	Create(ctx context.Context, entry menu.ProposedEntry) (menu.ProposedEntry, error)
	Archive(ctx context.Context, id string) (bool, error)
}

// HistoryReader reads structured history.
type HistoryReader interface {
	ListByDateRange(ctx context.Context, start, end time.Time) ([]menu.HistoryEntry, error)
}

// MenuGenerator proposes dishes for empty days.
type MenuGenerator interface {
	GenerateMenu(ctx context.Context, req menu.PlanRequest) ([]menu.ProposedEntry, error)
}

// Notifier is the subset of the notification channel the scheduler uses.
type Notifier interface {
	NotifyWeeklySummary(ctx context.Context, entries []menu.ProposedEntry, start, end time.Time, storeLink string) bool
	NotifySkipped(ctx context.Context, reason, windowLabel string) bool
}

// Options configures a Scheduler.
type Options struct {
	// HistoryWeeks is how many weeks of history before the reference date are
	// given to the generator.
	HistoryWeeks int
	StoreLink    string
}

// DefaultOptions returns the stock scheduler configuration.
func DefaultOptions() Options {
	return Options{HistoryWeeks: 2}
}

// Result summarizes one scheduling run.
type Result struct {
	Window         Window
	GeneratedCount int
	Skipped        bool
	SkipReason     string
	Errors         []string
}

// Failed reports whether the run was skipped for a reason other than having
// nothing to do.
func (r Result) Failed() bool {
	return r.Skipped && r.SkipReason != ReasonAllPlanned
}

// Scheduler fills the uncommitted days of a window with generated dishes.
type Scheduler struct {
	entries  EntryStore
	history  HistoryReader
	gen      MenuGenerator
	notifier Notifier
	opts     Options
	logger   *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(entries EntryStore, history HistoryReader, gen MenuGenerator, notifier Notifier, opts Options, logger *slog.Logger) *Scheduler {
	if opts.HistoryWeeks < 0 {
		opts.HistoryWeeks = 0
	}
	return &Scheduler{
		entries:  entries,
		history:  history,
		gen:      gen,
		notifier: notifier,
		opts:     opts,
		logger:   logging.Component(logger, "planner"),
	}
}

// GenerateForWindow plans the window derived from ref. Days holding a
// Confirmed or EatingOut entry are never regenerated.
func (s *Scheduler) GenerateForWindow(ctx context.Context, ref time.Time, mode WindowMode) Result {
	ref = menu.Day(ref)
	w := ResolveWindow(ref, mode)
	res := Result{Window: w}
	logger := s.logger.With("window", w.Label(), "mode", string(mode))
	logger.Info("scheduling window")

	if mode == ModeNextWeek {
		res.Errors = append(res.Errors, s.archiveProposed(ctx, w, logger)...)
	}

	existing, err := s.entries.ListByDateRange(ctx, w.Start, w.End)
	if err != nil {
		logger.Error("failed to fetch existing entries", "error", err)
		return skip(res, fmt.Sprintf("%s: %v", reasonFetchFailed, err))
	}

	committed := make(map[string]bool)
	var committedEntries []menu.ProposedEntry
	for _, e := range existing {
		if e.Status.IsCommitted() {
			committed[menu.FormatDate(e.Date)] = true
			committedEntries = append(committedEntries, e)
		}
	}

	var fill []time.Time
	for _, d := range w.Dates() {
		if !committed[menu.FormatDate(d)] {
			fill = append(fill, d)
		}
	}

	if len(fill) == 0 {
		logger.Info("every day is committed, skipping generation")
		if !s.notifier.NotifySkipped(ctx, ReasonAllPlanned, w.Label()) {
			res.Errors = append(res.Errors, "failed to send skip notification")
		}
		if !s.notifier.NotifyWeeklySummary(ctx, existing, w.Start, w.End, s.opts.StoreLink) {
			res.Errors = append(res.Errors, "failed to send weekly summary")
		}
		return skip(res, ReasonAllPlanned)
	}

	historyStart := ref.AddDate(0, 0, -7*s.opts.HistoryWeeks)
	history, err := s.history.ListByDateRange(ctx, historyStart, ref)
	if err != nil {
		logger.Warn("failed to fetch history, continuing without it", "error", err)
		history = nil
	}

	logger.Info("generating menu", "fill_dates", len(fill), "committed", len(committedEntries), "history", len(history))
	candidates, err := s.gen.GenerateMenu(ctx, menu.PlanRequest{
		Dates:        fill,
		Existing:     committedEntries,
		History:      history,
		HistoryWeeks: s.opts.HistoryWeeks,
	})
	if err != nil {
		logger.Error("menu generation failed", "error", err)
		return skip(res, fmt.Sprintf("%s: %v", reasonGenerateFailed, err))
	}

	candidates = s.usableCandidates(candidates, fill, logger)
	if len(candidates) == 0 {
		logger.Warn("generator returned no usable candidates")
		return skip(res, ReasonNoCandidates)
	}

	summary := append([]menu.ProposedEntry(nil), existing...)
	for _, c := range candidates {
		c.Status = menu.StatusProposed
		saved, err := s.entries.Create(ctx, c)
		if err != nil {
			logger.Warn("failed to save candidate", "dish", c.DishName, "date", menu.FormatDate(c.Date), "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("failed to save %q for %s: %v", c.DishName, menu.FormatDate(c.Date), err))
			continue
		}
		res.GeneratedCount++
		summary = append(summary, saved)
	}

	if !s.notifier.NotifyWeeklySummary(ctx, summary, w.Start, w.End, s.opts.StoreLink) {
		res.Errors = append(res.Errors, "failed to send weekly summary")
	}

	logger.Info("scheduling finished", "generated", res.GeneratedCount, "warnings", len(res.Errors))
	return res
}

// archiveProposed discards auto-generated entries in w so they can be replaced.
func (s *Scheduler) archiveProposed(ctx context.Context, w Window, logger *slog.Logger) []string {
	proposed, err := s.entries.ListByDateRange(ctx, w.Start, w.End, menu.StatusProposed)
	if err != nil {
		logger.Warn("failed to list proposed entries for overwrite", "error", err)
		return []string{fmt.Sprintf("failed to list proposed entries: %v", err)}
	}

	var warnings []string
	for _, e := range proposed {
		if e.Status != menu.StatusProposed {
			continue
		}
		ok, err := s.entries.Archive(ctx, e.ID)
		switch {
		case err != nil:
			warnings = append(warnings, fmt.Sprintf("failed to archive %s (%s): %v", e.ID, e.DishName, err))
		case !ok:
			warnings = append(warnings, fmt.Sprintf("failed to archive %s (%s)", e.ID, e.DishName))
		}
	}
	if len(proposed) > 0 {
		logger.Info("archived proposed entries", "count", len(proposed)-len(warnings))
	}
	return warnings
}

// usableCandidates drops candidates missing a name or a date. Candidates dated
// outside the fill set are kept and logged.
func (s *Scheduler) usableCandidates(candidates []menu.ProposedEntry, fill []time.Time, logger *slog.Logger) []menu.ProposedEntry {
	requested := make(map[string]bool, len(fill))
	for _, d := range fill {
		requested[menu.FormatDate(d)] = true
	}

	usable := make([]menu.ProposedEntry, 0, len(candidates))
	for _, c := range candidates {
		if c.DishName == "" || c.Date.IsZero() {
			continue
		}
		c.Date = menu.Day(c.Date)
		if !requested[menu.FormatDate(c.Date)] {
			logger.Warn("candidate dated outside the requested days", "dish", c.DishName, "date", menu.FormatDate(c.Date))
		}
		c.Category = menu.NormalizeCategory(string(c.Category))
		usable = append(usable, c)
	}
	return usable
}

func skip(res Result, reason string) Result {
	res.Skipped = true
	res.SkipReason = reason
	return res
}
