package app

import (
	"context"
	"fmt"
	"time"

	"dinner-aide/internal/menu"
	"dinner-aide/internal/planner"
	"dinner-aide/internal/preprocess"
	"dinner-aide/internal/reminder"
)

// WeeklyResult is the outcome of RunWeekly.
type WeeklyResult struct {
	Preprocess preprocess.Result
	Schedule   planner.Result
}

// RunWeekly structures pending logs, then plans the window derived from ref.
// A scheduling failure is reported through the error notification.
func (a *App) RunWeekly(ctx context.Context, ref time.Time, mode planner.WindowMode) (WeeklyResult, error) {
	var res WeeklyResult
	err := withRunLock(a.cfg.LockPath, func() error {
		logger := a.logger.With("flow", "weekly")
		logger.Info("starting weekly menu generation", "reference", menu.FormatDate(ref), "mode", string(mode))

		res.Preprocess = a.pipeline.ProcessAllUnprocessed(ctx)
		for _, e := range res.Preprocess.Errors {
			logger.Warn("preprocessing warning", "error", e)
		}

		res.Schedule = a.scheduler.GenerateForWindow(ctx, ref, mode)
		for _, e := range res.Schedule.Errors {
			logger.Warn("scheduling warning", "error", e)
		}

		if res.Schedule.Failed() {
			logger.Error("menu generation skipped", "reason", res.Schedule.SkipReason)
			a.deps.Notifier.NotifyError(ctx, res.Schedule.SkipReason,
				fmt.Sprintf("weekly menu generation (%s)", res.Schedule.Window.Label()))
		}

		logger.Info("weekly menu generation finished",
			"processed", res.Preprocess.ProcessedCount,
			"structured", res.Preprocess.CreatedCount,
			"generated", res.Schedule.GeneratedCount,
			"skipped", res.Schedule.Skipped,
		)
		return nil
	})
	return res, err
}

// RunDaily structures pending logs and sends the reminder for date.
func (a *App) RunDaily(ctx context.Context, date time.Time) (reminder.Result, error) {
	var res reminder.Result
	err := withRunLock(a.cfg.LockPath, func() error {
		res = a.reminder.Send(ctx, date)
		if res.Sent {
			a.logger.Info("daily reminder sent", "menu_count", res.MenuCount,
				"processed", res.PreprocessedCount, "structured", res.StructuredCount)
		} else {
			a.logger.Error("failed to send daily reminder", "error", res.Error)
		}
		return nil
	})
	return res, err
}
