package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"dinner-aide/internal/chef"
	"dinner-aide/internal/config"
	"dinner-aide/internal/database"
	"dinner-aide/internal/llm"
	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"
	"dinner-aide/internal/metrics"
	"dinner-aide/internal/notify"
	"dinner-aide/internal/planner"
	"dinner-aide/internal/preprocess"
	"dinner-aide/internal/reminder"
	"dinner-aide/internal/store"

	"github.com/google/uuid"
)

// Generation temperatures per task.
const (
	structureTemperature = 0.1
	menuTemperature      = 0.7
)

// Deps are the external collaborators of an App.
type Deps struct {
	DB           *database.DB
	StructureGen llm.TextGenerator
	MenuGen      llm.TextGenerator
	Notifier     notify.Notifier
}

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	deps   Deps
	logger *slog.Logger

	Proposed *store.ProposedRepository
	RawLogs  *store.RawLogRepository
	History  *store.HistoryRepository
	Metrics  *metrics.Store

	chef      *chef.Chef
	pipeline  *preprocess.Pipeline
	scheduler *planner.Scheduler
	reminder  *reminder.Sender
}

// New opens the database, the generative providers and the notification
// channels named in cfg.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger = logging.Component(logger, "app").With("run_id", uuid.NewString())

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	structureGen, err := llm.New(ctx, cfg, structureTemperature)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize structuring model: %w", err)
	}
	menuGen, err := llm.New(ctx, cfg, menuTemperature)
	if err != nil {
		llm.Close(structureGen)
		db.Close()
		return nil, fmt.Errorf("failed to initialize menu model: %w", err)
	}

	notifier, err := notify.NewFromConfig(cfg, logger)
	if err != nil {
		llm.Close(structureGen)
		llm.Close(menuGen)
		db.Close()
		return nil, fmt.Errorf("failed to initialize notifications: %w", err)
	}
	logger.Debug("notification channels", "channels", notifier.Channels())

	return NewWithDeps(cfg, Deps{
		DB:           db,
		StructureGen: structureGen,
		MenuGen:      menuGen,
		Notifier:     notifier,
	}, logger), nil
}

// NewWithDeps wires the core components around already-built collaborators.
func NewWithDeps(cfg *config.Config, deps Deps, logger *slog.Logger) *App {
	if logger == nil {
		logger = logging.Component(nil, "app")
	}

	a := &App{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		Proposed: store.NewProposedRepository(deps.DB.SQL),
		RawLogs:  store.NewRawLogRepository(deps.DB.SQL),
		History:  store.NewHistoryRepository(deps.DB.SQL),
		Metrics:  metrics.NewStore(deps.DB.SQL),
	}

	a.chef = chef.New(deps.StructureGen, deps.MenuGen, chef.Options{
		DietaryPreferences: cfg.DietaryPreferences,
		ShoppingDelimiter:  cfg.ShoppingDelimiter,
		Recorder:           a.Metrics,
		Logger:             logger,
	})
	a.pipeline = preprocess.NewPipeline(a.RawLogs, a.History, a.chef, logger)
	a.scheduler = planner.NewScheduler(a.Proposed, a.History, a.chef, deps.Notifier, planner.Options{
		HistoryWeeks: cfg.HistoryWeeks,
		StoreLink:    cfg.StoreLink,
	}, logger)
	a.reminder = reminder.NewSender(a.pipeline, a.Proposed, deps.Notifier, cfg.LogInputLink, logger)
	return a
}

// Close releases the generative clients and the database.
func (a *App) Close() error {
	return errors.Join(
		llm.Close(a.deps.StructureGen),
		llm.Close(a.deps.MenuGen),
		a.deps.DB.Close(),
	)
}

// Today is the current calendar day in the configured timezone.
func (a *App) Today() time.Time {
	return menu.Day(time.Now().In(a.cfg.Location()))
}

// ShoppingDelimiter separates items in stored shopping lists.
func (a *App) ShoppingDelimiter() string {
	return a.cfg.ShoppingDelimiter
}

// Preprocess structures every pending meal log.
func (a *App) Preprocess(ctx context.Context) preprocess.Result {
	return a.pipeline.ProcessAllUnprocessed(ctx)
}

// LogMeal stores what the household ate on date for later structuring.
func (a *App) LogMeal(ctx context.Context, date time.Time, text string) (menu.RawLogEntry, error) {
	return a.RawLogs.Create(ctx, date, text)
}

// Week returns the window for ref and every entry planned in it.
func (a *App) Week(ctx context.Context, ref time.Time, mode planner.WindowMode) (planner.Window, []menu.ProposedEntry, error) {
	w := planner.ResolveWindow(ref, mode)
	entries, err := a.Proposed.ListByDateRange(ctx, w.Start, w.End)
	if err != nil {
		return w, nil, err
	}
	return w, entries, nil
}

// DayMenu returns the entries planned for date.
func (a *App) DayMenu(ctx context.Context, date time.Time) ([]menu.ProposedEntry, error) {
	return a.Proposed.ListByDate(ctx, date)
}

// SetStatus moves an entry to status. Confirmed and EatingOut entries are
// never replaced by later scheduling runs.
func (a *App) SetStatus(ctx context.Context, id string, status menu.Status) (menu.ProposedEntry, error) {
	if err := a.Proposed.UpdateStatus(ctx, id, status); err != nil {
		return menu.ProposedEntry{}, err
	}
	return a.Proposed.Get(ctx, id)
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(days int) (int64, error) {
	return a.Metrics.Cleanup(days)
}
