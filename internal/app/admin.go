package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"dinner-aide/internal/menu"
)

// ErrNotDevelopment guards maintenance commands that destroy or fabricate data.
var ErrNotDevelopment = errors.New("only allowed in a development environment")

// Reset table names.
const (
	TableProposed   = "proposed"
	TableRaw        = "raw"
	TableStructured = "structured"
	TableAll        = "all"
)

// Check is the outcome of one connection test.
type Check struct {
	Name string
	Err  error
}

// OK reports whether the check passed.
func (c Check) OK() bool { return c.Err == nil }

// TestConnections checks the database, the generative service and the
// notification channels.
func (a *App) TestConnections(ctx context.Context) []Check {
	checks := []Check{
		{Name: "database", Err: a.deps.DB.Ping(ctx)},
		{Name: "llm", Err: a.chef.Ping(ctx)},
	}

	var notifyErr error
	if !a.deps.Notifier.NotifyTest(ctx) {
		notifyErr = errors.New("test notification was not delivered")
	}
	checks = append(checks, Check{Name: "notifications", Err: notifyErr})

	for _, c := range checks {
		if c.OK() {
			a.logger.Info("connection ok", "service", c.Name)
		} else {
			a.logger.Error("connection failed", "service", c.Name, "error", c.Err)
		}
	}
	return checks
}

// Reset deletes every row of the named tables and returns the counts per
// table. An empty list or "all" means every table.
func (a *App) Reset(ctx context.Context, tables []string) (map[string]int64, error) {
	if !a.cfg.IsDevelopment() {
		return nil, fmt.Errorf("reset blocked in %q: %w", a.cfg.Env, ErrNotDevelopment)
	}

	targets, err := resetTargets(tables)
	if err != nil {
		return nil, err
	}

	purgers := map[string]func(context.Context) (int64, error){
		TableProposed:   a.Proposed.Purge,
		TableRaw:        a.RawLogs.Purge,
		TableStructured: a.History.Purge,
	}

	deleted := make(map[string]int64, len(targets))
	var errs []error
	for _, t := range targets {
		n, err := purgers[t](ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to reset %s: %w", t, err))
			continue
		}
		deleted[t] = n
		a.logger.Info("table reset", "table", t, "deleted", n)
	}
	return deleted, errors.Join(errs...)
}

func resetTargets(tables []string) ([]string, error) {
	all := []string{TableProposed, TableRaw, TableStructured}
	if len(tables) == 0 {
		return all, nil
	}

	seen := make(map[string]bool)
	var targets []string
	for _, t := range tables {
		t = strings.ToLower(strings.TrimSpace(t))
		switch t {
		case TableAll:
			return all, nil
		case TableProposed, TableRaw, TableStructured:
			if !seen[t] {
				seen[t] = true
				targets = append(targets, t)
			}
		case "":
		default:
			return nil, fmt.Errorf("unknown table %q", t)
		}
	}
	return targets, nil
}

var seedLogs = []struct {
	daysAgo int
	text    string
}{
	{3, "Kimchi hot pot, ramen to finish"},
	{2, "Grilled fish, spinach ohitashi, miso soup"},
	{1, "Curry rice, salad"},
	{0, "Fried chicken, potato salad, wakame soup"},
}

// Seed inserts sample meal logs for the last four days.
func (a *App) Seed(ctx context.Context) ([]menu.RawLogEntry, error) {
	if !a.cfg.IsDevelopment() {
		return nil, fmt.Errorf("seed blocked in %q: %w", a.cfg.Env, ErrNotDevelopment)
	}

	today := a.Today()
	var created []menu.RawLogEntry
	var errs []error
	for _, s := range seedLogs {
		entry, err := a.RawLogs.Create(ctx, today.AddDate(0, 0, -s.daysAgo), s.text)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to seed %q: %w", s.text, err))
			continue
		}
		created = append(created, entry)
	}
	a.logger.Info("seeded raw logs", "count", len(created))
	return created, errors.Join(errs...)
}
