package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dinner-aide/internal/menu"
)

// HistoryRepository persists structured dishes derived from raw logs.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// ListByDateRange returns history dated within [start, end], oldest first.
func (r *HistoryRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]menu.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, dish_name, date, category FROM history_entries
		WHERE date >= ? AND date <= ? ORDER BY date, created_at, id`,
		menu.FormatDate(start), menu.FormatDate(end))
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var entries []menu.HistoryEntry
	for rows.Next() {
		var (
			entry     menu.HistoryEntry
			date, cat string
		)
		if err := rows.Scan(&entry.ID, &entry.DishName, &date, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if entry.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("invalid date %q on history entry %s: %w", date, entry.ID, err)
		}
		entry.Category = menu.NormalizeCategory(cat)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}
	return entries, nil
}

// Create inserts a history entry and returns it with its assigned ID.
func (r *HistoryRepository) Create(ctx context.Context, entry menu.HistoryEntry) (menu.HistoryEntry, error) {
	if strings.TrimSpace(entry.DishName) == "" {
		return menu.HistoryEntry{}, fmt.Errorf("dish name is required")
	}
	entry.ID = newID()
	entry.Date = menu.Day(entry.Date)
	entry.Category = menu.NormalizeCategory(string(entry.Category))

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO history_entries (id, dish_name, date, category, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.DishName, menu.FormatDate(entry.Date), string(entry.Category), formatTimestamp(r.now()))
	if err != nil {
		return menu.HistoryEntry{}, fmt.Errorf("failed to insert history entry: %w", err)
	}
	return entry, nil
}

// Purge deletes every history entry.
func (r *HistoryRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM history_entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge history: %w", err)
	}
	return res.RowsAffected()
}
