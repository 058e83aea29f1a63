package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dinner-aide/internal/menu"
)

// RawLogRepository persists free-text meal logs.
type RawLogRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRawLogRepository creates a new RawLogRepository.
func NewRawLogRepository(db *sql.DB) *RawLogRepository {
	return &RawLogRepository{db: db, now: time.Now}
}

// ListUnprocessed returns every log not yet structured, oldest day first.
func (r *RawLogRepository) ListUnprocessed(ctx context.Context) ([]menu.RawLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, free_text, processed FROM raw_logs WHERE processed = 0 ORDER BY date, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed logs: %w", err)
	}
	defer rows.Close()

	var logs []menu.RawLogEntry
	for rows.Next() {
		var (
			entry     menu.RawLogEntry
			date      string
			processed int
		)
		if err := rows.Scan(&entry.ID, &date, &entry.FreeText, &processed); err != nil {
			return nil, fmt.Errorf("failed to scan raw log: %w", err)
		}
		if entry.Date, err = parseDay(date); err != nil {
			return nil, fmt.Errorf("invalid date %q on raw log %s: %w", date, entry.ID, err)
		}
		entry.Processed = processed != 0
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate raw logs: %w", err)
	}
	return logs, nil
}

// MarkProcessed flags a log as structured.
func (r *RawLogRepository) MarkProcessed(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE raw_logs SET processed = 1, processed_at = ? WHERE id = ?`,
		formatTimestamp(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark raw log %s processed: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark raw log %s processed: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Create stores a new unprocessed log for date.
func (r *RawLogRepository) Create(ctx context.Context, date time.Time, freeText string) (menu.RawLogEntry, error) {
	entry := menu.RawLogEntry{
		ID:       newID(),
		Date:     menu.Day(date),
		FreeText: freeText,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO raw_logs (id, date, free_text, processed, created_at) VALUES (?, ?, ?, 0, ?)`,
		entry.ID, menu.FormatDate(entry.Date), entry.FreeText, formatTimestamp(r.now()))
	if err != nil {
		return menu.RawLogEntry{}, fmt.Errorf("failed to insert raw log: %w", err)
	}
	return entry, nil
}

// Purge deletes every raw log.
func (r *RawLogRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM raw_logs`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge raw logs: %w", err)
	}
	return res.RowsAffected()
}
