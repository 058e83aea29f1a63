package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dinner-aide/internal/menu"
)

// ProposedRepository persists planned dishes.
type ProposedRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProposedRepository creates a new ProposedRepository.
func NewProposedRepository(db *sql.DB) *ProposedRepository {
	return &ProposedRepository{db: db, now: time.Now}
}

const proposedColumns = `id, dish_name, date, category, status, shopping_list`

// ListByDateRange returns live entries dated within [start, end], optionally
// restricted to the given statuses, ordered by date.
func (r *ProposedRepository) ListByDateRange(ctx context.Context, start, end time.Time, statuses ...menu.Status) ([]menu.ProposedEntry, error) {
	query := `SELECT ` + proposedColumns + ` FROM proposed_entries
		WHERE archived_at IS NULL AND date >= ? AND date <= ?`
	args := []any{menu.FormatDate(start), menu.FormatDate(end)}

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY date, created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposed entries: %w", err)
	}
	defer rows.Close()

	var entries []menu.ProposedEntry
	for rows.Next() {
		entry, err := scanProposed(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proposed entries: %w", err)
	}
	return entries, nil
}

// ListByDate returns live entries for a single day.
func (r *ProposedRepository) ListByDate(ctx context.Context, date time.Time) ([]menu.ProposedEntry, error) {
	return r.ListByDateRange(ctx, date, date)
}

// Get retrieves a live entry by ID.
func (r *ProposedRepository) Get(ctx context.Context, id string) (menu.ProposedEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+proposedColumns+` FROM proposed_entries WHERE id = ? AND archived_at IS NULL`, id)
	entry, err := scanProposed(row)
	if err == sql.ErrNoRows {
		return menu.ProposedEntry{}, ErrNotFound
	}
	return entry, err
}

// Create inserts a new entry and returns it with its assigned ID.
func (r *ProposedRepository) Create(ctx context.Context, entry menu.ProposedEntry) (menu.ProposedEntry, error) {
	if strings.TrimSpace(entry.DishName) == "" {
		return menu.ProposedEntry{}, fmt.Errorf("dish name is required")
	}
	if entry.Date.IsZero() {
		return menu.ProposedEntry{}, fmt.Errorf("date is required")
	}

	entry.ID = newID()
	entry.Date = menu.Day(entry.Date)
	entry.Category = menu.NormalizeCategory(string(entry.Category))
	entry.Status = menu.NormalizeStatus(string(entry.Status))
	now := formatTimestamp(r.now())

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO proposed_entries (id, dish_name, date, category, status, shopping_list, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DishName, menu.FormatDate(entry.Date), string(entry.Category),
		string(entry.Status), entry.ShoppingList, now, now,
	)
	if err != nil {
		return menu.ProposedEntry{}, fmt.Errorf("failed to insert proposed entry: %w", err)
	}
	return entry, nil
}

// UpdateStatus moves a live entry to a new status.
func (r *ProposedRepository) UpdateStatus(ctx context.Context, id string, status menu.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposed_entries SET status = ?, updated_at = ? WHERE id = ? AND archived_at IS NULL`,
		string(status), formatTimestamp(r.now()), id)
	if err != nil {
		return fmt.Errorf("failed to update status of %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update status of %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Archive soft-deletes an entry. It reports false when no live entry matched.
func (r *ProposedRepository) Archive(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE proposed_entries SET archived_at = ? WHERE id = ? AND archived_at IS NULL`,
		formatTimestamp(r.now()), id)
	if err != nil {
		return false, fmt.Errorf("failed to archive %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to archive %s: %w", id, err)
	}
	return n > 0, nil
}

// Purge deletes every proposed entry, archived or not.
func (r *ProposedRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposed_entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge proposed entries: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProposed(row rowScanner) (menu.ProposedEntry, error) {
	var (
		entry              menu.ProposedEntry
		date, cat, status string
	)
	if err := row.Scan(&entry.ID, &entry.DishName, &date, &cat, &status, &entry.ShoppingList); err != nil {
		if err == sql.ErrNoRows {
			return entry, err
		}
		return entry, fmt.Errorf("failed to scan proposed entry: %w", err)
	}
	d, err := parseDay(date)
	if err != nil {
		return entry, fmt.Errorf("invalid date %q on proposed entry %s: %w", date, entry.ID, err)
	}
	entry.Date = d
	entry.Category = menu.NormalizeCategory(cat)
	entry.Status = menu.NormalizeStatus(status)
	return entry, nil
}
