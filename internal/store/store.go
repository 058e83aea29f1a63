package store

import (
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"dinner-aide/internal/menu"
)

// ErrNotFound is returned when a record does not exist or has been archived.
var ErrNotFound = errors.New("record not found")

// timestampLayout is fixed width so stored timestamps sort as strings.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func newID() string {
	return ulid.Make().String()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseDay(raw string) (time.Time, error) {
	return menu.ParseDate(raw)
}
