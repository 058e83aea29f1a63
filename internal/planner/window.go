package planner

import (
	"fmt"
	"strings"
	"time"

	"dinner-aide/internal/menu"
)

// WindowMode selects how a scheduling window is derived from a reference date.
type WindowMode string

const (
	// ModeNextWeek is the Monday to Sunday strictly after the reference date.
	ModeNextWeek WindowMode = "next-week"
	// ModeRolling is the reference date and the six days after it.
	ModeRolling WindowMode = "rolling"
)

// ParseMode parses a window mode name.
func ParseMode(s string) (WindowMode, error) {
	switch WindowMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeNextWeek, "":
		return ModeNextWeek, nil
	case ModeRolling:
		return ModeRolling, nil
	default:
		return "", fmt.Errorf("unknown window mode %q", s)
	}
}

// Window is a contiguous, inclusive range of seven calendar days.
type Window struct {
	Start time.Time
	End   time.Time
	Mode  WindowMode
}

// GetNextMonday returns the first Monday strictly after t, as a calendar day.
func GetNextMonday(t time.Time) time.Time {
	d := menu.Day(t)
	offset := (int(time.Monday) - int(d.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	return d.AddDate(0, 0, offset)
}

// ResolveWindow derives the scheduling window for ref.
func ResolveWindow(ref time.Time, mode WindowMode) Window {
	start := menu.Day(ref)
	if mode == ModeNextWeek {
		start = GetNextMonday(ref)
	}
	return Window{Start: start, End: start.AddDate(0, 0, 6), Mode: mode}
}

// Dates lists every day in the window in order.
func (w Window) Dates() []time.Time {
	var dates []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	day := menu.Day(d)
	return !day.Before(w.Start) && !day.After(w.End)
}

// Label renders the window for humans, e.g. "2024-01-15 - 2024-01-21".
func (w Window) Label() string {
	return fmt.Sprintf("%s - %s", menu.FormatDate(w.Start), menu.FormatDate(w.End))
}
