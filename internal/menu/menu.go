package menu

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a calendar day.
const DateLayout = "2006-01-02"

// Category classifies a dish.
type Category string

const (
	CategoryMainDish Category = "MainDish"
	CategorySideDish Category = "SideDish"
	CategorySoup     Category = "Soup"
	CategoryOther    Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryMainDish, CategorySideDish, CategorySoup, CategoryOther}

// Status is the lifecycle state of a planned dish.
type Status string

const (
	StatusProposed  Status = "Proposed"
	StatusConfirmed Status = "Confirmed"
	StatusEatingOut Status = "EatingOut"
)

// IsCommitted reports whether the status means a human has settled the day.
func (s Status) IsCommitted() bool {
	return s == StatusConfirmed || s == StatusEatingOut
}

var categoryAliases = map[string]Category{
	"maindish": CategoryMainDish,
	"main":     CategoryMainDish,
	"主菜":       CategoryMainDish,
	"sidedish": CategorySideDish,
	"side":     CategorySideDish,
	"副菜":       CategorySideDish,
	"soup":     CategorySoup,
	"汁物":       CategorySoup,
	"other":    CategoryOther,
	"その他":      CategoryOther,
}

var statusAliases = map[string]Status{
	"proposed":  StatusProposed,
	"提案":        StatusProposed,
	"confirmed": StatusConfirmed,
	"確定":        StatusConfirmed,
	"eatingout": StatusEatingOut,
	"外食":        StatusEatingOut,
	"外食・予定あり":   StatusEatingOut,
}

// NormalizeCategory maps a free-form label onto a Category. Unknown labels become Other.
func NormalizeCategory(raw string) Category {
	if c, ok := categoryAliases[foldLabel(raw)]; ok {
		return c
	}
	return CategoryOther
}

// NormalizeStatus maps a free-form label onto a Status. Unknown labels become Proposed.
func NormalizeStatus(raw string) Status {
	if s, ok := statusAliases[foldLabel(raw)]; ok {
		return s
	}
	return StatusProposed
}

// ParseStatus is the strict form of NormalizeStatus: ok is false for labels
// that match no status.
func ParseStatus(raw string) (Status, bool) {
	s, ok := statusAliases[foldLabel(raw)]
	return s, ok
}

func foldLabel(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ProposedEntry is one dish planned for one day.
type ProposedEntry struct {
	ID           string
	DishName     string
	Date         time.Time
	Category     Category
	Status       Status
	ShoppingList string
}

// RawLogEntry is a free-text record of what was eaten on a day.
type RawLogEntry struct {
	ID        string
	Date      time.Time
	FreeText  string
	Processed bool
}

// HistoryEntry is one structured dish derived from a raw log.
type HistoryEntry struct {
	ID       string
	DishName string
	Date     time.Time
	Category Category
}

// Dish is a (name, category) pair produced by structuring free text.
type Dish struct {
	Name     string
	Category Category
}

// PlanRequest is the context handed to the generative service when filling
// empty days of a window.
type PlanRequest struct {
	Dates        []time.Time
	Existing     []ProposedEntry
	History      []HistoryEntry
	HistoryWeeks int
}

// Day truncates t to its calendar date, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
