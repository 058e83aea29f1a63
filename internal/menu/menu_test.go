package menu

import (
	"testing"
	"time"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
	}{
		{"MainDish", CategoryMainDish},
		{"main dish", CategoryMainDish},
		{"main_dish", CategoryMainDish},
		{"主菜", CategoryMainDish},
		{"SideDish", CategorySideDish},
		{"副菜", CategorySideDish},
		{"soup", CategorySoup},
		{"汁物", CategorySoup},
		{"Other", CategoryOther},
		{"dessert", CategoryOther},
		{"", CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeCategory(tt.in); got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
	}{
		{"Proposed", StatusProposed},
		{"confirmed", StatusConfirmed},
		{"確定", StatusConfirmed},
		{"EatingOut", StatusEatingOut},
		{"eating out", StatusEatingOut},
		{"外食・予定あり", StatusEatingOut},
		{"cancelled", StatusProposed},
		{"", StatusProposed},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeStatus(tt.in); got != tt.want {
				t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStatusIsCommitted(t *testing.T) {
	if StatusProposed.IsCommitted() {
		t.Error("Proposed should not be committed")
	}
	if !StatusConfirmed.IsCommitted() || !StatusEatingOut.IsCommitted() {
		t.Error("Confirmed and EatingOut should be committed")
	}
}

func TestDayAndParseDate(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)
	local := time.Date(2024, 1, 15, 23, 30, 0, 0, jst)

	day := Day(local)
	if FormatDate(day) != "2024-01-15" {
		t.Errorf("Expected 2024-01-15, got %s", FormatDate(day))
	}

	parsed, err := ParseDate(" 2024-01-15 ")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if !parsed.Equal(day) {
		t.Errorf("Expected %v, got %v", day, parsed)
	}

	if _, err := ParseDate("15/01/2024"); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("eating out"); !ok || s != StatusEatingOut {
		t.Errorf("ParseStatus(eating out) = %v, %v", s, ok)
	}
	if _, ok := ParseStatus("maybe"); ok {
		t.Error("Expected unknown status to be rejected")
	}
}
