package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"dinner-aide/internal/database"
	"dinner-aide/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "metrics.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestRecordAndDailyUsage(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	records := []ExecutionMetric{
		{AgentName: "chef.menu", Model: "m", PromptTokens: 100, CompletionTokens: 50, Timestamp: now},
		{AgentName: "chef.structure", Model: "m", PromptTokens: 10, CompletionTokens: 5, Timestamp: now},
		{AgentName: "chef.menu", Model: "m", PromptTokens: 1, CompletionTokens: 1, Timestamp: now.AddDate(0, 0, -30)},
	}
	for _, r := range records {
		if err := s.Record(r); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	usage, err := s.GetDailyUsage(7)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("Expected 1 day of usage, got %d", len(usage))
	}
	u := usage[0]
	if u.Date != now.Format("2006-01-02") || u.TotalPrompt != 110 || u.TotalCompletion != 55 || u.TotalExecution != 2 {
		t.Errorf("Unexpected usage %+v", u)
	}
}

func TestRecordMetaSkipsEmptyUsage(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordMeta(shared.AgentMeta{AgentName: "chef.menu"}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}
	if err := s.RecordMeta(shared.AgentMeta{
		AgentName: "chef.menu",
		Usage:     shared.TokenUsage{Model: "m", PromptTokens: 3, CompletionTokens: 4},
		Latency:   250 * time.Millisecond,
	}); err != nil {
		t.Fatalf("RecordMeta failed: %v", err)
	}

	usage, err := s.GetDailyUsage(1)
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(usage) != 1 || usage[0].TotalExecution != 1 {
		t.Errorf("Expected only the call with usage to be recorded, got %+v", usage)
	}
}

func TestCleanup(t *testing.T) {
	s := newTestStore(t)
	now := time.Now().UTC()
	_ = s.Record(ExecutionMetric{AgentName: "old", Timestamp: now.AddDate(0, 0, -40)})
	_ = s.Record(ExecutionMetric{AgentName: "older", Timestamp: now.AddDate(0, 0, -90)})
	_ = s.Record(ExecutionMetric{AgentName: "fresh", Timestamp: now})

	n, err := s.Cleanup(30)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 rows removed, got %d", n)
	}

	usage, _ := s.GetDailyUsage(365)
	if len(usage) != 1 || usage[0].TotalExecution != 1 {
		t.Errorf("Expected only the fresh row to remain, got %+v", usage)
	}
}

func TestCollectHealth(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.db"), make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}

	h := CollectHealth(dir)
	if h.DataDirSize != "2.0 KB" {
		t.Errorf("Expected 2.0 KB, got %s", h.DataDirSize)
	}
	if h.Goroutines < 1 {
		t.Errorf("Expected at least one goroutine, got %d", h.Goroutines)
	}
}

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.in); got != tt.want {
			t.Errorf("humanBytes(%d) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
