package preprocess

import (
	"context"
	"errors"
	"testing"
	"time"

	"dinner-aide/internal/menu"
)

type MockLogStore struct {
	Logs      []menu.RawLogEntry
	ListErr   error
	MarkErr   map[string]error
	Processed []string
}

func (m *MockLogStore) ListUnprocessed(ctx context.Context) ([]menu.RawLogEntry, error) {
	return m.Logs, m.ListErr
}

func (m *MockLogStore) MarkProcessed(ctx context.Context, id string) error {
	if err := m.MarkErr[id]; err != nil {
		return err
	}
	m.Processed = append(m.Processed, id)
	return nil
}

type MockHistoryWriter struct {
	Created []menu.HistoryEntry
	FailFor map[string]bool
}

func (m *MockHistoryWriter) Create(ctx context.Context, entry menu.HistoryEntry) (menu.HistoryEntry, error) {
	if m.FailFor[entry.DishName] {
		return menu.HistoryEntry{}, errors.New("insert failed")
	}
	entry.ID = "h" + entry.DishName
	m.Created = append(m.Created, entry)
	return entry, nil
}

type MockStructurer struct {
	Dishes map[string][]menu.Dish
	Errs   map[string]error
	Calls  []string
}

func (m *MockStructurer) Structure(ctx context.Context, freeText string, date time.Time) ([]menu.Dish, error) {
	m.Calls = append(m.Calls, freeText)
	if err := m.Errs[freeText]; err != nil {
		return nil, err
	}
	return m.Dishes[freeText], nil
}

func day(s string) time.Time {
	d, _ := menu.ParseDate(s)
	return d
}

func TestProcessAllUnprocessed(t *testing.T) {
	ctx := context.Background()

	t.Run("HappyPath", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{
			{ID: "r1", Date: day("2024-01-10"), FreeText: "kimchi nabe, ramen to finish"},
		}}
		history := &MockHistoryWriter{}
		structurer := &MockStructurer{Dishes: map[string][]menu.Dish{
			"kimchi nabe, ramen to finish": {
				{Name: "Kimchi nabe", Category: menu.CategoryMainDish},
				{Name: "Ramen", Category: "noodles"},
			},
		}}

		res := NewPipeline(logs, history, structurer, nil).ProcessAllUnprocessed(ctx)

		if res.ProcessedCount != 1 || res.CreatedCount != 2 || len(res.Errors) != 0 {
			t.Fatalf("Unexpected result %+v", res)
		}
		if len(logs.Processed) != 1 || logs.Processed[0] != "r1" {
			t.Errorf("Expected r1 marked processed, got %v", logs.Processed)
		}
		if history.Created[1].Category != menu.CategoryOther {
			t.Errorf("Expected unknown category normalized to Other, got %s", history.Created[1].Category)
		}
		if !history.Created[0].Date.Equal(day("2024-01-10")) {
			t.Errorf("History should carry the log date, got %v", history.Created[0].Date)
		}
	})

	t.Run("NothingToDo", func(t *testing.T) {
		structurer := &MockStructurer{}
		res := NewPipeline(&MockLogStore{}, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 0 || res.CreatedCount != 0 || len(res.Errors) != 0 {
			t.Errorf("Expected empty result, got %+v", res)
		}
		if len(structurer.Calls) != 0 {
			t.Error("Structurer should not be called")
		}
	})

	t.Run("FetchFailure", func(t *testing.T) {
		res := NewPipeline(&MockLogStore{ListErr: errors.New("db down")}, &MockHistoryWriter{}, &MockStructurer{}, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 0 || res.CreatedCount != 0 || len(res.Errors) != 1 {
			t.Errorf("Expected single error, got %+v", res)
		}
	})

	t.Run("BlankTextIsMarkedWithoutStructuring", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{{ID: "r1", Date: day("2024-01-10"), FreeText: "   "}}}
		structurer := &MockStructurer{}
		res := NewPipeline(logs, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 1 || res.CreatedCount != 0 {
			t.Errorf("Unexpected result %+v", res)
		}
		if len(structurer.Calls) != 0 {
			t.Error("Blank text should not reach the structurer")
		}
	})

	t.Run("ZeroDishesStillMarked", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{{ID: "r1", Date: day("2024-01-10"), FreeText: "???"}}}
		res := NewPipeline(logs, &MockHistoryWriter{}, &MockStructurer{}, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 1 || res.CreatedCount != 0 || len(res.Errors) != 0 {
			t.Errorf("Unexpected result %+v", res)
		}
		if len(logs.Processed) != 1 {
			t.Error("Log should be marked processed")
		}
	})

	t.Run("StructuringFailureLeavesLogUnprocessed", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{
			{ID: "r1", Date: day("2024-01-10"), FreeText: "curry"},
			{ID: "r2", Date: day("2024-01-11"), FreeText: "udon"},
		}}
		structurer := &MockStructurer{
			Errs:   map[string]error{"curry": errors.New("service unavailable")},
			Dishes: map[string][]menu.Dish{"udon": {{Name: "Udon", Category: menu.CategoryMainDish}}},
		}
		res := NewPipeline(logs, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 1 || res.CreatedCount != 1 || len(res.Errors) != 1 {
			t.Fatalf("Unexpected result %+v", res)
		}
		if len(logs.Processed) != 1 || logs.Processed[0] != "r2" {
			t.Errorf("Only r2 should be marked, got %v", logs.Processed)
		}
	})

	t.Run("PartialHistoryFailureDoesNotBlockMark", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{{ID: "r1", Date: day("2024-01-10"), FreeText: "a, b"}}}
		history := &MockHistoryWriter{FailFor: map[string]bool{"B": true}}
		structurer := &MockStructurer{Dishes: map[string][]menu.Dish{"a, b": {{Name: "A"}, {Name: "B"}}}}
		res := NewPipeline(logs, history, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 1 || res.CreatedCount != 1 || len(res.Errors) != 1 {
			t.Errorf("Unexpected result %+v", res)
		}
	})

	t.Run("MarkFailureCountsCreatedButNotProcessed", func(t *testing.T) {
		logs := &MockLogStore{
			Logs:    []menu.RawLogEntry{{ID: "r1", Date: day("2024-01-10"), FreeText: "curry"}},
			MarkErr: map[string]error{"r1": errors.New("locked")},
		}
		structurer := &MockStructurer{Dishes: map[string][]menu.Dish{"curry": {{Name: "Curry"}}}}
		res := NewPipeline(logs, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 0 || res.CreatedCount != 1 || len(res.Errors) != 1 {
			t.Errorf("Unexpected result %+v", res)
		}
	})

	t.Run("MissingIDIsFailure", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{{Date: day("2024-01-10"), FreeText: "curry"}}}
		structurer := &MockStructurer{}
		res := NewPipeline(logs, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if res.ProcessedCount != 0 || len(res.Errors) != 1 || len(structurer.Calls) != 0 {
			t.Errorf("Unexpected result %+v", res)
		}
	})

	t.Run("ProcessesInListedOrder", func(t *testing.T) {
		logs := &MockLogStore{Logs: []menu.RawLogEntry{
			{ID: "r1", Date: day("2024-01-09"), FreeText: "first"},
			{ID: "r2", Date: day("2024-01-10"), FreeText: "second"},
		}}
		structurer := &MockStructurer{}
		NewPipeline(logs, &MockHistoryWriter{}, structurer, nil).ProcessAllUnprocessed(ctx)
		if len(structurer.Calls) != 2 || structurer.Calls[0] != "first" || structurer.Calls[1] != "second" {
			t.Errorf("Unexpected order %v", structurer.Calls)
		}
	})
}

// memoryLogStore only lists logs that have not been marked.
type memoryLogStore struct {
	logs []menu.RawLogEntry
}

func (m *memoryLogStore) ListUnprocessed(ctx context.Context) ([]menu.RawLogEntry, error) {
	var out []menu.RawLogEntry
	for _, l := range m.logs {
		if !l.Processed {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memoryLogStore) MarkProcessed(ctx context.Context, id string) error {
	for i := range m.logs {
		if m.logs[i].ID == id {
			m.logs[i].Processed = true
			return nil
		}
	}
	return errors.New("not found")
}

func TestProcessAllUnprocessedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	logs := &memoryLogStore{logs: []menu.RawLogEntry{
		{ID: "r1", Date: day("2024-01-10"), FreeText: "curry"},
		{ID: "r2", Date: day("2024-01-11"), FreeText: ""},
	}}
	structurer := &MockStructurer{Dishes: map[string][]menu.Dish{"curry": {{Name: "Curry", Category: menu.CategoryMainDish}}}}
	p := NewPipeline(logs, &MockHistoryWriter{}, structurer, nil)

	first := p.ProcessAllUnprocessed(ctx)
	if first.ProcessedCount != 2 || first.CreatedCount != 1 {
		t.Fatalf("Unexpected first run %+v", first)
	}

	second := p.ProcessAllUnprocessed(ctx)
	if second.ProcessedCount != 0 || second.CreatedCount != 0 || len(second.Errors) != 0 {
		t.Errorf("Second run should be a no-op, got %+v", second)
	}
}
