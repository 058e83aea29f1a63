package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dinner-aide/internal/config"
	"dinner-aide/internal/logging"
	"dinner-aide/internal/menu"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type MockTransport struct {
	name string
	err  error
	sent []Message
}

func (m *MockTransport) Name() string { return m.name }

func (m *MockTransport) Send(_ context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type MockSender struct {
	texts     []string
	modes     []string
	failModes map[string]bool
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg := c.(tgbotapi.MessageConfig)
	m.texts = append(m.texts, msg.Text)
	m.modes = append(m.modes, msg.ParseMode)
	if m.failModes[msg.ParseMode] {
		return tgbotapi.Message{}, errors.New("Bad Request: can't parse entities")
	}
	return tgbotapi.Message{MessageID: len(m.texts)}, nil
}

func date(s string) time.Time {
	d, err := menu.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleEntries() []menu.ProposedEntry {
	return []menu.ProposedEntry{
		{DishName: "Miso soup", Date: date("2024-01-23"), Category: menu.CategorySoup, Status: menu.StatusProposed, ShoppingList: "miso, tofu"},
		{DishName: "Ginger pork", Date: date("2024-01-22"), Category: menu.CategoryMainDish, Status: menu.StatusConfirmed, ShoppingList: "pork, ginger, tofu"},
		{DishName: "Dinner out", Date: date("2024-01-24"), Category: menu.CategoryOther, Status: menu.StatusEatingOut},
	}
}

func TestWeeklySummaryMessage(t *testing.T) {
	msg := weeklySummaryMessage(sampleEntries(), date("2024-01-22"), date("2024-01-28"), "https://example.com/menu", ",")

	if msg.Title != "🍽️ Weekly menu (01/22 - 01/28)" {
		t.Errorf("Unexpected title %q", msg.Title)
	}
	if len(msg.Sections) != 4 {
		t.Fatalf("Expected 3 day sections plus shopping list, got %d: %v", len(msg.Sections), msg.Sections)
	}
	if !strings.HasPrefix(msg.Sections[0], "*01/22 (Mon)*") || !strings.Contains(msg.Sections[0], "• MainDish: Ginger pork ✅") {
		t.Errorf("Days should be sorted with status emoji, got %q", msg.Sections[0])
	}
	if !strings.Contains(msg.Sections[1], "• Soup: Miso soup 💡") {
		t.Errorf("Missing proposed dish, got %q", msg.Sections[1])
	}
	if !strings.Contains(msg.Sections[2], "🍽️") {
		t.Errorf("Missing eating out emoji, got %q", msg.Sections[2])
	}
	if msg.Sections[3] != "*🛒 Shopping list*\nginger, miso, pork, tofu" {
		t.Errorf("Unexpected shopping list %q", msg.Sections[3])
	}
	if msg.Link != "https://example.com/menu" {
		t.Errorf("Expected store link, got %q", msg.Link)
	}
}

func TestWeeklySummaryMessageEmpty(t *testing.T) {
	msg := weeklySummaryMessage(nil, date("2024-01-22"), date("2024-01-28"), "", ",")
	if len(msg.Sections) != 1 || msg.Sections[0] != "No dishes planned." {
		t.Errorf("Unexpected sections %v", msg.Sections)
	}
	if msg.Link != "" {
		t.Errorf("Expected no link, got %q", msg.Link)
	}
}

func TestDailyReminderMessage(t *testing.T) {
	t.Run("WithMenu", func(t *testing.T) {
		msg := dailyReminderMessage(date("2024-01-22"), sampleEntries()[1:2], "https://example.com/log")
		if !strings.Contains(msg.Sections[0], "*📋 Planned for 01/22 (Mon)*\n• MainDish: Ginger pork") {
			t.Errorf("Unexpected menu section %q", msg.Sections[0])
		}
		if msg.Link != "https://example.com/log" {
			t.Errorf("Expected log link, got %q", msg.Link)
		}
	})

	t.Run("NothingPlanned", func(t *testing.T) {
		msg := dailyReminderMessage(date("2024-01-22"), nil, "")
		if msg.Sections[0] != "*01/22 (Mon)*: nothing planned." {
			t.Errorf("Unexpected section %q", msg.Sections[0])
		}
	})
}

func TestErrorMessageEscapesBackticks(t *testing.T) {
	msg := errorMessage("bad `json`", "weekly run")
	if msg.Sections[0] != "*Context:* weekly run" {
		t.Errorf("Unexpected context section %q", msg.Sections[0])
	}
	if strings.Contains(msg.Sections[1], "`json`") || !strings.Contains(msg.Sections[1], "'json'") {
		t.Errorf("Backticks should be replaced, got %q", msg.Sections[1])
	}
}

func TestServiceDeliver(t *testing.T) {
	ctx := context.Background()

	t.Run("NoTransports", func(t *testing.T) {
		svc := NewService(nil, ",", logging.NewNop())
		if !svc.NotifyTest(ctx) {
			t.Error("Expected noop delivery to succeed")
		}
	})

	t.Run("AllSucceed", func(t *testing.T) {
		a, b := &MockTransport{name: "a"}, &MockTransport{name: "b"}
		svc := NewService([]Transport{a, b}, ",", logging.NewNop())
		if !svc.NotifySkipped(ctx, "all days already planned", "2024-01-22 - 2024-01-28") {
			t.Error("Expected delivery to succeed")
		}
		if len(a.sent) != 1 || len(b.sent) != 1 {
			t.Errorf("Expected both transports to receive the message")
		}
		if !strings.Contains(a.sent[0].Sections[0], "*Reason:* all days already planned") {
			t.Errorf("Unexpected section %q", a.sent[0].Sections[0])
		}
	})

	t.Run("OneFails", func(t *testing.T) {
		a := &MockTransport{name: "a", err: errors.New("boom")}
		b := &MockTransport{name: "b"}
		svc := NewService([]Transport{a, b}, ",", logging.NewNop())
		if svc.NotifyError(ctx, "boom", "") {
			t.Error("Expected false when a transport fails")
		}
		if len(b.sent) != 1 {
			t.Error("A failing transport should not stop the others")
		}
	})
}

func TestNewFromConfigWithoutChannels(t *testing.T) {
	svc, err := NewFromConfig(&config.Config{ShoppingDelimiter: ","}, logging.NewNop())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(svc.Channels()) != 0 {
		t.Errorf("Expected no channels, got %v", svc.Channels())
	}
}

func TestTelegramTransport(t *testing.T) {
	t.Run("RendersMarkdown", func(t *testing.T) {
		sender := &MockSender{}
		tr := NewTelegramTransport(sender, 42)
		err := tr.Send(context.Background(), Message{
			Title:    "Title",
			Sections: []string{"one", "two"},
			Link:     "https://example.com",
			LinkText: "Open",
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(sender.texts) != 1 {
			t.Fatalf("Expected 1 message, got %d", len(sender.texts))
		}
		want := "*Title*\n\none\n\ntwo\n\n[Open](https://example.com)"
		if sender.texts[0] != want {
			t.Errorf("Got %q, want %q", sender.texts[0], want)
		}
		if sender.modes[0] != tgbotapi.ModeMarkdown {
			t.Errorf("Expected Markdown parse mode, got %q", sender.modes[0])
		}
	})

	t.Run("FallsBackToPlainText", func(t *testing.T) {
		sender := &MockSender{failModes: map[string]bool{tgbotapi.ModeMarkdown: true}}
		tr := NewTelegramTransport(sender, 42)
		if err := tr.Send(context.Background(), Message{Title: "snake_case dish"}); err != nil {
			t.Fatalf("Expected plain text retry to succeed, got %v", err)
		}
		if len(sender.modes) != 2 || sender.modes[1] != "" {
			t.Errorf("Expected a plain text retry, got modes %v", sender.modes)
		}
	})

	t.Run("Fails", func(t *testing.T) {
		sender := &MockSender{failModes: map[string]bool{tgbotapi.ModeMarkdown: true, "": true}}
		tr := NewTelegramTransport(sender, 42)
		if err := tr.Send(context.Background(), Message{Title: "x"}); err == nil {
			t.Error("Expected error")
		}
	})
}

func TestSplitTelegram(t *testing.T) {
	big := strings.Repeat("a", telegramMessageLimit-10)
	chunks := splitTelegram([]string{big, "tail"})
	if len(chunks) != 2 || chunks[1] != "tail" {
		t.Errorf("Expected overflow to start a new message, got %d chunks", len(chunks))
	}
	if got := splitTelegram([]string{"a", "b"}); len(got) != 1 || got[0] != "a\n\nb" {
		t.Errorf("Unexpected chunks %v", got)
	}
}

func TestSlackTransport(t *testing.T) {
	var got slackPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("Failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr := NewSlackTransport(server.URL, time.Second)
	msg := weeklySummaryMessage(sampleEntries(), date("2024-01-22"), date("2024-01-28"), "https://example.com/menu", ",")
	if err := tr.Send(context.Background(), msg); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got.Text != "Weekly menu (01/22 - 01/28) is ready" {
		t.Errorf("Unexpected fallback %q", got.Text)
	}
	// header, divider, 4 sections, divider, link
	if len(got.Blocks) != 8 {
		t.Fatalf("Expected 8 blocks, got %d", len(got.Blocks))
	}
	if got.Blocks[0].Type != "header" || got.Blocks[0].Text.Type != "plain_text" {
		t.Errorf("Unexpected header block %+v", got.Blocks[0])
	}
	if got.Blocks[7].Text.Text != "<https://example.com/menu|📝 Review and edit the menu>" {
		t.Errorf("Unexpected link block %q", got.Blocks[7].Text.Text)
	}
}

func TestSlackTransportHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("invalid_token"))
	}))
	defer server.Close()

	tr := NewSlackTransport(server.URL, time.Second)
	err := tr.Send(context.Background(), testMessage())
	if err == nil || !strings.Contains(err.Error(), "status=403") {
		t.Errorf("Expected status error, got %v", err)
	}
}
