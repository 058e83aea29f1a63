package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"dinner-aide/internal/menu"
	"dinner-aide/internal/shopping"
)

var statusEmoji = map[menu.Status]string{
	menu.StatusProposed:  "💡",
	menu.StatusConfirmed: "✅",
	menu.StatusEatingOut: "🍽️",
}

// displayDate renders a day as "01/22 (Mon)".
func displayDate(d time.Time) string {
	return d.Format("01/02 (Mon)")
}

func weeklySummaryMessage(entries []menu.ProposedEntry, start, end time.Time, storeLink, delimiter string) Message {
	span := fmt.Sprintf("%s - %s", start.Format("01/02"), end.Format("01/02"))
	msg := Message{
		Title:    fmt.Sprintf("🍽️ Weekly menu (%s)", span),
		Fallback: fmt.Sprintf("Weekly menu (%s) is ready", span),
	}

	byDate := make(map[string][]menu.ProposedEntry)
	for _, e := range entries {
		key := menu.FormatDate(e.Date)
		byDate[key] = append(byDate[key], e)
	}
	dates := make([]string, 0, len(byDate))
	for k := range byDate {
		dates = append(dates, k)
	}
	sort.Strings(dates)

	for _, k := range dates {
		var b strings.Builder
		b.WriteString("*" + displayDate(byDate[k][0].Date) + "*")
		for _, e := range byDate[k] {
			line := fmt.Sprintf("\n• %s: %s", e.Category, e.DishName)
			if emoji := statusEmoji[e.Status]; emoji != "" {
				line += " " + emoji
			}
			b.WriteString(line)
		}
		msg.Sections = append(msg.Sections, b.String())
	}
	if len(dates) == 0 {
		msg.Sections = append(msg.Sections, "No dishes planned.")
	}

	if items := shopping.Aggregate(entries, delimiter); len(items) > 0 {
		msg.Sections = append(msg.Sections, "*🛒 Shopping list*\n"+strings.Join(items, ", "))
	}

	if storeLink != "" {
		msg.Link = storeLink
		msg.LinkText = "📝 Review and edit the menu"
	}
	return msg
}

func skippedMessage(reason, windowLabel string) Message {
	return Message{
		Title:    "📌 Menu generation skipped",
		Fallback: "Menu generation skipped: " + reason,
		Sections: []string{fmt.Sprintf("*Window:* %s\n*Reason:* %s", windowLabel, reason)},
	}
}

func dailyReminderMessage(date time.Time, entries []menu.ProposedEntry, logLink string) Message {
	day := displayDate(date)
	msg := Message{
		Title:    "🍴 How was dinner today?",
		Fallback: fmt.Sprintf("Log what you ate today (%s)", day),
	}

	if len(entries) > 0 {
		var b strings.Builder
		b.WriteString(fmt.Sprintf("*📋 Planned for %s*", day))
		for _, e := range entries {
			b.WriteString(fmt.Sprintf("\n• %s: %s", e.Category, e.DishName))
		}
		msg.Sections = append(msg.Sections, b.String())
	} else {
		msg.Sections = append(msg.Sections, fmt.Sprintf("*%s*: nothing planned.", day))
	}

	msg.Sections = append(msg.Sections, "Record what you actually ate!")
	if logLink != "" {
		msg.Link = logLink
		msg.LinkText = "📝 Log today's dinner"
	}
	return msg
}

func errorMessage(message, contextLabel string) Message {
	msg := Message{
		Title:    "⚠️ dinner-aide error",
		Fallback: "dinner-aide error: " + message,
	}
	if contextLabel != "" {
		msg.Sections = append(msg.Sections, "*Context:* "+contextLabel)
	}
	safe := strings.ReplaceAll(message, "`", "'")
	msg.Sections = append(msg.Sections, "*Error:*\n```\n"+safe+"\n```")
	return msg
}

func testMessage() Message {
	return Message{
		Title:    "🔧 dinner-aide connection test",
		Fallback: "🔧 dinner-aide connection test: working",
		Sections: []string{"Notifications are working."},
	}
}
