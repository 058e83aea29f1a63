package telegram

import (
	"fmt"
	"strings"
	"time"

	"dinner-aide/internal/menu"
	"dinner-aide/internal/metrics"
	"dinner-aide/internal/planner"
)

var statusEmoji = map[menu.Status]string{
	menu.StatusProposed:  "💡",
	menu.StatusConfirmed: "✅",
	menu.StatusEatingOut: "🍽️",
}

func displayDate(d time.Time) string {
	return d.Format("01/02 (Mon)")
}

func writeEntry(sb *strings.Builder, e menu.ProposedEntry) {
	sb.WriteString(fmt.Sprintf("• %s: %s %s\n", e.Category, e.DishName, statusEmoji[e.Status]))
	if e.Status == menu.StatusProposed {
		sb.WriteString(fmt.Sprintf("  `%s`\n", e.ID))
	}
}

func formatDay(day time.Time, entries []menu.ProposedEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *%s*\n\n", displayDate(day)))
	if len(entries) == 0 {
		sb.WriteString("_Nothing planned._\n")
		return sb.String()
	}
	for _, e := range entries {
		writeEntry(&sb, e)
	}
	return sb.String()
}

// formatWeek lists every day of w, including days with nothing planned.
func formatWeek(w planner.Window, entries []menu.ProposedEntry) string {
	byDate := make(map[string][]menu.ProposedEntry)
	for _, e := range entries {
		key := menu.FormatDate(e.Date)
		byDate[key] = append(byDate[key], e)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 *Menu %s - %s*\n", w.Start.Format("01/02"), w.End.Format("01/02")))
	for _, d := range w.Dates() {
		sb.WriteString(fmt.Sprintf("\n*%s*\n", displayDate(d)))
		day := byDate[menu.FormatDate(d)]
		if len(day) == 0 {
			sb.WriteString("_Nothing planned._\n")
			continue
		}
		for _, e := range day {
			writeEntry(&sb, e)
		}
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.Health) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDirSize))
	return sb.String()
}
