package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/dustin/go-humanize"
)

func checkbox(todo model.Todo) string {
	if todo.Completed {
		return "[x]"
	}
	return "[ ]"
}

func formatAge(ts *time.Time, now time.Time) string {
	if ts == nil || ts.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(*ts, now, "ago", "from now")
}

func formatTodoRow(todo model.Todo, now time.Time, width int) string {
	age := "created " + formatAge(todo.CreatedAt, now)
	title := todo.Title
	room := width - len(age) - 8
	if room < 10 {
		room = 10
	}
	if runes := []rune(title); len(runes) > room {
		title = string(runes[:room-1]) + "…"
	}
	gap := width - len([]rune(title)) - len(age) - 6
	if gap < 1 {
		gap = 1
	}
	return fmt.Sprintf("%s %s%s%s", checkbox(todo), title, strings.Repeat(" ", gap), age)
}

// formatPaginator renders the page numbers with the current page in brackets.
func formatPaginator(result listview.Result) string {
	if result.TotalPages <= 1 {
		return ""
	}
	parts := make([]string, 0, 10)
	if result.HasPrev {
		parts = append(parts, "‹ prev")
	}
	for _, page := range listview.PageNumbers(result.Page, result.TotalPages) {
		switch {
		case page == 0:
			parts = append(parts, "…")
		case page == result.Page:
			parts = append(parts, "["+strconv.Itoa(page)+"]")
		default:
			parts = append(parts, strconv.Itoa(page))
		}
	}
	if result.HasNext {
		parts = append(parts, "next ›")
	}
	return strings.Join(parts, " ")
}

func formatRange(result listview.Result) string {
	if result.Total == 0 {
		return "0 records"
	}
	return fmt.Sprintf("Showing %d to %d of %s records", result.Start(), result.End(), humanize.Comma(int64(result.Total)))
}

func formatToast(toast notify.Toast) string {
	if toast.Level == notify.LevelError {
		return "✗ " + toast.Message
	}
	return "✓ " + toast.Message
}
