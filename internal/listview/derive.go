// Package listview turns the raw todo collection plus the current view state
// into the visible page, and owns the optimistic completion toggle.
package listview

import (
	"sort"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

type Result struct {
	Items      []model.Todo
	Total      int
	Page       int
	PageSize   int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// Start is the 1-based position of the first visible item, zero when empty.
func (r Result) Start() int {
	if len(r.Items) == 0 {
		return 0
	}
	return (r.Page-1)*r.PageSize + 1
}

func (r Result) End() int {
	if len(r.Items) == 0 {
		return 0
	}
	return r.Start() + len(r.Items) - 1
}

// Derive filters, sorts and paginates todos. The input slice is never
// modified and the page in the result is clamped to the available range.
func Derive(todos []model.Todo, state model.ViewState) Result {
	size := state.PageSize
	if !model.ValidPageSize(size) {
		size = model.DefaultPageSize
	}

	items := Sorted(Filter(todos, state.Query, state.Sort), state.Sort)
	total := len(items)
	pages := TotalPages(total, size)
	page := ClampPage(state.Page, pages)

	start := (page - 1) * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Result{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
		HasPrev:    page > 1,
		HasNext:    page < pages,
	}
}

// Filter keeps todos whose title contains query, ignoring case. A blank
// query matches everything; any other query is matched as typed, spaces
// included. With the completed sort only completed todos survive. The result
// is a new slice.
func Filter(todos []model.Todo, query string, order model.SortOrder) []model.Todo {
	needle := ""
	if strings.TrimSpace(query) != "" {
		needle = strings.ToLower(query)
	}
	out := make([]model.Todo, 0, len(todos))
	for _, todo := range todos {
		if needle != "" && !strings.Contains(strings.ToLower(todo.Title), needle) {
			continue
		}
		if order == model.SortCompleted && !todo.Completed {
			continue
		}
		out = append(out, todo)
	}
	return out
}

// Sorted orders todos by creation time in place and returns them. Equal
// times fall back to the id so newest and oldest are exact reverses. The
// completed order keeps input order.
func Sorted(todos []model.Todo, order model.SortOrder) []model.Todo {
	switch order {
	case model.SortOldest:
		sort.SliceStable(todos, func(i, j int) bool {
			a, b := todos[i].CreatedUnix(), todos[j].CreatedUnix()
			if a != b {
				return a < b
			}
			return todos[i].ID < todos[j].ID
		})
	case model.SortCompleted:
	default:
		sort.SliceStable(todos, func(i, j int) bool {
			a, b := todos[i].CreatedUnix(), todos[j].CreatedUnix()
			if a != b {
				return a > b
			}
			return todos[i].ID > todos[j].ID
		})
	}
	return todos
}

func TotalPages(count, size int) int {
	if size <= 0 || count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// PageNumbers lays out the paginator. Zero entries stand for an ellipsis.
// Up to seven pages are listed in full; beyond that the first two and last
// two stay visible around a window on the current page.
func PageNumbers(page, pageCount int) []int {
	if pageCount <= 0 {
		return nil
	}
	page = ClampPage(page, pageCount)

	if pageCount <= 7 {
		out := make([]int, 0, pageCount)
		for i := 1; i <= pageCount; i++ {
			out = append(out, i)
		}
		return out
	}

	out := []int{1, 2}
	switch {
	case page <= 3:
		out = append(out, 3, 0)
	case page >= pageCount-2:
		out = append(out, 0, pageCount-2)
	default:
		out = append(out, 0, page, 0)
	}
	return append(out, pageCount-1, pageCount)
}
