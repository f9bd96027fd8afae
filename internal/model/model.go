package model

import (
	"fmt"
	"strings"
	"time"
)

type Todo struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// CreatedUnix returns the creation time in nanoseconds, zero when unknown.
func (t Todo) CreatedUnix() int64 {
	if t.CreatedAt == nil {
		return 0
	}
	return t.CreatedAt.UnixNano()
}

// TimestampLayout is used wherever a full date is shown next to a todo.
const TimestampLayout = "January 02, 2006 15:04:05"

// FormatTimestamp renders ts in local time, "N/A" when unknown.
func FormatTimestamp(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return "N/A"
	}
	return ts.Local().Format(TimestampLayout)
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type Session struct {
	JWT  string `json:"jwt"`
	User User   `json:"user"`
}

type SortOrder string

const (
	SortNewest    SortOrder = "desc"
	SortOldest    SortOrder = "asc"
	SortCompleted SortOrder = "completed"
)

var SortOrders = []SortOrder{SortNewest, SortOldest, SortCompleted}

func ParseSortOrder(value string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(value))) {
	case "", SortNewest, "latest":
		return SortNewest, nil
	case SortOldest, "oldest":
		return SortOldest, nil
	case SortCompleted:
		return SortCompleted, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want desc, asc or completed)", value)
}

func (s SortOrder) Label() string {
	switch s {
	case SortOldest:
		return "Oldest"
	case SortCompleted:
		return "Completed"
	default:
		return "Latest"
	}
}

// Next cycles through SortOrders.
func (s SortOrder) Next() SortOrder {
	for i, order := range SortOrders {
		if order == s {
			return SortOrders[(i+1)%len(SortOrders)]
		}
	}
	return SortNewest
}

const DefaultPageSize = 10

var PageSizes = []int{10, 25, 50, 100}

func ValidPageSize(size int) bool {
	for _, candidate := range PageSizes {
		if candidate == size {
			return true
		}
	}
	return false
}

func NextPageSize(size int) int {
	for i, candidate := range PageSizes {
		if candidate == size {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return DefaultPageSize
}

type ViewState struct {
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
	Sort     SortOrder `json:"sort"`
	Query    string    `json:"query"`
}

func DefaultViewState() ViewState {
	return ViewState{Page: 1, PageSize: DefaultPageSize, Sort: SortNewest}
}

type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func DraftFromTodo(todo Todo) Draft {
	return Draft{Title: todo.Title, Description: todo.Description}
}

func (d Draft) Trimmed() Draft {
	return Draft{Title: strings.TrimSpace(d.Title), Description: strings.TrimSpace(d.Description)}
}
