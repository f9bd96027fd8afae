// Package notify keeps the short-lived success and error notices shown at the
// bottom of the screen.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/google/uuid"
)

const (
	SuccessDuration = 2 * time.Second
	ErrorDuration   = 4 * time.Second
)

// Notifier is what the list engine and the modals report outcomes to.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

type Toast struct {
	ID        string
	Level     Level
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Center struct {
	mu       sync.Mutex
	toasts   []Toast
	now      func() time.Time
	logger   *logging.Logger
	onChange func()
}

func NewCenter(logger *logging.Logger) *Center {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Center{now: time.Now, logger: logger}
}

// OnChange registers a callback run after each new toast, outside the lock.
func (c *Center) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Center) Success(message string) {
	c.logger.Infof("notify: %s", message)
	c.push(LevelSuccess, message, SuccessDuration)
}

func (c *Center) Error(message string) {
	c.logger.Warnf("notify: %s", message)
	c.push(LevelError, message, ErrorDuration)
}

func (c *Center) push(level Level, message string, ttl time.Duration) {
	c.mu.Lock()
	now := c.now()
	c.toasts = append(c.toasts, Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

// Active returns the toasts still visible at now, newest first.
func (c *Center) Active(now time.Time) []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()

	active := make([]Toast, 0, len(c.toasts))
	for _, toast := range c.toasts {
		if now.Before(toast.ExpiresAt) {
			active = append(active, toast)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active
}

// Prune drops expired toasts and reports how many were removed.
func (c *Center) Prune(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.toasts[:0]
	for _, toast := range c.toasts {
		if now.Before(toast.ExpiresAt) {
			kept = append(kept, toast)
		}
	}
	removed := len(c.toasts) - len(kept)
	c.toasts = kept
	return removed
}

// Dismiss removes a toast before it expires.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, toast := range c.toasts {
		if toast.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Recorder collects messages in memory. Used by tests and by the CLI, which
// prints outcomes instead of showing toasts.
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(message string) {
	r.mu.Lock()
	r.Successes = append(r.Successes, message)
	r.mu.Unlock()
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	r.Errors = append(r.Errors, message)
	r.mu.Unlock()
}
