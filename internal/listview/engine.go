package listview

import (
	"context"
	"errors"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
)

var (
	ErrBusy     = errors.New("todo is already being updated")
	ErrNotFound = errors.New("todo not found")
)

type Fetcher interface {
	FetchTodos(ctx context.Context) ([]model.Todo, error)
}

type Updater interface {
	SetCompleted(ctx context.Context, id int64, completed bool) (model.Todo, error)
}

// Engine holds the working set of todos for the list screen together with
// the view state. All methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	fetcher  Fetcher
	updater  Updater
	notifier notify.Notifier
	logger   *logging.Logger

	todos    []model.Todo
	state    model.ViewState
	version  int
	loading  int
	loaded   bool
	toggling map[int64]bool
	onChange func()
}

func New(fetcher Fetcher, updater Updater, notifier notify.Notifier, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		fetcher:  fetcher,
		updater:  updater,
		notifier: notifier,
		logger:   logger,
		state:    model.DefaultViewState(),
		version:  1,
		toggling: map[int64]bool{},
	}
}

// OnChange registers a callback run after the collection or the loading
// flag changes. It runs without the engine lock held.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.onChange = fn
	e.mu.Unlock()
}

func (e *Engine) changed() {
	e.mu.Lock()
	fn := e.onChange
	e.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (e *Engine) Version() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading > 0
}

// Loaded reports whether at least one fetch has completed.
func (e *Engine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

// Refresh replaces the collection with the fetcher's answer. Whichever fetch
// completes last wins. On failure the previous collection is kept.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	e.loading++
	version := e.version
	e.mu.Unlock()
	e.changed()

	todos, err := e.fetcher.FetchTodos(ctx)

	e.mu.Lock()
	e.loading--
	if err == nil {
		e.todos = append([]model.Todo(nil), todos...)
		e.loaded = true
	}
	count := len(e.todos)
	e.mu.Unlock()
	e.changed()

	if err != nil {
		e.logger.Warnf("fetch todos (version %d): %v", version, err)
		e.notify(false, api.Message(err))
		return err
	}
	e.logger.Debugf("fetched %d todos (version %d)", count, version)
	return nil
}

// Invalidate marks the current collection stale and refetches it.
func (e *Engine) Invalidate(ctx context.Context) error {
	e.mu.Lock()
	e.version++
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// Toggle flips the completed flag of one todo. The local copy changes
// immediately; a failed update puts the previous value back.
func (e *Engine) Toggle(ctx context.Context, id int64) error {
	e.mu.Lock()
	idx := e.indexOf(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrNotFound
	}
	if e.toggling[id] {
		e.mu.Unlock()
		return ErrBusy
	}
	previous := e.todos[idx].Completed
	e.todos[idx].Completed = !previous
	e.toggling[id] = true
	e.mu.Unlock()
	e.changed()

	updated, err := e.updater.SetCompleted(ctx, id, !previous)

	e.mu.Lock()
	delete(e.toggling, id)
	if idx := e.indexOf(id); idx >= 0 {
		if err != nil {
			e.todos[idx].Completed = previous
		} else {
			e.todos[idx] = reconcile(e.todos[idx], updated)
		}
	}
	e.mu.Unlock()
	e.changed()

	if err != nil {
		e.logger.Warnf("toggle todo %d: %v", id, err)
		e.notify(false, api.Message(err))
		return err
	}

	if !previous {
		e.notify(true, "Todo marked as completed")
	} else {
		e.notify(true, "Todo marked as incomplete")
	}
	if err := e.Invalidate(ctx); err != nil {
		e.logger.Debugf("refetch after toggle %d: %v", id, err)
	}
	return nil
}

// Toggling reports whether an update for id is in flight.
func (e *Engine) Toggling(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.toggling[id]
}

// reconcile takes the server's copy but keeps local fields the update
// response left out.
func reconcile(local, server model.Todo) model.Todo {
	if server.ID == 0 {
		return local
	}
	if server.Title == "" {
		server.Title = local.Title
		server.Description = local.Description
	}
	if server.CreatedAt == nil {
		server.CreatedAt = local.CreatedAt
	}
	if server.UpdatedAt == nil {
		server.UpdatedAt = local.UpdatedAt
	}
	return server
}

func (e *Engine) notify(success bool, message string) {
	if e.notifier == nil {
		return
	}
	if success {
		e.notifier.Success(message)
	} else {
		e.notifier.Error(message)
	}
}

func (e *Engine) indexOf(id int64) int {
	for i, todo := range e.todos {
		if todo.ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) Todos() []model.Todo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Todo(nil), e.todos...)
}

func (e *Engine) Find(id int64) (model.Todo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx := e.indexOf(id); idx >= 0 {
		return e.todos[idx], true
	}
	return model.Todo{}, false
}

func (e *Engine) State() model.ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// View derives the visible page and stores the clamped page number back.
func (e *Engine) View() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deriveLocked()
}

func (e *Engine) deriveLocked() Result {
	result := Derive(e.todos, e.state)
	e.state.Page = result.Page
	e.state.PageSize = result.PageSize
	return result
}

func (e *Engine) SetState(state model.ViewState) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := model.ParseSortOrder(string(state.Sort)); err != nil {
		state.Sort = model.SortNewest
	}
	e.state = state
	return e.deriveLocked()
}

func (e *Engine) SetQuery(query string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Query = query
	return e.deriveLocked()
}

func (e *Engine) SetSort(order model.SortOrder) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sort = order
	return e.deriveLocked()
}

func (e *Engine) CycleSort() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Sort = e.state.Sort.Next()
	return e.deriveLocked()
}

func (e *Engine) SetPageSize(size int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PageSize = size
	return e.deriveLocked()
}

func (e *Engine) CyclePageSize() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.PageSize = model.NextPageSize(e.state.PageSize)
	return e.deriveLocked()
}

func (e *Engine) SetPage(page int) Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page = page
	return e.deriveLocked()
}

func (e *Engine) NextPage() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page++
	return e.deriveLocked()
}

func (e *Engine) PrevPage() Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Page--
	return e.deriveLocked()
}
