package listview

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/stretchr/testify/require"
)

// fakeBackend plays the server: it owns the todos and counts fetches.
type fakeBackend struct {
	mu        sync.Mutex
	todos     []model.Todo
	fetches   int
	fetchErr  error
	updateErr error
	// block, when set, holds SetCompleted until it is closed.
	block chan struct{}
	// started is signalled once SetCompleted is entered.
	started chan struct{}
}

func (b *fakeBackend) FetchTodos(ctx context.Context) ([]model.Todo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	return append([]model.Todo(nil), b.todos...), nil
}

func (b *fakeBackend) SetCompleted(ctx context.Context, id int64, completed bool) (model.Todo, error) {
	if b.started != nil {
		b.started <- struct{}{}
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return model.Todo{}, b.updateErr
	}
	for i := range b.todos {
		if b.todos[i].ID == id {
			b.todos[i].Completed = completed
			return b.todos[i], nil
		}
	}
	return model.Todo{}, &api.Error{Kind: api.KindRemote, Status: 404, Message: "Not Found"}
}

func newEngine(t *testing.T, backend *fakeBackend) (*Engine, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	e := New(backend, backend, rec, nil)
	require.NoError(t, e.Refresh(context.Background()))
	return e, rec
}

func TestRefreshLoadsCollection(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(3)}
	e, _ := newEngine(t, backend)

	require.True(t, e.Loaded())
	require.False(t, e.Loading())
	require.Equal(t, 1, e.Version())
	require.Len(t, e.Todos(), 3)
	require.Equal(t, []int64{3, 2, 1}, ids(e.View().Items))
}

func TestFailedRefreshKeepsPriorState(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(3)}
	e, rec := newEngine(t, backend)

	backend.fetchErr = &api.Error{Kind: api.KindRemote, Status: 500, Message: "boom"}
	err := e.Refresh(context.Background())
	require.Error(t, err)
	require.Len(t, e.Todos(), 3)
	require.Equal(t, []string{"boom"}, rec.Errors)
}

func TestInvalidateBumpsVersionByOne(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(3)}
	e, _ := newEngine(t, backend)

	require.NoError(t, e.Invalidate(context.Background()))
	require.Equal(t, 2, e.Version())
	require.Equal(t, 2, backend.fetches)
}

func TestToggleTwiceRestoresFlag(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(2)}
	e, rec := newEngine(t, backend)

	require.NoError(t, e.Toggle(context.Background(), 1))
	todo, ok := e.Find(1)
	require.True(t, ok)
	require.True(t, todo.Completed)

	require.NoError(t, e.Toggle(context.Background(), 1))
	todo, _ = e.Find(1)
	require.False(t, todo.Completed)

	require.Equal(t, []string{"Todo marked as completed", "Todo marked as incomplete"}, rec.Successes)
	require.Equal(t, 3, e.Version())
}

func TestToggleFailureRollsBack(t *testing.T) {
	backend := &fakeBackend{
		todos:     makeTodos(2),
		updateErr: &api.Error{Kind: api.KindRemote, Status: 403, Message: "Forbidden action"},
	}
	e, rec := newEngine(t, backend)

	err := e.Toggle(context.Background(), 2)
	require.Error(t, err)

	todo, _ := e.Find(2)
	require.False(t, todo.Completed)
	require.Equal(t, []string{"Forbidden action"}, rec.Errors)
	require.Empty(t, rec.Successes)
	require.Equal(t, 1, e.Version())
}

func TestToggleIsOptimisticAndGuarded(t *testing.T) {
	backend := &fakeBackend{
		todos:   makeTodos(2),
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	e, _ := newEngine(t, backend)

	done := make(chan error, 1)
	go func() { done <- e.Toggle(context.Background(), 1) }()
	<-backend.started

	todo, _ := e.Find(1)
	require.True(t, todo.Completed, "local copy flips before the server answers")
	require.True(t, e.Toggling(1))
	require.ErrorIs(t, e.Toggle(context.Background(), 1), ErrBusy)

	close(backend.block)
	require.NoError(t, <-done)
	require.False(t, e.Toggling(1))
}

func TestToggleUnknownTodo(t *testing.T) {
	e, _ := newEngine(t, &fakeBackend{todos: makeTodos(1)})
	require.ErrorIs(t, e.Toggle(context.Background(), 99), ErrNotFound)
}

func TestViewStateChangesClampPage(t *testing.T) {
	e, _ := newEngine(t, &fakeBackend{todos: makeTodos(25)})

	result := e.SetPage(3)
	require.Equal(t, 3, result.Page)
	require.Len(t, result.Items, 5)

	result = e.SetPageSize(25)
	require.Equal(t, 1, result.Page)
	require.Equal(t, 1, e.State().Page)

	e.SetPageSize(10)
	e.SetPage(3)
	result = e.SetQuery("todo 1")
	require.Equal(t, 11, result.Total)
	require.Equal(t, 2, result.Page)

	result = e.NextPage()
	require.Equal(t, 2, result.Page)
	e.PrevPage()
	result = e.PrevPage()
	require.Equal(t, 1, result.Page)
}

func TestCycleSortAndPageSize(t *testing.T) {
	e, _ := newEngine(t, &fakeBackend{todos: makeTodos(3)})

	e.CycleSort()
	require.Equal(t, model.SortOldest, e.State().Sort)
	e.CycleSort()
	require.Equal(t, model.SortCompleted, e.State().Sort)
	require.Empty(t, e.View().Items)
	e.CycleSort()
	require.Equal(t, model.SortNewest, e.State().Sort)

	e.CyclePageSize()
	require.Equal(t, 25, e.State().PageSize)
}

func TestOnChangeFires(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(1)}
	e := New(backend, backend, &notify.Recorder{}, nil)
	calls := 0
	e.OnChange(func() { calls++ })

	require.NoError(t, e.Refresh(context.Background()))
	require.Equal(t, 2, calls)
}

func TestMessageForPlainErrors(t *testing.T) {
	backend := &fakeBackend{todos: makeTodos(1)}
	e, rec := newEngine(t, backend)
	backend.fetchErr = errors.New("dial tcp: refused")

	require.Error(t, e.Refresh(context.Background()))
	require.Equal(t, []string{"dial tcp: refused"}, rec.Errors)
}
