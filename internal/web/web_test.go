package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/notify"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type stubBackend struct {
	mu        sync.Mutex
	todos     []model.Todo
	fetches   int
	updateErr error
}

func (b *stubBackend) FetchTodos(ctx context.Context) ([]model.Todo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	return append([]model.Todo(nil), b.todos...), nil
}

func (b *stubBackend) SetCompleted(ctx context.Context, id int64, completed bool) (model.Todo, error) {
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
	return model.Todo{}, fmt.Errorf("todo %d not found", id)
}

func newTestServer(t *testing.T, n int) (*Server, *stubBackend) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backend := &stubBackend{}
	for i := 1; i <= n; i++ {
		created := base.Add(time.Duration(i) * time.Hour)
		backend.todos = append(backend.todos, model.Todo{
			ID:        int64(i),
			Title:     fmt.Sprintf("Todo %d", i),
			Completed: i%2 == 0,
			CreatedAt: &created,
		})
	}

	engine := listview.New(backend, backend, &notify.Recorder{}, nil)
	require.NoError(t, engine.Refresh(context.Background()))
	return NewServer(engine, nil), backend
}

func serve(s *Server, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestAPITodosDerivesPage(t *testing.T) {
	s, _ := newTestServer(t, 25)

	w := serve(s, http.MethodGet, "/api/todos?page=3&pageSize=10")
	require.Equal(t, http.StatusOK, w.Code)

	var body todoPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 3, body.Page)
	require.Equal(t, 3, body.TotalPages)
	require.Equal(t, 25, body.Total)
	require.Len(t, body.Todos, 5)
	require.Equal(t, int64(5), body.Todos[0].ID)
	require.Equal(t, []int{1, 2, 3}, body.Pages)
}

func TestAPITodosClampsAndFilters(t *testing.T) {
	s, _ := newTestServer(t, 25)

	w := serve(s, http.MethodGet, "/api/todos?page=99&sort=completed&pageSize=7")
	require.Equal(t, http.StatusOK, w.Code)

	var body todoPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, model.SortCompleted, body.Sort)
	require.Equal(t, model.DefaultPageSize, body.PageSize)
	require.Equal(t, 12, body.Total)
	require.Equal(t, 2, body.Page)
	for _, todo := range body.Todos {
		require.True(t, todo.Completed)
	}
}

func TestAPITodosSearchWithoutMatches(t *testing.T) {
	s, _ := newTestServer(t, 3)

	w := serve(s, http.MethodGet, "/api/todos?q=milk")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"todos":[]`)
	require.Contains(t, w.Body.String(), `"page":1`)
}

func TestAPITodosSearchKeepsSpaces(t *testing.T) {
	s, _ := newTestServer(t, 12)

	w := serve(s, http.MethodGet, "/api/todos?q=%202")
	require.Equal(t, http.StatusOK, w.Code)

	var body todoPage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, " 2", body.Query)
	require.Equal(t, 1, body.Total)
	require.Equal(t, "Todo 2", body.Todos[0].Title)
}

func TestToggleEndpoint(t *testing.T) {
	s, backend := newTestServer(t, 3)

	w := serve(s, http.MethodPost, "/api/todos/1/toggle")
	require.Equal(t, http.StatusOK, w.Code)

	var todo model.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	require.Equal(t, int64(1), todo.ID)
	require.True(t, todo.Completed)
	require.True(t, backend.todos[0].Completed)
	require.Equal(t, 2, backend.fetches)
}

func TestToggleEndpointErrors(t *testing.T) {
	s, backend := newTestServer(t, 3)

	w := serve(s, http.MethodPost, "/api/todos/abc/toggle")
	require.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, http.MethodPost, "/api/todos/42/toggle")
	require.Equal(t, http.StatusNotFound, w.Code)

	backend.updateErr = &api.Error{Kind: api.KindRemote, Status: 500, Message: "Server exploded"}
	w = serve(s, http.MethodPost, "/api/todos/1/toggle")
	require.Equal(t, http.StatusBadGateway, w.Code)
	require.Contains(t, w.Body.String(), "Server exploded")
}

func TestRefreshEndpoint(t *testing.T) {
	s, backend := newTestServer(t, 2)
	backend.mu.Lock()
	backend.todos = append(backend.todos, model.Todo{ID: 3, Title: "New"})
	backend.mu.Unlock()

	w := serve(s, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"version":2,"total":3}`, w.Body.String())
}

func TestIndexPage(t *testing.T) {
	s, _ := newTestServer(t, 25)

	w := serve(s, http.MethodGet, "/?page=2")
	require.Equal(t, http.StatusOK, w.Code)

	page := w.Body.String()
	require.Contains(t, page, "Todo 15")
	require.NotContains(t, page, "Todo 25<")
	require.Contains(t, page, "Showing 11 to 20 of 25 records")
	require.Contains(t, page, `class="current">2<`)
	require.True(t, strings.Contains(page, "next"))
}

func TestIndexPageEmpty(t *testing.T) {
	s, _ := newTestServer(t, 0)

	w := serve(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "No todos yet!")
}

func TestCORSAllowsLocalOriginsOnly(t *testing.T) {
	s, _ := newTestServer(t, 1)
	handler := s.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
