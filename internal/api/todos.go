package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
)

// entity is the backend's {"id": 1, "attributes": {...}} wrapper.
type entity struct {
	ID         int64      `json:"id"`
	Attributes model.Todo `json:"attributes"`
}

func (e entity) todo() model.Todo {
	todo := e.Attributes
	todo.ID = e.ID
	return todo
}

type singleResponse struct {
	Data entity `json:"data"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type TodoPage struct {
	Todos      []model.Todo
	Pagination Pagination
}

type PageQuery struct {
	Page     int
	PageSize int
	Sort     model.SortOrder
}

func (q PageQuery) values() url.Values {
	values := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if !model.ValidPageSize(size) {
		size = model.DefaultPageSize
	}
	direction := "DESC"
	if q.Sort == model.SortOldest {
		direction = "ASC"
	}
	values.Set("pagination[page]", strconv.Itoa(page))
	values.Set("pagination[pageSize]", strconv.Itoa(size))
	values.Set("sort", "createdAt:"+direction)
	if q.Sort == model.SortCompleted {
		values.Set("filters[completed][$eq]", "true")
	}
	return values
}

// ListTodos asks the backend for one page, sorted and sliced server side.
func (c *Client) ListTodos(ctx context.Context, auth *session.Auth, query PageQuery) (TodoPage, error) {
	var out struct {
		Data []entity `json:"data"`
		Meta struct {
			Pagination Pagination `json:"pagination"`
		} `json:"meta"`
	}
	if err := c.doAuthed(ctx, auth, http.MethodGet, "/todos?"+query.values().Encode(), nil, &out); err != nil {
		return TodoPage{}, err
	}

	page := TodoPage{Todos: make([]model.Todo, 0, len(out.Data)), Pagination: out.Meta.Pagination}
	for _, item := range out.Data {
		page.Todos = append(page.Todos, item.todo())
	}
	return page, nil
}

func (c *Client) CreateTodo(ctx context.Context, auth *session.Auth, draft model.Draft) (model.Todo, error) {
	if auth == nil {
		return model.Todo{}, ErrNotAuthenticated
	}
	draft = draft.Trimmed()
	body := map[string]any{"data": map[string]any{
		"title":       draft.Title,
		"description": draft.Description,
		"user":        auth.User().ID,
	}}
	var out singleResponse
	if err := c.doAuthed(ctx, auth, http.MethodPost, "/todos", body, &out); err != nil {
		return model.Todo{}, err
	}
	return out.Data.todo(), nil
}

func (c *Client) UpdateTodo(ctx context.Context, auth *session.Auth, id int64, draft model.Draft) (model.Todo, error) {
	draft = draft.Trimmed()
	body := map[string]any{"data": map[string]any{
		"title":       draft.Title,
		"description": draft.Description,
	}}
	var out singleResponse
	if err := c.doAuthed(ctx, auth, http.MethodPut, idPath("/todos", id), body, &out); err != nil {
		return model.Todo{}, err
	}
	return out.Data.todo(), nil
}

func (c *Client) SetCompleted(ctx context.Context, auth *session.Auth, id int64, completed bool) (model.Todo, error) {
	body := map[string]any{"data": map[string]any{"completed": completed}}
	var out singleResponse
	if err := c.doAuthed(ctx, auth, http.MethodPut, idPath("/todos", id), body, &out); err != nil {
		return model.Todo{}, err
	}
	todo := out.Data.todo()
	if todo.ID == 0 {
		todo.ID = id
		todo.Completed = completed
	}
	return todo, nil
}

func (c *Client) DeleteTodo(ctx context.Context, auth *session.Auth, id int64) error {
	return c.doAuthed(ctx, auth, http.MethodDelete, idPath("/todos", id), nil, nil)
}

// Gateway binds a client to one authenticated session so list and modal
// code never handle the token themselves.
type Gateway struct {
	client *Client
	auth   *session.Auth
}

func (c *Client) For(auth *session.Auth) *Gateway {
	return &Gateway{client: c, auth: auth}
}

func (g *Gateway) Auth() *session.Auth {
	return g.auth
}

func (g *Gateway) FetchTodos(ctx context.Context) ([]model.Todo, error) {
	profile, err := g.client.Me(ctx, g.auth)
	if err != nil {
		return nil, err
	}
	return profile.Todos, nil
}

func (g *Gateway) CreateTodo(ctx context.Context, draft model.Draft) (model.Todo, error) {
	return g.client.CreateTodo(ctx, g.auth, draft)
}

func (g *Gateway) UpdateTodo(ctx context.Context, id int64, draft model.Draft) (model.Todo, error) {
	return g.client.UpdateTodo(ctx, g.auth, id, draft)
}

func (g *Gateway) SetCompleted(ctx context.Context, id int64, completed bool) (model.Todo, error) {
	return g.client.SetCompleted(ctx, g.auth, id, completed)
}

func (g *Gateway) DeleteTodo(ctx context.Context, id int64) error {
	return g.client.DeleteTodo(ctx, g.auth, id)
}

// ParseID accepts the numeric todo ids shown in the UI.
func ParseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", value)
	}
	return id, nil
}
