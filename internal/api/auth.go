package api

import (
	"context"
	"net/http"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ProfileInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type PasswordInput struct {
	CurrentPassword      string `json:"currentPassword"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Profile is the current user together with their todos.
type Profile struct {
	model.User
	Todos []model.Todo `json:"todos"`
}

// Register creates an account. The caller still has to log in afterwards.
func (c *Client) Register(ctx context.Context, input RegisterInput) (model.Session, error) {
	var out model.Session
	if err := c.do(ctx, nil, http.MethodPost, "/auth/local/register", input, &out); err != nil {
		return model.Session{}, err
	}
	return out, nil
}

func (c *Client) Login(ctx context.Context, input LoginInput) (model.Session, error) {
	var out model.Session
	if err := c.do(ctx, nil, http.MethodPost, "/auth/local", input, &out); err != nil {
		return model.Session{}, err
	}
	return out, nil
}

func (c *Client) ChangePassword(ctx context.Context, auth *session.Auth, input PasswordInput) (model.Session, error) {
	var out model.Session
	if err := c.doAuthed(ctx, auth, http.MethodPost, "/auth/change-password", input, &out); err != nil {
		return model.Session{}, err
	}
	return out, nil
}

func (c *Client) UpdateUser(ctx context.Context, auth *session.Auth, input ProfileInput) (model.User, error) {
	if auth == nil {
		return model.User{}, ErrNotAuthenticated
	}
	var out model.User
	if err := c.doAuthed(ctx, auth, http.MethodPut, idPath("/users", auth.User().ID), input, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

func (c *Client) Me(ctx context.Context, auth *session.Auth) (Profile, error) {
	var out Profile
	if err := c.doAuthed(ctx, auth, http.MethodGet, "/users/me?populate=todos", nil, &out); err != nil {
		return Profile{}, err
	}
	if out.Todos == nil {
		out.Todos = []model.Todo{}
	}
	return out, nil
}
