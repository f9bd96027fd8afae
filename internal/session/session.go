// Package session persists the logged-in user's token and profile and hands
// it out as an explicit *Auth value.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// StorageKey is the local storage key holding the serialized session.
const StorageKey = "loggedInUser"

var (
	ErrNoSession    = errors.New("not logged in")
	ErrInvalidToken = errors.New("session token is empty")
)

// Storage is the subset of the local storage the session needs.
type Storage interface {
	GetItem(ctx context.Context, key string) (db.Item, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

type Store struct {
	storage Storage
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

func (s *Store) Load(ctx context.Context) (*Auth, error) {
	item, err := s.storage.GetItem(ctx, StorageKey)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(item.Value), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return NewAuth(sess)
}

func (s *Store) Save(ctx context.Context, sess model.Session) (*Auth, error) {
	auth, err := NewAuth(sess)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := s.storage.SetItem(ctx, StorageKey, string(payload)); err != nil {
		return nil, err
	}
	return auth, nil
}

// UpdateUser keeps the token and replaces the stored profile.
func (s *Store) UpdateUser(ctx context.Context, auth *Auth, user model.User) (*Auth, error) {
	if auth == nil {
		return nil, ErrNoSession
	}
	return s.Save(ctx, model.Session{JWT: auth.Token(), User: user})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.storage.RemoveItem(ctx, StorageKey)
}

// Auth is the authentication context passed to everything that talks to the
// backend. It is immutable; a new one is built on login or profile change.
type Auth struct {
	session   model.Session
	expiresAt *time.Time
}

func NewAuth(sess model.Session) (*Auth, error) {
	sess.JWT = strings.TrimSpace(sess.JWT)
	if sess.JWT == "" {
		return nil, ErrInvalidToken
	}
	return &Auth{session: sess, expiresAt: tokenExpiry(sess.JWT)}, nil
}

func (a *Auth) Token() string {
	return a.session.JWT
}

func (a *Auth) User() model.User {
	return a.session.User
}

func (a *Auth) Session() model.Session {
	return a.session
}

func (a *Auth) BearerHeader() string {
	return "Bearer " + a.session.JWT
}

// ExpiresAt is nil when the token carries no readable exp claim.
func (a *Auth) ExpiresAt() *time.Time {
	return a.expiresAt
}

func (a *Auth) Expired(now time.Time) bool {
	return a.expiresAt != nil && !now.Before(*a.expiresAt)
}

// tokenExpiry reads exp without verifying the signature; only the backend
// holds the secret.
func tokenExpiry(token string) *time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	expiresAt := claims.ExpiresAt.Time
	return &expiresAt
}
