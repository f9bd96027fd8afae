package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

func TestSaveLoadClear(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before login, got %v", err)
	}

	saved, err := store.Save(ctx, model.Session{
		JWT:  "opaque-token",
		User: model.User{ID: 3, Username: "alice", Email: "alice@example.com"},
	})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}
	if saved.BearerHeader() != "Bearer opaque-token" {
		t.Fatalf("unexpected bearer header %q", saved.BearerHeader())
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.User().Username != "alice" || loaded.User().ID != 3 {
		t.Fatalf("unexpected user %+v", loaded.User())
	}
	if loaded.ExpiresAt() != nil {
		t.Fatalf("expected no expiry for opaque token")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after logout, got %v", err)
	}
}

func TestUpdateUserKeepsToken(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	ctx := context.Background()
	auth, err := store.Save(ctx, model.Session{JWT: "tok", User: model.User{ID: 1, Username: "old"}})
	if err != nil {
		t.Fatalf("save session: %v", err)
	}

	updated, err := store.UpdateUser(ctx, auth, model.User{ID: 1, Username: "newname", Email: "n@example.com"})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Token() != "tok" {
		t.Fatalf("expected token to be kept, got %q", updated.Token())
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.User().Username != "newname" {
		t.Fatalf("expected stored username 'newname', got %q", loaded.User().Username)
	}
}

func TestExpiryFromToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	auth, err := NewAuth(model.Session{JWT: token})
	if err != nil {
		t.Fatalf("new auth: %v", err)
	}
	if auth.ExpiresAt() == nil || !auth.ExpiresAt().Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, auth.ExpiresAt())
	}
	if auth.Expired(time.Now()) {
		t.Fatalf("token should not be expired yet")
	}
	if !auth.Expired(exp.Add(time.Second)) {
		t.Fatalf("token should be expired after exp")
	}
}

func TestEmptyTokenRejected(t *testing.T) {
	if _, err := NewAuth(model.Session{JWT: "  "}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestCorruptSessionBlob(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	if err := store.storage.SetItem(context.Background(), StorageKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt blob: %v", err)
	}
	if _, err := store.Load(context.Background()); err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	sqlDB, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db.NewStore(sqlDB)), func() {
		_ = sqlDB.Close()
	}
}
