package services

import (
	"context"
	"errors"
	"testing"

	"hutang/internal/session"
	"hutang/internal/store"
)

type stubSessionManager struct {
	created []string
	revoked []string
}

func (s *stubSessionManager) Create(_ context.Context, userID string) (session.Session, error) {
	s.created = append(s.created, userID)
	return session.Session{ID: "session-1", UserID: userID, Token: "token-1"}, nil
}

func (s *stubSessionManager) Revoke(_ context.Context, sessionID string) error {
	s.revoked = append(s.revoked, sessionID)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *store.MemoryUserStore, *stubSessionManager) {
	t.Helper()
	users := store.NewMemoryUserStore()
	sessions := &stubSessionManager{}
	service := NewAuthService(users, sessions)
	if _, err := service.Register(context.Background(), RegisterInput{Username: "alice", Email: "Alice@Example.com", Password: "secret1"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return service, users, sessions
}

func TestRegisterDefaultsNameAndHidesPassword(t *testing.T) {
	_, users, _ := newAuthFixture(t)
	user, err := store.GetByLogin(context.Background(), users, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Name != "alice" || user.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret1" {
		t.Fatalf("expected hashed password")
	}
}

func TestRegisterDuplicateIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	service, users, _ := newAuthFixture(t)
	for _, input := range []RegisterInput{
		{Username: "bob", Email: "ALICE@example.com", Password: "secret1"},
		{Username: "ALICE", Email: "other@example.com", Password: "secret1"},
	} {
		if _, err := service.Register(ctx, input); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("expected ErrDuplicateUser for %+v, got %v", input, err)
		}
	}
	list, _ := users.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected account list unchanged, got %d", len(list))
	}
}

func TestLoginWrongPasswordCreatesNoSession(t *testing.T) {
	service, _, sessions := newAuthFixture(t)
	if _, err := service.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := service.Login(context.Background(), "nobody", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(sessions.created) != 0 {
		t.Fatalf("expected no session, got %v", sessions.created)
	}
}

func TestLoginByEmailAndLogout(t *testing.T) {
	ctx := context.Background()
	service, _, sessions := newAuthFixture(t)
	result, err := service.Login(ctx, "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.User.Username != "alice" || result.Session.Token == "" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if err := service.Logout(ctx, result.Session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "session-1" {
		t.Fatalf("expected session to be revoked, got %v", sessions.revoked)
	}
	if _, err := service.Me(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
