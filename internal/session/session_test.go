package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func newTestManager(store Store) *Manager {
	now := time.Now().UTC().Truncate(time.Second)
	m := NewManager(store, "test-secret", time.Hour)
	m.now = func() time.Time { return now }
	return m
}

func TestManagerCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryStore())
	created, err := m.Create(ctx, "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Token == "" || created.ID == "" {
		t.Fatalf("expected token and id, got %+v", created)
	}
	got, err := m.Lookup(ctx, created.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.UserID != "user-1" || got.ID != created.ID {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestManagerRevokeInvalidatesToken(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryStore())
	created, _ := m.Create(ctx, "user-1")
	if err := m.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Lookup(ctx, created.Token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
	if err := m.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("second revoke should be a no-op, got %v", err)
	}
}

func TestManagerRejectsUnknownAndForeignTokens(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryStore())
	other := NewManager(NewMemoryStore(), "other-secret", time.Hour)
	foreign, _ := other.Create(ctx, "user-1")

	for _, token := range []string{"", "garbage", foreign.Token} {
		if _, err := m.Lookup(ctx, token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("expected ErrInvalidSession for %q, got %v", token, err)
		}
	}
}

func TestMemoryStoreExpiresSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	_ = store.Save(ctx, Session{ID: "s1", UserID: "u1", ExpiresAt: now.Add(time.Minute)})
	if _, err := store.Get(ctx, "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = store.Save(ctx, Session{ID: "s2", UserID: "u1", ExpiresAt: now.Add(time.Minute)})
	if store.Len() != 1 {
		t.Fatalf("expected expired session to be pruned, got %d", store.Len())
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client)
	s := Session{ID: "test-" + time.Now().Format("150405.000000"), UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Get(ctx, s.ID)
	if err != nil || got.UserID != "u1" {
		t.Fatalf("expected stored session, got %+v %v", got, err)
	}
	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
