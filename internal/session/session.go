// Package session issues and validates login sessions. A session token is a
// signed JWT whose jti must still be present in a Store, so logging out or
// letting the entry expire invalidates the token even before its exp claim.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hutang/internal/auth"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("session not found")
	ErrInvalidSession = errors.New("invalid or expired session")
)

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"-"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Store interface {
	Save(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
}

type Manager struct {
	store  Store
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(store Store, secret string, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl, now: time.Now}
}

func (m *Manager) Create(ctx context.Context, userID string) (Session, error) {
	issuedAt := m.now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(m.ttl),
	}
	token, err := auth.GenerateToken(m.secret, userID, s.ID, issuedAt, m.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("sign session token: %w", err)
	}
	s.Token = token
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

func (m *Manager) Lookup(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(m.secret, token)
	if err != nil {
		return Session{}, ErrInvalidSession
	}
	s, err := m.store.Get(ctx, claims.SessionID)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidSession
	}
	if err != nil {
		return Session{}, err
	}
	if s.UserID != claims.UserID || !m.now().Before(s.ExpiresAt) {
		return Session{}, ErrInvalidSession
	}
	s.Token = token
	return s, nil
}

func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	err := m.store.Delete(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
