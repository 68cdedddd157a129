package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hutang/internal/auth"
	"hutang/internal/models"
	"hutang/internal/session"
	"hutang/internal/store"

	"github.com/google/uuid"
)

var (
	ErrDuplicateUser      = errors.New("user already exists with this email or username")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AccountStore interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type SessionManager interface {
	Create(ctx context.Context, userID string) (session.Session, error)
	Revoke(ctx context.Context, sessionID string) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
}

type LoginResult struct {
	User    models.User
	Session session.Session
}

type AuthService struct {
	users    AccountStore
	sessions SessionManager
	now      func() time.Time
}

func NewAuthService(users AccountStore, sessions SessionManager) *AuthService {
	return &AuthService{users: users, sessions: sessions, now: time.Now}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = username
	}
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, ErrDuplicateUser
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login accepts a username or an email as identifier. No session is created
// unless the password matches.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	user, err := store.GetByLogin(ctx, s.users, strings.TrimSpace(identifier))
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Session: sess}, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}

func (s *AuthService) Me(ctx context.Context, userID string) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
