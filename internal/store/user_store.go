package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"hutang/internal/models"

	"github.com/jmoiron/sqlx"
)

var _ UserRepository = (*UserStore)(nil)

type UserStore struct {
	db   DB
	bind int
}

// NewUserStore builds a SQL-backed store. bindType is one of the sqlx bindvar
// constants, usually sqlx.BindType(driverName).
func NewUserStore(db DB, bindType int) *UserStore {
	return &UserStore{db: db, bind: bindType}
}

const userColumns = `id, username, email, password_hash, name, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, user models.User) error {
	query := sqlx.Rebind(s.bind, `
		INSERT INTO users (id, username, email, password_hash, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query, user.ID, user.Username, strings.ToLower(user.Email), user.PasswordHash, user.Name, user.CreatedAt, user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username) = lower(?)`, username)
}

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, sqlx.Rebind(s.bind, query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}
