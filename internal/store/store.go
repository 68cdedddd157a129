package store

import (
	"context"
	"errors"
	"time"

	"hutang/internal/models"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// UserRepository is implemented by every backend. Username and email lookups
// are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// HutangRepository is implemented by every backend. Update and ApplyPayment
// are atomic with respect to each other for the same entry.
type HutangRepository interface {
	Create(ctx context.Context, hutang models.Hutang) error
	GetByID(ctx context.Context, hutangID string) (models.Hutang, error)
	List(ctx context.Context) ([]models.Hutang, error)
	ListByDebtor(ctx context.Context, debtorID string) ([]models.Hutang, error)
	Update(ctx context.Context, hutangID string, fn func(*models.Hutang) error) (models.Hutang, error)
	Delete(ctx context.Context, hutangID string) error
	ApplyPayment(ctx context.Context, hutangID string, payment models.Payment, now time.Time) (models.Hutang, error)
}

// GetByLogin resolves the identifier a user typed at login, which may be
// either a username or an email.
func GetByLogin(ctx context.Context, users UserRepository, identifier string) (models.User, error) {
	user, err := users.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return models.User{}, err
	}
	return users.GetByEmail(ctx, identifier)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
