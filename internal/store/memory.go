package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"hutang/internal/ledger"
	"hutang/internal/models"
)

var (
	_ UserRepository   = (*MemoryUserStore)(nil)
	_ HutangRepository = (*MemoryHutangStore)(nil)
)

// MemoryUserStore keeps accounts in process memory, in registration order.
type MemoryUserStore struct {
	mu         sync.RWMutex
	users      map[string]models.User
	byEmail    map[string]string
	byUsername map[string]string
	order      []string
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:      make(map[string]models.User),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, user models.User) error {
	emailKey := strings.ToLower(user.Email)
	usernameKey := strings.ToLower(user.Username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.ID]; exists {
		return ErrDuplicate
	}
	if _, exists := s.byEmail[emailKey]; exists {
		return ErrDuplicate
	}
	if _, exists := s.byUsername[usernameKey]; exists {
		return ErrDuplicate
	}
	s.users[user.ID] = user
	s.byEmail[emailKey] = user.ID
	s.byUsername[usernameKey] = user.ID
	s.order = append(s.order, user.ID)
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, userID string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryUserStore) GetByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		users = append(users, s.users[id])
	}
	return users, nil
}

// MemoryHutangStore keeps ledger entries in process memory. Every read
// returns a deep copy so callers never alias stored payments.
type MemoryHutangStore struct {
	mu      sync.RWMutex
	hutangs map[string]models.Hutang
	order   []string
}

func NewMemoryHutangStore() *MemoryHutangStore {
	return &MemoryHutangStore{hutangs: make(map[string]models.Hutang)}
}

func (s *MemoryHutangStore) Create(_ context.Context, hutang models.Hutang) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hutangs[hutang.ID]; exists {
		return ErrDuplicate
	}
	s.hutangs[hutang.ID] = hutang.Clone()
	s.order = append(s.order, hutang.ID)
	return nil
}

func (s *MemoryHutangStore) GetByID(_ context.Context, hutangID string) (models.Hutang, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hutang, ok := s.hutangs[hutangID]
	if !ok {
		return models.Hutang{}, ErrNotFound
	}
	return hutang.Clone(), nil
}

func (s *MemoryHutangStore) List(_ context.Context) ([]models.Hutang, error) {
	return s.filter(func(models.Hutang) bool { return true }), nil
}

func (s *MemoryHutangStore) ListByDebtor(_ context.Context, debtorID string) ([]models.Hutang, error) {
	return s.filter(func(h models.Hutang) bool { return h.DebtorID == debtorID }), nil
}

func (s *MemoryHutangStore) filter(keep func(models.Hutang) bool) []models.Hutang {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hutangs := make([]models.Hutang, 0, len(s.order))
	for _, id := range s.order {
		hutang := s.hutangs[id]
		if keep(hutang) {
			hutangs = append(hutangs, hutang.Clone())
		}
	}
	return hutangs
}

func (s *MemoryHutangStore) Update(_ context.Context, hutangID string, fn func(*models.Hutang) error) (models.Hutang, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.hutangs[hutangID]
	if !ok {
		return models.Hutang{}, ErrNotFound
	}
	updated := current.Clone()
	if err := fn(&updated); err != nil {
		return models.Hutang{}, err
	}
	updated.ID = hutangID
	updated.Payments = current.Clone().Payments
	s.hutangs[hutangID] = updated.Clone()
	return updated, nil
}

func (s *MemoryHutangStore) Delete(_ context.Context, hutangID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hutangs[hutangID]; !ok {
		return ErrNotFound
	}
	delete(s.hutangs, hutangID)
	for i, id := range s.order {
		if id == hutangID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryHutangStore) ApplyPayment(_ context.Context, hutangID string, payment models.Payment, now time.Time) (models.Hutang, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.hutangs[hutangID]
	if !ok {
		return models.Hutang{}, ErrNotFound
	}
	updated := current.Clone()
	if err := ledger.Apply(&updated, payment, now); err != nil {
		return models.Hutang{}, err
	}
	s.hutangs[hutangID] = updated.Clone()
	return updated, nil
}
