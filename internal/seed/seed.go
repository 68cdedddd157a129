// Package seed loads demo users and hutangs from a YAML fixture.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"hutang/internal/models"
	"hutang/internal/money"
	"hutang/internal/services"
	"hutang/internal/validator"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type PaymentFixture struct {
	Amount string `yaml:"amount"`
	Notes  string `yaml:"notes"`
}

type HutangFixture struct {
	Description string           `yaml:"description"`
	Amount      string           `yaml:"amount"`
	DueDate     string           `yaml:"dueDate"`
	DebtorEmail string           `yaml:"debtorEmail"`
	CreatedBy   string           `yaml:"createdBy"`
	Notes       string           `yaml:"notes"`
	Payments    []PaymentFixture `yaml:"payments"`
}

type Fixture struct {
	Users   []UserFixture   `yaml:"users"`
	Hutangs []HutangFixture `yaml:"hutangs"`
}

type Registrar interface {
	Register(ctx context.Context, input services.RegisterInput) (models.User, error)
}

type HutangCreator interface {
	Create(ctx context.Context, input services.CreateHutangInput) (services.HutangView, error)
	ApplyPayment(ctx context.Context, hutangID string, amount money.Amount, notes *string) (services.HutangView, error)
}

func LoadFile(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("unable to read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return Fixture{}, fmt.Errorf("unable to parse seed fixture: %w", err)
	}
	return fixture, nil
}

type Result struct {
	Users    int
	Hutangs  int
	Payments int
}

// Apply registers the fixture users and then creates their hutangs. If any
// fixture user already exists the fixture is treated as applied and no
// hutangs are created, so restarting against a persistent store is safe.
func Apply(ctx context.Context, fixture Fixture, users Registrar, hutangs HutangCreator) (Result, error) {
	var result Result
	ids := make(map[string]string, len(fixture.Users))
	existing := false
	for _, u := range fixture.Users {
		user, err := users.Register(ctx, services.RegisterInput{
			Username: u.Username,
			Email:    u.Email,
			Password: u.Password,
			Name:     u.Name,
		})
		if errors.Is(err, services.ErrDuplicateUser) {
			existing = true
			continue
		}
		if err != nil {
			return result, fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		ids[strings.ToLower(user.Username)] = user.ID
		result.Users++
	}
	if existing {
		zap.L().Info("seed users already present, skipping hutangs")
		return result, nil
	}

	for i, h := range fixture.Hutangs {
		input, err := h.input(ids)
		if err != nil {
			return result, fmt.Errorf("seed hutang %d: %w", i, err)
		}
		view, err := hutangs.Create(ctx, input)
		if err != nil {
			return result, fmt.Errorf("seed hutang %q: %w", h.Description, err)
		}
		result.Hutangs++
		for _, p := range h.Payments {
			amount, err := money.ParseAmount(p.Amount)
			if err != nil {
				return result, fmt.Errorf("seed payment for %q: %w", h.Description, err)
			}
			if _, err := hutangs.ApplyPayment(ctx, view.ID, amount, optional(p.Notes)); err != nil {
				return result, fmt.Errorf("seed payment for %q: %w", h.Description, err)
			}
			result.Payments++
		}
	}
	zap.L().Info("seed applied",
		zap.Int("users", result.Users),
		zap.Int("hutangs", result.Hutangs),
		zap.Int("payments", result.Payments),
	)
	return result, nil
}

func (h HutangFixture) input(ids map[string]string) (services.CreateHutangInput, error) {
	amount, err := money.ParseAmount(h.Amount)
	if err != nil {
		return services.CreateHutangInput{}, err
	}
	due, err := validator.ParseDate(h.DueDate)
	if err != nil {
		return services.CreateHutangInput{}, err
	}
	createdBy, ok := ids[strings.ToLower(h.CreatedBy)]
	if !ok {
		return services.CreateHutangInput{}, fmt.Errorf("unknown creator %q", h.CreatedBy)
	}
	return services.CreateHutangInput{
		Description: h.Description,
		Amount:      amount,
		DueDate:     due,
		DebtorEmail: h.DebtorEmail,
		Notes:       optional(h.Notes),
		CreatedBy:   createdBy,
	}, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
