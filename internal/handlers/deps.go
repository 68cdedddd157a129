package handlers

import (
	"context"

	"hutang/internal/models"
	"hutang/internal/money"
	"hutang/internal/services"
)

type AuthService interface {
	Register(ctx context.Context, input services.RegisterInput) (models.User, error)
	Login(ctx context.Context, identifier, password string) (services.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
	Me(ctx context.Context, userID string) (models.User, error)
}

type HutangService interface {
	Create(ctx context.Context, input services.CreateHutangInput) (services.HutangView, error)
	Get(ctx context.Context, hutangID string) (services.HutangView, error)
	List(ctx context.Context) ([]services.HutangView, error)
	Update(ctx context.Context, hutangID string, input services.UpdateHutangInput) (services.HutangView, error)
	Delete(ctx context.Context, hutangID string) error
	ApplyPayment(ctx context.Context, hutangID string, amount money.Amount, notes *string) (services.HutangView, error)
	Summary(ctx context.Context) (models.Summary, error)
	ListDebtors(ctx context.Context) ([]models.DebtorSummary, error)
	GetDebtor(ctx context.Context, userID string) (services.DebtorDetail, error)
}
