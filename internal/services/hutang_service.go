package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hutang/internal/ledger"
	"hutang/internal/models"
	"hutang/internal/money"
	"hutang/internal/store"
	"hutang/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrHutangNotFound          = errors.New("hutang not found")
	ErrDebtorNotFound          = errors.New("debtor not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidAmount           = errors.New("amount is required and must be greater than 0")
	ErrPaymentExceedsRemaining = errors.New("payment amount exceeds remaining amount")
	ErrInvalidStatus           = errors.New("status must be one of pending, overdue, paid")
	ErrInvalidDescription      = errors.New("description is required")
	ErrInvalidDueDate          = errors.New("dueDate is required")
	ErrAmountBelowPaid         = errors.New("amount cannot be less than the amount already paid")
)

const unknownDebtorName = "Unknown debtor"

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

type HutangStore interface {
	Create(ctx context.Context, hutang models.Hutang) error
	GetByID(ctx context.Context, hutangID string) (models.Hutang, error)
	List(ctx context.Context) ([]models.Hutang, error)
	ListByDebtor(ctx context.Context, debtorID string) ([]models.Hutang, error)
	Update(ctx context.Context, hutangID string, fn func(*models.Hutang) error) (models.Hutang, error)
	Delete(ctx context.Context, hutangID string) error
	ApplyPayment(ctx context.Context, hutangID string, payment models.Payment, now time.Time) (models.Hutang, error)
}

type HutangHub interface {
	BroadcastHutang(userID string, update websocket.HutangUpdate)
}

// HutangView is an entry as served to clients: balance recomputed at read
// time and the debtor reference resolved.
type HutangView struct {
	models.Hutang
	PaidAmount money.Amount  `json:"paidAmount"`
	IsOverdue  bool          `json:"isOverdue"`
	Debtor     models.Debtor `json:"debtor"`
}

type DebtorDetail struct {
	models.DebtorSummary
	Hutangs []HutangView `json:"hutangs"`
}

type CreateHutangInput struct {
	Description string
	Amount      money.Amount
	DueDate     time.Time
	DebtorEmail string
	Notes       *string
	CreatedBy   string
}

// UpdateHutangInput holds a partial update; nil fields are left unchanged.
// An empty Notes string clears the notes.
type UpdateHutangInput struct {
	Description *string
	Amount      *money.Amount
	DueDate     *time.Time
	Notes       *string
	Status      *string
	DebtorEmail *string
}

type HutangService struct {
	users   UserStore
	hutangs HutangStore
	hub     HutangHub
	now     func() time.Time
}

func NewHutangService(users UserStore, hutangs HutangStore, hub HutangHub) *HutangService {
	return &HutangService{users: users, hutangs: hutangs, hub: hub, now: time.Now}
}

func (s *HutangService) Create(ctx context.Context, input CreateHutangInput) (HutangView, error) {
	if strings.TrimSpace(input.Description) == "" {
		return HutangView{}, ErrInvalidDescription
	}
	if input.Amount <= 0 {
		return HutangView{}, ErrInvalidAmount
	}
	if input.DueDate.IsZero() {
		return HutangView{}, ErrInvalidDueDate
	}
	debtor, err := s.debtorByEmail(ctx, input.DebtorEmail)
	if err != nil {
		return HutangView{}, err
	}
	now := s.now().UTC()
	hutang := models.Hutang{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(input.Description),
		Amount:      input.Amount,
		DueDate:     input.DueDate.UTC(),
		CreatedDate: now,
		Status:      models.StatusPending,
		DebtorID:    debtor.ID,
		CreatedBy:   input.CreatedBy,
		Notes:       normalizeNotes(input.Notes),
		Payments:    []models.Payment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ledger.Refresh(&hutang, now)
	if err := s.hutangs.Create(ctx, hutang); err != nil {
		return HutangView{}, fmt.Errorf("create hutang: %w", err)
	}
	s.notify(eventFor(websocket.EventCreated, hutang, now))
	return s.view(hutang, debtorOf(debtor), now), nil
}

func (s *HutangService) Get(ctx context.Context, hutangID string) (HutangView, error) {
	hutang, err := s.hutangs.GetByID(ctx, hutangID)
	if errors.Is(err, store.ErrNotFound) {
		return HutangView{}, ErrHutangNotFound
	}
	if err != nil {
		return HutangView{}, err
	}
	debtor, err := s.resolveDebtor(ctx, hutang.DebtorID)
	if err != nil {
		return HutangView{}, err
	}
	return s.view(hutang, debtor, s.now()), nil
}

func (s *HutangService) List(ctx context.Context) ([]HutangView, error) {
	hutangs, err := s.hutangs.List(ctx)
	if err != nil {
		return nil, err
	}
	debtors, err := s.debtorIndex(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]HutangView, 0, len(hutangs))
	for _, hutang := range hutangs {
		views = append(views, s.view(hutang, lookupDebtor(debtors, hutang.DebtorID), now))
	}
	return views, nil
}

func (s *HutangService) Update(ctx context.Context, hutangID string, input UpdateHutangInput) (HutangView, error) {
	if input.Amount != nil && *input.Amount <= 0 {
		return HutangView{}, ErrInvalidAmount
	}
	if input.Status != nil && !models.ValidStatus(*input.Status) {
		return HutangView{}, ErrInvalidStatus
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
		return HutangView{}, ErrInvalidDescription
	}
	if input.DueDate != nil && input.DueDate.IsZero() {
		return HutangView{}, ErrInvalidDueDate
	}
	var newDebtor *models.User
	if input.DebtorEmail != nil {
		debtor, err := s.debtorByEmail(ctx, *input.DebtorEmail)
		if err != nil {
			return HutangView{}, err
		}
		newDebtor = &debtor
	}

	now := s.now().UTC()
	var previousDebtor string
	updated, err := s.hutangs.Update(ctx, hutangID, func(h *models.Hutang) error {
		previousDebtor = h.DebtorID
		if input.Description != nil {
			h.Description = strings.TrimSpace(*input.Description)
		}
		if input.Amount != nil {
			if *input.Amount < ledger.PaidSoFar(h.Payments) {
				return ErrAmountBelowPaid
			}
			h.Amount = *input.Amount
		}
		if input.DueDate != nil {
			h.DueDate = input.DueDate.UTC()
		}
		if input.Notes != nil {
			h.Notes = normalizeNotes(input.Notes)
		}
		if newDebtor != nil {
			h.DebtorID = newDebtor.ID
		}
		// The stored label is only a fallback for the calculator, so an edit
		// without an explicit status starts again from pending.
		h.Status = models.StatusPending
		if input.Status != nil {
			h.Status = *input.Status
		}
		ledger.Refresh(h, now)
		h.UpdatedAt = now
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return HutangView{}, ErrHutangNotFound
	}
	if err != nil {
		return HutangView{}, err
	}

	update := eventFor(websocket.EventUpdated, updated, now)
	s.notify(update)
	if previousDebtor != "" && previousDebtor != updated.DebtorID {
		s.notifyUser(previousDebtor, update)
	}
	debtor, err := s.resolveDebtor(ctx, updated.DebtorID)
	if err != nil {
		return HutangView{}, err
	}
	return s.view(updated, debtor, now), nil
}

func (s *HutangService) Delete(ctx context.Context, hutangID string) error {
	hutang, err := s.hutangs.GetByID(ctx, hutangID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrHutangNotFound
	}
	if err != nil {
		return err
	}
	if err := s.hutangs.Delete(ctx, hutangID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrHutangNotFound
		}
		return err
	}
	s.notifyUser(hutang.DebtorID, websocket.HutangUpdate{
		Event:    websocket.EventDeleted,
		HutangID: hutangID,
		At:       s.now().UTC(),
	})
	return nil
}

// ApplyPayment records a payment against an entry. A payment larger than the
// remaining amount is rejected and leaves the entry untouched.
func (s *HutangService) ApplyPayment(ctx context.Context, hutangID string, amount money.Amount, notes *string) (HutangView, error) {
	if amount <= 0 {
		return HutangView{}, ErrInvalidAmount
	}
	now := s.now().UTC()
	payment := models.Payment{
		ID:          uuid.NewString(),
		HutangID:    hutangID,
		Amount:      amount,
		PaymentDate: now,
		Notes:       normalizeNotes(notes),
	}
	updated, err := s.hutangs.ApplyPayment(ctx, hutangID, payment, now)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return HutangView{}, ErrHutangNotFound
	case errors.Is(err, ledger.ErrInvalidAmount):
		return HutangView{}, ErrInvalidAmount
	case errors.Is(err, ledger.ErrExceedsRemaining):
		return HutangView{}, ErrPaymentExceedsRemaining
	case err != nil:
		return HutangView{}, err
	}
	s.notify(eventFor(websocket.EventPayment, updated, now))
	debtor, err := s.resolveDebtor(ctx, updated.DebtorID)
	if err != nil {
		return HutangView{}, err
	}
	return s.view(updated, debtor, now), nil
}

func (s *HutangService) Summary(ctx context.Context) (models.Summary, error) {
	hutangs, err := s.hutangs.List(ctx)
	if err != nil {
		return models.Summary{}, err
	}
	now := s.now()
	var summary models.Summary
	debtors := make(map[string]struct{})
	for _, hutang := range hutangs {
		debtors[hutang.DebtorID] = struct{}{}
		balance := ledger.Compute(hutang, now)
		switch balance.Status {
		case models.StatusPaid:
			summary.PaidCount++
			continue
		case models.StatusOverdue:
			summary.OverdueCount++
		}
		summary.OpenCount++
		summary.TotalOutstanding += balance.Remaining
	}
	summary.DebtorCount = len(debtors)
	return summary, nil
}

func (s *HutangService) ListDebtors(ctx context.Context) ([]models.DebtorSummary, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	hutangs, err := s.hutangs.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	byDebtor := make(map[string][]models.Hutang)
	for _, hutang := range hutangs {
		byDebtor[hutang.DebtorID] = append(byDebtor[hutang.DebtorID], hutang)
	}
	out := make([]models.DebtorSummary, 0, len(users))
	for _, user := range users {
		out = append(out, summarize(user, byDebtor[user.ID], now))
	}
	return out, nil
}

func (s *HutangService) GetDebtor(ctx context.Context, userID string) (DebtorDetail, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return DebtorDetail{}, ErrUserNotFound
	}
	if err != nil {
		return DebtorDetail{}, err
	}
	hutangs, err := s.hutangs.ListByDebtor(ctx, userID)
	if err != nil {
		return DebtorDetail{}, err
	}
	now := s.now()
	detail := DebtorDetail{
		DebtorSummary: summarize(user, hutangs, now),
		Hutangs:       make([]HutangView, 0, len(hutangs)),
	}
	debtor := debtorOf(user)
	for _, hutang := range hutangs {
		detail.Hutangs = append(detail.Hutangs, s.view(hutang, debtor, now))
	}
	return detail, nil
}

// SweepOverdue persists the overdue label on entries whose due date has
// passed and notifies their debtors. It returns how many entries changed.
func (s *HutangService) SweepOverdue(ctx context.Context) (int, error) {
	hutangs, err := s.hutangs.List(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	changed := 0
	for _, candidate := range hutangs {
		if candidate.Status == models.StatusOverdue || ledger.Compute(candidate, now).Status != models.StatusOverdue {
			continue
		}
		updated, err := s.hutangs.Update(ctx, candidate.ID, func(h *models.Hutang) error {
			if ledger.Compute(*h, now).Status != models.StatusOverdue || h.Status == models.StatusOverdue {
				return errUnchanged
			}
			ledger.Refresh(h, now)
			h.UpdatedAt = now
			return nil
		})
		if errors.Is(err, errUnchanged) || errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("mark %s overdue: %w", candidate.ID, err)
		}
		changed++
		zap.L().Info("hutang overdue",
			zap.String("hutang_id", updated.ID),
			zap.String("debtor_id", updated.DebtorID),
			zap.Int64("remaining", updated.RemainingAmount.Minor()),
		)
		s.notify(eventFor(websocket.EventOverdue, updated, now))
	}
	return changed, nil
}

var errUnchanged = errors.New("unchanged")

// eventFor builds the websocket payload for a change to hutang.
func eventFor(event string, hutang models.Hutang, at time.Time) websocket.HutangUpdate {
	snapshot := hutang.Clone()
	return websocket.HutangUpdate{Event: event, HutangID: hutang.ID, Hutang: &snapshot, At: at}
}

func (s *HutangService) notify(update websocket.HutangUpdate) {
	if update.Hutang == nil {
		return
	}
	s.notifyUser(update.Hutang.DebtorID, update)
}

func (s *HutangService) notifyUser(userID string, update websocket.HutangUpdate) {
	if s.hub == nil || userID == "" {
		return
	}
	s.hub.BroadcastHutang(userID, update)
}

func (s *HutangService) view(hutang models.Hutang, debtor models.Debtor, now time.Time) HutangView {
	balance := ledger.Compute(hutang, now)
	hutang.RemainingAmount = balance.Remaining
	hutang.Status = balance.Status
	if hutang.Payments == nil {
		hutang.Payments = []models.Payment{}
	}
	return HutangView{
		Hutang:     hutang,
		PaidAmount: balance.PaidSoFar,
		IsOverdue:  balance.IsOverdue,
		Debtor:     debtor,
	}
}

func (s *HutangService) debtorByEmail(ctx context.Context, email string) (models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return models.User{}, ErrDebtorNotFound
	}
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrDebtorNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *HutangService) resolveDebtor(ctx context.Context, debtorID string) (models.Debtor, error) {
	user, err := s.users.GetByID(ctx, debtorID)
	if errors.Is(err, store.ErrNotFound) {
		return placeholderDebtor(debtorID), nil
	}
	if err != nil {
		return models.Debtor{}, err
	}
	return debtorOf(user), nil
}

func (s *HutangService) debtorIndex(ctx context.Context) (map[string]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[string]models.User, len(users))
	for _, user := range users {
		index[user.ID] = user
	}
	return index, nil
}

func lookupDebtor(index map[string]models.User, debtorID string) models.Debtor {
	user, ok := index[debtorID]
	if !ok {
		return placeholderDebtor(debtorID)
	}
	return debtorOf(user)
}

func debtorOf(user models.User) models.Debtor {
	return models.Debtor{ID: user.ID, Username: user.Username, Email: user.Email, Name: user.Name}
}

func placeholderDebtor(debtorID string) models.Debtor {
	return models.Debtor{ID: debtorID, Name: unknownDebtorName}
}

// summarize totals the entries a user still owes on.
func summarize(user models.User, hutangs []models.Hutang, now time.Time) models.DebtorSummary {
	summary := models.DebtorSummary{User: user}
	for _, hutang := range hutangs {
		balance := ledger.Compute(hutang, now)
		if balance.Status == models.StatusPaid {
			continue
		}
		summary.OutstandingAmount += balance.Remaining
		summary.OpenCount++
	}
	return summary
}

func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*notes)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
