// Package ledger derives the balance and status of a debt from its principal
// and payment history. Everything here is pure; callers pass in "now".
package ledger

import (
	"errors"
	"time"

	"hutang/internal/models"
	"hutang/internal/money"
)

var (
	ErrInvalidAmount    = errors.New("payment amount must be greater than 0")
	ErrExceedsRemaining = errors.New("payment amount exceeds remaining amount")
)

type Balance struct {
	PaidSoFar money.Amount
	Remaining money.Amount
	IsOverdue bool
	Status    string
}

func PaidSoFar(payments []models.Payment) money.Amount {
	var total money.Amount
	for _, payment := range payments {
		total += payment.Amount
	}
	return total
}

// Compute recomputes the derived fields of h. Remaining is not floored at zero.
func Compute(h models.Hutang, now time.Time) Balance {
	paid := PaidSoFar(h.Payments)
	remaining := h.Amount - paid
	overdue := remaining > 0 && h.DueDate.Before(now)
	status := h.Status
	switch {
	case remaining == 0:
		status = models.StatusPaid
	case overdue:
		status = models.StatusOverdue
	case status == "":
		status = models.StatusPending
	}
	return Balance{
		PaidSoFar: paid,
		Remaining: remaining,
		IsOverdue: overdue,
		Status:    status,
	}
}

// CheckPayment guards a new payment against the state before it is applied.
func CheckPayment(h models.Hutang, amount money.Amount) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > h.Amount-PaidSoFar(h.Payments) {
		return ErrExceedsRemaining
	}
	return nil
}

// Refresh writes the computed remaining amount and status back onto h.
func Refresh(h *models.Hutang, now time.Time) Balance {
	balance := Compute(*h, now)
	h.RemainingAmount = balance.Remaining
	h.Status = balance.Status
	return balance
}

// Apply appends payment to h when CheckPayment allows it and refreshes the
// derived fields. h is left untouched on error.
func Apply(h *models.Hutang, payment models.Payment, now time.Time) error {
	if err := CheckPayment(*h, payment.Amount); err != nil {
		return err
	}
	payment.HutangID = h.ID
	h.Payments = append(h.Payments, payment)
	h.UpdatedAt = now
	Refresh(h, now)
	return nil
}
