package models

import (
	"time"

	"hutang/internal/money"
)

const (
	StatusPending = "pending"
	StatusOverdue = "overdue"
	StatusPaid    = "paid"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusOverdue, StatusPaid:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

type Payment struct {
	ID          string       `db:"id" json:"id"`
	HutangID    string       `db:"hutang_id" json:"-"`
	Amount      money.Amount `db:"amount" json:"amount"`
	PaymentDate time.Time    `db:"payment_date" json:"paymentDate"`
	Notes       *string      `db:"notes" json:"notes"`
}

// Hutang is a debt ledger entry owed by the user referenced by DebtorID.
type Hutang struct {
	ID              string       `db:"id" json:"id"`
	Description     string       `db:"description" json:"description"`
	Amount          money.Amount `db:"amount" json:"amount"`
	RemainingAmount money.Amount `db:"remaining_amount" json:"remainingAmount"`
	DueDate         time.Time    `db:"due_date" json:"dueDate"`
	CreatedDate     time.Time    `db:"created_date" json:"createdDate"`
	Status          string       `db:"status" json:"status"`
	DebtorID        string       `db:"debtor_id" json:"debtorId"`
	CreatedBy       string       `db:"created_by" json:"createdBy"`
	Notes           *string      `db:"notes" json:"notes"`
	Payments        []Payment    `db:"-" json:"payments"`
	CreatedAt       time.Time    `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with h.
func (h Hutang) Clone() Hutang {
	out := h
	out.Payments = make([]Payment, len(h.Payments))
	copy(out.Payments, h.Payments)
	if h.Notes != nil {
		notes := *h.Notes
		out.Notes = &notes
	}
	return out
}

type Debtor struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type DebtorSummary struct {
	User
	OutstandingAmount money.Amount `json:"outstandingAmount"`
	OpenCount         int          `json:"openCount"`
}

type Summary struct {
	TotalOutstanding money.Amount `json:"totalOutstanding"`
	DebtorCount      int          `json:"debtorCount"`
	OpenCount        int          `json:"openCount"`
	PaidCount        int          `json:"paidCount"`
	OverdueCount     int          `json:"overdueCount"`
}
