package ledger

import (
	"errors"
	"testing"
	"time"

	"hutang/internal/models"
	"hutang/internal/money"
)

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func entry(principal money.Amount, due time.Time, status string, payments ...money.Amount) models.Hutang {
	h := models.Hutang{ID: "hutang-1", Amount: principal, DueDate: due, Status: status}
	for _, amount := range payments {
		h.Payments = append(h.Payments, models.Payment{Amount: amount})
	}
	return h
}

func TestComputeRemainingIsPrincipalMinusPayments(t *testing.T) {
	cases := []struct {
		principal money.Amount
		payments  []money.Amount
	}{
		{10000, nil},
		{10000, []money.Amount{4000}},
		{10000, []money.Amount{4000, 6000}},
		{10000, []money.Amount{3333, 3333, 3333}},
		{500, []money.Amount{300, 300}},
	}
	for _, tc := range cases {
		h := entry(tc.principal, now.Add(time.Hour), "", tc.payments...)
		balance := Compute(h, now)
		var sum money.Amount
		for _, p := range tc.payments {
			sum += p
		}
		if balance.PaidSoFar != sum {
			t.Fatalf("expected paid %d, got %d", sum, balance.PaidSoFar)
		}
		if balance.Remaining != tc.principal-sum {
			t.Fatalf("expected remaining %d, got %d", tc.principal-sum, balance.Remaining)
		}
	}
}

func TestComputeOverpaymentIsNotFloored(t *testing.T) {
	balance := Compute(entry(500, now.Add(-time.Hour), models.StatusPending, 300, 300), now)
	if balance.Remaining != -100 {
		t.Fatalf("expected -100, got %d", balance.Remaining)
	}
	if balance.IsOverdue {
		t.Fatalf("negative remaining must not be overdue")
	}
	if balance.Status != models.StatusPending {
		t.Fatalf("expected stored status, got %s", balance.Status)
	}
}

func TestComputeStatus(t *testing.T) {
	cases := []struct {
		name     string
		h        models.Hutang
		expected string
	}{
		{"default pending", entry(10000, now.Add(time.Hour), ""), models.StatusPending},
		{"fully paid", entry(10000, now.Add(-time.Hour), models.StatusOverdue, 10000), models.StatusPaid},
		{"past due overrides stored", entry(10000, now.Add(-time.Minute), models.StatusPending, 100), models.StatusOverdue},
		{"past due overrides stored paid", entry(10000, now.Add(-time.Minute), models.StatusPaid), models.StatusOverdue},
		{"not yet due keeps stored", entry(10000, now.Add(time.Minute), models.StatusOverdue), models.StatusOverdue},
		{"due exactly now is not overdue", entry(10000, now, models.StatusPending), models.StatusPending},
	}
	for _, tc := range cases {
		if got := Compute(tc.h, now).Status; got != tc.expected {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestCheckPayment(t *testing.T) {
	h := entry(10000, now.Add(time.Hour), "", 4000)
	if err := CheckPayment(h, 0); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := CheckPayment(h, -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := CheckPayment(h, 6001); !errors.Is(err, ErrExceedsRemaining) {
		t.Fatalf("expected ErrExceedsRemaining, got %v", err)
	}
	if err := CheckPayment(h, 6000); err != nil {
		t.Fatalf("expected boundary payment to be accepted, got %v", err)
	}
}

func TestApplyScenario(t *testing.T) {
	h := entry(10000, now.Add(24*time.Hour), "")
	Refresh(&h, now)
	if h.Status != models.StatusPending || h.RemainingAmount != 10000 {
		t.Fatalf("unexpected initial state: %s %d", h.Status, h.RemainingAmount)
	}
	if err := Apply(&h, models.Payment{ID: "p1", Amount: 4000}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.RemainingAmount != 6000 || h.Status != models.StatusPending {
		t.Fatalf("expected 6000 pending, got %d %s", h.RemainingAmount, h.Status)
	}
	if err := Apply(&h, models.Payment{ID: "p2", Amount: 6000}, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.RemainingAmount != 0 || h.Status != models.StatusPaid {
		t.Fatalf("expected 0 paid, got %d %s", h.RemainingAmount, h.Status)
	}
	if err := Apply(&h, models.Payment{ID: "p3", Amount: 100}, now); !errors.Is(err, ErrExceedsRemaining) {
		t.Fatalf("expected ErrExceedsRemaining, got %v", err)
	}
	if len(h.Payments) != 2 || h.RemainingAmount != 0 || h.Status != models.StatusPaid {
		t.Fatalf("rejected payment must leave entry unchanged: %+v", h)
	}
	if h.Payments[0].HutangID != "hutang-1" {
		t.Fatalf("expected payment to reference its hutang")
	}
}
