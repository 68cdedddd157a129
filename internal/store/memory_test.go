package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hutang/internal/ledger"
	"hutang/internal/models"
)

func TestMemoryUserStoreRejectsCaseInsensitiveDuplicates(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserStore()
	if err := users.Create(ctx, models.User{ID: "u1", Username: "alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []models.User{
		{ID: "u2", Username: "ALICE", Email: "other@example.com"},
		{ID: "u3", Username: "bob", Email: "Alice@Example.COM"},
	}
	for _, user := range cases {
		if err := users.Create(ctx, user); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for %s, got %v", user.ID, err)
		}
	}
	list, _ := users.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 user, got %d", len(list))
	}
}

func TestMemoryHutangStoreReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	hutangs := NewMemoryHutangStore()
	if err := hutangs.Create(ctx, models.Hutang{ID: "h1", Amount: 100, DueDate: testNow.Add(time.Hour)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := hutangs.ApplyPayment(ctx, "h1", models.Payment{ID: "p1", Amount: 10}, testNow); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := hutangs.GetByID(ctx, "h1")
	got.Payments[0].Amount = 99
	again, _ := hutangs.GetByID(ctx, "h1")
	if again.Payments[0].Amount != 10 {
		t.Fatalf("stored payment was mutated through a read")
	}
}

func TestMemoryHutangStoreUpdateKeepsPayments(t *testing.T) {
	ctx := context.Background()
	hutangs := NewMemoryHutangStore()
	_ = hutangs.Create(ctx, models.Hutang{ID: "h1", Amount: 100, DueDate: testNow.Add(time.Hour)})
	_, _ = hutangs.ApplyPayment(ctx, "h1", models.Payment{ID: "p1", Amount: 10}, testNow)

	updated, err := hutangs.Update(ctx, "h1", func(h *models.Hutang) error {
		h.Description = "rent"
		h.Payments = nil
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Description != "rent" || len(updated.Payments) != 1 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	if _, err := hutangs.Update(ctx, "missing", func(*models.Hutang) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryHutangStoreDelete(t *testing.T) {
	ctx := context.Background()
	hutangs := NewMemoryHutangStore()
	for _, id := range []string{"h1", "h2", "h3"} {
		_ = hutangs.Create(ctx, models.Hutang{ID: id, DebtorID: "u1"})
	}
	if err := hutangs.Delete(ctx, "h2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := hutangs.Delete(ctx, "h2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	list, _ := hutangs.ListByDebtor(ctx, "u1")
	if len(list) != 2 || list[0].ID != "h1" || list[1].ID != "h3" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
}

func TestMemoryHutangStoreConcurrentPaymentsNeverOverpay(t *testing.T) {
	ctx := context.Background()
	hutangs := NewMemoryHutangStore()
	_ = hutangs.Create(ctx, models.Hutang{ID: "h1", Amount: 1000, RemainingAmount: 1000, DueDate: testNow.Add(time.Hour)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := hutangs.ApplyPayment(ctx, "h1", models.Payment{ID: fmt.Sprintf("p%d", i), Amount: 30}, testNow)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ledger.ErrExceedsRemaining) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if accepted != 33 {
		t.Fatalf("expected 33 accepted payments, got %d", accepted)
	}
	hutang, _ := hutangs.GetByID(ctx, "h1")
	if hutang.RemainingAmount != 10 || len(hutang.Payments) != 33 {
		t.Fatalf("expected remaining 10 with 33 payments, got %d with %d", hutang.RemainingAmount, len(hutang.Payments))
	}
}
