package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hutang/internal/db"
	"hutang/internal/ledger"
	"hutang/internal/models"

	"github.com/jmoiron/sqlx"
)

var _ HutangRepository = (*HutangStore)(nil)

// HutangStore persists ledger entries in hutangs and their payments in
// payments. hutangs.paid_amount mirrors the payment sum so that payment
// acceptance can be decided by a single conditional UPDATE.
type HutangStore struct {
	db       DB
	txRunner db.TxRunner
	bind     int
	lock     string
}

func NewHutangStore(database DB, txRunner db.TxRunner, bindType int) *HutangStore {
	lock := ""
	if bindType == sqlx.DOLLAR {
		lock = " FOR UPDATE"
	}
	return &HutangStore{db: database, txRunner: txRunner, bind: bindType, lock: lock}
}

const hutangColumns = `id, description, amount, remaining_amount, due_date, created_date, status, debtor_id, created_by, notes, created_at, updated_at`

func (s *HutangStore) rebind(query string) string {
	return sqlx.Rebind(s.bind, query)
}

func (s *HutangStore) Create(ctx context.Context, hutang models.Hutang) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.create(ctx, tx, hutang)
	})
}

func (s *HutangStore) create(ctx context.Context, q DB, hutang models.Hutang) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO hutangs (id, description, amount, paid_amount, remaining_amount, due_date, created_date, status, debtor_id, created_by, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), hutang.ID, hutang.Description, hutang.Amount, ledger.PaidSoFar(hutang.Payments), hutang.RemainingAmount,
		hutang.DueDate, hutang.CreatedDate, hutang.Status, hutang.DebtorID, hutang.CreatedBy, hutang.Notes,
		hutang.CreatedAt, hutang.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	for i, payment := range hutang.Payments {
		if err := s.insertPayment(ctx, q, hutang.ID, i+1, payment); err != nil {
			return err
		}
	}
	return nil
}

func (s *HutangStore) GetByID(ctx context.Context, hutangID string) (models.Hutang, error) {
	return s.load(ctx, s.db, hutangID, "")
}

func (s *HutangStore) List(ctx context.Context) ([]models.Hutang, error) {
	return s.list(ctx, `SELECT `+hutangColumns+` FROM hutangs ORDER BY created_at, id`,
		`SELECT id, hutang_id, amount, payment_date, notes FROM payments ORDER BY hutang_id, position`)
}

func (s *HutangStore) ListByDebtor(ctx context.Context, debtorID string) ([]models.Hutang, error) {
	return s.list(ctx, `SELECT `+hutangColumns+` FROM hutangs WHERE debtor_id = ? ORDER BY created_at, id`,
		`SELECT p.id, p.hutang_id, p.amount, p.payment_date, p.notes
		FROM payments p
		JOIN hutangs h ON h.id = p.hutang_id
		WHERE h.debtor_id = ?
		ORDER BY p.hutang_id, p.position`, debtorID)
}

func (s *HutangStore) list(ctx context.Context, hutangQuery, paymentQuery string, args ...any) ([]models.Hutang, error) {
	var hutangs []models.Hutang
	if err := s.db.SelectContext(ctx, &hutangs, s.rebind(hutangQuery), args...); err != nil {
		return nil, err
	}
	var payments []models.Payment
	if err := s.db.SelectContext(ctx, &payments, s.rebind(paymentQuery), args...); err != nil {
		return nil, err
	}
	byHutang := make(map[string][]models.Payment, len(hutangs))
	for _, payment := range payments {
		byHutang[payment.HutangID] = append(byHutang[payment.HutangID], payment)
	}
	for i := range hutangs {
		hutangs[i].Payments = byHutang[hutangs[i].ID]
		if hutangs[i].Payments == nil {
			hutangs[i].Payments = []models.Payment{}
		}
	}
	return hutangs, nil
}

func (s *HutangStore) load(ctx context.Context, q DB, hutangID, lock string) (models.Hutang, error) {
	var hutang models.Hutang
	err := q.GetContext(ctx, &hutang, s.rebind(`SELECT `+hutangColumns+` FROM hutangs WHERE id = ?`+lock), hutangID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Hutang{}, ErrNotFound
	}
	if err != nil {
		return models.Hutang{}, err
	}
	payments := []models.Payment{}
	if err := q.SelectContext(ctx, &payments, s.rebind(`
		SELECT id, hutang_id, amount, payment_date, notes
		FROM payments
		WHERE hutang_id = ?
		ORDER BY position
	`), hutangID); err != nil {
		return models.Hutang{}, err
	}
	hutang.Payments = payments
	return hutang, nil
}

func (s *HutangStore) Update(ctx context.Context, hutangID string, fn func(*models.Hutang) error) (models.Hutang, error) {
	var updated models.Hutang
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		updated, err = s.update(ctx, tx, hutangID, fn)
		return err
	})
	if err != nil {
		return models.Hutang{}, err
	}
	return updated, nil
}

func (s *HutangStore) update(ctx context.Context, q DB, hutangID string, fn func(*models.Hutang) error) (models.Hutang, error) {
	hutang, err := s.load(ctx, q, hutangID, s.lock)
	if err != nil {
		return models.Hutang{}, err
	}
	if err := fn(&hutang); err != nil {
		return models.Hutang{}, err
	}
	_, err = q.ExecContext(ctx, s.rebind(`
		UPDATE hutangs
		SET description = ?, amount = ?, remaining_amount = ?, due_date = ?, status = ?, debtor_id = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`), hutang.Description, hutang.Amount, hutang.RemainingAmount, hutang.DueDate, hutang.Status, hutang.DebtorID,
		hutang.Notes, hutang.UpdatedAt, hutangID)
	if err != nil {
		return models.Hutang{}, err
	}
	return hutang, nil
}

func (s *HutangStore) Delete(ctx context.Context, hutangID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		return s.delete(ctx, tx, hutangID)
	})
}

func (s *HutangStore) delete(ctx context.Context, q DB, hutangID string) error {
	if _, err := q.ExecContext(ctx, s.rebind(`DELETE FROM payments WHERE hutang_id = ?`), hutangID); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, s.rebind(`DELETE FROM hutangs WHERE id = ?`), hutangID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *HutangStore) ApplyPayment(ctx context.Context, hutangID string, payment models.Payment, now time.Time) (models.Hutang, error) {
	if payment.Amount <= 0 {
		return models.Hutang{}, ledger.ErrInvalidAmount
	}
	var updated models.Hutang
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		updated, err = s.applyPayment(ctx, tx, hutangID, payment, now)
		return err
	})
	if err != nil {
		return models.Hutang{}, err
	}
	return updated, nil
}

// applyPayment reserves the amount with a compare-and-swap on paid_amount so
// that two concurrent payments can never both pass the remaining-amount check.
func (s *HutangStore) applyPayment(ctx context.Context, q DB, hutangID string, payment models.Payment, now time.Time) (models.Hutang, error) {
	res, err := q.ExecContext(ctx, s.rebind(`
		UPDATE hutangs
		SET paid_amount = paid_amount + ?, updated_at = ?
		WHERE id = ? AND amount - paid_amount >= ?
	`), payment.Amount, now, hutangID, payment.Amount)
	if err != nil {
		return models.Hutang{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.Hutang{}, err
	}
	if affected == 0 {
		if _, err := s.load(ctx, q, hutangID, ""); err != nil {
			return models.Hutang{}, err
		}
		return models.Hutang{}, ledger.ErrExceedsRemaining
	}
	var position int
	if err := q.GetContext(ctx, &position, s.rebind(`SELECT COUNT(*) FROM payments WHERE hutang_id = ?`), hutangID); err != nil {
		return models.Hutang{}, err
	}
	if err := s.insertPayment(ctx, q, hutangID, position+1, payment); err != nil {
		return models.Hutang{}, err
	}
	hutang, err := s.load(ctx, q, hutangID, "")
	if err != nil {
		return models.Hutang{}, err
	}
	ledger.Refresh(&hutang, now)
	if _, err := q.ExecContext(ctx, s.rebind(`
		UPDATE hutangs SET remaining_amount = ?, status = ? WHERE id = ?
	`), hutang.RemainingAmount, hutang.Status, hutangID); err != nil {
		return models.Hutang{}, err
	}
	return hutang, nil
}

func (s *HutangStore) insertPayment(ctx context.Context, q Execer, hutangID string, position int, payment models.Payment) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO payments (id, hutang_id, position, amount, payment_date, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`), payment.ID, hutangID, position, payment.Amount, payment.PaymentDate, payment.Notes)
	return err
}
