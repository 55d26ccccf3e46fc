package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/model"
)

// TransactionRepo persists the financial ledger. Rows are written
// exactly once by the settlement engine and never deleted; a reversal
// sets the voided marker so the ledger stays complete.
type TransactionRepo struct{ DB *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{DB: db} }

const txnCols = "id, tenant_id, booking_id, staff_id, service_id, amount, payment_method, points_earned, points_redeemed, client_id, status, created_at"

func scanTransaction(scan func(dest ...any) error) (model.Transaction, error) {
	var (
		t      model.Transaction
		amount string
	)
	if err := scan(&t.ID, &t.TenantID, &t.BookingID, &t.StaffID, &t.ServiceID, &amount,
		&t.PaymentMethod, &t.PointsEarned, &t.PointsRedeemed, &t.ClientID, &t.Status, &t.CreatedAt); err != nil {
		return model.Transaction{}, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, err
	}
	t.Amount = a
	return t, nil
}

// CreateTx inserts a transaction within the settlement's database
// transaction and populates the generated ID.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, t *model.Transaction) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (tenant_id, booking_id, staff_id, service_id, amount, payment_method, points_earned, points_redeemed, client_id, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.TenantID, t.BookingID, t.StaffID, t.ServiceID, t.Amount.StringFixed(2),
		t.PaymentMethod, t.PointsEarned, t.PointsRedeemed, t.ClientID, t.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetForTenant fetches one transaction scoped to a tenant.
func (r *TransactionRepo) GetForTenant(ctx context.Context, id, tenantID uint64) (model.Transaction, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+txnCols+" FROM transactions WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ErrNotFound
	}
	return t, err
}

// Void sets the reversal marker on a recorded transaction. Voiding an
// already-voided transaction is a conflict, never a second reversal.
func (r *TransactionRepo) Void(ctx context.Context, id, tenantID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE transactions SET status=? WHERE id=? AND tenant_id=? AND status=?",
		model.TransactionVoided, id, tenantID, model.TransactionRecorded)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// SalesTotalForDay sums recorded (non-voided) sales for a day; used by
// the dashboard summary.
func (r *TransactionRepo) SalesTotalForDay(ctx context.Context, tenantID uint64, day time.Time) (decimal.Decimal, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var total sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT SUM(amount) FROM transactions WHERE tenant_id=? AND status=? AND created_at >= ? AND created_at < ?",
		tenantID, model.TransactionRecorded, start, end).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(total.String)
}
