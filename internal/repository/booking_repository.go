package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kavehjm/barberdesk/internal/model"
)

// BookingRepo provides CRUD for bookings. Bookings are never deleted:
// cancellation and no-show are status updates, which keeps occupancy
// reporting and the audit trail intact. Status changes always carry a
// WHERE status=? guard so that a concurrent transition matches zero
// rows instead of silently overwriting.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingCols = "id, tenant_id, service_id, staff_id, customer_id, start_time, end_time, status, notes, no_show_by, no_show_reason, no_show_at, created_at, updated_at"

func scanBooking(scan func(dest ...any) error) (model.Booking, error) {
	var b model.Booking
	err := scan(&b.ID, &b.TenantID, &b.ServiceID, &b.StaffID, &b.CustomerID,
		&b.StartTime, &b.EndTime, &b.Status, &b.Notes,
		&b.NoShowBy, &b.NoShowReason, &b.NoShowAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// CreateTx inserts a booking within an existing transaction and
// populates the generated ID. The caller commits or rolls back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO bookings (tenant_id, service_id, staff_id, customer_id, start_time, end_time, status, notes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		b.TenantID, b.ServiceID, b.StaffID, b.CustomerID, b.StartTime, b.EndTime, b.Status, b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// GetForTenant fetches one booking scoped to a tenant.
func (r *BookingRepo) GetForTenant(ctx context.Context, id, tenantID uint64) (model.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// GetForTenantTx fetches and row-locks a booking inside a transaction.
// The lock serializes competing transitions on the same booking; the
// loser of the race then re-reads a terminal status and fails cleanly.
func (r *BookingRepo) GetForTenantTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) (model.Booking, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? AND tenant_id=? LIMIT 1 FOR UPDATE", id, tenantID)
	b, err := scanBooking(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, ErrNotFound
	}
	return b, err
}

// UpdateStatusTx moves a booking from one status to another. Zero rows
// affected means the booking changed underneath us (or never belonged
// to the tenant) and surfaces as ErrConflict.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64, from, to string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE bookings SET status=?, updated_at=NOW() WHERE id=? AND tenant_id=? AND status=?",
		to, id, tenantID, from)
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

// SetNoShowTx records the no-show marker {by, reason, at} along with
// the status change.
func (r *BookingRepo) SetNoShowTx(ctx context.Context, tx *sql.Tx, id, tenantID, by uint64, reason string, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=?, no_show_by=?, no_show_reason=?, no_show_at=?, updated_at=NOW()
		 WHERE id=? AND tenant_id=? AND status=?`,
		"no_show", by, reason, at, id, tenantID, "confirmed")
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

// ClearNoShowTx reverses a no-show marking back to confirmed.
func (r *BookingRepo) ClearNoShowTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status=?, no_show_by=NULL, no_show_reason=NULL, no_show_at=NULL, updated_at=NOW()
		 WHERE id=? AND tenant_id=? AND status=?`,
		"confirmed", id, tenantID, "no_show")
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

// ListForStaffDay returns a staff member's bookings overlapping a
// single day, ordered by start time.
func (r *BookingRepo) ListForStaffDay(ctx context.Context, tenantID, staffID uint64, day time.Time) ([]model.Booking, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE tenant_id=? AND staff_id=? AND start_time >= ? AND start_time < ? ORDER BY start_time",
		tenantID, staffID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// ListForCustomer returns a customer's bookings, newest first.
func (r *BookingRepo) ListForCustomer(ctx context.Context, tenantID, customerID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE tenant_id=? AND customer_id=? ORDER BY start_time DESC",
		tenantID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

// CountForTenantDay counts bookings starting on a given day; used by
// the dashboard summary.
func (r *BookingRepo) CountForTenantDay(ctx context.Context, tenantID uint64, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM bookings WHERE tenant_id=? AND start_time >= ? AND start_time < ?",
		tenantID, start, end).Scan(&n)
	return n, err
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	var out []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
