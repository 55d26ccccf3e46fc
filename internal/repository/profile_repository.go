package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kavehjm/barberdesk/internal/model"
)

// ProfileRepo provides access to actor profiles. Loyalty point balances
// are only ever changed through AddPointsTx, which performs an atomic
// in-database increment so that concurrent settlements for the same
// customer cannot lose updates.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

const profileCols = "id, user_id, tenant_id, full_name, role, is_active_barber, loyalty_points, created_at, updated_at"

func scanProfile(row *sql.Row) (model.Profile, error) {
	var p model.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.TenantID, &p.FullName, &p.Role, &p.IsBarber, &p.LoyaltyPoints, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

// Create inserts a fresh profile for a newly authenticated user. New
// profiles start as unaffiliated customers with zero points.
func (r *ProfileRepo) Create(ctx context.Context, userID uint64, fullName string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (user_id, full_name, role) VALUES (?,?,?)",
		userID, fullName, model.RoleCustomer)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByUser fetches the profile attached to an auth identity.
func (r *ProfileRepo) GetByUser(ctx context.Context, userID uint64) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE user_id=? LIMIT 1", userID))
}

// GetForTenant fetches a profile scoped to a tenant. A profile owned by
// another tenant reads as ErrNotFound.
func (r *ProfileRepo) GetForTenant(ctx context.Context, id, tenantID uint64) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID))
}

// GetForTenantTx is GetForTenant inside an existing transaction, with a
// row lock so loyalty reads stay consistent until commit.
func (r *ProfileRepo) GetForTenantTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) (model.Profile, error) {
	return scanProfile(tx.QueryRowContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE id=? AND tenant_id=? LIMIT 1 FOR UPDATE", id, tenantID))
}

// ListCustomers returns customer profiles of a tenant.
func (r *ProfileRepo) ListCustomers(ctx context.Context, tenantID uint64) ([]model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE tenant_id=? AND role=? ORDER BY full_name", tenantID, model.RoleCustomer)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.TenantID, &p.FullName, &p.Role, &p.IsBarber, &p.LoyaltyPoints, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListBarbers returns active staff available for bookings.
func (r *ProfileRepo) ListBarbers(ctx context.Context, tenantID uint64) ([]model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+profileCols+" FROM profiles WHERE tenant_id=? AND is_active_barber=1 ORDER BY full_name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Profile
	for rows.Next() {
		var p model.Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.TenantID, &p.FullName, &p.Role, &p.IsBarber, &p.LoyaltyPoints, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Grant assigns tenant and role to a profile. Only owners and
// super_admins reach this through the policy layer.
func (r *ProfileRepo) Grant(ctx context.Context, profileID, tenantID uint64, role string, isBarber bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET tenant_id=?, role=?, is_active_barber=?, updated_at=NOW() WHERE id=?",
		tenantID, role, isBarber, profileID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPointsTx applies a loyalty point delta as a single atomic
// read-modify-write in the database. The balance guard refuses any
// update that would drive the balance negative; that surfaces as
// ErrConflict and rolls the settlement back.
func (r *ProfileRepo) AddPointsTx(ctx context.Context, tx *sql.Tx, profileID, tenantID uint64, delta int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET loyalty_points = loyalty_points + ?, updated_at=NOW()
		 WHERE id=? AND tenant_id=? AND loyalty_points + ? >= 0`,
		delta, profileID, tenantID, delta)
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
