package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/model"
)

// ServiceRepo manages the bookable service catalog. Prices are stored
// as DECIMAL(10,2) and scanned through strings into decimal.Decimal so
// no float rounding ever touches money.
type ServiceRepo struct{ DB *sql.DB }

func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{DB: db} }

const serviceCols = "id, tenant_id, name, price, duration_min, is_active, created_at, updated_at"

func scanService(scan func(dest ...any) error) (model.Service, error) {
	var (
		s     model.Service
		price string
	)
	if err := scan(&s.ID, &s.TenantID, &s.Name, &price, &s.DurationMin, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return model.Service{}, err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return model.Service{}, err
	}
	s.Price = p
	return s, nil
}

// GetForTenant fetches one service scoped to a tenant.
func (r *ServiceRepo) GetForTenant(ctx context.Context, id, tenantID uint64) (model.Service, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID)
	s, err := scanService(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Service{}, ErrNotFound
	}
	return s, err
}

// GetForTenantTx is GetForTenant inside an existing transaction.
func (r *ServiceRepo) GetForTenantTx(ctx context.Context, tx *sql.Tx, id, tenantID uint64) (model.Service, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE id=? AND tenant_id=? LIMIT 1", id, tenantID)
	s, err := scanService(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Service{}, ErrNotFound
	}
	return s, err
}

// ListActive returns the active catalog for a tenant.
func (r *ServiceRepo) ListActive(ctx context.Context, tenantID uint64) ([]model.Service, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+serviceCols+" FROM services WHERE tenant_id=? AND is_active=1 ORDER BY name", tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Service
	for rows.Next() {
		s, err := scanService(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create inserts a catalog entry and returns its ID.
func (r *ServiceRepo) Create(ctx context.Context, tenantID uint64, name string, price decimal.Decimal, durationMin int) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO services (tenant_id, name, price, duration_min, is_active) VALUES (?,?,?,?,1)",
		tenantID, name, price.StringFixed(2), durationMin)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// Update edits name, price and duration. Settled transactions copy the
// charged amount, so price edits only affect future bookings.
func (r *ServiceRepo) Update(ctx context.Context, id, tenantID uint64, name string, price decimal.Decimal, durationMin int) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE services SET name=?, price=?, duration_min=?, updated_at=NOW() WHERE id=? AND tenant_id=?",
		name, price.StringFixed(2), durationMin, id, tenantID)
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

// Deactivate hides a service from the catalog without deleting it, so
// historical bookings keep their reference.
func (r *ServiceRepo) Deactivate(ctx context.Context, id, tenantID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE services SET is_active=0, updated_at=NOW() WHERE id=? AND tenant_id=?", id, tenantID)
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
