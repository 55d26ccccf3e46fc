package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kavehjm/barberdesk/internal/model"
)

// TenantRepo resolves tenant rows and owns the persisted kiosk-mode
// flag. The flag lives in tenant_settings rather than process memory so
// that every server instance sees the same value on the next policy
// decision.
type TenantRepo struct{ DB *sql.DB }

func NewTenantRepo(db *sql.DB) *TenantRepo { return &TenantRepo{DB: db} }

// GetBySlug fetches a tenant by its subdomain slug.
func (r *TenantRepo) GetBySlug(ctx context.Context, slug string) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, slug, name, logo_url, subscription_status, created_at, updated_at FROM tenants WHERE slug=? LIMIT 1",
		slug).Scan(&t.ID, &t.Slug, &t.Name, &t.LogoURL, &t.SubscriptionStatus, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrNotFound
	}
	return t, err
}

// GetByID fetches a tenant by primary key.
func (r *TenantRepo) GetByID(ctx context.Context, id uint64) (model.Tenant, error) {
	var t model.Tenant
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, slug, name, logo_url, subscription_status, created_at, updated_at FROM tenants WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Slug, &t.Name, &t.LogoURL, &t.SubscriptionStatus, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tenant{}, ErrNotFound
	}
	return t, err
}

// KioskMode reads the persisted kiosk flag for a tenant. A missing
// settings row means kiosk mode has never been enabled.
func (r *TenantRepo) KioskMode(ctx context.Context, tenantID uint64) (bool, error) {
	var on bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT kiosk_mode FROM tenant_settings WHERE tenant_id=? LIMIT 1",
		tenantID).Scan(&on)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return on, err
}

// SetKioskMode persists the kiosk flag, creating the settings row on
// first toggle.
func (r *TenantRepo) SetKioskMode(ctx context.Context, tenantID uint64, on bool) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO tenant_settings (tenant_id, kiosk_mode) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE kiosk_mode=VALUES(kiosk_mode), updated_at=NOW()`,
		tenantID, on)
	return err
}
