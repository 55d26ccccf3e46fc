package model

import "time"

// Roles stored in profiles.role. Role plus tenant_id drive every access
// policy decision.
const (
	RoleCustomer   = "customer"
	RoleStaff      = "staff"
	RoleOwner      = "owner"
	RoleKiosk      = "kiosk"
	RoleSuperAdmin = "super_admin"
)

// Profile is the actor record attached to an authenticated user. A
// profile is created on first authentication with the customer role and
// no tenant; tenant_id and role change only through an explicit grant by
// an owner or super_admin. Loyalty points are mutated only by the
// settlement engine and never go negative.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – auth identity (users.id) this profile belongs to.
//  TenantID      – owning tenant; nil for unaffiliated users.
//  FullName      – display name.
//  Role          – one of the role constants above.
//  IsBarber      – whether this staff member takes walk-ins/bookings.
//  LoyaltyPoints – current loyalty balance (non-negative).
//  CreatedAt     – timestamp of creation.
//  UpdatedAt     – timestamp of last update.
type Profile struct {
	ID            uint64    // profiles.id
	UserID        uint64    // profiles.user_id
	TenantID      *uint64   // profiles.tenant_id (nullable)
	FullName      string    // profiles.full_name
	Role          string    // profiles.role
	IsBarber      bool      // profiles.is_active_barber
	LoyaltyPoints int64     // profiles.loyalty_points
	CreatedAt     time.Time // profiles.created_at
	UpdatedAt     time.Time // profiles.updated_at
}

// StaffRole reports whether the role acts on the shop's behalf.
// Customers and anonymous callers are not staff; they only operate on
// their own records.
func StaffRole(role string) bool {
	switch role {
	case RoleStaff, RoleOwner, RoleKiosk, RoleSuperAdmin:
		return true
	}
	return false
}
