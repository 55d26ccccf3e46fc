package model

import "time"

// Subscription statuses stored in tenants.subscription_status.
const (
	SubscriptionActive    = "active"
	SubscriptionSuspended = "suspended"
	SubscriptionTrial     = "trial"
)

// Tenant is a single shop on the platform and the root of data
// partitioning. Every other entity carries its tenant_id; no query may
// cross tenants except on behalf of a super_admin.
//
// Fields:
//  ID                 – primary key identifier.
//  Slug               – unique, URL-safe shop identifier; doubles as the
//                       subdomain label resolved from the request host.
//  Name               – display name of the shop.
//  LogoURL            – reference to the shop logo (nullable).
//  SubscriptionStatus – active, suspended or trial.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type Tenant struct {
	ID                 uint64    // tenants.id
	Slug               string    // tenants.slug
	Name               string    // tenants.name
	LogoURL            *string   // tenants.logo_url (nullable)
	SubscriptionStatus string    // tenants.subscription_status
	CreatedAt          time.Time // tenants.created_at
	UpdatedAt          time.Time // tenants.updated_at
}

// TenantSettings holds tenant-wide operational switches. Kiosk mode is
// persisted here rather than in process memory so that every server
// instance observes the same value on the next policy decision.
type TenantSettings struct {
	TenantID  uint64    // tenant_settings.tenant_id
	KioskMode bool      // tenant_settings.kiosk_mode
	UpdatedAt time.Time // tenant_settings.updated_at
}
