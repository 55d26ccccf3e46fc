package model

import "time"

// Booking is the reservable unit of service time: an online reservation
// or a walk-in ticket opened at the terminal. Bookings are never
// deleted; cancellation and no-show are statuses, which keeps occupancy
// reporting and the audit trail intact.
//
// Fields:
//  ID           – primary key identifier.
//  TenantID     – owning tenant.
//  ServiceID    – service being performed.
//  StaffID      – profile of the barber performing the service.
//  CustomerID   – customer profile; nil for anonymous walk-ins.
//  StartTime    – scheduled start (UTC).
//  EndTime      – scheduled end (UTC); start + service duration.
//  Status       – lifecycle status, see the lifecycle package.
//  Notes        – free-form staff notes.
//  NoShowBy     – profile that marked the no-show (nullable).
//  NoShowReason – reason recorded with the no-show marker.
//  NoShowAt     – when the no-show was marked.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Booking struct {
	ID           uint64     // bookings.id
	TenantID     uint64     // bookings.tenant_id
	ServiceID    uint64     // bookings.service_id
	StaffID      uint64     // bookings.staff_id
	CustomerID   *uint64    // bookings.customer_id (nullable)
	StartTime    time.Time  // bookings.start_time
	EndTime      time.Time  // bookings.end_time
	Status       string     // bookings.status
	Notes        string     // bookings.notes
	NoShowBy     *uint64    // bookings.no_show_by (nullable)
	NoShowReason *string    // bookings.no_show_reason (nullable)
	NoShowAt     *time.Time // bookings.no_show_at (nullable)
	CreatedAt    time.Time  // bookings.created_at
	UpdatedAt    time.Time  // bookings.updated_at
}
