package model

import "time"

// Audit actions recorded for sensitive mutations.
const (
	AuditBookingCreated = "BOOKING_CREATED"
	AuditBookingSeated  = "BOOKING_SEATED"
	AuditBookingCancel  = "BOOKING_CANCELLED"
	AuditNoShowMarked   = "NO_SHOW_MARKED"
	AuditNoShowForgiven = "NO_SHOW_FORGIVEN"
	AuditPOSSale        = "POS_SALE"
	AuditPOSVoid        = "POS_VOID"
	AuditKioskToggled   = "KIOSK_TOGGLED"
	AuditRoleGranted    = "ROLE_GRANTED"
)

// AuditEntry is one append-only record in the audit trail. Metadata is
// an opaque key/value bag serialized to JSON by the repository.
type AuditEntry struct {
	ID        string         // audit_logs.id (uuid)
	TenantID  uint64         // audit_logs.tenant_id
	ActorID   uint64         // audit_logs.actor_id
	Action    string         // audit_logs.action
	Entity    string         // audit_logs.entity
	EntityID  uint64         // audit_logs.entity_id
	Metadata  map[string]any // audit_logs.metadata (JSON)
	CreatedAt time.Time      // audit_logs.created_at
}
