// Package queue defines message payloads exchanged over the message
// broker and the background consumer that drains them.
package queue

// Event types published on the lifecycle queue.
const (
	EventBookingCreated   = "booking.created"
	EventBookingSeated    = "booking.seated"
	EventBookingCancelled = "booking.cancelled"
	EventNoShowMarked     = "booking.no_show"
	EventNoShowForgiven   = "booking.forgiven"
	EventSaleSettled      = "pos.sale"
)

// LifecycleEvent is the fan-out payload for booking/ticket lifecycle
// changes. It carries enough for connected staff and client sessions to
// refresh their views without querying the primary database. Delivery
// is best-effort: no consumer acknowledgment ever reaches the producer.
type LifecycleEvent struct {
	ID         string `json:"id"` // uuid, for consumer-side dedupe
	Type       string `json:"type"`
	TenantID   uint64 `json:"tenant_id"`
	BookingID  uint64 `json:"booking_id"`
	StaffID    uint64 `json:"staff_id,omitempty"`
	CustomerID uint64 `json:"customer_id,omitempty"`
	Status     string `json:"status,omitempty"`
	Amount     string `json:"amount,omitempty"` // decimal string, settlement only
	OccurredAt string `json:"occurred_at"`      // RFC3339 UTC
}
