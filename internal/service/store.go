// Package service implements the lifecycle and settlement engines. The
// engines talk to persistence through the Store/Tx interfaces so the
// atomicity contract is explicit: everything inside one WithinTx call
// commits or rolls back as a unit, and tests can exercise the engines
// against an in-memory store.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/kavehjm/barberdesk/internal/model"
)

// Shared service-level sentinels. ErrSettlementFailed wraps any
// infrastructure failure inside settlement so the caller sees a single
// unambiguous "sale not recorded" outcome instead of partial-success
// noise.
var (
	ErrValidation       = errors.New("validation failed")
	ErrSettlementFailed = errors.New("sale not recorded")
)

// Tx is the set of scoped writes available inside one database
// transaction. Every method filters by tenant_id; a foreign-tenant id
// in any argument reads as not-found.
type Tx interface {
	// BookingForUpdate fetches and row-locks a booking.
	BookingForUpdate(ctx context.Context, id, tenantID uint64) (model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	// UpdateBookingStatus applies from -> to with a status guard.
	UpdateBookingStatus(ctx context.Context, id, tenantID uint64, from, to string) error
	SetNoShow(ctx context.Context, id, tenantID, by uint64, reason string, at time.Time) error
	ClearNoShow(ctx context.Context, id, tenantID uint64) error

	ServiceForTenant(ctx context.Context, id, tenantID uint64) (model.Service, error)
	// ProfileForUpdate fetches and row-locks a profile so point math
	// stays consistent until commit.
	ProfileForUpdate(ctx context.Context, id, tenantID uint64) (model.Profile, error)
	// AddPoints applies a loyalty delta as an atomic in-database
	// increment guarded against negative balances.
	AddPoints(ctx context.Context, profileID, tenantID uint64, delta int64) error

	InsertTransaction(ctx context.Context, t *model.Transaction) error

	// Audit appends an audit entry that commits together with the
	// surrounding mutation.
	Audit(ctx context.Context, tenantID, actorID uint64, action, entity string, entityID uint64, metadata map[string]any) error
}

// Store opens transactional units of work.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
