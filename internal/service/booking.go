package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/model"
	q "github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// BookingService is the lifecycle ledger: it owns every transition a
// booking can take outside of settlement. Each operation runs inside
// one store transaction together with its audit entry, then fires a
// best-effort lifecycle event.
type BookingService struct {
	store    Store
	notifier Notifier
	// cancelBuffer is the minimum lead time before start required for
	// cancellation. Zero disables the window guard explicitly.
	cancelBuffer time.Duration
	now          func() time.Time
}

func NewBookingService(store Store, notifier Notifier, cancelBuffer time.Duration) *BookingService {
	return &BookingService{
		store:        store,
		notifier:     notifier,
		cancelBuffer: cancelBuffer,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CreateBookingInput describes an online reservation request.
type CreateBookingInput struct {
	TenantID   uint64
	ActorID    uint64 // profile performing the request
	ServiceID  uint64
	StaffID    uint64
	CustomerID *uint64
	StartTime  time.Time
	Notes      string
}

// Create validates tenant ownership of the staff and service, then
// inserts a confirmed booking spanning the service duration.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (model.Booking, error) {
	if in.StartTime.Before(s.now()) {
		return model.Booking{}, fmt.Errorf("%w: start time is in the past", ErrValidation)
	}
	var b model.Booking
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		svc, err := tx.ServiceForTenant(ctx, in.ServiceID, in.TenantID)
		if err != nil {
			return err
		}
		if !svc.IsActive {
			return fmt.Errorf("%w: service is not active", ErrValidation)
		}
		staff, err := tx.ProfileForUpdate(ctx, in.StaffID, in.TenantID)
		if err != nil {
			return err
		}
		if !staff.IsBarber {
			return fmt.Errorf("%w: staff member does not take bookings", ErrValidation)
		}
		b = model.Booking{
			TenantID:   in.TenantID,
			ServiceID:  svc.ID,
			StaffID:    staff.ID,
			CustomerID: in.CustomerID,
			StartTime:  in.StartTime.UTC(),
			EndTime:    in.StartTime.UTC().Add(time.Duration(svc.DurationMin) * time.Minute),
			Status:     lifecycle.StatusConfirmed,
			Notes:      in.Notes,
		}
		if err := tx.InsertBooking(ctx, &b); err != nil {
			return err
		}
		return tx.Audit(ctx, in.TenantID, in.ActorID, model.AuditBookingCreated, "bookings", b.ID,
			map[string]any{"service_id": svc.ID, "staff_id": staff.ID, "start_time": b.StartTime.Format(time.RFC3339)})
	})
	if err != nil {
		return model.Booking{}, err
	}
	s.publish(q.EventBookingCreated, b)
	return b, nil
}

// Seat opens a scheduled booking at the terminal (confirmed -> seated).
func (s *BookingService) Seat(ctx context.Context, tenantID, bookingID, actorID uint64) (model.Booking, error) {
	return s.transition(ctx, tenantID, bookingID, actorID, q.EventBookingSeated,
		func(ctx context.Context, tx Tx, b *model.Booking) error {
			if err := lifecycle.Seat(b.Status); err != nil {
				return err
			}
			if err := tx.UpdateBookingStatus(ctx, b.ID, tenantID, b.Status, lifecycle.StatusSeated); err != nil {
				return err
			}
			b.Status = lifecycle.StatusSeated
			return tx.Audit(ctx, tenantID, actorID, model.AuditBookingSeated, "bookings", b.ID, nil)
		})
}

// Cancel cancels a confirmed booking, subject to the cancellation
// window. A staff actor may cancel any booking of the tenant; a
// customer only their own, and a foreign booking reads as not-found so
// booking ids cannot be probed.
func (s *BookingService) Cancel(ctx context.Context, tenantID, bookingID, actorID uint64, staffActor bool) (model.Booking, error) {
	return s.transition(ctx, tenantID, bookingID, actorID, q.EventBookingCancelled,
		func(ctx context.Context, tx Tx, b *model.Booking) error {
			if !staffActor && (b.CustomerID == nil || *b.CustomerID != actorID) {
				return repository.ErrNotFound
			}
			if err := lifecycle.Cancel(b.Status, b.StartTime, s.now(), s.cancelBuffer); err != nil {
				return err
			}
			if err := tx.UpdateBookingStatus(ctx, b.ID, tenantID, b.Status, lifecycle.StatusCancelled); err != nil {
				return err
			}
			b.Status = lifecycle.StatusCancelled
			return tx.Audit(ctx, tenantID, actorID, model.AuditBookingCancel, "bookings", b.ID, nil)
		})
}

// MarkNoShow records a no-show marker {by, reason, at}. The reason is
// required.
func (s *BookingService) MarkNoShow(ctx context.Context, tenantID, bookingID, actorID uint64, reason string) (model.Booking, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return model.Booking{}, fmt.Errorf("%w: no-show reason is required", ErrValidation)
	}
	return s.transition(ctx, tenantID, bookingID, actorID, q.EventNoShowMarked,
		func(ctx context.Context, tx Tx, b *model.Booking) error {
			if err := lifecycle.MarkNoShow(b.Status); err != nil {
				return err
			}
			at := s.now()
			if err := tx.SetNoShow(ctx, b.ID, tenantID, actorID, reason, at); err != nil {
				return err
			}
			b.Status = lifecycle.StatusNoShow
			b.NoShowBy = &actorID
			b.NoShowReason = &reason
			b.NoShowAt = &at
			return tx.Audit(ctx, tenantID, actorID, model.AuditNoShowMarked, "bookings", b.ID,
				map[string]any{"reason": reason})
		})
}

// Forgive reverses a no-show marking back to confirmed. It never
// resurrects a cancelled or completed booking.
func (s *BookingService) Forgive(ctx context.Context, tenantID, bookingID, actorID uint64) (model.Booking, error) {
	return s.transition(ctx, tenantID, bookingID, actorID, q.EventNoShowForgiven,
		func(ctx context.Context, tx Tx, b *model.Booking) error {
			if err := lifecycle.Forgive(b.Status); err != nil {
				return err
			}
			if err := tx.ClearNoShow(ctx, b.ID, tenantID); err != nil {
				return err
			}
			b.Status = lifecycle.StatusConfirmed
			b.NoShowBy, b.NoShowReason, b.NoShowAt = nil, nil, nil
			return tx.Audit(ctx, tenantID, actorID, model.AuditNoShowForgiven, "bookings", b.ID, nil)
		})
}

// transition loads and locks the booking, applies fn, then publishes
// the lifecycle event once the transaction has committed.
func (s *BookingService) transition(ctx context.Context, tenantID, bookingID, actorID uint64, eventType string,
	fn func(ctx context.Context, tx Tx, b *model.Booking) error) (model.Booking, error) {
	var b model.Booking
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		var err error
		b, err = tx.BookingForUpdate(ctx, bookingID, tenantID)
		if err != nil {
			return err
		}
		return fn(ctx, tx, &b)
	})
	if err != nil {
		return model.Booking{}, err
	}
	s.publish(eventType, b)
	return b, nil
}

func (s *BookingService) publish(eventType string, b model.Booking) {
	if s.notifier == nil {
		return
	}
	ev := q.LifecycleEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		TenantID:   b.TenantID,
		BookingID:  b.ID,
		StaffID:    b.StaffID,
		Status:     b.Status,
		OccurredAt: s.now().Format(time.RFC3339),
	}
	if b.CustomerID != nil {
		ev.CustomerID = *b.CustomerID
	}
	s.notifier.Publish(ev)
}
