package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/model"
	q "github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
)

func newBookingSvc(m *memStore, n Notifier, buffer time.Duration) *BookingService {
	s := NewBookingService(m, n, buffer)
	s.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestCreateBooking(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	notifier := &recordingNotifier{}
	s := newBookingSvc(m, notifier, 2*time.Hour)

	start := time.Date(2026, 5, 5, 14, 0, 0, 0, time.UTC)
	b, err := s.Create(context.Background(), CreateBookingInput{
		TenantID: tenantA, ActorID: customerID, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), StartTime: start,
	})
	require.NoError(t, err)

	assert.Equal(t, lifecycle.StatusConfirmed, b.Status)
	assert.Equal(t, start.Add(45*time.Minute), b.EndTime)
	require.Len(t, m.audits, 1)
	assert.Equal(t, model.AuditBookingCreated, m.audits[0].Action)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, q.EventBookingCreated, notifier.events[0].Type)

	// Past start times are malformed input.
	_, err = s.Create(context.Background(), CreateBookingInput{
		TenantID: tenantA, ActorID: customerID, ServiceID: serviceID, StaffID: staffID,
		StartTime: time.Date(2026, 5, 3, 14, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCancelRespectsWindow(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newBookingSvc(m, &recordingNotifier{}, 2*time.Hour)
	now := s.now()

	inside := m.id()
	m.bookings[inside] = model.Booking{
		ID: inside, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
		StartTime: now.Add(1 * time.Hour),
	}
	outside := m.id()
	m.bookings[outside] = model.Booking{
		ID: outside, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
		StartTime: now.Add(3 * time.Hour),
	}

	_, err := s.Cancel(context.Background(), tenantA, inside, customerID, false)
	assert.ErrorIs(t, err, lifecycle.ErrCancellationWindowExpired)
	assert.Equal(t, lifecycle.StatusConfirmed, m.bookings[inside].Status)

	b, err := s.Cancel(context.Background(), tenantA, outside, customerID, false)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCancelled, b.Status)
	assert.Equal(t, lifecycle.StatusCancelled, m.bookings[outside].Status)
}

// A customer may cancel their own booking and nothing else: another
// customer's booking reads as not-found, while staff cancel freely.
func TestCancelOwnership(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newBookingSvc(m, &recordingNotifier{}, 0)

	tid := tenantA
	strangerID := m.id()
	m.profiles[strangerID] = model.Profile{
		ID: strangerID, TenantID: &tid, FullName: "Rival", Role: model.RoleCustomer,
	}

	id := m.id()
	m.bookings[id] = model.Booking{
		ID: id, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
		StartTime: s.now().Add(3 * time.Hour),
	}

	_, err := s.Cancel(context.Background(), tenantA, id, strangerID, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, lifecycle.StatusConfirmed, m.bookings[id].Status)

	b, err := s.Cancel(context.Background(), tenantA, id, customerID, false)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCancelled, b.Status)

	// Staff cancel a booking they do not own.
	other := m.id()
	m.bookings[other] = model.Booking{
		ID: other, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
		StartTime: s.now().Add(3 * time.Hour),
	}
	b, err = s.Cancel(context.Background(), tenantA, other, staffID, true)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusCancelled, b.Status)
}

func TestSeatWalkUp(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, _ := seedShop(m)
	s := newBookingSvc(m, &recordingNotifier{}, 0)

	id := m.id()
	m.bookings[id] = model.Booking{
		ID: id, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		Status: lifecycle.StatusConfirmed, StartTime: s.now().Add(10 * time.Minute),
	}

	b, err := s.Seat(context.Background(), tenantA, id, staffID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusSeated, b.Status)

	// Seating twice is a lifecycle violation, not a silent no-op.
	_, err = s.Seat(context.Background(), tenantA, id, staffID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestNoShowAndForgiveFlow(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newBookingSvc(m, &recordingNotifier{}, 0)

	id := m.id()
	m.bookings[id] = model.Booking{
		ID: id, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
	}

	// Reason is mandatory.
	_, err := s.MarkNoShow(context.Background(), tenantA, id, staffID, "  ")
	assert.ErrorIs(t, err, ErrValidation)

	b, err := s.MarkNoShow(context.Background(), tenantA, id, staffID, "client never arrived")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusNoShow, b.Status)
	require.NotNil(t, b.NoShowBy)
	assert.Equal(t, staffID, *b.NoShowBy)
	require.NotNil(t, b.NoShowReason)
	assert.Equal(t, "client never arrived", *b.NoShowReason)

	b, err = s.Forgive(context.Background(), tenantA, id, staffID)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StatusConfirmed, b.Status)
	assert.Nil(t, b.NoShowBy)

	// Forgiveness never resurrects a cancelled booking.
	cancelled := m.id()
	m.bookings[cancelled] = model.Booking{
		ID: cancelled, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		Status: lifecycle.StatusCancelled,
	}
	_, err = s.Forgive(context.Background(), tenantA, cancelled, staffID)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestLifecycleTenantIsolation(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, _ := seedShop(m)
	s := newBookingSvc(m, &recordingNotifier{}, 0)

	id := m.id()
	m.bookings[id] = model.Booking{
		ID: id, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		Status: lifecycle.StatusConfirmed,
	}

	for _, op := range []func() error{
		func() error { _, err := s.Seat(context.Background(), tenantB, id, staffID); return err },
		func() error { _, err := s.Cancel(context.Background(), tenantB, id, staffID, true); return err },
		func() error { _, err := s.MarkNoShow(context.Background(), tenantB, id, staffID, "x"); return err },
		func() error { _, err := s.Forgive(context.Background(), tenantB, id, staffID); return err },
	} {
		assert.ErrorIs(t, op(), repository.ErrNotFound)
	}
	assert.Equal(t, lifecycle.StatusConfirmed, m.bookings[id].Status)
}
