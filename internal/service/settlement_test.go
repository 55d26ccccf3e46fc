package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/loyalty"
	"github.com/kavehjm/barberdesk/internal/model"
	q "github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
)

const (
	tenantA uint64 = 1
	tenantB uint64 = 2
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func u64(v uint64) *uint64 { return &v }

// seedShop populates tenant A with a $200 cut, a barber and a customer
// holding 600 points (silver tier).
func seedShop(m *memStore) (serviceID, staffID, customerID uint64) {
	serviceID = m.id()
	m.services[serviceID] = model.Service{
		ID: serviceID, TenantID: tenantA, Name: "Premium Cut",
		Price: d("200"), DurationMin: 45, IsActive: true,
	}
	staffID = m.id()
	tid := tenantA
	m.profiles[staffID] = model.Profile{
		ID: staffID, TenantID: &tid, FullName: "Dana", Role: model.RoleStaff, IsBarber: true,
	}
	customerID = m.id()
	m.profiles[customerID] = model.Profile{
		ID: customerID, TenantID: &tid, FullName: "Sam", Role: model.RoleCustomer, LoyaltyPoints: 600,
	}
	return
}

func newSettlement(m *memStore, n Notifier) *SettlementService {
	s := NewSettlementService(m, n)
	s.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return s
}

// The canonical walk-in scenario: $200 service, 600-point silver
// customer redeems 200 points. Discount $20, charge $180, earns
// floor(180*1.5)=270, new balance 670.
func TestWalkInSettlementWithRedemption(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	notifier := &recordingNotifier{}
	s := newSettlement(m, notifier)

	txn, err := s.Settle(context.Background(), SettleInput{
		TenantID:      tenantA,
		ActorID:       staffID,
		StaffID:       staffID,
		ServiceID:     serviceID,
		CustomerID:    u64(customerID),
		PaymentMethod: model.PaymentCard,
		RedeemPoints:  200,
	})
	require.NoError(t, err)

	assert.True(t, txn.Amount.Equal(d("180")), "amount=%s", txn.Amount)
	assert.EqualValues(t, 270, txn.PointsEarned)
	assert.EqualValues(t, 200, txn.PointsRedeemed)
	assert.EqualValues(t, 670, m.profiles[customerID].LoyaltyPoints)

	// The ghost booking exists, completed, spanning the service duration.
	ghost := m.bookings[txn.BookingID]
	assert.Equal(t, lifecycle.StatusCompleted, ghost.Status)
	assert.Equal(t, 45*time.Minute, ghost.EndTime.Sub(ghost.StartTime))
	require.NotNil(t, ghost.CustomerID)
	assert.Equal(t, customerID, *ghost.CustomerID)

	// Audit entry and lifecycle event both carry the sale.
	require.Len(t, m.audits, 1)
	assert.Equal(t, model.AuditPOSSale, m.audits[0].Action)
	assert.Equal(t, "180.00", m.audits[0].Metadata["amount"])
	require.Len(t, notifier.events, 1)
	assert.Equal(t, q.EventSaleSettled, notifier.events[0].Type)
}

func TestScheduledSettlementCompletesBooking(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newSettlement(m, &recordingNotifier{})

	bookingID := m.id()
	m.bookings[bookingID] = model.Booking{
		ID: bookingID, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusSeated,
	}

	txn, err := s.Settle(context.Background(), SettleInput{
		TenantID:      tenantA,
		ActorID:       staffID,
		BookingID:     u64(bookingID),
		StaffID:       staffID,
		ServiceID:     serviceID,
		PaymentMethod: model.PaymentCash,
	})
	require.NoError(t, err)

	assert.Equal(t, bookingID, txn.BookingID)
	assert.True(t, txn.Amount.Equal(d("200")))
	assert.Equal(t, lifecycle.StatusCompleted, m.bookings[bookingID].Status)
	// Silver customer earns floor(200*1.5)=300 with no redemption.
	assert.EqualValues(t, 300, txn.PointsEarned)
	assert.EqualValues(t, 900, m.profiles[customerID].LoyaltyPoints)
}

func TestSettleTwiceFailsAlreadySettled(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, _ := seedShop(m)
	s := newSettlement(m, &recordingNotifier{})

	bookingID := m.id()
	m.bookings[bookingID] = model.Booking{
		ID: bookingID, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		Status: lifecycle.StatusConfirmed,
	}

	in := SettleInput{
		TenantID: tenantA, ActorID: staffID, BookingID: u64(bookingID),
		StaffID: staffID, ServiceID: serviceID, PaymentMethod: model.PaymentCash,
	}
	_, err := s.Settle(context.Background(), in)
	require.NoError(t, err)

	_, err = s.Settle(context.Background(), in)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadySettled)

	// Exactly one transaction exists.
	count := 0
	for _, txn := range m.transactions {
		if txn.BookingID == bookingID {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSettlementTenantIsolation(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newSettlement(m, &recordingNotifier{})

	bookingID := m.id()
	m.bookings[bookingID] = model.Booking{
		ID: bookingID, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		Status: lifecycle.StatusConfirmed,
	}

	// An actor on tenant B supplies tenant A's ids in every field; the
	// scoped reads collapse to not-found.
	_, err := s.Settle(context.Background(), SettleInput{
		TenantID: tenantB, ActorID: staffID, BookingID: u64(bookingID),
		StaffID: staffID, ServiceID: serviceID, CustomerID: u64(customerID),
		PaymentMethod: model.PaymentCash,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, lifecycle.StatusConfirmed, m.bookings[bookingID].Status)
	assert.Empty(t, m.transactions)
}

func TestRedemptionBelowThresholdRefused(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	p := m.profiles[customerID]
	p.LoyaltyPoints = 50
	m.profiles[customerID] = p
	s := newSettlement(m, &recordingNotifier{})

	in := SettleInput{
		TenantID: tenantA, ActorID: staffID, StaffID: staffID, ServiceID: serviceID,
		CustomerID: u64(customerID), PaymentMethod: model.PaymentCash, RedeemPoints: 50,
	}
	_, err := s.Settle(context.Background(), in)
	assert.ErrorIs(t, err, loyalty.ErrRedemptionBelowThreshold)
	assert.Empty(t, m.transactions, "refused redemption must not record a sale")

	// The same sale without redemption proceeds.
	in.RedeemPoints = 0
	txn, err := s.Settle(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, txn.Amount.Equal(d("200")))
}

func TestSettlementRollsBackAtomically(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, customerID := seedShop(m)
	s := newSettlement(m, &recordingNotifier{})

	bookingID := m.id()
	m.bookings[bookingID] = model.Booking{
		ID: bookingID, TenantID: tenantA, ServiceID: serviceID, StaffID: staffID,
		CustomerID: u64(customerID), Status: lifecycle.StatusConfirmed,
	}

	// Redeeming more than the balance fails midway through the unit;
	// nothing may survive: no transaction, no point movement, no
	// status change.
	_, err := s.Settle(context.Background(), SettleInput{
		TenantID: tenantA, ActorID: staffID, BookingID: u64(bookingID),
		StaffID: staffID, ServiceID: serviceID,
		PaymentMethod: model.PaymentCash, RedeemPoints: 700,
	})
	require.Error(t, err)
	assert.Empty(t, m.transactions)
	assert.EqualValues(t, 600, m.profiles[customerID].LoyaltyPoints)
	assert.Equal(t, lifecycle.StatusConfirmed, m.bookings[bookingID].Status)
}

func TestSettleValidation(t *testing.T) {
	m := newMemStore()
	serviceID, staffID, _ := seedShop(m)
	s := newSettlement(m, &recordingNotifier{})

	_, err := s.Settle(context.Background(), SettleInput{
		TenantID: tenantA, ActorID: staffID, StaffID: staffID, ServiceID: serviceID,
		PaymentMethod: "bitcoin",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Settle(context.Background(), SettleInput{
		TenantID: tenantA, ActorID: staffID, StaffID: staffID, ServiceID: serviceID,
		PaymentMethod: model.PaymentCash, RedeemPoints: 100, // no customer
	})
	assert.ErrorIs(t, err, ErrValidation)
}
