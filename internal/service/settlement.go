package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/loyalty"
	"github.com/kavehjm/barberdesk/internal/model"
	q "github.com/kavehjm/barberdesk/internal/queue"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// SettlementService turns a completed unit of service time into a
// monetary transaction. The lifecycle transition, the transaction row,
// the loyalty movement and the audit entry all commit in one store
// transaction; no observer ever sees money without occupancy or vice
// versa.
type SettlementService struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewSettlementService(store Store, notifier Notifier) *SettlementService {
	return &SettlementService{
		store:    store,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SettleInput describes a sale at the terminal. BookingID nil means a
// walk-in: the engine materializes a ghost booking already in the
// completed state so staff occupancy reporting stays consistent.
// Amount nil defaults to the service price; staff may override it for
// discounts. RedeemPoints above zero converts part of the customer's
// balance into a discount.
type SettleInput struct {
	TenantID      uint64
	ActorID       uint64
	BookingID     *uint64
	StaffID       uint64
	ServiceID     uint64
	CustomerID    *uint64
	Amount        *decimal.Decimal
	PaymentMethod string
	RedeemPoints  int64
}

func validPaymentMethod(m string) bool {
	return m == model.PaymentCash || m == model.PaymentCard || m == model.PaymentTransfer
}

// Settle executes the settlement algorithm as a single logical unit.
// Recoverable domain failures (lifecycle, loyalty, not-found) propagate
// as their own sentinels; anything else is wrapped in
// ErrSettlementFailed so the caller can report "sale not recorded"
// without ambiguity. The lifecycle notification is dispatched after
// commit and can never fail the sale.
func (s *SettlementService) Settle(ctx context.Context, in SettleInput) (model.Transaction, error) {
	if !validPaymentMethod(in.PaymentMethod) {
		return model.Transaction{}, fmt.Errorf("%w: unknown payment method %q", ErrValidation, in.PaymentMethod)
	}
	if in.RedeemPoints < 0 {
		return model.Transaction{}, fmt.Errorf("%w: redeem_points must not be negative", ErrValidation)
	}
	if in.RedeemPoints > 0 && in.CustomerID == nil {
		return model.Transaction{}, fmt.Errorf("%w: redemption requires a customer", ErrValidation)
	}
	if in.Amount != nil && in.Amount.IsNegative() {
		return model.Transaction{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}

	var txn model.Transaction
	err := s.store.WithinTx(ctx, func(tx Tx) error {
		svc, err := tx.ServiceForTenant(ctx, in.ServiceID, in.TenantID)
		if err != nil {
			return err
		}
		staff, err := tx.ProfileForUpdate(ctx, in.StaffID, in.TenantID)
		if err != nil {
			return err
		}

		// Resolve the booking: complete an existing one, or
		// materialize a ghost booking for the walk-in.
		var (
			booking    model.Booking
			customerID = in.CustomerID
		)
		if in.BookingID != nil {
			booking, err = tx.BookingForUpdate(ctx, *in.BookingID, in.TenantID)
			if err != nil {
				return err
			}
			if err := lifecycle.Complete(booking.Status); err != nil {
				return err
			}
			if customerID == nil {
				customerID = booking.CustomerID
			}
		}

		// Resolve charge and loyalty movement.
		gross := svc.Price
		if in.Amount != nil {
			gross = *in.Amount
		}
		effective := gross
		earned := int64(0)
		if customerID != nil {
			customer, err := tx.ProfileForUpdate(ctx, *customerID, in.TenantID)
			if err != nil {
				return err
			}
			if err := loyalty.ValidateRedemption(customer.LoyaltyPoints, in.RedeemPoints, gross); err != nil {
				return err
			}
			effective = gross.Sub(loyalty.DiscountFromPoints(in.RedeemPoints))
			if effective.IsNegative() {
				return fmt.Errorf("%w: redemption exceeds charge", ErrValidation)
			}
			// Accrual applies to the cash-equivalent portion only,
			// at the rate of the customer's tier before redemption.
			earned = loyalty.PointsEarned(effective, loyalty.TierOf(customer.LoyaltyPoints))
			if delta := earned - in.RedeemPoints; delta != 0 {
				if err := tx.AddPoints(ctx, customer.ID, in.TenantID, delta); err != nil {
					return err
				}
			}
		}

		if in.BookingID != nil {
			if err := tx.UpdateBookingStatus(ctx, booking.ID, in.TenantID, booking.Status, lifecycle.StatusCompleted); err != nil {
				return err
			}
			booking.Status = lifecycle.StatusCompleted
		} else {
			now := s.now()
			booking = model.Booking{
				TenantID:   in.TenantID,
				ServiceID:  svc.ID,
				StaffID:    staff.ID,
				CustomerID: customerID,
				StartTime:  now,
				EndTime:    now.Add(time.Duration(svc.DurationMin) * time.Minute),
				Status:     lifecycle.StatusCompleted,
			}
			if err := tx.InsertBooking(ctx, &booking); err != nil {
				return err
			}
		}

		txn = model.Transaction{
			TenantID:       in.TenantID,
			BookingID:      booking.ID,
			StaffID:        staff.ID,
			ServiceID:      svc.ID,
			Amount:         effective,
			PaymentMethod:  in.PaymentMethod,
			PointsEarned:   earned,
			PointsRedeemed: in.RedeemPoints,
			ClientID:       customerID,
			Status:         model.TransactionRecorded,
		}
		if err := tx.InsertTransaction(ctx, &txn); err != nil {
			return err
		}

		return tx.Audit(ctx, in.TenantID, in.ActorID, model.AuditPOSSale, "bookings", booking.ID,
			map[string]any{"amount": effective.StringFixed(2), "payment_method": in.PaymentMethod})
	})
	if err != nil {
		return model.Transaction{}, classifySettlementErr(err)
	}

	if s.notifier != nil {
		s.notifier.Publish(q.LifecycleEvent{
			ID:         uuid.NewString(),
			Type:       q.EventSaleSettled,
			TenantID:   txn.TenantID,
			BookingID:  txn.BookingID,
			StaffID:    txn.StaffID,
			Status:     lifecycle.StatusCompleted,
			Amount:     txn.Amount.StringFixed(2),
			OccurredAt: s.now().Format(time.RFC3339),
		})
	}
	return txn, nil
}

// classifySettlementErr keeps domain sentinels intact and folds
// everything else into the single "sale not recorded" failure.
func classifySettlementErr(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrAlreadySettled),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, loyalty.ErrRedemptionBelowThreshold),
		errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, loyalty.ErrRedeemExceedsCharge),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, ErrValidation):
		return err
	case errors.Is(err, repository.ErrConflict):
		// A concurrent settlement won the status-guard race.
		return lifecycle.ErrAlreadySettled
	default:
		return fmt.Errorf("%w: %v", ErrSettlementFailed, err)
	}
}
