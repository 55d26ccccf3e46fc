package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/loyalty"
	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/service"
)

// POSHandler serves the point-of-sale surface: settling sales and
// voiding recorded transactions.
type POSHandler struct {
	Settlement   *service.SettlementService
	Transactions *repository.TransactionRepo
	Audit        *repository.AuditRepo
}

func NewPOSHandler(settlement *service.SettlementService, transactions *repository.TransactionRepo, audit *repository.AuditRepo) *POSHandler {
	return &POSHandler{Settlement: settlement, Transactions: transactions, Audit: audit}
}

type settleReq struct {
	BookingID     *uint64 `json:"booking_id"`
	StaffID       uint64  `json:"staff_id"`
	ServiceID     uint64  `json:"service_id"`
	CustomerID    *uint64 `json:"customer_id"`
	Amount        *string `json:"amount"` // decimal string; omit to charge the list price
	PaymentMethod string  `json:"payment_method"`
	RedeemPoints  int64   `json:"redeem_points"`
}

// Settle records a sale. With booking_id it completes the scheduled
// booking; without it the sale is a walk-in.
func (h *POSHandler) Settle(c echo.Context) error {
	var req settleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.StaffID == 0 || req.ServiceID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "staff_id and service_id are required"})
	}
	var amount *decimal.Decimal
	if req.Amount != nil {
		d, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be a decimal string"})
		}
		amount = &d
	}
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	txn, err := h.Settlement.Settle(ctx, service.SettleInput{
		TenantID:      middleware.TenantID(c),
		ActorID:       actorID,
		BookingID:     req.BookingID,
		StaffID:       req.StaffID,
		ServiceID:     req.ServiceID,
		CustomerID:    req.CustomerID,
		Amount:        amount,
		PaymentMethod: req.PaymentMethod,
		RedeemPoints:  req.RedeemPoints,
	})
	if err != nil {
		return settleError(c, err)
	}
	return c.JSON(http.StatusCreated, transactionJSON(txn))
}

// Void reverses a recorded transaction. The row is kept and marked, so
// daily totals and the audit trail stay reconstructible.
func (h *POSHandler) Void(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}
	tenantID := middleware.TenantID(c)
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Transactions.Void(ctx, id, tenantID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "transaction already voided"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
	}
	h.Audit.Append(ctx, tenantID, actorID, model.AuditPOSVoid, "transactions", id, nil)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": model.TransactionVoided})
}

func transactionJSON(t model.Transaction) echo.Map {
	m := echo.Map{
		"id":              t.ID,
		"booking_id":      t.BookingID,
		"staff_id":        t.StaffID,
		"service_id":      t.ServiceID,
		"amount":          t.Amount.StringFixed(2),
		"payment_method":  t.PaymentMethod,
		"points_earned":   t.PointsEarned,
		"points_redeemed": t.PointsRedeemed,
		"status":          t.Status,
	}
	if t.ClientID != nil {
		m["customer_id"] = *t.ClientID
	}
	return m
}

func settleError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, lifecycle.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already settled"})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, loyalty.ErrRedemptionBelowThreshold),
		errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, loyalty.ErrRedeemExceedsCharge),
		errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	default:
		// Deliberately terse: the sale did not happen, nothing partial
		// was written.
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": service.ErrSettlementFailed.Error()})
	}
}
