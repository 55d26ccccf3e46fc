package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/lifecycle"
	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints. All writes go
// through the lifecycle service; reads hit the repository directly.
type BookingHandler struct {
	Bookings *service.BookingService
	Repo     *repository.BookingRepo
}

func NewBookingHandler(svc *service.BookingService, repo *repository.BookingRepo) *BookingHandler {
	return &BookingHandler{Bookings: svc, Repo: repo}
}

type createBookingReq struct {
	ServiceID  uint64  `json:"service_id"`
	StaffID    uint64  `json:"staff_id"`
	CustomerID *uint64 `json:"customer_id"`
	StartTime  string  `json:"start_time"` // RFC 3339
	Notes      string  `json:"notes"`
}

// Create books a slot. Customers book for themselves; staff may book on
// behalf of any customer of the shop.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time must be RFC 3339"})
	}
	if req.ServiceID == 0 || req.StaffID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id and staff_id are required"})
	}

	actorID, _ := c.Get("profile_id").(uint64)
	role, _ := c.Get("role").(string)
	customerID := req.CustomerID
	if role == model.RoleCustomer || role == "" {
		// Customers always book for themselves regardless of payload.
		customerID = &actorID
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Create(ctx, service.CreateBookingInput{
		TenantID:   middleware.TenantID(c),
		ActorID:    actorID,
		ServiceID:  req.ServiceID,
		StaffID:    req.StaffID,
		CustomerID: customerID,
		StartTime:  start,
		Notes:      req.Notes,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, bookingJSON(b))
}

// Seat opens a scheduled booking at the terminal.
func (h *BookingHandler) Seat(c echo.Context) error {
	return h.mutate(c, h.Bookings.Seat)
}

// Cancel cancels a booking inside the allowed window. Customers may
// only cancel their own booking; staff may cancel any.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	actorID, _ := c.Get("profile_id").(uint64)
	role, _ := c.Get("role").(string)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Cancel(ctx, middleware.TenantID(c), id, actorID, model.StaffRole(role))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}

// Forgive reverses a no-show marking.
func (h *BookingHandler) Forgive(c echo.Context) error {
	return h.mutate(c, h.Bookings.Forgive)
}

type noShowReq struct {
	Reason string `json:"reason"`
}

// NoShow marks a booking as a no-show; the reason is mandatory.
func (h *BookingHandler) NoShow(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req noShowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.MarkNoShow(ctx, middleware.TenantID(c), id, actorID, req.Reason)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}

// ListMine returns the caller's own bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	profileID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Repo.ListForCustomer(ctx, middleware.TenantID(c), profileID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, b := range list {
		out = append(out, bookingJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// ListDay returns one staff member's bookings for a day (default
// today). The day board exposes other customers' ids, so it is a staff
// view; customers use ListMine.
func (h *BookingHandler) ListDay(c echo.Context) error {
	if role, _ := c.Get("role").(string); !model.StaffRole(role) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
	}
	staffID, err := strconv.ParseUint(c.QueryParam("staff_id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "staff_id is required"})
	}
	day := time.Now().UTC()
	if s := c.QueryParam("date"); s != "" {
		day, err = time.Parse("2006-01-02", s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Repo.ListForStaffDay(ctx, middleware.TenantID(c), staffID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, b := range list {
		out = append(out, bookingJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

func (h *BookingHandler) mutate(c echo.Context, op func(ctx context.Context, tenantID, bookingID, actorID uint64) (model.Booking, error)) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := op(ctx, middleware.TenantID(c), id, actorID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, bookingJSON(b))
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func bookingJSON(b model.Booking) echo.Map {
	m := echo.Map{
		"id":         b.ID,
		"service_id": b.ServiceID,
		"staff_id":   b.StaffID,
		"start_time": b.StartTime.UTC(),
		"end_time":   b.EndTime.UTC(),
		"status":     b.Status,
	}
	if b.CustomerID != nil {
		m["customer_id"] = *b.CustomerID
	}
	if b.Notes != "" {
		m["notes"] = b.Notes
	}
	if b.NoShowAt != nil {
		m["no_show"] = echo.Map{
			"by":     b.NoShowBy,
			"reason": b.NoShowReason,
			"at":     b.NoShowAt.UTC(),
		}
	}
	return m
}

// bookingError maps lifecycle and repository failures to HTTP codes.
func bookingError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, lifecycle.ErrCancellationWindowExpired):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window has closed"})
	case errors.Is(err, lifecycle.ErrAlreadySettled):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is already settled"})
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
