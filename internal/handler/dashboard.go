package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// DashboardHandler serves the daily operations view and petty-cash
// expense entry. Both stay reachable in kiosk mode.
type DashboardHandler struct {
	Bookings     *repository.BookingRepo
	Transactions *repository.TransactionRepo
	Expenses     *repository.ExpenseRepo
}

func NewDashboardHandler(bookings *repository.BookingRepo, transactions *repository.TransactionRepo, expenses *repository.ExpenseRepo) *DashboardHandler {
	return &DashboardHandler{Bookings: bookings, Transactions: transactions, Expenses: expenses}
}

func dayParam(c echo.Context) (time.Time, error) {
	if s := c.QueryParam("date"); s != "" {
		return time.Parse("2006-01-02", s)
	}
	return time.Now().UTC(), nil
}

// Summary returns the day's headline numbers: booking count, gross
// sales and expense total.
func (h *DashboardHandler) Summary(c echo.Context) error {
	day, err := dayParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	tenantID := middleware.TenantID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.CountForTenantDay(ctx, tenantID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	sales, err := h.Transactions.SalesTotalForDay(ctx, tenantID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	expenses, err := h.Expenses.ListForDay(ctx, tenantID, day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	spent := decimal.Zero
	for _, e := range expenses {
		spent = spent.Add(e.Amount)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"date":     day.Format("2006-01-02"),
		"bookings": bookings,
		"sales":    sales.StringFixed(2),
		"expenses": spent.StringFixed(2),
		"net":      sales.Sub(spent).StringFixed(2),
	})
}

type expenseReq struct {
	Description string `json:"description"`
	Amount      string `json:"amount"` // decimal string
}

// CreateExpense records a petty-cash outflow.
func (h *DashboardHandler) CreateExpense(c echo.Context) error {
	var req expenseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	desc := strings.TrimSpace(req.Description)
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || desc == "" || amount.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description and a non-negative amount are required"})
	}
	staffID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Expenses.Create(ctx, middleware.TenantID(c), staffID, desc, amount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ListExpenses lists the day's expenses.
func (h *DashboardHandler) ListExpenses(c echo.Context) error {
	day, err := dayParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Expenses.ListForDay(ctx, middleware.TenantID(c), day)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, e := range list {
		out = append(out, echo.Map{
			"id":          e.ID,
			"staff_id":    e.StaffID,
			"description": e.Description,
			"amount":      e.Amount.StringFixed(2),
			"created_at":  e.CreatedAt.UTC(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"expenses": out})
}
