package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/policy"
)

// AccessHandler serves the navigation guard endpoint. Clients ask
// before rendering a route; the server enforcement middleware evaluates
// the identical decision table, so a client that skips asking gains
// nothing.
type AccessHandler struct {
	Kiosk middleware.KioskReader
}

func NewAccessHandler(kiosk middleware.KioskReader) *AccessHandler {
	return &AccessHandler{Kiosk: kiosk}
}

// Decision evaluates the policy for a prospective route.
func (h *AccessHandler) Decision(c echo.Context) error {
	route := c.QueryParam("route")
	if route == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "route is required"})
	}
	role, _ := c.Get("role").(string)
	tenantID := middleware.TenantID(c)

	kioskOn := false
	if tenantID != 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		on, err := h.Kiosk.KioskMode(ctx, tenantID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}
		kioskOn = on
	}
	return c.JSON(http.StatusOK, policy.Decide(role, kioskOn, route))
}
