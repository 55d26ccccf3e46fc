package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// PublicHandler serves the anonymous shopfront: the service catalog and
// the barber roster. These routes sit behind the catalog cache.
type PublicHandler struct {
	Catalog  *repository.ServiceRepo
	Profiles *repository.ProfileRepo
}

func NewPublicHandler(services *repository.ServiceRepo, profiles *repository.ProfileRepo) *PublicHandler {
	return &PublicHandler{Catalog: services, Profiles: profiles}
}

// Services lists the shop's active catalog.
func (h *PublicHandler) Services(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Catalog.ListActive(ctx, middleware.TenantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, s := range list {
		out = append(out, echo.Map{
			"id":           s.ID,
			"name":         s.Name,
			"price":        s.Price.StringFixed(2),
			"duration_min": s.DurationMin,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"services": out})
}

// Staff lists the bookable barbers.
func (h *PublicHandler) Staff(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Profiles.ListBarbers(ctx, middleware.TenantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, p := range list {
		out = append(out, echo.Map{
			"id":        p.ID,
			"full_name": p.FullName,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"staff": out})
}
