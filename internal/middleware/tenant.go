package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/tenant"
)

// TenantSource loads a tenant by its subdomain slug. Implemented by
// repository.TenantRepo.
type TenantSource interface {
	GetBySlug(ctx context.Context, slug string) (model.Tenant, error)
}

// ResolveTenant maps the request Host to a shop and stashes it in the
// request context. Hosts whose subdomain label is reserved or missing
// carry no tenant; with required=true such requests are rejected,
// otherwise they proceed in platform context (tenant_id zero).
func ResolveTenant(src TenantSource, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			slug, ok := tenant.Resolve(c.Request().Host)
			if !ok {
				if required {
					return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown shop"})
				}
				c.Set("tenant_id", uint64(0))
				return next(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			t, err := src.GetBySlug(ctx, slug)
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown shop"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if t.SubscriptionStatus == model.SubscriptionSuspended {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "shop suspended"})
			}

			c.Set("tenant_id", t.ID)
			c.Set("tenant_slug", t.Slug)
			c.Set("tenant_name", t.Name)
			return next(c)
		}
	}
}

// TenantID reads the resolved tenant from the request context.
func TenantID(c echo.Context) uint64 {
	if v, ok := c.Get("tenant_id").(uint64); ok {
		return v
	}
	return 0
}
