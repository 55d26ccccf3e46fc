package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/policy"
)

// KioskReader reads the tenant's persisted kiosk flag. Implemented by
// repository.TenantRepo; the flag is consulted on every decision, never
// cached in process, so a toggle is visible platform-wide on the next
// request.
type KioskReader interface {
	KioskMode(ctx context.Context, tenantID uint64) (bool, error)
}

// EnforcePolicy applies the access policy on the server for every
// request that passed the session middleware. It is sufficient on its
// own: a client that skips the navigation guard and fires requests
// directly still hits exactly the same decision table here.
//
// Tenant mismatch between the caller's claims and the resolved host is
// answered with a 404, indistinguishable from a shop that does not
// exist.
func EnforcePolicy(kiosk KioskReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			hostTenant := TenantID(c)
			claimTenant, _ := c.Get("claim_tenant_id").(uint64)

			if role != model.RoleSuperAdmin && claimTenant != 0 && hostTenant != 0 && claimTenant != hostTenant {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
			}

			kioskOn := false
			if hostTenant != 0 {
				ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
				on, err := kiosk.KioskMode(ctx, hostTenant)
				cancel()
				if err != nil {
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
				}
				kioskOn = on
			}

			dec := policy.Decide(role, kioskOn, c.Request().URL.Path)
			if dec.Allowed {
				return next(c)
			}
			if c.Request().Method == http.MethodGet && !wantsJSON(c) {
				return c.Redirect(http.StatusFound, dec.RedirectTo)
			}
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":       "access denied",
				"redirect_to": dec.RedirectTo,
			})
		}
	}
}

// RequireRole gates a route group to the listed roles. Used for the
// owner/admin surface on top of EnforcePolicy.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access denied"})
			}
			return next(c)
		}
	}
}
