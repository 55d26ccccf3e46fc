// Package router registers the HTTP surface and ties the middleware
// chain together. Route groups mirror the access model: a public
// shopfront, an authenticated tenant surface behind the policy layer,
// and an owner-only admin surface on top of that.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/kavehjm/barberdesk/internal/config"
	"github.com/kavehjm/barberdesk/internal/handler"
	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/model"
)

// Handlers bundles the handler set for registration.
type Handlers struct {
	Auth      *handler.AuthHandler
	Booking   *handler.BookingHandler
	POS       *handler.POSHandler
	Admin     *handler.AdminHandler
	Access    *handler.AccessHandler
	Public    *handler.PublicHandler
	Dashboard *handler.DashboardHandler
}

// Deps bundles the middleware dependencies.
type Deps struct {
	Cfg     config.Config
	Tenants middleware.TenantSource
	Kiosk   middleware.KioskReader
	Tokens  middleware.TokenStore
	Profile middleware.ProfileSource
	Redis   *redis.Client
}

// Register wires every route. The health probe stays outside all
// groups so it answers without a tenant host.
func Register(e *echo.Echo, h Handlers, d Deps) {
	e.GET("/healthz", handler.Health)

	rateCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	tenantRequired := middleware.ResolveTenant(d.Tenants, true)
	sessionOptional := middleware.Session(d.Cfg, d.Tokens, d.Profile, false)
	sessionRequired := middleware.Session(d.Cfg, d.Tokens, d.Profile, true)
	enforce := middleware.EnforcePolicy(d.Kiosk)
	limited := middleware.RateLimit(rateCfg, d.Redis)

	// Auth endpoints sit on the tenant host but need no session. The
	// rate limiter shields credential probing.
	auth := e.Group("/v1/auth", tenantRequired, limited)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, sessionOptional)

	// Anonymous shopfront, served through the catalog cache.
	public := e.Group("/v1", tenantRequired, middleware.CatalogCache(cacheCfg, d.Redis))
	public.GET("/services", h.Public.Services)
	public.GET("/staff", h.Public.Staff)

	// Authenticated tenant surface. Every request passes the session
	// gateway and the policy layer; ownership and per-view role checks
	// that depend on the addressed record live below, in the handlers
	// and services.
	v1 := e.Group("/v1", tenantRequired, sessionRequired, enforce)
	v1.GET("/me", h.Auth.Me)
	v1.GET("/access/decision", h.Access.Decision)

	v1.POST("/bookings", h.Booking.Create)
	v1.GET("/bookings", h.Booking.ListDay)
	v1.GET("/my-bookings", h.Booking.ListMine)
	v1.POST("/bookings/:id/seat", h.Booking.Seat)
	v1.POST("/bookings/:id/cancel", h.Booking.Cancel)
	v1.POST("/bookings/:id/no-show", h.Booking.NoShow)
	v1.POST("/bookings/:id/forgive", h.Booking.Forgive)

	pos := v1.Group("/pos", limited)
	pos.POST("/settle", h.POS.Settle)
	pos.POST("/transactions/:id/void", h.POS.Void)

	v1.GET("/customers", h.Admin.ListCustomers)
	v1.GET("/dashboard", h.Dashboard.Summary)
	v1.POST("/expenses", h.Dashboard.CreateExpense)
	v1.GET("/expenses", h.Dashboard.ListExpenses)

	// Owner surface. RequireRole sits on top of the policy layer: in
	// kiosk mode the policy denies these routes before role is asked.
	admin := v1.Group("/admin", middleware.RequireRole(model.RoleOwner, model.RoleSuperAdmin))
	admin.GET("/kiosk", h.Admin.GetKiosk)
	admin.PUT("/kiosk", h.Admin.SetKiosk)
	admin.POST("/grants", h.Admin.Grant)
	admin.POST("/services", h.Admin.CreateService)
	admin.PUT("/services/:id", h.Admin.UpdateService)
	admin.DELETE("/services/:id", h.Admin.DeactivateService)
	admin.GET("/audit", h.Admin.AuditTrail)
}
