package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
)

// AdminHandler serves the owner surface: kiosk mode, role grants and
// catalog management.
type AdminHandler struct {
	Tenants  *repository.TenantRepo
	Profiles *repository.ProfileRepo
	Services *repository.ServiceRepo
	Audit    *repository.AuditRepo
}

func NewAdminHandler(tenants *repository.TenantRepo, profiles *repository.ProfileRepo, services *repository.ServiceRepo, audit *repository.AuditRepo) *AdminHandler {
	return &AdminHandler{Tenants: tenants, Profiles: profiles, Services: services, Audit: audit}
}

// GetKiosk reports the persisted kiosk flag.
func (h *AdminHandler) GetKiosk(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	on, err := h.Tenants.KioskMode(ctx, middleware.TenantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"kiosk_mode": on})
}

type kioskReq struct {
	Enabled bool `json:"enabled"`
}

// SetKiosk toggles kiosk mode. The flag is persisted, so every server
// instance enforces the new value on its next policy decision; there is
// no per-process cache to invalidate.
func (h *AdminHandler) SetKiosk(c echo.Context) error {
	var req kioskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	tenantID := middleware.TenantID(c)
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tenants.SetKioskMode(ctx, tenantID, req.Enabled); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	h.Audit.Append(ctx, tenantID, actorID, model.AuditKioskToggled, "tenants", tenantID,
		map[string]any{"enabled": req.Enabled})
	return c.JSON(http.StatusOK, echo.Map{"kiosk_mode": req.Enabled})
}

type grantReq struct {
	ProfileID uint64 `json:"profile_id"`
	Role      string `json:"role"`
	IsBarber  bool   `json:"is_barber"`
}

func grantableRole(r string) bool {
	return r == model.RoleCustomer || r == model.RoleStaff || r == model.RoleOwner || r == model.RoleKiosk
}

// Grant attaches a profile to the shop with a role. This is the only
// path by which a profile gains tenant membership; registration never
// does.
func (h *AdminHandler) Grant(c echo.Context) error {
	var req grantReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ProfileID == 0 || !grantableRole(req.Role) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "profile_id and a valid role are required"})
	}
	tenantID := middleware.TenantID(c)
	actorID, _ := c.Get("profile_id").(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.Grant(ctx, req.ProfileID, tenantID, req.Role, req.IsBarber); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	h.Audit.Append(ctx, tenantID, actorID, model.AuditRoleGranted, "profiles", req.ProfileID,
		map[string]any{"role": req.Role, "is_barber": req.IsBarber})
	return c.JSON(http.StatusOK, echo.Map{"profile_id": req.ProfileID, "role": req.Role})
}

type serviceReq struct {
	Name        string `json:"name"`
	Price       string `json:"price"` // decimal string
	DurationMin int    `json:"duration_min"`
}

func (r serviceReq) parse() (string, decimal.Decimal, int, error) {
	name := strings.TrimSpace(r.Name)
	price, err := decimal.NewFromString(r.Price)
	if err != nil || name == "" || r.DurationMin <= 0 || price.IsNegative() {
		return "", decimal.Zero, 0, errors.New("name, a non-negative price and a positive duration_min are required")
	}
	return name, price, r.DurationMin, nil
}

// CreateService adds a catalog entry.
func (h *AdminHandler) CreateService(c echo.Context) error {
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name, price, duration, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Services.Create(ctx, middleware.TenantID(c), name, price, duration)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// UpdateService edits a catalog entry. Settled transactions keep the
// amount they were charged with; only future bookings see the change.
func (h *AdminHandler) UpdateService(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}
	var req serviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name, price, duration, err := req.parse()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Update(ctx, id, middleware.TenantID(c), name, price, duration); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// DeactivateService retires a catalog entry without deleting it, so
// historical bookings keep their reference.
func (h *AdminHandler) DeactivateService(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Services.Deactivate(ctx, id, middleware.TenantID(c)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListCustomers returns the shop's customer directory.
func (h *AdminHandler) ListCustomers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Profiles.ListCustomers(ctx, middleware.TenantID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(list))
	for _, p := range list {
		out = append(out, echo.Map{
			"profile_id":     p.ID,
			"full_name":      p.FullName,
			"loyalty_points": p.LoyaltyPoints,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": out})
}

// AuditTrail lists audit entries for one entity.
func (h *AdminHandler) AuditTrail(c echo.Context) error {
	entity := c.QueryParam("entity")
	entityID, err := strconv.ParseUint(c.QueryParam("entity_id"), 10, 64)
	if entity == "" || err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "entity and entity_id are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Audit.ListForEntity(ctx, middleware.TenantID(c), entity, entityID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":         e.ID,
			"actor_id":   e.ActorID,
			"action":     e.Action,
			"metadata":   e.Metadata,
			"created_at": e.CreatedAt.UTC(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": out})
}
