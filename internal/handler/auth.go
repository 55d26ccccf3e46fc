// Package handler exposes the HTTP surface. Handlers stay thin: they
// bind and validate input, call into repositories or the service layer,
// and translate domain errors to status codes.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/config"
	"github.com/kavehjm/barberdesk/internal/middleware"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/utils"
)

// AuthHandler serves registration, login and the token endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
	Tenants  *repository.TenantRepo
	Tokens   *repository.TokenRepo
	Audit    *repository.AuditRepo
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, profiles *repository.ProfileRepo, tenants *repository.TenantRepo, tokens *repository.TokenRepo, audit *repository.AuditRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Profiles: profiles, Tenants: tenants, Tokens: tokens, Audit: audit}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Register creates the auth identity and its profile. Every new profile
// starts as an unaffiliated customer; shop roles are granted later by
// an owner.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.FullName == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, full_name and a password of at least 8 characters are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Users.Create(ctx, req.Email, req.Password, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}
	profileID, err := h.Profiles.Create(ctx, userID, req.FullName)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id":    userID,
		"profile_id": profileID,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues the token pair, both in the
// body for API clients and as cookies for the browser flow.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil || !user.IsActive || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		// One answer for every failure mode; no account probing.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	profile, err := h.Profiles.GetByUser(ctx, user.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	cl := utils.Claims{UserID: user.ID, ProfileID: profile.ID, Role: profile.Role}
	if profile.TenantID != nil {
		cl.TenantID = *profile.TenantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cl, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, user.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	middleware.SetSessionCookies(c, access, refresh)
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"refresh_token": refresh.Raw,
		"expires_at":    access.Exp.UTC(),
		"role":          profile.Role,
	})
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates an API client's refresh token. The browser flow never
// calls this; the session middleware refreshes cookies transparently.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(req.RefreshToken)
	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, repository.ErrTokenReused) {
		_ = h.Tokens.RevokeAllForUser(ctx, userID)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session_expired"})
	}
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	profile, err := h.Profiles.GetByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	cl := utils.Claims{UserID: userID, ProfileID: profile.ID, Role: profile.Role}
	if profile.TenantID != nil {
		cl.TenantID = *profile.TenantID
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, cl, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	next, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refresh failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  access.Token,
		"refresh_token": next.Raw,
		"expires_at":    access.Exp.UTC(),
	})
}

// Logout revokes every session of the caller and clears cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, _ := c.Get("user_id").(uint64)
	if userID != 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		_ = h.Tokens.RevokeAllForUser(ctx, userID)
	}
	middleware.ClearSessionCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// Me returns the caller's profile as seen by the policy layer.
func (h *AuthHandler) Me(c echo.Context) error {
	profileID, _ := c.Get("profile_id").(uint64)
	userID, _ := c.Get("user_id").(uint64)
	if userID == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	if !user.IsActive {
		// The account was deactivated after the token was minted.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	profile, err := h.Profiles.GetByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	resp := echo.Map{
		"profile_id":     profileID,
		"email":          user.Email,
		"full_name":      profile.FullName,
		"role":           profile.Role,
		"is_barber":      profile.IsBarber,
		"loyalty_points": profile.LoyaltyPoints,
	}
	if profile.TenantID != nil {
		resp["tenant_id"] = *profile.TenantID
		if t, err := h.Tenants.GetByID(ctx, *profile.TenantID); err == nil {
			resp["shop_name"] = t.Name
		}
	}
	return c.JSON(http.StatusOK, resp)
}
