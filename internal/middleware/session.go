// Package middleware provides shared request processing: session
// resolution, tenant resolution, policy enforcement, rate limiting and
// response caching.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehjm/barberdesk/internal/config"
	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/utils"
)

// Cookie names used by the browser-facing session flow. API clients
// use the Authorization header instead and never see these.
const (
	CookieAccess  = "access_token"
	CookieRefresh = "refresh_token"
	// cookieRedirected is the one-shot marker that prevents an
	// infinite login redirect loop for anonymous browsers.
	cookieRedirected = "login_redirected"
)

// TokenStore is the slice of the token repository the session gateway
// needs. Implemented by repository.TokenRepo.
type TokenStore interface {
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// ProfileSource resolves the profile attached to an auth identity.
// Implemented by repository.ProfileRepo.
type ProfileSource interface {
	GetByUser(ctx context.Context, userID uint64) (model.Profile, error)
}

// Session resolves the caller's identity on every request. Three
// outcomes are kept strictly apart:
//
//   - valid session: claims land in the request context;
//   - no session: acceptable on public routes; on protected routes the
//     browser is redirected to login exactly once (one-shot marker),
//     API callers get a plain 401;
//   - corrupted credential (refresh token replayed after rotation):
//     all identity cookies are cleared, every session of the affected
//     user is revoked, and the caller is pushed to login with a
//     session_expired indicator.
//
// A missing session is never treated as corruption.
func Session(cfg config.Config, tokens TokenStore, profiles ProfileSource, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			fromCookie := false
			if raw == "" {
				if ck, err := c.Cookie(CookieAccess); err == nil {
					raw = ck.Value
					fromCookie = true
				}
			}

			if raw != "" {
				if cl, err := utils.ParseAccessToken(cfg.JWTSecret, raw); err == nil {
					setClaims(c, cl)
					return next(c)
				}
				// An unparseable header token is a hard 401; only the
				// cookie flow may fall through to transparent refresh.
				if !fromCookie {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
				}
			}

			// Transparent refresh from the refresh cookie.
			if ck, err := c.Cookie(CookieRefresh); err == nil && ck.Value != "" {
				cl, refreshErr := rotateSession(c, cfg, tokens, profiles, ck.Value)
				if refreshErr == nil {
					setClaims(c, cl)
					return next(c)
				}
				if errors.Is(refreshErr, repository.ErrTokenReused) {
					// Corrupted/replayed credential: force re-auth.
					ClearSessionCookies(c)
					return redirectOrJSON(c, http.StatusUnauthorized,
						"/login?reason=session_expired", "session_expired")
				}
				// Expired or unknown refresh token is an ordinary
				// logged-out state.
				ClearSessionCookies(c)
			}

			if !required {
				return next(c)
			}
			return anonymousOnProtected(c)
		}
	}
}

// rotateSession validates the refresh token, rotates it and issues a
// fresh access token, updating both cookies.
func rotateSession(c echo.Context, cfg config.Config, tokens TokenStore, profiles ProfileSource, rawRefresh string) (utils.Claims, error) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash := utils.HashRefreshRaw(rawRefresh)
	userID, err := tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenReused) {
			// Someone is holding a copy of a rotated token. Kill every
			// session for the user so neither party keeps access.
			_ = tokens.RevokeAllForUser(ctx, userID)
		}
		return utils.Claims{}, err
	}
	_ = tokens.RevokeByHash(ctx, hash)

	profile, err := profiles.GetByUser(ctx, userID)
	if err != nil {
		return utils.Claims{}, err
	}
	cl := utils.Claims{UserID: userID, ProfileID: profile.ID, Role: profile.Role}
	if profile.TenantID != nil {
		cl.TenantID = *profile.TenantID
	}

	access, err := utils.NewAccessToken(cfg.JWTSecret, cl, cfg.AccessTTLMin)
	if err != nil {
		return utils.Claims{}, err
	}
	refresh, err := utils.NewRefreshToken(cfg.RefreshTTLDays)
	if err != nil {
		return utils.Claims{}, err
	}
	if err := tokens.StoreRefresh(ctx, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return utils.Claims{}, err
	}
	SetSessionCookies(c, access, refresh)
	return cl, nil
}

// anonymousOnProtected redirects a browser to login once; the one-shot
// marker turns a second pass into a plain 401 so broken clients cannot
// loop forever.
func anonymousOnProtected(c echo.Context) error {
	if _, err := c.Cookie(cookieRedirected); err == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	c.SetCookie(&http.Cookie{
		Name:     cookieRedirected,
		Value:    "1",
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
	return redirectOrJSON(c, http.StatusUnauthorized, "/login", "unauthorized")
}

// redirectOrJSON redirects navigations and returns JSON for API calls.
func redirectOrJSON(c echo.Context, status int, target, code string) error {
	if c.Request().Method == http.MethodGet && !wantsJSON(c) {
		return c.Redirect(http.StatusFound, target)
	}
	return c.JSON(status, echo.Map{"error": code, "redirect_to": target})
}

func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON)
}

// SetSessionCookies writes the access/refresh pair for the browser
// flow. The auth handler shares this with the transparent refresh.
func SetSessionCookies(c echo.Context, access utils.AccessToken, refresh utils.RefreshToken) {
	c.SetCookie(&http.Cookie{
		Name: CookieAccess, Value: access.Token,
		Path: "/", Expires: access.Exp, HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
	c.SetCookie(&http.Cookie{
		Name: CookieRefresh, Value: refresh.Raw,
		Path: "/", Expires: refresh.Exp, HttpOnly: true, SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both identity cookies. Shared with the
// logout handler.
func ClearSessionCookies(c echo.Context) {
	for _, name := range []string{CookieAccess, CookieRefresh} {
		c.SetCookie(&http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func setClaims(c echo.Context, cl utils.Claims) {
	c.Set("user_id", cl.UserID)
	c.Set("profile_id", cl.ProfileID)
	c.Set("claim_tenant_id", cl.TenantID)
	c.Set("role", cl.Role)
}
