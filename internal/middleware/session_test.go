package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehjm/barberdesk/internal/config"
	"github.com/kavehjm/barberdesk/internal/model"
	"github.com/kavehjm/barberdesk/internal/repository"
	"github.com/kavehjm/barberdesk/internal/utils"
)

type fakeTokens struct {
	valid   map[string]uint64 // hash -> user
	revoked map[string]uint64
	wipes   []uint64
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{valid: map[string]uint64{}, revoked: map[string]uint64{}}
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	if uid, ok := f.valid[hash]; ok {
		return uid, nil
	}
	if uid, ok := f.revoked[hash]; ok {
		return uid, repository.ErrTokenReused
	}
	return 0, repository.ErrNotFound
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.valid[hash] = userID
	return nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	if uid, ok := f.valid[hash]; ok {
		delete(f.valid, hash)
		f.revoked[hash] = uid
	}
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.wipes = append(f.wipes, userID)
	for h, uid := range f.valid {
		if uid == userID {
			delete(f.valid, h)
			f.revoked[h] = uid
		}
	}
	return nil
}

type fakeProfiles struct{ p model.Profile }

func (f *fakeProfiles) GetByUser(_ context.Context, _ uint64) (model.Profile, error) {
	return f.p, nil
}

func sessionEnv() (config.Config, *fakeTokens, *fakeProfiles) {
	cfg := config.Config{JWTSecret: "test-secret", AccessTTLMin: 15, RefreshTTLDays: 30}
	tenantID := uint64(1)
	profiles := &fakeProfiles{p: model.Profile{
		ID: 7, UserID: 42, TenantID: &tenantID, Role: model.RoleStaff,
	}}
	return cfg, newFakeTokens(), profiles
}

func runSession(t *testing.T, cfg config.Config, tokens TokenStore, profiles ProfileSource, required bool, mutate func(*http.Request)) (*httptest.ResponseRecorder, echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/my-bookings", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	h := Session(cfg, tokens, profiles, required)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, c, h(c)
}

func TestSession_ValidBearer(t *testing.T) {
	cfg, tokens, profiles := sessionEnv()
	at, err := utils.NewAccessToken(cfg.JWTSecret, utils.Claims{UserID: 42, ProfileID: 7, TenantID: 1, Role: model.RoleStaff}, 15)
	require.NoError(t, err)

	rec, c, herr := runSession(t, cfg, tokens, profiles, true, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+at.Token)
	})
	require.NoError(t, herr)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(7), c.Get("profile_id"))
	assert.Equal(t, model.RoleStaff, c.Get("role"))
}

func TestSession_TransparentRefreshRotates(t *testing.T) {
	cfg, tokens, profiles := sessionEnv()
	raw := "old-refresh-token"
	require.NoError(t, tokens.StoreRefresh(context.Background(), 42, utils.HashRefreshRaw(raw), time.Now().Add(time.Hour)))

	rec, c, herr := runSession(t, cfg, tokens, profiles, true, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieRefresh, Value: raw})
	})
	require.NoError(t, herr)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(42), c.Get("user_id"))

	// The presented token must be single-use.
	_, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw(raw))
	assert.ErrorIs(t, err, repository.ErrTokenReused)

	// A rotated pair must be handed back as cookies.
	cookies := rec.Result().Cookies()
	names := map[string]bool{}
	for _, ck := range cookies {
		names[ck.Name] = true
	}
	assert.True(t, names[CookieAccess])
	assert.True(t, names[CookieRefresh])
}

// A replayed refresh token is corruption: every session of the user is
// revoked, cookies are cleared and the browser lands on login with the
// session_expired reason.
func TestSession_ReuseIsCorruption(t *testing.T) {
	cfg, tokens, profiles := sessionEnv()
	raw := "stolen-token"
	hash := utils.HashRefreshRaw(raw)
	tokens.revoked[hash] = 42

	sibling := utils.HashRefreshRaw("sibling-session")
	tokens.valid[sibling] = 42

	rec, _, herr := runSession(t, cfg, tokens, profiles, true, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieRefresh, Value: raw})
	})
	require.NoError(t, herr)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?reason=session_expired", rec.Header().Get("Location"))
	assert.Equal(t, []uint64{42}, tokens.wipes)
	_, err := tokens.ValidateRefresh(context.Background(), sibling)
	assert.ErrorIs(t, err, repository.ErrTokenReused, "sibling session must be dead")

	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CookieAccess || ck.Name == CookieRefresh {
			assert.Less(t, ck.MaxAge, 0, "cookie %s must be cleared", ck.Name)
		}
	}
}

// Missing session on a protected route is a logged-out state, never
// corruption: redirect to plain /login, and only once.
func TestSession_AnonymousRedirectsOnce(t *testing.T) {
	cfg, tokens, profiles := sessionEnv()

	rec, _, herr := runSession(t, cfg, tokens, profiles, true, nil)
	require.NoError(t, herr)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	var marker *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieRedirected {
			marker = ck
		}
	}
	require.NotNil(t, marker, "one-shot marker must be set")

	// Second pass with the marker present: no loop, plain 401.
	rec2, _, herr := runSession(t, cfg, tokens, profiles, true, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: cookieRedirected, Value: "1"})
	})
	require.NoError(t, herr)
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}

func TestSession_ExpiredRefreshIsLoggedOut(t *testing.T) {
	cfg, tokens, profiles := sessionEnv()

	rec, _, herr := runSession(t, cfg, tokens, profiles, false, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieRefresh, Value: "never-stored"})
	})
	require.NoError(t, herr)
	// Optional session: the request proceeds anonymously.
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, tokens.wipes, "unknown token must not trigger revocation")
}
