package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kavehjm/barberdesk/internal/model"
)

// The day board lists every booking of a staff member, including other
// customers' ids, so it must refuse customer callers before touching
// storage.
func TestListDayIsStaffOnly(t *testing.T) {
	e := echo.New()
	h := &BookingHandler{} // role guard fires before any collaborator is used

	for _, role := range []string{model.RoleCustomer, ""} {
		req := httptest.NewRequest(http.MethodGet, "/v1/bookings?staff_id=3", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("role", role)

		require.NoError(t, h.ListDay(c))
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %q", role)
	}

	// Staff pass the guard; a missing staff_id then fails validation,
	// which proves the request got past the role check.
	req := httptest.NewRequest(http.MethodGet, "/v1/bookings", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("role", model.RoleStaff)

	require.NoError(t, h.ListDay(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
