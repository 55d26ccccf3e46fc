package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness. Kept outside every middleware group so load
// balancers can probe without a tenant host.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
