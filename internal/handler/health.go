package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health reports liveness.  Load balancers and monitoring probe this
// endpoint; it intentionally checks nothing beyond the process being up.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
