package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// listParams reads the shared pagination/sort query parameters.  The
// defaults and the 1/-1 sort_order convention match what the platform's
// clients already send.
func listParams(c echo.Context) (skip, limit int, sortBy string, sortOrder int) {
	skip, limit, sortBy, sortOrder = 0, 10, "created_time", 1
	if v, err := strconv.Atoi(c.QueryParam("skip")); err == nil && v >= 0 {
		skip = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		limit = v
	}
	if v := c.QueryParam("sort_by"); v != "" {
		sortBy = v
	}
	if v, err := strconv.Atoi(c.QueryParam("sort_order")); err == nil && v < 0 {
		sortOrder = -1
	}
	return
}
