package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/openrange/contest-service/internal/handler"    // handlers implementing endpoint logic
	"github.com/openrange/contest-service/internal/middleware" // authentication gate and role enforcement
	"github.com/openrange/contest-service/internal/model"      // role sets
)

// RegisterRoutes wires every endpoint of the service onto the provided
// Echo instance.  authn is the authorization gate produced by
// middleware.Authenticate; listCache may be nil to disable response
// caching on the list endpoints.
//
// Only the health probe and login are reachable without a token.  Every
// other route sits behind the gate plus a per-route role set: the role
// requirements are enumerated here, next to the route, rather than
// computed anywhere.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, ct *handler.ContestHandler, authn echo.MiddlewareFunc, listCache echo.MiddlewareFunc) {
	// Public endpoints.
	e.GET("/healthz", handler.Health)
	e.POST("/auth/login", a.Login)

	all := middleware.RequireRole(model.AllRoles...)
	elevated := middleware.RequireRole(model.ElevatedRoles...)
	adminOnly := middleware.RequireRole(model.AdminOnly...)

	// cached appends the cache middleware after the role check so a
	// cached body is never served to a caller the role gate would reject.
	cached := func(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
		if listCache != nil {
			mw = append(mw, listCache)
		}
		return mw
	}

	g := e.Group("", authn)

	// Session management.  Logout requires a valid, non-revoked token to
	// get past the gate, which is what makes a second logout on the same
	// token fail with 401.
	g.POST("/auth/logout", a.Logout, all)
	g.PATCH("/auth/password", a.ChangePassword, all)

	// User records.
	g.GET("/users/me", u.Me, all)
	g.POST("/users", u.Create, elevated)
	g.GET("/users", u.List, cached(all)...)
	g.GET("/users/athletes", u.ListAthletes, cached(all)...)
	g.GET("/users/:id", u.GetByID, all)
	g.PATCH("/users/:id/reset_password", u.ResetPassword, adminOnly)

	// Contest records.
	g.POST("/contests", ct.Create, all)
	g.GET("/contests", ct.List, cached(all)...)
	g.GET("/contests/:id", ct.GetByID, all)
	g.GET("/contests/athletes/:athlete_id", ct.ListByAthlete, all)
}
