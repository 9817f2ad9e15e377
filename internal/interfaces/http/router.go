package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adaptermiddleware "vitalnotes/internal/adapters/http/middleware"
	"vitalnotes/internal/application"
	"vitalnotes/internal/domain"
)

type Middleware struct {
	Auth          echo.MiddlewareFunc
	XRay          echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
	Secure        echo.MiddlewareFunc
}

type Handlers struct {
	Session  *SessionHandler
	Patients *PatientsHandler
}

func newEcho(m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	for _, mw := range []echo.MiddlewareFunc{m.Secure, m.XRay, m.RequestLogger, m.Auth} {
		if mw != nil {
			e.Use(mw)
		}
	}
	return e
}

// NewConsoleRouter mounts the local console. Patient routes sit behind the
// access guard; the session routes are open so that a user can log in.
func NewConsoleRouter(h Handlers, guard *application.AccessGuard, m Middleware) *echo.Echo {
	e := newEcho(m)
	e.GET("/healthz", Healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/session", h.Session.Login)
	api.DELETE("/session", h.Session.Logout)
	api.GET("/session", h.Session.Get)

	loggedIn := adaptermiddleware.RequireRoles(guard)
	api.GET("/dashboard", h.Patients.Dashboard, loggedIn)
	api.GET("/patients", h.Patients.List, loggedIn)
	api.POST("/patients/refresh", h.Patients.Refresh, loggedIn)

	api.POST("/patients", h.Patients.Create, adaptermiddleware.RequireRoles(guard, domain.RoleAdmin, domain.RoleDoctor))
	api.PUT("/patients/:index", h.Patients.Update, adaptermiddleware.RequireAction(guard, domain.ActionEditPatient))
	api.DELETE("/patients/:index", h.Patients.Delete, adaptermiddleware.RequireAction(guard, domain.ActionDeletePatient))
	return e
}
