package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Deps struct {
	Auth       *AuthHTTP
	Ledger     *LedgerHTTP
	Categories *CategoryHTTP
	AuthMW     *AuthMiddleware

	Logger        *slog.Logger
	CORSOrigins   []string
	AuthRateLimit float64
	// Ready backs /health/ready; nil means always ready.
	Ready func(ctx context.Context) error
}

// New builds the echo instance with the shared middleware stack and all
// routes.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = newValidator()

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC().Format(time.RFC3339)})
	})

	auth := api.Group("/auth")
	if d.AuthRateLimit > 0 {
		auth.Use(authRateLimiter(d.AuthRateLimit))
	}
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.LogOut)
	auth.GET("/me", d.Auth.Me, d.AuthMW.RequireAuth)

	txn := api.Group("/transactions", d.AuthMW.RequireAuth)
	txn.GET("", d.Ledger.List)
	txn.POST("", d.Ledger.Create)
	txn.GET("/summary/monthly", d.Ledger.MonthlySummary)

	txn.GET("/categories", d.Categories.List)
	txn.POST("/categories", d.Categories.Create)
	txn.GET("/categories/:id", d.Categories.Get)
	txn.DELETE("/categories/:id", d.Categories.Delete)

	txn.GET("/:id", d.Ledger.Get)
	txn.PUT("/:id", d.Ledger.Update)
	txn.DELETE("/:id", d.Ledger.Delete)
}
