package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware and the error handler.
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg Config, deps Deps) {
	e.HTTPErrorHandler = ErrorHandler(deps.Logger)

	if deps.Health != nil {
		e.GET("/health", echo.WrapHandler(deps.Health))
		e.GET("/ready", echo.WrapHandler(deps.Health))
		e.GET("/live", echo.WrapHandler(deps.Health))
	}
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}

	v1 := e.Group("/v1", SetNoCacheHeaders)
	if cfg.RatePerSec > 0 {
		v1.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.RatePerSec),
			Burst:     cfg.Burst,
			ExpiresIn: 3 * time.Minute,
		})))
	}

	v1.GET("/pool", h.Pool)
	v1.GET("/quote", h.Quote)
	v1.GET("/liquidity/add", h.AddLiquidity)
	v1.GET("/liquidity/remove", h.RemoveLiquidity)
	v1.GET("/position/:owner", h.Position)
	v1.GET("/il", h.ImpermanentLoss)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound)
	})
}
