// Package api serves the read-only quoting JSON API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fd1az/amm-quoter/internal/logger"
)

// Config holds the HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RatePerSec   float64 // per client IP; 0 disables
	Burst        int
}

// Deps are the collaborators mounted by the server. Health and Metrics are optional.
type Deps struct {
	Quoter  Quoter
	Health  http.Handler
	Metrics http.Handler
	Logger  logger.LoggerInterface
}

// Server wraps echo with lifecycle management.
type Server struct {
	e      *echo.Echo
	cfg    Config
	log    logger.LoggerInterface
	closed chan struct{}
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Logger))

	if cfg.ReadTimeout > 0 {
		e.Server.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		e.Server.WriteTimeout = cfg.WriteTimeout
	}
	e.Server.IdleTimeout = 60 * time.Second

	RegisterRoutes(e, &Handlers{Quoter: deps.Quoter, Logger: deps.Logger}, cfg, deps)

	return &Server{e: e, cfg: cfg, log: deps.Logger, closed: make(chan struct{})}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "api listening", "addr", s.cfg.Addr)
	if err := s.e.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests for at most 10 seconds.
func (s *Server) Shutdown(ctx context.Context) error {
	defer close(s.closed)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.e.Shutdown(ctx)
}

// WaitClosed blocks until Shutdown has finished or ctx ends.
func (s *Server) WaitClosed(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.closed:
		return nil
	}
}

func requestLogger(log logger.LoggerInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req := c.Request()
			log.Debug(req.Context(), "http request",
				"method", req.Method,
				"path", c.Path(),
				"status", c.Response().Status,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil
		}
	}
}

// SetNoCacheHeaders marks every reply as block-dependent.
func SetNoCacheHeaders(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Cache-Control", "no-store")
		return next(c)
	}
}
