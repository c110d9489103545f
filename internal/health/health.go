// Package health provides liveness and readiness HTTP endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fd1az/amm-quoter/internal/logger"
)

// Status is the /health body.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check is one probe's outcome. Optional checks degrade /health but never
// fail /ready.
type Check struct {
	Healthy   bool   `json:"healthy"`
	Optional  bool   `json:"optional,omitempty"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

// CheckFunc returns whether the dependency is usable and a short detail
// ("block 123", "reconnecting").
type CheckFunc func(ctx context.Context) (bool, string)

type registered struct {
	fn       CheckFunc
	optional bool
}

// Server runs the registered checks on every request.
type Server struct {
	port    int
	version string
	log     logger.LoggerInterface
	timeout time.Duration

	mu     sync.RWMutex
	checks map[string]registered
	server *http.Server
}

func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	return &Server{
		port:    port,
		version: version,
		log:     log,
		timeout: 5 * time.Second,
		checks:  make(map[string]registered),
	}
}

// RegisterCheck adds a check that readiness depends on.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.register(name, registered{fn: check})
}

// RegisterOptional adds a check that is reported but does not gate readiness.
func (s *Server) RegisterOptional(name string, check CheckFunc) {
	s.register(name, registered{fn: check, optional: true})
}

func (s *Server) register(name string, r registered) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = r
}

// Handler exposes /health, /ready and /live so the API server can mount them too.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	return mux
}

// Start serves the endpoints in the background.
func (s *Server) Start() {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn(context.Background(), "health server stopped", "error", err)
		}
	}()
}

// Stop gracefully stops the health check server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// run executes every check concurrently. ready is false when a required
// check failed; healthy is false when any check failed.
func (s *Server) run(ctx context.Context) (results map[string]Check, ready, healthy bool) {
	s.mu.RLock()
	checks := make(map[string]registered, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	results = make(map[string]Check, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for name, c := range checks {
		g.Go(func() error {
			start := time.Now()
			ok, msg := c.fn(gctx)
			mu.Lock()
			results[name] = Check{Healthy: ok, Optional: c.optional, Message: msg, LatencyMs: time.Since(start).Milliseconds()}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	ready, healthy = true, true
	for _, c := range results {
		if c.Healthy {
			continue
		}
		healthy = false
		if !c.Optional {
			ready = false
		}
	}
	return results, ready, healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks, ready, healthy := s.run(r.Context())
	status := Status{
		Status:    "ok",
		Checks:    checks,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case !ready:
		status.Status = "down"
		w.WriteHeader(http.StatusServiceUnavailable)
	case !healthy:
		status.Status = "degraded"
	}
	_ = json.NewEncoder(w).Encode(status)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, ready, _ := s.run(r.Context()); !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("alive"))
}
