// Package health serves liveness, readiness and per-component status for the router.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fd1az/swap-router/internal/logger"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"

	checkTimeout = 3 * time.Second
)

// Report is the /health response body.
type Report struct {
	Status    string            `json:"status"`
	Checks    map[string]Result `json:"checks"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime"`
	Timestamp string            `json:"timestamp"`
}

// Result is the outcome of one component check.
type Result struct {
	Healthy  bool   `json:"healthy"`
	Optional bool   `json:"optional,omitempty"`
	Message  string `json:"message,omitempty"`
	Latency  string `json:"latency"`
}

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) (bool, string)

// CheckOption configures a registered check.
type CheckOption func(*check)

// Optional marks a check whose failure degrades the report without failing readiness.
func Optional() CheckOption {
	return func(c *check) { c.optional = true }
}

type check struct {
	fn       CheckFunc
	optional bool
}

// Server exposes /health, /ready and /live.
type Server struct {
	port    int
	version string
	started time.Time
	log     logger.LoggerInterface

	mu     sync.RWMutex
	checks map[string]check
	server *http.Server
}

func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	return &Server{
		port:    port,
		version: version,
		started: time.Now(),
		log:     log,
		checks:  make(map[string]check),
	}
}

// RegisterCheck adds or replaces the check under name.
func (s *Server) RegisterCheck(name string, fn CheckFunc, opts ...CheckOption) {
	c := check{fn: fn}
	for _, opt := range opts {
		opt(&c)
	}
	s.mu.Lock()
	s.checks[name] = c
	s.mu.Unlock()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("alive"))
	})
	return mux
}

// Start listens in the background. A bind failure is logged, not returned.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn(context.Background(), "health server stopped", "port", s.port, "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Run executes every check concurrently and aggregates the results.
func (s *Server) Run(ctx context.Context) Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	checks := make([]check, 0, len(s.checks))
	for name, c := range s.checks {
		names = append(names, name)
		checks = append(checks, c)
	}
	s.mu.RUnlock()

	results := make([]Result, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, checkTimeout)
			defer cancel()
			start := time.Now()
			healthy, msg := c.fn(cctx)
			results[i] = Result{
				Healthy:  healthy,
				Optional: c.optional,
				Message:  msg,
				Latency:  time.Since(start).Round(time.Microsecond).String(),
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{
		Status:    StatusOK,
		Checks:    make(map[string]Result, len(results)),
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	for i, r := range results {
		report.Checks[names[i]] = r
		switch {
		case r.Healthy:
		case r.Optional:
			if report.Status == StatusOK {
				report.Status = StatusDegraded
			}
		default:
			report.Status = StatusDown
		}
	}
	return report
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.Run(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if report.Status == StatusDown {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(report)
}

// handleReady fails while any required check fails and names the failing ones.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	report := s.Run(r.Context())

	var failing []string
	for name, res := range report.Checks {
		if !res.Healthy && !res.Optional {
			failing = append(failing, name)
		}
	}
	if len(failing) > 0 {
		sort.Strings(failing)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, "not ready: %v", failing)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
