package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fd1az/swap-router/business/routing"
	"github.com/fd1az/swap-router/business/routing/app"
	routingDI "github.com/fd1az/swap-router/business/routing/di"
	"github.com/fd1az/swap-router/internal/apm"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/config"
	"github.com/fd1az/swap-router/internal/health"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/metrics"
	"github.com/fd1az/swap-router/internal/monolith"
)

const shutdownTimeout = 5 * time.Second

// container is the monolith as seen by the commands.
type container interface {
	monolith.Monolith
	RegisterModules(modules ...monolith.Module) error
	StartModules(ctx context.Context, modules ...monolith.Module) error
	Shutdown(ctx context.Context)
}

type sessionOptions struct {
	serve       bool // health server and WebSocket feed
	logWriter   io.Writer
	autoConfirm bool
}

// session is a running routing module with its ambient infrastructure.
type session struct {
	cfg       *config.Config
	log       *logger.Logger
	mono      container
	health    *health.Server
	telemetry func(context.Context) error
	cancel    context.CancelFunc
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.App.LogLevel = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	level := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}
	return logger.New(w, level, cfg.App.Name, nil)
}

func startSession(ctx context.Context, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if opts.autoConfirm {
		cfg.App.AutoConfirm = true
	}

	w := opts.logWriter
	if w == nil {
		w = os.Stderr
	}
	log := newLogger(cfg, w)

	ctx, cancel := context.WithCancel(ctx)
	s := &session{cfg: cfg, log: log, cancel: cancel}

	s.telemetry = setupTelemetry(ctx, cfg, log)

	if opts.serve {
		s.health = health.NewServer(cfg.Server.HealthPort, version, log)
		if err := s.health.Start(); err != nil {
			log.Warn(ctx, "failed to start health server", "error", err)
		}
	}

	mono, err := monolith.New(cfg, log, s.health)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create monolith: %w", err)
	}
	s.mono = mono

	module := &routing.Module{ServeFeed: opts.serve}
	if err := mono.RegisterModules(module); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, module); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start modules: %w", err)
	}
	return s, nil
}

// setupTelemetry installs tracing and metrics when enabled and returns their
// combined shutdown. Exporter failures are logged and leave that signal off.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *logger.Logger) func(context.Context) error {
	tc := cfg.Telemetry
	if !tc.Enabled {
		return nil
	}

	var stops []func(context.Context) error

	exporter := apm.ParseExporter(tc.Provider)
	stopTraces, err := apm.Setup(ctx, apm.Config{
		ServiceName: tc.ServiceName,
		Exporter:    exporter,
		Endpoint:    tc.OTLPEndpoint,
		Headers:     tc.OTLPHeaders,
		HTTP:        tc.OTLPProtocol == "http/protobuf",
	})
	if err != nil {
		log.Warn(ctx, "tracing disabled", "exporter", exporter, "error", err)
	} else {
		stops = append(stops, stopTraces)
		log.Info(ctx, "tracing initialized", "exporter", exporter, "endpoint", tc.OTLPEndpoint)
	}

	mp, err := metrics.Setup(ctx, metrics.Config{ServiceName: tc.ServiceName, Prometheus: true})
	if err != nil {
		log.Warn(ctx, "metrics disabled", "error", err)
	} else {
		stops = append(stops, mp.Shutdown)
		go func() {
			if err := mp.Serve(ctx, tc.PrometheusPort); err != nil {
				log.Error(ctx, "prometheus metrics server stopped", "error", err)
			}
		}()
		log.Info(ctx, "prometheus metrics server started", "port", tc.PrometheusPort)
	}

	return func(ctx context.Context) error {
		var errs []error
		for _, stop := range stops {
			errs = append(errs, stop(ctx))
		}
		return errors.Join(errs...)
	}
}

func (s *session) Service() *app.RoutingService {
	return routingDI.GetRoutingService(s.mono.Services())
}

func (s *session) Registry() *asset.Registry {
	return s.mono.AssetRegistry()
}

// Close stops the module, servers and exporters in reverse start order.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if s.mono != nil {
		s.mono.Shutdown(ctx)
	}
	if s.health != nil {
		s.health.Stop(ctx)
	}
	if s.telemetry != nil {
		if err := s.telemetry(ctx); err != nil {
			s.log.Warn(ctx, "telemetry shutdown failed", "error", err)
		}
	}
	s.cancel()
}
