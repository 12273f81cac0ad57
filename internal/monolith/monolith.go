// Package monolith hosts the shared infrastructure and lifecycle of the router's modules.
package monolith

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/config"
	"github.com/fd1az/swap-router/internal/di"
	"github.com/fd1az/swap-router/internal/health"
	"github.com/fd1az/swap-router/internal/logger"
)

// Names of the shared services in the container.
const (
	ConfigService    = "config"
	LoggerService    = "logger"
	EthClientService = "ethClient"
	RegistryService  = "assetRegistry"
)

// Monolith is what a module sees of the host during startup and shutdown.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	EthClient() *ethclient.Client
	AssetRegistry() *asset.Registry
	// Health is nil unless the host serves health endpoints.
	Health() *health.Server
	Services() di.ServiceRegistry
}

// Module is a bounded context that registers services and owns their lifecycle.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
	Shutdown(context.Context, Monolith)
}

type app struct {
	config        *config.Config
	logger        logger.LoggerInterface
	ethClient     *ethclient.Client
	assetRegistry *asset.Registry
	health        *health.Server
	container     di.Container

	started []Module
}

// New dials the Ethereum RPC (lazily for HTTP endpoints) and seeds the container.
func New(cfg *config.Config, log logger.LoggerInterface, healthServer *health.Server) (*app, error) {
	ethClient, err := ethclient.Dial(cfg.Ethereum.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.Ethereum.RPCURL, err)
	}

	a := &app{
		config:        cfg,
		logger:        log,
		ethClient:     ethClient,
		assetRegistry: asset.DefaultRegistry(),
		health:        healthServer,
		container:     di.NewContainer(),
	}

	a.container.Register(ConfigService, cfg)
	a.container.Register(LoggerService, log)
	a.container.Register(EthClientService, ethClient)
	a.container.Register(RegistryService, a.assetRegistry)

	if healthServer != nil {
		healthServer.RegisterCheck("ethereum", a.checkEthereum, health.Optional())
	}
	return a, nil
}

func (a *app) checkEthereum(ctx context.Context) (bool, string) {
	block, err := a.ethClient.BlockNumber(ctx)
	if err != nil {
		return false, err.Error()
	}
	return true, fmt.Sprintf("block %d", block)
}

func (a *app) Config() *config.Config         { return a.config }
func (a *app) Logger() logger.LoggerInterface { return a.logger }
func (a *app) EthClient() *ethclient.Client   { return a.ethClient }
func (a *app) AssetRegistry() *asset.Registry { return a.assetRegistry }
func (a *app) Health() *health.Server         { return a.health }
func (a *app) Services() di.ServiceRegistry   { return a.container }

func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts modules in order. On failure the ones already started are shut down.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			a.shutdownModules(ctx)
			return fmt.Errorf("start %T: %w", m, err)
		}
		a.started = append(a.started, m)
	}
	return nil
}

// Shutdown stops started modules in reverse order and releases the RPC client.
func (a *app) Shutdown(ctx context.Context) {
	a.shutdownModules(ctx)
	if a.ethClient != nil {
		a.ethClient.Close()
		a.ethClient = nil
	}
}

func (a *app) shutdownModules(ctx context.Context) {
	for i := len(a.started) - 1; i >= 0; i-- {
		a.started[i].Shutdown(ctx, a)
	}
	a.started = nil
}
