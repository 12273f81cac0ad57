// Package routing implements the swap routing bounded context: quoting, selection and execution.
package routing

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/swap-router/business/routing/app"
	routingDI "github.com/fd1az/swap-router/business/routing/di"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/business/routing/infra/cli"
	"github.com/fd1az/swap-router/business/routing/infra/ethereum"
	"github.com/fd1az/swap-router/business/routing/infra/ethwallet"
	"github.com/fd1az/swap-router/business/routing/infra/lifi"
	"github.com/fd1az/swap-router/business/routing/infra/oneclick"
	"github.com/fd1az/swap-router/business/routing/infra/uniswap"
	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
	"github.com/fd1az/swap-router/business/routing/infra/zerox"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/config"
	"github.com/fd1az/swap-router/internal/di"
	"github.com/fd1az/swap-router/internal/health"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/monolith"
)

const walletConnectTimeout = 10 * time.Second

// Module implements the routing bounded context.
type Module struct {
	// ServeFeed starts the WebSocket feed on server.ws_port.
	ServeFeed bool
}

// RegisterServices registers all routing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register GasOracle - private dependency
	di.RegisterToken(c, routingDI.GasOracle, func(sr di.ServiceRegistry) *ethereum.GasOracle {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		ethClient := sr.Get(monolith.EthClientService).(*ethclient.Client)

		oracle, err := ethereum.NewGasOracle(ethClient, ethereum.DefaultGasOracleConfig(), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register Wallet (public - the CLI connects and reports it)
	di.RegisterToken(c, routingDI.Wallet, func(sr di.ServiceRegistry) *ethwallet.Wallet {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		ethClient := sr.Get(monolith.EthClientService).(*ethclient.Client)

		signer := ethClient.Client()
		if cfg.Ethereum.WalletURL != "" {
			client, err := rpc.Dial(cfg.Ethereum.WalletURL)
			if err != nil {
				panic("failed to dial wallet: " + err.Error())
			}
			signer = client
		}

		return ethwallet.New(signer, ethClient, routingDI.GetGasOracle(sr), ethwallet.Config{
			ReceiptPollInterval: cfg.Ethereum.ReceiptPollInterval,
			ReceiptTimeout:      cfg.Ethereum.ReceiptTimeout,
		}, log)
	})

	// Register OneClick separately; the wallet routes its deposits through it
	di.RegisterToken(c, routingDI.OneClick, func(sr di.ServiceRegistry) *oneclick.Provider {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		if !cfg.Enabled(config.ProviderOneClick) {
			return nil
		}

		return oneclick.NewProvider(oneclick.Config{
			BaseURL:           cfg.OneClick.BaseURL,
			JWT:               cfg.OneClick.JWT,
			RequestsPerMinute: cfg.OneClick.RequestsPerMinute,
			Deadline:          cfg.OneClick.Deadline,
			TokenCacheTTL:     cfg.OneClick.TokenCacheTTL,
		}, ownerOf(sr), log)
	})

	// Register Providers in configuration order
	di.RegisterToken(c, routingDI.Providers, func(sr di.ServiceRegistry) []app.Provider {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		ethClient := sr.Get(monolith.EthClientService).(*ethclient.Client)

		providers, err := buildProviders(cfg, ethClient, routingDI.GetOneClick(sr), ownerOf(sr), log)
		if err != nil {
			panic("failed to create providers: " + err.Error())
		}
		return providers
	})

	di.RegisterToken(c, routingDI.Prompt, func(sr di.ServiceRegistry) *cli.Prompt {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		return cli.NewPrompt(os.Stdin, os.Stdout, cfg.App.AutoConfirm)
	})

	di.RegisterToken(c, routingDI.ErrorSink, func(sr di.ServiceRegistry) *cli.ErrorSink {
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		return cli.NewErrorSink(os.Stderr, log)
	})

	// Register RoutingService (public - exposed to the presentation layer)
	di.RegisterToken(c, routingDI.RoutingService, func(sr di.ServiceRegistry) *app.RoutingService {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		wallet := routingDI.GetWallet(sr)

		svc, err := app.NewRoutingService(app.ServiceConfig{
			Debounce:           cfg.Routing.Debounce,
			TradeStateDebounce: cfg.Routing.TradeStateDebounce,
			ProviderTimeout:    cfg.Routing.ProviderTimeout,
			RefreshInterval:    cfg.Routing.RefreshInterval,
		}, app.Dependencies{
			Providers: routingDI.GetProviders(sr),
			Approvals: wallet,
			Submitter: wallet,
			Prompt:    routingDI.GetPrompt(sr),
			Sink:      routingDI.GetErrorSink(sr),
			Wallet:    wallet,
		}, log)
		if err != nil {
			panic("failed to create routing service: " + err.Error())
		}
		return svc
	})

	// Register Feed (public - served by the serve command)
	di.RegisterToken(c, routingDI.Feed, func(sr di.ServiceRegistry) *wsfeed.Server {
		cfg := sr.Get(monolith.ConfigService).(*config.Config)
		log := sr.Get(monolith.LoggerService).(logger.LoggerInterface)
		registry := sr.Get(monolith.RegistryService).(*asset.Registry)
		svc := routingDI.GetRoutingService(sr)

		feed, err := wsfeed.NewServer(wsfeed.DefaultConfig(cfg.Server.WSPort), wsfeed.TopicsOf(svc), svc, registry, log)
		if err != nil {
			panic("failed to create feed server: " + err.Error())
		}
		return feed
	})

	return nil
}

// Startup connects the wallet and starts the routing service.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	wallet := routingDI.GetWallet(sr)
	if oc := routingDI.GetOneClick(sr); oc != nil {
		wallet.RegisterDepositRouter(domain.ProviderOneClick, oc)
	}

	// Quoting works without a wallet; only execution needs one
	connectCtx, cancel := context.WithTimeout(ctx, walletConnectTimeout)
	defer cancel()
	if err := wallet.Connect(connectCtx); err != nil {
		log.Warn(ctx, "wallet not connected", "error", err)
	}

	svc := routingDI.GetRoutingService(sr)
	svc.Start(ctx)

	if hs := mono.Health(); hs != nil {
		hs.RegisterCheck("routing", svc.HealthCheck)
		hs.RegisterCheck("wallet", func(context.Context) (bool, string) {
			if addr := wallet.Address(); addr != "" {
				return true, string(wallet.Network()) + " " + addr
			}
			return false, "disconnected"
		}, health.Optional())
	}

	if m.ServeFeed {
		feed := routingDI.GetFeed(sr)
		if err := feed.Start(); err != nil {
			return err
		}
		if hs := mono.Health(); hs != nil {
			hs.RegisterCheck("feed", func(context.Context) (bool, string) {
				return true, fmt.Sprintf("%d clients", feed.Clients())
			}, health.Optional())
		}
	}

	log.Info(ctx, "routing module started", "wallet", wallet.Address())
	return nil
}

// Shutdown stops the feed and closes provider resources.
func (m *Module) Shutdown(ctx context.Context, mono monolith.Monolith) {
	log := mono.Logger()
	sr := mono.Services()

	if m.ServeFeed {
		if err := routingDI.GetFeed(sr).Stop(ctx); err != nil {
			log.Warn(ctx, "feed shutdown failed", "error", err)
		}
	}
	routingDI.GetRoutingService(sr).Close()
	if oc := routingDI.GetOneClick(sr); oc != nil {
		oc.Close()
	}
	routingDI.GetGasOracle(sr).Close()
}

func ownerOf(sr di.ServiceRegistry) func() string {
	return func() string {
		return routingDI.GetWallet(sr).Address()
	}
}

func buildProviders(cfg *config.Config, ethClient *ethclient.Client, oc *oneclick.Provider, owner func() string, log logger.LoggerInterface) ([]app.Provider, error) {
	chain, err := asset.ParseBlockchain(cfg.Ethereum.Blockchain)
	if err != nil {
		return nil, err
	}

	names := append(append([]string{}, cfg.Routing.OnChainProviders...), cfg.Routing.CrossChainProviders...)
	providers := make([]app.Provider, 0, len(names))
	for _, name := range names {
		switch name {
		case config.ProviderUniswap:
			p, err := uniswap.NewProvider(ethClient, uniswap.Config{
				Chain:          chain,
				Quoter:         cfg.Uniswap.QuoterAddress,
				Router:         cfg.Uniswap.RouterAddress,
				WrappedNative:  cfg.Uniswap.WrappedNativeAddress,
				DefaultFeeTier: cfg.Uniswap.DefaultFeeTier,
				SlippageBps:    cfg.Routing.SlippageBps,
			}, owner, log)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case config.ProviderZeroX:
			p, err := zerox.NewProvider(zerox.Config{
				BaseURL:           cfg.ZeroX.BaseURL,
				APIKey:            cfg.ZeroX.APIKey,
				RequestsPerMinute: cfg.ZeroX.RequestsPerMinute,
				Timeout:           cfg.ZeroX.Timeout,
				SlippageBps:       cfg.Routing.SlippageBps,
			}, owner, log)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case config.ProviderLiFi:
			p, err := lifi.NewProvider(lifi.Config{
				BaseURL:           cfg.LiFi.BaseURL,
				Integrator:        cfg.LiFi.Integrator,
				RequestsPerMinute: cfg.LiFi.RequestsPerMinute,
				Timeout:           cfg.LiFi.Timeout,
				Slippage:          cfg.Routing.SlippageDecimal(),
			}, owner, log)
			if err != nil {
				return nil, err
			}
			providers = append(providers, p)
		case config.ProviderOneClick:
			if oc != nil {
				providers = append(providers, oc)
			}
		}
	}
	return providers, nil
}
