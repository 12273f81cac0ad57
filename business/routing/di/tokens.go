// Package di contains dependency injection tokens for the routing context.
package di

import (
	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/infra/cli"
	"github.com/fd1az/swap-router/business/routing/infra/ethereum"
	"github.com/fd1az/swap-router/business/routing/infra/ethwallet"
	"github.com/fd1az/swap-router/business/routing/infra/oneclick"
	"github.com/fd1az/swap-router/business/routing/infra/wsfeed"
	"github.com/fd1az/swap-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RoutingService = di.NewToken[*app.RoutingService]("routing.RoutingService")
	Wallet         = di.NewToken[*ethwallet.Wallet]("routing.Wallet")
	Feed           = di.NewToken[*wsfeed.Server]("routing.Feed")
)

// Private dependency tokens - internal to routing module
var (
	Providers = di.NewToken[[]app.Provider]("routing:providers")
	GasOracle = di.NewToken[*ethereum.GasOracle]("routing:gasOracle")
	OneClick  = di.NewToken[*oneclick.Provider]("routing:oneClick")
	Prompt    = di.NewToken[*cli.Prompt]("routing:prompt")
	ErrorSink = di.NewToken[*cli.ErrorSink]("routing:errorSink")
)

// Helper functions for type-safe access
func GetRoutingService(c di.ServiceRegistry) *app.RoutingService {
	return di.GetToken(c, RoutingService)
}

func GetWallet(c di.ServiceRegistry) *ethwallet.Wallet {
	return di.GetToken(c, Wallet)
}

func GetFeed(c di.ServiceRegistry) *wsfeed.Server {
	return di.GetToken(c, Feed)
}

func GetProviders(c di.ServiceRegistry) []app.Provider {
	return di.GetToken(c, Providers)
}

func GetGasOracle(c di.ServiceRegistry) *ethereum.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetOneClick(c di.ServiceRegistry) *oneclick.Provider {
	return di.GetToken(c, OneClick)
}

func GetPrompt(c di.ServiceRegistry) *cli.Prompt {
	return di.GetToken(c, Prompt)
}

func GetErrorSink(c di.ServiceRegistry) *cli.ErrorSink {
	return di.GetToken(c, ErrorSink)
}
