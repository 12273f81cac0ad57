package asset

// Well-known token addresses
const (
	AddrUSDCEthereum = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	AddrUSDTEthereum = "0xdAC17F958D2ee523a2206206994597C13D831ec7"
	AddrWETHEthereum = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	AddrWBTCEthereum = "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"

	AddrUSDCPolygon  = "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"
	AddrUSDCArbitrum = "0xaf88d065e77c8cC2239327C5EDb3A432268e5831"
	AddrUSDCBase     = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"

	AddrUSDCSolana = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	AddrUSDCNear   = "17208628f84f5d6ad33f0da3bbbeb27ffcb398eac501a31bd6ad2011e36133a1"
)

// Well-known Assets (pre-created instances)
var (
	// Ethereum Mainnet
	ETH  = NewAssetWithName(NewNativeAssetID(BlockchainEthereum), "ETH", "Ethereum", 18)
	USDC = NewAssetWithName(NewTokenAssetID(BlockchainEthereum, AddrUSDCEthereum), "USDC", "USD Coin", 6)
	USDT = NewAssetWithName(NewTokenAssetID(BlockchainEthereum, AddrUSDTEthereum), "USDT", "Tether USD", 6)
	WETH = NewAssetWithName(NewTokenAssetID(BlockchainEthereum, AddrWETHEthereum), "WETH", "Wrapped Ether", 18)
	WBTC = NewAssetWithName(NewTokenAssetID(BlockchainEthereum, AddrWBTCEthereum), "WBTC", "Wrapped Bitcoin", 8)

	// Other EVM chains
	POL          = NewAssetWithName(NewNativeAssetID(BlockchainPolygon), "POL", "Polygon", 18)
	USDCPolygon  = NewAssetWithName(NewTokenAssetID(BlockchainPolygon, AddrUSDCPolygon), "USDC", "USD Coin", 6)
	ETHArbitrum  = NewAssetWithName(NewNativeAssetID(BlockchainArbitrum), "ETH", "Ethereum", 18)
	USDCArbitrum = NewAssetWithName(NewTokenAssetID(BlockchainArbitrum, AddrUSDCArbitrum), "USDC", "USD Coin", 6)
	ETHBase      = NewAssetWithName(NewNativeAssetID(BlockchainBase), "ETH", "Ethereum", 18)
	USDCBase     = NewAssetWithName(NewTokenAssetID(BlockchainBase, AddrUSDCBase), "USDC", "USD Coin", 6)

	// Non-EVM
	SOL        = NewAssetWithName(NewNativeAssetID(BlockchainSolana), "SOL", "Solana", 9)
	USDCSolana = NewAssetWithName(NewTokenAssetID(BlockchainSolana, AddrUSDCSolana), "USDC", "USD Coin", 6)
	NEAR       = NewAssetWithName(NewNativeAssetID(BlockchainNear), "NEAR", "Near", 24)
	USDCNear   = NewAssetWithName(NewTokenAssetID(BlockchainNear, AddrUSDCNear), "USDC", "USD Coin", 6)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []*Asset{
		ETH, USDC, USDT, WETH, WBTC,
		POL, USDCPolygon, ETHArbitrum, USDCArbitrum, ETHBase, USDCBase,
		SOL, USDCSolana, NEAR, USDCNear,
	} {
		r.MustRegister(a)
	}
	return r
}
