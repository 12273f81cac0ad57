// Package domain contains the core domain types for the routing context.
package domain

import "strings"

// ProviderType identifies a pricing provider.
type ProviderType string

// Registered providers.
const (
	ProviderUniswapV3 ProviderType = "UNISWAP_V3"
	ProviderZeroX     ProviderType = "ZEROX"
	ProviderLiFi      ProviderType = "LIFI"
	ProviderOneClick  ProviderType = "ONE_CLICK"
)

// String returns the provider identifier.
func (p ProviderType) String() string {
	return string(p)
}

// SwapType distinguishes same-chain from cross-chain routing.
type SwapType string

const (
	SwapTypeInstantTrade SwapType = "INSTANT_TRADE"
	SwapTypeCrossChain   SwapType = "CROSS_CHAIN_ROUTING"
)

// backendNames maps cross-chain providers to the identifiers used in feed payloads.
var backendNames = map[ProviderType]string{
	ProviderLiFi:     "lifi",
	ProviderOneClick: "near_intents",
}

// BackendProviderName returns the backend identifier for a cross-chain provider.
// Unknown types map to their lower-cased name.
func BackendProviderName(p ProviderType) string {
	if name, ok := backendNames[p]; ok {
		return name
	}
	switch p {
	case ProviderUniswapV3:
		return "uniswap_v3"
	case ProviderZeroX:
		return "zerox"
	}
	return strings.ToLower(string(p))
}
