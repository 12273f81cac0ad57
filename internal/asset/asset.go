package asset

import "fmt"

// Asset is display metadata for one token on one chain. Identity is the ID;
// the same symbol exists on many chains.
type Asset struct {
	id       AssetID
	symbol   string
	name     string
	decimals uint8
}

// NewAsset panics on an empty symbol or implausible precision; assets are
// declared at package init, not parsed from input.
func NewAsset(id AssetID, symbol string, decimals uint8) *Asset {
	switch {
	case symbol == "":
		panic("asset: empty symbol")
	case decimals > 30:
		panic(fmt.Sprintf("asset: %s has %d decimals", symbol, decimals))
	}
	return &Asset{id: id, symbol: symbol, decimals: decimals}
}

func NewAssetWithName(id AssetID, symbol, name string, decimals uint8) *Asset {
	a := NewAsset(id, symbol, decimals)
	a.name = name
	return a
}

func (a *Asset) ID() AssetID            { return a.id }
func (a *Asset) Symbol() string         { return a.symbol }
func (a *Asset) Decimals() uint8        { return a.decimals }
func (a *Asset) Blockchain() Blockchain { return a.id.Blockchain() }
func (a *Asset) Address() string        { return a.id.Address() }
func (a *Asset) IsNative() bool         { return a.id.IsNative() }
func (a *Asset) String() string         { return a.symbol }

// Name falls back to the symbol.
func (a *Asset) Name() string {
	if a.name == "" {
		return a.symbol
	}
	return a.name
}

// Ref is the SYMBOL@CHAIN form accepted by Registry.Resolve.
func (a *Asset) Ref() string {
	return a.symbol + "@" + string(a.Blockchain())
}

func (a *Asset) Equals(other *Asset) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.id == other.id
}
