// Package asset models multi-chain tokens and exact amounts. Amounts are
// big.Int base units; decimal.Decimal appears only when parsing input,
// computing rates and rendering.
package asset

import "github.com/ethereum/go-ethereum/common"

// AssetID is the identity of an asset: its chain plus its contract address or
// mint. Native coins have no address. EVM addresses are stored checksummed so
// IDs compare with ==.
type AssetID struct {
	blockchain Blockchain
	address    string
}

func NewNativeAssetID(blockchain Blockchain) AssetID {
	return AssetID{blockchain: blockchain}
}

// NewTokenAssetID panics on an empty address; use NewNativeAssetID for coins.
func NewTokenAssetID(blockchain Blockchain, address string) AssetID {
	if address == "" {
		panic("asset: empty token address for " + string(blockchain))
	}
	if blockchain.IsEVM() {
		address = common.HexToAddress(address).Hex()
	}
	return AssetID{blockchain: blockchain, address: address}
}

func (id AssetID) Blockchain() Blockchain { return id.blockchain }

// Address is "" for native coins.
func (id AssetID) Address() string { return id.address }

func (id AssetID) IsNative() bool { return id.address == "" }

// EVMAddress is the zero address for native coins.
func (id AssetID) EVMAddress() common.Address {
	if id.IsNative() {
		return common.Address{}
	}
	return common.HexToAddress(id.address)
}

func (id AssetID) String() string {
	addr := id.address
	if addr == "" {
		addr = "native"
	}
	return string(id.blockchain) + "/" + addr
}

func (id AssetID) Equals(other AssetID) bool {
	return id == other
}
