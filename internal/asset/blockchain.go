package asset

import (
	"fmt"
	"strings"
)

// Blockchain names a network the router can quote on. Values match the
// identifiers used by cross-chain APIs (upper-case, no spaces).
type Blockchain string

const (
	BlockchainEthereum Blockchain = "ETH"
	BlockchainPolygon  Blockchain = "POLYGON"
	BlockchainArbitrum Blockchain = "ARBITRUM"
	BlockchainOptimism Blockchain = "OPTIMISM"
	BlockchainBase     Blockchain = "BASE"
	BlockchainBSC      Blockchain = "BSC"
	BlockchainSolana   Blockchain = "SOLANA"
	BlockchainNear     Blockchain = "NEAR"
)

// Family groups blockchains that share an address format and wallet type.
type Family string

const (
	FamilyUnknown Family = ""
	FamilyEVM     Family = "EVM"
	FamilySolana  Family = "SOLANA"
	FamilyNear    Family = "NEAR"
)

type chainInfo struct {
	family  Family
	chainID uint64
}

var chains = map[Blockchain]chainInfo{
	BlockchainEthereum: {FamilyEVM, 1},
	BlockchainPolygon:  {FamilyEVM, 137},
	BlockchainArbitrum: {FamilyEVM, 42161},
	BlockchainOptimism: {FamilyEVM, 10},
	BlockchainBase:     {FamilyEVM, 8453},
	BlockchainBSC:      {FamilyEVM, 56},
	BlockchainSolana:   {FamilySolana, 0},
	BlockchainNear:     {FamilyNear, 0},
}

// ParseBlockchain accepts case-insensitive names ("eth", "Solana").
func ParseBlockchain(s string) (Blockchain, error) {
	b := Blockchain(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := chains[b]; !ok {
		return "", fmt.Errorf("asset: unknown blockchain %q", s)
	}
	return b, nil
}

// Family returns the address family of the blockchain.
func (b Blockchain) Family() Family {
	return chains[b].family
}

// IsEVM reports whether the blockchain uses EVM addresses and transactions.
func (b Blockchain) IsEVM() bool {
	return b.Family() == FamilyEVM
}

// ChainID returns the EVM chain id, or 0 for non-EVM chains.
func (b Blockchain) ChainID() uint64 {
	return chains[b].chainID
}

// BlockchainByChainID resolves an EVM chain id.
func BlockchainByChainID(id uint64) (Blockchain, bool) {
	for b, info := range chains {
		if info.family == FamilyEVM && info.chainID == id {
			return b, true
		}
	}
	return "", false
}

func (b Blockchain) String() string {
	return string(b)
}
