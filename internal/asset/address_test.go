package asset_test

import (
	"testing"

	"github.com/fd1az/swap-router/internal/asset"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name       string
		blockchain asset.Blockchain
		address    string
		valid      bool
	}{
		{name: "evm_valid", blockchain: asset.BlockchainPolygon, address: "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45", valid: true},
		{name: "evm_short", blockchain: asset.BlockchainEthereum, address: "0x1234", valid: false},
		{name: "evm_on_solana", blockchain: asset.BlockchainSolana, address: "0x68b3465833fb72A70ecDF485E0e4C7bD8665Fc45", valid: false},
		{name: "solana_valid", blockchain: asset.BlockchainSolana, address: asset.AddrUSDCSolana, valid: true},
		{name: "solana_on_evm", blockchain: asset.BlockchainEthereum, address: asset.AddrUSDCSolana, valid: false},
		{name: "near_named", blockchain: asset.BlockchainNear, address: "alice.near", valid: true},
		{name: "near_implicit", blockchain: asset.BlockchainNear, address: asset.AddrUSDCNear, valid: true},
		{name: "near_uppercase", blockchain: asset.BlockchainNear, address: "Alice.near", valid: false},
		{name: "empty", blockchain: asset.BlockchainEthereum, address: "", valid: false},
		{name: "unknown_chain", blockchain: asset.Blockchain("DOGE"), address: "abc", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := asset.IsValidAddress(tt.blockchain, tt.address); got != tt.valid {
				t.Errorf("IsValidAddress(%s, %q) = %v, want %v", tt.blockchain, tt.address, got, tt.valid)
			}
		})
	}
}

func TestReceiverRequired(t *testing.T) {
	if asset.ReceiverRequired(asset.BlockchainEthereum, asset.BlockchainPolygon) {
		t.Error("EVM to EVM should not require a receiver")
	}
	if !asset.ReceiverRequired(asset.BlockchainEthereum, asset.BlockchainSolana) {
		t.Error("EVM to Solana should require a receiver")
	}
}

func TestParseBlockchain(t *testing.T) {
	b, err := asset.ParseBlockchain("solana")
	if err != nil || b != asset.BlockchainSolana {
		t.Fatalf("expected SOLANA, got %q, %v", b, err)
	}
	if b.IsEVM() {
		t.Error("solana is not EVM")
	}
	if asset.BlockchainPolygon.ChainID() != 137 {
		t.Errorf("expected polygon chain id 137")
	}
	if _, err := asset.ParseBlockchain("doge"); err == nil {
		t.Error("expected error for unknown chain")
	}
}
