package domain

import (
	"math/big"
	"time"

	"github.com/fd1az/swap-router/internal/asset"
	"github.com/shopspring/decimal"
)

// Capability flags describe how a trade settles.
type Capability uint8

const (
	// CapOffChainID marks trades settled through an off-chain correlation id (deposit address).
	CapOffChainID Capability = 1 << iota
	// CapRateRetry marks trades that can be resubmitted with acknowledged rates.
	CapRateRetry
)

// TxRequest is an unsigned transaction handed to the wallet.
type TxRequest struct {
	To    string
	Data  []byte
	Value *big.Int
	Gas   uint64
}

// Trade is a route quoted by one provider.
type Trade struct {
	Provider ProviderType
	Type     SwapType
	From     asset.Amount
	To       asset.Amount
	// Fee is denominated in the destination asset; zero when the provider folds it into To.
	Fee               asset.Amount
	Route             []string
	Spender           string
	Tx                *TxRequest
	OffChainID        string
	EstimatedDuration time.Duration
	Caps              Capability
	// Quote carries provider-specific state needed to submit the trade.
	Quote any
}

// Has reports whether the trade carries capability c.
func (t *Trade) Has(c Capability) bool {
	return t != nil && t.Caps&c != 0
}

// NetOutput is the destination amount after fees.
func (t *Trade) NetOutput() decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	out := t.To.ToDecimal().Sub(t.Fee.ToDecimal())
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// Rate returns how many destination units one source unit buys.
func (t *Trade) Rate() decimal.Decimal {
	if t == nil {
		return decimal.Zero
	}
	return asset.TokensRate(t.From, t.To)
}

// NeedsApprovalTarget reports whether the trade spends an ERC-20 through a spender contract.
func (t *Trade) NeedsApprovalTarget() bool {
	return t != nil && t.Spender != "" && t.From.Asset() != nil && !t.From.Asset().IsNative()
}

// WithRates returns a copy of t carrying the provider's updated quote.
func (t *Trade) WithRates(u RateUpdate) *Trade {
	next := *t
	next.To = u.New
	if u.Quote != nil {
		next.Quote = u.Quote
	}
	if u.OffChainID != "" {
		next.OffChainID = u.OffChainID
	}
	return &next
}

// RateUpdate is the new quote a provider reports at submission time.
type RateUpdate struct {
	Old        asset.Amount
	New        asset.Amount
	Quote      any
	OffChainID string
}

// RateChangedError signals that the quoted output moved between calculation and submission.
type RateChangedError struct {
	Provider ProviderType
	Update   RateUpdate
}

func (e *RateChangedError) Error() string {
	return "rates changed: " + e.Update.Old.String() + " -> " + e.Update.New.String()
}

// Is matches ErrRatesChanged.
func (e *RateChangedError) Is(target error) bool {
	return target == ErrRatesChanged
}

// Receipt is the result of a submitted swap.
type Receipt struct {
	TxHash     string
	OffChainID string
}
