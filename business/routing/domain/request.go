package domain

import (
	"time"

	"github.com/fd1az/swap-router/internal/asset"
	"github.com/shopspring/decimal"
)

// SwapRequest is the immutable snapshot of the form taken when a round starts.
type SwapRequest struct {
	FromAsset       *asset.Asset
	ToAsset         *asset.Asset
	Amount          decimal.Decimal
	ReceiverAddress string
}

// FromBlockchain returns the source chain, empty when no source asset is set.
func (r SwapRequest) FromBlockchain() asset.Blockchain {
	if r.FromAsset == nil {
		return ""
	}
	return r.FromAsset.Blockchain()
}

// ToBlockchain returns the destination chain, empty when no destination asset is set.
func (r SwapRequest) ToBlockchain() asset.Blockchain {
	if r.ToAsset == nil {
		return ""
	}
	return r.ToAsset.Blockchain()
}

// Filled reports whether the form is complete and the two sides are distinct.
func (r SwapRequest) Filled() bool {
	if r.FromAsset == nil || r.ToAsset == nil {
		return false
	}
	if !r.Amount.IsPositive() {
		return false
	}
	return !r.FromAsset.Equals(r.ToAsset)
}

// IsCrossChain reports whether source and destination chains differ.
func (r SwapRequest) IsCrossChain() bool {
	return r.FromBlockchain() != r.ToBlockchain()
}

// Type returns the provider subset that serves this request.
func (r SwapRequest) Type() SwapType {
	if r.IsCrossChain() {
		return SwapTypeCrossChain
	}
	return SwapTypeInstantTrade
}

// FromAmount converts the entered amount into source-asset units.
func (r SwapRequest) FromAmount() (asset.Amount, error) {
	return asset.FromDecimalTruncated(r.FromAsset, r.Amount)
}

// ReceiverRequired reports whether the destination needs an explicit receiver.
func (r SwapRequest) ReceiverRequired() bool {
	if r.FromAsset == nil || r.ToAsset == nil {
		return false
	}
	return asset.ReceiverRequired(r.FromBlockchain(), r.ToBlockchain())
}

// Equal compares two requests field by field.
func (r SwapRequest) Equal(o SwapRequest) bool {
	return sameAsset(r.FromAsset, o.FromAsset) &&
		sameAsset(r.ToAsset, o.ToAsset) &&
		r.Amount.Equal(o.Amount) &&
		r.ReceiverAddress == o.ReceiverAddress
}

func sameAsset(a, b *asset.Asset) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equals(b)
}

// Round is one attempt to find the best route for a request.
type Round struct {
	ID        uint64
	Request   SwapRequest
	Type      SwapType
	Forced    bool
	StartedAt time.Time
}
