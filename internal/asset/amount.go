package asset

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	ErrNilAsset        = errors.New("asset: nil asset")
	ErrNegativeAmount  = errors.New("asset: negative amount")
	ErrAssetMismatch   = errors.New("asset: amounts are in different assets")
	ErrNegativeResult  = errors.New("asset: result would be negative")
	ErrTooManyDecimals = errors.New("asset: more decimals than the asset supports")
)

const bpsDenominator = 10_000

// Amount is a non-negative quantity of one asset, held in base units
// (wei, lamports, yoctoNEAR). The zero value is a zero amount of no asset.
type Amount struct {
	raw   *big.Int
	asset *Asset
}

// NewAmount copies raw. It panics on a nil asset or a nil or negative raw
// value, which are programming errors rather than bad input.
func NewAmount(asset *Asset, raw *big.Int) Amount {
	switch {
	case asset == nil:
		panic(ErrNilAsset)
	case raw == nil || raw.Sign() < 0:
		panic(ErrNegativeAmount)
	}
	return Amount{raw: new(big.Int).Set(raw), asset: asset}
}

func Zero(asset *Asset) Amount {
	return NewAmount(asset, new(big.Int))
}

// Raw returns a copy of the base-unit value.
func (a Amount) Raw() *big.Int {
	if a.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.raw)
}

func (a Amount) Asset() *Asset {
	return a.asset
}

func (a Amount) IsZero() bool {
	return a.raw == nil || a.raw.Sign() == 0
}

func (a Amount) IsPositive() bool {
	return a.raw != nil && a.raw.Sign() > 0
}

func (a Amount) Add(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	return Amount{raw: new(big.Int).Add(a.raw, b.raw), asset: a.asset}, nil
}

// Sub fails rather than going below zero.
func (a Amount) Sub(b Amount) (Amount, error) {
	if err := a.sameAsset(b); err != nil {
		return Amount{}, err
	}
	if a.raw.Cmp(b.raw) < 0 {
		return Amount{}, ErrNegativeResult
	}
	return Amount{raw: new(big.Int).Sub(a.raw, b.raw), asset: a.asset}, nil
}

// LessBps returns the amount reduced by bps basis points, rounded down.
// It is how minimum-received bounds are derived from a quote.
func (a Amount) LessBps(bps int64) Amount {
	if bps <= 0 || a.raw == nil {
		return Amount{raw: a.Raw(), asset: a.asset}
	}
	if bps >= bpsDenominator {
		return Amount{raw: new(big.Int), asset: a.asset}
	}
	out := new(big.Int).Mul(a.raw, big.NewInt(bpsDenominator-bps))
	return Amount{raw: out.Quo(out, big.NewInt(bpsDenominator)), asset: a.asset}
}

// Cmp returns -1, 0 or 1. Amounts of different assets are not comparable.
func (a Amount) Cmp(b Amount) (int, error) {
	if err := a.sameAsset(b); err != nil {
		return 0, err
	}
	return a.raw.Cmp(b.raw), nil
}

func (a Amount) GreaterThan(b Amount) (bool, error) {
	c, err := a.Cmp(b)
	return c > 0, err
}

// Equals is true for the same asset and value. Two asset-less amounts are
// equal when both are zero.
func (a Amount) Equals(b Amount) bool {
	if a.asset == nil || b.asset == nil {
		return a.asset == b.asset && a.IsZero() && b.IsZero()
	}
	return a.asset.Equals(b.asset) && a.raw.Cmp(b.raw) == 0
}

// ToDecimal is for display and rate math; arithmetic on balances stays in base units.
func (a Amount) ToDecimal() decimal.Decimal {
	if a.raw == nil || a.asset == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(a.raw, -int32(a.asset.Decimals()))
}

// ParseDecimal converts user input, rejecting precision the asset cannot hold.
func ParseDecimal(asset *Asset, d decimal.Decimal) (Amount, error) {
	scaled, err := scale(asset, d)
	if err != nil {
		return Amount{}, err
	}
	if !scaled.Equal(scaled.Truncate(0)) {
		return Amount{}, fmt.Errorf("%w: %s has %d", ErrTooManyDecimals, asset.Symbol(), asset.Decimals())
	}
	return NewAmount(asset, scaled.BigInt()), nil
}

// FromDecimalTruncated drops digits beyond the asset precision, for provider
// quotes that report more precision than the token has.
func FromDecimalTruncated(asset *Asset, d decimal.Decimal) (Amount, error) {
	scaled, err := scale(asset, d)
	if err != nil {
		return Amount{}, err
	}
	return NewAmount(asset, scaled.Truncate(0).BigInt()), nil
}

func scale(asset *Asset, d decimal.Decimal) (decimal.Decimal, error) {
	if asset == nil {
		return decimal.Zero, ErrNilAsset
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d.Shift(int32(asset.Decimals())), nil
}

func ParseString(asset *Asset, s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("asset: invalid amount %q: %w", s, err)
	}
	return ParseDecimal(asset, d)
}

// MustParseString panics on error; for constants and tests.
func MustParseString(asset *Asset, s string) Amount {
	a, err := ParseString(asset, s)
	if err != nil {
		panic(err)
	}
	return a
}

// String renders "1.5 ETH".
func (a Amount) String() string {
	if a.asset == nil {
		return "0 ???"
	}
	return a.ToDecimal().String() + " " + a.asset.Symbol()
}

func (a Amount) StringFixed(places int32) string {
	if a.asset == nil {
		return "0 ???"
	}
	return a.ToDecimal().StringFixed(places) + " " + a.asset.Symbol()
}

func (a Amount) sameAsset(b Amount) error {
	if a.asset == nil || b.asset == nil {
		return ErrNilAsset
	}
	if !a.asset.Equals(b.asset) {
		return fmt.Errorf("%w: %s vs %s", ErrAssetMismatch, a.asset.Ref(), b.asset.Ref())
	}
	return nil
}
