package domain

import "github.com/fd1az/swap-router/internal/apperror"

// TradeStatus is the lifecycle state of the current trade.
type TradeStatus string

const (
	StatusNotInitiated   TradeStatus = "NOT_INITIATED"
	StatusLoading        TradeStatus = "LOADING"
	StatusReadyToApprove TradeStatus = "READY_TO_APPROVE"
	StatusReadyToSwap    TradeStatus = "READY_TO_SWAP"
	StatusDisabled       TradeStatus = "DISABLED"
)

// SelectedTrade is the single trade the user acts on.
type SelectedTrade struct {
	Trade          *Trade
	Err            *apperror.AppError
	NeedApprove    bool
	Provider       ProviderType
	Tags           Tags
	Status         TradeStatus
	SelectedByUser bool
}

// NotInitiated is the default state before any calculation.
func NotInitiated() SelectedTrade {
	return SelectedTrade{Status: StatusNotInitiated}
}

// Ready reports whether the trade can be approved or swapped.
func (s SelectedTrade) Ready() bool {
	return s.Status == StatusReadyToSwap || s.Status == StatusReadyToApprove
}

// FromCandidate derives a SelectedTrade and its status from a candidate.
func FromCandidate(c Candidate) SelectedTrade {
	st := SelectedTrade{
		Trade:       c.Trade,
		Err:         c.Err,
		NeedApprove: c.NeedsApproval,
		Provider:    c.Provider,
		Tags:        c.Tags,
		Status:      StatusReadyToSwap,
	}
	switch {
	case c.Err != nil || c.Trade == nil:
		st.Trade = nil
		st.Status = StatusDisabled
	case c.NeedsApproval:
		st.Status = StatusReadyToApprove
	}
	return st
}
