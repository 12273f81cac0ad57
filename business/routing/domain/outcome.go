package domain

import "github.com/fd1az/swap-router/internal/apperror"

// Progress counts providers attempted in a round against those that reported.
type Progress struct {
	Total      int
	Calculated int
}

// Done reports whether every attempted provider has reported.
func (p Progress) Done() bool {
	return p.Calculated >= p.Total
}

// IsEmpty reports the zero progress used when calculation is stopped.
func (p Progress) IsEmpty() bool {
	return p.Total == 0 && p.Calculated == 0
}

// OutcomeKind tags a provider outcome.
type OutcomeKind int

const (
	OutcomeTrade OutcomeKind = iota
	OutcomeError
)

func (k OutcomeKind) String() string {
	if k == OutcomeError {
		return "error"
	}
	return "trade"
}

// Outcome is one provider's report for one round.
type Outcome struct {
	RoundID       uint64
	Provider      ProviderType
	SwapType      SwapType
	Kind          OutcomeKind
	Trade         *Trade
	Err           *apperror.AppError
	NeedsApproval bool
	// Priority is the provider's registration order, lower first.
	Priority int
	Progress Progress
}

// Succeeded reports whether the outcome carries a usable trade.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeTrade && o.Trade != nil && o.Err == nil
}

// Tags are derived labels attached to candidates after ordering.
type Tags struct {
	IsBest  bool
	IsCheap bool
}

// Candidate is a stored outcome plus its derived tags.
type Candidate struct {
	Outcome
	Tags Tags
}
