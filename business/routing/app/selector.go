package app

import (
	"sort"

	"github.com/fd1az/swap-router/business/routing/domain"
)

// Rank returns candidates in selection order with tags assigned: successful
// candidates first by net output descending, then errors; ties break on
// registration priority and then provider name.
func Rank(candidates []domain.Candidate) []domain.Candidate {
	ranked := make([]domain.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})

	for i := range ranked {
		ranked[i].Tags = domain.Tags{}
	}
	if len(ranked) == 0 || !ranked[0].Succeeded() {
		return ranked
	}
	ranked[0].Tags.IsBest = true

	cheapest, succeeded := -1, 0
	for i, c := range ranked {
		if !c.Succeeded() {
			continue
		}
		succeeded++
		if cheapest < 0 || c.Trade.Fee.ToDecimal().LessThan(ranked[cheapest].Trade.Fee.ToDecimal()) {
			cheapest = i
		}
	}
	if succeeded >= 2 {
		ranked[cheapest].Tags.IsCheap = true
	}
	return ranked
}

func less(a, b domain.Candidate) bool {
	as, bs := a.Succeeded(), b.Succeeded()
	if as != bs {
		return as
	}
	if as {
		if c := a.Trade.NetOutput().Cmp(b.Trade.NetOutput()); c != 0 {
			return c > 0
		}
	}
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.Provider < b.Provider
}

// SelectBest derives the current trade from the candidate set and progress.
func SelectBest(candidates []domain.Candidate, progress domain.Progress) domain.SelectedTrade {
	if len(candidates) == 0 {
		if progress.Done() {
			return domain.SelectedTrade{Status: domain.StatusDisabled}
		}
		return domain.SelectedTrade{Status: domain.StatusLoading}
	}
	return domain.FromCandidate(Rank(candidates)[0])
}

// SelectProvider derives the current trade from the candidate of provider p.
func SelectProvider(candidates []domain.Candidate, p domain.ProviderType) (domain.SelectedTrade, bool) {
	for _, c := range Rank(candidates) {
		if c.Provider == p {
			st := domain.FromCandidate(c)
			st.SelectedByUser = true
			return st, true
		}
	}
	return domain.SelectedTrade{}, false
}

// BestAvailable returns the first successful candidate in selection order.
func BestAvailable(candidates []domain.Candidate) (domain.Candidate, bool) {
	for _, c := range Rank(candidates) {
		if c.Succeeded() {
			return c, true
		}
	}
	return domain.Candidate{}, false
}
