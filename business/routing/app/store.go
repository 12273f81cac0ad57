package app

import (
	"sort"

	"github.com/fd1az/swap-router/business/routing/domain"
)

// CandidateStore holds the outcomes of the current round keyed by provider.
// Entries are kept in registration order so the final state does not depend
// on arrival order. Not safe for concurrent use; the orchestrator serializes writes.
type CandidateStore struct {
	mode    domain.SwapType
	entries []domain.Candidate
}

// NewCandidateStore creates an empty store.
func NewCandidateStore() *CandidateStore {
	return &CandidateStore{}
}

// Apply upserts o. A round type different from the current mode replaces the
// whole set with o.
func (s *CandidateStore) Apply(o domain.Outcome, roundType domain.SwapType) {
	if roundType != s.mode {
		s.mode = roundType
		s.entries = []domain.Candidate{{Outcome: o}}
		return
	}

	for i := range s.entries {
		if s.entries[i].Provider == o.Provider {
			s.entries[i] = domain.Candidate{Outcome: o}
			return
		}
	}

	s.entries = append(s.entries, domain.Candidate{Outcome: o})
	sort.SliceStable(s.entries, func(i, j int) bool {
		a, b := s.entries[i], s.entries[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Provider < b.Provider
	})
}

// Reset clears every candidate, keeping the mode.
func (s *CandidateStore) Reset() {
	s.entries = nil
}

// Mode returns the swap type of the stored candidates.
func (s *CandidateStore) Mode() domain.SwapType {
	return s.mode
}

// Len returns the number of candidates.
func (s *CandidateStore) Len() int {
	return len(s.entries)
}

// Candidates returns a copy of the stored candidates.
func (s *CandidateStore) Candidates() []domain.Candidate {
	out := make([]domain.Candidate, len(s.entries))
	copy(out, s.entries)
	return out
}
