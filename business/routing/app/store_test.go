package app

import (
	"testing"

	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
)

func TestCandidateStore_ApplyIsCommutative(t *testing.T) {
	outcomes := []domain.Outcome{
		candidate(providerA, 0, "200", "").Outcome,
		candidate(providerB, 1, "190", "").Outcome,
		errorCandidate(providerC, 2, apperror.CodeNoAvailableRoutes).Outcome,
	}
	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

	var reference []domain.Candidate
	for _, order := range orders {
		s := NewCandidateStore()
		for _, i := range order {
			s.Apply(outcomes[i], domain.SwapTypeInstantTrade)
		}

		got := s.Candidates()
		if reference == nil {
			reference = got
			continue
		}
		if len(got) != len(reference) {
			t.Fatalf("order %v: %d candidates, want %d", order, len(got), len(reference))
		}
		for i := range got {
			if got[i].Provider != reference[i].Provider || got[i].Kind != reference[i].Kind {
				t.Errorf("order %v: position %d is %s, want %s", order, i, got[i].Provider, reference[i].Provider)
			}
		}
	}
}

func TestCandidateStore_UpsertsByProvider(t *testing.T) {
	s := NewCandidateStore()
	s.Apply(candidate(providerA, 0, "200", "").Outcome, domain.SwapTypeInstantTrade)
	s.Apply(candidate(providerA, 0, "210", "").Outcome, domain.SwapTypeInstantTrade)

	if s.Len() != 1 {
		t.Fatalf("expected 1 candidate, got %d", s.Len())
	}
	if got := s.Candidates()[0].Trade.To.ToDecimal().String(); got != "210" {
		t.Errorf("expected replaced output 210, got %s", got)
	}
}

func TestCandidateStore_ModeSwitchResets(t *testing.T) {
	s := NewCandidateStore()
	s.Apply(candidate(providerA, 0, "200", "").Outcome, domain.SwapTypeInstantTrade)
	s.Apply(candidate(providerB, 1, "190", "").Outcome, domain.SwapTypeInstantTrade)

	cross := candidate(providerC, 0, "50", "").Outcome
	cross.SwapType = domain.SwapTypeCrossChain
	s.Apply(cross, domain.SwapTypeCrossChain)

	if s.Len() != 1 || s.Candidates()[0].Provider != providerC {
		t.Fatalf("expected store to hold only the cross-chain outcome, got %d entries", s.Len())
	}
	if s.Mode() != domain.SwapTypeCrossChain {
		t.Errorf("expected cross-chain mode, got %s", s.Mode())
	}
}

func TestCandidateStore_ResetAndCopy(t *testing.T) {
	s := NewCandidateStore()
	s.Apply(candidate(providerA, 0, "200", "").Outcome, domain.SwapTypeInstantTrade)

	got := s.Candidates()
	got[0].Provider = "mutated"
	if s.Candidates()[0].Provider != providerA {
		t.Error("expected Candidates to return a copy")
	}

	s.Reset()
	if s.Len() != 0 {
		t.Errorf("expected empty store after reset, got %d", s.Len())
	}
}
