package domain

import "sort"

// DisabledProviders is the session-scoped set of providers excluded after critical errors.
// Values are immutable; With returns an updated copy.
type DisabledProviders struct {
	crossChain map[ProviderType]struct{}
	onChain    map[ProviderType]struct{}
}

// NewDisabledProviders returns an empty registry, the state of a fresh session.
func NewDisabledProviders() DisabledProviders {
	return DisabledProviders{
		crossChain: map[ProviderType]struct{}{},
		onChain:    map[ProviderType]struct{}{},
	}
}

// With returns a copy that also excludes p for swaps of type t.
func (d DisabledProviders) With(t SwapType, p ProviderType) DisabledProviders {
	next := DisabledProviders{
		crossChain: copySet(d.crossChain),
		onChain:    copySet(d.onChain),
	}
	next.get(t)[p] = struct{}{}
	return next
}

// Contains reports whether p is disabled for swaps of type t.
func (d DisabledProviders) Contains(t SwapType, p ProviderType) bool {
	_, ok := d.get(t)[p]
	return ok
}

// List returns the disabled providers for t in name order.
func (d DisabledProviders) List(t SwapType) []ProviderType {
	set := d.get(t)
	out := make([]ProviderType, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of disabled entries across both subsets.
func (d DisabledProviders) Len() int {
	return len(d.crossChain) + len(d.onChain)
}

func (d DisabledProviders) get(t SwapType) map[ProviderType]struct{} {
	if t == SwapTypeCrossChain {
		return d.crossChain
	}
	return d.onChain
}

func copySet(src map[ProviderType]struct{}) map[ProviderType]struct{} {
	dst := make(map[ProviderType]struct{}, len(src)+1)
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
