package asset

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Registry resolves "SYMBOL@CHAIN" references to known assets.
type Registry struct {
	mu    sync.RWMutex
	ids   map[AssetID]struct{}
	byRef map[string]*Asset
}

func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[AssetID]struct{}),
		byRef: make(map[string]*Asset),
	}
}

func refKey(symbol string, chain Blockchain) string {
	return strings.ToUpper(symbol) + "@" + string(chain)
}

// Register fails when the asset id or its symbol on that chain is taken.
func (r *Registry) Register(a *Asset) error {
	if a == nil {
		return ErrNilAsset
	}
	key := refKey(a.Symbol(), a.Blockchain())

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ids[a.ID()]; dup {
		return fmt.Errorf("asset: %s already registered", a.ID())
	}
	if _, dup := r.byRef[key]; dup {
		return fmt.Errorf("asset: %s already registered", key)
	}
	r.ids[a.ID()] = struct{}{}
	r.byRef[key] = a
	return nil
}

func (r *Registry) MustRegister(a *Asset) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Resolve parses "SYMBOL@CHAIN", case-insensitively (e.g. "usdc@polygon").
func (r *Registry) Resolve(ref string) (*Asset, error) {
	symbol, chain, ok := strings.Cut(ref, "@")
	if !ok || symbol == "" {
		return nil, fmt.Errorf("asset: %q must be SYMBOL@CHAIN", ref)
	}
	b, err := ParseBlockchain(chain)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	a, found := r.byRef[refKey(symbol, b)]
	r.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("asset: %s not found on %s (known: %s)", strings.ToUpper(symbol), b, strings.Join(r.Refs(), ", "))
	}
	return a, nil
}

// Refs lists every registered reference in sorted order.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	refs := make([]string, 0, len(r.byRef))
	for ref := range r.byRef {
		refs = append(refs, ref)
	}
	r.mu.RUnlock()
	slices.Sort(refs)
	return refs
}
