package vmc

import (
	"sort"
	"sync"
)

// IdentifierRegistry accumulates, per computed identifier, the set of
// external identifiers naming the same record. A registry is scoped to one
// bundle-construction session and is never a process-wide singleton.
//
// Writers are serialized by an internal lock; lookups may proceed
// concurrently with other lookups.
type IdentifierRegistry struct {
	mu      sync.RWMutex
	entries map[string]map[string]Identifier
}

// NewIdentifierRegistry returns an empty registry.
func NewIdentifierRegistry() *IdentifierRegistry {
	return &IdentifierRegistry{entries: make(map[string]map[string]Identifier)}
}

// Register inserts external into the set keyed by computedID, creating the
// set if absent. Registering the same pair twice is a no-op.
func (r *IdentifierRegistry) Register(computedID string, external Identifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.entries[computedID]
	if !ok {
		set = make(map[string]Identifier)
		r.entries[computedID] = set
	}
	set[external.String()] = external
}

// Lookup returns the external identifiers registered for computedID, sorted
// by their rendered form. An unknown identifier yields an empty slice, not
// an error.
func (r *IdentifierRegistry) Lookup(computedID string) []Identifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.entries[computedID]
	out := make([]Identifier, 0, len(set))
	for _, id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Len returns the number of computed identifiers with at least one synonym.
func (r *IdentifierRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Export renders the registry as sorted identifier strings keyed by computed
// identifier, the shape bundles serialize.
func (r *IdentifierRegistry) Export() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string][]string, len(r.entries))
	for computedID, set := range r.entries {
		list := make([]string, 0, len(set))
		for rendered := range set {
			list = append(list, rendered)
		}
		sort.Strings(list)
		out[computedID] = list
	}
	return out
}

// Import merges previously exported entries into the registry. Malformed
// identifier strings are rejected.
func (r *IdentifierRegistry) Import(entries map[string][]string) error {
	for computedID, list := range entries {
		for _, rendered := range list {
			external, err := ParseIdentifier(rendered)
			if err != nil {
				return err
			}
			r.Register(computedID, external)
		}
	}
	return nil
}
