package vmc

import (
	"encoding/json"
	"sort"
)

// BundleVersion is the format version recorded in bundle metadata.
const BundleVersion = "0"

// Bundle is a closed snapshot of a variation graph: the entities keyed by
// their computed identifiers plus the external-identifier registry export.
// A bundle is immutable once assembled.
type Bundle struct {
	Meta        Meta                 `json:"meta"`
	Locations   LocationMap          `json:"locations"`
	Alleles     map[string]Allele    `json:"alleles"`
	Haplotypes  map[string]Haplotype `json:"haplotypes"`
	Genotypes   map[string]Genotype  `json:"genotypes"`
	Identifiers map[string][]string  `json:"identifiers"`
}

// NewBundle returns a bundle with empty sections and the given metadata.
func NewBundle(meta Meta) Bundle {
	return Bundle{
		Meta:        meta,
		Locations:   make(LocationMap),
		Alleles:     make(map[string]Allele),
		Haplotypes:  make(map[string]Haplotype),
		Genotypes:   make(map[string]Genotype),
		Identifiers: make(map[string][]string),
	}
}

type bundleAlias Bundle

// MarshalJSON sorts every identifier list before encoding so that bundle
// output is reproducible regardless of registration order. Map keys are
// ordered by encoding/json already.
func (b Bundle) MarshalJSON() ([]byte, error) {
	normalized := bundleAlias(b)
	if len(b.Identifiers) > 0 {
		ids := make(map[string][]string, len(b.Identifiers))
		for computedID, list := range b.Identifiers {
			sortedList := make([]string, len(list))
			copy(sortedList, list)
			sort.Strings(sortedList)
			ids[computedID] = sortedList
		}
		normalized.Identifiers = ids
	}
	return json.Marshal(normalized)
}

// UnmarshalJSON hydrates the bundle, dispatching location variants through
// the envelope decoder.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var aux bundleAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*b = Bundle(aux)
	return nil
}

// Equal reports structural equality between two bundles. Textual key order
// and identifier-list order are not significant; timestamps compare with
// time.Equal so zone representation does not matter.
func (b Bundle) Equal(other Bundle) bool {
	if !b.Meta.GeneratedAt.Equal(other.Meta.GeneratedAt) || b.Meta.Version != other.Meta.Version {
		return false
	}
	if len(b.Locations) != len(other.Locations) {
		return false
	}
	for id, loc := range b.Locations {
		otherLoc, ok := other.Locations[id]
		if !ok || loc != otherLoc {
			return false
		}
	}
	if len(b.Alleles) != len(other.Alleles) {
		return false
	}
	for id, a := range b.Alleles {
		if other.Alleles[id] != a {
			return false
		}
	}
	if len(b.Haplotypes) != len(other.Haplotypes) {
		return false
	}
	for id, h := range b.Haplotypes {
		o, ok := other.Haplotypes[id]
		if !ok || h.ID != o.ID || h.Completeness != o.Completeness || !equalIDMultiset(h.AlleleIDs, o.AlleleIDs) {
			return false
		}
	}
	if len(b.Genotypes) != len(other.Genotypes) {
		return false
	}
	for id, g := range b.Genotypes {
		o, ok := other.Genotypes[id]
		if !ok || g.ID != o.ID || g.Completeness != o.Completeness || !equalIDMultiset(g.HaplotypeIDs, o.HaplotypeIDs) {
			return false
		}
	}
	if len(b.Identifiers) != len(other.Identifiers) {
		return false
	}
	for computedID, list := range b.Identifiers {
		otherList, ok := other.Identifiers[computedID]
		if !ok || !equalIDMultiset(list, otherList) {
			return false
		}
	}
	return true
}

func equalIDMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	copy(as, a)
	copy(bs, b)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

type metaAlias Meta

// MarshalJSON renders the generation timestamp in UTC for reproducible
// output across hosts.
func (m Meta) MarshalJSON() ([]byte, error) {
	normalized := metaAlias(m)
	normalized.GeneratedAt = m.GeneratedAt.UTC()
	return json.Marshal(normalized)
}

// UnmarshalJSON hydrates metadata from the JSON payload.
func (m *Meta) UnmarshalJSON(data []byte) error {
	var aux metaAlias
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*m = Meta(aux)
	return nil
}
