// Package vmc defines the core variation entities, their canonical
// serialization, and the content-addressed identifier scheme used by varcore.
package vmc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityKind identifies the type of record in the variation graph.
type EntityKind string

// Supported entity kinds used in canonical strings and persistence buckets.
const (
	// KindSequence identifies an external reference sequence.
	KindSequence EntityKind = "sequence"
	// KindLocation identifies a span, either sequence-based or chromosome-based.
	KindLocation EntityKind = "location"
	// KindAllele identifies a sequence state at a location.
	KindAllele EntityKind = "allele"
	// KindHaplotype identifies a set of in-cis alleles.
	KindHaplotype EntityKind = "haplotype"
	// KindGenotype identifies a multiset of in-trans haplotypes.
	KindGenotype EntityKind = "genotype"
)

// Completeness qualifies how much of a haplotype or genotype is described.
type Completeness string

// Canonical completeness values carried in haplotype and genotype records.
const (
	CompletenessUnknown  Completeness = "UNKNOWN"
	CompletenessPartial  Completeness = "PARTIAL"
	CompletenessComplete Completeness = "COMPLETE"
)

// CastToCompleteness maps a raw string onto a known Completeness value,
// reporting whether the input was recognised.
func CastToCompleteness(raw string) (Completeness, bool) {
	switch Completeness(strings.ToUpper(strings.TrimSpace(raw))) {
	case CompletenessUnknown:
		return CompletenessUnknown, true
	case CompletenessPartial:
		return CompletenessPartial, true
	case CompletenessComplete:
		return CompletenessComplete, true
	}
	return CompletenessUnknown, false
}

// IsKnownCompleteness reports whether c is one of the canonical values.
func IsKnownCompleteness(c Completeness) bool {
	_, ok := CastToCompleteness(string(c))
	return ok
}

// Interval is a zero-based, half-open (interbase) span of sequence positions.
type Interval struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Validate enforces the interbase invariant start <= end. A zero-length span
// (start == end) is valid.
func (iv Interval) Validate() error {
	if iv.Start > iv.End {
		return MalformedIntervalError{Start: iv.Start, End: iv.End}
	}
	return nil
}

// CytobandInterval is a span expressed in cytogenetic band labels. Band labels
// have no numeric invariant here; their ordering is assembly-specific and is
// resolved by the localizer.
type CytobandInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Entity is implemented by every record that can carry a computed identifier.
type Entity interface {
	Kind() EntityKind
}

// Location is the sum type over sequence-based and chromosome-based spans.
// Records reference locations by identifier, never by embedding.
type Location interface {
	Entity
	// LocationID returns the computed identifier, empty until identified.
	LocationID() string
	isLocation()
}

// SequenceLocation is a concrete interbase span on a reference sequence.
type SequenceLocation struct {
	ID         string   `json:"id,omitempty"`
	SequenceID string   `json:"sequence_id"`
	Interval   Interval `json:"interval"`
}

// Kind returns KindLocation.
func (SequenceLocation) Kind() EntityKind { return KindLocation }

// LocationID returns the computed identifier of the location.
func (l SequenceLocation) LocationID() string { return l.ID }

func (SequenceLocation) isLocation() {}

// ChromosomeLocation is a feature-based span expressed as a cytoband range on
// a named chromosome. It must be localized before it can be compared to a
// SequenceLocation.
type ChromosomeLocation struct {
	ID         string           `json:"id,omitempty"`
	SpeciesID  string           `json:"species_id"`
	Chromosome string           `json:"chromosome"`
	Interval   CytobandInterval `json:"interval"`
}

// Kind returns KindLocation.
func (ChromosomeLocation) Kind() EntityKind { return KindLocation }

// LocationID returns the computed identifier of the location.
func (l ChromosomeLocation) LocationID() string { return l.ID }

func (ChromosomeLocation) isLocation() {}

// Allele is a sequence state at a location.
type Allele struct {
	ID         string `json:"id,omitempty"`
	LocationID string `json:"location_id"`
	// State is the literal sequence at the location; empty means deletion.
	State string `json:"state"`
}

// Kind returns KindAllele.
func (Allele) Kind() EntityKind { return KindAllele }

// Haplotype is a set of allele identifiers occurring in cis. Identity is
// invariant to the order the identifiers were supplied in.
type Haplotype struct {
	ID           string       `json:"id,omitempty"`
	AlleleIDs    []string     `json:"allele_ids"`
	Completeness Completeness `json:"completeness"`
}

// Kind returns KindHaplotype.
func (Haplotype) Kind() EntityKind { return KindHaplotype }

// Genotype is a multiset of haplotype identifiers occurring in trans.
// Duplicates are preserved; identity is invariant to permutation.
type Genotype struct {
	ID           string       `json:"id,omitempty"`
	HaplotypeIDs []string     `json:"haplotype_ids"`
	Completeness Completeness `json:"completeness"`
}

// Kind returns KindGenotype.
func (Genotype) Kind() EntityKind { return KindGenotype }

// Identifier is a namespaced accession rendered as "namespace:accession".
// It names either a computed (content-derived) record or an external synonym
// such as a dbSNP rs number.
type Identifier struct {
	Namespace string `json:"namespace"`
	Accession string `json:"accession"`
}

// String renders the identifier as a CURIE-like token.
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Accession
}

// ParseIdentifier splits "namespace:accession" into an Identifier. The
// accession may itself contain colons; only the first separates the namespace.
func ParseIdentifier(s string) (Identifier, error) {
	idx := strings.Index(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return Identifier{}, fmt.Errorf("malformed identifier %q: want namespace:accession", s)
	}
	return Identifier{Namespace: s[:idx], Accession: s[idx+1:]}, nil
}

// Meta describes one bundle snapshot.
type Meta struct {
	GeneratedAt time.Time `json:"generated_at"`
	Version     string    `json:"vmc_version"`
}

// LocationMap keys locations by computed identifier while preserving the
// Location sum type across JSON round trips.
type LocationMap map[string]Location

type locationEnvelope struct {
	Type string `json:"type"`
}

const (
	typeSequenceLocation   = "SequenceLocation"
	typeChromosomeLocation = "ChromosomeLocation"
)

// MarshalLocation renders a location with its "type" discriminator.
func MarshalLocation(loc Location) ([]byte, error) {
	switch l := loc.(type) {
	case SequenceLocation:
		type payload struct {
			Type string `json:"type"`
			SequenceLocation
		}
		return json.Marshal(payload{Type: typeSequenceLocation, SequenceLocation: l})
	case ChromosomeLocation:
		type payload struct {
			Type string `json:"type"`
			ChromosomeLocation
		}
		return json.Marshal(payload{Type: typeChromosomeLocation, ChromosomeLocation: l})
	case nil:
		return nil, fmt.Errorf("marshal location: nil location")
	default:
		return nil, fmt.Errorf("marshal location: unknown variant %T", loc)
	}
}

// UnmarshalLocation decodes the "type" discriminator and dispatches to the
// matching Location variant.
func UnmarshalLocation(data []byte) (Location, error) {
	var env locationEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode location envelope: %w", err)
	}
	switch env.Type {
	case typeSequenceLocation:
		var l SequenceLocation
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("decode sequence location: %w", err)
		}
		return l, nil
	case typeChromosomeLocation:
		var l ChromosomeLocation
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("decode chromosome location: %w", err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("decode location: unknown type %q", env.Type)
	}
}

// MarshalJSON renders each location with its discriminator.
func (m LocationMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m))
	for id, loc := range m {
		raw, err := MarshalLocation(loc)
		if err != nil {
			return nil, fmt.Errorf("location %s: %w", id, err)
		}
		out[id] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON hydrates each location through the envelope dispatch.
func (m *LocationMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(LocationMap, len(raw))
	for id, blob := range raw {
		loc, err := UnmarshalLocation(blob)
		if err != nil {
			return fmt.Errorf("location %s: %w", id, err)
		}
		out[id] = loc
	}
	*m = out
	return nil
}
