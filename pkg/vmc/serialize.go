package vmc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CanonicalString renders an entity as the deterministic byte sequence that
// its identifier is derived from. The grammar is fixed per entity kind:
//
//	SequenceLocation:   <Location|SEQ_ID|<Interval|start|end>>
//	ChromosomeLocation: <Location|SPECIES_ID|CHROMOSOME|<CytobandInterval|start|end>>
//	Allele:             <Allele|LOCATION_ID|STATE>
//	Haplotype:          <Haplotype|COMPLETENESS|[id1;id2;...]>
//	Genotype:           <Genotype|COMPLETENESS|[id1;id2;...]>
//
// Child references render as resolved identifiers, never as the child's own
// content. Unordered identifier collections are sorted lexicographically
// before rendering so that input permutation cannot change the result.
// Haplotype allele ids are a set: repeats collapse to one entry. Genotype
// haplotype ids are a multiset: duplicates survive the sort (homozygosity is
// content). Chromosome locations use their own grammar branch and are never
// localized during identity computation.
//
// The entity's own ID field is excluded: it is the output of this function,
// not part of the content.
func CanonicalString(entity Entity) (string, error) {
	switch e := entity.(type) {
	case SequenceLocation:
		return canonicalSequenceLocation(e)
	case ChromosomeLocation:
		return canonicalChromosomeLocation(e)
	case Allele:
		return canonicalAllele(e)
	case Haplotype:
		return canonicalHaplotype(e)
	case Genotype:
		return canonicalGenotype(e)
	case nil:
		return "", fmt.Errorf("canonical string: nil entity")
	default:
		return "", fmt.Errorf("canonical string: unsupported entity %T", entity)
	}
}

func canonicalInterval(iv Interval) string {
	return "<Interval|" + strconv.FormatUint(iv.Start, 10) + "|" + strconv.FormatUint(iv.End, 10) + ">"
}

func canonicalSequenceLocation(l SequenceLocation) (string, error) {
	if l.SequenceID == "" {
		return "", InvalidEntityError{Kind: KindLocation, Field: "sequence_id"}
	}
	if err := l.Interval.Validate(); err != nil {
		return "", err
	}
	return "<Location|" + l.SequenceID + "|" + canonicalInterval(l.Interval) + ">", nil
}

func canonicalChromosomeLocation(l ChromosomeLocation) (string, error) {
	if l.SpeciesID == "" {
		return "", InvalidEntityError{Kind: KindLocation, Field: "species_id"}
	}
	if l.Chromosome == "" {
		return "", InvalidEntityError{Kind: KindLocation, Field: "chromosome"}
	}
	if l.Interval.Start == "" || l.Interval.End == "" {
		return "", InvalidEntityError{Kind: KindLocation, Field: "interval"}
	}
	// The four-segment body plus the CytobandInterval tag keeps this branch
	// formally disjoint from the sequence-location grammar.
	return "<Location|" + l.SpeciesID + "|" + l.Chromosome +
		"|<CytobandInterval|" + l.Interval.Start + "|" + l.Interval.End + ">>", nil
}

func canonicalAllele(a Allele) (string, error) {
	if a.LocationID == "" {
		return "", InvalidEntityError{Kind: KindAllele, Field: "location_id"}
	}
	// An empty state is a deletion and is valid.
	return "<Allele|" + a.LocationID + "|" + a.State + ">", nil
}

func canonicalHaplotype(h Haplotype) (string, error) {
	if len(h.AlleleIDs) == 0 {
		return "", InvalidEntityError{Kind: KindHaplotype, Field: "allele_ids"}
	}
	if !IsKnownCompleteness(h.Completeness) {
		return "", InvalidEntityError{Kind: KindHaplotype, Field: "completeness"}
	}
	for _, id := range h.AlleleIDs {
		if id == "" {
			return "", InvalidEntityError{Kind: KindHaplotype, Field: "allele_ids"}
		}
	}
	return "<Haplotype|" + string(h.Completeness) + "|" + canonicalIDSet(h.AlleleIDs) + ">", nil
}

func canonicalGenotype(g Genotype) (string, error) {
	if len(g.HaplotypeIDs) == 0 {
		return "", InvalidEntityError{Kind: KindGenotype, Field: "haplotype_ids"}
	}
	if !IsKnownCompleteness(g.Completeness) {
		return "", InvalidEntityError{Kind: KindGenotype, Field: "completeness"}
	}
	for _, id := range g.HaplotypeIDs {
		if id == "" {
			return "", InvalidEntityError{Kind: KindGenotype, Field: "haplotype_ids"}
		}
	}
	return "<Genotype|" + string(g.Completeness) + "|" + canonicalIDList(g.HaplotypeIDs) + ">", nil
}

// canonicalIDList sorts a copy of the identifiers and joins them inside a
// bracketed, semicolon-separated list. Duplicates are kept.
func canonicalIDList(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return "[" + strings.Join(sorted, ";") + "]"
}

// canonicalIDSet sorts and deduplicates the identifiers before joining, so a
// repeated member cannot change a set-valued collection's identity.
func canonicalIDSet(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	unique := make([]string, 0, len(sorted))
	for _, id := range sorted {
		if len(unique) > 0 && id == unique[len(unique)-1] {
			continue
		}
		unique = append(unique, id)
	}
	return "[" + strings.Join(unique, ";") + "]"
}
