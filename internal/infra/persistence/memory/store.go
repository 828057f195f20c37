// Package memory implements the in-memory graph store backing a build
// session. SQL-backed stores embed it and snapshot its state.
package memory

import (
	"context"
	"sort"
	"sync"

	"varcore/pkg/vmc"
)

// Compile-time contract assertion.
var _ vmc.GraphStore = (*Store)(nil)

// Store holds one session's variation graph in process memory. Writers are
// serialized by a mutex; all Puts are idempotent upserts keyed by computed
// identifier.
type Store struct {
	mu          sync.RWMutex
	locations   vmc.LocationMap
	alleles     map[string]vmc.Allele
	haplotypes  map[string]vmc.Haplotype
	genotypes   map[string]vmc.Genotype
	identifiers map[string]map[string]vmc.Identifier
}

// NewStore returns an empty in-memory graph store.
func NewStore() *Store {
	return &Store{
		locations:   make(vmc.LocationMap),
		alleles:     make(map[string]vmc.Allele),
		haplotypes:  make(map[string]vmc.Haplotype),
		genotypes:   make(map[string]vmc.Genotype),
		identifiers: make(map[string]map[string]vmc.Identifier),
	}
}

// PutLocation upserts a location keyed by its computed identifier.
func (s *Store) PutLocation(_ context.Context, loc vmc.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[loc.LocationID()] = loc
	return nil
}

// GetLocation returns the location stored under id.
func (s *Store) GetLocation(_ context.Context, id string) (vmc.Location, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locations[id]
	return loc, ok, nil
}

// PutAllele upserts an allele keyed by its computed identifier.
func (s *Store) PutAllele(_ context.Context, allele vmc.Allele) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alleles[allele.ID] = allele
	return nil
}

// GetAllele returns the allele stored under id.
func (s *Store) GetAllele(_ context.Context, id string) (vmc.Allele, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	allele, ok := s.alleles[id]
	return allele, ok, nil
}

// PutHaplotype upserts a haplotype keyed by its computed identifier.
func (s *Store) PutHaplotype(_ context.Context, haplotype vmc.Haplotype) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	haplotype.AlleleIDs = cloneIDs(haplotype.AlleleIDs)
	s.haplotypes[haplotype.ID] = haplotype
	return nil
}

// GetHaplotype returns the haplotype stored under id.
func (s *Store) GetHaplotype(_ context.Context, id string) (vmc.Haplotype, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	haplotype, ok := s.haplotypes[id]
	if ok {
		haplotype.AlleleIDs = cloneIDs(haplotype.AlleleIDs)
	}
	return haplotype, ok, nil
}

// PutGenotype upserts a genotype keyed by its computed identifier.
func (s *Store) PutGenotype(_ context.Context, genotype vmc.Genotype) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	genotype.HaplotypeIDs = cloneIDs(genotype.HaplotypeIDs)
	s.genotypes[genotype.ID] = genotype
	return nil
}

// GetGenotype returns the genotype stored under id.
func (s *Store) GetGenotype(_ context.Context, id string) (vmc.Genotype, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	genotype, ok := s.genotypes[id]
	if ok {
		genotype.HaplotypeIDs = cloneIDs(genotype.HaplotypeIDs)
	}
	return genotype, ok, nil
}

// RegisterIdentifier records an external synonym with set semantics.
func (s *Store) RegisterIdentifier(_ context.Context, computedID string, external vmc.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.identifiers[computedID]
	if !ok {
		set = make(map[string]vmc.Identifier)
		s.identifiers[computedID] = set
	}
	set[external.String()] = external
	return nil
}

// ExportState clones the current graph state for bundle assembly or
// external persistence.
func (s *Store) ExportState(_ context.Context) (vmc.GraphSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := vmc.GraphSnapshot{
		Locations:   make(vmc.LocationMap, len(s.locations)),
		Alleles:     make(map[string]vmc.Allele, len(s.alleles)),
		Haplotypes:  make(map[string]vmc.Haplotype, len(s.haplotypes)),
		Genotypes:   make(map[string]vmc.Genotype, len(s.genotypes)),
		Identifiers: make(map[string][]string, len(s.identifiers)),
	}
	for id, loc := range s.locations {
		snapshot.Locations[id] = loc
	}
	for id, allele := range s.alleles {
		snapshot.Alleles[id] = allele
	}
	for id, haplotype := range s.haplotypes {
		haplotype.AlleleIDs = cloneIDs(haplotype.AlleleIDs)
		snapshot.Haplotypes[id] = haplotype
	}
	for id, genotype := range s.genotypes {
		genotype.HaplotypeIDs = cloneIDs(genotype.HaplotypeIDs)
		snapshot.Genotypes[id] = genotype
	}
	for computedID, set := range s.identifiers {
		list := make([]string, 0, len(set))
		for rendered := range set {
			list = append(list, rendered)
		}
		sort.Strings(list)
		snapshot.Identifiers[computedID] = list
	}
	return snapshot, nil
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot vmc.GraphSnapshot) error {
	fresh := NewStore()
	ctx := context.Background()
	for _, loc := range snapshot.Locations {
		if err := fresh.PutLocation(ctx, loc); err != nil {
			return err
		}
	}
	for _, allele := range snapshot.Alleles {
		if err := fresh.PutAllele(ctx, allele); err != nil {
			return err
		}
	}
	for _, haplotype := range snapshot.Haplotypes {
		if err := fresh.PutHaplotype(ctx, haplotype); err != nil {
			return err
		}
	}
	for _, genotype := range snapshot.Genotypes {
		if err := fresh.PutGenotype(ctx, genotype); err != nil {
			return err
		}
	}
	for computedID, list := range snapshot.Identifiers {
		for _, rendered := range list {
			external, err := vmc.ParseIdentifier(rendered)
			if err != nil {
				return err
			}
			if err := fresh.RegisterIdentifier(ctx, computedID, external); err != nil {
				return err
			}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = fresh.locations
	s.alleles = fresh.alleles
	s.haplotypes = fresh.haplotypes
	s.genotypes = fresh.genotypes
	s.identifiers = fresh.identifiers
	return nil
}

// Close implements vmc.GraphStore; the memory store holds no resources.
func (s *Store) Close() error { return nil }

func cloneIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
