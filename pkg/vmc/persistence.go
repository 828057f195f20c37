package vmc

import "context"

// GraphStore persists a content-addressed variation graph for one build
// session. Every Put is an idempotent upsert keyed by the record's computed
// identifier: identical content always collapses onto the same key, so
// last-write-wins is safe by construction.
type GraphStore interface {
	PutLocation(ctx context.Context, loc Location) error
	GetLocation(ctx context.Context, id string) (Location, bool, error)
	PutAllele(ctx context.Context, allele Allele) error
	GetAllele(ctx context.Context, id string) (Allele, bool, error)
	PutHaplotype(ctx context.Context, haplotype Haplotype) error
	GetHaplotype(ctx context.Context, id string) (Haplotype, bool, error)
	PutGenotype(ctx context.Context, genotype Genotype) error
	GetGenotype(ctx context.Context, id string) (Genotype, bool, error)

	// RegisterIdentifier records an external synonym for a computed
	// identifier with set semantics.
	RegisterIdentifier(ctx context.Context, computedID string, external Identifier) error

	// ExportState clones the full graph state for bundle assembly or
	// snapshot persistence.
	ExportState(ctx context.Context) (GraphSnapshot, error)

	Close() error
}

// GraphSnapshot is a point-in-time clone of a graph store's state, bucketed
// the way snapshots are persisted and bundles are assembled.
type GraphSnapshot struct {
	Locations   LocationMap          `json:"locations"`
	Alleles     map[string]Allele    `json:"alleles"`
	Haplotypes  map[string]Haplotype `json:"haplotypes"`
	Genotypes   map[string]Genotype  `json:"genotypes"`
	Identifiers map[string][]string  `json:"identifiers"`
}
