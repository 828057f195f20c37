package core

import (
	"context"
	"fmt"

	"varcore/pkg/vmc"
)

// Session assembles a content-addressed variation graph against a persistent
// store. Every Add operation computes the record's identifier from its
// content before persisting, so repeated additions of equal content collapse
// onto one stored record.
type Session struct {
	store     vmc.GraphStore
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	audit     AuditRecorder
	namespace string
}

// NewSession constructs a build session backed by the supplied store.
func NewSession(store vmc.GraphStore, opts ...Option) *Session {
	options := defaultSessionOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Session{
		store:     store,
		clock:     options.clock,
		logger:    options.logger,
		metrics:   options.metrics,
		tracer:    options.tracer,
		audit:     options.audit,
		namespace: options.namespace,
	}
}

// Store returns the underlying graph store.
func (s *Session) Store() vmc.GraphStore { return s.store }

// Namespace returns the namespace the session stamps on computed identifiers.
func (s *Session) Namespace() string { return s.namespace }

// run instruments an operation with tracing, metrics, logging, and audit.
// entityID may be populated by fn; it is read after fn returns.
func (s *Session) run(ctx context.Context, operation string, entityID *string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := s.clock.Now()
	err := fn(ctx)
	duration := s.clock.Now().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)

	var id string
	if entityID != nil {
		id = *entityID
	}
	entry := AuditEntry{
		Operation:  operation,
		Status:     AuditSuccess,
		EntityID:   id,
		OccurredAt: started.UTC(),
	}
	if err != nil {
		entry.Status = AuditError
		entry.Error = err.Error()
		s.logger.Error("session operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("session operation completed", "operation", operation, "entity_id", id)
	}
	s.audit.Record(ctx, entry)
	return err
}

// distinctIDs copies ids keeping the first occurrence of each, preserving
// caller order.
func distinctIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// computeID renders the session-scoped identifier string for an entity.
func (s *Session) computeID(entity vmc.Entity) (string, error) {
	acc, err := vmc.ComputeAccession(entity)
	if err != nil {
		return "", err
	}
	return Identifier{Namespace: s.namespace, Accession: acc}.String(), nil
}

// AddSequenceLocation persists a precise span on a reference sequence and
// returns the stored record with its computed identifier.
func (s *Session) AddSequenceLocation(ctx context.Context, sequenceID string, interval Interval) (SequenceLocation, error) {
	loc := SequenceLocation{SequenceID: sequenceID, Interval: interval}
	err := s.run(ctx, "add_sequence_location", &loc.ID, func(ctx context.Context) error {
		id, err := s.computeID(loc)
		if err != nil {
			return err
		}
		loc.ID = id
		return s.store.PutLocation(ctx, loc)
	})
	if err != nil {
		return SequenceLocation{}, err
	}
	return loc, nil
}

// AddChromosomeLocation persists a named cytogenetic span. The location keeps
// its own identity; localization to sequence coordinates never changes it.
func (s *Session) AddChromosomeLocation(ctx context.Context, speciesID, chromosome string, interval CytobandInterval) (ChromosomeLocation, error) {
	loc := ChromosomeLocation{SpeciesID: speciesID, Chromosome: chromosome, Interval: interval}
	err := s.run(ctx, "add_chromosome_location", &loc.ID, func(ctx context.Context) error {
		id, err := s.computeID(loc)
		if err != nil {
			return err
		}
		loc.ID = id
		return s.store.PutLocation(ctx, loc)
	})
	if err != nil {
		return ChromosomeLocation{}, err
	}
	return loc, nil
}

// AddAllele persists a sequence state at a previously added location. An
// empty state is a deletion. The location must already exist in the session.
func (s *Session) AddAllele(ctx context.Context, locationID, state string) (Allele, error) {
	allele := Allele{LocationID: locationID, State: state}
	err := s.run(ctx, "add_allele", &allele.ID, func(ctx context.Context) error {
		if locationID != "" {
			_, ok, err := s.store.GetLocation(ctx, locationID)
			if err != nil {
				return err
			}
			if !ok {
				return vmc.InvalidEntityError{Kind: vmc.KindAllele, Field: "location_id", Ref: locationID}
			}
		}
		id, err := s.computeID(allele)
		if err != nil {
			return err
		}
		allele.ID = id
		return s.store.PutAllele(ctx, allele)
	})
	if err != nil {
		return Allele{}, err
	}
	return allele, nil
}

// AddHaplotype persists a set of in-cis alleles. Every referenced allele must
// already exist in the session; the stored identity is order-invariant.
// Allele ids are a set, so a repeated id collapses to one membership and the
// stored record carries each id once.
func (s *Session) AddHaplotype(ctx context.Context, completeness Completeness, alleleIDs ...string) (Haplotype, error) {
	haplotype := Haplotype{AlleleIDs: distinctIDs(alleleIDs), Completeness: completeness}
	err := s.run(ctx, "add_haplotype", &haplotype.ID, func(ctx context.Context) error {
		for _, alleleID := range haplotype.AlleleIDs {
			if alleleID == "" {
				continue
			}
			_, ok, err := s.store.GetAllele(ctx, alleleID)
			if err != nil {
				return err
			}
			if !ok {
				return vmc.InvalidEntityError{Kind: vmc.KindHaplotype, Field: "allele_ids", Ref: alleleID}
			}
		}
		id, err := s.computeID(haplotype)
		if err != nil {
			return err
		}
		haplotype.ID = id
		return s.store.PutHaplotype(ctx, haplotype)
	})
	if err != nil {
		return Haplotype{}, err
	}
	return haplotype, nil
}

// AddGenotype persists a multiset of in-trans haplotypes. Duplicate haplotype
// identifiers are meaningful (homozygosity) and preserved.
func (s *Session) AddGenotype(ctx context.Context, completeness Completeness, haplotypeIDs ...string) (Genotype, error) {
	genotype := Genotype{HaplotypeIDs: append([]string(nil), haplotypeIDs...), Completeness: completeness}
	err := s.run(ctx, "add_genotype", &genotype.ID, func(ctx context.Context) error {
		seen := make(map[string]bool, len(haplotypeIDs))
		for _, haplotypeID := range haplotypeIDs {
			if haplotypeID == "" || seen[haplotypeID] {
				continue
			}
			seen[haplotypeID] = true
			_, ok, err := s.store.GetHaplotype(ctx, haplotypeID)
			if err != nil {
				return err
			}
			if !ok {
				return vmc.InvalidEntityError{Kind: vmc.KindGenotype, Field: "haplotype_ids", Ref: haplotypeID}
			}
		}
		id, err := s.computeID(genotype)
		if err != nil {
			return err
		}
		genotype.ID = id
		return s.store.PutGenotype(ctx, genotype)
	})
	if err != nil {
		return Genotype{}, err
	}
	return genotype, nil
}

// RegisterExternal records an external synonym for a computed identifier.
func (s *Session) RegisterExternal(ctx context.Context, computedID string, external Identifier) error {
	return s.run(ctx, "register_external", &computedID, func(ctx context.Context) error {
		if computedID == "" {
			return fmt.Errorf("register external: computed identifier is empty")
		}
		if external.Namespace == "" || external.Accession == "" {
			return fmt.Errorf("register external: identifier %q is incomplete", external.String())
		}
		return s.store.RegisterIdentifier(ctx, computedID, external)
	})
}

// RegisterSequence digests raw sequence bytes into a sequence identifier and
// records any external synonyms for it. The bytes are not retained.
func (s *Session) RegisterSequence(ctx context.Context, data []byte, externals ...Identifier) (Identifier, error) {
	id := Identifier{Namespace: s.namespace, Accession: "GS_" + vmc.Digest(data)}
	rendered := id.String()
	err := s.run(ctx, "register_sequence", &rendered, func(ctx context.Context) error {
		for _, external := range externals {
			if external.Namespace == "" || external.Accession == "" {
				return fmt.Errorf("register sequence: identifier %q is incomplete", external.String())
			}
			if err := s.store.RegisterIdentifier(ctx, rendered, external); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// Bundle assembles the session's graph and registry into a closed snapshot.
func (s *Session) Bundle(ctx context.Context) (Bundle, error) {
	bundle := vmc.NewBundle(Meta{GeneratedAt: s.clock.Now().UTC(), Version: vmc.BundleVersion})
	err := s.run(ctx, "assemble_bundle", nil, func(ctx context.Context) error {
		snapshot, err := s.store.ExportState(ctx)
		if err != nil {
			return err
		}
		if snapshot.Locations != nil {
			bundle.Locations = snapshot.Locations
		}
		if snapshot.Alleles != nil {
			bundle.Alleles = snapshot.Alleles
		}
		if snapshot.Haplotypes != nil {
			bundle.Haplotypes = snapshot.Haplotypes
		}
		if snapshot.Genotypes != nil {
			bundle.Genotypes = snapshot.Genotypes
		}
		if snapshot.Identifiers != nil {
			bundle.Identifiers = snapshot.Identifiers
		}
		return nil
	})
	if err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}
