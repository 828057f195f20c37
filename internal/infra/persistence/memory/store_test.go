package memory

import (
	"context"
	"testing"

	"varcore/pkg/vmc"
)

func TestStorePutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	loc := vmc.SequenceLocation{ID: "VMC:GL_a", SequenceID: "refseq:NC_000019.10", Interval: vmc.Interval{Start: 44908821, End: 44908822}}
	if err := store.PutLocation(ctx, loc); err != nil {
		t.Fatalf("put location: %v", err)
	}
	got, ok, err := store.GetLocation(ctx, "VMC:GL_a")
	if err != nil || !ok || got != vmc.Location(loc) {
		t.Fatalf("get location: %v %v %#v", err, ok, got)
	}

	allele := vmc.Allele{ID: "VMC:GA_a", LocationID: "VMC:GL_a", State: "T"}
	if err := store.PutAllele(ctx, allele); err != nil {
		t.Fatalf("put allele: %v", err)
	}
	gotAllele, ok, err := store.GetAllele(ctx, "VMC:GA_a")
	if err != nil || !ok || gotAllele != allele {
		t.Fatalf("get allele: %v %v %#v", err, ok, gotAllele)
	}

	if _, ok, _ := store.GetAllele(ctx, "VMC:GA_missing"); ok {
		t.Fatalf("expected missing allele")
	}
}

func TestStorePutIsIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	allele := vmc.Allele{ID: "VMC:GA_a", LocationID: "VMC:GL_a", State: "T"}
	if err := store.PutAllele(ctx, allele); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.PutAllele(ctx, allele); err != nil {
		t.Fatalf("repeat put: %v", err)
	}
	snapshot, err := store.ExportState(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(snapshot.Alleles) != 1 {
		t.Fatalf("expected single record, got %d", len(snapshot.Alleles))
	}
}

func TestStoreCollectionCopiesAreDefensive(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	ids := []string{"VMC:GA_a", "VMC:GA_b"}
	hap := vmc.Haplotype{ID: "VMC:GH_a", AlleleIDs: ids, Completeness: vmc.CompletenessComplete}
	if err := store.PutHaplotype(ctx, hap); err != nil {
		t.Fatalf("put haplotype: %v", err)
	}
	ids[0] = "mutated"
	got, ok, err := store.GetHaplotype(ctx, "VMC:GH_a")
	if err != nil || !ok {
		t.Fatalf("get haplotype: %v %v", err, ok)
	}
	if got.AlleleIDs[0] != "VMC:GA_a" {
		t.Fatalf("stored slice aliased caller memory: %v", got.AlleleIDs)
	}
	got.AlleleIDs[1] = "mutated"
	again, _, _ := store.GetHaplotype(ctx, "VMC:GH_a")
	if again.AlleleIDs[1] != "VMC:GA_b" {
		t.Fatalf("returned slice aliased store memory: %v", again.AlleleIDs)
	}
}

func TestStoreExportImportState(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	if err := store.PutLocation(ctx, vmc.ChromosomeLocation{ID: "VMC:GL_c", SpeciesID: "taxonomy:9606", Chromosome: "11", Interval: vmc.CytobandInterval{Start: "q22.2", End: "q22.3"}}); err != nil {
		t.Fatalf("put location: %v", err)
	}
	if err := store.PutGenotype(ctx, vmc.Genotype{ID: "VMC:GG_a", HaplotypeIDs: []string{"VMC:GH_x", "VMC:GH_x"}, Completeness: vmc.CompletenessUnknown}); err != nil {
		t.Fatalf("put genotype: %v", err)
	}
	if err := store.RegisterIdentifier(ctx, "VMC:GG_a", vmc.Identifier{Namespace: "local", Accession: "case-7"}); err != nil {
		t.Fatalf("register identifier: %v", err)
	}

	snapshot, err := store.ExportState(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	restored := NewStore()
	if err := restored.ImportState(snapshot); err != nil {
		t.Fatalf("import: %v", err)
	}
	loc, ok, _ := restored.GetLocation(ctx, "VMC:GL_c")
	if !ok {
		t.Fatalf("location lost in import")
	}
	if chrom, isChrom := loc.(vmc.ChromosomeLocation); !isChrom || chrom.Chromosome != "11" {
		t.Fatalf("location variant lost: %#v", loc)
	}
	gt, ok, _ := restored.GetGenotype(ctx, "VMC:GG_a")
	if !ok || len(gt.HaplotypeIDs) != 2 {
		t.Fatalf("genotype multiset lost: %#v", gt)
	}
	roundTrip, err := restored.ExportState(ctx)
	if err != nil {
		t.Fatalf("re-export: %v", err)
	}
	if len(roundTrip.Identifiers["VMC:GG_a"]) != 1 || roundTrip.Identifiers["VMC:GG_a"][0] != "local:case-7" {
		t.Fatalf("identifiers lost: %v", roundTrip.Identifiers)
	}
}

func TestStoreImportRejectsMalformedIdentifier(t *testing.T) {
	store := NewStore()
	err := store.ImportState(vmc.GraphSnapshot{Identifiers: map[string][]string{"VMC:GA_a": {"bad"}}})
	if err == nil {
		t.Fatalf("expected malformed identifier to be rejected")
	}
}

func TestStoreRegisterIdentifierSetSemantics(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	external := vmc.Identifier{Namespace: "dbSNP", Accession: "rs429358"}
	if err := store.RegisterIdentifier(ctx, "VMC:GA_a", external); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := store.RegisterIdentifier(ctx, "VMC:GA_a", external); err != nil {
		t.Fatalf("repeat register: %v", err)
	}
	snapshot, _ := store.ExportState(ctx)
	if got := snapshot.Identifiers["VMC:GA_a"]; len(got) != 1 {
		t.Fatalf("expected set semantics, got %v", got)
	}
}
