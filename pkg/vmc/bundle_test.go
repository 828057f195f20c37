package vmc

import (
	"encoding/json"
	"testing"
	"time"
)

func fixtureBundle(t *testing.T) Bundle {
	t.Helper()
	loc := SequenceLocation{SequenceID: "refseq:NC_000019.10", Interval: Interval{Start: 44908821, End: 44908822}}
	locID, err := ComputeID(loc)
	if err != nil {
		t.Fatalf("compute location id: %v", err)
	}
	loc.ID = locID

	allele := Allele{LocationID: locID, State: "T"}
	alleleID, err := ComputeID(allele)
	if err != nil {
		t.Fatalf("compute allele id: %v", err)
	}
	allele.ID = alleleID

	hap := Haplotype{AlleleIDs: []string{alleleID}, Completeness: CompletenessPartial}
	hapID, err := ComputeID(hap)
	if err != nil {
		t.Fatalf("compute haplotype id: %v", err)
	}
	hap.ID = hapID

	gt := Genotype{HaplotypeIDs: []string{hapID, hapID}, Completeness: CompletenessUnknown}
	gtID, err := ComputeID(gt)
	if err != nil {
		t.Fatalf("compute genotype id: %v", err)
	}
	gt.ID = gtID

	bundle := NewBundle(Meta{GeneratedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC), Version: BundleVersion})
	bundle.Locations[locID] = loc
	bundle.Alleles[alleleID] = allele
	bundle.Haplotypes[hapID] = hap
	bundle.Genotypes[gtID] = gt
	bundle.Identifiers[alleleID] = []string{"dbSNP:rs429358"}
	return bundle
}

func TestBundleRoundTrip(t *testing.T) {
	bundle := fixtureBundle(t)
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	var back Bundle
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal bundle: %v", err)
	}
	if !bundle.Equal(back) {
		t.Fatalf("round trip lost structure:\n%s", raw)
	}
	// Re-serializing the parsed bundle must keep structural equality too.
	raw2, err := json.Marshal(back)
	if err != nil {
		t.Fatalf("re-marshal bundle: %v", err)
	}
	var again Bundle
	if err := json.Unmarshal(raw2, &again); err != nil {
		t.Fatalf("re-unmarshal bundle: %v", err)
	}
	if !back.Equal(again) {
		t.Fatalf("second round trip diverged")
	}
}

func TestBundleMarshalSortsIdentifierLists(t *testing.T) {
	bundle := NewBundle(Meta{GeneratedAt: time.Now(), Version: BundleVersion})
	bundle.Identifiers["VMC:GA_x"] = []string{"refseq:NC_000019.10", "dbSNP:rs7412"}
	raw, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Bundle
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := back.Identifiers["VMC:GA_x"]
	if len(got) != 2 || got[0] != "dbSNP:rs7412" || got[1] != "refseq:NC_000019.10" {
		t.Fatalf("expected sorted identifier list, got %v", got)
	}
	// Input list must not be reordered in place.
	if bundle.Identifiers["VMC:GA_x"][0] != "refseq:NC_000019.10" {
		t.Fatalf("marshal mutated caller's identifier list")
	}
}

func TestBundleEqualIgnoresListOrder(t *testing.T) {
	a := fixtureBundle(t)
	b := fixtureBundle(t)
	for id, h := range b.Haplotypes {
		ids := make([]string, len(h.AlleleIDs))
		copy(ids, h.AlleleIDs)
		for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
			ids[i], ids[j] = ids[j], ids[i]
		}
		h.AlleleIDs = ids
		b.Haplotypes[id] = h
	}
	if !a.Equal(b) {
		t.Fatalf("equality must ignore unordered-collection order")
	}
}

func TestBundleEqualDetectsDifferences(t *testing.T) {
	a := fixtureBundle(t)

	b := fixtureBundle(t)
	b.Meta.Version = "1"
	if a.Equal(b) {
		t.Fatalf("version difference not detected")
	}

	c := fixtureBundle(t)
	for id, allele := range c.Alleles {
		allele.State = "G"
		c.Alleles[id] = allele
	}
	if a.Equal(c) {
		t.Fatalf("allele state difference not detected")
	}

	d := fixtureBundle(t)
	d.Identifiers["VMC:GA_other"] = []string{"dbSNP:rs0"}
	if a.Equal(d) {
		t.Fatalf("identifier section difference not detected")
	}
}

func TestMetaMarshalsUTC(t *testing.T) {
	zone := time.FixedZone("UTC+7", 7*3600)
	meta := Meta{GeneratedAt: time.Date(2026, 8, 29, 19, 0, 0, 0, zone), Version: BundleVersion}
	raw, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal meta: %v", err)
	}
	var back Meta
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal meta: %v", err)
	}
	if !back.GeneratedAt.Equal(meta.GeneratedAt) {
		t.Fatalf("timestamp changed meaning across round trip: %v vs %v", back.GeneratedAt, meta.GeneratedAt)
	}
	if back.GeneratedAt.Location() != time.UTC {
		t.Fatalf("expected UTC rendering, got %v", back.GeneratedAt.Location())
	}
}
