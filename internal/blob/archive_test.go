package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"varcore/pkg/vmc"
)

func archiveFixture(t *testing.T) vmc.Bundle {
	t.Helper()
	loc := vmc.SequenceLocation{
		SequenceID: "refseq:NC_000019.10",
		Interval:   vmc.Interval{Start: 44908821, End: 44908822},
	}
	locID, err := vmc.ComputeID(loc)
	if err != nil {
		t.Fatalf("ComputeID: %v", err)
	}
	loc.ID = locID
	allele := vmc.Allele{LocationID: locID, State: "T"}
	alleleID, err := vmc.ComputeID(allele)
	if err != nil {
		t.Fatalf("ComputeID: %v", err)
	}
	allele.ID = alleleID

	bundle := vmc.NewBundle(vmc.Meta{
		GeneratedAt: time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC),
		Version:     vmc.BundleVersion,
	})
	bundle.Locations[locID] = loc
	bundle.Alleles[alleleID] = allele
	bundle.Identifiers[alleleID] = []string{"dbSNP:rs429358"}
	return bundle
}

func TestArchiveBundleRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	bundle := archiveFixture(t)

	key, info, err := ArchiveBundle(ctx, store, bundle)
	if err != nil {
		t.Fatalf("ArchiveBundle: %v", err)
	}
	if !IsArchiveKey(key) {
		t.Fatalf("unexpected archive key: %s", key)
	}
	if info.Size == 0 {
		t.Fatalf("expected nonzero archived size")
	}

	fetched, err := FetchBundle(ctx, store, key)
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}
	if !fetched.Equal(bundle) {
		t.Fatalf("fetched bundle differs from archived bundle")
	}
}

func TestArchiveBundleIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	bundle := archiveFixture(t)

	key1, _, err := ArchiveBundle(ctx, store, bundle)
	if err != nil {
		t.Fatalf("first ArchiveBundle: %v", err)
	}
	key2, info, err := ArchiveBundle(ctx, store, bundle)
	if err != nil {
		t.Fatalf("second ArchiveBundle: %v", err)
	}
	if key1 != key2 {
		t.Fatalf("expected identical keys, got %s and %s", key1, key2)
	}
	if info.Size == 0 {
		t.Fatalf("expected info from existing object")
	}
	archives, err := ListArchives(ctx, store)
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(archives) != 1 {
		t.Fatalf("expected one archived document, got %d", len(archives))
	}
}

func TestFetchBundleDetectsDigestMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	bundle := archiveFixture(t)

	document, err := json.Marshal(bundle)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Store the document under a key derived from different content.
	wrongKey := ArchiveKey([]byte("other content"))
	if _, err := store.Put(ctx, wrongKey, bytes.NewReader(document), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	_, err = FetchBundle(ctx, store, wrongKey)
	if err == nil || !strings.Contains(err.Error(), "digest mismatch") {
		t.Fatalf("expected digest mismatch, got %v", err)
	}
}

func TestFetchBundleUnknownKey(t *testing.T) {
	store := NewMemory()
	if _, err := FetchBundle(context.Background(), store, ArchivePrefix+"missing.json"); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestArchiveBundleOnMockS3(t *testing.T) {
	ctx := context.Background()
	store := NewMockS3ForTests()
	bundle := archiveFixture(t)

	key, _, err := ArchiveBundle(ctx, store, bundle)
	if err != nil {
		t.Fatalf("ArchiveBundle: %v", err)
	}
	fetched, err := FetchBundle(ctx, store, key)
	if err != nil {
		t.Fatalf("FetchBundle: %v", err)
	}
	if !fetched.Equal(bundle) {
		t.Fatalf("fetched bundle differs from archived bundle")
	}
}

func TestIsArchiveKey(t *testing.T) {
	cases := map[string]bool{
		"bundles/abc.json": true,
		"bundles/abc.txt":  false,
		"other/abc.json":   false,
	}
	for key, want := range cases {
		if got := IsArchiveKey(key); got != want {
			t.Fatalf("IsArchiveKey(%q) = %v, want %v", key, got, want)
		}
	}
}
