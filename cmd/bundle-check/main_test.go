package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"varcore/pkg/vmc"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func buildBundle(t *testing.T) vmc.Bundle {
	t.Helper()
	loc := vmc.SequenceLocation{
		SequenceID: "refseq:NC_000019.10",
		Interval:   vmc.Interval{Start: 44908821, End: 44908822},
	}
	locID, err := vmc.ComputeID(loc)
	if err != nil {
		t.Fatalf("compute location id: %v", err)
	}
	loc.ID = locID

	allele := vmc.Allele{LocationID: locID, State: "T"}
	alleleID, err := vmc.ComputeID(allele)
	if err != nil {
		t.Fatalf("compute allele id: %v", err)
	}
	allele.ID = alleleID

	hap := vmc.Haplotype{AlleleIDs: []string{alleleID}, Completeness: vmc.CompletenessComplete}
	hapID, err := vmc.ComputeID(hap)
	if err != nil {
		t.Fatalf("compute haplotype id: %v", err)
	}
	hap.ID = hapID

	gt := vmc.Genotype{HaplotypeIDs: []string{hapID, hapID}, Completeness: vmc.CompletenessComplete}
	gtID, err := vmc.ComputeID(gt)
	if err != nil {
		t.Fatalf("compute genotype id: %v", err)
	}
	gt.ID = gtID

	bundle := vmc.NewBundle(vmc.Meta{
		GeneratedAt: time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC),
		Version:     vmc.BundleVersion,
	})
	bundle.Locations[locID] = loc
	bundle.Alleles[alleleID] = allele
	bundle.Haplotypes[hapID] = hap
	bundle.Genotypes[gtID] = gt
	bundle.Identifiers[alleleID] = []string{"dbSNP:rs429358"}
	return bundle
}

// writeBundleFile writes the fixture bundle to a relative path in the current
// directory, applying mutate to the decoded document first when non-nil.
func writeBundleFile(t *testing.T, name string, mutate func(doc map[string]any)) string {
	t.Helper()
	data, err := json.Marshal(buildBundle(t))
	if err != nil {
		t.Fatalf("marshal bundle: %v", err)
	}
	if mutate != nil {
		var doc map[string]any
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatalf("decode bundle: %v", err)
		}
		mutate(doc)
		if data, err = json.Marshal(doc); err != nil {
			t.Fatalf("encode mutated bundle: %v", err)
		}
	}
	if err := os.WriteFile(name, data, 0o600); err != nil {
		t.Fatalf("write bundle file: %v", err)
	}
	return name
}

func firstEntry(t *testing.T, doc map[string]any, section string) (string, map[string]any) {
	t.Helper()
	m := doc[section].(map[string]any)
	for key, raw := range m {
		return key, raw.(map[string]any)
	}
	t.Fatalf("section %q is empty", section)
	return "", nil
}

func TestCliSuccess(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", nil)
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-bundle", path}, &stdout, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Bundle validation passed.") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
}

func TestCliMissingFile(t *testing.T) {
	chdirTemp(t)
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-bundle", "does-not-exist.json"}, &stdout, &stderr); code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Bundle validation failed") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}

func TestCliRejectsUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-nope"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestRunRejectsSchemaFailure(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		delete(doc, "identifiers")
	})
	err := run(path)
	if err == nil || !strings.Contains(err.Error(), "identifiers") {
		t.Fatalf("expected schema failure naming identifiers, got %v", err)
	}
}

func TestRunRejectsRecordKeyMismatch(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		_, allele := firstEntry(t, doc, "alleles")
		allele["id"] = "VMC:GA_0000000000000000000000000000000"
	})
	err := run(path)
	if err == nil || !strings.Contains(err.Error(), "does not match key") {
		t.Fatalf("expected key mismatch error, got %v", err)
	}
}

func TestRunRejectsTamperedRecord(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		_, allele := firstEntry(t, doc, "alleles")
		allele["state"] = "G"
	})
	err := run(path)
	if err == nil || !strings.Contains(err.Error(), "content digest mismatch") {
		t.Fatalf("expected digest mismatch error, got %v", err)
	}
}

func TestRunRejectsDanglingLocationReference(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		doc["locations"] = map[string]any{}
	})
	err := run(path)
	if err == nil || !strings.Contains(err.Error(), "not in bundle") {
		t.Fatalf("expected dangling reference error, got %v", err)
	}
}

func TestRunRejectsUnknownIdentifierKey(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		ids := doc["identifiers"].(map[string]any)
		ids["VMC:GH_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"] = []any{"x:y"}
	})
	err := run(path)
	if err == nil || !strings.Contains(err.Error(), "no record with this identifier") {
		t.Fatalf("expected unknown identifier error, got %v", err)
	}
}

func TestRunAllowsSequenceDigestIdentifiers(t *testing.T) {
	chdirTemp(t)
	seq := vmc.SequenceIdentifier([]byte("ACGT"))
	path := writeBundleFile(t, "bundle.json", func(doc map[string]any) {
		ids := doc["identifiers"].(map[string]any)
		ids[seq.Namespace+":"+seq.Accession] = []any{"refseq:NC_000019.10"}
	})
	if err := run(path); err != nil {
		t.Fatalf("expected sequence digest identifier to pass, got %v", err)
	}
}

func TestRunRejectsUnsupportedVersion(t *testing.T) {
	chdirTemp(t)
	// Schema pins the version enum, so route around it via verifyBundle.
	bundle := buildBundle(t)
	bundle.Meta.Version = "1"
	err := verifyBundle(bundle)
	if err == nil || !strings.Contains(err.Error(), "unsupported bundle version") {
		t.Fatalf("expected version error, got %v", err)
	}
}

func TestValidatePath(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"empty", "  "},
		{"absolute", "/etc/bundle.json"},
		{"traversal", "../bundle.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := validatePath(tc.path); err == nil {
				t.Fatalf("expected %q to be rejected", tc.path)
			}
		})
	}
	if clean, err := validatePath("./bundle.json"); err != nil || clean != "bundle.json" {
		t.Fatalf("expected clean relative path, got %q (%v)", clean, err)
	}
}

// TestMainFunctionCoversSuccessAndFailure invokes main with patched exitFunc.
func TestMainFunctionCoversSuccessAndFailure(t *testing.T) {
	chdirTemp(t)
	path := writeBundleFile(t, "bundle.json", nil)
	var codes []int
	old := exitFunc
	exitFunc = func(code int) { codes = append(codes, code) }
	defer func() { exitFunc = old }()
	os.Args = []string{"bundle-check", "-bundle", path}
	main()
	os.Args = []string{"bundle-check", "-bundle", "does-not-exist.json"}
	main()
	if len(codes) != 2 {
		t.Fatalf("expected two exit codes, got %v", codes)
	}
	if codes[0] != 0 || codes[1] == 0 {
		t.Fatalf("unexpected exit codes: %v", codes)
	}
}
