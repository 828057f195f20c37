package schema

import (
	"encoding/json"
	"testing"

	"varcore/pkg/vmc"
)

func TestBundleSchemaVersionMatchesBundleFormat(t *testing.T) {
	version, err := BundleSchemaVersion()
	if err != nil {
		t.Fatalf("expected embedded schema to parse, got %v", err)
	}
	if version != vmc.BundleVersion {
		t.Fatalf("expected schema version %q, got %q", vmc.BundleVersion, version)
	}
}

func TestBundleSchemaDocumentIsValidJSON(t *testing.T) {
	doc := BundleSchemaDocument()
	var decoded map[string]any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		t.Fatalf("expected embedded schema to decode, got %v", err)
	}
	for _, section := range []string{"meta", "locations", "alleles", "haplotypes", "genotypes", "identifiers"} {
		props := decoded["properties"].(map[string]any)
		if _, ok := props[section]; !ok {
			t.Fatalf("expected schema to declare section %q", section)
		}
	}
	// Returned bytes are a copy.
	doc[0] = 'x'
	if BundleSchemaDocument()[0] == 'x' {
		t.Fatal("expected BundleSchemaDocument to return an isolated copy")
	}
}
