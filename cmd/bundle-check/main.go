// Command bundle-check validates a serialized variation bundle against the
// embedded bundle schema and verifies its content-addressed structure.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"varcore/docs/schema"
	"varcore/pkg/vmc"
)

var exitFunc = os.Exit

// accessionRE matches a computed identifier CURIE: namespace, type code,
// 24-byte truncated digest in unpadded base64url.
var accessionRE = regexp.MustCompile(`^[^:]+:G[SLAHG]_[A-Za-z0-9_-]{32}$`)

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bundle-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var bundlePath string
	fs.StringVar(&bundlePath, "bundle", "bundle.json", "path to bundle json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(bundlePath); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Bundle validation failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	if _, writeErr := fmt.Fprintln(stdout, "Bundle validation passed."); writeErr != nil {
		return 1
	}
	return 0
}

// validatePath ensures the bundle file path is within the working tree and
// not an absolute or path-traversing reference. This mitigates G304 concerns
// around variable-based file inclusion.
func validatePath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("absolute paths not allowed: %s", p)
	}
	clean := filepath.Clean(p)
	if strings.Contains(clean, "..") { // prevents traversal outside working dir
		return "", fmt.Errorf("path traversal not allowed: %s", p)
	}
	return clean, nil
}

// run reads the bundle document, checks it against the embedded schema, and
// then verifies the content-addressed graph structure: every record's
// identifier matches its map key and recomputes from the record's content,
// and every cross-reference resolves within the bundle.
func run(bundlePath string) error {
	safePath, err := validatePath(bundlePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return fmt.Errorf("read bundle: %w", err)
	}

	if err := schema.ValidateBundleDocument(data); err != nil {
		return err
	}

	var bundle vmc.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("parse bundle: %w", err)
	}
	return verifyBundle(bundle)
}

func verifyBundle(bundle vmc.Bundle) error {
	if bundle.Meta.Version != vmc.BundleVersion {
		return fmt.Errorf("meta: unsupported bundle version %q", bundle.Meta.Version)
	}
	if err := verifyLocations(bundle); err != nil {
		return err
	}
	if err := verifyAlleles(bundle); err != nil {
		return err
	}
	if err := verifyHaplotypes(bundle); err != nil {
		return err
	}
	if err := verifyGenotypes(bundle); err != nil {
		return err
	}
	return verifyIdentifiers(bundle)
}

func verifyLocations(bundle vmc.Bundle) error {
	for key, loc := range bundle.Locations {
		if err := verifyRecordID("locations", key, loc.LocationID(), loc); err != nil {
			return err
		}
	}
	return nil
}

func verifyAlleles(bundle vmc.Bundle) error {
	for key, allele := range bundle.Alleles {
		if err := verifyRecordID("alleles", key, allele.ID, allele); err != nil {
			return err
		}
		if _, ok := bundle.Locations[allele.LocationID]; !ok {
			return fmt.Errorf("alleles[%s]: location %q not in bundle", key, allele.LocationID)
		}
	}
	return nil
}

func verifyHaplotypes(bundle vmc.Bundle) error {
	for key, hap := range bundle.Haplotypes {
		if err := verifyRecordID("haplotypes", key, hap.ID, hap); err != nil {
			return err
		}
		for _, alleleID := range hap.AlleleIDs {
			if _, ok := bundle.Alleles[alleleID]; !ok {
				return fmt.Errorf("haplotypes[%s]: allele %q not in bundle", key, alleleID)
			}
		}
	}
	return nil
}

func verifyGenotypes(bundle vmc.Bundle) error {
	for key, gt := range bundle.Genotypes {
		if err := verifyRecordID("genotypes", key, gt.ID, gt); err != nil {
			return err
		}
		for _, hapID := range gt.HaplotypeIDs {
			if _, ok := bundle.Haplotypes[hapID]; !ok {
				return fmt.Errorf("genotypes[%s]: haplotype %q not in bundle", key, hapID)
			}
		}
	}
	return nil
}

// verifyIdentifiers checks that every registry entry points at a record the
// bundle actually carries. Sequence digests (GS) have no entity section, so
// they only need to be well-formed.
func verifyIdentifiers(bundle vmc.Bundle) error {
	keys := make([]string, 0, len(bundle.Identifiers))
	for key := range bundle.Identifiers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !accessionRE.MatchString(key) {
			return fmt.Errorf("identifiers[%s]: malformed computed identifier", key)
		}
		if strings.Contains(key, ":GS_") {
			continue
		}
		_, hasLoc := bundle.Locations[key]
		_, hasAllele := bundle.Alleles[key]
		_, hasHap := bundle.Haplotypes[key]
		_, hasGt := bundle.Genotypes[key]
		if !hasLoc && !hasAllele && !hasHap && !hasGt {
			return fmt.Errorf("identifiers[%s]: no record with this identifier", key)
		}
		for _, external := range bundle.Identifiers[key] {
			if !strings.Contains(external, ":") {
				return fmt.Errorf("identifiers[%s]: malformed external identifier %q", key, external)
			}
		}
	}
	return nil
}

// verifyRecordID checks key/record agreement and recomputes the identifier
// from the record content so tampered payloads are caught. Canonical strings
// never include the identifier itself, so recomputation is safe on records
// that already carry one.
func verifyRecordID(section, key, recordID string, entity vmc.Entity) error {
	if recordID != key {
		return fmt.Errorf("%s[%s]: record id %q does not match key", section, key, recordID)
	}
	if !accessionRE.MatchString(key) {
		return fmt.Errorf("%s[%s]: malformed computed identifier", section, key)
	}
	computed, err := vmc.ComputeID(entity)
	if err != nil {
		return fmt.Errorf("%s[%s]: %w", section, key, err)
	}
	namespace := key[:strings.Index(key, ":")]
	expected := namespace + computed[strings.Index(computed, ":"):]
	if key != expected {
		return fmt.Errorf("%s[%s]: content digest mismatch, computed %s", section, key, expected)
	}
	return nil
}
