// Command bundle-build assembles a variation bundle from a build manifest,
// persists the graph through the configured store, and archives the bundle
// document in the configured blob backend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"varcore/docs/schema"
	"varcore/internal/blob"
	"varcore/internal/core"
	"varcore/pkg/vmc"
)

var exitFunc = os.Exit

// manifest is the build input: entities named by local symbols, with child
// references by symbol. Symbols resolve to computed identifiers as the graph
// is assembled.
type manifest struct {
	Namespace   string               `json:"namespace,omitempty"`
	Locations   []manifestLocation   `json:"locations"`
	Alleles     []manifestAllele     `json:"alleles"`
	Haplotypes  []manifestHaplotype  `json:"haplotypes,omitempty"`
	Genotypes   []manifestGenotype   `json:"genotypes,omitempty"`
	Identifiers []manifestIdentifier `json:"identifiers,omitempty"`
}

type manifestLocation struct {
	Name     string        `json:"name"`
	Sequence string        `json:"sequence,omitempty"`
	Interval *vmc.Interval `json:"interval,omitempty"`

	Species    string                `json:"species,omitempty"`
	Chromosome string                `json:"chromosome,omitempty"`
	Bands      *vmc.CytobandInterval `json:"bands,omitempty"`
}

type manifestAllele struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	State    string `json:"state"`
}

type manifestHaplotype struct {
	Name         string   `json:"name"`
	Alleles      []string `json:"alleles"`
	Completeness string   `json:"completeness"`
}

type manifestGenotype struct {
	Name         string   `json:"name"`
	Haplotypes   []string `json:"haplotypes"`
	Completeness string   `json:"completeness"`
}

type manifestIdentifier struct {
	Name     string `json:"name"`
	External string `json:"external"`
}

// buildSummary is what a successful run prints.
type buildSummary struct {
	ArchiveKey  string `json:"archive_key"`
	Locations   int    `json:"locations"`
	Alleles     int    `json:"alleles"`
	Haplotypes  int    `json:"haplotypes"`
	Genotypes   int    `json:"genotypes"`
	Identifiers int    `json:"identifiers"`
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	// A missing .env is normal; local environment applies as-is.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("bundle-build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var manifestPath string
	var verbose bool
	fs.StringVar(&manifestPath, "manifest", "build.json", "path to build manifest json")
	fs.BoolVar(&verbose, "verbose", false, "log session operations")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := run(context.Background(), stdout, manifestPath, verbose); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "Bundle build failed: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

// validatePath ensures the manifest path is within the working tree and not
// an absolute or path-traversing reference. This mitigates G304 concerns
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

// run loads the manifest, assembles the graph through a session on the
// environment-selected store, checks the document at the schema boundary,
// and archives it in the environment-selected blob backend.
func run(ctx context.Context, stdout io.Writer, manifestPath string, verbose bool) (err error) {
	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}

	store, err := core.OpenGraphStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	opts := []core.Option{}
	if m.Namespace != "" {
		opts = append(opts, core.WithNamespace(m.Namespace))
	}
	if verbose {
		zl, zerr := zap.NewDevelopment()
		if zerr != nil {
			return fmt.Errorf("logger: %w", zerr)
		}
		defer func() { _ = zl.Sync() }()
		opts = append(opts, core.WithLogger(core.NewZapLogger(zl)))
	}
	session := core.NewSession(store, opts...)

	if err := assemble(ctx, session, m); err != nil {
		return err
	}
	bundle, err := session.Bundle(ctx)
	if err != nil {
		return fmt.Errorf("assemble bundle: %w", err)
	}
	document, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := schema.ValidateBundleDocument(document); err != nil {
		return err
	}

	archive, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	key, _, err := blob.ArchiveBundle(ctx, archive, bundle)
	if err != nil {
		return fmt.Errorf("archive bundle: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(buildSummary{
		ArchiveKey:  key,
		Locations:   len(bundle.Locations),
		Alleles:     len(bundle.Alleles),
		Haplotypes:  len(bundle.Haplotypes),
		Genotypes:   len(bundle.Genotypes),
		Identifiers: len(bundle.Identifiers),
	})
}

func loadManifest(path string) (manifest, error) {
	safePath, err := validatePath(path)
	if err != nil {
		return manifest{}, err
	}
	data, err := os.ReadFile(safePath) // #nosec G304: path validated by validatePath
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if len(m.Locations) == 0 {
		return manifest{}, fmt.Errorf("manifest declares no locations")
	}
	return m, nil
}

// assemble feeds the manifest through the session in dependency order,
// resolving each symbol to the computed identifier of the record it built.
func assemble(ctx context.Context, session *core.Session, m manifest) error {
	ids := make(map[string]string)

	bind := func(section, name, id string) error {
		if name == "" {
			return fmt.Errorf("%s: entry without a name", section)
		}
		if _, taken := ids[name]; taken {
			return fmt.Errorf("%s: symbol %q declared twice", section, name)
		}
		ids[name] = id
		return nil
	}
	resolve := func(section, name string) (string, error) {
		id, ok := ids[name]
		if !ok {
			return "", fmt.Errorf("%s: unknown symbol %q", section, name)
		}
		return id, nil
	}

	for _, ml := range m.Locations {
		var id string
		switch {
		case ml.Sequence != "":
			if ml.Interval == nil {
				return fmt.Errorf("locations: %q has no interval", ml.Name)
			}
			loc, err := session.AddSequenceLocation(ctx, ml.Sequence, *ml.Interval)
			if err != nil {
				return fmt.Errorf("locations: %q: %w", ml.Name, err)
			}
			id = loc.ID
		case ml.Species != "":
			if ml.Bands == nil {
				return fmt.Errorf("locations: %q has no bands", ml.Name)
			}
			loc, err := session.AddChromosomeLocation(ctx, ml.Species, ml.Chromosome, *ml.Bands)
			if err != nil {
				return fmt.Errorf("locations: %q: %w", ml.Name, err)
			}
			id = loc.ID
		default:
			return fmt.Errorf("locations: %q names neither a sequence nor a species", ml.Name)
		}
		if err := bind("locations", ml.Name, id); err != nil {
			return err
		}
	}

	for _, ma := range m.Alleles {
		locID, err := resolve("alleles", ma.Location)
		if err != nil {
			return err
		}
		allele, err := session.AddAllele(ctx, locID, ma.State)
		if err != nil {
			return fmt.Errorf("alleles: %q: %w", ma.Name, err)
		}
		if err := bind("alleles", ma.Name, allele.ID); err != nil {
			return err
		}
	}

	for _, mh := range m.Haplotypes {
		completeness, ok := vmc.CastToCompleteness(mh.Completeness)
		if !ok {
			return fmt.Errorf("haplotypes: %q: unknown completeness %q", mh.Name, mh.Completeness)
		}
		alleleIDs, err := resolveAll("haplotypes", mh.Alleles, resolve)
		if err != nil {
			return err
		}
		hap, err := session.AddHaplotype(ctx, completeness, alleleIDs...)
		if err != nil {
			return fmt.Errorf("haplotypes: %q: %w", mh.Name, err)
		}
		if err := bind("haplotypes", mh.Name, hap.ID); err != nil {
			return err
		}
	}

	for _, mg := range m.Genotypes {
		completeness, ok := vmc.CastToCompleteness(mg.Completeness)
		if !ok {
			return fmt.Errorf("genotypes: %q: unknown completeness %q", mg.Name, mg.Completeness)
		}
		haplotypeIDs, err := resolveAll("genotypes", mg.Haplotypes, resolve)
		if err != nil {
			return err
		}
		gt, err := session.AddGenotype(ctx, completeness, haplotypeIDs...)
		if err != nil {
			return fmt.Errorf("genotypes: %q: %w", mg.Name, err)
		}
		if err := bind("genotypes", mg.Name, gt.ID); err != nil {
			return err
		}
	}

	for _, mi := range m.Identifiers {
		id, err := resolve("identifiers", mi.Name)
		if err != nil {
			return err
		}
		external, err := vmc.ParseIdentifier(mi.External)
		if err != nil {
			return fmt.Errorf("identifiers: %q: %w", mi.Name, err)
		}
		if err := session.RegisterExternal(ctx, id, external); err != nil {
			return fmt.Errorf("identifiers: %q: %w", mi.Name, err)
		}
	}

	return nil
}

func resolveAll(section string, names []string, resolve func(string, string) (string, error)) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		id, err := resolve(section, name)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
