// Command localize resolves a cytogenetic band range against UCSC cytoBand
// tables and prints the resulting sequence locations as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"varcore/pkg/localize"
	"varcore/pkg/vmc"
)

var exitFunc = os.Exit

// Config carries the environment-supplied settings. Flags override both.
type Config struct {
	CytobandDir string `envconfig:"VARCORE_CYTOBAND_DIR"`
	Assemblies  string `envconfig:"VARCORE_ASSEMBLIES"`
}

// locationReport is one resolved candidate with its computed identifier.
type locationReport struct {
	ID         string       `json:"id"`
	SequenceID string       `json:"sequence_id"`
	Interval   vmc.Interval `json:"interval"`
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	// A missing .env is normal; local environment applies as-is.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		fmt.Fprintf(stderr, "localize: config: %v\n", err)
		return 2
	}

	fs := flag.NewFlagSet("localize", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		assembly    string
		chromosome  string
		bands       string
		cytobandDir string
	)
	fs.StringVar(&assembly, "assembly", "GRCh38", "assembly name")
	fs.StringVar(&chromosome, "chromosome", "", "chromosome name, without chr prefix")
	fs.StringVar(&bands, "bands", "", "band or band range, e.g. q22.2 or q22.2:q22.3")
	fs.StringVar(&cytobandDir, "cytoband-dir", "", "directory of <assembly>.txt cytoBand tables")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if cytobandDir == "" {
		cytobandDir = cfg.CytobandDir
	}

	if err := run(stdout, cfg, assembly, chromosome, bands, cytobandDir); err != nil {
		if _, writeErr := fmt.Fprintf(stderr, "localize: %v\n", err); writeErr != nil {
			return 1
		}
		return 1
	}
	return 0
}

func run(stdout io.Writer, cfg Config, assembly, chromosome, bands, cytobandDir string) error {
	if chromosome == "" {
		return fmt.Errorf("missing -chromosome")
	}
	interval, err := parseBands(bands)
	if err != nil {
		return err
	}
	if cytobandDir == "" {
		return fmt.Errorf("missing band table directory: set -cytoband-dir or VARCORE_CYTOBAND_DIR")
	}

	localizer, err := localize.NewWithBuiltinAssemblies()
	if err != nil {
		return fmt.Errorf("load assemblies: %w", err)
	}
	speciesID, err := assemblySpecies(assembly)
	if err != nil {
		return err
	}
	for _, name := range tableAssemblies(cfg, assembly) {
		path := filepath.Join(cytobandDir, name+".txt")
		if err := localizer.LoadUCSCFile(name, path); err != nil {
			return err
		}
	}

	loc := vmc.ChromosomeLocation{
		SpeciesID:  speciesID,
		Chromosome: chromosome,
		Interval:   interval,
	}
	resolved, err := localizer.Localize(loc, assembly)
	if err != nil {
		return err
	}

	reports := make([]locationReport, 0, len(resolved))
	for _, seqLoc := range resolved {
		id, err := vmc.ComputeID(seqLoc)
		if err != nil {
			return fmt.Errorf("identify %s: %w", seqLoc.SequenceID, err)
		}
		reports = append(reports, locationReport{
			ID:         id,
			SequenceID: seqLoc.SequenceID,
			Interval:   seqLoc.Interval,
		})
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// parseBands splits a band argument into a cytoband interval. A single band
// names a span of itself.
func parseBands(bands string) (vmc.CytobandInterval, error) {
	trimmed := strings.TrimSpace(bands)
	if trimmed == "" {
		return vmc.CytobandInterval{}, fmt.Errorf("missing -bands")
	}
	parts := strings.Split(trimmed, ":")
	switch len(parts) {
	case 1:
		return vmc.CytobandInterval{Start: parts[0], End: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return vmc.CytobandInterval{}, fmt.Errorf("malformed band range %q", bands)
		}
		return vmc.CytobandInterval{Start: parts[0], End: parts[1]}, nil
	default:
		return vmc.CytobandInterval{}, fmt.Errorf("malformed band range %q", bands)
	}
}

// assemblySpecies resolves the species identifier declared for an assembly in
// the embedded manifest.
func assemblySpecies(assembly string) (string, error) {
	assemblies, err := localize.BuiltinAssemblies()
	if err != nil {
		return "", fmt.Errorf("load assemblies: %w", err)
	}
	for _, a := range assemblies {
		if a.Name == assembly {
			return a.SpeciesID, nil
		}
	}
	return "", localize.UnknownAssemblyError{Assembly: assembly}
}

// tableAssemblies lists the assemblies whose band tables should be loaded:
// the requested one plus any named in VARCORE_ASSEMBLIES.
func tableAssemblies(cfg Config, assembly string) []string {
	names := []string{assembly}
	seen := map[string]bool{assembly: true}
	for _, name := range strings.Split(cfg.Assemblies, ",") {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
