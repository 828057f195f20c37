// Package localize resolves feature-based (cytoband) locations into concrete
// sequence coordinates for named reference assemblies.
package localize

import (
	"fmt"
	"io"

	"varcore/pkg/vmc"
)

// Assembly describes one named reference-genome build: its species and the
// reference sequences registered per chromosome. A chromosome usually maps
// to exactly one sequence; alternate loci yield additional candidates.
type Assembly struct {
	Name      string              `yaml:"name"`
	SpeciesID string              `yaml:"species"`
	Sequences map[string][]string `yaml:"sequences"`
}

// Localizer translates chromosome-based locations into sequence-based
// locations using per-assembly band tables. All registration must happen
// before concurrent use; after initialization the localizer is read-only and
// safe for unlimited concurrent readers without locking.
type Localizer struct {
	assemblies map[string]Assembly
	// bands: assembly -> chromosome -> label -> band span.
	bands map[string]map[string]map[string]Band
}

// New returns a localizer with no assemblies registered.
func New() *Localizer {
	return &Localizer{
		assemblies: make(map[string]Assembly),
		bands:      make(map[string]map[string]map[string]Band),
	}
}

// NewWithBuiltinAssemblies returns a localizer preloaded with the embedded
// assembly manifests (GRCh37 and GRCh38). Band tables must still be loaded
// by the caller; their acquisition is outside this package.
func NewWithBuiltinAssemblies() (*Localizer, error) {
	l := New()
	assemblies, err := BuiltinAssemblies()
	if err != nil {
		return nil, err
	}
	for _, a := range assemblies {
		if err := l.RegisterAssembly(a); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// RegisterAssembly adds an assembly manifest. Re-registering a name replaces
// the previous manifest but keeps any loaded band tables.
func (l *Localizer) RegisterAssembly(a Assembly) error {
	if a.Name == "" {
		return fmt.Errorf("register assembly: empty name")
	}
	if a.SpeciesID == "" {
		return fmt.Errorf("register assembly %s: empty species", a.Name)
	}
	if len(a.Sequences) == 0 {
		return fmt.Errorf("register assembly %s: no sequences", a.Name)
	}
	l.assemblies[a.Name] = a
	return nil
}

// Assemblies returns the registered assembly names.
func (l *Localizer) Assemblies() []string {
	names := make([]string, 0, len(l.assemblies))
	for name := range l.assemblies {
		names = append(names, name)
	}
	return names
}

// AddBandTable installs the band rows for one chromosome of an assembly.
// The assembly must have been registered first.
func (l *Localizer) AddBandTable(assembly, chromosome string, bands []Band) error {
	if _, ok := l.assemblies[assembly]; !ok {
		return UnknownAssemblyError{Assembly: assembly}
	}
	byChromosome, ok := l.bands[assembly]
	if !ok {
		byChromosome = make(map[string]map[string]Band)
		l.bands[assembly] = byChromosome
	}
	byLabel := make(map[string]Band, len(bands))
	for _, band := range bands {
		byLabel[band.Label] = band
	}
	byChromosome[chromosome] = byLabel
	return nil
}

// AddUCSCTable parses a UCSC cytoBand document and installs every chromosome
// it covers for the given assembly.
func (l *Localizer) AddUCSCTable(assembly string, r io.Reader) error {
	tables, err := ParseUCSC(r)
	if err != nil {
		return err
	}
	for chromosome, bands := range tables {
		if err := l.AddBandTable(assembly, chromosome, bands); err != nil {
			return err
		}
	}
	return nil
}

// LoadUCSCFile loads a UCSC cytoBand file for the given assembly.
func (l *Localizer) LoadUCSCFile(assembly, path string) error {
	tables, err := LoadUCSC(path)
	if err != nil {
		return err
	}
	for chromosome, bands := range tables {
		if err := l.AddBandTable(assembly, chromosome, bands); err != nil {
			return err
		}
	}
	return nil
}

// Localize resolves a chromosome-based location into zero or more
// sequence-based locations for the named assembly. Both band labels resolve
// independently against the table; the result interval spans from the lowest
// resolved start to the highest resolved end, so a reversed band supply
// still yields a well-formed interval. One candidate is returned per
// sequence registered for the assembly and chromosome.
//
// Localize computes no identifiers; pass the results through the vmc
// identifier pipeline if identifiers are required.
func (l *Localizer) Localize(loc vmc.ChromosomeLocation, assembly string) ([]vmc.SequenceLocation, error) {
	a, ok := l.assemblies[assembly]
	if !ok {
		return nil, UnknownAssemblyError{Assembly: assembly}
	}
	if loc.SpeciesID != a.SpeciesID {
		return nil, UnknownAssemblyError{Assembly: assembly, Species: loc.SpeciesID}
	}
	byLabel, ok := l.bands[assembly][loc.Chromosome]
	if !ok {
		return nil, UnknownChromosomeError{Assembly: assembly, Chromosome: loc.Chromosome}
	}
	startBand, ok := byLabel[loc.Interval.Start]
	if !ok {
		return nil, BandNotFoundError{Assembly: assembly, Chromosome: loc.Chromosome, Band: loc.Interval.Start}
	}
	endBand, ok := byLabel[loc.Interval.End]
	if !ok {
		return nil, BandNotFoundError{Assembly: assembly, Chromosome: loc.Chromosome, Band: loc.Interval.End}
	}
	interval := vmc.Interval{
		Start: min(startBand.Start, endBand.Start),
		End:   max(startBand.End, endBand.End),
	}
	sequences := a.Sequences[loc.Chromosome]
	if len(sequences) == 0 {
		return nil, UnknownChromosomeError{Assembly: assembly, Chromosome: loc.Chromosome}
	}
	out := make([]vmc.SequenceLocation, 0, len(sequences))
	for _, sequenceID := range sequences {
		out = append(out, vmc.SequenceLocation{SequenceID: sequenceID, Interval: interval})
	}
	return out, nil
}
