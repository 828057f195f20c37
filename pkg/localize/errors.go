package localize

import "fmt"

// UnknownAssemblyError reports a localization request against an assembly
// that is not registered, or whose species does not match the location.
type UnknownAssemblyError struct {
	Assembly string
	Species  string
}

func (e UnknownAssemblyError) Error() string {
	if e.Species != "" {
		return fmt.Sprintf("assembly %s not registered for species %s", e.Assembly, e.Species)
	}
	return fmt.Sprintf("assembly %s not registered", e.Assembly)
}

// UnknownChromosomeError reports a chromosome with no band table or no
// sequence registered for the requested assembly.
type UnknownChromosomeError struct {
	Assembly   string
	Chromosome string
}

func (e UnknownChromosomeError) Error() string {
	return fmt.Sprintf("chromosome %s has no table for assembly %s", e.Chromosome, e.Assembly)
}

// BandNotFoundError reports a cytoband label absent from the band table of
// the requested assembly and chromosome.
type BandNotFoundError struct {
	Assembly   string
	Chromosome string
	Band       string
}

func (e BandNotFoundError) Error() string {
	return fmt.Sprintf("band %s not found on chromosome %s in assembly %s", e.Band, e.Chromosome, e.Assembly)
}
