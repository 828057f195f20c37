// Package core hosts the build-session service that assembles a
// content-addressed variation graph on top of a persistent store.
package core

import "varcore/pkg/vmc"

// Aliases re-export the graph vocabulary so session callers only need this
// package for the common path.
type (
	Completeness       = vmc.Completeness
	Interval           = vmc.Interval
	CytobandInterval   = vmc.CytobandInterval
	Location           = vmc.Location
	SequenceLocation   = vmc.SequenceLocation
	ChromosomeLocation = vmc.ChromosomeLocation
	Allele             = vmc.Allele
	Haplotype          = vmc.Haplotype
	Genotype           = vmc.Genotype
	Identifier         = vmc.Identifier
	Meta               = vmc.Meta
	Bundle             = vmc.Bundle
	GraphStore         = vmc.GraphStore
	GraphSnapshot      = vmc.GraphSnapshot
)

// Completeness values re-exported for session callers.
const (
	CompletenessUnknown  = vmc.CompletenessUnknown
	CompletenessPartial  = vmc.CompletenessPartial
	CompletenessComplete = vmc.CompletenessComplete
)
