package search

import (
	"runtime"
	"time"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/align"
	"github.com/TuftsBCB/motif/descriptor"
)

// Options control a single query.
type Options struct {
	// The number of bins by which the descriptors of a target may deviate
	// from the descriptors of the query.
	BackboneTolerance  int
	SideChainTolerance int
	AngleTolerance     int

	// The atoms used to superimpose a candidate onto the query, and the
	// largest RMSD of an accepted hit.
	Scheme     align.Scheme
	RMSDCutoff float64

	// The maximum number of hits. A negative limit means no limit.
	Limit int

	// When Allowed is not empty, only structures in it are searched.
	// Structures in Ignored are never searched. Unknown identifiers are
	// ignored.
	Allowed []string
	Ignored []string

	// When not empty, only structures with one of these content types are
	// searched.
	Content []motif.ContentType

	// Exchanges maps the position of a query residue to the residue types
	// that may be matched in its place, in addition to its own type.
	Exchanges map[int][]motif.ResidueType

	// The number of goroutines used by the query. Values below 1 use one.
	Threads int

	// When positive, the query fails with a *motif.TimeoutError if it does
	// not finish in time.
	Timeout time.Duration

	// When set, statistics about each generation are logged.
	Verbose bool
}

// SearchDefault is a sensible set of options for searching a motif in an
// archive of experimental and computational structures.
var SearchDefault = Options{
	BackboneTolerance:  1,
	SideChainTolerance: 1,
	AngleTolerance:     1,
	Scheme:             align.AllAtoms,
	RMSDCutoff:         2.0,
	Limit:              -1,
	Threads:            runtime.NumCPU(),
	Timeout:            0,
	Verbose:            false,
}

// SearchClose only reports the best hits that are very close to the query.
var SearchClose = Options{
	BackboneTolerance:  1,
	SideChainTolerance: 1,
	AngleTolerance:     1,
	Scheme:             align.AllAtoms,
	RMSDCutoff:         0.5,
	Limit:              25,
	Threads:            runtime.NumCPU(),
	Timeout:            0,
	Verbose:            false,
}

func (opts Options) tolerance() descriptor.Tolerance {
	return descriptor.Tolerance{
		Backbone:  opts.BackboneTolerance,
		SideChain: opts.SideChainTolerance,
		Angle:     opts.AngleTolerance,
	}
}

func (opts Options) threads() int {
	if opts.Threads < 1 {
		return 1
	}
	return opts.Threads
}
