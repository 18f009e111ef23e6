// Package contact computes the residue pair graph of a structure: every pair
// of residues whose backbone points are within a distance cutoff, together
// with the descriptor of the pair's geometry.
package contact

import (
	"fmt"
	"math"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/descriptor"
	"github.com/TuftsBCB/motif/grid"
)

// DefaultCutoff is the default maximum distance, in Angstroms, between the
// backbone points of two residues in contact.
const DefaultCutoff = 20.0

// Points of residues from different operators closer than this are
// considered to be duplicate placements of the same residue.
const overlayTolerance = 1e-3

// OperatorPolicy controls which residues produced by symmetry operators may
// take part in a contact.
type OperatorPolicy int

const (
	// IdentityOnly only considers residues of the identity operator.
	IdentityOnly OperatorPolicy = iota

	// WithIdentity considers pairs in which at least one residue belongs to
	// the identity operator, and pairs of residues from the same copy.
	// Pairs between two different transformed copies are left out.
	WithIdentity

	// Any considers every pair of residues regardless of their operators.
	Any
)

func (p OperatorPolicy) String() string {
	switch p {
	case IdentityOnly:
		return "identity-only"
	case WithIdentity:
		return "with-identity"
	case Any:
		return "any"
	}
	panic(fmt.Sprintf("Unknown operator policy: %d", p))
}

// Admits returns whether a pair of residues may be in contact under the
// policy.
func (p OperatorPolicy) Admits(a, b *motif.Residue) bool {
	switch p {
	case IdentityOnly:
		return a.IsIdentity() && b.IsIdentity()
	case WithIdentity:
		return a.IsIdentity() || b.IsIdentity() || a.Operator == b.Operator
	}
	return true
}

// ParsePolicy returns the operator policy with the name given, as returned
// by OperatorPolicy.String.
func ParsePolicy(name string) (OperatorPolicy, error) {
	for _, p := range []OperatorPolicy{IdentityOnly, WithIdentity, Any} {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("Unknown operator policy '%s'.", name)
}

// Options control how a residue graph is built.
type Options struct {
	Cutoff    float64
	Operators OperatorPolicy

	// When non-empty, only the residues at these indices are considered.
	Selection []int
}

// Default is the set of options used to build the residue graph of an
// indexed structure.
var Default = Options{
	Cutoff:    DefaultCutoff,
	Operators: IdentityOnly,
}

// Occurrence is a residue pair in contact. I and J are indices into the
// residues the graph was built from. The descriptor is canonical (its flip bit
// is never set) and I is always the residue holding the first residue type of
// the descriptor.
type Occurrence struct {
	Descriptor descriptor.Descriptor
	I, J       int
}

func (o Occurrence) String() string {
	return fmt.Sprintf("(%d, %d) %s", o.I, o.J, o.Descriptor)
}

// Stats records what happened while building a residue graph.
type Stats struct {
	// Residues lacking a backbone or side-chain point.
	Skipped int

	// Pairs within the cutoff, before operator filtering.
	Pairs int

	// Pairs of residues from different operators whose representative
	// points coincide.
	Rejected int
}

// Build returns the residue pair graph of the residues given.
func Build(residues []*motif.Residue, opts Options) []Occurrence {
	occs, _ := BuildStats(residues, opts)
	return occs
}

// BuildStats is like Build, but also reports statistics.
func BuildStats(
	residues []*motif.Residue,
	opts Options,
) ([]Occurrence, Stats) {
	var stats Stats

	candidates := opts.Selection
	if len(candidates) == 0 {
		candidates = make([]int, len(residues))
		for i := range residues {
			candidates[i] = i
		}
	}

	points := make([]*structure.Coords, len(candidates))
	for k, ri := range candidates {
		r := residues[ri]
		if r.Backbone == nil || r.SideChain == nil {
			stats.Skipped++
			continue
		}
		if opts.Operators == IdentityOnly && !r.IsIdentity() {
			continue
		}
		points[k] = r.Backbone
	}

	pairs := grid.Pairs(points, opts.Cutoff*opts.Cutoff)
	stats.Pairs = len(pairs)

	occs := make([]Occurrence, 0, len(pairs))
	for _, p := range pairs {
		i, j := candidates[p.I], candidates[p.J]
		a, b := residues[i], residues[j]
		if !opts.Operators.Admits(a, b) {
			continue
		}
		if a.Operator != b.Operator && overlaid(a, b) {
			stats.Rejected++
			continue
		}

		d := Describe(a, b)
		if d.Flipped() {
			i, j = j, i
		}
		occs = append(occs, Occurrence{Descriptor: d.Key(), I: i, J: j})
	}
	return occs, stats
}

// Describe returns the descriptor of the residue pair (a, b). Both residues
// must have backbone and side-chain points.
func Describe(a, b *motif.Residue) descriptor.Descriptor {
	bb, sc, angle := Geometry(a, b)
	return descriptor.Encode(a.Type, b.Type,
		descriptor.DistanceBin(bb),
		descriptor.DistanceBin(sc),
		descriptor.AngleBin(angle))
}

// Geometry returns the backbone distance, side-chain distance and the angle
// in degrees between the backbone to side-chain vectors of two residues.
func Geometry(a, b *motif.Residue) (backbone, sideChain, angle float64) {
	backbone = dist(*a.Backbone, *b.Backbone)
	sideChain = dist(*a.SideChain, *b.SideChain)

	v1 := sub(*a.SideChain, *a.Backbone)
	v2 := sub(*b.SideChain, *b.Backbone)
	n1, n2 := norm(v1), norm(v2)
	if n1 == 0 || n2 == 0 {
		return backbone, sideChain, 0
	}
	cos := (v1.X*v2.X + v1.Y*v2.Y + v1.Z*v2.Z) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	angle = math.Acos(cos) * 180 / math.Pi
	return
}

// overlaid reports whether both representative points of a and b coincide.
func overlaid(a, b *motif.Residue) bool {
	return dist(*a.Backbone, *b.Backbone) < overlayTolerance &&
		dist(*a.SideChain, *b.SideChain) < overlayTolerance
}

func sub(a, b structure.Coords) structure.Coords {
	return structure.Coords{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func norm(v structure.Coords) float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func dist(a, b structure.Coords) float64 {
	return norm(sub(a, b))
}
