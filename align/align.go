// Package align computes optimal rigid superpositions of residues.
//
// Atoms of the two residue lists are paired by name, residue by residue,
// according to a Scheme. The superposition minimizing the RMSD of the paired
// atoms is found with Horn's quaternion method and reported along with the
// homogeneous transformation mapping the reference onto the candidate.
package align

import (
	"fmt"
	"strings"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
)

// Scheme selects which atoms of a residue take part in an alignment.
type Scheme int

const (
	AllAtoms Scheme = iota
	Backbone
	AlphaCarbon
	SideChain
)

var schemeNames = map[Scheme]string{
	AllAtoms:    "all",
	Backbone:    "backbone",
	AlphaCarbon: "alpha-carbon",
	SideChain:   "side-chain",
}

func (s Scheme) String() string {
	if name, ok := schemeNames[s]; ok {
		return name
	}
	panic(fmt.Sprintf("Unknown alignment scheme: %d", s))
}

// ParseScheme is the inverse of Scheme.String.
func ParseScheme(name string) (Scheme, error) {
	for s, n := range schemeNames {
		if n == strings.ToLower(name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("Unrecognized alignment scheme '%s'.", name)
}

func (s Scheme) includesSideChain() bool {
	return s == AllAtoms || s == SideChain
}

var aminoBackbone = set("N", "CA", "C", "O")

var nucleotideBackbone = set(
	"P", "OP1", "OP2", "OP3", "O5'", "C5'", "C4'", "O4'", "C3'", "O3'",
	"C2'", "O2'", "C1'")

// ambiguous holds, per residue type, side-chain atoms whose names are
// arbitrary because of the symmetry of the side chain.
var ambiguous = map[motif.ResidueType]map[string]bool{
	motif.Asp: set("OD1", "OD2"),
	motif.Glu: set("OE1", "OE2"),
	motif.Phe: set("CD1", "CD2", "CE1", "CE2"),
	motif.Tyr: set("CD1", "CD2", "CE1", "CE2"),
	motif.Arg: set("NH1", "NH2"),
	motif.Leu: set("CD1", "CD2"),
	motif.Val: set("CG1", "CG2"),
}

func set(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}

func (s Scheme) accepts(t motif.ResidueType, name string) bool {
	cat := t.Category()
	var isBackbone bool
	if cat == motif.Nucleotide {
		isBackbone = nucleotideBackbone[name]
	} else {
		isBackbone = aminoBackbone[name]
	}
	switch s {
	case AlphaCarbon:
		return name == cat.BackboneAtom()
	case Backbone:
		return isBackbone
	case SideChain:
		return !isBackbone
	}
	return true
}

// Pair returns the coordinates of the atoms of ref and cand that are aligned
// under the scheme given. The i'th residue of ref is paired with the i'th
// residue of cand, and within a residue atoms are paired by name.
//
// If no atoms can be paired, an InvalidQueryError is returned.
func Pair(
	ref, cand []*motif.Residue,
	scheme Scheme,
) ([]structure.Coords, []structure.Coords, error) {
	if len(ref) != len(cand) {
		return nil, nil, fmt.Errorf("Cannot pair %d residues with %d residues.",
			len(ref), len(cand))
	}

	var a, b []structure.Coords
	for i := range ref {
		r, c := ref[i], cand[i]
		for _, atom := range r.Atoms {
			if !scheme.accepts(r.Type, atom.Name) {
				continue
			}
			if scheme.includesSideChain() &&
				(ambiguous[r.Type][atom.Name] || ambiguous[c.Type][atom.Name]) {
				continue
			}
			if other, ok := c.Atom(atom.Name); ok {
				a = append(a, atom.Coords)
				b = append(b, other)
			}
		}
	}
	if len(a) == 0 {
		return nil, nil, motif.Invalidf(
			"No atoms could be paired with the %s alignment scheme.", scheme)
	}
	return a, b, nil
}

// Result is the outcome of a superposition.
type Result struct {
	RMSD float64

	// Transform maps the reference onto the candidate.
	Transform motif.Transform
}

// Align pairs the atoms of ref and cand and superimposes them.
func Align(ref, cand []*motif.Residue, scheme Scheme) (Result, error) {
	a, b, err := Pair(ref, cand, scheme)
	if err != nil {
		return Result{}, err
	}
	return Superpose(a, b)
}
