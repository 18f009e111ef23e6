// Package fixture builds synthetic residues and structures for tests.
// Geometry is only loosely based on real residues: what matters is that every
// residue has well defined, distinct atom positions.
package fixture

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
)

// Backbone atoms in a local frame with the alpha-carbon at the origin.
var backbone = []motif.Atom{
	{Name: "N", Coords: structure.Coords{X: -0.53, Y: 1.36, Z: 0}},
	{Name: "CA", Coords: structure.Coords{X: 0, Y: 0, Z: 0}},
	{Name: "C", Coords: structure.Coords{X: 1.52, Y: 0, Z: 0}},
	{Name: "O", Coords: structure.Coords{X: 2.15, Y: -1.06, Z: 0}},
}

var beta = motif.Atom{
	Name:   "CB",
	Coords: structure.Coords{X: -0.53, Y: -0.77, Z: 1.21},
}

var sideChains = map[motif.ResidueType][]string{
	motif.Lys: {"CG", "CD", "CE", "NZ"},
	motif.Asp: {"CG", "OD1", "OD2"},
	motif.Glu: {"CG", "CD", "OE1", "OE2"},
	motif.His: {"CG", "ND1", "CD2", "CE1", "NE2"},
	motif.Ser: {"OG"},
	motif.Leu: {"CG", "CD1", "CD2"},
	motif.Phe: {"CG", "CD1", "CD2", "CE1", "CE2", "CZ"},
}

// Atoms returns the atoms of a residue of type t in its local frame.
func Atoms(t motif.ResidueType) []motif.Atom {
	atoms := append([]motif.Atom{}, backbone...)
	if t == motif.Gly {
		return atoms
	}
	atoms = append(atoms, beta)
	for k, name := range sideChains[t] {
		step := float64(k + 1)
		lateral := 0.6
		if k%2 == 1 {
			lateral = -0.6
		}
		atoms = append(atoms, motif.Atom{
			Name: name,
			Coords: structure.Coords{
				X: beta.X - 0.4*step + lateral,
				Y: beta.Y - 0.9*step,
				Z: beta.Z + 1.0*step,
			},
		})
	}
	return atoms
}

// Residue returns a residue of type t whose local frame is placed by m.
func Residue(
	t motif.ResidueType,
	chain string,
	seqNum int,
	m motif.Transform,
) *motif.Residue {
	atoms := Atoms(t)
	for i := range atoms {
		atoms[i].Coords = m.Apply(atoms[i].Coords)
	}
	id := motif.ResidueIdentifier{Type: t, Chain: chain, SeqNum: seqNum}
	return motif.NewResidue(id, atoms)
}

// Rotation returns a uniformly random rotation.
func Rotation(rng *rand.Rand) motif.Transform {
	q0, q1, q2, q3 := rng.NormFloat64(), rng.NormFloat64(),
		rng.NormFloat64(), rng.NormFloat64()
	n := math.Sqrt(q0*q0 + q1*q1 + q2*q2 + q3*q3)
	q0, q1, q2, q3 = q0/n, q1/n, q2/n, q3/n
	return motif.Transform{
		{q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 - q0*q3), 2 * (q1*q3 + q0*q2), 0},
		{2 * (q1*q2 + q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 - q0*q1), 0},
		{2 * (q1*q3 - q0*q2), 2 * (q2*q3 + q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3, 0},
		{0, 0, 0, 1},
	}
}

// Place returns a random rotation followed by a translation to at.
func Place(rng *rand.Rand, at structure.Coords) motif.Transform {
	m := Rotation(rng)
	m[0][3], m[1][3], m[2][3] = at.X, at.Y, at.Z
	return m
}

// Rigid returns a random rotation followed by a random translation of at
// most shift along each axis.
func Rigid(rng *rand.Rand, shift float64) motif.Transform {
	return Place(rng, structure.Coords{
		X: (rng.Float64()*2 - 1) * shift,
		Y: (rng.Float64()*2 - 1) * shift,
		Z: (rng.Float64()*2 - 1) * shift,
	})
}

// MotifTypes are the residue types of the motif built by Motif.
var MotifTypes = []motif.ResidueType{
	motif.Lys, motif.Asp, motif.Glu, motif.Glu, motif.His,
}

// motifPositions are the alpha-carbon positions of the motif residues.
var motifPositions = []structure.Coords{
	{X: 0, Y: 0, Z: 0},
	{X: 6.1, Y: 1.2, Z: 0.4},
	{X: 3.2, Y: 6.3, Z: 1.1},
	{X: -2.4, Y: 5.1, Z: 4.2},
	{X: 4.1, Y: 2.9, Z: 6.3},
}

// MotifId is the identifier of the structure returned by Motif.
const MotifId = "1MOT"

// Motif returns a structure with a five residue catalytic motif (lysine,
// aspartate, two glutamates and a histidine) surrounded by filler residues,
// along with the indices of the motif residues in the structure.
func Motif() (*motif.Structure, []int) {
	rng := rand.New(rand.NewSource(42))
	s := &motif.Structure{Id: MotifId}

	var indices []int
	seqNum := 1
	for i, t := range MotifTypes {
		// Some filler between motif residues, far enough away to not be
		// within the cutoff of a typical query.
		s.Residues = append(s.Residues,
			Residue(motif.Ala, "A", seqNum, Place(rng, far(rng))))
		seqNum++

		indices = append(indices, len(s.Residues))
		s.Residues = append(s.Residues,
			Residue(t, "A", seqNum, Place(rng, motifPositions[i])))
		seqNum += 10
	}
	return s, indices
}

// far returns a random point well away from the motif.
func far(rng *rand.Rand) structure.Coords {
	return structure.Coords{
		X: 40 + rng.Float64()*20,
		Y: 40 + rng.Float64()*20,
		Z: 40 + rng.Float64()*20,
	}
}

// Moved returns a copy of s under a new identifier with every residue moved
// by m. The copied residues keep the identity operator.
func Moved(s *motif.Structure, id string, m motif.Transform) *motif.Structure {
	moved := &motif.Structure{Id: id, Content: s.Content}
	op := motif.Operator{Id: motif.IdentityOperator, Matrix: m}
	for _, r := range s.Residues {
		moved.Residues = append(moved.Residues, r.Transformed(op))
	}
	return moved
}

// Decoy returns a structure with n residues of random types at random
// positions in a box. Alpha-carbons are kept at least 3.8 apart.
func Decoy(rng *rand.Rand, id string, n int) *motif.Structure {
	types := []motif.ResidueType{
		motif.Lys, motif.Asp, motif.Glu, motif.His, motif.Ser,
		motif.Leu, motif.Phe, motif.Ala, motif.Gly,
	}
	extent := math.Cbrt(float64(n)) * 6
	s := &motif.Structure{Id: id}
	var placed []structure.Coords
	for len(s.Residues) < n {
		at := structure.Coords{
			X: rng.Float64() * extent,
			Y: rng.Float64() * extent,
			Z: rng.Float64() * extent,
		}
		if tooClose(placed, at, 3.8) {
			continue
		}
		placed = append(placed, at)
		t := types[rng.Intn(len(types))]
		s.Residues = append(s.Residues,
			Residue(t, "A", len(s.Residues)+1, Place(rng, at)))
	}
	return s
}

// Scrambled returns a structure holding residues of the motif types at
// random positions, so that the types match but the geometry does not.
func Scrambled(rng *rand.Rand, id string) *motif.Structure {
	s := &motif.Structure{Id: id}
	var placed []structure.Coords
	for i, t := range MotifTypes {
		var at structure.Coords
		for {
			at = structure.Coords{
				X: rng.Float64() * 14,
				Y: rng.Float64() * 14,
				Z: rng.Float64() * 14,
			}
			if !tooClose(placed, at, 3.8) {
				break
			}
		}
		placed = append(placed, at)
		s.Residues = append(s.Residues, Residue(t, "B", 100+i, Place(rng, at)))
	}
	return s
}

func tooClose(placed []structure.Coords, at structure.Coords, min float64) bool {
	for _, p := range placed {
		dx, dy, dz := p.X-at.X, p.Y-at.Y, p.Z-at.Z
		if dx*dx+dy*dy+dz*dz < min*min {
			return true
		}
	}
	return false
}

// Ids returns n structure identifiers with the prefix given.
func Ids(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return ids
}
