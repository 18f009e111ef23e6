package motif

import (
	"fmt"
	"strings"

	"github.com/TuftsBCB/seq"
	"github.com/TuftsBCB/structure"
)

// Category distinguishes the polymer kinds a residue can belong to. Each
// category has its own way of picking representative atoms.
type Category uint8

const (
	AminoAcid Category = iota
	Nucleotide
)

func (c Category) String() string {
	switch c {
	case AminoAcid:
		return "amino-acid"
	case Nucleotide:
		return "nucleotide"
	}
	panic(fmt.Sprintf("Unknown residue category: %d", c))
}

// BackboneAtom and SideChainAtom return the names of the representative atoms for
// residues of this category.
func (c Category) BackboneAtom() string {
	if c == Nucleotide {
		return "C4'"
	}
	return "CA"
}

func (c Category) SideChainAtom() string {
	if c == Nucleotide {
		return "C1'"
	}
	return "CB"
}

// ResidueType is a dense ordinal identifying a residue type. The ordinal is
// what gets packed into residue pair descriptors, so the table below must
// never be reordered.
type ResidueType uint8

const (
	UnknownResidue ResidueType = iota
	Ala
	Arg
	Asn
	Asp
	Cys
	Gln
	Glu
	Gly
	His
	Ile
	Leu
	Lys
	Met
	Phe
	Pro
	Ser
	Thr
	Trp
	Tyr
	Val
	Sec
	Pyl
	Adenosine
	Cytidine
	Guanosine
	Uridine
	Deoxyadenosine
	Deoxycytidine
	Deoxyguanosine
	Deoxythymidine
	numResidueTypes
)

type residueInfo struct {
	three    string
	one      seq.Residue
	category Category
}

var residueTable = [numResidueTypes]residueInfo{
	UnknownResidue: {"UNK", 'X', AminoAcid},
	Ala:            {"ALA", 'A', AminoAcid},
	Arg:            {"ARG", 'R', AminoAcid},
	Asn:            {"ASN", 'N', AminoAcid},
	Asp:            {"ASP", 'D', AminoAcid},
	Cys:            {"CYS", 'C', AminoAcid},
	Gln:            {"GLN", 'Q', AminoAcid},
	Glu:            {"GLU", 'E', AminoAcid},
	Gly:            {"GLY", 'G', AminoAcid},
	His:            {"HIS", 'H', AminoAcid},
	Ile:            {"ILE", 'I', AminoAcid},
	Leu:            {"LEU", 'L', AminoAcid},
	Lys:            {"LYS", 'K', AminoAcid},
	Met:            {"MET", 'M', AminoAcid},
	Phe:            {"PHE", 'F', AminoAcid},
	Pro:            {"PRO", 'P', AminoAcid},
	Ser:            {"SER", 'S', AminoAcid},
	Thr:            {"THR", 'T', AminoAcid},
	Trp:            {"TRP", 'W', AminoAcid},
	Tyr:            {"TYR", 'Y', AminoAcid},
	Val:            {"VAL", 'V', AminoAcid},
	Sec:            {"SEC", 'U', AminoAcid},
	Pyl:            {"PYL", 'O', AminoAcid},
	Adenosine:      {"A", 'A', Nucleotide},
	Cytidine:       {"C", 'C', Nucleotide},
	Guanosine:      {"G", 'G', Nucleotide},
	Uridine:        {"U", 'U', Nucleotide},
	Deoxyadenosine: {"DA", 'A', Nucleotide},
	Deoxycytidine:  {"DC", 'C', Nucleotide},
	Deoxyguanosine: {"DG", 'G', Nucleotide},
	Deoxythymidine: {"DT", 'T', Nucleotide},
}

// byThree is the reverse of residueTable keyed by three letter code. It is
// created in this package's 'init' function.
var byThree = map[string]ResidueType{}

func init() {
	for i, info := range residueTable {
		byThree[info.three] = ResidueType(i)
	}
}

// NumResidueTypes is the number of residue types known to this package.
// Valid residue types are in the range [0, NumResidueTypes).
const NumResidueTypes = int(numResidueTypes)

// ResidueTypeFromThree returns the residue type with the given three letter
// (or, for nucleotides, one or two letter) code. Unknown codes map to
// UnknownResidue and false.
func ResidueTypeFromThree(code string) (ResidueType, bool) {
	t, ok := byThree[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// AminoAcidFromOne returns the amino acid with the given one letter code.
func AminoAcidFromOne(r seq.Residue) ResidueType {
	for i := Ala; i <= Pyl; i++ {
		if residueTable[i].one == r {
			return i
		}
	}
	return UnknownResidue
}

// NucleotideFromOne returns the nucleotide with the given one letter code.
// When deoxy is set, the deoxyribonucleotide is returned.
func NucleotideFromOne(r seq.Residue, deoxy bool) ResidueType {
	first, last := Adenosine, Uridine
	if deoxy {
		first, last = Deoxyadenosine, Deoxythymidine
	}
	for i := first; i <= last; i++ {
		if residueTable[i].one == r {
			return i
		}
	}
	return UnknownResidue
}

// Three returns the three letter code of the residue type.
func (t ResidueType) Three() string {
	return t.info().three
}

// One returns the one letter code of the residue type.
func (t ResidueType) One() seq.Residue {
	return t.info().one
}

// Category returns whether the residue type is an amino acid or nucleotide.
func (t ResidueType) Category() Category {
	return t.info().category
}

// Less defines the canonical ordering of residue types: by one letter code
// first and by ordinal for residue types sharing a one letter code.
func (t ResidueType) Less(t2 ResidueType) bool {
	o1, o2 := t.One(), t2.One()
	if o1 != o2 {
		return o1 < o2
	}
	return t < t2
}

func (t ResidueType) String() string {
	return t.Three()
}

func (t ResidueType) info() residueInfo {
	if int(t) >= len(residueTable) {
		return residueTable[UnknownResidue]
	}
	return residueTable[t]
}

// IdentityOperator is the identifier of the operator that leaves a structure
// unchanged. Residues read from a file always carry this operator.
const IdentityOperator = "1"

// ResidueIdentifier is the label based identity of a residue.
type ResidueIdentifier struct {
	Type     ResidueType
	Chain    string
	SeqNum   int
	InsCode  byte
	Operator string
}

// IsIdentity returns true when the residue was not produced by a symmetry
// operator (or was produced by the identity operator).
func (id ResidueIdentifier) IsIdentity() bool {
	return id.Operator == "" || id.Operator == IdentityOperator
}

// Label returns chain, sequence number and insertion code, e.g., "A:102" or
// "B:52A". The residue type and operator are not part of the label.
func (id ResidueIdentifier) Label() string {
	if id.InsCode != 0 && id.InsCode != ' ' {
		return fmt.Sprintf("%s:%d%c", id.Chain, id.SeqNum, id.InsCode)
	}
	return fmt.Sprintf("%s:%d", id.Chain, id.SeqNum)
}

// String returns something like "A:102:HIS", with the operator appended in
// brackets when it is not the identity.
func (id ResidueIdentifier) String() string {
	if id.IsIdentity() {
		return fmt.Sprintf("%s:%s", id.Label(), id.Type)
	}
	return fmt.Sprintf("%s:%s[%s]", id.Label(), id.Type, id.Operator)
}

// Atom is a named atom of a residue.
type Atom struct {
	Name string
	structure.Coords
}

// Residue is a single residue of a structure with its atoms and two
// representative points: a backbone point (alpha-carbon or C4') and a
// side-chain point (beta-carbon, virtual for glycine, or C1').
// Either point may be nil if the atoms needed to derive it are missing.
//
// Residues must not be modified after construction.
type Residue struct {
	ResidueIdentifier
	Backbone  *structure.Coords
	SideChain *structure.Coords
	Atoms     []Atom
}

// NewResidue creates a residue from its identity and atoms and derives the
// representative points appropriate for the category of the residue type.
func NewResidue(id ResidueIdentifier, atoms []Atom) *Residue {
	if id.Operator == "" {
		id.Operator = IdentityOperator
	}
	r := &Residue{ResidueIdentifier: id, Atoms: atoms}

	cat := id.Type.Category()
	if bb, ok := r.Atom(cat.BackboneAtom()); ok {
		r.Backbone = &bb
	}
	if sc, ok := r.Atom(cat.SideChainAtom()); ok {
		r.SideChain = &sc
	} else if cat == AminoAcid {
		r.SideChain = r.virtualBeta()
	}
	return r
}

// Atom returns the coordinates of the first atom with the given name.
func (r *Residue) Atom(name string) (structure.Coords, bool) {
	for _, atom := range r.Atoms {
		if atom.Name == name {
			return atom.Coords, true
		}
	}
	return structure.Coords{}, false
}

// Transformed returns a copy of the residue moved by the operator given.
// The copy carries the operator's identifier.
func (r *Residue) Transformed(op Operator) *Residue {
	id := r.ResidueIdentifier
	id.Operator = op.Id

	atoms := make([]Atom, len(r.Atoms))
	for i, atom := range r.Atoms {
		atoms[i] = Atom{Name: atom.Name, Coords: op.Matrix.Apply(atom.Coords)}
	}
	moved := &Residue{ResidueIdentifier: id, Atoms: atoms}
	if r.Backbone != nil {
		c := op.Matrix.Apply(*r.Backbone)
		moved.Backbone = &c
	}
	if r.SideChain != nil {
		c := op.Matrix.Apply(*r.SideChain)
		moved.SideChain = &c
	}
	return moved
}

// virtualBeta places a beta-carbon from the backbone N, CA and C atoms using
// ideal geometry. nil is returned if any of those atoms is missing.
func (r *Residue) virtualBeta() *structure.Coords {
	n, ok1 := r.Atom("N")
	ca, ok2 := r.Atom("CA")
	c, ok3 := r.Atom("C")
	if !ok1 || !ok2 || !ok3 {
		return nil
	}
	b := sub(ca, n)
	cc := sub(c, ca)
	a := cross(b, cc)
	cb := structure.Coords{
		X: -0.58273431*a.X + 0.56802827*b.X - 0.54067466*cc.X + ca.X,
		Y: -0.58273431*a.Y + 0.56802827*b.Y - 0.54067466*cc.Y + ca.Y,
		Z: -0.58273431*a.Z + 0.56802827*b.Z - 0.54067466*cc.Z + ca.Z,
	}
	return &cb
}

func sub(a, b structure.Coords) structure.Coords {
	return structure.Coords{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

func cross(a, b structure.Coords) structure.Coords {
	return structure.Coords{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
