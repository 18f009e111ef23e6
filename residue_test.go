package motif_test

import (
	"math"
	"testing"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/internal/fixture"
)

func TestResidueTypes(t *testing.T) {
	tests := []struct {
		code string
		want motif.ResidueType
		ok   bool
	}{
		{"LYS", motif.Lys, true},
		{"lys", motif.Lys, true},
		{" HIS", motif.His, true},
		{"DA", motif.Deoxyadenosine, true},
		{"U", motif.Uridine, true},
		{"HOH", motif.UnknownResidue, false},
	}
	for _, test := range tests {
		got, ok := motif.ResidueTypeFromThree(test.code)
		if got != test.want || ok != test.ok {
			t.Fatalf("Expected (%s, %v) for '%s' but got (%s, %v).",
				test.want, test.ok, test.code, got, ok)
		}
	}

	if got := motif.AminoAcidFromOne('K'); got != motif.Lys {
		t.Fatalf("Expected %s but got %s.", motif.Lys, got)
	}
	if got := motif.AminoAcidFromOne('B'); got != motif.UnknownResidue {
		t.Fatalf("Expected %s but got %s.", motif.UnknownResidue, got)
	}
	if got := motif.NucleotideFromOne('T', true); got != motif.Deoxythymidine {
		t.Fatalf("Expected %s but got %s.", motif.Deoxythymidine, got)
	}
	if got := motif.NucleotideFromOne('T', false); got != motif.UnknownResidue {
		t.Fatalf("Expected %s but got %s.", motif.UnknownResidue, got)
	}
	if motif.Guanosine.Category() != motif.Nucleotide ||
		motif.Gly.Category() != motif.AminoAcid {
		t.Fatalf("Expected guanosine to be a nucleotide and glycine an " +
			"amino acid.")
	}
}

func TestResidueTypeOrder(t *testing.T) {
	if !motif.Asp.Less(motif.Lys) || motif.Lys.Less(motif.Asp) {
		t.Fatalf("Expected %s to sort before %s.", motif.Asp, motif.Lys)
	}
	// Same one letter code, so the ordinal decides.
	if !motif.Ala.Less(motif.Adenosine) {
		t.Fatalf("Expected %s to sort before %s.", motif.Ala, motif.Adenosine)
	}

	// The order is total and strict.
	for i := 0; i < motif.NumResidueTypes; i++ {
		for j := 0; j < motif.NumResidueTypes; j++ {
			a, b := motif.ResidueType(i), motif.ResidueType(j)
			if i == j && a.Less(b) {
				t.Fatalf("Expected %s to not be less than itself.", a)
			}
			if i != j && a.Less(b) == b.Less(a) {
				t.Fatalf("Expected exactly one of %s and %s to be less.", a, b)
			}
		}
	}
}

func TestRepresentatives(t *testing.T) {
	ala := fixture.Residue(motif.Ala, "A", 1, motif.Identity())
	cb, _ := ala.Atom("CB")
	ca, _ := ala.Atom("CA")
	if ala.Backbone == nil || *ala.Backbone != ca {
		t.Fatalf("Expected the alpha-carbon as backbone point.")
	}
	if ala.SideChain == nil || *ala.SideChain != cb {
		t.Fatalf("Expected the beta-carbon as side-chain point.")
	}

	gly := fixture.Residue(motif.Gly, "A", 2, motif.Identity())
	if gly.SideChain == nil {
		t.Fatalf("Expected a virtual beta-carbon for glycine.")
	}
	if d := dist(*gly.SideChain, *gly.Backbone); math.Abs(d-1.52) > 0.05 {
		t.Fatalf("Expected the virtual beta-carbon 1.52 from the "+
			"alpha-carbon but got %f.", d)
	}

	c4 := structure.Coords{X: 1, Y: 2, Z: 3}
	c1 := structure.Coords{X: 2, Y: 2, Z: 3}
	nuc := motif.NewResidue(
		motif.ResidueIdentifier{Type: motif.Adenosine, Chain: "B", SeqNum: 5},
		[]motif.Atom{{Name: "C4'", Coords: c4}, {Name: "C1'", Coords: c1}})
	if nuc.Backbone == nil || *nuc.Backbone != c4 ||
		nuc.SideChain == nil || *nuc.SideChain != c1 {
		t.Fatalf("Expected C4' and C1' as nucleotide representatives.")
	}

	bare := motif.NewResidue(
		motif.ResidueIdentifier{Type: motif.Ser, Chain: "A", SeqNum: 3},
		[]motif.Atom{{Name: "OG", Coords: c4}})
	if bare.Backbone != nil || bare.SideChain != nil {
		t.Fatalf("Expected no representatives without backbone atoms.")
	}
	if !bare.IsIdentity() || bare.Operator != motif.IdentityOperator {
		t.Fatalf("Expected new residues to carry the identity operator.")
	}
}

func TestResidueIdentifier(t *testing.T) {
	id := motif.ResidueIdentifier{Type: motif.Lys, Chain: "A", SeqNum: 12}
	if got := id.String(); got != "A:12:LYS" {
		t.Fatalf("Expected 'A:12:LYS' but got '%s'.", got)
	}
	id.InsCode = 'B'
	id.Operator = "2"
	if got := id.Label(); got != "A:12B" {
		t.Fatalf("Expected 'A:12B' but got '%s'.", got)
	}
	if got := id.String(); got != "A:12B:LYS[2]" {
		t.Fatalf("Expected 'A:12B:LYS[2]' but got '%s'.", got)
	}
	if id.IsIdentity() {
		t.Fatalf("Expected operator '2' to not be the identity.")
	}
}

func TestTransformed(t *testing.T) {
	r := fixture.Residue(motif.His, "A", 7, motif.Identity())
	shift := motif.Identity()
	shift[0][3] = 10
	moved := r.Transformed(motif.Operator{Id: "3", Matrix: shift})

	if moved.Operator != "3" || moved.SeqNum != 7 || moved.Type != motif.His {
		t.Fatalf("Expected a copy of %s with operator '3' but got %s.", r, moved)
	}
	if d := moved.Backbone.X - r.Backbone.X; math.Abs(d-10) > 1e-9 {
		t.Fatalf("Expected the backbone point moved by 10 but got %f.", d)
	}
	if len(moved.Atoms) != len(r.Atoms) {
		t.Fatalf("Expected %d atoms but got %d.", len(r.Atoms), len(moved.Atoms))
	}
	if r.Operator != motif.IdentityOperator {
		t.Fatalf("Expected the original residue to be left alone.")
	}
}

func dist(a, b structure.Coords) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
