package motif_test

import (
	"errors"
	"testing"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/internal/fixture"
)

func TestExpand(t *testing.T) {
	s, indices := fixture.Motif()
	shift := motif.Identity()
	shift[1][3] = 25
	assembly := s.Expand("2", []motif.Operator{
		{Id: motif.IdentityOperator, Matrix: motif.Identity()},
		{Id: "B", Matrix: shift},
	})

	n := len(s.Residues)
	if len(assembly.Residues) != 2*n {
		t.Fatalf("Expected %d residues but got %d.", 2*n, len(assembly.Residues))
	}
	if assembly.Assembly != "2" || assembly.Id != s.Id {
		t.Fatalf("Expected assembly '2' of '%s' but got %s.", s.Id, assembly)
	}

	r := s.Residues[indices[2]]
	if got := assembly.Find(r.Chain, r.SeqNum, 0, ""); got != indices[2] {
		t.Fatalf("Expected residue %d but got %d.", indices[2], got)
	}
	got := assembly.Find(r.Chain, r.SeqNum, 0, "B")
	if got != n+indices[2] {
		t.Fatalf("Expected residue %d but got %d.", n+indices[2], got)
	}
	if c := assembly.Residues[got]; c.Backbone.Y-r.Backbone.Y < 24.9 {
		t.Fatalf("Expected the copy to be moved by the operator.")
	}
	if assembly.Find(r.Chain, r.SeqNum, 0, "C") != -1 {
		t.Fatalf("Expected no residue for an unknown operator.")
	}
	if len(s.Residues) != n {
		t.Fatalf("Expected the original structure to be left alone.")
	}
}

func TestSelect(t *testing.T) {
	s, indices := fixture.Motif()
	residues, err := s.Select(indices)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range residues {
		if r.Type != fixture.MotifTypes[i] {
			t.Fatalf("Expected %s but got %s.", fixture.MotifTypes[i], r.Type)
		}
	}

	_, err = s.Select([]int{0, len(s.Residues)})
	var invalid *motif.InvalidQueryError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected an invalid query error but got %v.", err)
	}
}

func TestTransform(t *testing.T) {
	m := motif.Transform{
		{0, -1, 0, 1},
		{1, 0, 0, 2},
		{0, 0, 1, 3},
		{0, 0, 0, 1},
	}
	got := m.Apply(structure.Coords{X: 1, Y: 0, Z: 0})
	want := structure.Coords{X: 1, Y: 3, Z: 3}
	if got != want {
		t.Fatalf("Expected %v but got %v.", want, got)
	}
	if m.IsIdentity(1e-6) || !motif.Identity().IsIdentity(0) {
		t.Fatalf("Expected only the identity to be the identity.")
	}
}

func TestContentType(t *testing.T) {
	for _, ct := range []motif.ContentType{motif.Experimental, motif.Computational} {
		got, err := motif.ParseContentType(ct.String())
		if err != nil {
			t.Fatal(err)
		}
		if got != ct {
			t.Fatalf("Expected %s but got %s.", ct, got)
		}
	}
	if _, err := motif.ParseContentType("predicted"); err == nil {
		t.Fatalf("Expected an error for an unknown content type.")
	}
}

func TestHit(t *testing.T) {
	s, indices := fixture.Motif()
	residues, _ := s.Select(indices)
	ids := make([]motif.ResidueIdentifier, len(residues))
	for i, r := range residues {
		ids[i] = r.ResidueIdentifier
	}

	a := motif.Hit{StructureId: "1abc", Residues: ids, RMSD: 0.5}
	b := motif.Hit{StructureId: "1abd", Residues: ids, RMSD: 0.5}
	c := motif.Hit{StructureId: "1aaa", Residues: ids, RMSD: 0.7}
	if !a.Less(b) || b.Less(a) || !b.Less(c) || c.Less(a) {
		t.Fatalf("Expected hits ordered by RMSD and then identifier.")
	}

	types := a.Types()
	for i := range types {
		if types[i] != fixture.MotifTypes[i] {
			t.Fatalf("Expected %s but got %s.", fixture.MotifTypes[i], types[i])
		}
	}
}
