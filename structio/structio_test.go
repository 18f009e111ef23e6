package structio

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/internal/fixture"
)

// writePDB writes the residues of s as ATOM records, without any SEQRES
// records, in the PDB format. Remarks are written right after the header.
func writePDB(
	t *testing.T,
	fpath string,
	s *motif.Structure,
	idCode string,
	remarks ...string,
) {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "HEADER    %-52s%4s\n", "SYNTHETIC MOTIF", idCode)
	for _, remark := range remarks {
		fmt.Fprintf(buf, "%s\n", remark)
	}
	serial := 1
	for _, r := range s.Residues {
		for _, atom := range r.Atoms {
			fmt.Fprintf(buf,
				"ATOM  %5d %-4s %3s %s%4d    %8.3f%8.3f%8.3f  1.00  0.00\n",
				serial, atom.Name, r.Type.Three(), r.Chain, r.SeqNum,
				atom.X, atom.Y, atom.Z)
			serial++
		}
	}
	buf.WriteString("END\n")

	data := buf.Bytes()
	if filepath.Ext(fpath) == ".gz" {
		gzbuf := new(bytes.Buffer)
		gz := gzip.NewWriter(gzbuf)
		if _, err := gz.Write(data); err != nil {
			t.Fatal(err)
		}
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
		data = gzbuf.Bytes()
	}
	if err := os.WriteFile(fpath, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func sameResidues(t *testing.T, want, got *motif.Structure) {
	if len(want.Residues) != len(got.Residues) {
		t.Fatalf("Expected %d residues but got %d.",
			len(want.Residues), len(got.Residues))
	}
	for i, w := range want.Residues {
		g := got.Residues[i]
		if w.ResidueIdentifier != g.ResidueIdentifier {
			t.Fatalf("Expected residue %s but got %s.", w, g)
		}
		if len(w.Atoms) != len(g.Atoms) {
			t.Fatalf("Expected %d atoms in %s but got %d.",
				len(w.Atoms), w, len(g.Atoms))
		}
		for _, atom := range w.Atoms {
			c, ok := g.Atom(atom.Name)
			if !ok {
				t.Fatalf("Expected atom %s in %s.", atom.Name, g)
			}
			if math.Abs(c.X-atom.X) > 1e-3 || math.Abs(c.Y-atom.Y) > 1e-3 ||
				math.Abs(c.Z-atom.Z) > 1e-3 {
				t.Fatalf("Expected %s of %s at %v but got %v.",
					atom.Name, w, atom.Coords, c)
			}
		}
		if g.Backbone == nil || g.SideChain == nil {
			t.Fatalf("Expected representative points for %s.", g)
		}
	}
}

func TestReadFile(t *testing.T) {
	want, _ := fixture.Motif()
	dir := t.TempDir()
	for _, name := range []string{"motif.pdb", "motif.pdb.gz"} {
		fpath := filepath.Join(dir, name)
		writePDB(t, fpath, want, "1MOT")

		got, err := ReadFile(fpath)
		if err != nil {
			t.Fatal(err)
		}
		if got.Id != "1mot" {
			t.Fatalf("Expected identifier '1mot' but got '%s'.", got.Id)
		}
		if got.Content != motif.Experimental {
			t.Fatalf("Expected %s content but got %s.",
				motif.Experimental, got.Content)
		}
		sameResidues(t, want, got)
	}
}

func TestDir(t *testing.T) {
	want, _ := fixture.Motif()
	dir := t.TempDir()
	writePDB(t, filepath.Join(dir, "pdb1mot.ent.gz"), want, "1MOT")
	writePDB(t, filepath.Join(dir, "AF_P12345.pdb"), want, "")

	d := Dir{Root: dir}
	for _, id := range []string{"1MOT", "AF_P12345"} {
		if _, err := d.Find(id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := d.Find("9XYZ"); err == nil {
		t.Fatalf("Expected an error for a missing structure.")
	}

	got, err := d.ReadStructure(context.Background(), "AF_P12345")
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != "AF_P12345" || got.Content != motif.Computational {
		t.Fatalf("Expected computational structure 'AF_P12345' but got "+
			"%s structure '%s'.", got.Content, got.Id)
	}
	sameResidues(t, want, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.ReadStructure(ctx, "1MOT"); err != context.Canceled {
		t.Fatalf("Expected %s but got %v.", context.Canceled, err)
	}
}

func TestMemory(t *testing.T) {
	s, _ := fixture.Motif()
	m := NewMemory(s)

	got, err := m.ReadStructure(context.Background(), fixture.MotifId)
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatalf("Expected the structure that was added.")
	}
	if _, err := m.ReadStructure(context.Background(), "9XYZ"); err == nil {
		t.Fatalf("Expected an error for an unknown structure.")
	}

	moved := fixture.Moved(s, fixture.MotifId, motif.Identity())
	m.Add(moved)
	got, err = m.ReadStructure(context.Background(), fixture.MotifId)
	if err != nil {
		t.Fatal(err)
	}
	if got != moved {
		t.Fatalf("Expected Add to replace a structure with the same identifier.")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want motif.ContentType
	}{
		{"1abc", motif.Experimental},
		{"AF_AFP12345F1", motif.Computational},
		{"af-p12345-f1", motif.Computational},
		{"MA_MAABC12", motif.Computational},
		{"maf1", motif.Experimental},
	}
	for _, test := range tests {
		if got := Classify(test.id); got != test.want {
			t.Fatalf("Expected %s for '%s' but got %s.", test.want, test.id, got)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := stripExt("1ctf.cif.gz"); got != "1ctf" {
		t.Fatalf("Expected '1ctf' but got '%s'.", got)
	}
	for _, name := range []string{"H", "HA", "1HB", "2HD1", "D"} {
		if !isHydrogen(name) {
			t.Fatalf("Expected '%s' to be a hydrogen.", name)
		}
	}
	for _, name := range []string{"CA", "N", "OD1", "C4'"} {
		if isHydrogen(name) {
			t.Fatalf("Expected '%s' to not be a hydrogen.", name)
		}
	}
	if !isCIF("1abc.cif.gz") || isCIF("1abc.pdb") {
		t.Fatalf("Expected only mmCIF files to be recognized as mmCIF.")
	}
}
