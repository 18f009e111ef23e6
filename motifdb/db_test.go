package motifdb

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/descriptor"
	"github.com/TuftsBCB/motif/internal/fixture"
)

func testStructures() []*motif.Structure {
	rng := rand.New(rand.NewSource(17))
	s, _ := fixture.Motif()
	structures := []*motif.Structure{s}
	for i, id := range fixture.Ids("DEC", 6) {
		d := fixture.Decoy(rng, id, 20+i*5)
		if i%2 == 1 {
			d.Content = motif.Computational
		}
		structures = append(structures, d)
	}
	return structures
}

// postings returns every occurrence in the index as a map from descriptor
// key to structure identifier to residue pairs.
func postings(t *testing.T, db *DB, structures []*motif.Structure) map[descriptor.Descriptor]map[string][][2]int {
	all := make(map[descriptor.Descriptor]map[string][][2]int)
	for _, s := range structures {
		for _, o := range contact.Build(s.Residues, contact.Default) {
			if all[o.Descriptor] == nil {
				all[o.Descriptor] = make(map[string][][2]int)
			}
		}
	}
	for key := range all {
		b := db.Select(key)
		last := -1
		for b.NextStructure() {
			si := b.StructureIndex()
			if si <= last {
				t.Fatalf("Expected increasing structure indices in bucket %s.", key)
			}
			last = si
			id := db.Identifier(si)
			for b.NextOccurrence() {
				i, j := b.ResidueIndices()
				all[key][id] = append(all[key][id], [2]int{i, j})
			}
		}
	}
	return all
}

func checkIndex(t *testing.T, db *DB, structures []*motif.Structure) {
	if db.Len() != len(structures) {
		t.Fatalf("Expected %d structures but got %d.", len(structures), db.Len())
	}
	if db.Cutoff() != contact.DefaultCutoff {
		t.Fatalf("Expected cutoff %f but got %f.", contact.DefaultCutoff, db.Cutoff())
	}
	got := postings(t, db, structures)
	for _, s := range structures {
		si, ok := db.Index(s.Id)
		if !ok {
			t.Fatalf("Expected structure '%s' in the index.", s.Id)
		}
		if db.Identifier(si) != s.Id {
			t.Fatalf("Expected '%s' but got '%s'.", s.Id, db.Identifier(si))
		}
		if db.ContentType(si) != s.Content {
			t.Fatalf("Expected content type %s for '%s' but got %s.",
				s.Content, s.Id, db.ContentType(si))
		}

		counts := make(map[descriptor.Descriptor]int)
		for _, o := range contact.Build(s.Residues, contact.Default) {
			found := false
			for _, p := range got[o.Descriptor][s.Id] {
				if p == [2]int{o.I, o.J} {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("Expected occurrence %s of '%s' in the index.", o, s.Id)
			}
			counts[o.Descriptor]++
		}
		for key, n := range counts {
			if len(got[key][s.Id]) != n {
				t.Fatalf("Expected %d occurrences of %s in '%s' but got %d.",
					n, key, s.Id, len(got[key][s.Id]))
			}
		}
	}
}

func TestNew(t *testing.T) {
	structures := testStructures()
	db := New(contact.DefaultCutoff, contact.IdentityOnly)

	var wg sync.WaitGroup
	for _, s := range structures {
		wg.Add(1)
		go func(s *motif.Structure) {
			defer wg.Done()
			if err := db.Add(s); err != nil {
				t.Error(err)
			}
		}(s)
	}
	wg.Wait()
	if err := db.Add(structures[0]); err == nil {
		t.Fatalf("Expected an error when adding '%s' twice.", structures[0].Id)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	checkIndex(t, db, structures)
}

func TestCreateOpen(t *testing.T) {
	structures := testStructures()
	fpath := filepath.Join(t.TempDir(), "test.motifdb")

	db, err := Create(fpath, contact.DefaultCutoff, contact.IdentityOnly)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range structures {
		if err := db.Add(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(fpath, contact.DefaultCutoff, contact.IdentityOnly); err == nil {
		t.Fatalf("Expected an error when creating an existing index.")
	}

	opened, err := Open(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if opened.Keys() != db.Keys() {
		t.Fatalf("Expected %d keys but got %d.", db.Keys(), opened.Keys())
	}
	checkIndex(t, opened, structures)

	for key := range db.buckets {
		if db.Count(key) != opened.Count(key) {
			t.Fatalf("Expected %d occurrences of %s but got %d.",
				db.Count(key), key, opened.Count(key))
		}
	}
}

func TestEmptyBucket(t *testing.T) {
	db := New(contact.DefaultCutoff, contact.IdentityOnly)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	d := descriptor.Encode(motif.Trp, motif.Trp, 3, 3, 3)
	b := db.Select(d)
	if b.NextStructure() {
		t.Fatalf("Expected an empty bucket for %s.", d)
	}
	if db.Count(d) != 0 {
		t.Fatalf("Expected no occurrences of %s but got %d.", d, db.Count(d))
	}
}

func TestOperators(t *testing.T) {
	s, indices := fixture.Motif()
	shift := motif.Identity()
	shift[2][3] = 12
	assembly := s.Expand("1", []motif.Operator{
		{Id: motif.IdentityOperator, Matrix: motif.Identity()},
		{Id: "2", Matrix: shift},
	})

	db := New(contact.DefaultCutoff, contact.WithIdentity)
	if err := db.Add(assembly); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	// Every occurrence involving a copied residue must report operator "2",
	// and every occurrence is either anchored in the identity or within the
	// copy.
	copies := 0
	for _, o := range contact.Build(assembly.Residues,
		contact.Options{Cutoff: contact.DefaultCutoff, Operators: contact.WithIdentity}) {
		b := db.Select(o.Descriptor)
		for b.NextStructure() {
			for b.NextOccurrence() {
				i, j := b.ResidueIndices()
				if i != o.I || j != o.J {
					continue
				}
				opi, opj := b.Operators()
				if opi != assembly.Residues[i].Operator ||
					opj != assembly.Residues[j].Operator {
					t.Fatalf("Expected operators %s, %s but got %s, %s.",
						assembly.Residues[i].Operator,
						assembly.Residues[j].Operator, opi, opj)
				}
				if opi != motif.IdentityOperator && opj != motif.IdentityOperator &&
					opi != opj {
					t.Fatalf("Expected an identity residue or a single copy "+
						"in every occurrence, but got %s and %s.", opi, opj)
				}
				if opi == "2" || opj == "2" {
					copies++
				}
			}
		}
	}
	if copies == 0 {
		t.Fatalf("Expected occurrences across the assembly interface.")
	}
	if len(assembly.Residues) != 2*len(s.Residues) || len(indices) == 0 {
		t.Fatalf("Expected the assembly to hold two copies of every residue.")
	}
}

// writeRaw writes an index file holding one structure and the raw index
// contents given.
func writeRaw(t *testing.T, fpath string, index []byte) {
	db := New(contact.DefaultCutoff, contact.IdentityOnly)
	defer db.Close()
	db.Name = filepath.Base(fpath)
	db.meta.OperatorId = []string{motif.IdentityOperator}
	db.meta.Structures = []Entry{{Id: "1abc"}}

	metaBytes, err := json.Marshal(db.meta)
	if err != nil {
		t.Fatal(err)
	}
	buf := new(bytes.Buffer)
	tw := tar.NewWriter(buf)
	members := []struct {
		hdr  *tar.Header
		data []byte
	}{
		{db.newHdrDir(db.dirName()), nil},
		{db.newHdr(fileStructures, len(metaBytes)), metaBytes},
		{db.newHdr(fileIndex, len(index)), index},
	}
	for _, m := range members {
		if err := tw.WriteHeader(m.hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write(m.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fpath, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenCorrupt(t *testing.T) {
	tests := []struct {
		name  string
		index []byte
	}{
		{"huge group count", []byte{
			0, 0, 0, 8,
			0, 0, 0, 0,
			0xff, 0xff, 0xff, 0xff,
		}},
		{"huge occurrence count", []byte{
			0, 0, 0, 16,
			0, 0, 0, 0,
			0, 0, 0, 1,
			0, 0, 0, 0,
			0xff, 0xff, 0xff, 0xff,
		}},
		{"item longer than the index", []byte{
			0xff, 0xff, 0xff, 0xff,
			0, 0, 0, 0,
		}},
		{"truncated length", []byte{0, 0}},
	}
	dir := t.TempDir()
	for i, test := range tests {
		fpath := filepath.Join(dir, fmt.Sprintf("corrupt%d.motifdb", i))
		writeRaw(t, fpath, test.index)
		if _, err := Open(fpath); err == nil {
			t.Fatalf("Expected an error for an index with a %s.", test.name)
		}
	}

	// The same layout with sane counts opens.
	fpath := filepath.Join(dir, "sane.motifdb")
	writeRaw(t, fpath, []byte{
		0, 0, 0, 26,
		0, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 0, 0,
		0, 0, 0, 1,
		0, 0, 0, 2,
		0, 0, 0, 3,
		0, 0,
	})
	db, err := Open(fpath)
	if err != nil {
		t.Fatal(err)
	}
	if db.Keys() != 1 || db.Count(0) != 1 {
		t.Fatalf("Expected 1 key with 1 occurrence but got %d keys.", db.Keys())
	}
}
