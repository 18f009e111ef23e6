// Package structio converts PDB and PDBx/mmCIF entries into motif
// structures, and provides sources of structures for searching.
//
// Only the first model of every chain is used. Hetero atoms, hydrogens and
// residues of unknown type are dropped.
package structio

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	path "path/filepath"
	"sort"
	"strings"

	"github.com/TuftsBCB/io/pdb"
	"github.com/TuftsBCB/io/pdbx"
	"github.com/TuftsBCB/seq"

	"github.com/TuftsBCB/motif"
)

// FromPDB converts a PDB entry to a structure.
func FromPDB(e *pdb.Entry) *motif.Structure {
	s := &motif.Structure{Id: pdbId(e)}
	s.Content = Classify(s.Id)
	for _, chain := range e.Chains {
		if len(chain.Models) == 0 {
			continue
		}
		typeOf := residueTyper(chain.SeqType)
		for _, r := range chain.Models[0].Residues {
			t := typeOf(r.Name)
			if t == motif.UnknownResidue {
				continue
			}
			atoms := make([]motif.Atom, 0, len(r.Atoms))
			for _, atom := range r.Atoms {
				if atom.Het || isHydrogen(atom.Name) {
					continue
				}
				atoms = append(atoms, motif.Atom{Name: atom.Name, Coords: atom.Coords})
			}
			if len(atoms) == 0 {
				continue
			}
			id := motif.ResidueIdentifier{
				Type:    t,
				Chain:   string(chain.Ident),
				SeqNum:  r.SequenceNum,
				InsCode: insCode(r.InsertionCode),
			}
			s.Residues = append(s.Residues, motif.NewResidue(id, atoms))
		}
	}
	return s
}

func pdbId(e *pdb.Entry) string {
	switch {
	case len(e.Cath) > 0:
		return e.Cath
	case len(e.Scop) > 0:
		return e.Scop
	case len(e.IdCode) > 0:
		return strings.ToLower(e.IdCode)
	}
	return stripExt(path.Base(e.Path))
}

func residueTyper(typ pdb.SequenceType) func(seq.Residue) motif.ResidueType {
	switch typ {
	case pdb.SeqProtein:
		return motif.AminoAcidFromOne
	case pdb.SeqDeoxy:
		return func(r seq.Residue) motif.ResidueType {
			return motif.NucleotideFromOne(r, true)
		}
	case pdb.SeqRibo:
		return func(r seq.Residue) motif.ResidueType {
			return motif.NucleotideFromOne(r, false)
		}
	}
	// Chains without SEQRES records have no sequence type.
	return motif.AminoAcidFromOne
}

// FromCIF converts a PDBx/mmCIF entry to a structure. Only polymer entities
// are used, and chains are visited in order of their identifiers.
func FromCIF(e *pdbx.Entry) *motif.Structure {
	s := &motif.Structure{Id: strings.ToLower(e.Id)}
	s.Content = Classify(s.Id)

	var chains []*pdbx.Chain
	for _, ent := range e.Entities {
		if ent.Type != "polymer" {
			continue
		}
		for _, chain := range ent.Chains {
			chains = append(chains, chain)
		}
	}
	sort.Slice(chains, func(i, j int) bool { return chains[i].Id < chains[j].Id })

	for _, chain := range chains {
		if len(chain.Models) == 0 {
			continue
		}
		for _, site := range chain.Models[0].Sites {
			if site.SeqIndex < 0 {
				continue
			}
			t, ok := motif.ResidueTypeFromThree(site.Comp)
			if !ok || t == motif.UnknownResidue {
				continue
			}
			atoms := make([]motif.Atom, 0, len(site.Atoms))
			for _, atom := range site.Atoms {
				if atom.Het || isHydrogen(atom.Name) {
					continue
				}
				atoms = append(atoms, motif.Atom{Name: atom.Name, Coords: atom.Coords})
			}
			if len(atoms) == 0 {
				continue
			}
			id := motif.ResidueIdentifier{
				Type:   t,
				Chain:  string(chain.Id),
				SeqNum: site.SeqIndex + 1,
			}
			s.Residues = append(s.Residues, motif.NewResidue(id, atoms))
		}
	}
	return s
}

// ReadFile reads a structure from a PDB or PDBx/mmCIF file, optionally
// gzipped. The format is determined by the file extension: files ending in
// ".cif" or ".cif.gz" are read as PDBx/mmCIF, and everything else as PDB.
func ReadFile(fpath string) (*motif.Structure, error) {
	if !isCIF(fpath) {
		e, err := pdb.ReadPDB(fpath)
		if err != nil {
			return nil, err
		}
		return FromPDB(e), nil
	}
	e, err := readCIF(fpath)
	if err != nil {
		return nil, err
	}
	return fromEntry(e, fpath), nil
}

func readCIF(fpath string) (*pdbx.Entry, error) {
	f, err := open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := pdbx.Read(f)
	if err != nil {
		return nil, fmt.Errorf("Could not read PDBx/mmCIF file '%s': %s",
			fpath, err)
	}
	return e, nil
}

// fromEntry converts a PDBx/mmCIF entry read from fpath, naming it after
// the file when the entry has no identifier.
func fromEntry(e *pdbx.Entry, fpath string) *motif.Structure {
	s := FromCIF(e)
	if s.Id == "" {
		s.Id = stripExt(path.Base(fpath))
		s.Content = Classify(s.Id)
	}
	return s
}

// open opens a file for reading, decompressing it if its name ends in
// ".gz".
func open(fpath string) (io.ReadCloser, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(fpath, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Could not read gzipped file '%s': %s",
			fpath, err)
	}
	return gzipFile{gz, f}, nil
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (gf gzipFile) Close() error {
	gf.Reader.Close()
	return gf.f.Close()
}

// Classify determines the content type of a structure from its identifier.
// Identifiers of computed models (AlphaFold DB and ModelArchive) are
// recognized by their prefix.
func Classify(id string) motif.ContentType {
	upper := strings.ToUpper(id)
	for _, prefix := range []string{"AF_", "AF-", "MA_", "MA-"} {
		if strings.HasPrefix(upper, prefix) {
			return motif.Computational
		}
	}
	return motif.Experimental
}

func isCIF(fpath string) bool {
	return strings.HasSuffix(fpath, ".cif") || strings.HasSuffix(fpath, ".cif.gz")
}

func isHydrogen(name string) bool {
	name = strings.TrimLeft(name, "0123456789")
	return len(name) > 0 && (name[0] == 'H' || name[0] == 'D')
}

func insCode(c byte) byte {
	if c == ' ' {
		return 0
	}
	return c
}

// stripExt removes every extension of a file name, so that "1ctf.cif.gz"
// becomes "1ctf".
func stripExt(name string) string {
	if i := strings.IndexByte(name, '.'); i > 0 {
		return name[:i]
	}
	return name
}
