package structio

import (
	"context"
	"fmt"
	"os"
	path "path/filepath"
	"strings"
	"sync"

	"github.com/TuftsBCB/motif"
)

// Extensions tried, in order, by Dir when looking for a structure file.
var Extensions = []string{
	".cif.gz", ".cif", ".pdb.gz", ".pdb", ".ent.gz", ".ent",
}

// Dir reads structures from files in a directory. A structure with
// identifier "1abc" is looked up as "1abc" with each of the Extensions,
// first as given and then in lower case, and finally as the PDB mirror name
// "pdb1abc.ent.gz".
//
// When Assembly is set, every structure is expanded into that biological
// assembly (see ReadAssembly).
type Dir struct {
	Root     string
	Assembly string
}

// ReadStructure reads the structure with the identifier given. The
// structure returned always carries that identifier.
func (d Dir) ReadStructure(ctx context.Context, id string) (*motif.Structure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fpath, err := d.Find(id)
	if err != nil {
		return nil, err
	}
	s, err := ReadAssembly(fpath, d.Assembly)
	if err != nil {
		return nil, err
	}
	s.Id = id
	s.Content = Classify(id)
	return s, nil
}

// Find returns the path of the file holding the structure with the
// identifier given.
func (d Dir) Find(id string) (string, error) {
	var candidates []string
	for _, name := range []string{id, strings.ToLower(id)} {
		for _, ext := range Extensions {
			candidates = append(candidates, path.Join(d.Root, name+ext))
		}
	}
	candidates = append(candidates,
		path.Join(d.Root, "pdb"+strings.ToLower(id)+".ent.gz"))
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("Could not find structure '%s' in '%s'.", id, d.Root)
}

// Memory holds structures in memory. It is safe for concurrent use.
type Memory struct {
	lock       *sync.RWMutex
	structures map[string]*motif.Structure
}

// NewMemory returns a source of the structures given.
func NewMemory(structures ...*motif.Structure) *Memory {
	m := &Memory{
		lock:       new(sync.RWMutex),
		structures: make(map[string]*motif.Structure, len(structures)),
	}
	for _, s := range structures {
		m.Add(s)
	}
	return m
}

// Add adds a structure, replacing any structure with the same identifier.
func (m *Memory) Add(s *motif.Structure) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.structures[s.Id] = s
}

// ReadStructure returns the structure with the identifier given.
func (m *Memory) ReadStructure(ctx context.Context, id string) (*motif.Structure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.lock.RLock()
	defer m.lock.RUnlock()
	s, ok := m.structures[id]
	if !ok {
		return nil, fmt.Errorf("Unknown structure '%s'.", id)
	}
	return s, nil
}
