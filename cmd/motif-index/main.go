// motif-index builds an inverted index of the residue pair descriptors of a
// set of structure files. Structures are identified by the base name of
// their file without extensions, so that the index can be searched against
// the directory holding the files with motif-search.
package main

import (
	"flag"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/internal/cmdutil"
	"github.com/TuftsBCB/motif/motifdb"
	"github.com/TuftsBCB/motif/structio"
)

var (
	flagCutoff    = contact.DefaultCutoff
	flagOperators = contact.IdentityOnly.String()
	flagAssembly  = ""
	flagWorkers   = runtime.NumCPU()
	flagVerbose   = false
)

func init() {
	flag.Float64Var(&flagCutoff, "cutoff", flagCutoff,
		"The maximum distance, in Angstroms, between the alpha-carbons of\n"+
			"two residues in contact.")
	flag.StringVar(&flagOperators, "operators", flagOperators,
		"Which residues of an assembly may be in contact. One of\n"+
			"'identity-only' or 'with-identity'.")
	flag.StringVar(&flagAssembly, "assembly", flagAssembly,
		"When set, every structure is expanded into the biological assembly\n"+
			"with this identifier (for example '1'), as listed in the REMARK\n"+
			"350 records of PDB files or the assembly categories of PDBx/mmCIF\n"+
			"files. Needs the 'with-identity' operator policy.")
	flag.IntVar(&flagWorkers, "workers", flagWorkers,
		"The number of structure files read at the same time.")
	flag.BoolVar(&flagVerbose, "verbose", flagVerbose,
		"When set, progress is logged for every structure.")

	cmdutil.FlagParse(
		"index-path structure-file [structure-file ...]",
		"Writes an inverted index of the residue pair descriptors of every\n"+
			"structure file given to index-path. Structure files may be in\n"+
			"the PDB or PDBx/mmCIF format, optionally gzipped.")
	cmdutil.AssertLeastNArg(2)
}

func main() {
	policy, err := contact.ParsePolicy(flagOperators)
	cmdutil.Assert(err)
	if policy == contact.Any {
		cmdutil.Fatalf("The 'any' operator policy cannot be used for an index.")
	}
	if len(flagAssembly) > 0 && policy != contact.WithIdentity {
		cmdutil.Fatalf("Indexing assembly '%s' needs the 'with-identity' "+
			"operator policy.", flagAssembly)
	}

	db, err := motifdb.Create(cmdutil.Arg(0), flagCutoff, policy)
	cmdutil.Assert(err, "Could not create index '%s'", cmdutil.Arg(0))

	start := time.Now()
	files := make(chan string)
	var wg sync.WaitGroup
	wg.Add(flagWorkers)
	for w := 0; w < flagWorkers; w++ {
		go func() {
			defer wg.Done()
			for fpath := range files {
				s, err := read(fpath)
				if err != nil {
					log.Printf("Skipping '%s': %s", fpath, err)
					continue
				}
				if err := db.Add(s); err != nil {
					log.Printf("Skipping '%s': %s", fpath, err)
					continue
				}
				if flagVerbose {
					log.Printf("Indexed %s", s)
				}
			}
		}()
	}
	for _, fpath := range cmdutil.Args(1) {
		files <- fpath
	}
	close(files)
	wg.Wait()

	cmdutil.Assert(db.Close(), "Could not write index '%s'", cmdutil.Arg(0))
	log.Printf("Indexed %d structures with %d distinct descriptors in %s.",
		db.Len(), db.Keys(), time.Since(start))
}

// read reads a structure file and names the structure after the file.
func read(fpath string) (*motif.Structure, error) {
	s, err := structio.ReadAssembly(fpath, flagAssembly)
	if err != nil {
		return nil, err
	}
	s.Id = strings.SplitN(filepath.Base(fpath), ".", 2)[0]
	s.Content = structio.Classify(s.Id)
	return s, nil
}
