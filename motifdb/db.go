package motifdb

import (
	"archive/tar"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	path "path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/descriptor"
)

const (
	fileIndex      = "index.db"
	fileStructures = "structures.json"
)

// Operator identifiers are stored in a single byte per residue.
const maxOperators = 256

// Entry describes a single indexed structure.
type Entry struct {
	Id       string
	Assembly string `json:",omitempty"`
	Content  motif.ContentType
}

// meta is everything about an index that is not a bucket.
type meta struct {
	Cutoff     float64
	Operators  contact.OperatorPolicy
	OperatorId []string
	Structures []Entry
}

// DB is an inverted index of residue pair descriptors. A DB is either built
// in memory (New), built and written to disk (Create) or read from disk
// (Open). Buckets can only be selected once the DB is closed (or opened).
type DB struct {
	// The name of this index. For indexes on disk, this is the base name of
	// the file path.
	Name string

	meta   meta
	ids    map[string]int
	opIds  map[string]uint8
	lock   *sync.Mutex // Protects structure and operator registration.
	closed bool

	pending map[descriptor.Descriptor][]posting
	buckets map[descriptor.Descriptor]*bucket

	tw          *tar.Writer   // The writer archive, nil unless created.
	outf        *os.File      // The file backing tw.
	writeBuf    *bytes.Buffer // Temporary buffer for binary.
	writingDone chan struct{} // Indicate when writing is done.
	entryChan   chan indexed  // Concurrent writing.
}

// indexed is a structure whose residue graph has been computed, waiting to
// be put into buckets.
type indexed struct {
	structIdx int32
	occs      []contact.Occurrence
	ops       [][2]uint8
}

// posting is a single occurrence of a descriptor, before buckets are packed.
type posting struct {
	structIdx int32
	i, j      int32
	opi, opj  uint8
}

// New creates an empty in-memory index with the given cutoff and operator
// policy. Structures are added with Add, and Close must be called before the
// index can be searched.
func New(cutoff float64, policy contact.OperatorPolicy) *DB {
	db := &DB{
		meta: meta{
			Cutoff:    cutoff,
			Operators: policy,
		},
		ids:         make(map[string]int, 1000),
		opIds:       make(map[string]uint8, 10),
		lock:        new(sync.Mutex),
		pending:     make(map[descriptor.Descriptor][]posting, 1<<16),
		writingDone: make(chan struct{}),
		entryChan:   make(chan indexed, 100),
	}

	// Now spin up a goroutine that is responsible for filling buckets.
	go func() {
		for entry := range db.entryChan {
			db.post(entry)
		}
		db.writingDone <- struct{}{}
	}()
	return db
}

// Create creates a new index that is written to disk at fpath when Close is
// called. If the file already exists or cannot be created, an error is
// returned.
func Create(
	fpath string,
	cutoff float64,
	policy contact.OperatorPolicy,
) (*DB, error) {
	if _, err := os.Stat(fpath); err == nil || !os.IsNotExist(err) {
		return nil, fmt.Errorf("Motif index '%s' already exists.", fpath)
	}
	outf, err := os.Create(fpath)
	if err != nil {
		return nil, err
	}

	db := New(cutoff, policy)
	db.Name = path.Base(fpath)
	db.outf = outf
	db.tw = tar.NewWriter(outf)
	db.writeBuf = new(bytes.Buffer)

	// Put all index files in a directory within the archive.
	hdrDir := db.newHdrDir(db.dirName())
	if err := db.tw.WriteHeader(hdrDir); err != nil {
		outf.Close()
		return nil, err
	}
	return db, nil
}

// Add computes the residue graph of a structure and adds its occurrences to
// the index. It is safe to call Add from multiple goroutines; the residue
// graphs are computed concurrently.
//
// Add panics if it is called on a closed index.
func (db *DB) Add(s *motif.Structure) error {
	if db.entryChan == nil {
		panic("Cannot add to a motif index opened in read mode.")
	}

	db.lock.Lock()
	if db.closed {
		db.lock.Unlock()
		panic("Cannot add to a closed motif index.")
	}
	if _, ok := db.ids[s.Id]; ok {
		db.lock.Unlock()
		return fmt.Errorf("Structure '%s' is already in the index.", s.Id)
	}
	structIdx := len(db.meta.Structures)
	db.ids[s.Id] = structIdx
	db.meta.Structures = append(db.meta.Structures, Entry{
		Id:       s.Id,
		Assembly: s.Assembly,
		Content:  s.Content,
	})
	opIdx, err := db.registerOperators(s.Residues)
	db.lock.Unlock()
	if err != nil {
		return err
	}

	occs, stats := contact.BuildStats(s.Residues, contact.Options{
		Cutoff:    db.meta.Cutoff,
		Operators: db.meta.Operators,
	})
	if stats.Rejected > 0 {
		log.Printf("%s: rejected %d overlaid residue pairs.", s.Id, stats.Rejected)
	}

	ops := make([][2]uint8, len(occs))
	for k, o := range occs {
		ops[k] = [2]uint8{opIdx[o.I], opIdx[o.J]}
	}
	db.entryChan <- indexed{structIdx: int32(structIdx), occs: occs, ops: ops}
	return nil
}

// registerOperators assigns a byte to every operator identifier used by the
// residues given and returns the byte for each residue. The caller must hold
// the lock.
func (db *DB) registerOperators(residues []*motif.Residue) ([]uint8, error) {
	opIdx := make([]uint8, len(residues))
	for i, r := range residues {
		op := r.Operator
		if op == "" {
			op = motif.IdentityOperator
		}
		idx, ok := db.opIds[op]
		if !ok {
			if len(db.meta.OperatorId) >= maxOperators {
				return nil, fmt.Errorf("Too many distinct operators (more "+
					"than %d) in motif index.", maxOperators)
			}
			idx = uint8(len(db.meta.OperatorId))
			db.opIds[op] = idx
			db.meta.OperatorId = append(db.meta.OperatorId, op)
		}
		opIdx[i] = idx
	}
	return opIdx, nil
}

func (db *DB) post(entry indexed) {
	for k, o := range entry.occs {
		db.pending[o.Descriptor] = append(db.pending[o.Descriptor], posting{
			structIdx: entry.structIdx,
			i:         int32(o.I),
			j:         int32(o.J),
			opi:       entry.ops[k][0],
			opj:       entry.ops[k][1],
		})
	}
}

// Close finishes building an index. All pending structures are put into
// buckets and, for an index made with Create, the index is written to disk.
// Close must be called before searching an index built with New or Create.
// Calling Close on an opened index does nothing.
func (db *DB) Close() error {
	if db.entryChan == nil {
		return nil
	}
	db.lock.Lock()
	if db.closed {
		db.lock.Unlock()
		return nil
	}
	db.closed = true
	db.lock.Unlock()

	close(db.entryChan)
	<-db.writingDone

	db.buckets = make(map[descriptor.Descriptor]*bucket, len(db.pending))
	for key, posts := range db.pending {
		db.buckets[key] = pack(posts)
	}
	db.pending = nil

	if db.tw == nil {
		return nil
	}
	if err := db.writeArchive(); err != nil {
		db.outf.Close()
		return err
	}
	if err := db.tw.Close(); err != nil {
		db.outf.Close()
		return fmt.Errorf("Could not close motif index archive: %s", err)
	}
	return db.outf.Close()
}

func (db *DB) writeArchive() error {
	metaBytes := new(bytes.Buffer)
	if err := json.NewEncoder(metaBytes).Encode(db.meta); err != nil {
		return fmt.Errorf("Could not encode structures: %s", err)
	}
	hdr := db.newHdr(fileStructures, metaBytes.Len())
	if err := db.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("Could not write TAR header for structures: %s", err)
	}
	if _, err := db.tw.Write(metaBytes.Bytes()); err != nil {
		return fmt.Errorf("Could not write structures: %s", err)
	}

	saveBuf := new(bytes.Buffer)
	keys := make([]descriptor.Descriptor, 0, len(db.buckets))
	for key := range db.buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, key := range keys {
		if err := db.writeBucket(saveBuf, key, db.buckets[key]); err != nil {
			return err
		}
	}

	hdr = db.newHdr(fileIndex, saveBuf.Len())
	if err := db.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("Could not write TAR header for index: %s", err)
	}
	if _, err := db.tw.Write(saveBuf.Bytes()); err != nil {
		return fmt.Errorf("Could not write contents of index: %s", err)
	}
	return nil
}

// String returns the name of the index.
func (db *DB) String() string {
	return db.Name
}

func (db *DB) newHdr(name string, size int) *tar.Header {
	now := time.Now()
	return &tar.Header{
		Name:       path.Join(db.dirName(), name),
		Mode:       0644,
		Uid:        os.Getuid(),
		Gid:        os.Getgid(),
		Size:       int64(size),
		ModTime:    now,
		AccessTime: now,
		ChangeTime: now,
	}
}

func (db *DB) newHdrDir(name string) *tar.Header {
	h := db.newHdr(name, 0)
	h.Name = name
	h.Typeflag = tar.TypeDir
	h.Mode = 0755
	return h
}

func (db *DB) dirName() string {
	return strings.TrimSuffix(db.Name, path.Ext(db.Name))
}
