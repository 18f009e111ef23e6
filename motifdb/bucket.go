package motifdb

import (
	"sort"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/descriptor"
)

// bucket holds all occurrences of a single descriptor key, grouped by
// structure. Occurrences of group g are in the range
// [offsets[g], offsets[g+1]) of pairs (two residue indices per occurrence)
// and ops (two operator bytes per occurrence).
type bucket struct {
	structs []int32
	offsets []int32
	pairs   []int32
	ops     []uint8
}

var emptyBucket = &bucket{offsets: []int32{0}}

func (b *bucket) size() int {
	return len(b.pairs) / 2
}

// pack groups postings by structure, preserving the order of occurrences
// within a structure.
func pack(posts []posting) *bucket {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].structIdx < posts[j].structIdx
	})

	b := &bucket{
		pairs: make([]int32, 0, 2*len(posts)),
		ops:   make([]uint8, 0, 2*len(posts)),
	}
	for k, p := range posts {
		if k == 0 || posts[k-1].structIdx != p.structIdx {
			b.structs = append(b.structs, p.structIdx)
			b.offsets = append(b.offsets, int32(k))
		}
		b.pairs = append(b.pairs, p.i, p.j)
		b.ops = append(b.ops, p.opi, p.opj)
	}
	b.offsets = append(b.offsets, int32(len(posts)))
	return b
}

// Cursor traverses the occurrences of a bucket, one structure at a time.
// A new cursor is positioned before the first structure.
//
// A cursor must not be used from multiple goroutines, but any number of
// cursors may traverse the same bucket concurrently.
type Cursor struct {
	b     *bucket
	opIds []string
	group int
	occ   int
}

// NextStructure moves the cursor to the next structure in the bucket and
// returns false when there are no more structures.
func (c *Cursor) NextStructure() bool {
	if c.group+1 >= len(c.b.structs) {
		c.group = len(c.b.structs)
		return false
	}
	c.group++
	c.occ = int(c.b.offsets[c.group]) - 1
	return true
}

// StructureIndex returns the index of the current structure.
func (c *Cursor) StructureIndex() int {
	return int(c.b.structs[c.group])
}

// NextOccurrence moves the cursor to the next occurrence within the current
// structure and returns false when there are no more occurrences.
func (c *Cursor) NextOccurrence() bool {
	end := int(c.b.offsets[c.group+1])
	if c.occ+1 >= end {
		c.occ = end
		return false
	}
	c.occ++
	return true
}

// ResidueIndices returns the residue indices of the current occurrence. The
// first residue holds the first residue type of the bucket's descriptor.
func (c *Cursor) ResidueIndices() (int, int) {
	return int(c.b.pairs[2*c.occ]), int(c.b.pairs[2*c.occ+1])
}

// Operators returns the operator identifiers of the residues of the current
// occurrence.
func (c *Cursor) Operators() (string, string) {
	return c.opIds[c.b.ops[2*c.occ]], c.opIds[c.b.ops[2*c.occ+1]]
}

// Select returns a cursor over the bucket of the descriptor's key. An
// unknown key results in an empty bucket.
//
// Select panics if the index is still being built.
func (db *DB) Select(d descriptor.Descriptor) motif.Bucket {
	if db.buckets == nil {
		panic("A motif index must be closed before it can be searched.")
	}
	b, ok := db.buckets[d.Key()]
	if !ok {
		b = emptyBucket
	}
	return &Cursor{b: b, opIds: db.meta.OperatorId, group: -1}
}

// Count returns the number of occurrences of the descriptor's key.
func (db *DB) Count(d descriptor.Descriptor) int {
	if b, ok := db.buckets[d.Key()]; ok {
		return b.size()
	}
	return 0
}

// Keys returns the number of distinct descriptor keys in the index.
func (db *DB) Keys() int {
	return len(db.buckets)
}

// Cutoff returns the distance cutoff the index was built with.
func (db *DB) Cutoff() float64 {
	return db.meta.Cutoff
}

// Policy returns the operator policy the index was built with.
func (db *DB) Policy() contact.OperatorPolicy {
	return db.meta.Operators
}

// Assembly returns the biological assembly the structures of the index were
// expanded into, or an empty string if none was. Structures without a
// description of that assembly are indexed unexpanded.
func (db *DB) Assembly() string {
	for _, entry := range db.meta.Structures {
		if entry.Assembly != "" {
			return entry.Assembly
		}
	}
	return ""
}

// Len returns the number of structures in the index.
func (db *DB) Len() int {
	return len(db.meta.Structures)
}

// Identifier returns the identifier of the structure with index i.
func (db *DB) Identifier(i int) string {
	return db.meta.Structures[i].Id
}

// Entry returns the description of the structure with index i.
func (db *DB) Entry(i int) Entry {
	return db.meta.Structures[i]
}

// Index returns the index of the structure with the identifier given.
func (db *DB) Index(id string) (int, bool) {
	i, ok := db.ids[id]
	return i, ok
}

// ContentType returns the content type of the structure with index i.
func (db *DB) ContentType(i int) motif.ContentType {
	return db.meta.Structures[i].Content
}
