package motif

import "context"

// Bucket is a cursor over the occurrences of a single descriptor in an
// inverted index, grouped by structure. A fresh bucket is positioned before
// its first structure, and each structure is positioned before its first
// occurrence:
//
//	for b.NextStructure() {
//		s := b.StructureIndex()
//		for b.NextOccurrence() {
//			i, j := b.ResidueIndices()
//			...
//		}
//	}
type Bucket interface {
	NextStructure() bool
	StructureIndex() int
	NextOccurrence() bool

	// ResidueIndices returns the indices of the residues of the current
	// occurrence in the structure. The first residue holds the first
	// (canonical) residue type of the descriptor.
	ResidueIndices() (int, int)

	// Operators returns the identifiers of the operators that produced the
	// residues of the current occurrence.
	Operators() (string, string)
}

// StructureIndex maps between the identifiers of structures and the dense
// integer indices used by an inverted index.
type StructureIndex interface {
	Len() int
	Identifier(i int) string
	Index(id string) (int, bool)
	ContentType(i int) ContentType
}

// Structures provides the residues and atoms of structures by identifier.
// The residues returned must be in the same order as when the structure was
// indexed, since buckets refer to residues by index.
//
// Implementations must be safe for concurrent use and should stop early
// when the context is done.
type Structures interface {
	ReadStructure(ctx context.Context, id string) (*Structure, error)
}
