/*
Package motif provides the data model shared by every part of the structural
motif search: residue types, residues with their representative points,
structures (optionally expanded into symmetry assemblies), hits and the error
taxonomy reported to callers.

A structural motif is a handful of residues with specific geometric
relationships, for example the catalytic residues of an enzyme. Searching for
a motif means finding every structure in an archive that contains residues of
compatible types arranged in the same way, along with the RMSD of the optimal
superposition of the query onto each occurrence.

The search itself is split into several sub-packages. The grid package finds
residues in contact, the descriptor package packs the geometry of a residue
pair into an integer key, the contact package builds the residue pair graph of
a structure, the prune package reduces a query to a spanning tree, the align
package superimposes residues and the search package ties everything together
on top of an inverted index (see the motifdb package) and a source of
structures (see the structio package).

A central design decision of this package is that all residues and structures
are immutable once constructed. Operations such as applying a symmetry
operator always return new values.
*/
package motif
