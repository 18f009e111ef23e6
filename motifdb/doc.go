/*
Package motifdb provides functions for creating, writing and reading inverted
indexes of residue pair descriptors. An index maps every descriptor key to a
bucket of the occurrences of that descriptor, grouped by structure. It also
keeps the bidirectional mapping between structure identifiers and the dense
integer indices used in buckets.

An index on disk is a tar archive containing a directory with two files: a
JSON file describing the indexed structures and a binary file of
length-prefixed buckets.

Every index is built with one distance cutoff. Queries are built with the same
cutoff, since a query edge longer than the cutoff can never be matched.

Once closed, an index is read-only and may be shared by any number of
concurrently running searches.
*/
package motifdb
