// Package prune reduces the residue pair graph of a motif to a spanning tree.
// Every edge of the tree costs one round of index lookups during a search, so
// only the most selective edges that still connect every residue are kept.
package prune

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/descriptor"
)

// MinResidues is the smallest motif that is pruned. Smaller motifs keep all
// of their edges.
const MinResidues = 4

// Frequency reports how often a descriptor occurs in an index. Rare
// descriptors are the most selective.
type Frequency func(d descriptor.Descriptor) int

// Rank returns a copy of occs sorted from most to least selective: by
// frequency, then by backbone distance bin (close residues first) and
// finally by residue indices. A nil freq ranks by distance alone.
func Rank(occs []contact.Occurrence, freq Frequency) []contact.Occurrence {
	counts := make(map[descriptor.Descriptor]int, len(occs))
	if freq != nil {
		for _, o := range occs {
			if _, ok := counts[o.Descriptor]; !ok {
				counts[o.Descriptor] = freq(o.Descriptor)
			}
		}
	}

	ranked := append([]contact.Occurrence{}, occs...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if ca, cb := counts[a.Descriptor], counts[b.Descriptor]; ca != cb {
			return ca < cb
		}
		ba, bb := a.Descriptor.Fields().Backbone, b.Descriptor.Fields().Backbone
		if ba != bb {
			return ba < bb
		}
		if a.I != b.I {
			return a.I < b.I
		}
		return a.J < b.J
	})
	return ranked
}

// Kruskal returns a minimum spanning forest of the residue pair graph occs,
// where edges are weighted by their rank (see Rank). The edges are returned
// in rank order, which is the order in which a search should process them.
//
// If occs touches fewer than MinResidues residues, every edge is returned in
// rank order.
func Kruskal(occs []contact.Occurrence, freq Frequency) []contact.Occurrence {
	ranked := Rank(occs, freq)
	if len(Residues(ranked)) < MinResidues {
		return ranked
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for r, o := range ranked {
		from, to := simple.Node(o.I), simple.Node(o.J)
		if o.I == o.J || g.HasEdgeBetween(from.ID(), to.ID()) {
			continue
		}
		g.SetWeightedEdge(g.NewWeightedEdge(from, to, float64(r+1)))
	}

	tree := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	path.Kruskal(tree, g)

	var keep []int
	edges := tree.WeightedEdges()
	for edges.Next() {
		keep = append(keep, int(edges.WeightedEdge().Weight())-1)
	}
	sort.Ints(keep)

	pruned := make([]contact.Occurrence, 0, len(keep))
	for k, r := range keep {
		if k > 0 && keep[k-1] == r {
			continue
		}
		pruned = append(pruned, ranked[r])
	}
	return pruned
}

// Residues returns the sorted indices of the residues touched by occs.
func Residues(occs []contact.Occurrence) []int {
	seen := make(map[int]bool)
	var rs []int
	for _, o := range occs {
		for _, r := range [2]int{o.I, o.J} {
			if !seen[r] {
				seen[r] = true
				rs = append(rs, r)
			}
		}
	}
	sort.Ints(rs)
	return rs
}

// Components returns the number of connected components of the graph with
// n vertices (numbered 0 to n-1) and the edges in occs. Vertices without
// edges are components of their own.
func Components(n int, occs []contact.Occurrence) int {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for _, o := range occs {
		if o.I == o.J || o.I >= n || o.J >= n {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(o.I), simple.Node(o.J)))
	}
	return len(topo.ConnectedComponents(g))
}
