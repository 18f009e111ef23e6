package search

import (
	"fmt"
)

// Overlap describes which endpoints two edges of a query graph share. The
// first word names the endpoint of the earlier edge and the second word the
// endpoint of the later edge, so SecondFirst means that the second residue
// of the earlier edge is the first residue of the later edge.
//
// The query graph is simple, so two distinct edges share at most one residue.
type Overlap uint8

const (
	None Overlap = iota
	FirstFirst
	FirstSecond
	SecondFirst
	SecondSecond
)

func (o Overlap) String() string {
	switch o {
	case None:
		return "none"
	case FirstFirst:
		return "first-first"
	case FirstSecond:
		return "first-second"
	case SecondFirst:
		return "second-first"
	case SecondSecond:
		return "second-second"
	}
	panic(fmt.Sprintf("Unknown overlap: %d", o))
}

// edge is a pruned query edge. I and J are query residue positions.
type edge struct {
	I, J int
}

func overlapOf(earlier, later edge) Overlap {
	switch {
	case earlier.I == later.I:
		return FirstFirst
	case earlier.I == later.J:
		return FirstSecond
	case earlier.J == later.I:
		return SecondFirst
	case earlier.J == later.J:
		return SecondSecond
	}
	return None
}

// overlaps returns the overlap of every edge before g with edge g.
func overlaps(edges []edge, g int) []Overlap {
	ov := make([]Overlap, g)
	for i := 0; i < g; i++ {
		ov[i] = overlapOf(edges[i], edges[g])
	}
	return ov
}

// shared reports whether the first and second residues of the later edge
// coincide with a residue of any earlier edge.
func shared(ov []Overlap) (first, second bool) {
	for _, o := range ov {
		switch o {
		case FirstFirst, SecondFirst:
			first = true
		case FirstSecond, SecondSecond:
			second = true
		}
	}
	return
}
