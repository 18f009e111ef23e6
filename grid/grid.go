// Package grid finds all pairs of points within a distance cutoff by
// partitioning space into a uniform grid of cubic cells. For point sets of
// roughly uniform density this runs in time linear in the number of points.
package grid

import (
	"math"
	"sort"

	"github.com/TuftsBCB/structure"
)

// Pair is an unordered pair of point indices with I < J.
type Pair struct {
	I, J int
}

// Coordinates are snapped to a fixed point grid with this many units per
// length unit before being assigned to cells.
const precision = 100

type cell struct {
	x, y, z int64
}

// forward holds the 13 neighbouring cell offsets that are lexicographically
// greater than (0, 0, 0). Comparing every cell against itself and these
// neighbours visits every pair of adjacent cells exactly once.
var forward = func() []cell {
	var offs []cell
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				if dx > 0 || (dx == 0 && dy > 0) || (dx == 0 && dy == 0 && dz > 0) {
					offs = append(offs, cell{dx, dy, dz})
				}
			}
		}
	}
	return offs
}()

// Pairs returns every pair of points whose squared distance is strictly less
// than cutoff2. nil points are ignored. Each unordered pair is reported
// exactly once with I < J, and the result is sorted by I and then J.
func Pairs(points []*structure.Coords, cutoff2 float64) []Pair {
	if cutoff2 <= 0 || len(points) < 2 {
		return nil
	}

	// The cell side must not be smaller than the cutoff, otherwise points
	// within range could end up in cells that aren't adjacent.
	side := int64(math.Ceil(math.Sqrt(cutoff2) * precision))
	if side < 1 {
		side = 1
	}

	cells := make(map[cell][]int, len(points))
	for i, p := range points {
		if p == nil {
			continue
		}
		c := cell{
			floorDiv(fixed(p.X), side),
			floorDiv(fixed(p.Y), side),
			floorDiv(fixed(p.Z), side),
		}
		cells[c] = append(cells[c], i)
	}

	var pairs []Pair
	add := func(i, j int) {
		if dist2(points[i], points[j]) >= cutoff2 {
			return
		}
		if i > j {
			i, j = j, i
		}
		pairs = append(pairs, Pair{i, j})
	}
	for c, members := range cells {
		for a := 0; a < len(members); a++ {
			for b := a + 1; b < len(members); b++ {
				add(members[a], members[b])
			}
		}
		for _, off := range forward {
			other, ok := cells[cell{c.x + off.x, c.y + off.y, c.z + off.z}]
			if !ok {
				continue
			}
			for _, i := range members {
				for _, j := range other {
					add(i, j)
				}
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].I != pairs[b].I {
			return pairs[a].I < pairs[b].I
		}
		return pairs[a].J < pairs[b].J
	})
	return pairs
}

func fixed(v float64) int64 {
	return int64(math.Floor(v * precision))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func dist2(a, b *structure.Coords) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}
