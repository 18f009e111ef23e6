package descriptor

import (
	"sort"

	"github.com/TuftsBCB/motif"
)

// Tolerance is the number of bins by which each field of a descriptor may
// deviate from the query when looking it up in an index.
type Tolerance struct {
	Backbone  int
	SideChain int
	Angle     int
}

// Expand returns every descriptor reachable from d by changing each bin by
// at most the tolerance given and by substituting the residue types of d
// with the types in ex1 and ex2. ex1 and ex2 apply to the residues in the
// order d was encoded from (see Raw), and always implicitly include the
// original type.
//
// The flip bit of every returned descriptor states the orientation relative
// to the residue order of d. The result is sorted and free of duplicates.
func Expand(d Descriptor, tol Tolerance, ex1, ex2 []motif.ResidueType) []Descriptor {
	raw := d.Raw()
	types1 := withType(raw.Type1, ex1)
	types2 := withType(raw.Type2, ex2)

	bb := binRange(raw.Backbone, tol.Backbone, MaxDistanceBin)
	sc := binRange(raw.SideChain, tol.SideChain, MaxDistanceBin)
	ang := binRange(raw.Angle, tol.Angle, MaxAngleBin)

	seen := make(map[Descriptor]bool)
	var out []Descriptor
	for _, t1 := range types1 {
		for _, t2 := range types2 {
			for b := bb[0]; b <= bb[1]; b++ {
				for s := sc[0]; s <= sc[1]; s++ {
					for a := ang[0]; a <= ang[1]; a++ {
						e := Encode(t1, t2, b, s, a)
						if !seen[e] {
							seen[e] = true
							out = append(out, e)
						}
					}
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func withType(t motif.ResidueType, exchanges []motif.ResidueType) []motif.ResidueType {
	types := []motif.ResidueType{t}
	for _, ex := range exchanges {
		if ex != t {
			types = append(types, ex)
		}
	}
	return types
}

func binRange(bin, tol, max int) [2]int {
	if tol < 0 {
		tol = 0
	}
	lo, hi := bin-tol, bin+tol
	if lo < 0 {
		lo = 0
	}
	if hi > max {
		hi = max
	}
	return [2]int{lo, hi}
}
