package search

import (
	"context"
	"sort"
	"sync"
	"time"
)

// target is a structure that matched every query edge processed so far.
//
// A path assigns a residue of the structure to each query residue, by
// position in the query. Query residues not touched by any processed edge
// are unbound (-1). Targets are never modified once built: each generation
// builds new targets from the old ones.
type target struct {
	index int
	paths [][]int32

	// The operator of each residue in a path, as reported by the index.
	ops map[int32]string
}

// match is an occurrence of a query edge in a structure: a is the residue
// matched to the first residue of the edge and b the residue matched to the
// second.
type match struct {
	a, b     int32
	opa, opb string
}

// assemble processes the query edges in order, leaving the targets that
// matched all of them in r.targets.
func (r *run) assemble(ctx context.Context, res *Result) error {
	for g := range r.q.edges {
		start := time.Now()
		var err error
		if g == 0 {
			err = r.seed(ctx)
		} else {
			err = r.extend(ctx, g)
		}
		if err != nil {
			return err
		}

		gen := Generation{
			I:          r.q.edges[g].I,
			J:          r.q.edges[g].J,
			Descriptor: r.q.descs[g],
			Probes:     len(r.q.probes[g]),
			Targets:    len(r.targets),
			Elapsed:    time.Since(start),
		}
		for _, t := range r.targets {
			gen.Paths += len(t.paths)
		}
		res.Generations = append(res.Generations, gen)
		r.logf("generation %d: edge (%d, %d) %s, %d probes, "+
			"%d targets, %d paths (%s)",
			g, gen.I, gen.J, gen.Descriptor, gen.Probes,
			gen.Targets, gen.Paths, gen.Elapsed)

		// Later edges can only remove targets. Since targets are only seeded
		// from the allowed structures, this also stops a query whose allow
		// list has nothing left in it.
		if len(r.targets) == 0 {
			if g+1 < len(r.q.edges) {
				r.logf("no targets left, skipping %d edges",
					len(r.q.edges)-g-1)
			}
			return nil
		}
	}
	return nil
}

// collect looks up every probe of edge g and returns the matches per
// structure index. When live is not nil, only structures in it are kept;
// otherwise the search space decides.
func (r *run) collect(
	ctx context.Context,
	g int,
	live map[int]int,
) (map[int][]match, error) {
	probes := r.q.probes[g]
	all := make(map[int][]match)
	var lock sync.Mutex

	err := r.pool.forEach(ctx, len(probes), func(ctx context.Context, k int) error {
		p := probes[k]
		found := make(map[int][]match)
		b := r.index.Select(p.key)
		for b.NextStructure() {
			if err := ctx.Err(); err != nil {
				return err
			}
			si := b.StructureIndex()
			if live != nil {
				if _, ok := live[si]; !ok {
					continue
				}
			} else if !r.space.admits(r.structs, si) {
				continue
			}
			for b.NextOccurrence() {
				i, j := b.ResidueIndices()
				opi, opj := b.Operators()
				if p.forward {
					found[si] = append(found[si],
						match{int32(i), int32(j), opi, opj})
				}
				if p.reverse {
					found[si] = append(found[si],
						match{int32(j), int32(i), opj, opi})
				}
			}
		}

		lock.Lock()
		defer lock.Unlock()
		for si, ms := range found {
			all[si] = append(all[si], ms...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for si, ms := range all {
		all[si] = uniqueMatches(ms)
	}
	return all, nil
}

// seed creates a target for every structure matching the first edge.
func (r *run) seed(ctx context.Context) error {
	found, err := r.collect(ctx, 0, nil)
	if err != nil {
		return err
	}

	e := r.q.edges[0]
	n := len(r.q.residues)
	r.targets = make([]*target, 0, len(found))
	for si, ms := range found {
		t := &target{index: si, ops: make(map[int32]string)}
		for _, m := range ms {
			if m.a == m.b {
				continue
			}
			path := unbound(n)
			path[e.I], path[e.J] = m.a, m.b
			t.paths = append(t.paths, path)
			t.ops[m.a], t.ops[m.b] = m.opa, m.opb
		}
		if len(t.paths) > 0 {
			r.targets = append(r.targets, t)
		}
	}
	sort.Slice(r.targets, func(i, j int) bool {
		return r.targets[i].index < r.targets[j].index
	})
	return nil
}

// extend rebuilds the targets with the matches of edge g. Targets without a
// path consistent with edge g are dropped.
func (r *run) extend(ctx context.Context, g int) error {
	live := make(map[int]int, len(r.targets))
	for slot, t := range r.targets {
		live[t.index] = slot
	}
	found, err := r.collect(ctx, g, live)
	if err != nil {
		return err
	}

	e := r.q.edges[g]
	first, second := shared(overlaps(r.q.edges, g))
	next := make([]*target, len(r.targets))
	err = r.pool.forEach(ctx, len(r.targets), func(ctx context.Context, slot int) error {
		old := r.targets[slot]
		ms := found[old.index]
		if len(ms) == 0 {
			return nil
		}
		next[slot] = grow(old, ms, e, first, second)
		return nil
	})
	if err != nil {
		return err
	}

	r.targets = r.targets[:0:0]
	for _, t := range next {
		if t != nil {
			r.targets = append(r.targets, t)
		}
	}
	return nil
}

// grow returns a new target whose paths are the paths of old extended by
// the matches of edge e, or nil if no path could be extended. first and
// second report whether the residues of e are already bound in every path.
// A structure residue is never assigned to two query residues.
func grow(old *target, ms []match, e edge, first, second bool) *target {
	t := &target{index: old.index, ops: make(map[int32]string, len(old.ops))}
	for k, v := range old.ops {
		t.ops[k] = v
	}

	var byBound map[int32][]match
	switch {
	case first:
		byBound = make(map[int32][]match)
		for _, m := range ms {
			byBound[m.a] = append(byBound[m.a], m)
		}
	case second:
		byBound = make(map[int32][]match)
		for _, m := range ms {
			byBound[m.b] = append(byBound[m.b], m)
		}
	}

	for _, path := range old.paths {
		candidates := ms
		switch {
		case first:
			candidates = byBound[path[e.I]]
		case second:
			candidates = byBound[path[e.J]]
		}
		for _, m := range candidates {
			if m.a == m.b {
				continue
			}
			if first {
				if path[e.I] != m.a {
					continue
				}
			} else if contains(path, m.a) {
				continue
			}
			if second {
				if path[e.J] != m.b {
					continue
				}
			} else if contains(path, m.b) {
				continue
			}

			grown := append([]int32(nil), path...)
			grown[e.I], grown[e.J] = m.a, m.b
			t.paths = append(t.paths, grown)
			t.ops[m.a], t.ops[m.b] = m.opa, m.opb
		}
	}
	if len(t.paths) == 0 {
		return nil
	}
	return t
}

func unbound(n int) []int32 {
	path := make([]int32, n)
	for i := range path {
		path[i] = -1
	}
	return path
}

func contains(path []int32, residue int32) bool {
	for _, r := range path {
		if r == residue {
			return true
		}
	}
	return false
}

// uniqueMatches sorts matches and removes duplicates, which show up when a
// key is probed in both orientations.
func uniqueMatches(ms []match) []match {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].a != ms[j].a {
			return ms[i].a < ms[j].a
		}
		return ms[i].b < ms[j].b
	})
	out := ms[:0]
	for _, m := range ms {
		if n := len(out); n > 0 && m.a == out[n-1].a && m.b == out[n-1].b {
			continue
		}
		out = append(out, m)
	}
	return out
}
