// Package search finds the occurrences of a structural motif in the
// structures of an inverted index.
//
// A query is answered in three steps. First, the residue pair graph of the
// motif is reduced to a spanning tree of its most selective edges. Second,
// the edges are processed one generation at a time: the first edge seeds a
// set of target structures from the index, and every following edge narrows
// the residue assignments (paths) of each target to those consistent with
// the residues shared with earlier edges. Third, every surviving path is
// superimposed onto the motif and reported as a hit if its RMSD is small
// enough.
//
// Every query runs on its own pool of goroutines, all of which have exited
// by the time Search or SearchEach returns, including on timeout.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/align"
	"github.com/TuftsBCB/motif/contact"
	"github.com/TuftsBCB/motif/descriptor"
	"github.com/TuftsBCB/motif/prune"
)

// Index is an inverted index from descriptor keys to the residue pairs of
// the indexed structures. Select must return an empty bucket for a key that
// isn't in the index. Cutoff and Policy are the contact cutoff and operator
// policy the index was built with.
//
// An Index must be safe for concurrent use.
type Index interface {
	Select(key descriptor.Descriptor) motif.Bucket
	Count(key descriptor.Descriptor) int
	Cutoff() float64
	Policy() contact.OperatorPolicy
}

// Searcher runs queries against an index. The index and the structure
// providers are shared by all queries and are never modified.
type Searcher struct {
	index   Index
	structs motif.StructureIndex
	data    motif.Structures
}

// New creates a searcher. structs maps the structure indices of the index to
// identifiers, and data reads the residues of a structure for scoring.
func New(
	index Index,
	structs motif.StructureIndex,
	data motif.Structures,
) *Searcher {
	return &Searcher{index: index, structs: structs, data: data}
}

// Generation records what happened while processing one query edge.
type Generation struct {
	// The query edge: positions of its residues and its descriptor.
	I, J       int
	Descriptor descriptor.Descriptor

	// The number of index keys looked up.
	Probes int

	// Structures and paths left after the generation.
	Targets int
	Paths   int

	Elapsed time.Duration
}

// Result is the outcome of a query.
type Result struct {
	Id          uuid.UUID
	Edges       int
	Generations []Generation
	Candidates  int
	Hits        []motif.Hit
}

// Search returns the hits of the motif made of the residues given, best
// first, up to opts.Limit hits.
//
// The errors returned are *motif.InvalidQueryError, *motif.TimeoutError,
// *motif.InternalError or context.Canceled.
func (s *Searcher) Search(
	ctx context.Context,
	residues []*motif.Residue,
	opts Options,
) (*Result, error) {
	tree := new(bst)
	emit := func(hit motif.Hit) error {
		if opts.Limit == 0 {
			return errLimit
		}
		// Skip the hit if we're at the limit and it isn't better than the
		// worst hit we have.
		if tree.size == opts.Limit && !hit.Less(tree.max().Hit) {
			return nil
		}
		tree.insert(hit)
		if opts.Limit >= 0 && tree.size == opts.Limit+1 {
			tree.deleteMax()
		}

		// Sanity check.
		if opts.Limit >= 0 && tree.size > opts.Limit {
			panic(fmt.Sprintf("Tree size (%d) is bigger than limit (%d).",
				tree.size, opts.Limit))
		}
		return nil
	}

	res, err := s.run(ctx, residues, opts, emit)
	if err != nil {
		return nil, err
	}
	res.Hits = tree.hits()
	return res, nil
}

// SearchEach is like Search, but calls fn for every hit as soon as it is
// found instead of collecting the hits. Calls to fn are serialized. The
// order of hits is unspecified and at most opts.Limit hits are passed to fn,
// after which the query stops.
//
// If fn returns an error, the query stops and the error is returned as is.
func (s *Searcher) SearchEach(
	ctx context.Context,
	residues []*motif.Residue,
	opts Options,
	fn func(motif.Hit) error,
) error {
	delivered := 0
	emit := func(hit motif.Hit) error {
		if opts.Limit >= 0 && delivered >= opts.Limit {
			return errLimit
		}
		if err := fn(hit); err != nil {
			return &consumerError{err}
		}
		delivered++
		if opts.Limit >= 0 && delivered >= opts.Limit {
			return errLimit
		}
		return nil
	}
	_, err := s.run(ctx, residues, opts, emit)
	return err
}

// errLimit stops a query once enough hits were found.
var errLimit = errors.New("hit limit reached")

type consumerError struct {
	err error
}

func (err *consumerError) Error() string {
	return err.err.Error()
}

// run executes a query and passes every hit to emit. Calls to emit are
// serialized.
func (s *Searcher) run(
	ctx context.Context,
	residues []*motif.Residue,
	opts Options,
	emit func(motif.Hit) error,
) (*Result, error) {
	q, err := s.prepare(residues, opts)
	if err != nil {
		return nil, err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	r := &run{
		Searcher: s,
		id:       uuid.New(),
		opts:     opts,
		q:        q,
		space:    s.newSpace(opts),
		pool:     newPool(opts.threads()),
		lock:     new(sync.Mutex),
		emit:     emit,
	}
	res := &Result{Id: r.id, Edges: len(q.edges)}

	start := time.Now()
	err = r.assemble(ctx, res)
	if err == nil {
		err = r.score(ctx, res)
	}
	r.pool.close()
	r.logf("%d hits from %d candidates in %s",
		r.emitted, res.Candidates, time.Since(start))

	if errors.Is(err, errLimit) {
		err = nil
	}
	if err != nil {
		var cerr *consumerError
		if errors.As(err, &cerr) {
			return nil, cerr.err
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &motif.TimeoutError{After: opts.Timeout}
		}
		return nil, motif.Classify(err, opts.Timeout)
	}
	return res, nil
}

// query is a motif prepared for searching.
type query struct {
	residues []*motif.Residue

	// The pruned edges in the order they are processed, and the probes of
	// each edge.
	edges  []edge
	descs  []descriptor.Descriptor
	probes [][]probe
}

// probe is an index key to look up for an edge. When forward is set, the
// first residue of an occurrence in the bucket is matched to the first
// residue of the edge. When reverse is set, it is matched to the second.
type probe struct {
	key              descriptor.Descriptor
	forward, reverse bool
}

// prepare validates a motif and computes its pruned edges.
func (s *Searcher) prepare(residues []*motif.Residue, opts Options) (*query, error) {
	n := len(residues)
	if n < 2 {
		return nil, motif.Invalidf(
			"A motif needs at least two residues, but got %d.", n)
	}
	for i, r := range residues {
		if r == nil {
			return nil, motif.Invalidf("The motif residue %d is missing.", i)
		}
		if r.Backbone == nil || r.SideChain == nil {
			return nil, motif.Invalidf("The motif residue %d (%s) has no "+
				"backbone or side-chain representative.", i, r.ResidueIdentifier)
		}
	}
	for pos := range opts.Exchanges {
		if pos < 0 || pos >= n {
			return nil, motif.Invalidf("Exchanges are given for residue %d, "+
				"but the motif only has %d residues.", pos, n)
		}
	}
	if _, _, err := align.Pair(residues, residues, opts.Scheme); err != nil {
		return nil, err
	}

	cutoff := s.index.Cutoff()
	occs := contact.Build(residues, contact.Options{
		Cutoff:    cutoff,
		Operators: contact.Any,
	})
	if len(occs) == 0 {
		return nil, motif.Invalidf("No two motif residues are within %0.1f "+
			"Angstroms of each other.", cutoff)
	}
	if c := prune.Components(n, occs); c > 1 {
		return nil, motif.Invalidf("The motif residues fall apart into %d "+
			"groups that are more than %0.1f Angstroms apart.", c, cutoff)
	}

	// Only query edges the index can hold may be used as edges. An identity
	// only index holds none of the copies, so any edge is matched against
	// the identity residues of a target.
	if policy := s.index.Policy(); policy == contact.WithIdentity {
		occs = contact.Build(residues, contact.Options{
			Cutoff:    cutoff,
			Operators: policy,
		})
		if len(occs) == 0 || prune.Components(n, occs) > 1 {
			return nil, motif.Invalidf("The motif residues are only "+
				"connected through contacts between two different "+
				"transformed copies, which an index built with policy "+
				"'%s' does not hold.", policy)
		}
	}

	q := &query{residues: residues}
	for _, o := range prune.Kruskal(occs, s.index.Count) {
		e := edge{I: o.I, J: o.J}
		q.edges = append(q.edges, e)
		q.descs = append(q.descs, o.Descriptor)
		q.probes = append(q.probes, probes(o.Descriptor, opts.tolerance(),
			opts.Exchanges[e.I], opts.Exchanges[e.J]))
	}
	return q, nil
}

// probes returns the index keys to look up for a query edge with descriptor
// d, sorted by key.
func probes(
	d descriptor.Descriptor,
	tol descriptor.Tolerance,
	ex1, ex2 []motif.ResidueType,
) []probe {
	byKey := make(map[descriptor.Descriptor]*probe)
	var keys []descriptor.Descriptor
	for _, x := range descriptor.Expand(d, tol, ex1, ex2) {
		key := x.Key()
		p, ok := byKey[key]
		if !ok {
			p = &probe{key: key}
			byKey[key] = p
			keys = append(keys, key)
		}
		switch {
		case x.Ambiguous():
			p.forward, p.reverse = true, true
		case x.Flipped():
			p.reverse = true
		default:
			p.forward = true
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	ps := make([]probe, len(keys))
	for i, key := range keys {
		ps[i] = *byKey[key]
	}
	return ps
}

// space is the set of structures a query may match.
type space struct {
	allowed map[int]bool
	ignored map[int]bool
	content map[motif.ContentType]bool
}

func (s *Searcher) newSpace(opts Options) space {
	var sp space
	if len(opts.Allowed) > 0 {
		sp.allowed = make(map[int]bool, len(opts.Allowed))
		for _, id := range opts.Allowed {
			if si, ok := s.structs.Index(id); ok {
				sp.allowed[si] = true
			}
		}
	}
	if len(opts.Ignored) > 0 {
		sp.ignored = make(map[int]bool, len(opts.Ignored))
		for _, id := range opts.Ignored {
			if si, ok := s.structs.Index(id); ok {
				sp.ignored[si] = true
			}
		}
	}
	if len(opts.Content) > 0 {
		sp.content = make(map[motif.ContentType]bool, len(opts.Content))
		for _, ct := range opts.Content {
			sp.content[ct] = true
		}
	}
	return sp
}

// admits reports whether the structure with index si may be searched.
func (sp space) admits(structs motif.StructureIndex, si int) bool {
	if sp.allowed != nil && !sp.allowed[si] {
		return false
	}
	if sp.ignored[si] {
		return false
	}
	if sp.content != nil && !sp.content[structs.ContentType(si)] {
		return false
	}
	return true
}

// run is the state of a single query.
type run struct {
	*Searcher
	id    uuid.UUID
	opts  Options
	q     *query
	space space
	pool  *pool

	// The live targets, rebuilt every generation.
	targets []*target

	// Protects emit and emitted.
	lock    *sync.Mutex
	emit    func(motif.Hit) error
	emitted int
}

func (r *run) logf(format string, v ...interface{}) {
	if !r.opts.Verbose {
		return
	}
	log.Printf("[%s] "+format, append([]interface{}{r.id}, v...)...)
}
