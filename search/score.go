package search

import (
	"context"
	"fmt"

	"github.com/TuftsBCB/motif"
	"github.com/TuftsBCB/motif/align"
)

// score superimposes every path of every target onto the query and emits
// the hits within the RMSD cutoff.
func (r *run) score(ctx context.Context, res *Result) error {
	for _, t := range r.targets {
		res.Candidates += len(t.paths)
	}
	return r.pool.forEach(ctx, len(r.targets), func(ctx context.Context, k int) error {
		return r.scoreTarget(ctx, r.targets[k])
	})
}

func (r *run) scoreTarget(ctx context.Context, t *target) error {
	id := r.structs.Identifier(t.index)
	s, err := r.data.ReadStructure(ctx, id)
	if err != nil {
		return fmt.Errorf("Could not read structure '%s': %w", id, err)
	}

	cand := make([]*motif.Residue, len(r.q.residues))
	for _, path := range t.paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		for k, ri := range path {
			if ri < 0 || int(ri) >= len(s.Residues) {
				return &motif.InternalError{Cause: fmt.Errorf(
					"The index refers to residue %d of '%s', which only "+
						"has %d residues.", ri, id, len(s.Residues))}
			}
			cand[k] = s.Residues[ri]
			if op, ok := t.ops[ri]; ok && op != cand[k].Operator {
				return &motif.InternalError{Cause: fmt.Errorf(
					"The index has operator '%s' for residue %s of '%s', "+
						"but the structure has '%s'.",
					op, cand[k].Label(), id, cand[k].Operator)}
			}
		}

		aligned, err := align.Align(r.q.residues, cand, r.opts.Scheme)
		if err != nil {
			// The query aligns with itself, so only missing atoms in the
			// candidate end up here.
			continue
		}
		if aligned.RMSD > r.opts.RMSDCutoff {
			continue
		}

		hit := motif.Hit{
			StructureId: id,
			Assembly:    s.Assembly,
			Residues:    make([]motif.ResidueIdentifier, len(cand)),
			RMSD:        aligned.RMSD,
			Transform:   aligned.Transform,
		}
		for k, c := range cand {
			hit.Residues[k] = c.ResidueIdentifier
		}
		if err := r.deliver(hit); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) deliver(hit motif.Hit) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.emit(hit); err != nil {
		return err
	}
	r.emitted++
	return nil
}
