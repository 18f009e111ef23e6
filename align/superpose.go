package align

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/TuftsBCB/structure"

	"github.com/TuftsBCB/motif"
)

// Superpose finds the rigid transformation of ref minimizing its RMSD to
// cand, where ref[i] corresponds to cand[i].
//
// The rotation is the eigenvector of the largest eigenvalue of Horn's 4x4
// quaternion matrix built from the cross-covariance of the centered sets.
func Superpose(ref, cand []structure.Coords) (Result, error) {
	if len(ref) != len(cand) {
		return Result{}, fmt.Errorf(
			"Superposition requires sets of equal size, but got %d and %d.",
			len(ref), len(cand))
	}
	if len(ref) == 0 {
		return Result{}, motif.Invalidf("Cannot superimpose empty sets of atoms.")
	}

	cr, cc := centroid(ref), centroid(cand)

	// Cross-covariance S[a][b] = sum p_a * q_b.
	var s [3][3]float64
	for i := range ref {
		p := [3]float64{ref[i].X - cr.X, ref[i].Y - cr.Y, ref[i].Z - cr.Z}
		q := [3]float64{cand[i].X - cc.X, cand[i].Y - cc.Y, cand[i].Z - cc.Z}
		for a := 0; a < 3; a++ {
			for b := 0; b < 3; b++ {
				s[a][b] += p[a] * q[b]
			}
		}
	}
	sxx, sxy, sxz := s[0][0], s[0][1], s[0][2]
	syx, syy, syz := s[1][0], s[1][1], s[1][2]
	szx, szy, szz := s[2][0], s[2][1], s[2][2]

	n := mat.NewSymDense(4, []float64{
		sxx + syy + szz, syz - szy, szx - sxz, sxy - syx,
		syz - szy, sxx - syy - szz, sxy + syx, szx + sxz,
		szx - sxz, sxy + syx, -sxx + syy - szz, syz + szy,
		sxy - syx, szx + sxz, syz + szy, -sxx - syy + szz,
	})
	var es mat.EigenSym
	if ok := es.Factorize(n, true); !ok {
		return Result{}, fmt.Errorf("Eigen-decomposition of the quaternion " +
			"matrix did not converge.")
	}
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	// Eigenvalues are in ascending order, so the last column is the
	// quaternion of the optimal rotation.
	q0, q1, q2, q3 := vecs.At(0, 3), vecs.At(1, 3), vecs.At(2, 3), vecs.At(3, 3)
	norm := math.Sqrt(q0*q0 + q1*q1 + q2*q2 + q3*q3)
	q0, q1, q2, q3 = q0/norm, q1/norm, q2/norm, q3/norm

	rot := mat.NewDense(4, 4, []float64{
		q0*q0 + q1*q1 - q2*q2 - q3*q3, 2 * (q1*q2 - q0*q3), 2 * (q1*q3 + q0*q2), 0,
		2 * (q1*q2 + q0*q3), q0*q0 - q1*q1 + q2*q2 - q3*q3, 2 * (q2*q3 - q0*q1), 0,
		2 * (q1*q3 - q0*q2), 2 * (q2*q3 + q0*q1), q0*q0 - q1*q1 - q2*q2 + q3*q3, 0,
		0, 0, 0, 1,
	})

	var m mat.Dense
	m.Mul(translation(cc.X, cc.Y, cc.Z), rot)
	m.Mul(&m, translation(-cr.X, -cr.Y, -cr.Z))

	var tr motif.Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			tr[i][j] = m.At(i, j)
		}
	}

	var sum float64
	for i := range ref {
		moved := tr.Apply(ref[i])
		dx, dy, dz := moved.X-cand[i].X, moved.Y-cand[i].Y, moved.Z-cand[i].Z
		sum += dx*dx + dy*dy + dz*dz
	}
	return Result{
		RMSD:      math.Sqrt(sum / float64(len(ref))),
		Transform: tr,
	}, nil
}

func translation(x, y, z float64) *mat.Dense {
	return mat.NewDense(4, 4, []float64{
		1, 0, 0, x,
		0, 1, 0, y,
		0, 0, 1, z,
		0, 0, 0, 1,
	})
}

func centroid(cs []structure.Coords) structure.Coords {
	var c structure.Coords
	for _, p := range cs {
		c.X += p.X
		c.Y += p.Y
		c.Z += p.Z
	}
	n := float64(len(cs))
	return structure.Coords{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}
