// Package mat contains the small fixed-size linear algebra used to place and
// measure grains: axis frame solves and symmetric tensor eigenvalues.
package mat

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrSingular is returned when a Frame has an all-zero row.
var ErrSingular = errors.New("Frame is singular.")

// tinyPivot replaces exact zero pivots so that nearly singular frames still
// factor.
const tinyPivot = 1e-40

// Frame is a 3x3 row-major matrix whose columns are the axes of a local
// coordinate frame.
type Frame [9]float64

// FromAxes returns the Frame whose columns are a0, a1, and a2.
func FromAxes(a0, a1, a2 r3.Vec) Frame {
	return Frame{
		a0.X, a1.X, a2.X,
		a0.Y, a1.Y, a2.Y,
		a0.Z, a1.Z, a2.Z,
	}
}

// FrameLU is the LU decomposition of a Frame with scaled partial pivoting.
// Row k of the factors came from row perm[k] of the Frame.
type FrameLU struct {
	lu   [9]float64
	perm [3]int
	sign float64
}

// Factor computes the LU decomposition of f.
func (f *Frame) Factor() (*FrameLU, error) {
	out := &FrameLU{lu: *f, perm: [3]int{0, 1, 2}, sign: 1}
	a := &out.lu

	var scale [3]float64
	for i := 0; i < 3; i++ {
		big := math.Max(math.Abs(a[3*i]),
			math.Max(math.Abs(a[3*i+1]), math.Abs(a[3*i+2])))
		if big == 0 {
			return nil, ErrSingular
		}
		scale[i] = 1 / big
	}

	for k := 0; k < 3; k++ {
		p, best := k, -1.0
		for i := k; i < 3; i++ {
			if w := scale[i] * math.Abs(a[3*i+k]); w > best {
				p, best = i, w
			}
		}
		if p != k {
			for j := 0; j < 3; j++ {
				a[3*k+j], a[3*p+j] = a[3*p+j], a[3*k+j]
			}
			out.perm[k], out.perm[p] = out.perm[p], out.perm[k]
			scale[k], scale[p] = scale[p], scale[k]
			out.sign = -out.sign
		}

		if a[3*k+k] == 0 {
			a[3*k+k] = tinyPivot
		}
		for i := k + 1; i < 3; i++ {
			a[3*i+k] /= a[3*k+k]
			for j := k + 1; j < 3; j++ {
				a[3*i+j] -= a[3*i+k] * a[3*k+j]
			}
		}
	}

	return out, nil
}

// Solve returns the components x of b in the frame, so that F x = b.
func (lu *FrameLU) Solve(b r3.Vec) r3.Vec {
	a := &lu.lu
	in := [3]float64{b.X, b.Y, b.Z}

	var x [3]float64
	for i := 0; i < 3; i++ {
		x[i] = in[lu.perm[i]]
		for j := 0; j < i; j++ {
			x[i] -= a[3*i+j] * x[j]
		}
	}
	for i := 2; i >= 0; i-- {
		for j := i + 1; j < 3; j++ {
			x[i] -= a[3*i+j] * x[j]
		}
		x[i] /= a[3*i+i]
	}

	return r3.Vec{X: x[0], Y: x[1], Z: x[2]}
}

// Determinant returns the determinant of the factored Frame.
func (lu *FrameLU) Determinant() float64 {
	return lu.sign * lu.lu[0] * lu.lu[4] * lu.lu[8]
}
