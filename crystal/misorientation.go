package crystal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Misorientation returns the smallest rotation angle (in radians) between
// two orientations over all pairs of symmetry operators of the class, along
// with the rotation axis of that minimal pair. The axis is the zero vector
// when the two orientations coincide.
func Misorientation(c Class, e1, e2 Euler) (angle float64, axis r3.Vec) {
	g1, g2 := e1.Matrix(), e2.Matrix()
	n := c.Ops()

	var sym1 [24]Rotation
	for j := 0; j < n; j++ {
		o := c.Op(j)
		sym1[j] = o.Mul(&g1)
	}

	angle = math.Inf(+1)
	for i := 0; i < n; i++ {
		o := c.Op(i)
		gb := o.Mul(&g2)
		for j := 0; j < n; j++ {
			dg := gb.MulTranspose(&sym1[j])
			w := math.Abs(math.Acos(clamp((dg.Trace()-1)/2, -1, 1)))
			if w < angle {
				angle = w
				axis = rotationAxis(&dg)
			}
		}
	}

	return angle, axis
}

// MisorientationDegrees is Misorientation with the angle converted to
// degrees and the axis dropped.
func MisorientationDegrees(c Class, e1, e2 Euler) float64 {
	w, _ := Misorientation(c, e1, e2)
	return w * 180 / math.Pi
}

func rotationAxis(dg *Rotation) r3.Vec {
	v := r3.Vec{
		X: dg[1][2] - dg[2][1],
		Y: dg[2][0] - dg[0][2],
		Z: dg[0][1] - dg[1][0],
	}
	den := r3.Norm(v)
	if den == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/den, v)
}
