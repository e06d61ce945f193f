package crystal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Euler holds Bunge Euler angles (phi1, Phi, phi2) in radians.
type Euler [3]float64

// Matrix returns the passive orientation matrix g of the Euler angles, which
// maps sample coordinates to crystal coordinates.
func (e Euler) Matrix() Rotation {
	c1, s1 := math.Cos(e[0]), math.Sin(e[0])
	c2, s2 := math.Cos(e[1]), math.Sin(e[1])
	c3, s3 := math.Cos(e[2]), math.Sin(e[2])

	return Rotation{
		{c1*c3 - s1*s3*c2, s1*c3 + c1*s3*c2, s3 * s2},
		{-c1*s3 - s1*c3*c2, -s1*s3 + c1*c3*c2, c3 * s2},
		{s1 * s2, -c1 * s2, c2},
	}
}

// EulerFromMatrix inverts Euler.Matrix. ok is false when Phi is 0 or pi,
// where phi1 and phi2 are not separable.
func EulerFromMatrix(g *Rotation) (e Euler, ok bool) {
	e[1] = math.Acos(clamp(g[2][2], -1, 1))
	s := math.Sin(e[1])
	if s == 0 {
		return e, false
	}

	cos3, sin3 := g[1][2]/s, g[0][2]/s
	cos1, sin1 := -g[2][1]/s, g[2][0]/s

	e[2] = math.Acos(clamp(cos3, -1, 1))
	e[0] = math.Acos(clamp(cos1, -1, 1))
	if sin3 < 0 {
		e[2] = 2*math.Pi - e[2]
	}
	if sin1 < 0 {
		e[0] = 2*math.Pi - e[0]
	}
	return e, true
}

// SampleZ returns the crystal direction parallel to the sample z axis, the
// third column of the orientation matrix.
func (e Euler) SampleZ() r3.Vec {
	g := e.Matrix()
	return r3.Vec{X: g[0][2], Y: g[1][2], Z: g[2][2]}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	} else if x > hi {
		return hi
	}
	return x
}
