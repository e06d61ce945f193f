package mat

import (
	"math"
)

// SymTensor is a symmetric 3x3 tensor stored as its six independent
// components: XX, YY, ZZ, XY, XZ, YZ.
type SymTensor [6]float64

const (
	XX = iota
	YY
	ZZ
	XY
	XZ
	YZ
)

// Dense returns the row-major values of the full tensor.
func (s *SymTensor) Dense() []float64 {
	return []float64{
		s[XX], s[XY], s[XZ],
		s[XY], s[YY], s[YZ],
		s[XZ], s[YZ], s[ZZ],
	}
}

// Eigenvalues returns the three roots of the characteristic polynomial of s,
// computed with the trigonometric solution of the depressed cubic. The roots
// are ordered from largest to smallest. ok is false if any root is not
// finite.
//
// When rounding error pushes the argument of the arccosine outside of
// [-1, 1], the radius term is reset so that the argument is exactly -1 or +1.
func (s *SymTensor) Eigenvalues() (roots [3]float64, ok bool) {
	xx, yy, zz := s[XX], s[YY], s[ZZ]
	xy, xz, yz := s[XY], s[XZ], s[YZ]

	b := -(xx + yy + zz)
	c := xx*zz + xx*yy + yy*zz - xz*xz - xy*xy - yz*yz
	d := xz*yy*xz + xy*zz*xy + yz*xx*yz - xx*yy*zz - 2*xy*yz*xz

	f := ((3 * c) - (b * b)) / 3
	g := ((2 * b * b * b) - (9 * b * c) + (27 * d)) / 27
	h := (g * g / 4) + (f * f * f / 27)

	rsquare := (g * g / 4) - h
	if rsquare < 0 {
		// Only reachable through rounding: a symmetric tensor always has
		// three real roots.
		rsquare = 0
	}
	r := math.Sqrt(rsquare)

	var arg float64
	if r == 0 {
		arg = 1
	} else {
		arg = -g / (2 * r)
		if arg < -1 {
			r = g / 2
			arg = -1
		} else if arg > 1 {
			r = -g / 2
			arg = 1
		}
	}
	theta := math.Acos(arg)

	rc := math.Cbrt(r)
	cs, sn := math.Cos(theta/3), math.Sin(theta/3)
	sqrt3 := math.Sqrt(3)

	roots[0] = 2*rc*cs - b/3
	roots[1] = -rc*(cs-sqrt3*sn) - b/3
	roots[2] = -rc*(cs+sqrt3*sn) - b/3

	for _, x := range roots {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return roots, false
		}
	}
	return roots, true
}
