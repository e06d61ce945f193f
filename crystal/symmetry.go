// Package crystal contains crystal symmetry operators and the orientation
// math built on top of them: Bunge Euler matrices, misorientation angles,
// fundamental-zone Euler binning, and inverse pole figure colors.
package crystal

import (
	"fmt"
	"math"
	"strings"
)

// Class identifies a crystal symmetry class. The numeric values are chosen so
// that 12 * Class is the number of symmetry operators.
type Class int

const (
	Hexagonal Class = 1
	Cubic     Class = 2
)

// Rotation is a 3x3 rotation matrix, indexed as [row][column].
type Rotation [3][3]float64

var hexA = math.Sqrt(3) / 2

var cubicOps = [24]Rotation{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	{{1, 0, 0}, {0, 0, 1}, {0, -1, 0}},
	{{0, 0, -1}, {0, 1, 0}, {1, 0, 0}},
	{{0, 0, 1}, {0, 1, 0}, {-1, 0, 0}},
	{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
	{{0, 1, 0}, {-1, 0, 0}, {0, 0, 1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, -1, 0}, {0, 0, 1}, {-1, 0, 0}},
	{{0, 0, 1}, {-1, 0, 0}, {0, -1, 0}},
	{{0, -1, 0}, {0, 0, -1}, {1, 0, 0}},
	{{0, 0, -1}, {1, 0, 0}, {0, -1, 0}},
	{{0, 1, 0}, {0, 0, -1}, {-1, 0, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 0, 1}, {0, -1, 0}, {1, 0, 0}},
	{{-1, 0, 0}, {0, 0, -1}, {0, -1, 0}},
	{{0, 0, -1}, {0, -1, 0}, {-1, 0, 0}},
	{{0, -1, 0}, {-1, 0, 0}, {0, 0, -1}},
}

var hexOps = [12]Rotation{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{-0.5, hexA, 0}, {-hexA, -0.5, 0}, {0, 0, 1}},
	{{-0.5, -hexA, 0}, {hexA, -0.5, 0}, {0, 0, 1}},
	{{0.5, hexA, 0}, {-hexA, 0.5, 0}, {0, 0, 1}},
	{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
	{{0.5, -hexA, 0}, {hexA, 0.5, 0}, {0, 0, 1}},
	{{-0.5, -hexA, 0}, {-hexA, 0.5, 0}, {0, 0, -1}},
	{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	{{-0.5, hexA, 0}, {hexA, 0.5, 0}, {0, 0, -1}},
	{{0.5, hexA, 0}, {hexA, -0.5, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	{{0.5, -hexA, 0}, {-hexA, -0.5, 0}, {0, 0, -1}},
}

// The two-fold rotations about the sample axes which are applied on the
// right when reducing measured orientations into the binned fundamental
// zone.
var sampleOps = [4]Rotation{
	{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, 1, 0}, {0, 0, -1}},
	{{-1, 0, 0}, {0, -1, 0}, {0, 0, 1}},
}

// Ops returns the number of symmetry operators of the class.
func (c Class) Ops() int {
	switch c {
	case Hexagonal:
		return len(hexOps)
	case Cubic:
		return len(cubicOps)
	}
	return 0
}

// Op returns the i-th symmetry operator of the class.
func (c Class) Op(i int) Rotation {
	switch c {
	case Hexagonal:
		return hexOps[i]
	case Cubic:
		return cubicOps[i]
	}
	panic(fmt.Sprintf("Unrecognized crystal class %d.", int(c)))
}

func (c Class) String() string {
	switch c {
	case Hexagonal:
		return "Hexagonal"
	case Cubic:
		return "Cubic"
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ParseClass converts a case-insensitive class name into a Class.
func ParseClass(name string) (Class, error) {
	for _, c := range []Class{Hexagonal, Cubic} {
		if strings.EqualFold(c.String(), name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("Unrecognized crystal structure '%s'.", name)
}

// Mul returns the matrix product a * b.
func (a *Rotation) Mul(b *Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][0]*b[0][j] + a[i][1]*b[1][j] + a[i][2]*b[2][j]
		}
	}
	return out
}

// MulTranspose returns the matrix product a * b^T.
func (a *Rotation) MulTranspose(b *Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][0]*b[j][0] + a[i][1]*b[j][1] + a[i][2]*b[j][2]
		}
	}
	return out
}

// Trace returns the sum of the diagonal of r.
func (r *Rotation) Trace() float64 {
	return r[0][0] + r[1][1] + r[2][2]
}
