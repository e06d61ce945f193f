package crystal

import (
	"math"
	"sort"
)

// IPFColor returns an RGB triplet, each component in [0.25, 1], which
// colors an orientation by the crystal direction parallel to the sample z
// axis.
func IPFColor(e Euler) [3]float64 {
	cd := e.SampleZ()

	norm := math.Abs(cd.Z)
	if norm == 0 {
		norm = math.Max(math.Abs(cd.X), math.Abs(cd.Y))
	}
	sd := []float64{
		math.Abs(cd.X / norm), math.Abs(cd.Y / norm), math.Abs(cd.Z / norm),
	}
	sort.Float64s(sd)

	b := sd[0]
	g := sd[1] - b
	r := sd[2] - g - b

	max := math.Max(r, math.Max(g, b))
	return [3]float64{
		0.75*(r/max) + 0.25,
		0.75*(g/max) + 0.25,
		0.75*(b/max) + 0.25,
	}
}
