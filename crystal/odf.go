package crystal

import (
	"math"
	"math/rand"
)

const (
	// EulerBins is the number of bins along each Euler angle in an
	// EulerHistogram.
	EulerBins = 18
	// EulerBinWidth is the width of an EulerHistogram bin in radians.
	EulerBinWidth = math.Pi / 36
)

// EulerHistogram counts orientations over the cubic fundamental zone
// [0, pi/2]^3 in 5 degree bins.
type EulerHistogram struct {
	Counts [EulerBins][EulerBins][EulerBins]int
	// Records is the number of raw orientations that were added, before
	// symmetric expansion.
	Records int
	// Total is the number of symmetric variants which landed in a bin.
	Total int
}

// Add expands a measured orientation by the 24 cubic operators on the left
// and the four sample two-fold rotations on the right, and bins every
// variant that lands inside the fundamental zone.
func (h *EulerHistogram) Add(e Euler) {
	h.Records++
	g := e.Matrix()
	for k := range cubicOps {
		mo := cubicOps[k].Mul(&g)
		for p := range sampleOps {
			m1 := mo.Mul(&sampleOps[p])
			ea, ok := EulerFromMatrix(&m1)
			if !ok || !inZone(ea) {
				continue
			}
			i, j, l := binOf(ea[0]), binOf(ea[1]), binOf(ea[2])
			h.Counts[i][j][l]++
			h.Total++
		}
	}
}

func inZone(e Euler) bool {
	for _, x := range e {
		if x < 0 || x > math.Pi/2 {
			return false
		}
	}
	return true
}

func binOf(x float64) int {
	b := int(x / EulerBinWidth)
	if b >= EulerBins {
		b = EulerBins - 1
	}
	return b
}

// Assign draws n orientations. Each bin receives floor(n * count / Records)
// orientations placed uniformly at random within the bin, in bin order.
// Any orientations left after the bins are exhausted are drawn uniformly
// from phi1 in [0, 2pi), Phi in [0, pi), phi2 in [0, 2pi).
func (h *EulerHistogram) Assign(n int, rng *rand.Rand) []Euler {
	out := make([]Euler, 0, n)

	if h.Records > 0 {
	binLoop:
		for i := 0; i < EulerBins; i++ {
			for j := 0; j < EulerBins; j++ {
				for l := 0; l < EulerBins; l++ {
					num := int(float64(n) * float64(h.Counts[i][j][l]) /
						float64(h.Records))
					for m := 0; m < num; m++ {
						if len(out) == n {
							break binLoop
						}
						out = append(out, Euler{
							EulerBinWidth * (float64(i) + rng.Float64()),
							EulerBinWidth * (float64(j) + rng.Float64()),
							EulerBinWidth * (float64(l) + rng.Float64()),
						})
					}
				}
			}
		}
	}

	for len(out) < n {
		out = append(out, Euler{
			rng.Float64() * 2 * math.Pi,
			rng.Float64() * math.Pi,
			rng.Float64() * 2 * math.Pi,
		})
	}
	return out
}
