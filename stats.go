package grainsynth

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Moments is the mean and standard deviation of a quantity.
type Moments struct {
	Mean, StdDev float64
}

func moments(xs []float64) Moments {
	if len(xs) == 0 {
		return Moments{}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Moments{mean, std}
}

func correlation(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// DiameterBin summarizes the interior grains whose equivalent diameter
// truncates to Diameter.
type DiameterBin struct {
	Diameter, Count                          int
	Neighbors, LnNeighbors, NeighborDiameter Moments
	BOverA, COverA, COverB                   Moments
}

// VolumeStats summarizes the shapes and neighborhoods of the grains which do
// not touch the box surface.
type VolumeStats struct {
	Grains int

	Volume, LnVolume, Neighbors, LnNeighbors Moments
	BOverA, COverA, COverB, Diameter         Moments

	// Correlations of equivalent diameter with each quantity.
	SizeNeighbors, SizeNeighborSize    float64
	SizeBOverA, SizeCOverA, SizeCOverB float64

	Bins []DiameterBin

	// Final histograms, normalized to unit sum.
	Misorientation, Microtexture []float64
}

// ShapeRatios converts the principal values of a moment tensor, largest
// first, into the b/a, c/a, and c/b ratios of the ellipsoid with the same
// moments.
func ShapeRatios(axis [3]float64) (ba, ca, cb float64) {
	i1 := 15 * axis[0] / (4 * math.Pi)
	i2 := 15 * axis[1] / (4 * math.Pi)
	i3 := 15 * axis[2] / (4 * math.Pi)
	A := (i1 + i2 - i3) / 2
	B := (i1 + i3 - i2) / 2
	C := (i2 + i3 - i1) / 2

	a := math.Pow(A*A*A*A/(B*C), 0.1)
	b := math.Sqrt(B/A) * a
	c := A / (a * a * a * b)
	return b / a, c / a, c / b
}

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// voxelDiameter is the diameter of the sphere with the volume of n voxels.
func (c *Context) voxelDiameter(n int) float64 {
	res := &c.Params.Resolution
	v := float64(n) * res[0] * res[1] * res[2]
	return 2 * math.Cbrt(0.75/math.Pi*v)
}

type binAccumulator struct {
	neighbors, lnNeighbors, neighborDiam []float64
	ba, ca, cb                           []float64
}

// VolumeStats computes summary statistics over every grain which does not
// touch the surface of the box. The optimizer histograms are included if
// Optimize has run.
func (c *Context) VolumeStats() *VolumeStats {
	var vol, lnVol, nbrs, lnNbrs, diam []float64
	var ba, ca, cb []float64
	var sizeBA, baOnly, sizeCA, caOnly, sizeCB, cbOnly []float64
	var pairSize, pairNeighbor []float64
	acc := map[int]*binAccumulator{}
	maxBin := -1

	res := &c.Params.Resolution
	for i := range c.Packed {
		p := &c.Packed[i]
		if p.OnEdge || p.Vol == 0 {
			continue
		}

		v := float64(p.Vol) * res[0] * res[1] * res[2]
		d := c.voxelDiameter(p.Vol)
		nn := float64(len(p.Neighbors))

		vol = append(vol, v)
		lnVol = append(lnVol, math.Log(v))
		nbrs = append(nbrs, nn)
		diam = append(diam, d)
		if nn > 0 {
			lnNbrs = append(lnNbrs, math.Log(nn))
		}

		bin := int(d)
		if bin > maxBin {
			maxBin = bin
		}
		a := acc[bin]
		if a == nil {
			a = &binAccumulator{}
			acc[bin] = a
		}
		a.neighbors = append(a.neighbors, nn)
		if nn > 0 {
			a.lnNeighbors = append(a.lnNeighbors, math.Log(nn))
		}

		for _, n := range p.Neighbors {
			nd := c.voxelDiameter(c.Packed[n].Vol)
			a.neighborDiam = append(a.neighborDiam, nd)
			pairSize = append(pairSize, d)
			pairNeighbor = append(pairNeighbor, nd)
		}

		r1, r2, r3 := ShapeRatios(p.Axis)
		if finite(r1) {
			ba, a.ba = append(ba, r1), append(a.ba, r1)
			sizeBA, baOnly = append(sizeBA, d), append(baOnly, r1)
		}
		if finite(r2) {
			ca, a.ca = append(ca, r2), append(a.ca, r2)
			sizeCA, caOnly = append(sizeCA, d), append(caOnly, r2)
		}
		if finite(r3) {
			cb, a.cb = append(cb, r3), append(a.cb, r3)
			sizeCB, cbOnly = append(sizeCB, d), append(cbOnly, r3)
		}
	}

	vs := &VolumeStats{
		Grains:      len(vol),
		Volume:      moments(vol),
		LnVolume:    moments(lnVol),
		Neighbors:   moments(nbrs),
		LnNeighbors: moments(lnNbrs),
		BOverA:      moments(ba),
		COverA:      moments(ca),
		COverB:      moments(cb),
		Diameter:    moments(diam),

		SizeNeighbors:    correlation(diam, nbrs),
		SizeNeighborSize: correlation(pairSize, pairNeighbor),
		SizeBOverA:       correlation(sizeBA, baOnly),
		SizeCOverA:       correlation(sizeCA, caOnly),
		SizeCOverB:       correlation(sizeCB, cbOnly),

		Misorientation: normalized(c.MisoHeights),
		Microtexture:   normalized(c.MicroHeights),
	}

	for bin := 0; bin <= maxBin; bin++ {
		a := acc[bin]
		if a == nil {
			continue
		}
		vs.Bins = append(vs.Bins, DiameterBin{
			Diameter:         bin,
			Count:            len(a.neighbors),
			Neighbors:        moments(a.neighbors),
			LnNeighbors:      moments(a.lnNeighbors),
			NeighborDiameter: moments(a.neighborDiam),
			BOverA:           moments(a.ba),
			COverA:           moments(a.ca),
			COverB:           moments(a.cb),
		})
	}
	return vs
}

func normalized(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	if sum := floats.Sum(out); sum > 0 {
		floats.Scale(1/sum, out)
	}
	return out
}
