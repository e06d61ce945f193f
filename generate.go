package grainsynth

import (
	"math"
	"sort"

	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/grainsynth/dist"
)

// identityAxes is used when no axis orientation records were loaded.
var identityAxes = dist.Axes{{X: 1}, {Y: 1}, {Z: 1}}

type grainsByVolume []Grain

func (gs grainsByVolume) Len() int           { return len(gs) }
func (gs grainsByVolume) Less(i, j int) bool { return gs[i].Volume < gs[j].Volume }
func (gs grainsByVolume) Swap(i, j int)      { gs[i], gs[j] = gs[j], gs[i] }

// Generate draws Params.Grains grains from the distribution store, sizes the
// box from 90% of their total volume, and sorts the grains from largest to
// smallest.
func (c *Context) Generate() error {
	s := c.Store
	grains := make([]Grain, c.Params.Grains)
	totVol := 0.0

	for i := range grains {
		g := &grains[i]

		d := s.Diameters[dist.Sample(s.Diameters, c.Rand.Float64())].Value
		g.Diameter = d
		g.Volume = 4.0 / 3.0 * math.Pi * (d / 2) * (d / 2) * (d / 2)
		size := s.SizeBin(d)

		ba, ca, err := c.sampleShape(i, size)
		if err != nil {
			return err
		}
		g.Axes = [3]float64{1, ba, ca}

		g.Dirs = identityAxes
		if n := len(s.Orientations); n > 0 {
			o := int(c.Rand.Float64() * float64(n))
			if o >= n {
				o = n - 1
			}
			g.Dirs = s.Orientations[o]
		}

		ns := s.NValues[size]
		g.NValue = ns[dist.Sample(ns, c.Rand.Float64())].Value

		totVol += g.Volume
	}

	edge := float64(int(math.Cbrt(0.9 * totVol)))
	c.Size = [3]float64{edge, edge, edge}

	sort.Stable(sort.Reverse(grainsByVolume(grains)))
	for i := range grains {
		grains[i].ID = i
	}
	c.Grains = grains

	c.logf("Generated %d grains in a box of width %g", len(grains), edge)
	return c.InitGrids()
}

// sampleShape draws b/a and c/a for a grain in the given size bin, retrying
// until the implied c/b is plausible under the c/b distribution and no
// larger than one.
func (c *Context) sampleShape(grain, size int) (ba, ca float64, err error) {
	s := c.Store
	baBins, caBins, cbBins := s.BOverA[size], s.COverA[size], s.COverB[size]

	for i := 0; i < c.Params.MaxShapeAttempts; i++ {
		ba = baBins[dist.Sample(baBins, c.Rand.Float64())].Value
		ca = caBins[dist.Sample(caBins, c.Rand.Float64())].Value
		cb := ca / ba

		u := 0.01 * c.Rand.Float64()
		if dist.Below(cbBins, cb) > u && cb <= 1 {
			return ba, ca, nil
		}
	}
	return 0, 0, &SamplingInfeasibleError{
		Grain: grain, Attempts: c.Params.MaxShapeAttempts,
	}
}

// AssignEulers gives every grain an orientation drawn from the store's Euler
// histogram.
func (c *Context) AssignEulers() {
	h := c.Store.Eulers
	if h == nil {
		h = &crystal.EulerHistogram{}
	}
	es := h.Assign(len(c.Grains), c.Rand)
	for i := range c.Grains {
		c.Grains[i].Euler = es[i]
	}
}
