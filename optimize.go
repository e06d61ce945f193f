package grainsynth

import (
	"math"
	"sort"

	"github.com/phil-mansfield/grainsynth/crystal"
	"gonum.org/v1/gonum/floats"
)

// misorientationRange is the span, in degrees, covered by the misorientation
// histogram.
const misorientationRange = 100

// zeroMisorientationPenalty is added to a grain's rank for every neighbor
// with an identical orientation.
const zeroMisorientationPenalty = 100

// MeasureMisorientations computes the misorientation, in degrees, between
// every grain and each of its neighbors.
func (c *Context) MeasureMisorientations() {
	for i := range c.Packed {
		p := &c.Packed[i]
		if cap(p.Misorientations) < len(p.Neighbors) {
			p.Misorientations = make([]float64, len(p.Neighbors))
		}
		p.Misorientations = p.Misorientations[:len(p.Neighbors)]
		for j, n := range p.Neighbors {
			p.Misorientations[j] = crystal.MisorientationDegrees(
				c.Params.Crystal, p.Euler, c.Packed[n].Euler,
			)
		}
	}
}

func misorientationBin(miso float64, bins int) int {
	b := int(miso / (misorientationRange / float64(bins)))
	if b >= bins {
		b = bins - 1
	} else if b < 0 {
		b = 0
	}
	return b
}

func fractionBin(frac float64, bins int) int {
	b := int(frac * float64(bins))
	if b >= bins {
		b = bins - 1
	} else if b < 0 {
		b = 0
	}
	return b
}

// misorientationHistogram bins every measured misorientation. Each
// boundary is counted once from each side.
func (c *Context) misorientationHistogram() (heights []float64, count int) {
	heights = make([]float64, len(c.Store.Misorientation))
	for i := range c.Packed {
		for _, m := range c.Packed[i].Misorientations {
			heights[misorientationBin(m, len(heights))]++
			count++
		}
	}
	return heights, count
}

// microtextureHistogram bins the low-angle fraction of every grain.
func (c *Context) microtextureHistogram() []float64 {
	heights := make([]float64, len(c.Store.Microtexture))
	for i := range c.Packed {
		f := c.Packed[i].LowAngleFraction
		heights[fractionBin(f, len(heights))]++
	}
	return heights
}

// deviation returns the total absolute difference between the simulated
// heights and the target heights scaled to count samples.
func deviation(sim, target []float64, count float64) float64 {
	expected := make([]float64, len(target))
	floats.ScaleTo(expected, count, target)
	return floats.Distance(sim, expected, 1)
}

type binsByDiff struct {
	idx  []int
	diff []float64
}

func (b *binsByDiff) Len() int           { return len(b.idx) }
func (b *binsByDiff) Less(i, j int) bool { return b.diff[i] < b.diff[j] }
func (b *binsByDiff) Swap(i, j int) {
	b.idx[i], b.idx[j] = b.idx[j], b.idx[i]
	b.diff[i], b.diff[j] = b.diff[j], b.diff[i]
}

// rankBins orders histogram bins by how far they are from their target
// height. The worst bin gets a rank with magnitude len(sim), the next
// len(sim)-1, and so on. The rank is negative when the bin is
// under-populated.
func rankBins(sim, target []float64, count float64) []float64 {
	n := len(sim)
	b := &binsByDiff{idx: make([]int, n), diff: make([]float64, n)}
	for k := range sim {
		b.idx[k] = k
		b.diff[k] = math.Abs(sim[k] - target[k]*count)
	}
	sort.Stable(sort.Reverse(b))

	ranks := make([]float64, n)
	for check, k := range b.idx {
		r := float64(n - check)
		if sim[k] < target[k]*count {
			r = -r
		}
		ranks[k] = r
	}
	return ranks
}

// CountLowAngle sets each grain's fraction of low-angle boundaries.
func (c *Context) CountLowAngle() {
	for i := range c.Packed {
		p := &c.Packed[i]
		p.LowAngleFraction = 0
		if len(p.Misorientations) == 0 {
			continue
		}
		low := 0
		for _, m := range p.Misorientations {
			if m < c.Params.LowAngle {
				low++
			}
		}
		p.LowAngleFraction = float64(low) / float64(len(p.Misorientations))
	}
}

// freeze marks grains which are part of a low-angle cluster.
func (c *Context) freeze() {
	limit := c.Params.FreezeFraction
	for i := range c.Packed {
		p := &c.Packed[i]
		p.Frozen = p.LowAngleFraction > limit
		for j, n := range p.Neighbors {
			if c.Packed[n].LowAngleFraction > limit &&
				p.Misorientations[j] < c.Params.LowAngle {
				p.Frozen = true
			}
		}
	}
}

func (c *Context) rankMisorientationGrains(binRanks []float64) {
	for i := range c.Packed {
		p := &c.Packed[i]
		p.Rank = 0
		for _, m := range p.Misorientations {
			p.Rank += binRanks[misorientationBin(m, len(binRanks))]
			if m == 0 {
				p.Rank += zeroMisorientationPenalty
			}
		}
	}
}

func (c *Context) rankMicrotextureGrains() {
	for i := range c.Packed {
		p := &c.Packed[i]
		own := p.LowAngleFraction
		rank := 0.0
		for j, n := range p.Neighbors {
			nf := c.Packed[n].LowAngleFraction
			if nf > 0.24 {
				nf *= 4
			}
			if nf > 0.74 {
				nf *= 2
			}
			t := nf
			if p.Misorientations[j] < c.Params.LowAngle {
				t = 0
				if nf > 4 {
					rank = 0
					break
				}
			}
			if own < 0.4 {
				t *= 2
			}
			rank += t
		}
		p.Rank = rank
	}
}

type grainsByRank struct {
	idx  []int
	rank []float64
}

func (g *grainsByRank) Len() int           { return len(g.idx) }
func (g *grainsByRank) Less(i, j int) bool { return g.rank[i] < g.rank[j] }
func (g *grainsByRank) Swap(i, j int) {
	g.idx[i], g.idx[j] = g.idx[j], g.idx[i]
	g.rank[i], g.rank[j] = g.rank[j], g.rank[i]
}

// worstGrains returns grain indices ordered from highest to lowest rank,
// ties in index order.
func (c *Context) worstGrains() []int {
	g := &grainsByRank{
		idx: make([]int, len(c.Packed)), rank: make([]float64, len(c.Packed)),
	}
	for i := range c.Packed {
		g.idx[i], g.rank[i] = i, c.Packed[i].Rank
	}
	sort.Stable(sort.Reverse(g))
	return g.idx
}

func (c *Context) snapshotEulers() {
	for i := range c.Packed {
		c.Packed[i].OldEuler = c.Packed[i].Euler
	}
}

func (c *Context) restoreEulers() {
	for i := range c.Packed {
		c.Packed[i].Euler = c.Packed[i].OldEuler
	}
}

// pickIndex draws a uniform index into a list of length n.
func (c *Context) pickIndex(n int) int {
	r := int(c.Rand.Float64() * float64(n))
	if r >= n {
		r = n - 1
	}
	return r
}

// permutePicked gives the moves worst unfrozen grains the previous
// orientation of another randomly chosen grain from the same set. It returns
// the picked grains in index order.
func (c *Context) permutePicked(moves int) (picked []int) {
	for _, i := range c.worstGrains() {
		if len(picked) == moves {
			break
		}
		if !c.Packed[i].Frozen {
			picked = append(picked, i)
		}
	}
	sort.Ints(picked)

	pool := append([]int(nil), picked...)
	for _, j := range picked {
		r := c.pickIndex(len(pool))
		if pool[r] == j && len(pool) > 1 {
			r = (r + 1) % len(pool)
		}
		swap := pool[r]
		pool = append(pool[:r], pool[r+1:]...)
		c.Packed[j].Euler = c.Packed[swap].OldEuler
	}
	return picked
}

// swapPicked swaps the orientations of the moves worst grains with grains
// drawn at random from the next moves worst grains. Only grains with a
// positive rank take part. It returns both sets in index order.
func (c *Context) swapPicked(moves int) (bad, none []int) {
	for _, i := range c.worstGrains() {
		if c.Packed[i].Rank <= 0 {
			break
		}
		if len(bad) < moves {
			bad = append(bad, i)
		} else if len(none) < moves {
			none = append(none, i)
		} else {
			break
		}
	}
	sort.Ints(bad)
	sort.Ints(none)

	pool := append([]int(nil), none...)
	for _, j := range bad {
		if len(pool) == 0 {
			break
		}
		r := c.pickIndex(len(pool))
		swap := pool[r]
		pool = append(pool[:r], pool[r+1:]...)
		c.Packed[j].Euler = c.Packed[swap].OldEuler
		c.Packed[swap].Euler = c.Packed[j].OldEuler
	}
	return bad, none
}

// misorientationDeviation measures the current misorientations and returns
// the deviation of their histogram from the target.
func (c *Context) misorientationDeviation() (heights []float64, count int, dev float64) {
	c.MeasureMisorientations()
	heights, count = c.misorientationHistogram()
	dev = deviation(heights, c.Store.Misorientation, float64(count))
	return heights, count, dev
}

// MisorientationPass moves the orientations of the grains whose boundaries
// contribute most to the misorientation histogram error. A pass which would
// increase the error is undone. It returns the error after the pass.
func (c *Context) MisorientationPass() float64 {
	heights, count, before := c.misorientationDeviation()
	binRanks := rankBins(heights, c.Store.Misorientation, float64(count))
	c.CountLowAngle()
	c.freeze()
	c.rankMisorientationGrains(binRanks)

	c.snapshotEulers()
	c.permutePicked(c.Params.MisorientationMoves)

	heights, _, after := c.misorientationDeviation()
	if after > before {
		c.restoreEulers()
		heights, _, after = c.misorientationDeviation()
	}
	c.MisoHeights = heights
	c.CountLowAngle()
	return after
}

// microtextureConverged reports whether the top microtexture bin is within
// tolerance of its target, along with the relative shortfall.
func (c *Context) microtextureConverged(heights []float64) (bool, float64) {
	top := len(heights) - 1
	if top < 0 {
		return true, 0
	}
	target := c.Store.Microtexture[top] * float64(len(c.Packed))
	if target == 0 {
		return true, 0
	}
	shortfall := (target - heights[top]) / target
	return shortfall < c.Params.MicrotextureTolerance, shortfall
}

// MicrotexturePass measures the low-angle fraction histogram and, unless it
// has already converged, swaps orientations between grains to grow low-angle
// clusters. It returns true if the histogram had converged.
func (c *Context) MicrotexturePass() bool {
	c.MeasureMisorientations()
	c.CountLowAngle()
	heights := c.microtextureHistogram()
	c.MicroHeights = heights

	converged, shortfall := c.microtextureConverged(heights)
	c.MicroHistory = append(c.MicroHistory, shortfall)
	if converged {
		return true
	}

	c.rankMicrotextureGrains()
	c.snapshotEulers()
	c.swapPicked(c.Params.MicrotextureMoves)
	return false
}

// Optimize runs the misorientation passes, then microtexture passes until
// the microtexture histogram converges, then the misorientation passes
// again. MisoHistory[MisoPhaseStart] is the error after the microtexture
// passes, and the error never increases within either misorientation phase.
func (c *Context) Optimize() {
	_, _, dev := c.misorientationDeviation()
	c.MisoHistory = append(c.MisoHistory[:0], dev)
	c.MicroHistory = c.MicroHistory[:0]

	for i := 0; i < c.Params.MisorientationIterations; i++ {
		c.MisoHistory = append(c.MisoHistory, c.MisorientationPass())
	}
	c.logf("Misorientation error %g -> %g",
		c.MisoHistory[0], c.MisoHistory[len(c.MisoHistory)-1])

	c.Converged = false
	for i := 0; i < c.Params.MicrotextureIterations; i++ {
		if c.MicrotexturePass() {
			c.Converged = true
			break
		}
	}
	c.logf("Microtexture passes: %d, converged: %v",
		len(c.MicroHistory), c.Converged)

	_, _, dev = c.misorientationDeviation()
	c.MisoPhaseStart = len(c.MisoHistory)
	c.MisoHistory = append(c.MisoHistory, dev)
	for i := 0; i < c.Params.MisorientationIterations; i++ {
		c.MisoHistory = append(c.MisoHistory, c.MisorientationPass())
	}

	heights, _, dev := c.misorientationDeviation()
	c.MisoHeights = heights
	c.CountLowAngle()
	c.MicroHeights = c.microtextureHistogram()
	c.logf("Final misorientation error %g", dev)
}
