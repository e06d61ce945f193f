package grainsynth

import (
	"math"

	"github.com/phil-mansfield/grainsynth/geom"
	"github.com/phil-mansfield/grainsynth/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/spatial/r3"
)

// initialNSError is the neighbor-size error assigned to a grain before any
// neighbors have been placed next to it.
const initialNSError = 10

// minFrameDeterminant is the smallest axis frame determinant magnitude
// accepted by Pack. The axes of a valid frame are unit vectors, so its
// determinant is close to +-1.
const minFrameDeterminant = 1e-6

// Radii returns the placement semi-axes of g for the given shape class.
func Radii(shape ShapeClass, g *Grain) [3]float64 {
	ba, ca, n := g.Axes[1], g.Axes[2], g.NValue
	v := g.Volume

	var cube float64
	switch shape {
	case CubeOctahedron:
		if n < 0 {
			n = 0
		} else if n > 2 {
			n = 2
		}
		if n <= 1 {
			cube = v * 6 / (6 - n*n*n)
		} else {
			cube = v * 6 / (3 + 9*n - 9*n*n + 2*n*n*n)
		}
	case Superellipsoid:
		beta1 := mathext.Beta(1/n, 1/n)
		beta2 := mathext.Beta(2/n, 1/n)
		cube = v * 1.5 / ba / ca * (n * n / 4) / beta1 / beta2
	default:
		cube = v * 3 / (4 * math.Pi) / ba / ca
	}

	r := math.Cbrt(cube)
	if shape == CubeOctahedron {
		r /= 2
	}
	return [3]float64{r, r * ba, r * ca}
}

// EquivalentDiameter returns the diameter of the sphere with the same volume
// as an ellipsoid with the given semi-axes.
func EquivalentDiameter(radii [3]float64) float64 {
	return 2 * math.Cbrt(radii[0]*radii[1]*radii[2])
}

// Contains returns true if a point with the given axis-frame components,
// each normalized by its semi-axis, lies inside the solid.
func (s ShapeClass) Contains(comp [3]float64, n float64) bool {
	switch s {
	case Superellipsoid:
		sum := 0.0
		for _, x := range comp {
			sum += math.Pow(math.Abs(x), n)
		}
		return 1-sum >= 0
	case CubeOctahedron:
		return cubeOctahedronContains(comp, n)
	default:
		return comp[0]*comp[0]+comp[1]*comp[1]+comp[2]*comp[2] <= 1
	}
}

// cubeOctahedronContains tests a point against the unit cube truncated by
// eight corner planes whose depth is set by n.
func cubeOctahedronContains(comp [3]float64, n float64) bool {
	for _, x := range comp {
		if math.Abs(x) > 1 {
			return false
		}
	}
	a := [3]float64{comp[0] + 1, comp[1] + 1, comp[2] + 1}
	h := 0.5 * n

	for _, sx := range [2]float64{-1, 1} {
		for _, sy := range [2]float64{-1, 1} {
			for _, sz := range [2]float64{-1, 1} {
				offset := -h - h
				if sx > 0 {
					offset += 2
				}
				if sy > 0 {
					offset += 2
				}
				if sz > 0 {
					offset += 2
				}
				if sx*a[0]+sy*a[1]+sz*a[2]-offset > 0 {
					return false
				}
			}
		}
	}
	return true
}

// candidate is one trial placement of a grain.
type candidate struct {
	cell   int
	seed   [3]int
	center r3.Vec
	box    geom.CellBounds

	voxels []int
	coarse []int

	inside, bad int
	removals    []int
	tooMuch     bool

	increase, change float64
}

func (cand *candidate) withinBudget(overlap float64) bool {
	return float64(cand.bad)/float64(cand.inside) <= overlap && !cand.tooMuch
}

func (cand *candidate) acceptable(overlap float64) bool {
	return cand.withinBudget(overlap) &&
		cand.increase >= 0 && cand.change <= 0
}

// Pack places every grain into the fine grid, largest first. Generate must
// have been called.
func (c *Context) Pack() error {
	frames, err := c.preparePacking()
	if err != nil {
		return err
	}

	n := len(c.Grains)
	for i := range c.Grains {
		if err := c.placeGrain(i, frames[i]); err != nil {
			return err
		}
		if (i+1)%100 == 0 || i+1 == n {
			c.logf("Packed %d/%d grains", i+1, n)
		}
	}

	for i := range c.Packed {
		c.Packed[i].CurrentSize = 0
	}
	for i := range c.Fine {
		if g := c.Fine[i].Grain; g >= 0 {
			c.Packed[g].CurrentSize++
		}
	}
	return nil
}

// preparePacking allocates the per-grain packing state and factors each
// grain's axis frame.
func (c *Context) preparePacking() ([]*mat.FrameLU, error) {
	n := len(c.Grains)
	c.Packed = make([]PackedGrain, n)
	c.VoxelLists = make([][]int, n)
	c.nsdist = make([][]float64, n)

	frames := make([]*mat.FrameLU, n)
	for i := range c.Grains {
		g := &c.Grains[i]
		c.Packed[i] = PackedGrain{
			ID:      i,
			Radii:   Radii(c.Params.Shape, g),
			Euler:   g.Euler,
			NSError: initialNSError,
		}
		c.nsdist[i] = make([]float64, c.Store.Dims.SizeBins)

		frame := mat.FromAxes(g.Dirs[0], g.Dirs[1], g.Dirs[2])
		lu, err := frame.Factor()
		if err != nil || math.Abs(lu.Determinant()) < minFrameDeterminant {
			return nil, &DegenerateShapeError{
				Grain: i, Reason: "singular axis frame",
			}
		}
		frames[i] = lu
	}
	return frames, nil
}

// placeGrain searches seeds for grain i until a placement satisfies every
// acceptance test. If the attempts or seeds run out, the candidate with the
// smallest neighbor-size error change that still meets the overlap budget is
// used.
func (c *Context) placeGrain(i int, lu *mat.FrameLU) error {
	c.clearTried()

	var best *candidate
	attempts := 0
	for ; attempts < c.Params.MaxPlacementAttempts; attempts++ {
		cell, ok := c.drawSeed()
		if !ok {
			break
		}
		cand := c.evaluate(i, cell, lu)
		if cand.acceptable(c.Params.OverlapAllowed) {
			c.accept(i, cand)
			return nil
		}
		if cand.withinBudget(c.Params.OverlapAllowed) &&
			(best == nil || cand.change < best.change) {
			best = cand
		}
	}

	if best == nil {
		return &PackingInfeasibleError{
			Grain: i, Attempts: attempts,
			Reason: "no seed satisfied the overlap budget",
		}
	}
	c.accept(i, best)
	return nil
}

func (c *Context) clearTried() {
	for _, cell := range c.tried {
		c.Coarse[cell].Tried = false
	}
	c.tried = c.tried[:0]
}

// drawSeed picks a uniformly random untried coarse cell, preferring free
// ones. ok is false if every cell has been tried.
func (c *Context) drawSeed() (cell int, ok bool) {
	free, untried := 0, 0
	for i := range c.Coarse {
		if c.Coarse[i].Tried {
			continue
		}
		untried++
		if c.Coarse[i].Free {
			free++
		}
	}
	if untried == 0 {
		return -1, false
	}

	onlyFree := free > 0
	n := untried
	if onlyFree {
		n = free
	}
	k := int(c.Rand.Float64() * float64(n))
	if k >= n {
		k = n - 1
	}

	for i := range c.Coarse {
		v := &c.Coarse[i]
		if v.Tried || (onlyFree && !v.Free) {
			continue
		}
		if k == 0 {
			v.Tried = true
			c.tried = append(c.tried, i)
			return i, true
		}
		k--
	}
	panic("Impossible")
}

// evaluate computes the footprint of grain i seeded at a coarse cell and
// every quantity needed to accept or reject it. It does not modify the grid.
func (c *Context) evaluate(i, cell int, lu *mat.FrameLU) *candidate {
	p := &c.Packed[i]
	g := &c.Grains[i]
	res := &c.Params.Resolution

	cand := &candidate{cell: cell}
	cx, cy, cz := c.CoarseGrid.Coords(cell)
	coarse := [3]int{cx, cy, cz}
	var lo, hi [3]int
	for k := 0; k < 3; k++ {
		cand.seed[k] = coarse[k] * CoarseFactor
		if cand.seed[k] >= c.FineGrid.Width[k] {
			cand.seed[k] = c.FineGrid.Width[k] - 1
		}
		ext := int(p.Radii[0]/res[k] + 1)
		lo[k], hi[k] = cand.seed[k]-ext, cand.seed[k]+ext
	}
	cand.center = r3.Vec{
		X: (float64(cand.seed[0]) + 0.5) * res[0],
		Y: (float64(cand.seed[1]) + 0.5) * res[1],
		Z: (float64(cand.seed[2]) + 0.5) * res[2],
	}
	cand.box, _ = c.FineGrid.Clip(lo, hi)
	cand.voxels = make([]int, 0, cand.box.Cells())

	if c.Params.Overlap == Progressive {
		cand.removals = make([]int, i)
	}

	b := &cand.box
	for z := b.Origin[2]; z < b.Origin[2]+b.Width[2]; z++ {
		for y := b.Origin[1]; y < b.Origin[1]+b.Width[1]; y++ {
			for x := b.Origin[0]; x < b.Origin[0]+b.Width[0]; x++ {
				isSeed := x == cand.seed[0] && y == cand.seed[1] &&
					z == cand.seed[2]

				xs := lu.Solve(r3.Vec{
					X: (float64(x)+0.5)*res[0] - cand.center.X,
					Y: (float64(y)+0.5)*res[1] - cand.center.Y,
					Z: (float64(z)+0.5)*res[2] - cand.center.Z,
				})
				comp := [3]float64{
					xs.X / p.Radii[0], xs.Y / p.Radii[1], xs.Z / p.Radii[2],
				}
				if !isSeed && !c.Params.Shape.Contains(comp, g.NValue) {
					continue
				}

				c.addFootprintVoxel(i, cand, x, y, z)
			}
		}
	}

	c.neighborChange(i, cand)

	for d, removed := range cand.removals {
		q := &c.Packed[d]
		if removed == 0 || q.InitSize == 0 {
			continue
		}
		ratio := float64(q.CurrentSize-removed) / float64(q.InitSize)
		if ratio < 1-c.Params.OverlapAllowed/2 {
			cand.tooMuch = true
			break
		}
	}

	return cand
}

func (c *Context) addFootprintVoxel(i int, cand *candidate, x, y, z int) {
	idx := c.FineGrid.Idx(x, y, z)
	cand.voxels = append(cand.voxels, idx)
	cand.inside++

	half := CoarseFactor / 2
	if x%CoarseFactor == half && y%CoarseFactor == half &&
		z%CoarseFactor == half {
		cc, ok := c.CoarseGrid.IdxCheck(
			x/CoarseFactor, y/CoarseFactor, z/CoarseFactor,
		)
		if ok {
			cand.coarse = append(cand.coarse, cc)
		}
	}

	v := &c.Fine[idx]
	if v.Free {
		return
	}
	switch {
	case c.Params.Overlap == Rigid:
		cand.bad++
	case i%2 == 0:
		cand.removals[v.Grain]++
	default:
		cand.bad++
	}
}

// neighborChange estimates how placing the candidate would change the
// neighbor-count and neighbor-size statistics of the grains around it.
func (c *Context) neighborChange(i int, cand *candidate) {
	p := &c.Packed[i]
	bin := c.Store.SizeBin(EquivalentDiameter(p.Radii))

	for n := 0; n < i; n++ {
		q := &c.Packed[n]
		if !c.placementNeighbors(cand.center, p, q) {
			continue
		}
		nbin := c.Store.SizeBin(EquivalentDiameter(q.Radii))

		svn := c.Store.SVN[nbin]
		was, now := at(svn, q.TempNeighbors), at(svn, q.TempNeighbors+1)
		if now > was {
			cand.increase++
		} else if now < was {
			cand.increase--
		}

		c.nsdist[n][bin]++
		err := nsError(c.Store.SVS[nbin], c.nsdist[n])
		c.nsdist[n][bin]--
		cand.change += err - q.NSError
	}
}

func (c *Context) placementNeighbors(center r3.Vec, p, q *PackedGrain) bool {
	d := r3.Norm(r3.Sub(center, q.Center))
	return d < 0.7*(p.Radii[0]+q.Radii[0])
}

func at(xs []float64, i int) float64 {
	if i < 0 || i >= len(xs) {
		return 0
	}
	return xs[i]
}

// nsError is the squared distance between a target neighbor-size
// distribution and the normalized neighbor-size counts of a grain.
func nsError(target, counts []float64) float64 {
	total := 0.0
	for _, x := range counts {
		total += x
	}
	err := 0.0
	for r := range target {
		frac := 0.0
		if total > 0 {
			frac = counts[r] / total
		}
		d := target[r] - frac
		err += d * d
	}
	return err
}

// accept stamps the candidate's footprint into the grid.
func (c *Context) accept(i int, cand *candidate) {
	p := &c.Packed[i]
	p.Center = cand.center
	total := 0
	for _, idx := range cand.voxels {
		v := &c.Fine[idx]
		if c.FineGrid.OnSurface(idx) {
			p.OnSurface = true
		}

		if v.Free {
			v.Grain = int32(i)
			v.Free = false
			total++
			c.VoxelLists[i] = append(c.VoxelLists[i], idx)
		} else if c.displaceable(cand, int(v.Grain)) {
			c.Packed[v.Grain].CurrentSize--
			v.Grain = int32(i)
			total++
			c.VoxelLists[i] = append(c.VoxelLists[i], idx)
		}
	}

	for _, cc := range cand.coarse {
		c.Coarse[cc].Free = false
	}

	bin := c.Store.SizeBin(EquivalentDiameter(p.Radii))
	count := 0
	for n := 0; n < i; n++ {
		q := &c.Packed[n]
		if !c.placementNeighbors(p.Center, p, q) {
			continue
		}
		count++
		q.TempNeighbors++
		c.nsdist[n][bin]++
		nbin := c.Store.SizeBin(EquivalentDiameter(q.Radii))
		q.NSError = nsError(c.Store.SVS[nbin], c.nsdist[n])
	}

	p.TempNeighbors = count
	p.InitSize, p.CurrentSize = total, total
}

// displaceable returns true if the candidate may take the voxels it overlaps
// in grain d. Only removals tallied by the candidate are taken, and only
// while overlap is allowed and they leave d at least one voxel.
func (c *Context) displaceable(cand *candidate, d int) bool {
	if d >= len(cand.removals) || cand.removals[d] == 0 {
		return false
	}
	return c.Params.OverlapAllowed > 0 &&
		cand.removals[d] < c.Packed[d].InitSize
}
