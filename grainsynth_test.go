package grainsynth

import (
	"math"
	"testing"

	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/grainsynth/dist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

const testSizeBins = 11

// testStore returns a store where every grain has the given diameter, equal
// axes, and an identity axis frame.
func testStore(diameters ...float64) *dist.Store {
	s := &dist.Store{Dims: dist.DefaultDims()}
	s.Dims.SizeBins = testSizeBins

	for i, d := range diameters {
		s.Diameters = append(s.Diameters, dist.Bin{
			Prob: float64(i) / float64(len(diameters)), Value: d,
		})
	}

	for i := 0; i < testSizeBins; i++ {
		s.BOverA = append(s.BOverA, []dist.Bin{{Prob: 0, Value: 1}})
		s.COverA = append(s.COverA, []dist.Bin{{Prob: 0, Value: 1}})
		s.COverB = append(s.COverB, []dist.Bin{{Prob: 1, Value: 0.5}})
		s.NValues = append(s.NValues, []dist.Bin{{Prob: 0, Value: 2}})

		svn := make([]float64, s.Dims.NeighborBins)
		for n := range svn {
			svn[n] = float64(n) / float64(len(svn))
		}
		s.SVN = append(s.SVN, svn)

		svs := make([]float64, testSizeBins)
		for n := range svs {
			svs[n] = 1.0 / testSizeBins
		}
		s.SVS = append(s.SVS, svs)
	}

	s.Misorientation = make([]float64, s.Dims.MisorientationBins)
	for i := range s.Misorientation {
		s.Misorientation[i] = 1 / float64(len(s.Misorientation))
	}
	// An empty top bin lets the microtexture passes converge immediately.
	s.Microtexture = make([]float64, s.Dims.MicrotextureBins)
	s.Microtexture[0] = 1

	return s
}

func testParams(grains int, res float64) Params {
	p := DefaultParams()
	p.Grains = grains
	p.Resolution = [3]float64{res, res, res}
	p.Seed = 1337
	p.MisorientationMoves = 10
	p.MicrotextureMoves = 10
	return p
}

func sphereGrain(id int, r float64) Grain {
	return Grain{
		ID:       id,
		Volume:   4.0 / 3.0 * math.Pi * r * r * r,
		Diameter: 2 * r,
		Axes:     [3]float64{1, 1, 1},
		Dirs:     identityAxes,
		NValue:   2,
	}
}

// boxContext returns a context with an empty grid of the given size and
// grains which have not been placed yet.
func boxContext(
	t *testing.T, p Params, size [3]float64, grains ...Grain,
) *Context {
	c, err := NewContext(p, testStore(10))
	require.NoError(t, err)
	c.Size = size
	require.NoError(t, c.InitGrids())
	c.Grains = grains
	return c
}

// blockContext returns a context whose 8^3 grid is split into 64 cubic
// grains of 2^3 voxels, with random orientations.
func blockContext(t *testing.T, p Params) *Context {
	c := boxContext(t, p, [3]float64{8, 8, 8})

	n := 64
	c.Packed = make([]PackedGrain, n)
	c.VoxelLists = make([][]int, n)
	es := (&crystal.EulerHistogram{}).Assign(n, c.Rand)
	for i := range c.Packed {
		c.Packed[i].ID = i
		c.Packed[i].Euler = es[i]
	}
	for idx := range c.Fine {
		x, y, z := c.FineGrid.Coords(idx)
		c.Fine[idx].Grain = int32(x/2 + 4*(y/2) + 16*(z/2))
		c.Fine[idx].Free = false
	}

	c.rebuildVoxelLists()
	c.FindNeighbors()
	c.FindCentroids()
	c.FindMoments()
	require.NoError(t, c.FindAxes())
	return c
}

func TestNewContext(t *testing.T) {
	_, err := NewContext(testParams(1, 1), nil)
	assert.Error(t, err)

	_, err = NewContext(testParams(0, 1), testStore(10))
	assert.Error(t, err)

	p := testParams(1, 1)
	p.OverlapAllowed = 2
	_, err = NewContext(p, testStore(10))
	assert.Error(t, err)

	p = testParams(1, 1)
	p.Resolution[2] = 0
	_, err = NewContext(p, testStore(10))
	assert.Error(t, err)

	_, err = NewContext(testParams(1, 1), testStore(10))
	assert.NoError(t, err)
}

func TestParseClasses(t *testing.T) {
	for _, s := range []ShapeClass{Ellipsoid, Superellipsoid, CubeOctahedron} {
		parsed, err := ParseShapeClass(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseShapeClass("dodecahedron")
	assert.Error(t, err)

	for _, o := range []OverlapPolicy{Rigid, Progressive} {
		parsed, err := ParseOverlapPolicy(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, parsed)
	}
	_, err = ParseOverlapPolicy("greedy")
	assert.Error(t, err)

	sc, err := ParseShapeClass("cubeoctahedron")
	require.NoError(t, err)
	assert.Equal(t, CubeOctahedron, sc)
	o, err := ParseOverlapPolicy("PROGRESSIVE")
	require.NoError(t, err)
	assert.Equal(t, Progressive, o)
}

func TestLoadStoreError(t *testing.T) {
	_, err := LoadStore(
		t.TempDir(), dist.DefaultFiles(), dist.DefaultDims(), true,
	)
	require.Error(t, err)
	_, ok := err.(*DistributionLoadError)
	assert.True(t, ok, "%T", err)
}

func TestRadii(t *testing.T) {
	g := Grain{
		Volume: 4.0 / 3.0 * math.Pi * 8,
		Axes:   [3]float64{1, 0.5, 0.25},
		NValue: 2,
	}
	r := Radii(Ellipsoid, &g)
	assert.InDelta(t, 4, r[0], 1e-9)
	assert.InDelta(t, 2, r[1], 1e-9)
	assert.InDelta(t, 1, r[2], 1e-9)

	// A superellipsoid with n = 2 is an ellipsoid.
	se := Radii(Superellipsoid, &g)
	for k := range r {
		assert.InDelta(t, r[k], se[k], 1e-9)
	}

	g.NValue = 0
	co := Radii(CubeOctahedron, &g)
	assert.InDelta(t, math.Cbrt(g.Volume)/2, co[0], 1e-9)

	g.NValue = 5
	assert.Equal(t, Radii(CubeOctahedron, &Grain{
		Volume: g.Volume, Axes: g.Axes, NValue: 2,
	}), Radii(CubeOctahedron, &g))

	assert.InDelta(t, 4.0, EquivalentDiameter([3]float64{4, 2, 1}), 1e-9)
}

func TestContains(t *testing.T) {
	table := []struct {
		shape ShapeClass
		comp  [3]float64
		n     float64
		in    bool
	}{
		{Ellipsoid, [3]float64{0, 0, 0}, 2, true},
		{Ellipsoid, [3]float64{1, 0, 0}, 2, true},
		{Ellipsoid, [3]float64{0.8, 0.8, 0}, 2, false},
		{Superellipsoid, [3]float64{0.6, -0.6, 0.5}, 2, true},
		{Superellipsoid, [3]float64{0.7, -0.7, 0.5}, 2, false},
		{Superellipsoid, [3]float64{0.7, -0.7, 0.5}, 8, true},
		{CubeOctahedron, [3]float64{0, 0, 0}, 1, true},
		{CubeOctahedron, [3]float64{1.01, 0, 0}, 0, false},
		{CubeOctahedron, [3]float64{1, 1, 1}, 0, true},
		{CubeOctahedron, [3]float64{-1, -1, -1}, 0, true},
		{CubeOctahedron, [3]float64{1, 1, 1}, 1, false},
		{CubeOctahedron, [3]float64{-1, 1, -1}, 1, false},
	}

	for i, test := range table {
		assert.Equal(t, test.in, test.shape.Contains(test.comp, test.n),
			"%d) %s %v n = %g", i+1, test.shape, test.comp, test.n)
	}
}

func TestGenerate(t *testing.T) {
	c, err := NewContext(testParams(50, 1), testStore(2, 4, 6))
	require.NoError(t, err)
	require.NoError(t, c.Generate())

	totVol := 0.0
	for i, g := range c.Grains {
		assert.Equal(t, i, g.ID)
		assert.Equal(t, [3]float64{1, 1, 1}, g.Axes)
		assert.Equal(t, 2.0, g.NValue)
		assert.Contains(t, []float64{2, 4, 6}, g.Diameter)
		if i > 0 {
			assert.LessOrEqual(t, g.Volume, c.Grains[i-1].Volume)
		}
		totVol += g.Volume
	}

	edge := float64(int(math.Cbrt(0.9 * totVol)))
	assert.Equal(t, [3]float64{edge, edge, edge}, c.Size)
	assert.Equal(t, int(edge)*int(edge)*int(edge), len(c.Fine))
	assert.Equal(t, int(edge)/CoarseFactor, c.CoarseGrid.Width[0])
}

func TestSamplingInfeasible(t *testing.T) {
	s := testStore(10)
	for i := range s.COverA {
		s.COverA[i] = []dist.Bin{{Prob: 0, Value: 2}}
	}
	p := testParams(3, 1)
	p.MaxShapeAttempts = 10

	c, err := NewContext(p, s)
	require.NoError(t, err)
	err = c.Generate()
	require.Error(t, err)
	se, ok := err.(*SamplingInfeasibleError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, 0, se.Grain)
	assert.Equal(t, 10, se.Attempts)
}

func TestSingleGrain(t *testing.T) {
	c, err := NewContext(testParams(1, 1), testStore(10))
	require.NoError(t, err)

	var phases []string
	c.OnProgress = func(phase string, p float64) {
		phases = append(phases, phase)
	}
	require.NoError(t, c.Run())

	assert.Equal(t, [3]float64{7, 7, 7}, c.Size)
	assert.Equal(t, 100.0, c.Progress)
	require.NotEmpty(t, phases)
	assert.Equal(t, "find colors", phases[len(phases)-1])

	// The footprint is every voxel center inside a sphere about the center
	// of voxel (0, 0, 0).
	p := &c.Packed[0]
	r := p.Radii[0]
	expected := 0
	for idx := range c.Fine {
		x, y, z := c.FineGrid.Coords(idx)
		comp := [3]float64{float64(x) / r, float64(y) / r, float64(z) / r}
		if Ellipsoid.Contains(comp, 2) {
			expected++
		}
	}
	assert.Equal(t, expected, p.InitSize)

	for idx := range c.Fine {
		assert.Equal(t, int32(0), c.Fine[idx].Grain)
	}
	assert.Equal(t, len(c.Fine), p.Vol)
	assert.True(t, p.OnEdge)
	assert.Empty(t, p.Neighbors)
	assert.True(t, c.Converged)
}

func TestRigidOverlap(t *testing.T) {
	p := testParams(2, 1)
	p.OverlapAllowed = 0.5
	c := boxContext(t, p, [3]float64{12, 4, 4},
		sphereGrain(0, 3.2), sphereGrain(1, 3.2))
	require.Equal(t, [3]int{3, 1, 1}, c.CoarseGrid.Width)

	frames, err := c.preparePacking()
	require.NoError(t, err)

	c0 := c.evaluate(0, 0, frames[0])
	assert.Equal(t, 0, c0.bad)
	c.accept(0, c0)

	c1 := c.evaluate(1, 1, frames[1])
	assert.Equal(t, 57, c1.inside)
	assert.Equal(t, 14, c1.bad)
	assert.Equal(t, 1.0, c1.increase)
	assert.True(t, c1.change < 0)
	assert.True(t, c1.acceptable(p.OverlapAllowed))
	c.accept(1, c1)

	assert.Equal(t, 43, c.Packed[1].InitSize)
	assert.Equal(t, 1, c.Packed[0].TempNeighbors)

	// Rigid placement never takes voxels from earlier grains.
	owned := [2]int{}
	for idx := range c.Fine {
		if g := c.Fine[idx].Grain; g >= 0 {
			owned[g]++
		}
	}
	assert.Equal(t, c.Packed[0].InitSize, owned[0])
	assert.Equal(t, 43, owned[1])

	p.OverlapAllowed = 0.2
	assert.False(t, c1.withinBudget(p.OverlapAllowed))
}

func TestProgressiveOverlap(t *testing.T) {
	p := testParams(2, 1)
	p.OverlapAllowed = 0.5
	p.Overlap = Progressive
	c := boxContext(t, p, [3]float64{12, 4, 4},
		sphereGrain(0, 3.2), sphereGrain(1, 3.2))

	frames, err := c.preparePacking()
	require.NoError(t, err)
	c.accept(0, c.evaluate(0, 0, frames[0]))
	require.Equal(t, 35, c.Packed[0].InitSize)

	// Odd grains count claimed voxels against the budget and leave them
	// with their owners.
	c1 := c.evaluate(1, 1, frames[1])
	assert.Equal(t, 14, c1.bad)
	assert.Equal(t, []int{0}, c1.removals)
	assert.False(t, c1.tooMuch)
	c.accept(1, c1)

	assert.Equal(t, 43, c.Packed[1].InitSize)
	assert.Equal(t, 35, c.Packed[0].CurrentSize)
	owned := 0
	for idx := range c.Fine {
		if c.Fine[idx].Grain == 0 {
			owned++
		}
	}
	assert.Equal(t, 35, owned)
}

func TestProgressiveDisplacement(t *testing.T) {
	p := testParams(3, 1)
	p.OverlapAllowed = 0.5
	p.Overlap = Progressive
	c := boxContext(t, p, [3]float64{12, 4, 4},
		sphereGrain(0, 3.2), sphereGrain(1, 3.2), sphereGrain(2, 3.2))

	frames, err := c.preparePacking()
	require.NoError(t, err)
	c.accept(0, c.evaluate(0, 0, frames[0]))
	c.accept(1, c.evaluate(1, 2, frames[1]))
	require.Equal(t, 35, c.Packed[0].InitSize)
	require.Equal(t, 57, c.Packed[1].InitSize)

	// Grain 2 sits between the others and would leave grain 0 with 21/35.
	c2 := c.evaluate(2, 1, frames[2])
	assert.Equal(t, 0, c2.bad)
	assert.Equal(t, []int{14, 14}, c2.removals)
	assert.True(t, c2.tooMuch)
	assert.False(t, c2.withinBudget(c.Params.OverlapAllowed))

	c.Params.OverlapAllowed = 0.9
	c2 = c.evaluate(2, 1, frames[2])
	assert.False(t, c2.tooMuch)
	c.accept(2, c2)

	assert.Equal(t, 57, c.Packed[2].InitSize)
	assert.Equal(t, 21, c.Packed[0].CurrentSize)
	assert.Equal(t, 43, c.Packed[1].CurrentSize)

	owned := [3]int{}
	for idx := range c.Fine {
		if g := c.Fine[idx].Grain; g >= 0 {
			owned[g]++
		}
	}
	assert.Equal(t, [3]int{21, 43, 57}, owned)
}

func TestProgressivePacking(t *testing.T) {
	p := testParams(24, 1)
	p.OverlapAllowed = 0.5
	p.Overlap = Progressive

	grains := make([]Grain, 24)
	for i := range grains {
		r := 5.0
		if i >= 12 {
			r = 4
		}
		grains[i] = sphereGrain(i, r)
	}
	c := boxContext(t, p, [3]float64{22, 22, 22}, grains...)
	require.NoError(t, c.Pack())

	init, current := 0, 0
	for i := range c.Packed {
		q := &c.Packed[i]
		require.True(t, q.InitSize > 0, "grain %d", i)
		ratio := float64(q.CurrentSize) / float64(q.InitSize)
		assert.True(t, ratio >= 1-p.OverlapAllowed/2-1e-9,
			"grain %d keeps %d of %d voxels", i, q.CurrentSize, q.InitSize)
		init += q.InitSize
		current += q.CurrentSize
	}
	assert.True(t, current < init, "no voxels were displaced")

	owned := 0
	for idx := range c.Fine {
		if c.Fine[idx].Grain >= 0 {
			owned++
		}
	}
	assert.Equal(t, current, owned)
}

func TestZeroOverlapPacking(t *testing.T) {
	p := testParams(2, 1)
	p.OverlapAllowed = 0
	c := boxContext(t, p, [3]float64{16, 4, 4},
		sphereGrain(0, 3.2), sphereGrain(1, 3.2))
	require.NoError(t, c.Pack())

	owned := 0
	for idx := range c.Fine {
		if c.Fine[idx].Grain >= 0 {
			owned++
		}
	}
	assert.Equal(t, c.Packed[0].InitSize+c.Packed[1].InitSize, owned)
	for g, voxels := range c.VoxelLists {
		for _, idx := range voxels {
			assert.Equal(t, int32(g), c.Fine[idx].Grain)
		}
	}

	d := r3.Norm(r3.Sub(c.Packed[0].Center, c.Packed[1].Center))
	assert.True(t, d >= 8, "centers are %g apart", d)
}

func TestDegenerateFrame(t *testing.T) {
	g := sphereGrain(0, 2)
	g.Dirs = dist.Axes{{X: 1}, {X: 1, Y: 1e-9}, {Z: 1}}
	c := boxContext(t, testParams(1, 1), [3]float64{8, 8, 8}, g)

	err := c.Pack()
	require.Error(t, err)
	de, ok := err.(*DegenerateShapeError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, 0, de.Grain)
}

func TestFillGapsTie(t *testing.T) {
	c := boxContext(t, testParams(2, 1), [3]float64{3, 1, 1})
	c.Packed = make([]PackedGrain, 2)
	c.VoxelLists = make([][]int, 2)
	c.Fine[0].Grain, c.Fine[0].Free = 0, false
	c.Fine[2].Grain, c.Fine[2].Free = 1, false

	require.NoError(t, c.FillGaps())
	assert.Equal(t, int32(0), c.Fine[1].Grain)
	assert.Equal(t, []int{0, 1}, c.VoxelLists[0])
	assert.Equal(t, 2, c.Packed[0].CurrentSize)
}

func TestFillGapsStall(t *testing.T) {
	c := boxContext(t, testParams(1, 1), [3]float64{3, 1, 1})
	c.Packed = make([]PackedGrain, 1)
	c.VoxelLists = make([][]int, 1)

	err := c.FillGaps()
	require.Error(t, err)
	_, ok := err.(*PackingInfeasibleError)
	assert.True(t, ok, "%T", err)
}

func TestFullRun(t *testing.T) {
	p := testParams(20, 0.5)
	p.OverlapAllowed = 1
	c, err := NewContext(p, testStore(2))
	require.NoError(t, err)
	require.NoError(t, c.Run())

	// Every voxel belongs to exactly one grain.
	seen := make([]int, len(c.Fine))
	total := 0
	for g, voxels := range c.VoxelLists {
		assert.Equal(t, len(voxels), c.Packed[g].Vol)
		for _, idx := range voxels {
			assert.Equal(t, int32(g), c.Fine[idx].Grain)
			seen[idx]++
		}
		total += len(voxels)
	}
	assert.Equal(t, len(c.Fine), total)
	for idx := range seen {
		assert.Equal(t, 1, seen[idx], "voxel %d", idx)
	}

	for i := range c.Packed {
		q := &c.Packed[i]
		require.Equal(t, len(q.Neighbors), len(q.Misorientations))
		for j, n := range q.Neighbors {
			assert.Contains(t, c.Packed[n].Neighbors, i)
			assert.NotEqual(t, i, n)
			m := crystal.MisorientationDegrees(p.Crystal, q.Euler, c.Packed[n].Euler)
			assert.InDelta(t, m, q.Misorientations[j], 1e-9)
		}
	}

	for i := range c.Packed {
		if c.Packed[i].Vol == 0 {
			continue
		}
		axis := c.Packed[i].Axis
		assert.True(t, axis[0] >= axis[1] && axis[1] >= axis[2], "%v", axis)
	}
}

func TestAxesIdempotent(t *testing.T) {
	c := blockContext(t, testParams(64, 1))
	axes := make([][3]float64, len(c.Packed))
	for i := range c.Packed {
		axes[i] = c.Packed[i].Axis
	}

	c.FindCentroids()
	c.FindMoments()
	require.NoError(t, c.FindAxes())
	for i := range c.Packed {
		assert.Equal(t, axes[i], c.Packed[i].Axis)
	}
}

func TestFindMoments(t *testing.T) {
	c := boxContext(t, testParams(1, 1), [3]float64{3, 3, 3})
	c.Packed = make([]PackedGrain, 1)
	c.VoxelLists = [][]int{{c.FineGrid.Idx(1, 1, 1)}}

	c.FindCentroids()
	c.FindMoments()
	assert.Equal(t, r3.Vec{X: 1.5, Y: 1.5, Z: 1.5}, c.Packed[0].Center)
	assert.False(t, c.Packed[0].OnEdge)
	expected := [6]float64{0.5, 0.5, 0.5, 0, 0, 0}
	for k := range expected {
		assert.InDelta(t, expected[k], c.Packed[0].I[k], 1e-12)
	}
}

func TestBlockNeighbors(t *testing.T) {
	c := blockContext(t, testParams(64, 1))

	assert.Equal(t, []int{1, 4, 16}, c.Packed[0].Neighbors)
	interior := 1 + 4 + 16
	assert.Equal(t, []int{
		interior - 16, interior - 4, interior - 1,
		interior + 1, interior + 4, interior + 16,
	}, c.Packed[interior].Neighbors)

	for i := range c.Packed {
		for _, n := range c.Packed[i].Neighbors {
			assert.Contains(t, c.Packed[n].Neighbors, i)
		}
	}

	centers := c.BoundaryCenters()
	require.NotEmpty(t, centers)
	assert.Equal(t, BoundaryCenter{
		G1: 0, G2: 1, Center: r3.Vec{X: 1.5, Y: 1, Z: 1},
	}, centers[0])
	assert.Equal(t, BoundaryCenter{
		G1: 1, G2: 0, Center: r3.Vec{X: 2.5, Y: 1, Z: 1},
	}, centers[3])
}

func TestOptimizeMonotonic(t *testing.T) {
	p := testParams(64, 1)
	p.MisorientationIterations = 8
	c := blockContext(t, p)
	c.Store.Misorientation = []float64{0.3, 0.3, 0.2, 0.1, 0.1, 0, 0, 0, 0, 0}

	c.Optimize()
	require.Equal(t, 2*(p.MisorientationIterations+1), len(c.MisoHistory))
	assert.Equal(t, p.MisorientationIterations+1, c.MisoPhaseStart)
	assert.True(t, c.Converged)

	// No microtexture swaps happen, so the error never increases.
	for k := 1; k < len(c.MisoHistory); k++ {
		assert.LessOrEqual(t, c.MisoHistory[k], c.MisoHistory[k-1], "pass %d", k)
	}

	for i := range c.Packed {
		q := &c.Packed[i]
		for j, n := range q.Neighbors {
			m := crystal.MisorientationDegrees(p.Crystal, q.Euler, c.Packed[n].Euler)
			assert.InDelta(t, m, q.Misorientations[j], 1e-9)
		}
	}

	sum := 0.0
	for _, h := range c.MisoHeights {
		sum += h
	}
	assert.Equal(t, 2*144.0, sum)
}

func TestMicrotextureUnconverged(t *testing.T) {
	p := testParams(64, 1)
	p.MicrotextureIterations = 3
	c := blockContext(t, p)
	c.Store.Microtexture = []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}

	c.Optimize()
	assert.False(t, c.Converged)
	assert.Len(t, c.MicroHistory, 3)
}

func TestMicrotextureConvergedPass(t *testing.T) {
	c := blockContext(t, testParams(64, 1))
	before := make([]crystal.Euler, len(c.Packed))
	for i := range c.Packed {
		before[i] = c.Packed[i].Euler
	}

	require.True(t, c.MicrotexturePass())
	for i := range c.Packed {
		assert.Equal(t, before[i], c.Packed[i].Euler, "grain %d", i)
	}
	assert.Equal(t, []float64{0}, c.MicroHistory)
}

func TestRankBins(t *testing.T) {
	ranks := rankBins(
		[]float64{5, 0, 3}, []float64{0.2, 0.5, 0.3}, 8,
	)
	assert.Equal(t, []float64{2, -3, 1}, ranks)
}

func TestNSError(t *testing.T) {
	target := []float64{0.5, 0.5}
	assert.Equal(t, 0.0, nsError(target, []float64{1, 1}))
	assert.Equal(t, 0.5, nsError(target, []float64{0, 0}))
	assert.InDelta(t, 0.5, nsError(target, []float64{3, 0}), 1e-12)
}

func TestPermutePicked(t *testing.T) {
	c := boxContext(t, testParams(6, 1), [3]float64{1, 1, 1})
	c.Packed = make([]PackedGrain, 6)
	for i := range c.Packed {
		c.Packed[i].Euler = crystal.Euler{float64(i), 0, 0}
		c.Packed[i].Rank = float64(10 - i)
	}
	c.Packed[2].Frozen = true

	c.snapshotEulers()
	picked := c.permutePicked(6)
	assert.Equal(t, []int{0, 1, 3, 4, 5}, picked)

	var got, want []crystal.Euler
	for i := range c.Packed {
		if i == 2 {
			continue
		}
		got = append(got, c.Packed[i].Euler)
		want = append(want, c.Packed[i].OldEuler)
	}
	assert.ElementsMatch(t, want, got)
	assert.Equal(t, crystal.Euler{2, 0, 0}, c.Packed[2].Euler)
}

func TestSwapPicked(t *testing.T) {
	c := boxContext(t, testParams(5, 1), [3]float64{1, 1, 1})
	c.Packed = make([]PackedGrain, 5)
	ranks := []float64{3, 2, 1, 0, -1}
	for i := range c.Packed {
		c.Packed[i].Euler = crystal.Euler{float64(i), 0, 0}
		c.Packed[i].Rank = ranks[i]
	}

	c.snapshotEulers()
	bad, none := c.swapPicked(1)
	assert.Equal(t, []int{0}, bad)
	assert.Equal(t, []int{1}, none)

	assert.Equal(t, crystal.Euler{1, 0, 0}, c.Packed[0].Euler)
	assert.Equal(t, crystal.Euler{0, 0, 0}, c.Packed[1].Euler)
	for i := 2; i < 5; i++ {
		assert.Equal(t, crystal.Euler{float64(i), 0, 0}, c.Packed[i].Euler)
	}
}

func TestVolumeStats(t *testing.T) {
	c := blockContext(t, testParams(64, 1))
	vs := c.VolumeStats()

	assert.Equal(t, 8, vs.Grains)
	assert.InDelta(t, 8, vs.Volume.Mean, 1e-12)
	assert.InDelta(t, 0, vs.Volume.StdDev, 1e-12)
	assert.InDelta(t, 6, vs.Neighbors.Mean, 1e-12)
	assert.InDelta(t, 1, vs.BOverA.Mean, 1e-9)
	assert.InDelta(t, 1, vs.COverB.Mean, 1e-9)

	require.Len(t, vs.Bins, 1)
	assert.Equal(t, int(c.voxelDiameter(8)), vs.Bins[0].Diameter)
	assert.Equal(t, 8, vs.Bins[0].Count)
}
