// Package grainsynth synthesizes 3D polycrystalline microstructures whose
// grain sizes, shapes, neighbor statistics, and orientations follow a set of
// measured distributions.
//
// All state for a single run is owned by a Context, so independent runs may
// proceed in parallel.
package grainsynth

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/grainsynth/dist"
	"github.com/phil-mansfield/grainsynth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// CoarseFactor is the ratio of coarse voxel width to fine voxel width.
const CoarseFactor = 4

// ShapeClass selects the solid used to place grains.
type ShapeClass int

const (
	Ellipsoid ShapeClass = 1 + iota
	Superellipsoid
	CubeOctahedron
)

func (s ShapeClass) String() string {
	switch s {
	case Ellipsoid:
		return "Ellipsoid"
	case Superellipsoid:
		return "Superellipsoid"
	case CubeOctahedron:
		return "CubeOctahedron"
	}
	return fmt.Sprintf("ShapeClass(%d)", int(s))
}

// ParseShapeClass converts a case-insensitive configuration name to a
// ShapeClass.
func ParseShapeClass(name string) (ShapeClass, error) {
	for _, sc := range []ShapeClass{Ellipsoid, Superellipsoid, CubeOctahedron} {
		if strings.EqualFold(sc.String(), name) {
			return sc, nil
		}
	}
	return 0, fmt.Errorf("Unrecognized shape class '%s'.", name)
}

// OverlapPolicy selects how voxels claimed by earlier grains are treated.
type OverlapPolicy int

const (
	// Rigid counts every claimed voxel against the overlap budget and never
	// reassigns it.
	Rigid OverlapPolicy = 1 + iota
	// Progressive lets grains take voxels from earlier grains, limited by a
	// per-grain removal budget.
	Progressive
)

func (p OverlapPolicy) String() string {
	switch p {
	case Rigid:
		return "Rigid"
	case Progressive:
		return "Progressive"
	}
	return fmt.Sprintf("OverlapPolicy(%d)", int(p))
}

// ParseOverlapPolicy converts a case-insensitive configuration name to an
// OverlapPolicy.
func ParseOverlapPolicy(name string) (OverlapPolicy, error) {
	for _, p := range []OverlapPolicy{Rigid, Progressive} {
		if strings.EqualFold(p.String(), name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("Unrecognized overlap assignment '%s'.", name)
}

// Params are the numeric run parameters of a synthesis.
type Params struct {
	Grains  int
	Shape   ShapeClass
	Crystal crystal.Class
	// Resolution is the fine voxel width along each axis.
	Resolution     [3]float64
	OverlapAllowed float64
	Overlap        OverlapPolicy

	// Seed initializes the random number generator. Zero seeds from the
	// clock.
	Seed int64

	MaxPlacementAttempts, MaxShapeAttempts int

	MisorientationIterations, MisorientationMoves int
	MicrotextureIterations, MicrotextureMoves     int

	// LowAngle is the misorientation, in degrees, below which a boundary is
	// counted as low-angle.
	LowAngle float64
	// FreezeFraction is the low-angle fraction above which a grain and its
	// low-angle neighbors stop being moved.
	FreezeFraction float64
	// MicrotextureTolerance is the relative shortfall of the top
	// microtexture bin at which the microtexture passes stop.
	MicrotextureTolerance float64
}

// DefaultParams returns the parameters used when a field is not configured.
func DefaultParams() Params {
	return Params{
		Grains:                   1000,
		Shape:                    Ellipsoid,
		Crystal:                  crystal.Cubic,
		Resolution:               [3]float64{0.25, 0.25, 0.25},
		OverlapAllowed:           0,
		Overlap:                  Rigid,
		Seed:                     0,
		MaxPlacementAttempts:     1000,
		MaxShapeAttempts:         10000,
		MisorientationIterations: 5,
		MisorientationMoves:      250,
		MicrotextureIterations:   100,
		MicrotextureMoves:        150,
		LowAngle:                 15,
		FreezeFraction:           0.85,
		MicrotextureTolerance:    0.15,
	}
}

// Check returns an error if any parameter is out of range.
func (p *Params) Check() error {
	switch {
	case p.Grains <= 0:
		return fmt.Errorf("Grain count must be positive, but is %d.", p.Grains)
	case p.Shape < Ellipsoid || p.Shape > CubeOctahedron:
		return fmt.Errorf("Invalid shape class %d.", int(p.Shape))
	case p.Crystal != crystal.Cubic && p.Crystal != crystal.Hexagonal:
		return fmt.Errorf("Invalid crystal structure %d.", int(p.Crystal))
	case p.Overlap != Rigid && p.Overlap != Progressive:
		return fmt.Errorf("Invalid overlap assignment %d.", int(p.Overlap))
	case p.OverlapAllowed < 0 || p.OverlapAllowed > 1:
		return fmt.Errorf(
			"Allowed overlap must be in [0, 1], but is %g.", p.OverlapAllowed,
		)
	case p.MaxPlacementAttempts <= 0:
		return fmt.Errorf("MaxPlacementAttempts must be positive.")
	case p.MaxShapeAttempts <= 0:
		return fmt.Errorf("MaxShapeAttempts must be positive.")
	case p.MisorientationIterations < 0 || p.MicrotextureIterations < 0:
		return fmt.Errorf("Optimizer iteration counts must be non-negative.")
	case p.MisorientationMoves < 0 || p.MicrotextureMoves < 0:
		return fmt.Errorf("Optimizer move counts must be non-negative.")
	}
	for i, r := range p.Resolution {
		if r <= 0 {
			return fmt.Errorf(
				"Resolution %d must be positive, but is %g.", i, r,
			)
		}
	}
	return nil
}

// Voxel is a single cell of the fine or coarse grid.
type Voxel struct {
	// Grain is the id of the owning grain, or -1.
	Grain int32
	// Free is true until a grain's footprint covers the voxel.
	Free bool
	// Tried marks coarse cells already used as seeds for the current grain.
	Tried bool
	// Boundary is true if the voxel touches another grain or the box
	// surface.
	Boundary bool
	// Neighbors holds the grain across each face when it differs from
	// Grain, and -1 otherwise.
	Neighbors [geom.FaceNum]int32
}

// Grain is a grain drawn from the distributions, before packing.
type Grain struct {
	ID       int
	Volume   float64
	Diameter float64
	// Axes are the relative axis lengths (1, b/a, c/a).
	Axes   [3]float64
	Dirs   dist.Axes
	NValue float64
	Euler  crystal.Euler
}

// PackedGrain is a grain after it has been placed in the voxel grid.
type PackedGrain struct {
	ID                    int
	InitSize, CurrentSize int
	// Vol is the voxel count after gap filling.
	Vol    int
	Center r3.Vec
	Radii  [3]float64
	// I holds the moment tensor as (Ixx, Iyy, Izz, Ixy, Ixz, Iyz).
	I        [6]float64
	Axis     [3]float64
	AxisDirs [3]r3.Vec

	Euler, OldEuler crystal.Euler
	Color           [3]float64

	Neighbors       []int
	Misorientations []float64

	LowAngleFraction float64
	Frozen           bool
	Rank             float64

	OnEdge, OnSurface bool
	TempNeighbors     int
	NSError           float64
}

// Context owns every array used by a synthesis run.
type Context struct {
	Params Params
	Store  *dist.Store
	Rand   *rand.Rand
	// Logger receives progress lines. A nil Logger is silent.
	Logger *log.Logger

	// Progress is the percentage of the run which has completed.
	Progress   float64
	OnProgress func(phase string, progress float64)

	// Size is the edge length of the box along each axis.
	Size [3]float64

	FineGrid, CoarseGrid geom.Grid
	Fine, Coarse         []Voxel

	Grains     []Grain
	Packed     []PackedGrain
	VoxelLists [][]int

	// nsdist[g][s] counts the placement neighbors of grain g in size bin s.
	nsdist [][]float64
	tried  []int

	// Simulated histograms from the latest optimizer measurement.
	MisoHeights, MicroHeights []float64
	// MisoHistory is the total absolute misorientation histogram
	// deviation at the start of each misorientation phase and after each
	// pass. The second phase starts at MisoPhaseStart.
	MisoHistory    []float64
	MisoPhaseStart int
	// MicroHistory is the relative shortfall of the top microtexture bin
	// at each microtexture pass.
	MicroHistory []float64
	Converged    bool
}

// NewContext checks params and returns a Context ready to Run.
func NewContext(params Params, store *dist.Store) (*Context, error) {
	if err := params.Check(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("No distribution store given.")
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Context{
		Params: params,
		Store:  store,
		Rand:   rand.New(rand.NewSource(seed)),
	}, nil
}

func (c *Context) logf(format string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}

// InitGrids allocates the fine and coarse grids for the current Size. Every
// voxel starts out free and unowned.
func (c *Context) InitGrids() error {
	var fine, coarse [3]int
	for i := 0; i < 3; i++ {
		res := c.Params.Resolution[i]
		fine[i] = int(c.Size[i] / res)
		coarse[i] = int(c.Size[i] / (res * CoarseFactor))
		if coarse[i] < 1 {
			coarse[i] = 1
		}
		if fine[i] < 1 {
			return &PackingInfeasibleError{
				Grain:  -1,
				Reason: fmt.Sprintf("box edge %g is below one voxel", c.Size[i]),
			}
		}
	}

	c.FineGrid.Init([3]int{}, fine)
	c.CoarseGrid.Init([3]int{}, coarse)
	c.Fine = newVoxels(c.FineGrid.Volume)
	c.Coarse = newVoxels(c.CoarseGrid.Volume)
	return nil
}

func newVoxels(n int) []Voxel {
	vs := make([]Voxel, n)
	for i := range vs {
		vs[i].Grain = -1
		vs[i].Free = true
		for f := range vs[i].Neighbors {
			vs[i].Neighbors[f] = -1
		}
	}
	return vs
}

// VoxelCenter returns the position of the center of a fine voxel.
func (c *Context) VoxelCenter(idx int) r3.Vec {
	x, y, z := c.FineGrid.Coords(idx)
	res := &c.Params.Resolution
	return r3.Vec{
		X: (float64(x) + 0.5) * res[0],
		Y: (float64(y) + 0.5) * res[1],
		Z: (float64(z) + 0.5) * res[2],
	}
}

func (c *Context) setProgress(phase string, p float64) {
	c.Progress = p
	if c.OnProgress != nil {
		c.OnProgress(phase, p)
	}
}
