package geom

// Face enumerates the six face-adjacent directions of a voxel, in the order
// -x, +x, -y, +y, -z, +z.
type Face int

const (
	MinusX Face = iota
	PlusX
	MinusY
	PlusY
	MinusZ
	PlusZ
	FaceNum
)

// FaceOffsets gives the coordinate offset of each Face.
var FaceOffsets = [FaceNum][3]int{
	{-1, 0, 0}, {+1, 0, 0},
	{0, -1, 0}, {0, +1, 0},
	{0, 0, -1}, {0, 0, +1},
}

// Grid provides an interface for reasoning over a 1D slice as if it were a
// 3D grid.
type Grid struct {
	CellBounds
	Length, Area, Volume int
	uBounds              [3]int
}

// CellBounds represents a bounding box aligned to grid cells.
type CellBounds struct {
	Origin, Width [3]int
}

// Init initializes a Grid instance.
func (g *Grid) Init(origin [3]int, width [3]int) {
	g.Origin = origin
	g.Width = width

	g.Length = width[0]
	g.Area = width[0] * width[1]
	g.Volume = width[0] * width[1] * width[2]

	for i := 0; i < 3; i++ {
		g.uBounds[i] = g.Origin[i] + g.Width[i]
	}
}

// Idx returns the grid index corresponding to a set of coordinates.
func (g *Grid) Idx(x, y, z int) int {
	return ((x - g.Origin[0]) + (y-g.Origin[1])*g.Length +
		(z-g.Origin[2])*g.Area)
}

// IdxCheck returns an index and true if the given coordinate are valid and
// false otherwise.
func (g *Grid) IdxCheck(x, y, z int) (idx int, ok bool) {
	if !g.BoundsCheck(x, y, z) {
		return -1, false
	}

	return g.Idx(x, y, z), true
}

// BoundsCheck returns true if the given coordinates are within the Grid and
// false otherwise.
func (g *Grid) BoundsCheck(x, y, z int) bool {
	return (g.Origin[0] <= x && g.Origin[1] <= y && g.Origin[2] <= z) &&
		(x < g.uBounds[0] && y < g.uBounds[1] &&
			z < g.uBounds[2])
}

// Coords returns the x, y, z coordinates of a point from its grid index.
func (g *Grid) Coords(idx int) (x, y, z int) {
	x = idx%g.Length + g.Origin[0]
	y = (idx%g.Area)/g.Length + g.Origin[1]
	z = idx/g.Area + g.Origin[2]
	return x, y, z
}

// Neighbors writes the indices of the six face neighbors of idx into out, in
// Face order. Missing neighbors are written as -1.
func (g *Grid) Neighbors(idx int, out *[FaceNum]int) {
	x, y, z := g.Coords(idx)
	for f := Face(0); f < FaceNum; f++ {
		off := &FaceOffsets[f]
		out[f], _ = g.IdxCheck(x+off[0], y+off[1], z+off[2])
	}
}

// OnSurface returns true if idx lies on one of the six faces of the grid.
func (g *Grid) OnSurface(idx int) bool {
	x, y, z := g.Coords(idx)
	c := [3]int{x, y, z}
	for i := 0; i < 3; i++ {
		if c[i] == g.Origin[i] || c[i] == g.uBounds[i]-1 {
			return true
		}
	}
	return false
}

// Clip returns the box spanning [lo, hi] (inclusive) in each dimension,
// clamped to the extent of the grid. ok is false if nothing is left.
func (g *Grid) Clip(lo, hi [3]int) (cb CellBounds, ok bool) {
	for i := 0; i < 3; i++ {
		if lo[i] < g.Origin[i] {
			lo[i] = g.Origin[i]
		}
		if hi[i] >= g.uBounds[i] {
			hi[i] = g.uBounds[i] - 1
		}
		if hi[i] < lo[i] {
			return cb, false
		}
		cb.Origin[i] = lo[i]
		cb.Width[i] = hi[i] - lo[i] + 1
	}
	return cb, true
}

// Cells returns the number of cells inside the bounding box.
func (cb *CellBounds) Cells() int {
	return cb.Width[0] * cb.Width[1] * cb.Width[2]
}
