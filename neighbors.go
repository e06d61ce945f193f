package grainsynth

import (
	"sort"

	"github.com/phil-mansfield/grainsynth/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

type gapAssignment struct {
	idx   int
	grain int32
}

// FillGaps assigns every voxel left unowned by packing to a neighboring
// grain. Each sweep lets every unowned voxel with owned face neighbors vote,
// and applies all the votes at once when the sweep ends. Afterwards the
// voxel lists partition the grid.
func (c *Context) FillGaps() error {
	var nbrs [geom.FaceNum]int
	var assigns []gapAssignment

	for sweep := 0; ; sweep++ {
		remaining := 0
		assigns = assigns[:0]

		for idx := range c.Fine {
			if c.Fine[idx].Grain >= 0 {
				continue
			}
			remaining++

			c.FineGrid.Neighbors(idx, &nbrs)
			best, bestCount := int32(-1), 0
			for f := range nbrs {
				if nbrs[f] < 0 {
					continue
				}
				g := c.Fine[nbrs[f]].Grain
				if g < 0 {
					continue
				}
				// The first grain to reach the highest running count wins.
				n := 1
				for k := 0; k < f; k++ {
					if nbrs[k] >= 0 && c.Fine[nbrs[k]].Grain == g {
						n++
					}
				}
				if n > bestCount {
					best, bestCount = g, n
				}
			}
			if best >= 0 {
				assigns = append(assigns, gapAssignment{idx, best})
			}
		}

		if remaining == 0 {
			break
		} else if len(assigns) == 0 {
			return &PackingInfeasibleError{
				Grain: -1, Attempts: sweep,
				Reason: "gap filling stalled with unowned voxels left",
			}
		}

		for _, a := range assigns {
			v := &c.Fine[a.idx]
			v.Grain = a.grain
			v.Free = false
		}
		c.logf("Gap fill sweep %d assigned %d/%d voxels",
			sweep, len(assigns), remaining)
	}

	c.rebuildVoxelLists()
	return nil
}

// rebuildVoxelLists rebuilds every grain's voxel list from the fine grid.
func (c *Context) rebuildVoxelLists() {
	for i := range c.VoxelLists {
		c.VoxelLists[i] = c.VoxelLists[i][:0]
	}
	for idx := range c.Fine {
		g := c.Fine[idx].Grain
		if g >= 0 {
			c.VoxelLists[g] = append(c.VoxelLists[g], idx)
		}
	}
	for i := range c.Packed {
		c.Packed[i].CurrentSize = len(c.VoxelLists[i])
	}
}

// FindNeighbors records, for every voxel, the grain across each face, marks
// boundary voxels, and builds each grain's sorted neighbor list.
func (c *Context) FindNeighbors() {
	var nbrs [geom.FaceNum]int

	for i := range c.Packed {
		var list []int
		for _, idx := range c.VoxelLists[i] {
			v := &c.Fine[idx]
			v.Boundary = c.FineGrid.OnSurface(idx)

			c.FineGrid.Neighbors(idx, &nbrs)
			for f, n := range nbrs {
				v.Neighbors[f] = -1
				if n < 0 {
					continue
				}
				g := c.Fine[n].Grain
				if int(g) == i {
					continue
				}
				v.Boundary = true
				v.Neighbors[f] = g
				list = append(list, int(g))
			}
		}

		c.Packed[i].Neighbors = uniqueSorted(list)
	}
}

func uniqueSorted(xs []int) []int {
	sort.Ints(xs)
	out := xs[:0]
	for k, x := range xs {
		if k == 0 || x != xs[k-1] {
			out = append(out, x)
		}
	}
	return out
}

// BoundaryCenter is the mean position of the boundary voxels of grain G1
// which face grain G2.
type BoundaryCenter struct {
	G1, G2 int
	Center r3.Vec
}

// BoundaryCenters returns one BoundaryCenter for every grain and each of its
// neighbors, in grain order and then neighbor order. FindNeighbors must have
// been called.
func (c *Context) BoundaryCenters() []BoundaryCenter {
	var out []BoundaryCenter
	for i := range c.Packed {
		nbrs := c.Packed[i].Neighbors
		sums := make([]r3.Vec, len(nbrs))
		counts := make([]int, len(nbrs))

		for _, idx := range c.VoxelLists[i] {
			v := &c.Fine[idx]
			if !v.Boundary {
				continue
			}
			pos := c.VoxelCenter(idx)
			for f, g := range v.Neighbors {
				if g < 0 || seenFace(&v.Neighbors, f) {
					continue
				}
				k := sort.SearchInts(nbrs, int(g))
				sums[k] = r3.Add(sums[k], pos)
				counts[k]++
			}
		}

		for k, g := range nbrs {
			if counts[k] == 0 {
				continue
			}
			out = append(out, BoundaryCenter{
				G1: i, G2: g, Center: r3.Scale(1/float64(counts[k]), sums[k]),
			})
		}
	}
	return out
}

// seenFace returns true if the grain across face f also lies across an
// earlier face.
func seenFace(nbrs *[geom.FaceNum]int32, f int) bool {
	for k := 0; k < f; k++ {
		if nbrs[k] == nbrs[f] {
			return true
		}
	}
	return false
}
