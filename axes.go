package grainsynth

import (
	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/grainsynth/mat"
	gmat "gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// cornerSigns are the offsets, in half voxel widths, of a voxel's eight
// corners from its center.
var cornerSigns = [8][3]float64{
	{+1, +1, +1}, {+1, +1, -1}, {+1, -1, +1}, {+1, -1, -1},
	{-1, +1, +1}, {-1, +1, -1}, {-1, -1, +1}, {-1, -1, -1},
}

// FindCentroids sets the center, voxel count, and edge flag of every grain.
// Grains without voxels keep their placement center.
func (c *Context) FindCentroids() {
	for i := range c.Packed {
		p := &c.Packed[i]
		voxels := c.VoxelLists[i]
		p.Vol = len(voxels)
		p.OnEdge = false
		if len(voxels) == 0 {
			continue
		}

		sum := r3.Vec{}
		for _, idx := range voxels {
			if c.FineGrid.OnSurface(idx) {
				p.OnEdge = true
			}
			sum = r3.Add(sum, c.VoxelCenter(idx))
		}
		p.Center = r3.Scale(1/float64(len(voxels)), sum)
	}
}

// FindMoments computes the second moment tensor of every grain about its
// centroid, integrating over the eight corners of each voxel.
func (c *Context) FindMoments() {
	res := &c.Params.Resolution
	half := [3]float64{res[0] / 2, res[1] / 2, res[2] / 2}
	scale := half[0] * half[1] * half[2]

	for i := range c.Packed {
		p := &c.Packed[i]
		var xx, yy, zz, xy, xz, yz float64

		for _, idx := range c.VoxelLists[i] {
			d := r3.Sub(c.VoxelCenter(idx), p.Center)
			for _, s := range cornerSigns {
				dx := d.X + s[0]*half[0]
				dy := d.Y + s[1]*half[1]
				dz := d.Z + s[2]*half[2]

				xx += dy*dy + dz*dz
				yy += dx*dx + dz*dz
				zz += dx*dx + dy*dy
				xy += dx * dy
				xz += dx * dz
				yz += dy * dz
			}
		}

		p.I = [6]float64{
			xx * scale, yy * scale, zz * scale,
			-xy * scale, -xz * scale, -yz * scale,
		}
	}
}

// FindAxes solves for the principal values of every grain's moment tensor,
// largest first, and the matching principal directions. FindMoments must
// have been called.
func (c *Context) FindAxes() error {
	var es gmat.EigenSym
	var vecs gmat.Dense

	for i := range c.Packed {
		p := &c.Packed[i]
		t := mat.SymTensor(p.I)

		roots, ok := t.Eigenvalues()
		if !ok {
			return &DegenerateShapeError{
				Grain: i, Reason: "moment tensor has non-finite principal values",
			}
		}
		p.Axis = roots

		if !es.Factorize(gmat.NewSymDense(3, t.Dense()), true) {
			return &DegenerateShapeError{
				Grain: i, Reason: "moment tensor eigendecomposition failed",
			}
		}
		es.VectorsTo(&vecs)
		// Eigenvalues come back in ascending order.
		for k := 0; k < 3; k++ {
			col := 2 - k
			p.AxisDirs[k] = r3.Vec{
				X: vecs.At(0, col), Y: vecs.At(1, col), Z: vecs.At(2, col),
			}
		}
	}
	return nil
}

// FindColors sets each grain's inverse pole figure color from its current
// orientation.
func (c *Context) FindColors() {
	for i := range c.Packed {
		c.Packed[i].Color = crystal.IPFColor(c.Packed[i].Euler)
	}
}
