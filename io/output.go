package io

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/phil-mansfield/grainsynth"
	"github.com/pkg/errors"
)

// Names of the files written by WriteAll.
const (
	CubeFile            = "cube.vtk"
	GrainsFile          = "grains.txt"
	BoundaryCentersFile = "boundarycenters.txt"
	VolumeFile          = "volume.txt"
	AnalysisFile        = "analysis.txt"
)

// vtkLineLength is the number of grain IDs per line of a VTK file.
const vtkLineLength = 20

// WriteVTK writes the fine grid's grain IDs as legacy ASCII structured
// points.
func WriteVTK(c *grainsynth.Context, wr io.Writer) error {
	w := bufio.NewWriter(wr)
	dims := c.FineGrid.Width
	res := c.Params.Resolution

	fmt.Fprintln(w, "# vtk DataFile Version 2.0")
	fmt.Fprintln(w, "synthetic microstructure from grainsynth")
	fmt.Fprintln(w, "ASCII")
	fmt.Fprintln(w, "DATASET STRUCTURED_POINTS")
	fmt.Fprintf(w, "DIMENSIONS %d %d %d\n", dims[0], dims[1], dims[2])
	fmt.Fprintln(w, "ORIGIN 0.0 0.0 0.0")
	fmt.Fprintf(w, "SPACING %g %g %g\n", res[0], res[1], res[2])
	fmt.Fprintf(w, "POINT_DATA %d\n", len(c.Fine))
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "SCALARS GrainID int  1")
	fmt.Fprintln(w, "LOOKUP_TABLE default")

	for i := range c.Fine {
		if i%vtkLineLength == 0 && i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%8d", c.Fine[i].Grain)
	}
	fmt.Fprintln(w)

	return w.Flush()
}

// WriteGrains writes the grain count followed by one line per grain: ID,
// centroid, Euler angles, neighbor count, and neighbor IDs.
func WriteGrains(c *grainsynth.Context, wr io.Writer) error {
	w := bufio.NewWriter(wr)
	fmt.Fprintln(w, len(c.Packed))
	for i := range c.Packed {
		p := &c.Packed[i]
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t%d",
			p.ID, p.Center.X, p.Center.Y, p.Center.Z,
			p.Euler[0], p.Euler[1], p.Euler[2], len(p.Neighbors),
		)
		for _, n := range p.Neighbors {
			fmt.Fprintf(w, "\t%d", n)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// WriteBoundaryCenters writes the number of boundaries followed by one
// "g1 g2 x y z" line per boundary.
func WriteBoundaryCenters(c *grainsynth.Context, wr io.Writer) error {
	w := bufio.NewWriter(wr)
	bcs := c.BoundaryCenters()
	fmt.Fprintln(w, len(bcs))
	for _, bc := range bcs {
		fmt.Fprintf(w, "%d\t%d\t%g\t%g\t%g\n",
			bc.G1, bc.G2, bc.Center.X, bc.Center.Y, bc.Center.Z)
	}
	return w.Flush()
}

// WriteVolume writes one line per fine voxel: grain ID, the grain's Euler
// angles, the voxel center, and a confidence index of 1.
func WriteVolume(c *grainsynth.Context, wr io.Writer) error {
	w := bufio.NewWriter(wr)
	for idx := range c.Fine {
		g := c.Fine[idx].Grain
		var e [3]float64
		if g >= 0 {
			e = c.Packed[g].Euler
		}
		pos := c.VoxelCenter(idx)
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t1\n",
			g, e[0], e[1], e[2], pos.X, pos.Y, pos.Z)
	}
	return w.Flush()
}

// WriteAnalysis writes a text report of the volume statistics.
func WriteAnalysis(vs *grainsynth.VolumeStats, wr io.Writer) error {
	w := bufio.NewWriter(wr)

	fmt.Fprintln(w, "INDIVIDUAL DISTRIBUTIONS")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Grains\t%d\n", vs.Grains)
	fmt.Fprintln(w, "Parameter\tAvg.\tStd. Dev.")
	rows := []struct {
		name string
		m    grainsynth.Moments
	}{
		{"Volume", vs.Volume}, {"Ln Volume", vs.LnVolume},
		{"Neighbors", vs.Neighbors}, {"Ln Neighbors", vs.LnNeighbors},
		{"b/a", vs.BOverA}, {"c/a", vs.COverA}, {"c/b", vs.COverB},
		{"Diameter", vs.Diameter},
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%g\t%g\n", r.name, r.m.Mean, r.m.StdDev)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "CORRELATIONS")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Size V Neighbors\t%g\n", vs.SizeNeighbors)
	fmt.Fprintf(w, "Size V Neighbor Size\t%g\n", vs.SizeNeighborSize)
	fmt.Fprintf(w, "Size V b/a\t%g\n", vs.SizeBOverA)
	fmt.Fprintf(w, "Size V c/a\t%g\n", vs.SizeCOverA)
	fmt.Fprintf(w, "Size V c/b\t%g\n", vs.SizeCOverB)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diameter\tCount\tAvg. Neighbors\tStd. Dev. Neighbors\t"+
		"Avg. Ln Neighbors\tStd. Dev. Ln Neighbors\t"+
		"Avg. Neighbor Diameter\tStd. Dev. Neighbor Diameter\t"+
		"Avg. b/a\tStd. Dev. b/a\tAvg. c/a\tStd. Dev. c/a\t"+
		"Avg. c/b\tStd. Dev. c/b")
	for _, b := range vs.Bins {
		fmt.Fprintf(w, "%d\t%d", b.Diameter, b.Count)
		for _, m := range []grainsynth.Moments{
			b.Neighbors, b.LnNeighbors, b.NeighborDiameter,
			b.BOverA, b.COverA, b.COverB,
		} {
			fmt.Fprintf(w, "\t%g\t%g", m.Mean, m.StdDev)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "MISORIENTATION")
	for _, h := range vs.Misorientation {
		fmt.Fprintf(w, "%g\n", h)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "MICROTEXTURE")
	for _, h := range vs.Microtexture {
		fmt.Fprintf(w, "%g\n", h)
	}

	return w.Flush()
}

// WriteAll writes every output file of a finished run to dir.
func WriteAll(c *grainsynth.Context, dir string) error {
	if err := os.MkdirAll(dir, 0777); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{CubeFile, func(w io.Writer) error { return WriteVTK(c, w) }},
		{GrainsFile, func(w io.Writer) error { return WriteGrains(c, w) }},
		{BoundaryCentersFile, func(w io.Writer) error {
			return WriteBoundaryCenters(c, w)
		}},
		{VolumeFile, func(w io.Writer) error { return WriteVolume(c, w) }},
		{AnalysisFile, func(w io.Writer) error {
			return WriteAnalysis(c.VolumeStats(), w)
		}},
	}

	for _, wr := range writers {
		fname := path.Join(dir, wr.name)
		if err := writeFile(fname, wr.write); err != nil {
			return errors.Wrapf(err, "writing %s", fname)
		}
	}
	return nil
}

func writeFile(fname string, write func(io.Writer) error) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
