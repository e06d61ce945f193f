// Package dist loads the empirical distributions which drive microstructure
// synthesis and samples from them.
package dist

import (
	"path"

	"github.com/phil-mansfield/grainsynth/crystal"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bin is a single row of a distribution table. Prob is the cumulative
// probability at the lower edge of the bin and Value is the quantity the
// bin represents (a diameter, an aspect ratio, a shape exponent, ...).
type Bin struct {
	Prob, Value float64
}

// Axes is a frame of three unit vectors giving the directions of a grain's
// a, b, and c axes.
type Axes [3]r3.Vec

// Dims gives the shapes of the distribution tables.
type Dims struct {
	SizeBins, DiameterBins, ShapeBins, NBins, NeighborBins int
	MisorientationBins, MicrotextureBins                   int
}

// DefaultDims returns the table shapes used by the standard input files.
func DefaultDims() Dims {
	return Dims{
		SizeBins:           11,
		DiameterBins:       1000,
		ShapeBins:          1000,
		NBins:              1001,
		NeighborBins:       100,
		MisorientationBins: 10,
		MicrotextureBins:   10,
	}
}

// Files gives the names of the eleven input files relative to an input
// directory.
type Files struct {
	Volume, BOverA, COverA, COverB, NValue string
	AxisOrientation, Euler                 string
	SVN, SVS, Misorientation, Microtexture string
}

// DefaultFiles returns the standard input file names.
func DefaultFiles() Files {
	return Files{
		Volume:          "volbins.txt",
		BOverA:          "boverabins.txt",
		COverA:          "coverabins.txt",
		COverB:          "coverbbins.txt",
		NValue:          "seNbins.txt",
		AxisOrientation: "axisorientations.txt",
		Euler:           "eulerangles.txt",
		SVN:             "svn.txt",
		SVS:             "svs.txt",
		Misorientation:  "misobins.txt",
		Microtexture:    "microbins.txt",
	}
}

// Store holds every distribution needed for a synthesis run. It is read-only
// once loaded.
type Store struct {
	Dims Dims

	Diameters []Bin
	// BOverA, COverA, COverB, and NValues are indexed as [size bin][bin].
	BOverA, COverA, COverB [][]Bin
	NValues                [][]Bin

	Orientations []Axes
	Eulers       *crystal.EulerHistogram

	// SVN[size][n] is the probability that a grain of the given size bin
	// has n neighbors. SVS[size][nsize] is the fraction of neighbors of a
	// grain in the given size bin which fall in size bin nsize.
	SVN, SVS [][]float64

	// Target histogram heights.
	Misorientation, Microtexture []float64
}

// Load reads all eleven distribution files from dir. If strict is false,
// short tables are padded with zeros instead of returning an error.
func Load(dir string, files Files, dims Dims, strict bool) (*Store, error) {
	s := &Store{Dims: dims}
	var err error
	join := func(name string) string { return path.Join(dir, name) }

	if s.Diameters, err = LoadDiameters(
		join(files.Volume), dims.DiameterBins, strict,
	); err != nil {
		return nil, err
	}
	if s.BOverA, err = LoadShape(
		join(files.BOverA), dims.SizeBins, dims.ShapeBins, strict,
	); err != nil {
		return nil, err
	}
	if s.COverA, err = LoadShape(
		join(files.COverA), dims.SizeBins, dims.ShapeBins, strict,
	); err != nil {
		return nil, err
	}
	if s.COverB, err = LoadShape(
		join(files.COverB), dims.SizeBins, dims.ShapeBins, strict,
	); err != nil {
		return nil, err
	}
	if s.NValues, err = LoadNValues(
		join(files.NValue), dims.SizeBins, dims.NBins, strict,
	); err != nil {
		return nil, err
	}
	if s.Orientations, err = LoadOrientations(
		join(files.AxisOrientation), strict,
	); err != nil {
		return nil, err
	}
	if s.Eulers, err = LoadEulers(join(files.Euler), strict); err != nil {
		return nil, err
	}
	if s.SVN, err = LoadSVN(
		join(files.SVN), dims.SizeBins, dims.NeighborBins, strict,
	); err != nil {
		return nil, err
	}
	if s.SVS, err = LoadSVS(join(files.SVS), dims.SizeBins, strict); err != nil {
		return nil, err
	}
	if s.Misorientation, err = LoadHeights(
		join(files.Misorientation), dims.MisorientationBins, strict,
	); err != nil {
		return nil, err
	}
	if s.Microtexture, err = LoadHeights(
		join(files.Microtexture), dims.MicrotextureBins, strict,
	); err != nil {
		return nil, err
	}

	return s, nil
}

// Sample returns the last bin whose cumulative probability is below u, or 0
// if there is no such bin. Since each bin stores the cumulative probability
// at its lower edge, this is the bin whose probability interval contains u.
func Sample(bins []Bin, u float64) int {
	idx := 0
	for i := range bins {
		if bins[i].Prob < u {
			idx = i
		}
	}
	return idx
}

// Below returns the cumulative probability of the last bin whose value is
// below x, or 0 if there is no such bin.
func Below(bins []Bin, x float64) float64 {
	p := 0.0
	for i := range bins {
		if bins[i].Value < x {
			p = bins[i].Prob
		}
	}
	return p
}

// SizeBin returns the size bin of an equivalent-sphere diameter.
func (s *Store) SizeBin(diameter float64) int {
	b := int(diameter)
	if b >= s.Dims.SizeBins {
		b = s.Dims.SizeBins - 1
	} else if b < 0 {
		b = 0
	}
	return b
}
