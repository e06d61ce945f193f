package io

import (
	"fmt"

	"github.com/phil-mansfield/grainsynth"
	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/grainsynth/dist"
	"gopkg.in/gcfg.v1"
)

const ExampleSynthesisFile = `[Synthesis]

#######################
# Required Parameters #
#######################

# Directory containing the eleven distribution files.
Input = path/to/input/dir
# Directory which output files will be written to. It is created if it does
# not exist.
Output = path/to/output/dir

# Number of grains to generate. The box is sized so that 90% of the total
# grain volume fits inside it.
Grains = 1000

# Shape of every grain. Must be one of
# [ Ellipsoid | Superellipsoid | CubeOctahedron ].
ShapeClass = Ellipsoid

# Voxel edge lengths, in the same units as the diameters in the volume file.
XResolution = 0.25
YResolution = 0.25
ZResolution = 0.25

# Fraction of a grain's footprint which may overlap grains placed before it.
# Must be in [0, 1].
OverlapAllowed = 0.0

# What happens to overlapped voxels. Rigid leaves them with the earlier grain.
# Progressive lets the new grain take them as long as the earlier grain does
# not shrink too much. Must be one of [ Rigid | Progressive ].
OverlapAssignment = Rigid

# Must be one of [ Cubic | Hexagonal ].
CrystalStructure = Cubic

#######################
# Optional Parameters #
#######################

# Seed for the random number generator. 0 seeds from the clock.
# Seed = 0

# Limits on the number of seeds tried per grain and on the number of shape
# ratio draws per grain.
# MaxPlacementAttempts = 1000
# MaxShapeAttempts = 10000

# Orientation optimizer settings.
# MisorientationIterations = 5
# MisorientationMoves = 250
# MicrotextureIterations = 100
# MicrotextureMoves = 150
# LowAngle = 15
# FreezeFraction = 0.85
# MicrotextureTolerance = 0.15

# By default, a distribution file with fewer records than its table is an
# error. Setting this pads short tables with zeros instead.
# AllowShortTables = false

# Table shapes. It's unlikely that you will want to change these.
# SizeBins = 11
# DiameterBins = 1000
# ShapeBins = 1000
# NBins = 1001
# NeighborBins = 100
# MisorientationBins = 10
# MicrotextureBins = 10

# Input file names, relative to Input.
# VolBinFile = volbins.txt
# BOverABinFile = boverabins.txt
# COverABinFile = coverabins.txt
# COverBBinFile = coverbbins.txt
# SeNBinFile = seNbins.txt
# AxisOrientationFile = axisorientations.txt
# EulerAngleFile = eulerangles.txt
# SVNFile = svn.txt
# SVSFile = svs.txt
# MisoBinFile = misobins.txt
# MicroBinFile = microbins.txt

# Writes plots comparing the target and synthesized misorientation and
# microtexture histograms, relative to Output. Requires matplotlib.
# PlotFile = histograms.png

# Output files which are useful for profiling and debugging. Generally, there
# isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

type SynthesisConfig struct {
	// Required
	Input, Output     string
	Grains            int
	ShapeClass        string
	XResolution       float64
	YResolution       float64
	ZResolution       float64
	OverlapAllowed    float64
	OverlapAssignment string
	CrystalStructure  string

	// Optional
	Seed                                          int64
	MaxPlacementAttempts, MaxShapeAttempts        int
	MisorientationIterations, MisorientationMoves int
	MicrotextureIterations, MicrotextureMoves     int
	LowAngle, FreezeFraction                      float64
	MicrotextureTolerance                         float64
	AllowShortTables                              bool

	SizeBins, DiameterBins, ShapeBins, NBins int
	NeighborBins                             int
	MisorientationBins, MicrotextureBins     int

	VolBinFile, BOverABinFile, COverABinFile, COverBBinFile string
	SeNBinFile, AxisOrientationFile, EulerAngleFile         string
	SVNFile, SVSFile, MisoBinFile, MicroBinFile             string

	PlotFile, LogFile, ProfileFile string
}

type SynthesisWrapper struct {
	Synthesis SynthesisConfig
}

func DefaultSynthesisWrapper() *SynthesisWrapper {
	p := grainsynth.DefaultParams()
	dims := dist.DefaultDims()
	files := dist.DefaultFiles()

	con := SynthesisConfig{}
	// Negative values mark the field as unset.
	con.OverlapAllowed = -1

	con.MaxPlacementAttempts = p.MaxPlacementAttempts
	con.MaxShapeAttempts = p.MaxShapeAttempts
	con.MisorientationIterations = p.MisorientationIterations
	con.MisorientationMoves = p.MisorientationMoves
	con.MicrotextureIterations = p.MicrotextureIterations
	con.MicrotextureMoves = p.MicrotextureMoves
	con.LowAngle = p.LowAngle
	con.FreezeFraction = p.FreezeFraction
	con.MicrotextureTolerance = p.MicrotextureTolerance

	con.SizeBins = dims.SizeBins
	con.DiameterBins = dims.DiameterBins
	con.ShapeBins = dims.ShapeBins
	con.NBins = dims.NBins
	con.NeighborBins = dims.NeighborBins
	con.MisorientationBins = dims.MisorientationBins
	con.MicrotextureBins = dims.MicrotextureBins

	con.VolBinFile = files.Volume
	con.BOverABinFile = files.BOverA
	con.COverABinFile = files.COverA
	con.COverBBinFile = files.COverB
	con.SeNBinFile = files.NValue
	con.AxisOrientationFile = files.AxisOrientation
	con.EulerAngleFile = files.Euler
	con.SVNFile = files.SVN
	con.SVSFile = files.SVS
	con.MisoBinFile = files.Misorientation
	con.MicroBinFile = files.Microtexture

	return &SynthesisWrapper{con}
}

func (con *SynthesisConfig) ValidInput() bool {
	return con.Input != ""
}
func (con *SynthesisConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SynthesisConfig) ValidGrains() bool {
	return con.Grains > 0
}
func (con *SynthesisConfig) ValidShapeClass() bool {
	_, err := grainsynth.ParseShapeClass(con.ShapeClass)
	return err == nil
}
func (con *SynthesisConfig) ValidResolution() bool {
	return con.XResolution > 0 && con.YResolution > 0 && con.ZResolution > 0
}
func (con *SynthesisConfig) ValidOverlapAllowed() bool {
	return con.OverlapAllowed >= 0 && con.OverlapAllowed <= 1
}
func (con *SynthesisConfig) ValidOverlapAssignment() bool {
	_, err := grainsynth.ParseOverlapPolicy(con.OverlapAssignment)
	return err == nil
}
func (con *SynthesisConfig) ValidCrystalStructure() bool {
	_, err := crystal.ParseClass(con.CrystalStructure)
	return err == nil
}
func (con *SynthesisConfig) ValidAttempts() bool {
	return con.MaxPlacementAttempts > 0 && con.MaxShapeAttempts > 0
}
func (con *SynthesisConfig) ValidOptimizer() bool {
	return con.MisorientationIterations >= 0 &&
		con.MisorientationMoves >= 0 &&
		con.MicrotextureIterations >= 0 &&
		con.MicrotextureMoves >= 0 &&
		con.LowAngle > 0 && con.FreezeFraction >= 0 &&
		con.MicrotextureTolerance >= 0
}
func (con *SynthesisConfig) ValidBins() bool {
	d := con.Dims()
	return d.SizeBins > 0 && d.DiameterBins > 0 && d.ShapeBins > 0 &&
		d.NBins > 0 && d.NeighborBins > 0 && d.MisorientationBins > 0 &&
		d.MicrotextureBins > 0
}
func (con *SynthesisConfig) ValidPlotFile() bool {
	return con.PlotFile != ""
}
func (con *SynthesisConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SynthesisConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}

// Check returns an error describing the first invalid or missing field.
func (con *SynthesisConfig) Check() error {
	switch {
	case !con.ValidInput():
		return fmt.Errorf("Invalid/non-existent 'Input' value.")
	case !con.ValidOutput():
		return fmt.Errorf("Invalid/non-existent 'Output' value.")
	case !con.ValidGrains():
		return fmt.Errorf("Invalid/non-existent 'Grains' value.")
	case !con.ValidShapeClass():
		return fmt.Errorf(
			"Invalid/non-existent 'ShapeClass' value. The only accepted " +
				"values are 'Ellipsoid', 'Superellipsoid', and " +
				"'CubeOctahedron'.",
		)
	case !con.ValidResolution():
		return fmt.Errorf(
			"'XResolution', 'YResolution', and 'ZResolution' must all " +
				"be set to positive values.",
		)
	case !con.ValidOverlapAllowed():
		return fmt.Errorf("Invalid/non-existent 'OverlapAllowed' value.")
	case !con.ValidOverlapAssignment():
		return fmt.Errorf(
			"Invalid/non-existent 'OverlapAssignment' value. The only " +
				"accepted values are 'Rigid' and 'Progressive'.",
		)
	case !con.ValidCrystalStructure():
		return fmt.Errorf(
			"Invalid/non-existent 'CrystalStructure' value. The only " +
				"accepted values are 'Cubic' and 'Hexagonal'.",
		)
	case !con.ValidAttempts():
		return fmt.Errorf(
			"'MaxPlacementAttempts' and 'MaxShapeAttempts' must be positive.",
		)
	case !con.ValidOptimizer():
		return fmt.Errorf("Invalid optimizer setting.")
	case !con.ValidBins():
		return fmt.Errorf("All bin counts must be positive.")
	}
	return nil
}

// Params converts the configuration into synthesis parameters.
func (con *SynthesisConfig) Params() (grainsynth.Params, error) {
	p := grainsynth.DefaultParams()
	if err := con.Check(); err != nil {
		return p, err
	}

	// Check has already parsed these.
	p.Shape, _ = grainsynth.ParseShapeClass(con.ShapeClass)
	p.Overlap, _ = grainsynth.ParseOverlapPolicy(con.OverlapAssignment)
	p.Crystal, _ = crystal.ParseClass(con.CrystalStructure)

	p.Grains = con.Grains
	p.Resolution = [3]float64{
		con.XResolution, con.YResolution, con.ZResolution,
	}
	p.OverlapAllowed = con.OverlapAllowed
	p.Seed = con.Seed
	p.MaxPlacementAttempts = con.MaxPlacementAttempts
	p.MaxShapeAttempts = con.MaxShapeAttempts
	p.MisorientationIterations = con.MisorientationIterations
	p.MisorientationMoves = con.MisorientationMoves
	p.MicrotextureIterations = con.MicrotextureIterations
	p.MicrotextureMoves = con.MicrotextureMoves
	p.LowAngle = con.LowAngle
	p.FreezeFraction = con.FreezeFraction
	p.MicrotextureTolerance = con.MicrotextureTolerance

	return p, p.Check()
}

func (con *SynthesisConfig) Dims() dist.Dims {
	return dist.Dims{
		SizeBins:           con.SizeBins,
		DiameterBins:       con.DiameterBins,
		ShapeBins:          con.ShapeBins,
		NBins:              con.NBins,
		NeighborBins:       con.NeighborBins,
		MisorientationBins: con.MisorientationBins,
		MicrotextureBins:   con.MicrotextureBins,
	}
}

func (con *SynthesisConfig) Files() dist.Files {
	return dist.Files{
		Volume:          con.VolBinFile,
		BOverA:          con.BOverABinFile,
		COverA:          con.COverABinFile,
		COverB:          con.COverBBinFile,
		NValue:          con.SeNBinFile,
		AxisOrientation: con.AxisOrientationFile,
		Euler:           con.EulerAngleFile,
		SVN:             con.SVNFile,
		SVS:             con.SVSFile,
		Misorientation:  con.MisoBinFile,
		Microtexture:    con.MicroBinFile,
	}
}

// ReadSynthesisConfig reads and checks a [Synthesis] configuration file.
func ReadSynthesisConfig(fname string) (*SynthesisConfig, error) {
	wrap := DefaultSynthesisWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	con := &wrap.Synthesis
	if err := con.Check(); err != nil {
		return nil, err
	}
	return con, nil
}
