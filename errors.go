package grainsynth

import (
	"fmt"

	"github.com/phil-mansfield/grainsynth/dist"
	"github.com/pkg/errors"
)

// DistributionLoadError is returned when an input distribution file is
// missing, malformed, or shorter than its table.
type DistributionLoadError = dist.LoadError

// PackingInfeasibleError is returned when a grain cannot be placed within the
// overlap budget, or when gap filling stops making progress.
type PackingInfeasibleError struct {
	Grain, Attempts int
	Reason          string
}

func (e *PackingInfeasibleError) Error() string {
	if e.Grain < 0 {
		return fmt.Sprintf("Packing is infeasible: %s.", e.Reason)
	}
	return fmt.Sprintf(
		"Could not place grain %d after %d attempts: %s.",
		e.Grain, e.Attempts, e.Reason,
	)
}

// SamplingInfeasibleError is returned when no acceptable set of shape ratios
// was drawn for a grain.
type SamplingInfeasibleError struct {
	Grain, Attempts int
}

func (e *SamplingInfeasibleError) Error() string {
	return fmt.Sprintf(
		"No acceptable b/a, c/a pair was drawn for grain %d in %d attempts.",
		e.Grain, e.Attempts,
	)
}

// DegenerateShapeError is returned when a grain's axis frame is singular or
// its moment tensor has non-finite principal values.
type DegenerateShapeError struct {
	Grain  int
	Reason string
}

func (e *DegenerateShapeError) Error() string {
	return fmt.Sprintf("Grain %d has a degenerate shape: %s.", e.Grain, e.Reason)
}

// LoadStore reads every distribution file from dir. Failures are returned as
// *DistributionLoadError.
func LoadStore(
	dir string, files dist.Files, dims dist.Dims, strict bool,
) (*dist.Store, error) {
	s, err := dist.Load(dir, files, dims, strict)
	if err == nil {
		return s, nil
	}
	if le, ok := err.(*DistributionLoadError); ok {
		return nil, le
	}
	return nil, &DistributionLoadError{
		File: dir, Err: errors.Wrap(err, "loading distributions"),
	}
}
