package grainsynth

type phase struct {
	name     string
	progress float64
	run      func(c *Context) error
}

// phases lists the steps of a synthesis run, along with the percentage of
// the run complete after each.
var phases = []phase{
	{"generate", 5, (*Context).Generate},
	{"assign orientations", 10, func(c *Context) error {
		c.AssignEulers()
		return nil
	}},
	{"pack", 50, (*Context).Pack},
	{"fill gaps", 60, (*Context).FillGaps},
	{"find neighbors", 65, func(c *Context) error {
		c.FindNeighbors()
		return nil
	}},
	{"find centroids", 70, func(c *Context) error {
		c.FindCentroids()
		c.FindMoments()
		return nil
	}},
	{"find axes", 75, (*Context).FindAxes},
	{"optimize", 95, func(c *Context) error {
		c.Optimize()
		return nil
	}},
	{"find colors", 100, func(c *Context) error {
		c.FindColors()
		return nil
	}},
}

// Run executes every phase of the synthesis in order. Progress is updated and
// OnProgress is called after each phase.
func (c *Context) Run() error {
	c.setProgress("start", 0)
	for _, p := range phases {
		if err := p.run(c); err != nil {
			return err
		}
		c.logf("Finished %s (%.0f%%)", p.name, p.progress)
		c.setProgress(p.name, p.progress)
	}
	return nil
}
