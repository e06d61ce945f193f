package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"runtime/pprof"
	"strings"

	"github.com/phil-mansfield/grainsynth"
	"github.com/phil-mansfield/grainsynth/io"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		synthesize, exampleConfig string
	)
	vars := map[string]*string{
		"Synthesize":    &synthesize,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&synthesize, "Synthesize", "",
		"Configuration file for [Synthesis] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. The only accepted argument is "+
			"'Synthesis'.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Synthesize":
		con, err := io.ReadSynthesisConfig(synthesize)
		if err != nil {
			log.Fatal(err.Error())
		}
		synthesisMain(con)

	case "ExampleConfig":
		switch exampleConfig {
		case "Synthesis":
			fmt.Println(io.ExampleSynthesisFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Synthesis'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but grainsynth "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func synthesisMain(con *io.SynthesisConfig) {
	fg := synthesisSetupIO(con)
	defer fg.Close()

	params, err := con.Params()
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf("Loading distributions from %s", con.Input)
	store, err := grainsynth.LoadStore(
		con.Input, con.Files(), con.Dims(), !con.AllowShortTables,
	)
	if err != nil {
		log.Fatal(err.Error())
	}

	c, err := grainsynth.NewContext(params, store)
	if err != nil {
		log.Fatal(err.Error())
	}
	c.Logger = log.New(log.Writer(), "", log.Flags())

	if err := c.Run(); err != nil {
		log.Fatal(err.Error())
	}

	log.Printf("Writing to %s", con.Output)
	if err := io.WriteAll(c, con.Output); err != nil {
		log.Fatal(err.Error())
	}

	if con.ValidPlotFile() {
		io.PlotHistograms(c, path.Join(con.Output, con.PlotFile))
	}
}

func synthesisSetupIO(con *io.SynthesisConfig) *FileGroup {
	var err error
	fg := &FileGroup{}

	if con.ValidLogFile() {
		fg.log, err = os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(fg.log)
	}

	log.Println("Running Synthesis main.")

	if con.ValidProfileFile() {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	return fg
}
