// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"
	"text/tabwriter"
	"time"

	cp "github.com/marcosterland/CellProfiler/internal"
	"github.com/marcosterland/CellProfiler/internal/measure"
	"github.com/marcosterland/CellProfiler/internal/ops"
	"github.com/marcosterland/CellProfiler/internal/ops/intensity"
	"github.com/marcosterland/CellProfiler/internal/rest"
)

const version = "0.1.0"

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")

var objects = flag.String("objects", "", "label images as comma-separated `Name=file` pairs, files may contain wildcards, e.g. Nuclei=nuclei*.tif")
var images = flag.String("images", "", "intensity images as comma-separated `Name=file` pairs, files may contain wildcards, e.g. DNA=dna*.tif")
var out = flag.String("out", "%s_%d.csv", "save measurements per object set and frame to CSV. %s is replaced by the object set name, %d by the frame number")
var outlines = flag.String("outlines", "", "save object outlines per object set and frame, e.g. `%s_outlines_%d.png`")
var logFile = flag.String("log", "", "save log output to `file`")
var logLevel = flag.String("logLevel", "info", "minimum log level, one of trace, debug, info, warn, error")
var threads = flag.Int("threads", 0, "maximum number of concurrent measurements, 0=number of CPUs")
var continueOnError = flag.Bool("continueOnError", false, "log failed object set and image pairs instead of failing the frame")

var addr = flag.String("addr", ":8080", "listen address for serve")
var chroot = flag.String("chroot", "", "change filesystem root to `dir` before serving (requires root)")
var setuid = flag.Int("setuid", -1, "change user id before serving, -1=keep")

func main() {
	start := time.Now()
	flag.Usage = func() {
		fmt.Fprintf(os.Stdout, `CellProfiler object intensity measurement
This program comes with ABSOLUTELY NO WARRANTY.
This is free software, and you are welcome to redistribute it under certain conditions.

Usage: %s [-flag value] (measure|columns|serve|legal|version|help)

Commands:
  measure Measure object intensities of all object sets in all images, and save them as CSV
  columns List the measurement columns produced for the given object sets and images
  serve   Serve the REST API
  legal   Show license and attribution information
  version Show version information
  help    Show this message

Flags:
`, os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := cp.SetLogLevel(*logLevel); err != nil {
		cp.LogFatalf("Invalid log level '%s': %s", *logLevel, err.Error())
	}
	if *logFile != "" {
		if err := cp.LogAlsoToFile(*logFile); err != nil {
			cp.LogFatalf("Unable to open logfile '%s': %s", *logFile, err.Error())
		}
	}

	// Enable CPU profiling if flagged
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			cp.LogFatalf("Could not create CPU profile: %s", err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			cp.LogFatalf("Could not start CPU profile: %s", err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		return
	}

	c := ops.NewContext(cp.Log)
	if *threads > 0 {
		c.MaxThreads = *threads
	}

	var err error
	switch args[0] {
	case "measure":
		c.LogSystemInfo()
		err = cmdMeasure(c)
	case "columns":
		err = cmdColumns()
	case "serve":
		err = cmdServe(c)
	case "legal":
		fmt.Fprint(os.Stdout, legal)
	case "version":
		fmt.Fprintf(os.Stdout, "Version %s\n", version)
	case "help", "?":
		flag.Usage()
	default:
		err = fmt.Errorf("unknown command '%s'", args[0])
	}
	if err != nil {
		cp.LogFatalf("Error: %s", err.Error())
	}

	cp.Log.Debug().Dur("elapsed", time.Since(start)).Msg("done")
	cp.LogSync()
}

// Builds settings and file patterns from the -objects and -images flags
func parseInputs() (settings *measure.Settings, objectFiles, imageFiles map[string]string, err error) {
	objectNames, objectFiles, err := parseNamedFiles(*objects)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("-objects: %w", err)
	}
	imageNames, imageFiles, err := parseNamedFiles(*images)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("-images: %w", err)
	}
	settings = measure.NewSettings(imageNames, objectNames)
	if err := settings.Validate(); err != nil {
		return nil, nil, nil, err
	}
	return settings, objectFiles, imageFiles, nil
}

// Parses comma-separated Name=file pairs, preserving the order of names
func parseNamedFiles(arg string) (names []string, files map[string]string, err error) {
	files = make(map[string]string)
	if strings.TrimSpace(arg) == "" {
		return nil, files, nil
	}
	for _, pair := range strings.Split(arg, ",") {
		name, file, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || file == "" {
			return nil, nil, fmt.Errorf("'%s' is not of the form Name=file", pair)
		}
		if _, dup := files[name]; dup {
			return nil, nil, fmt.Errorf("name %s given twice", name)
		}
		names = append(names, name)
		files[name] = file
	}
	return names, files, nil
}

// Builds the measurement pipeline for the given settings
func newPipeline(settings *measure.Settings, objectFiles, imageFiles map[string]string) *ops.OpSequence {
	opMeasure := intensity.NewOpMeasureObjectIntensity(settings)
	opMeasure.ContinueOnError = *continueOnError
	seq := ops.NewOpSequence(ops.NewOpLoadMany(objectFiles, imageFiles), opMeasure)
	for _, o := range settings.ObjectNames {
		if *outlines != "" {
			seq.Append(intensity.NewOpSaveOutlines(o, strings.ReplaceAll(*outlines, "%s", o)))
		}
		if *out != "" {
			seq.Append(intensity.NewOpExportCSV(o, strings.ReplaceAll(*out, "%s", o)))
		}
	}
	return seq
}

func cmdMeasure(c *ops.Context) error {
	settings, objectFiles, imageFiles, err := parseInputs()
	if err != nil {
		return err
	}
	seq := newPipeline(settings, objectFiles, imageFiles)
	if m, err := json.MarshalIndent(seq, "", "  "); err == nil {
		c.Log.Debug().RawJSON("pipeline", m).Msg("running pipeline")
	}
	frames, err := ops.Run(seq, c)
	c.Log.Info().Int("frames", len(frames)).Msg("measured")
	return err
}

func cmdColumns() error {
	settings, _, _, err := parseInputs()
	if err != nil {
		return err
	}
	m := measure.NewMeasurer(settings, measure.DefaultFeatures())
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Object\tFeature\tType")
	for _, col := range m.GetMeasurementColumns() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", col.ObjectName, col.FeatureName, col.Type)
	}
	return w.Flush()
}

func cmdServe(c *ops.Context) error {
	if err := rest.MakeSandbox(*chroot, *setuid, c.Log); err != nil {
		return err
	}
	s := rest.NewServer(c.Log)
	s.MaxThreads = c.MaxThreads
	return s.Serve(*addr)
}
