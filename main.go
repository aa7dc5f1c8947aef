// Command normal2qlog converts a basis-vector normal map to a
// quaternion-logarithm normal map, or back with -i.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmadden/normal2qlog/internal/config"
	"github.com/jmadden/normal2qlog/internal/converter"
	"github.com/jmadden/normal2qlog/internal/logging"
	"github.com/jmadden/normal2qlog/internal/qlog"
)

// deriveZWarning returns the warning to print when flag combinations
// make -deriveZ a no-op, or "" when the combination is meaningful.
func deriveZWarning(inverse, deriveZ bool) string {
	if deriveZ && inverse {
		return "deriveZ has no effect when converting from quaternion logarithm maps to basis vector maps"
	}
	return ""
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"normal2qlog -- convert between basis vector and quaternion logarithm normal maps\n"+
			"Usage: normal2qlog [options] inputfile outputfile\n")
	flag.PrintDefaults()
}

func main() {
	inverse := flag.Bool("i", false, "convert from a quaternion logarithm normal to a basis vector normal")
	deriveZ := flag.Bool("deriveZ", false, "derive the Z channel of the basis normal from the XY values (forward conversion only)")
	bias := flag.Float64("bias", 0, "bias for bit precision on angle from normal: positive values bias precision towards the normal, negative away, 0 is linear")
	threads := flag.Int("threads", 0, "number of worker threads (0 = config.json default, or all hardware threads)")
	logLevel := flag.String("log-level", "", "logging level: debug, info, warn, error")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	level := *logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	if level != "" {
		logging.SetLevel(level)
	}

	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "normal2qlog: must have exactly one input and one output filename specified")
		usage()
		os.Exit(1)
	}

	// Printed unconditionally: this is caller feedback about a no-op
	// flag combination, not a log line, so -log-level must not hide it.
	if msg := deriveZWarning(*inverse, *deriveZ); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	}

	workers := *threads
	if workers == 0 {
		workers = cfg.Threads
	}

	opts := qlog.Options{
		Inverse: *inverse,
		DeriveZ: *deriveZ,
		Bias:    float32(*bias),
		Threads: workers,
	}

	if err := converter.ConvertFile(flag.Arg(0), flag.Arg(1), opts); err != nil {
		log.Fatalf("normal2qlog: %v", err)
	}
}
