package util

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Options holds the command line configuration of the driver.
type Options struct {
	Src         string    // Path to source file. Empty reads stdin.
	Out         string    // Path to output file. Empty writes stdout.
	Threads     int       // Thread count.
	Passes      []string  // Pass pipeline, in order. Empty runs the default pipeline.
	LLVM        bool      // Set true if the source is LLVM IR, processed through the LLVM bridge.
	Verify      bool      // Set true to verify the IR after every pass.
	Stats       bool      // Set true to print pass statistics to stderr.
	List        bool      // Set true to list the registered passes and exit.
	Verbose     bool      // Set true to log at debug level.
	LogFormat   string    // Log format: console or json.
	Eval        bool      // Set true to run Function on EvalArgs after the pipeline.
	EvalArgs    []float64 // Arguments of the evaluated function.
	Function    string    // Name of the evaluated function.
	TokenStream bool      // Set true if the driver should output the token stream and exit.
	Help        bool      // Set true to print usage and exit.
	Version     bool      // Set true to print the version and exit.
}

// ---------------------
// ----- Constants -----
// ---------------------

const maxThreads = 64 // Maximum threads allowed executing in parallel.

// AppVersion is printed by -v.
const AppVersion = "hdemote 1.0"

// DefaultFunction is the function run by -eval unless -fn is given.
const DefaultFunction = "main"

// ---------------------
// ----- functions -----
// ---------------------

// ParseArgs parses the command line arguments args, not including the program name.
func ParseArgs(args []string) (Options, error) {
	opt := Options{
		Threads:   1,
		LogFormat: "console",
		Function:  DefaultFunction,
	}
	for i1 := 0; i1 < len(args); i1++ {
		switch args[i1] {
		case "-h", "--h", "-help", "--help":
			// Help and usage.
			opt.Help = true
		case "-v", "--v", "-version", "--version":
			// Application version.
			opt.Version = true
		case "-ll":
			// Source is LLVM IR.
			opt.LLVM = true
		case "-verify":
			opt.Verify = true
		case "-stats":
			opt.Stats = true
		case "-list":
			opt.List = true
		case "-ts":
			// Output token stream.
			opt.TokenStream = true
		case "-vb":
			// Verbose mode.
			opt.Verbose = true
		case "-o", "-t", "-p", "-log", "-fn":
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			if strings.HasPrefix(args[i1+1], "-") {
				return opt, fmt.Errorf("expected argument to %s, got new flag %s", args[i1], args[i1+1])
			}
			arg := args[i1+1]
			switch args[i1] {
			case "-o":
				// Output file.
				opt.Out = arg
			case "-t":
				// Thread count.
				if t, err := strconv.Atoi(arg); err == nil {
					if t > 0 && t <= maxThreads {
						opt.Threads = t
					} else {
						return opt, fmt.Errorf("thread count must be integer in range [1, %d]", maxThreads)
					}
				} else {
					return opt, fmt.Errorf("expected integer thread count, got: %s", arg)
				}
			case "-p":
				// Pass pipeline.
				opt.Passes = opt.Passes[:0]
				for _, e1 := range strings.Split(arg, ",") {
					if e1 = strings.TrimSpace(e1); len(e1) > 0 {
						opt.Passes = append(opt.Passes, e1)
					}
				}
				if len(opt.Passes) == 0 {
					return opt, fmt.Errorf("empty pass pipeline: %q", arg)
				}
			case "-log":
				switch arg {
				case "console", "json":
					opt.LogFormat = arg
				default:
					return opt, fmt.Errorf("unexpected log format: %s", arg)
				}
			case "-fn":
				opt.Function = strings.TrimPrefix(arg, "@")
			}
			i1++
		case "-eval":
			// Arguments may be negative numbers, so they are never taken for a flag.
			if i1+1 >= len(args) {
				return opt, fmt.Errorf("got flag %s but no argument", args[i1])
			}
			vals, err := parseFloats(args[i1+1])
			if err != nil {
				return opt, err
			}
			opt.Eval = true
			opt.EvalArgs = vals
			i1++
		default:
			if strings.HasPrefix(args[i1], "-") {
				return opt, fmt.Errorf("unexpected flag: %s", args[i1])
			}
			if len(opt.Src) > 0 {
				return opt, fmt.Errorf("more than one source file: %s and %s", opt.Src, args[i1])
			}
			opt.Src = args[i1]
		}
	}
	if opt.TokenStream && opt.LLVM {
		return opt, fmt.Errorf("-ts cannot be combined with -ll")
	}
	if opt.Eval && opt.LLVM {
		return opt, fmt.Errorf("-eval cannot be combined with -ll")
	}
	return opt, nil
}

// parseFloats parses a comma separated list of numbers. The empty string is the empty list.
func parseFloats(s string) ([]float64, error) {
	res := make([]float64, 0, 4)
	if len(strings.TrimSpace(s)) == 0 {
		return res, nil
	}
	for _, e1 := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(e1), 64)
		if err != nil {
			return nil, fmt.Errorf("expected comma separated numbers, got: %s", s)
		}
		res = append(res, v)
	}
	return res, nil
}

// PrintHelp writes a helpful usage message to w.
func PrintHelp(w io.Writer) {
	tw := tabwriter.NewWriter(w, 6, 1, 1, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Usage: hdemote [flags] [source]")
	_, _ = fmt.Fprintln(tw, "-h, -help\tPrints this help message and exits the application.")
	_, _ = fmt.Fprintln(tw, "-v, -version\tPrints application version and exits the application.")
	_, _ = fmt.Fprintln(tw, "-o\tPath and name of the output file. Defaults to stdout.")
	_, _ = fmt.Fprintf(tw, "-t\tNumber of threads to run in parallel. Must be in range [1, %d].\n", maxThreads)
	_, _ = fmt.Fprintln(tw, "-p\tComma separated pass pipeline. Defaults to DemoteFloat16.")
	_, _ = fmt.Fprintln(tw, "-ll\tSource is LLVM IR, transformed through LLVM.")
	_, _ = fmt.Fprintln(tw, "-verify\tVerify the IR after every pass.")
	_, _ = fmt.Fprintln(tw, "-stats\tPrint pass statistics to stderr.")
	_, _ = fmt.Fprintln(tw, "-list\tList the registered passes and exit.")
	_, _ = fmt.Fprintln(tw, "-eval\tRun a function on comma separated arguments after the pipeline and print the result.")
	_, _ = fmt.Fprintf(tw, "-fn\tFunction run by -eval. Defaults to %s.\n", DefaultFunction)
	_, _ = fmt.Fprintln(tw, "-ts\tOutput the tokens of the source code and exit.")
	_, _ = fmt.Fprintln(tw, "-vb\tVerbose mode: log every changed function.")
	_, _ = fmt.Fprintln(tw, "-log\tLog format, console or json. Defaults to console.")
	_ = tw.Flush()
}
