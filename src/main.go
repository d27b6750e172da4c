package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"hdemote/src/frontend"
	"hdemote/src/ir/lir"
	"hdemote/src/ir/lir/eval"
	"hdemote/src/ir/llvm"
	"hdemote/src/pass"
	"hdemote/src/pass/demote"
	"hdemote/src/util"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run runs the driver on the command line arguments args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// Parse command line arguments.
	opt, err := util.ParseArgs(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Command line argument error: %s\n", err)
		return 1
	}
	if opt.Help {
		util.PrintHelp(stdout)
		return 0
	}
	if opt.Version {
		_, _ = fmt.Fprintln(stdout, util.AppVersion)
		return 0
	}

	level := "info"
	if opt.Verbose {
		level = "debug"
	}
	util.SetupWriter(stderr, level, opt.LogFormat)

	r := pass.NewRegistry()
	if err := demote.Register(r); err != nil {
		_, _ = fmt.Fprintf(stderr, "Pass registration error: %s\n", err)
		return 1
	}
	if opt.List {
		tw := tabwriter.NewWriter(stdout, 6, 1, 2, ' ', 0)
		for _, e1 := range r.Infos() {
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", e1.Name, e1.Description)
		}
		_ = tw.Flush()
		return 0
	}

	var st *pass.Stats
	if opt.Stats {
		st = pass.NewStats()
	}

	if opt.LLVM {
		err := llvm.Process(opt, st, stdout)
		dumpStats(st, stderr)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error reported by LLVM: %s\n", err)
			return 1
		}
		return 0
	}

	// Read source code.
	src, err := util.ReadSource(opt)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Could not read source code: %s\n", err)
		return 1
	}

	// If -ts flag was passed: output token stream and exit.
	if opt.TokenStream {
		if err := frontend.TokenStream(stdout, src); err != nil {
			_, _ = fmt.Fprintf(stderr, "Syntax error: %s\n", err)
			return 1
		}
		return 0
	}

	name := "stdin"
	if len(opt.Src) > 0 {
		name = filepath.Base(opt.Src)
	}
	m, err := frontend.Parse(lir.NewContext(), name, src)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Parse error: %s\n", err)
		return 1
	}

	passes := opt.Passes
	if len(passes) == 0 {
		passes = []string{demote.Name}
	}
	pm, err := pass.NewManager(r, passes, pass.Config{Threads: opt.Threads, Verify: opt.Verify, Stats: st})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Pipeline error: %s\n", err)
		return 1
	}
	_, err = pm.Run(m)
	dumpStats(st, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Pass error: %s\n", err)
		return 1
	}

	if opt.Eval {
		f := m.GetFunction(opt.Function)
		if f == nil {
			_, _ = fmt.Fprintf(stderr, "Evaluation error: no function @%s\n", opt.Function)
			return 1
		}
		res, err := eval.Run(f, opt.EvalArgs...)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Evaluation error: %s\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(stdout, strconv.FormatFloat(res, 'g', -1, 64))
		// The result takes the place of the module on stdout.
		if len(opt.Out) == 0 {
			return 0
		}
	}

	if err := util.WriteOutput(opt, stdout, m.String()); err != nil {
		_, _ = fmt.Fprintf(stderr, "Output error: %s\n", err)
		return 1
	}
	return 0
}

// dumpStats writes the statistics of st to w, if any were collected.
func dumpStats(st *pass.Stats, w io.Writer) {
	if st == nil {
		return
	}
	if err := st.Dump(w); err != nil {
		util.Log.Error("could not write statistics", "err", err)
	}
}
