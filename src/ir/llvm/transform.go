// Package llvm runs the DemoteFloat16 transformation on LLVM IR through the system installed LLVM runtime.
package llvm

import (
	"errors"
	"fmt"
	"io"
	"hdemote/src/pass"
	"hdemote/src/pass/demote"
	"hdemote/src/util"
	"time"

	"tinygo.org/x/go-llvm"
)

// ---------------------
// ----- Functions -----
// ---------------------

// DemoteFloat16 demotes the half precision arithmetic of every defined function of m.
func DemoteFloat16(m llvm.Module) demote.Summary {
	return demoteModule(m, nil)
}

// demoteModule demotes every defined function of m, recording per function statistics in st.
func demoteModule(m llvm.Module, st *pass.Stats) demote.Summary {
	ctx := m.Context()
	var s demote.Summary
	for fun := m.FirstFunction(); !fun.IsNil(); fun = llvm.NextFunction(fun) {
		if fun.IsDeclaration() {
			continue
		}
		fs := demote.RunSummary(function{fun: fun, ctx: ctx})
		if fs.Changed() {
			st.RecordDemotion(fs.Demoted, fs.Extended, fs.Truncated)
			st.FunctionChanged(demote.Name)
			util.Log.Debug("function changed", "pass", demote.Name, "function", fun.Name(),
				"demoted", fs.Demoted)
		}
		s = s.Add(fs)
	}
	return s
}

// Process reads the LLVM IR file of opt, demotes its half precision arithmetic, verifies the result and writes
// it as textual IR to the output file of opt, or to w. LLVM contexts are not thread safe, so functions are transformed sequentially regardless of
// opt.Threads.
func Process(opt util.Options, st *pass.Stats, w io.Writer) error {
	if len(opt.Src) == 0 {
		return errors.New("LLVM IR must be read from a source file")
	}

	ctx := llvm.NewContext()
	defer ctx.Dispose()

	buf, err := llvm.NewMemoryBufferFromFile(opt.Src)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", opt.Src, err)
	}
	// The module takes ownership of buf.
	m, err := ctx.ParseIR(buf)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", opt.Src, err)
	}
	defer m.Dispose()

	if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
		return fmt.Errorf("input module is invalid: %w", err)
	}

	start := time.Now()
	s := demoteModule(m, st)
	st.ObservePass(demote.Name, time.Since(start))
	util.Log.Info("module transformed", "module", opt.Src, "demoted", s.Demoted, "fpext", s.Extended,
		"fptrunc", s.Truncated)

	if opt.Verify {
		if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
			return fmt.Errorf("pass %s left module invalid: %w", demote.Name, err)
		}
	}
	return util.WriteOutput(opt, w, m.String())
}
