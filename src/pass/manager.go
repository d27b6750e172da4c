package pass

import (
	"errors"
	"fmt"
	"hdemote/src/ir/lir"
	"hdemote/src/util"
	"sync"
	"sync/atomic"
	"time"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Config configures a Manager.
type Config struct {
	Threads int    // Number of worker goroutines. Values below 2 run sequentially.
	Verify  bool   // Verify every function after every pass.
	Stats   *Stats // Statistics sink. May be <nil>.
}

// Manager runs an ordered pipeline of passes over every function of a module.
type Manager struct {
	passes []Info
	cfg    Config
}

// ---------------------
// ----- Constants -----
// ---------------------

// -------------------
// ----- Globals -----
// -------------------

// ---------------------
// ----- Functions -----
// ---------------------

// NewManager returns a Manager running the passes registered in r under names, in order.
func NewManager(r *Registry, names []string, cfg Config) (*Manager, error) {
	if len(names) < 1 {
		return nil, errors.New("empty pass pipeline")
	}
	pm := &Manager{
		passes: make([]Info, 0, len(names)),
		cfg:    cfg,
	}
	for _, e1 := range names {
		info, ok := r.Lookup(e1)
		if !ok {
			return nil, fmt.Errorf("unknown pass %q", e1)
		}
		pm.passes = append(pm.passes, info)
	}
	return pm, nil
}

// Passes returns the names of the pipeline's passes, in order.
func (pm *Manager) Passes() []string {
	res := make([]string, len(pm.passes))
	for i1, e1 := range pm.passes {
		res[i1] = e1.Name
	}
	return res
}

// Run runs every pass of the pipeline over every function of Module m with a body, and returns true if any
// function was modified. With more than one thread, the functions are partitioned across worker goroutines and
// every function is visited by exactly one goroutine per pass.
func (pm *Manager) Run(m *lir.Module) (bool, error) {
	funcs := make([]*lir.Function, 0, len(m.Functions()))
	for _, e1 := range m.Functions() {
		if len(e1.Blocks()) > 0 {
			funcs = append(funcs, e1)
		}
	}

	changed := false
	for _, e1 := range pm.passes {
		start := time.Now()
		var c bool
		var err error
		if pm.cfg.Threads > 1 && len(funcs) > 1 {
			c, err = pm.runParallel(e1, funcs)
		} else {
			c, err = pm.runSequential(e1, funcs)
		}
		elapsed := time.Since(start)
		pm.cfg.Stats.ObservePass(e1.Name, elapsed)
		util.Log.Info("pass finished", "pass", e1.Name, "module", m.Name, "functions", len(funcs), "changed", c,
			"elapsed", elapsed.String())
		if c {
			changed = true
		}
		if err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// runSequential runs the pass described by info over funcs on the calling goroutine.
func (pm *Manager) runSequential(info Info, funcs []*lir.Function) (bool, error) {
	p := info.New()
	changed := false
	errs := make([]error, 0, 2)
	for _, e1 := range funcs {
		c, err := pm.runOnFunction(p, e1)
		if c {
			changed = true
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return changed, errors.Join(errs...)
}

// runParallel runs the pass described by info over funcs on Threads worker goroutines. Every goroutine has its
// own pass instance and a contiguous share of funcs.
func (pm *Manager) runParallel(info Info, funcs []*lir.Function) (bool, error) {
	t := pm.cfg.Threads
	l := len(funcs)
	if t > l {
		t = l
	}
	n := l / t
	res := l % t
	start := 0
	end := n

	pe := util.NewPerror(l)
	var changed atomic.Bool
	wg := sync.WaitGroup{}
	wg.Add(t)
	for i1 := 0; i1 < t; i1++ {
		if i1 < res {
			// This goroutine does one extra residual function.
			end++
		}
		go func(start, end int) {
			defer wg.Done()
			p := info.New()
			for _, e1 := range funcs[start:end] {
				c, err := pm.runOnFunction(p, e1)
				if c {
					changed.Store(true)
				}
				pe.Append(err)
			}
		}(start, end)
		start = end
		end += n
	}
	wg.Wait()
	pe.Stop()
	if pe.Len() > 0 {
		util.Log.Warn("parallel pass reported errors", "pass", info.Name, "errors", pe.Len(), "threads", t)
	}
	return changed.Load(), pe.Err()
}

// runOnFunction runs pass p over Function f and verifies f afterwards if configured.
func (pm *Manager) runOnFunction(p FunctionPass, f *lir.Function) (bool, error) {
	changed := p.RunOnFunction(f, pm.cfg.Stats)
	if changed {
		pm.cfg.Stats.FunctionChanged(p.Name())
		util.Log.Debug("function changed", "pass", p.Name(), "function", f.Name())
	}
	if pm.cfg.Verify {
		if err := lir.Verify(f); err != nil {
			return changed, fmt.Errorf("pass %s left function %s invalid: %w", p.Name(), f.Name(), err)
		}
	}
	return changed, nil
}
