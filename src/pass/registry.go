// Package pass provides the registry of function passes and the manager that runs a pipeline of passes over
// every function of a LIR module.
package pass

import (
	"fmt"
	"hdemote/src/ir/lir"
	"sort"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// FunctionPass transforms one function at a time. RunOnFunction returns true if the function was modified.
// Statistics are recorded in st, which may be <nil>.
type FunctionPass interface {
	Name() string
	RunOnFunction(f *lir.Function, st *Stats) bool
}

// Info describes a registered pass.
type Info struct {
	Name        string              // Stable name used to schedule the pass.
	Description string              // One line description.
	CFGOnly     bool                // True if the pass only inspects the control flow graph.
	IsAnalysis  bool                // True if the pass computes analysis results without modifying IR.
	New         func() FunctionPass // Constructor of a pass instance.
}

// Registry maps pass names to their descriptions.
type Registry struct {
	passes       map[string]Info
	sync.RWMutex // For registering passes from several init paths.
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

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{passes: make(map[string]Info, 8)}
}

// Register adds the pass described by info. Every pass is registered once; registering a name twice is an error.
func (r *Registry) Register(info Info) error {
	if len(info.Name) < 1 {
		return fmt.Errorf("cannot register pass without name")
	}
	if info.New == nil {
		return fmt.Errorf("pass %s has no constructor", info.Name)
	}
	r.Lock()
	defer r.Unlock()
	if _, ok := r.passes[info.Name]; ok {
		return fmt.Errorf("pass %s is already registered", info.Name)
	}
	r.passes[info.Name] = info
	return nil
}

// Lookup returns the pass registered under name.
func (r *Registry) Lookup(name string) (Info, bool) {
	r.RLock()
	defer r.RUnlock()
	info, ok := r.passes[name]
	return info, ok
}

// Infos returns every registered pass, sorted by name.
func (r *Registry) Infos() []Info {
	r.RLock()
	defer r.RUnlock()
	res := make([]Info, 0, len(r.passes))
	for _, e1 := range r.passes {
		res = append(res, e1)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}
