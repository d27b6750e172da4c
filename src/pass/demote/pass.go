package demote

import (
	"hdemote/src/ir/lir"
	"hdemote/src/pass"
)

// Pass runs the transformation as a pass.FunctionPass.
type Pass struct{}

// New returns a new DemoteFloat16 pass.
func New() pass.FunctionPass {
	return &Pass{}
}

// Register registers DemoteFloat16 in r. The pass rewrites instructions inside existing blocks only and neither
// requires nor preserves analysis results.
func Register(r *pass.Registry) error {
	return r.Register(pass.Info{
		Name:        Name,
		Description: Description,
		CFGOnly:     false,
		IsAnalysis:  false,
		New:         New,
	})
}

// Name returns the registered name of the pass.
func (p *Pass) Name() string {
	return Name
}

// RunOnFunction demotes the half precision arithmetic of f and records what was done in st.
func (p *Pass) RunOnFunction(f *lir.Function, st *pass.Stats) bool {
	s := RunLIR(f)
	st.RecordDemotion(s.Demoted, s.Extended, s.Truncated)
	return s.Changed()
}
