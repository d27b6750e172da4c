// Package eval interprets LIR functions on scalar arguments. Every result is rounded to the precision of its type
// after each operation, so a half precision computation yields the value a half precision machine would produce.
package eval

import (
	"errors"
	"fmt"
	"hdemote/src/ir/lir"
	"hdemote/src/ir/lir/types"
	"math"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// slot holds the runtime value of an LIR value. Floating point values use f, integers use i.
type slot struct {
	f float64
	i int64
}

// frame holds the state of one function execution.
type frame struct {
	f     *lir.Function
	env   map[lir.Value]slot // Runtime values of parameters and executed instructions.
	steps int                // Remaining instruction budget.
}

// ---------------------
// ----- Constants -----
// ---------------------

// DefaultMaxSteps is the instruction budget of Run.
const DefaultMaxSteps = 1 << 20

// -------------------
// ----- Globals -----
// -------------------

// ErrStepLimit is returned when a function executes more instructions than its budget allows.
var ErrStepLimit = errors.New("step limit exceeded")

// ---------------------
// ----- Functions -----
// ---------------------

// Run executes Function f on args and returns the returned value. Integer results are converted to float64. A
// void function returns 0.
func Run(f *lir.Function, args ...float64) (float64, error) {
	return RunLimit(f, DefaultMaxSteps, args...)
}

// RunLimit executes Function f on args, executing at most limit instructions.
func RunLimit(f *lir.Function, limit int, args ...float64) (float64, error) {
	params := f.Params()
	if len(args) != len(params) {
		return 0, fmt.Errorf("function %s takes %d arguments, got %d", f.Name(), len(params), len(args))
	}
	if len(f.Blocks()) == 0 {
		return 0, fmt.Errorf("function %s has no body", f.Name())
	}
	fr := frame{
		f:     f,
		env:   make(map[lir.Value]slot, 64),
		steps: limit,
	}
	for i1, e1 := range params {
		typ := e1.Type()
		if typ.IsVector() {
			return 0, fmt.Errorf("function %s: parameter %s: vector values are not supported", f.Name(), e1.Ident())
		}
		if typ.IsFloat() {
			fr.env[e1] = slot{f: lir.RoundFloat(typ.Kind, args[i1])}
		} else {
			fr.env[e1] = slot{i: lir.TruncInt(typ.Kind, int64(args[i1]))}
		}
	}
	res, err := fr.run()
	if err != nil {
		return 0, fmt.Errorf("function %s: %w", f.Name(), err)
	}
	if f.ReturnType().IsInt() {
		return float64(res.i), nil
	}
	return res.f, nil
}

// run executes the function body from the entry block until a return instruction is reached.
func (fr *frame) run() (slot, error) {
	var prev *lir.Block
	b := fr.f.Blocks()[0]
	for {
		// Phis of a block read their incoming values simultaneously.
		inst := b.First()
		phis := make(map[lir.Value]slot, 4)
		for ; inst != nil && inst.Opcode() == types.Phi; inst = inst.Next() {
			v, err := fr.phi(inst.(*lir.PhiInstruction), prev)
			if err != nil {
				return slot{}, err
			}
			phis[inst] = v
		}
		for k, v := range phis {
			fr.env[k] = v
		}

		for ; inst != nil; inst = inst.Next() {
			if fr.steps--; fr.steps < 0 {
				return slot{}, ErrStepLimit
			}
			if inst.Type().IsVector() {
				return slot{}, fmt.Errorf("%q: vector values are not supported", inst.String())
			}
			switch x := inst.(type) {
			case *lir.BranchInstruction:
				next := x.Then()
				if x.IsConditional() {
					c, err := fr.operand(x.Operand(0))
					if err != nil {
						return slot{}, err
					}
					if c.i == 0 {
						next = x.Else()
					}
				}
				prev, b = b, next
			case *lir.ReturnInstruction:
				if x.Value() == nil {
					return slot{}, nil
				}
				return fr.operand(x.Value())
			default:
				v, err := fr.exec(inst)
				if err != nil {
					return slot{}, fmt.Errorf("%q: %w", inst.String(), err)
				}
				fr.env[inst] = v
				continue
			}
			break
		}
		if inst == nil {
			return slot{}, fmt.Errorf("block %s is not terminated", b.Name())
		}
	}
}

// phi returns the incoming value of inst for control arriving from block prev.
func (fr *frame) phi(inst *lir.PhiInstruction, prev *lir.Block) (slot, error) {
	for i1 := 0; i1 < inst.NumOperands(); i1++ {
		if inst.Block(i1) == prev {
			return fr.operand(inst.Operand(i1))
		}
	}
	if prev == nil {
		return slot{}, fmt.Errorf("%q: phi in entry block", inst.String())
	}
	return slot{}, fmt.Errorf("%q: no incoming value for block %s", inst.String(), prev.Name())
}

// operand returns the runtime value of v.
func (fr *frame) operand(v lir.Value) (slot, error) {
	if c, ok := v.(*lir.Constant); ok {
		return slot{f: c.Float(), i: c.Int()}, nil
	}
	if s, ok := fr.env[v]; ok {
		return s, nil
	}
	return slot{}, fmt.Errorf("value %s is used before it is defined", v.Ident())
}

// exec executes a value producing instruction.
func (fr *frame) exec(inst lir.Instruction) (slot, error) {
	ops := make([]slot, inst.NumOperands())
	for i1 := range ops {
		s, err := fr.operand(inst.Operand(i1))
		if err != nil {
			return slot{}, err
		}
		ops[i1] = s
	}
	typ := inst.Type()

	switch x := inst.(type) {
	case *lir.BinaryInstruction:
		if x.Opcode().IsFloatBinary() {
			return slot{f: lir.RoundFloat(typ.Kind, floatOp(x.Opcode(), ops[0].f, ops[1].f))}, nil
		}
		r, err := intOp(x.Opcode(), ops[0].i, ops[1].i)
		if err != nil {
			return slot{}, err
		}
		return slot{i: lir.TruncInt(typ.Kind, r)}, nil
	case *lir.UnaryInstruction:
		return slot{f: -ops[0].f}, nil
	case *lir.CompareInstruction:
		var ok bool
		if x.Opcode() == types.FCmp {
			ok = floatCmp(x.Predicate(), ops[0].f, ops[1].f)
		} else {
			ok = intCmp(x.Predicate(), ops[0].i, ops[1].i)
		}
		if ok {
			return slot{i: 1}, nil
		}
		return slot{}, nil
	case *lir.CastInstruction:
		switch x.Opcode() {
		case types.FPExt:
			return slot{f: ops[0].f}, nil
		case types.FPTrunc:
			return slot{f: lir.RoundFloat(typ.Kind, ops[0].f)}, nil
		case types.SIToFP:
			return slot{f: lir.RoundFloat(typ.Kind, float64(ops[0].i))}, nil
		case types.FPToSI:
			v := math.Trunc(ops[0].f)
			if math.IsNaN(v) || v < math.MinInt64 || v >= math.MaxInt64 {
				return slot{}, fmt.Errorf("%g does not fit in %s", ops[0].f, typ.String())
			}
			return slot{i: lir.TruncInt(typ.Kind, int64(v))}, nil
		}
	}
	return slot{}, fmt.Errorf("cannot execute %s", inst.Opcode().String())
}

// floatOp applies the floating point arithmetic operation op.
func floatOp(op types.Opcode, l, r float64) float64 {
	switch op {
	case types.FAdd:
		return l + r
	case types.FSub:
		return l - r
	case types.FMul:
		return l * r
	case types.FDiv:
		return l / r
	}
	return math.Mod(l, r)
}

// intOp applies the integer arithmetic operation op.
func intOp(op types.Opcode, l, r int64) (int64, error) {
	switch op {
	case types.Add:
		return l + r, nil
	case types.Sub:
		return l - r, nil
	case types.Mul:
		return l * r, nil
	}
	if r == 0 {
		return 0, errors.New("integer division by zero")
	}
	if op == types.SDiv {
		return l / r, nil
	}
	return l % r, nil
}

// floatCmp evaluates the floating point predicate p. Ordered predicates are false and unordered predicates are
// true if either operand is NaN.
func floatCmp(p types.Predicate, l, r float64) bool {
	uno := math.IsNaN(l) || math.IsNaN(r)
	switch p {
	case types.PredFalse:
		return false
	case types.PredTrue:
		return true
	case types.ORD:
		return !uno
	case types.UNO:
		return uno
	case types.OEQ:
		return !uno && l == r
	case types.OGT:
		return !uno && l > r
	case types.OGE:
		return !uno && l >= r
	case types.OLT:
		return !uno && l < r
	case types.OLE:
		return !uno && l <= r
	case types.ONE:
		return !uno && l != r
	case types.UEQ:
		return uno || l == r
	case types.UGT:
		return uno || l > r
	case types.UGE:
		return uno || l >= r
	case types.ULT:
		return uno || l < r
	case types.ULE:
		return uno || l <= r
	case types.UNE:
		return uno || l != r
	}
	panic(fmt.Sprintf("%s is not a floating point predicate", p.String()))
}

// intCmp evaluates the integer predicate p.
func intCmp(p types.Predicate, l, r int64) bool {
	switch p {
	case types.EQ:
		return l == r
	case types.NE:
		return l != r
	case types.SGT:
		return l > r
	case types.SGE:
		return l >= r
	case types.SLT:
		return l < r
	case types.SLE:
		return l <= r
	case types.IUGT:
		return uint64(l) > uint64(r)
	case types.IUGE:
		return uint64(l) >= uint64(r)
	case types.IULT:
		return uint64(l) < uint64(r)
	case types.IULE:
		return uint64(l) <= uint64(r)
	}
	panic(fmt.Sprintf("%s is not an integer predicate", p.String()))
}
