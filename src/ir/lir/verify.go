package lir

import (
	"errors"
	"fmt"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// verifier collects every problem found in one function body.
type verifier struct {
	f    *Function
	pos  map[Instruction]int // Position of every instruction in its block.
	errs []error
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

// VerifyModule verifies every function of Module m. All problems are returned joined in one error.
func VerifyModule(m *Module) error {
	errs := make([]error, 0, 4)
	for _, e1 := range m.functions {
		if err := Verify(e1); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify checks that Function f is well-formed: every block is terminated, operands are live values of f, use
// lists agree with operand lists and instruction types are consistent. All problems are returned joined in one
// error.
func Verify(f *Function) error {
	v := verifier{
		f:   f,
		pos: make(map[Instruction]int, 64),
	}
	if len(f.blocks) == 0 {
		v.errorf(nil, "function has no basic blocks")
	}
	for _, e1 := range f.blocks {
		i1 := 0
		for e2 := e1.first; e2 != nil; e2 = e2.Next() {
			v.pos[e2] = i1
			i1++
		}
	}
	for _, e1 := range f.blocks {
		v.block(e1)
	}
	return errors.Join(v.errs...)
}

// errorf records a problem found in inst. inst may be <nil> for function level problems.
func (v *verifier) errorf(inst Instruction, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if inst == nil {
		v.errs = append(v.errs, fmt.Errorf("function %s: %s", v.f.name, msg))
		return
	}
	v.errs = append(v.errs, fmt.Errorf("function %s: %q: %s", v.f.name, inst.String(), msg))
}

// block checks the structure of Block b and every instruction in it.
func (v *verifier) block(b *Block) {
	if b.first == nil {
		v.errs = append(v.errs, fmt.Errorf("function %s: block %s is empty", v.f.name, b.name))
		return
	}
	phis := true
	for e1 := b.first; e1 != nil; e1 = e1.Next() {
		if e1.Parent() != b {
			v.errorf(e1, "instruction is linked into block %s but claims another parent", b.name)
		}
		if e1.Opcode() == types.Phi {
			if !phis {
				v.errorf(e1, "phi follows a non-phi instruction")
			}
		} else {
			phis = false
		}
		if e1.Opcode().IsTerminator() && e1.Next() != nil {
			v.errorf(e1, "terminator is not the last instruction of block %s", b.name)
		}
		v.operands(e1)
		v.uses(e1)
		v.typ(e1)
	}
	if !b.last.Opcode().IsTerminator() {
		v.errs = append(v.errs, fmt.Errorf("function %s: block %s is not terminated", v.f.name, b.name))
	}
}

// operands checks that every operand of inst is a live value of the function and that inst is on the operand's
// use list.
func (v *verifier) operands(inst Instruction) {
	for i1, e1 := range inst.inst().ops {
		if e1 == nil {
			v.errorf(inst, "operand %d is <nil>", i1)
			continue
		}
		switch op := e1.(type) {
		case *Param:
			if op.f != v.f {
				v.errorf(inst, "operand %d is a parameter of function %s", i1, op.f.name)
			}
		case *Constant:
		case *Forward:
			v.errorf(inst, "operand %d is an unresolved reference to %s", i1, op.Ident())
		case Instruction:
			if op.IsErased() {
				v.errorf(inst, "operand %d refers to erased instruction %s", i1, op.Ident())
				continue
			}
			if op.Parent().f != v.f {
				v.errorf(inst, "operand %d is defined in function %s", i1, op.Parent().f.name)
				continue
			}
			if inst.Opcode() != types.Phi && op.Parent() == inst.Parent() && v.pos[op] >= v.pos[inst] {
				v.errorf(inst, "operand %d is used before its definition", i1)
			}
		}
		found := false
		for _, e2 := range e1.base().uses {
			if e2.User == inst && e2.Index == i1 {
				found = true
				break
			}
		}
		if !found {
			v.errorf(inst, "operand %d is missing from the use list of %s", i1, e1.Ident())
		}
	}
}

// uses checks that every use recorded for inst refers back to inst.
func (v *verifier) uses(inst Instruction) {
	for _, e1 := range inst.base().uses {
		if e1.User.IsErased() {
			v.errorf(inst, "used by erased instruction %s", e1.User.Ident())
			continue
		}
		if e1.Index >= e1.User.NumOperands() || e1.User.Operand(e1.Index).base() != inst.base() {
			v.errorf(inst, "stale use %d in %q", e1.Index, e1.User.String())
		}
	}
}

// typ checks the operand and result types of inst.
func (v *verifier) typ(inst Instruction) {
	in := inst.inst()
	switch x := inst.(type) {
	case *BinaryInstruction:
		lt, rt := in.ops[0].Type(), in.ops[1].Type()
		if _, ok := BinaryType(in.op, lt, rt); !ok {
			v.errorf(inst, "%s cannot be applied to %s and %s", in.op.String(), lt.String(), rt.String())
		} else if in.typ != lt && in.typ != rt {
			v.errorf(inst, "result type %s matches neither operand", in.typ.String())
		}
	case *UnaryInstruction:
		if !in.ops[0].Type().IsFloat() || in.ops[0].Type() != in.typ {
			v.errorf(inst, "fneg of %s cannot produce %s", in.ops[0].Type().String(), in.typ.String())
		}
	case *CompareInstruction:
		lt, rt := in.ops[0].Type(), in.ops[1].Type()
		if x.pred.IsFloat() != (in.op == types.FCmp) {
			v.errorf(inst, "predicate %s does not belong to %s", x.pred.String(), in.op.String())
		}
		if !lt.SameShape(rt) || (in.op == types.FCmp && (!lt.IsFloat() || !rt.IsFloat())) ||
			(in.op == types.ICmp && (!lt.IsInt() || lt != rt)) {
			v.errorf(inst, "cannot compare %s and %s", lt.String(), rt.String())
		}
	case *CastInstruction:
		if err := checkCast(in.op, in.ops[0].Type(), in.typ); err != nil {
			v.errorf(inst, "%s", err)
		}
	case *PhiInstruction:
		for i1, e1 := range in.ops {
			if e1 != nil && e1.Type() != in.typ {
				v.errorf(inst, "incoming value %d has type %s", i1, e1.Type().String())
			}
			if x.blocks[i1].f != v.f {
				v.errorf(inst, "incoming block %s is not in the function", x.blocks[i1].name)
			}
		}
	case *BranchInstruction:
		if x.IsConditional() && in.ops[0] != nil && in.ops[0].Type() != v.f.m.ctx.Int1Type() {
			v.errorf(inst, "branch condition has type %s", in.ops[0].Type().String())
		}
		for _, e1 := range x.Successors() {
			if e1 == nil || e1.f != v.f {
				v.errorf(inst, "branch target is not in the function")
			}
		}
	case *ReturnInstruction:
		rv := x.Value()
		switch {
		case rv == nil && !v.f.typ.IsVoid():
			v.errorf(inst, "function returning %s returns void", v.f.typ.String())
		case rv != nil && rv.Type() != v.f.typ:
			v.errorf(inst, "returns %s from function returning %s", rv.Type().String(), v.f.typ.String())
		}
	}
}
