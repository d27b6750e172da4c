package demote

import (
	"fmt"
	"hdemote/src/ir/lir"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// lirFunction adapts a LIR function to the Function interface.
type lirFunction struct {
	f *lir.Function
}

// lirBlock adapts a LIR basic block.
type lirBlock struct {
	b *lir.Block
}

// lirValue adapts a LIR parameter or constant.
type lirValue struct {
	v lir.Value
}

// lirInstruction adapts a LIR instruction.
type lirInstruction struct {
	inst lir.Instruction
}

// lirBuilder adapts a LIR builder. New values are named after the instruction being replaced: operands widened
// in front of %x become %<operand>.ext, the replacement %x.wide and the narrowing conversion %x.trunc.
type lirBuilder struct {
	bd  *lir.Builder
	pos lir.Instruction
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

// FromLIR returns f as a Function the transformation can run on.
func FromLIR(f *lir.Function) Function {
	return lirFunction{f: f}
}

// RunLIR demotes the half precision arithmetic of the LIR function f.
func RunLIR(f *lir.Function) Summary {
	return RunSummary(FromLIR(f))
}

// unwrapLIR returns the LIR value behind v.
func unwrapLIR(v Value) lir.Value {
	switch x := v.(type) {
	case lirValue:
		return x.v
	case lirInstruction:
		return x.inst
	}
	panic(fmt.Sprintf("%T is not a LIR value", v))
}

// wrapLIR returns v as a Value.
func wrapLIR(v lir.Value) Value {
	if inst, ok := v.(lir.Instruction); ok {
		return lirInstruction{inst: inst}
	}
	return lirValue{v: v}
}

// fromLIROpcode classifies a LIR opcode.
func fromLIROpcode(op types.Opcode) Opcode {
	switch op {
	case types.FAdd:
		return FAdd
	case types.FSub:
		return FSub
	case types.FMul:
		return FMul
	case types.FDiv:
		return FDiv
	case types.FRem:
		return FRem
	}
	return Other
}

// toLIROpcode returns the LIR opcode of a candidate opcode.
func toLIROpcode(op Opcode) types.Opcode {
	switch op {
	case FAdd:
		return types.FAdd
	case FSub:
		return types.FSub
	case FMul:
		return types.FMul
	case FDiv:
		return types.FDiv
	case FRem:
		return types.FRem
	}
	panic(fmt.Sprintf("%s has no LIR equivalent", op.String()))
}

func (x lirFunction) HalfType() Type {
	return x.f.Context().HalfType()
}

func (x lirFunction) FloatType() Type {
	return x.f.Context().FloatType()
}

func (x lirFunction) Blocks() []Block {
	blocks := x.f.Blocks()
	res := make([]Block, len(blocks))
	for i1, e1 := range blocks {
		res[i1] = lirBlock{b: e1}
	}
	return res
}

func (x lirFunction) NewBuilder() Builder {
	return &lirBuilder{bd: x.f.Context().NewBuilder()}
}

func (x lirBlock) Instructions() []Instruction {
	insts := x.b.Instructions()
	res := make([]Instruction, len(insts))
	for i1, e1 := range insts {
		res[i1] = lirInstruction{inst: e1}
	}
	return res
}

func (x lirValue) Type() Type {
	return x.v.Type()
}

func (x lirInstruction) Type() Type {
	return x.inst.Type()
}

func (x lirInstruction) Opcode() Opcode {
	return fromLIROpcode(x.inst.Opcode())
}

func (x lirInstruction) NumOperands() int {
	return x.inst.NumOperands()
}

func (x lirInstruction) Operand(i int) Value {
	return wrapLIR(x.inst.Operand(i))
}

func (x lirInstruction) ReplaceAllUsesWith(v Value) {
	x.inst.ReplaceAllUsesWith(unwrapLIR(v))
}

func (x lirInstruction) EraseFromParent() {
	x.inst.EraseFromParent()
}

func (x *lirBuilder) SetInsertPointBefore(inst Instruction) {
	x.pos = inst.(lirInstruction).inst
	x.bd.SetInsertPointBefore(x.pos)
}

func (x *lirBuilder) CreateFPExt(v Value, t Type) Instruction {
	src := unwrapLIR(v)
	name := "ext"
	if len(src.Name()) > 0 {
		name = src.Name() + ".ext"
	}
	return lirInstruction{inst: x.bd.CreateFPExt(src, t.(types.Type), name)}
}

func (x *lirBuilder) CreateFPTrunc(v Value, t Type) Instruction {
	return lirInstruction{inst: x.bd.CreateFPTrunc(unwrapLIR(v), t.(types.Type), x.pos.Name()+".trunc")}
}

func (x *lirBuilder) CreateBinOp(op Opcode, lhs, rhs Value, src Instruction) Instruction {
	inst := x.bd.CreateBinOpFMF(toLIROpcode(op), unwrapLIR(lhs), unwrapLIR(rhs), src.(lirInstruction).inst,
		x.pos.Name()+".wide")
	return lirInstruction{inst: inst}
}

func (x *lirBuilder) CopyMetadata(dst, src Instruction) {
	dst.(lirInstruction).inst.CopyMetadata(src.(lirInstruction).inst)
}

// Dispose does nothing: LIR builders hold no resources.
func (x *lirBuilder) Dispose() {}
