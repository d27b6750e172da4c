package llvm

import (
	"fmt"
	"hdemote/src/pass/demote"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// function adapts an LLVM function to demote.Function.
type function struct {
	fun llvm.Value
	ctx llvm.Context
}

// block adapts an LLVM basic block.
type block struct {
	bb llvm.BasicBlock
}

// value adapts an LLVM value that is not an instruction.
type value struct {
	v llvm.Value
}

// instruction adapts an LLVM instruction.
type instruction struct {
	v llvm.Value
}

// builder adapts an LLVM builder. New values are named the way the LIR adapter names them.
type builder struct {
	b   llvm.Builder
	ctx llvm.Context
	pos llvm.Value
}

// halfKey stands in for the half precision type. The binding has no constructor for it, so values are
// classified by type kind instead.
type halfKey struct{}

// ---------------------
// ----- Constants -----
// ---------------------

// halfTypeKind precedes FloatTypeKind in the C API enumeration.
const halfTypeKind = llvm.FloatTypeKind - 1

// ---------------------
// ----- Functions -----
// ---------------------

// typeKey returns the demote.Type of t. Scalar half types map to halfKey, every other type to itself.
func typeKey(t llvm.Type) demote.Type {
	if t.TypeKind() == halfTypeKind {
		return halfKey{}
	}
	return t
}

// wrap returns v as a demote.Value.
func wrap(v llvm.Value) demote.Value {
	if !v.IsAInstruction().IsNil() {
		return instruction{v: v}
	}
	return value{v: v}
}

// unwrap returns the LLVM value behind v.
func unwrap(v demote.Value) llvm.Value {
	switch x := v.(type) {
	case value:
		return x.v
	case instruction:
		return x.v
	}
	panic(fmt.Sprintf("%T is not an LLVM value", v))
}

// fromOpcode classifies an LLVM opcode.
func fromOpcode(op llvm.Opcode) demote.Opcode {
	switch op {
	case llvm.FAdd:
		return demote.FAdd
	case llvm.FSub:
		return demote.FSub
	case llvm.FMul:
		return demote.FMul
	case llvm.FDiv:
		return demote.FDiv
	case llvm.FRem:
		return demote.FRem
	}
	return demote.Other
}

// toOpcode returns the LLVM opcode of a candidate opcode.
func toOpcode(op demote.Opcode) llvm.Opcode {
	switch op {
	case demote.FAdd:
		return llvm.FAdd
	case demote.FSub:
		return llvm.FSub
	case demote.FMul:
		return llvm.FMul
	case demote.FDiv:
		return llvm.FDiv
	case demote.FRem:
		return llvm.FRem
	}
	panic(fmt.Sprintf("%s has no LLVM equivalent", op.String()))
}

func (x function) HalfType() demote.Type {
	return halfKey{}
}

func (x function) FloatType() demote.Type {
	return x.ctx.FloatType()
}

func (x function) Blocks() []demote.Block {
	res := make([]demote.Block, 0, x.fun.BasicBlocksCount())
	for bb := x.fun.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		res = append(res, block{bb: bb})
	}
	return res
}

func (x function) NewBuilder() demote.Builder {
	return &builder{b: x.ctx.NewBuilder(), ctx: x.ctx}
}

func (x block) Instructions() []demote.Instruction {
	res := make([]demote.Instruction, 0, 16)
	for inst := x.bb.FirstInstruction(); !inst.IsNil(); inst = llvm.NextInstruction(inst) {
		res = append(res, instruction{v: inst})
	}
	return res
}

func (x value) Type() demote.Type {
	return typeKey(x.v.Type())
}

func (x instruction) Type() demote.Type {
	return typeKey(x.v.Type())
}

func (x instruction) Opcode() demote.Opcode {
	return fromOpcode(x.v.InstructionOpcode())
}

func (x instruction) NumOperands() int {
	return x.v.OperandsCount()
}

func (x instruction) Operand(i int) demote.Value {
	return wrap(x.v.Operand(i))
}

func (x instruction) ReplaceAllUsesWith(v demote.Value) {
	x.v.ReplaceAllUsesWith(unwrap(v))
}

func (x instruction) EraseFromParent() {
	x.v.EraseFromParentAsInstruction()
}

func (x *builder) SetInsertPointBefore(inst demote.Instruction) {
	x.pos = unwrap(inst)
	x.b.SetInsertPointBefore(x.pos)
}

// llvmType returns the LLVM type behind t. The only half type ever requested is the type of the instruction
// being replaced.
func (x *builder) llvmType(t demote.Type) llvm.Type {
	if _, ok := t.(halfKey); ok {
		return x.pos.Type()
	}
	return t.(llvm.Type)
}

func (x *builder) CreateFPExt(v demote.Value, t demote.Type) demote.Instruction {
	src := unwrap(v)
	name := "ext"
	if len(src.Name()) > 0 {
		name = src.Name() + ".ext"
	}
	return instruction{v: x.b.CreateFPExt(src, x.llvmType(t), name)}
}

func (x *builder) CreateFPTrunc(v demote.Value, t demote.Type) demote.Instruction {
	return instruction{v: x.b.CreateFPTrunc(unwrap(v), x.llvmType(t), x.name(".trunc"))}
}

// CreateBinOp creates the replacement instruction. The binding exposes no fast-math flags, so the flags of src
// are not carried over.
func (x *builder) CreateBinOp(op demote.Opcode, lhs, rhs demote.Value, src demote.Instruction) demote.Instruction {
	return instruction{v: x.b.CreateBinOp(toOpcode(op), unwrap(lhs), unwrap(rhs), x.name(".wide"))}
}

func (x *builder) CopyMetadata(dst, src demote.Instruction) {
	copyMetadata(x.ctx, unwrap(dst), unwrap(src))
}

func (x *builder) Dispose() {
	x.b.Dispose()
}

// name returns the name of a value derived from the instruction being replaced. Unnamed instructions yield
// unnamed values.
func (x *builder) name(suffix string) string {
	if n := x.pos.Name(); len(n) > 0 {
		return n + suffix
	}
	return ""
}
