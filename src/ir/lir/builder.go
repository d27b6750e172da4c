package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Builder constructs LIR instructions at an insertion point: either in front of an existing instruction or at the
// end of a basic block. Malformed requests panic, they are programming errors of the caller.
type Builder struct {
	ctx *Context    // Type context.
	b   *Block      // Block receiving new instructions.
	pos Instruction // New instructions are inserted in front of pos. <nil> appends to b.
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

// SetInsertPointBefore makes the Builder insert new instructions in front of inst.
func (bd *Builder) SetInsertPointBefore(inst Instruction) {
	if inst.Parent() == nil {
		panic(fmt.Sprintf("cannot insert in front of detached instruction %s", inst.Ident()))
	}
	bd.b = inst.Parent()
	bd.pos = inst
}

// SetInsertPointAtEnd makes the Builder append new instructions to Block b.
func (bd *Builder) SetInsertPointAtEnd(b *Block) {
	bd.b = b
	bd.pos = nil
}

// GetInsertBlock returns the Block receiving new instructions.
func (bd *Builder) GetInsertBlock() *Block {
	return bd.b
}

// insert names inst and links it at the insertion point.
func (bd *Builder) insert(inst Instruction, name string) {
	if bd.b == nil {
		panic(fmt.Sprintf("builder has no insertion point for %s", inst.Opcode().String()))
	}
	in := inst.inst()
	in.id = bd.b.f.getId()
	if !in.typ.IsVoid() {
		in.name = bd.b.f.uniqueName(name)
	}
	bd.b.insertBefore(inst, bd.pos)
}

// -----------------------------------
// ----- Arithmetic instructions -----
// -----------------------------------

// BinaryType returns the result type of op applied to operands of types lhs and rhs. Floating point operands of
// different precision yield the wider type; anything else must match exactly. ok is false if op cannot be applied.
func BinaryType(op types.Opcode, lhs, rhs types.Type) (res types.Type, ok bool) {
	if !op.IsBinary() || !lhs.SameShape(rhs) {
		return res, false
	}
	if op.IsFloatBinary() {
		if !lhs.IsFloat() || !rhs.IsFloat() {
			return res, false
		}
		if rhs.Bits() > lhs.Bits() {
			return rhs, true
		}
		return lhs, true
	}
	if !lhs.IsInt() || lhs != rhs {
		return res, false
	}
	return lhs, true
}

// CreateBinOp creates a two-operand arithmetic instruction res = lhs op rhs.
func (bd *Builder) CreateBinOp(op types.Opcode, lhs, rhs Value, name string) *BinaryInstruction {
	typ, ok := BinaryType(op, lhs.Type(), rhs.Type())
	if !ok {
		panic(fmt.Sprintf("cannot use %s and %s as operands to %s",
			lhs.Type().String(), rhs.Type().String(), op.String()))
	}
	inst := newBinary(op, typ, lhs, rhs)
	bd.insert(inst, name)
	return inst
}

// CreateTypedBinOp creates a two-operand arithmetic instruction with the explicit result type typ, which must be
// the type of one of the operands.
func (bd *Builder) CreateTypedBinOp(op types.Opcode, typ types.Type, lhs, rhs Value, name string) *BinaryInstruction {
	if _, ok := BinaryType(op, lhs.Type(), rhs.Type()); !ok {
		panic(fmt.Sprintf("cannot use %s and %s as operands to %s",
			lhs.Type().String(), rhs.Type().String(), op.String()))
	}
	if typ != lhs.Type() && typ != rhs.Type() {
		panic(fmt.Sprintf("%s of %s and %s cannot produce %s",
			op.String(), lhs.Type().String(), rhs.Type().String(), typ.String()))
	}
	inst := newBinary(op, typ, lhs, rhs)
	bd.insert(inst, name)
	return inst
}

// CreateBinOpFMF creates res = lhs op rhs carrying the fast-math flags of src.
func (bd *Builder) CreateBinOpFMF(op types.Opcode, lhs, rhs Value, src Instruction, name string) *BinaryInstruction {
	inst := bd.CreateBinOp(op, lhs, rhs, name)
	if op.IsFloatBinary() {
		inst.SetFastMath(src.FastMath())
	}
	return inst
}

// CreateFAdd creates a floating point add instruction. The resulting BinaryInstruction = lhs + rhs.
func (bd *Builder) CreateFAdd(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.FAdd, lhs, rhs, name)
}

// CreateFSub creates a floating point subtraction instruction. The resulting BinaryInstruction = lhs - rhs.
func (bd *Builder) CreateFSub(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.FSub, lhs, rhs, name)
}

// CreateFMul creates a floating point multiplication instruction. The resulting BinaryInstruction = lhs * rhs.
func (bd *Builder) CreateFMul(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.FMul, lhs, rhs, name)
}

// CreateFDiv creates a floating point division instruction. The resulting BinaryInstruction = lhs / rhs.
func (bd *Builder) CreateFDiv(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.FDiv, lhs, rhs, name)
}

// CreateFRem creates a floating point remainder instruction. The resulting BinaryInstruction = lhs % rhs.
func (bd *Builder) CreateFRem(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.FRem, lhs, rhs, name)
}

// CreateAdd creates an integer add instruction. The resulting BinaryInstruction = lhs + rhs.
func (bd *Builder) CreateAdd(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.Add, lhs, rhs, name)
}

// CreateSub creates an integer subtraction instruction. The resulting BinaryInstruction = lhs - rhs.
func (bd *Builder) CreateSub(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.Sub, lhs, rhs, name)
}

// CreateMul creates an integer multiplication instruction. The resulting BinaryInstruction = lhs * rhs.
func (bd *Builder) CreateMul(lhs, rhs Value, name string) *BinaryInstruction {
	return bd.CreateBinOp(types.Mul, lhs, rhs, name)
}

// CreateFNeg creates a floating point negation. The resulting UnaryInstruction = -src.
func (bd *Builder) CreateFNeg(src Value, name string) *UnaryInstruction {
	if !src.Type().IsFloat() {
		panic(fmt.Sprintf("cannot use %s as operand to fneg", src.Type().String()))
	}
	inst := newUnary(types.FNeg, src)
	bd.insert(inst, name)
	return inst
}

// -------------------------------
// ----- Compare instructions -----
// -------------------------------

// CreateFCmp creates a floating point comparison of lhs and rhs.
func (bd *Builder) CreateFCmp(pred types.Predicate, lhs, rhs Value, name string) *CompareInstruction {
	if !pred.IsFloat() {
		panic(fmt.Sprintf("%s is not a floating point predicate", pred.String()))
	}
	if !lhs.Type().IsFloat() || !rhs.Type().IsFloat() || !lhs.Type().SameShape(rhs.Type()) {
		panic(fmt.Sprintf("cannot use %s and %s as operands to fcmp",
			lhs.Type().String(), rhs.Type().String()))
	}
	inst := newCompare(types.FCmp, pred, lhs, rhs)
	bd.insert(inst, name)
	return inst
}

// CreateICmp creates an integer comparison of lhs and rhs.
func (bd *Builder) CreateICmp(pred types.Predicate, lhs, rhs Value, name string) *CompareInstruction {
	if pred.IsFloat() {
		panic(fmt.Sprintf("%s is not an integer predicate", pred.String()))
	}
	if !lhs.Type().IsInt() || lhs.Type() != rhs.Type() {
		panic(fmt.Sprintf("cannot use %s and %s as operands to icmp",
			lhs.Type().String(), rhs.Type().String()))
	}
	inst := newCompare(types.ICmp, pred, lhs, rhs)
	bd.insert(inst, name)
	return inst
}

// ----------------------------
// ----- Cast instructions -----
// ----------------------------

// CreateCast creates the conversion op of src to typ.
func (bd *Builder) CreateCast(op types.Opcode, src Value, typ types.Type, name string) *CastInstruction {
	if err := checkCast(op, src.Type(), typ); err != nil {
		panic(err.Error())
	}
	inst := newCast(op, src, typ)
	bd.insert(inst, name)
	return inst
}

// CreateFPExt widens the floating point value src to the wider floating point type typ.
func (bd *Builder) CreateFPExt(src Value, typ types.Type, name string) *CastInstruction {
	return bd.CreateCast(types.FPExt, src, typ, name)
}

// CreateFPTrunc narrows the floating point value src to the narrower floating point type typ.
func (bd *Builder) CreateFPTrunc(src Value, typ types.Type, name string) *CastInstruction {
	return bd.CreateCast(types.FPTrunc, src, typ, name)
}

// CreateSIToFP converts the signed integer src to the floating point type typ.
func (bd *Builder) CreateSIToFP(src Value, typ types.Type, name string) *CastInstruction {
	return bd.CreateCast(types.SIToFP, src, typ, name)
}

// CreateFPToSI converts the floating point value src to the signed integer type typ.
func (bd *Builder) CreateFPToSI(src Value, typ types.Type, name string) *CastInstruction {
	return bd.CreateCast(types.FPToSI, src, typ, name)
}

// checkCast returns an error if op cannot convert a value of type from to type to.
func checkCast(op types.Opcode, from, to types.Type) error {
	if !from.SameShape(to) {
		return fmt.Errorf("%s cannot convert %s to %s of a different shape", op.String(), from.String(), to.String())
	}
	ok := false
	switch op {
	case types.FPExt:
		ok = from.IsFloat() && to.IsFloat() && to.Bits() > from.Bits()
	case types.FPTrunc:
		ok = from.IsFloat() && to.IsFloat() && to.Bits() < from.Bits()
	case types.SIToFP:
		ok = from.IsInt() && to.IsFloat()
	case types.FPToSI:
		ok = from.IsFloat() && to.IsInt()
	default:
		return fmt.Errorf("%s is not a conversion", op.String())
	}
	if !ok {
		return fmt.Errorf("%s cannot convert %s to %s", op.String(), from.String(), to.String())
	}
	return nil
}

// ------------------------------------
// ----- Control flow instructions -----
// ------------------------------------

// CreatePhi creates a PhiInstruction of type typ without incoming values.
func (bd *Builder) CreatePhi(typ types.Type, name string) *PhiInstruction {
	if typ.IsVoid() || typ.Kind == types.Label {
		panic(fmt.Sprintf("phi cannot be of type %s", typ.String()))
	}
	inst := newPhi(typ)
	bd.insert(inst, name)
	return inst
}

// CreateBr creates an unconditional branch to dst, terminating the insertion block.
func (bd *Builder) CreateBr(dst *Block) *BranchInstruction {
	inst := newBranch(dst)
	bd.insert(inst, "")
	return inst
}

// CreateCondBr creates a conditional branch on the i1 value cond, terminating the insertion block.
func (bd *Builder) CreateCondBr(cond Value, thn, els *Block) *BranchInstruction {
	if cond.Type() != bd.ctx.Int1Type() {
		panic(fmt.Sprintf("branch condition must be i1, got %s", cond.Type().String()))
	}
	inst := newCondBranch(cond, thn, els)
	bd.insert(inst, "")
	return inst
}

// CreateRet creates a return of val, terminating the insertion block.
func (bd *Builder) CreateRet(val Value) *ReturnInstruction {
	if val == nil {
		panic("cannot return <nil>, use CreateRetVoid")
	}
	inst := newReturn(val)
	bd.insert(inst, "")
	return inst
}

// CreateRetVoid creates a return without value, terminating the insertion block.
func (bd *Builder) CreateRetVoid() *ReturnInstruction {
	inst := newReturn(nil)
	bd.insert(inst, "")
	return inst
}
