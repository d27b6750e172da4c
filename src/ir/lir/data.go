package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BinaryInstruction defines a two-operand arithmetic instruction that leaves the result in a new value.
type BinaryInstruction struct {
	instruction
}

// UnaryInstruction defines the floating point negation a = -b.
type UnaryInstruction struct {
	instruction
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

// newBinary creates a detached BinaryInstruction of type typ.
func newBinary(op types.Opcode, typ types.Type, lhs, rhs Value) *BinaryInstruction {
	inst := &BinaryInstruction{}
	inst.init(inst, op, typ, lhs, rhs)
	return inst
}

// LHS returns the first operand of the BinaryInstruction inst.
func (inst *BinaryInstruction) LHS() Value {
	return inst.ops[0]
}

// RHS returns the second operand of the BinaryInstruction inst.
func (inst *BinaryInstruction) RHS() Value {
	return inst.ops[1]
}

// String returns the LIR textual representation of the BinaryInstruction inst.
func (inst *BinaryInstruction) String() string {
	return fmt.Sprintf("%s%s %s%s %s, %s%s", inst.prefix(), inst.op.String(), inst.flags(), inst.typ.String(),
		operandText(inst.ops[0], inst.typ), operandText(inst.ops[1], inst.typ), inst.suffix())
}

// newUnary creates a detached UnaryInstruction.
func newUnary(op types.Opcode, src Value) *UnaryInstruction {
	inst := &UnaryInstruction{}
	inst.init(inst, op, src.Type(), src)
	return inst
}

// String returns the LIR textual representation of the UnaryInstruction inst.
func (inst *UnaryInstruction) String() string {
	return fmt.Sprintf("%s%s %s%s %s%s", inst.prefix(), inst.op.String(), inst.flags(), inst.typ.String(),
		inst.ops[0].Ident(), inst.suffix())
}
