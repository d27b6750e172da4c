package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// CastInstruction defines a conversion of a value to another data type: widening or narrowing between floating
// point types, or conversion between signed integers and floating point.
type CastInstruction struct {
	instruction
}

// CompareInstruction defines a floating point or integer comparison. The result is i1, or a vector of i1 for
// vector operands.
type CompareInstruction struct {
	instruction
	pred types.Predicate // Relation tested.
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

// newCast creates a detached CastInstruction converting src to typ.
func newCast(op types.Opcode, src Value, typ types.Type) *CastInstruction {
	inst := &CastInstruction{}
	inst.init(inst, op, typ, src)
	return inst
}

// Src returns the value being converted.
func (inst *CastInstruction) Src() Value {
	return inst.ops[0]
}

// String returns the textual LIR representation of the CastInstruction.
func (inst *CastInstruction) String() string {
	return fmt.Sprintf("%s%s %s%s %s to %s%s", inst.prefix(), inst.op.String(), inst.flags(),
		inst.ops[0].Type().String(), inst.ops[0].Ident(), inst.typ.String(), inst.suffix())
}

// newCompare creates a detached CompareInstruction.
func newCompare(op types.Opcode, pred types.Predicate, lhs, rhs Value) *CompareInstruction {
	inst := &CompareInstruction{pred: pred}
	inst.init(inst, op, lhs.Type().WithKind(types.Int1), lhs, rhs)
	return inst
}

// Predicate returns the relation tested by the CompareInstruction.
func (inst *CompareInstruction) Predicate() types.Predicate {
	return inst.pred
}

// String returns the textual LIR representation of the CompareInstruction.
func (inst *CompareInstruction) String() string {
	lt := inst.ops[0].Type()
	return fmt.Sprintf("%s%s %s%s %s %s, %s%s", inst.prefix(), inst.op.String(), inst.flags(), inst.pred.String(),
		lt.String(), inst.ops[0].Ident(), operandText(inst.ops[1], lt), inst.suffix())
}
