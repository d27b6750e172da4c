package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// BranchInstruction defines an unconditional or conditional branch. A conditional branch has the condition as
// its only operand.
type BranchInstruction struct {
	instruction
	thn *Block // thn is the target of unconditional branches and the THEN target of conditional branches.
	els *Block // els is the ELSE target of conditional branches. Is <nil> for unconditional branches.
}

// ReturnInstruction defines a return statement, with or without a returned value.
type ReturnInstruction struct {
	instruction
}

// PhiInstruction selects one of its incoming values depending on the predecessor block control arrived from.
// Operand i flows in from Block(i).
type PhiInstruction struct {
	instruction
	blocks []*Block // Incoming blocks, parallel to the operands.
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

// newBranch creates a detached unconditional BranchInstruction.
func newBranch(dst *Block) *BranchInstruction {
	inst := &BranchInstruction{thn: dst}
	inst.init(inst, types.Br, types.Scalar(types.Void))
	return inst
}

// newCondBranch creates a detached conditional BranchInstruction.
func newCondBranch(cond Value, thn, els *Block) *BranchInstruction {
	inst := &BranchInstruction{thn: thn, els: els}
	inst.init(inst, types.Br, types.Scalar(types.Void), cond)
	return inst
}

// IsConditional returns true for conditional branches.
func (inst *BranchInstruction) IsConditional() bool {
	return inst.els != nil
}

// Then returns the then basic Block of BranchInstruction inst.
func (inst *BranchInstruction) Then() *Block {
	return inst.thn
}

// Else returns the else basic Block of BranchInstruction inst.
func (inst *BranchInstruction) Else() *Block {
	return inst.els
}

// Successors returns the target blocks of the branch.
func (inst *BranchInstruction) Successors() []*Block {
	if inst.els == nil {
		return []*Block{inst.thn}
	}
	return []*Block{inst.thn, inst.els}
}

// String returns the textual LIR representation of the BranchInstruction.
func (inst *BranchInstruction) String() string {
	if inst.els == nil {
		// Unconditional branch.
		return fmt.Sprintf("br label %s%s", inst.thn.Ident(), inst.suffix())
	}
	// Conditional branch.
	return fmt.Sprintf("br %s %s, label %s, label %s%s", inst.ops[0].Type().String(), inst.ops[0].Ident(),
		inst.thn.Ident(), inst.els.Ident(), inst.suffix())
}

// newReturn creates a detached ReturnInstruction. val is <nil> for void returns.
func newReturn(val Value) *ReturnInstruction {
	inst := &ReturnInstruction{}
	if val == nil {
		inst.init(inst, types.Ret, types.Scalar(types.Void))
	} else {
		inst.init(inst, types.Ret, types.Scalar(types.Void), val)
	}
	return inst
}

// Value returns the returned value, or <nil> for void returns.
func (inst *ReturnInstruction) Value() Value {
	if len(inst.ops) == 0 {
		return nil
	}
	return inst.ops[0]
}

// String returns the textual LIR representation of the ReturnInstruction.
func (inst *ReturnInstruction) String() string {
	if len(inst.ops) == 0 {
		return "ret void" + inst.suffix()
	}
	return fmt.Sprintf("ret %s %s%s", inst.ops[0].Type().String(), inst.ops[0].Ident(), inst.suffix())
}

// newPhi creates a detached PhiInstruction without incoming values.
func newPhi(typ types.Type) *PhiInstruction {
	inst := &PhiInstruction{}
	inst.init(inst, types.Phi, typ)
	return inst
}

// AddIncoming adds v as the value flowing in from block b.
func (inst *PhiInstruction) AddIncoming(v Value, b *Block) {
	if v == nil || b == nil {
		panic(fmt.Sprintf("phi %s: incoming value and block must not be <nil>", inst.Ident()))
	}
	inst.appendOperand(v)
	inst.blocks = append(inst.blocks, b)
}

// Block returns the incoming block of operand i.
func (inst *PhiInstruction) Block(i int) *Block {
	return inst.blocks[i]
}

// String returns the textual LIR representation of the PhiInstruction.
func (inst *PhiInstruction) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%sphi %s%s", inst.prefix(), inst.flags(), inst.typ.String()))
	for i1, e1 := range inst.ops {
		if i1 > 0 {
			sb.WriteRune(',')
		}
		sb.WriteString(fmt.Sprintf(" [ %s, %s ]", operandText(e1, inst.typ), inst.blocks[i1].Ident()))
	}
	sb.WriteString(inst.suffix())
	return sb.String()
}
