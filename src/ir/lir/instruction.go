package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
	"sort"
	"strconv"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Instruction defines an LIR instruction. Every instruction lives in exactly one basic block until it is erased.
type Instruction interface {
	Value
	Opcode() types.Opcode                // Operation performed by the instruction.
	Parent() *Block                      // Basic block owning the instruction. <nil> once erased.
	NumOperands() int                    // Number of operands.
	Operand(i int) Value                 // Operand i.
	Operands() []Value                   // Copy of the operand list.
	SetOperand(i int, v Value)           // Replace operand i, keeping use lists exact.
	FastMath() types.FastMathFlags       // Fast-math flags attached to the instruction.
	SetFastMath(f types.FastMathFlags)   // Replace the fast-math flags.
	Metadata(kind string) (string, bool) // Metadata attachment of kind.
	SetMetadata(kind, val string)        // Attach metadata. An empty val removes the attachment.
	MetadataKinds() []string             // Sorted kinds of all metadata attachments.
	CopyMetadata(src Instruction)        // Copy fast-math flags and metadata from src.
	Next() Instruction                   // Following instruction in the parent block, or <nil>.
	Prev() Instruction                   // Preceding instruction in the parent block, or <nil>.
	EraseFromParent()                    // Unlink the instruction and drop its operands.
	IsErased() bool                      // True once EraseFromParent has been called.
	inst() *instruction
}

// instruction holds the state shared by every Instruction.
type instruction struct {
	value
	self   Instruction         // The concrete instruction embedding this struct.
	b      *Block              // Parent basic block.
	op     types.Opcode        // Operation.
	ops    []Value             // Operands.
	fmf    types.FastMathFlags // Fast-math flags.
	md     map[string]string   // Metadata attachments.
	prev   Instruction         // Previous instruction in b.
	next   Instruction         // Next instruction in b.
	erased bool                // Set once the instruction has been erased.
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

// init wires the instruction to its concrete type and registers the operand uses.
func (inst *instruction) init(self Instruction, op types.Opcode, typ types.Type, ops ...Value) {
	inst.self = self
	inst.op = op
	inst.typ = typ
	inst.ops = make([]Value, len(ops))
	for i1, e1 := range ops {
		if e1 == nil {
			panic(fmt.Sprintf("operand %d of %s is <nil>", i1, op.String()))
		}
		inst.ops[i1] = e1
		e1.base().addUse(Use{User: self, Index: i1})
	}
}

// appendOperand adds v as the last operand.
func (inst *instruction) appendOperand(v Value) {
	inst.ops = append(inst.ops, v)
	v.base().addUse(Use{User: inst.self, Index: len(inst.ops) - 1})
}

func (inst *instruction) inst() *instruction {
	return inst
}

// Ident returns the textual LIR operand representation of the instruction's result.
func (inst *instruction) Ident() string {
	return sigil + inst.name
}

// Opcode returns the operation of the instruction.
func (inst *instruction) Opcode() types.Opcode {
	return inst.op
}

// Parent returns the basic block owning the instruction.
func (inst *instruction) Parent() *Block {
	return inst.b
}

// NumOperands returns the number of operands of the instruction.
func (inst *instruction) NumOperands() int {
	return len(inst.ops)
}

// Operand returns operand i.
func (inst *instruction) Operand(i int) Value {
	return inst.ops[i]
}

// Operands returns a copy of the operand list.
func (inst *instruction) Operands() []Value {
	res := make([]Value, len(inst.ops))
	copy(res, inst.ops)
	return res
}

// SetOperand replaces operand i with v.
func (inst *instruction) SetOperand(i int, v Value) {
	if v == nil {
		panic(fmt.Sprintf("cannot set operand %d of %s to <nil>", i, inst.self.String()))
	}
	u := Use{User: inst.self, Index: i}
	inst.ops[i].base().removeUse(u)
	inst.ops[i] = v
	v.base().addUse(u)
}

// FastMath returns the fast-math flags of the instruction.
func (inst *instruction) FastMath() types.FastMathFlags {
	return inst.fmf
}

// SetFastMath replaces the fast-math flags of the instruction. Only floating point arithmetic, compare and
// conversion instructions carry flags; setting non-zero flags on anything else panics.
func (inst *instruction) SetFastMath(f types.FastMathFlags) {
	if f != 0 && !inst.acceptsFastMath() {
		panic(fmt.Sprintf("%s does not accept fast-math flags", inst.op.String()))
	}
	inst.fmf = f
}

// acceptsFastMath returns true if the instruction is a floating point math operator.
func (inst *instruction) acceptsFastMath() bool {
	switch inst.op {
	case types.FAdd, types.FSub, types.FMul, types.FDiv, types.FRem, types.FNeg, types.FCmp,
		types.FPExt, types.FPTrunc:
		return true
	case types.Phi:
		return inst.typ.IsFloat()
	}
	return false
}

// Metadata returns the metadata attachment of kind.
func (inst *instruction) Metadata(kind string) (string, bool) {
	v, ok := inst.md[kind]
	return v, ok
}

// SetMetadata attaches val as metadata of kind. An empty val removes the attachment.
func (inst *instruction) SetMetadata(kind, val string) {
	if len(val) == 0 {
		delete(inst.md, kind)
		return
	}
	if inst.md == nil {
		inst.md = make(map[string]string, 2)
	}
	inst.md[kind] = val
}

// MetadataKinds returns the sorted kinds of all metadata attachments.
func (inst *instruction) MetadataKinds() []string {
	res := make([]string, 0, len(inst.md))
	for k := range inst.md {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// CopyMetadata copies the fast-math flags and all metadata attachments of src. Flags are only copied when the
// instruction accepts them.
func (inst *instruction) CopyMetadata(src Instruction) {
	if inst.acceptsFastMath() {
		inst.fmf = src.FastMath()
	}
	for _, e1 := range src.MetadataKinds() {
		v, _ := src.Metadata(e1)
		inst.SetMetadata(e1, v)
	}
}

// Next returns the following instruction in the parent block.
func (inst *instruction) Next() Instruction {
	return inst.next
}

// Prev returns the preceding instruction in the parent block.
func (inst *instruction) Prev() Instruction {
	return inst.prev
}

// IsErased returns true once the instruction has been erased.
func (inst *instruction) IsErased() bool {
	return inst.erased
}

// EraseFromParent unlinks the instruction from its basic block and drops its operand uses. The instruction must
// not have any remaining uses.
func (inst *instruction) EraseFromParent() {
	if inst.erased {
		panic(fmt.Sprintf("instruction %s%s erased twice", sigil, inst.name))
	}
	if len(inst.uses) > 0 {
		panic(fmt.Sprintf("cannot erase %s: %d uses remain", inst.self.String(), len(inst.uses)))
	}
	for i1, e1 := range inst.ops {
		e1.base().removeUse(Use{User: inst.self, Index: i1})
	}
	inst.ops = nil
	inst.b.unlink(inst.self)
	inst.b.f.releaseName(inst.name)
	inst.b = nil
	inst.erased = true
}

// prefix returns the "%name = " prefix of value producing instructions.
func (inst *instruction) prefix() string {
	if inst.typ.IsVoid() {
		return ""
	}
	return inst.Ident() + " = "
}

// flags returns the textual fast-math flags followed by a space, or the empty string.
func (inst *instruction) flags() string {
	if inst.fmf == 0 {
		return ""
	}
	return inst.fmf.String() + " "
}

// suffix returns the textual metadata attachments.
func (inst *instruction) suffix() string {
	if len(inst.md) == 0 {
		return ""
	}
	sb := strings.Builder{}
	for _, e1 := range inst.MetadataKinds() {
		sb.WriteString(fmt.Sprintf(", !%s %s", e1, strconv.Quote(inst.md[e1])))
	}
	return sb.String()
}

// operandText returns the textual representation of v, prefixed by its type when it differs from typ.
func operandText(v Value, typ types.Type) string {
	if v.Type() == typ {
		return v.Ident()
	}
	return v.Type().String() + " " + v.Ident()
}
