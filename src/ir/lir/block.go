package lir

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Block defines a basic block. A basic block is a sequence of instructions that is terminated by a branch or
// return instruction. Instructions are kept in a doubly linked list, so inserting next to an instruction does not
// disturb a walk over the list.
type Block struct {
	f     *Function   // Parent function that owns the basic block.
	id    int         // Unique identifier of basic block.
	name  string      // Label of the basic block.
	first Instruction // First instruction.
	last  Instruction // Last instruction.
	n     int         // Number of instructions.
}

// ---------------------
// ----- Constants -----
// ---------------------

// -------------------
// ----- globals -----
// -------------------

// ---------------------
// ----- functions -----
// ---------------------

// Id returns the uniquely assigned identifier of Block b.
func (b *Block) Id() int {
	return b.id
}

// Name returns the label of Block b.
func (b *Block) Name() string {
	return b.name
}

// Ident returns the textual LIR label reference of Block b.
func (b *Block) Ident() string {
	return sigil + b.name
}

// Function returns the function owning Block b.
func (b *Block) Function() *Function {
	return b.f
}

// First returns the first instruction of Block b, or <nil> if the block is empty.
func (b *Block) First() Instruction {
	return b.first
}

// Last returns the last instruction of Block b, or <nil> if the block is empty.
func (b *Block) Last() Instruction {
	return b.last
}

// Len returns the number of instructions in Block b.
func (b *Block) Len() int {
	return b.n
}

// Instructions returns a snapshot of the instructions of Block b. Later insertions and removals do not change the
// returned slice.
func (b *Block) Instructions() []Instruction {
	res := make([]Instruction, 0, b.n)
	for e1 := b.first; e1 != nil; e1 = e1.Next() {
		res = append(res, e1)
	}
	return res
}

// Terminator returns the terminating branch or return instruction of Block b, or <nil> if the block is not
// terminated.
func (b *Block) Terminator() Instruction {
	if b.last == nil || !b.last.Opcode().IsTerminator() {
		return nil
	}
	return b.last
}

// String returns the textual LIR representation of all instructions in Block b.
func (b *Block) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s:\n", b.name))
	for e1 := b.first; e1 != nil; e1 = e1.Next() {
		sb.WriteString("  ")
		sb.WriteString(e1.String())
		sb.WriteRune('\n')
	}
	return sb.String()
}

// insertBefore links the detached instruction inst in front of pos. A <nil> pos appends inst to the block.
func (b *Block) insertBefore(inst, pos Instruction) {
	in := inst.inst()
	if in.b != nil {
		panic(fmt.Sprintf("instruction %s is already in block %s", inst.String(), in.b.name))
	}
	in.b = b
	b.n++
	if pos == nil {
		in.prev = b.last
		in.next = nil
		if b.last != nil {
			b.last.inst().next = inst
		} else {
			b.first = inst
		}
		b.last = inst
		return
	}
	p := pos.inst()
	if p.b != b {
		panic(fmt.Sprintf("insertion point %s is not in block %s", pos.String(), b.name))
	}
	in.prev = p.prev
	in.next = pos
	if p.prev != nil {
		p.prev.inst().next = inst
	} else {
		b.first = inst
	}
	p.prev = inst
}

// unlink removes inst from the instruction list of the block.
func (b *Block) unlink(inst Instruction) {
	in := inst.inst()
	if in.prev != nil {
		in.prev.inst().next = in.next
	} else {
		b.first = in.next
	}
	if in.next != nil {
		in.next.inst().prev = in.prev
	} else {
		b.last = in.prev
	}
	in.prev = nil
	in.next = nil
	b.n--
}
