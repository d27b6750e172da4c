// Package demote implements the DemoteFloat16 transformation. Half precision fadd, fsub, fmul, fdiv and frem
// instructions are rewritten to operate on single precision operands, and the result is truncated back to the
// original type.
//
// The transformation is written against a small host interface, so the same algorithm runs on LIR functions and
// on LLVM functions.
package demote

import "fmt"

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Opcode classifies host instructions. Every opcode that is not one of the five floating point arithmetic
// opcodes maps to Other.
type Opcode int

// Type is an opaque host type handle. Two types are the same type iff they compare equal with ==.
type Type interface{}

// Value is a host value: a parameter, constant or instruction result.
type Value interface {
	Type() Type
}

// Instruction is a host instruction.
type Instruction interface {
	Value
	Opcode() Opcode
	NumOperands() int
	Operand(i int) Value
	ReplaceAllUsesWith(v Value)
	EraseFromParent()
}

// Block is a host basic block.
type Block interface {
	// Instructions returns the instructions of the block in program order. Instructions inserted into the block
	// after the call are not part of the returned slice.
	Instructions() []Instruction
}

// Builder creates host instructions in front of an insertion point.
type Builder interface {
	SetInsertPointBefore(inst Instruction)
	CreateFPExt(v Value, t Type) Instruction
	CreateFPTrunc(v Value, t Type) Instruction
	CreateBinOp(op Opcode, lhs, rhs Value, src Instruction) Instruction // Carries the fast-math flags of src.
	CopyMetadata(dst, src Instruction)
	Dispose()
}

// Function is a host function body.
type Function interface {
	HalfType() Type  // Canonical half precision scalar type of the function's context.
	FloatType() Type // Canonical single precision scalar type of the function's context.
	Blocks() []Block
	NewBuilder() Builder
}

// Summary reports what one run of the transformation did.
type Summary struct {
	Demoted   int // Instructions replaced by single precision equivalents.
	Extended  int // fpext instructions inserted.
	Truncated int // fptrunc instructions inserted.
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Other Opcode = iota // Other is any opcode the transformation ignores.
	FAdd                // FAdd is floating point addition.
	FSub                // FSub is floating point subtraction.
	FMul                // FMul is floating point multiplication.
	FDiv                // FDiv is floating point division.
	FRem                // FRem is floating point remainder.
)

// Name is the registered name of the transformation.
const Name = "DemoteFloat16"

// Description is the registered description of the transformation.
const Description = "Demote Float16 operations to Float32 equivalents."

// -------------------
// ----- Globals -----
// -------------------

var opNames = [...]string{"other", "fadd", "fsub", "fmul", "fdiv", "frem"}

// ---------------------
// ----- Functions -----
// ---------------------

// String provides a print friendly string representation of the Opcode.
func (op Opcode) String() string {
	if op < Other || op > FRem {
		return fmt.Sprintf("opcode(%d)", int(op))
	}
	return opNames[op]
}

// IsCandidate returns true for the opcodes the transformation rewrites.
func (op Opcode) IsCandidate() bool {
	return op >= FAdd && op <= FRem
}

// Changed returns true if at least one instruction was replaced.
func (s Summary) Changed() bool {
	return s.Demoted > 0
}

// Add returns the element wise sum of s and o.
func (s Summary) Add(o Summary) Summary {
	return Summary{
		Demoted:   s.Demoted + o.Demoted,
		Extended:  s.Extended + o.Extended,
		Truncated: s.Truncated + o.Truncated,
	}
}

// Run demotes every half precision arithmetic instruction of f and returns true if f was modified.
func Run(f Function) bool {
	return RunSummary(f).Changed()
}

// RunSummary demotes every half precision arithmetic instruction of f and reports what was done.
//
// Every instruction is visited once, in program order. A candidate with at least one half precision operand is
// replaced in place: each half precision operand is widened with fpext, the operation is recreated on the
// widened operands and, when the new result type differs from the original, narrowed back with fptrunc. The
// replacement and the narrowing conversion inherit the fast-math flags and metadata of the original. Originals
// are erased after the walk, once all their uses have been redirected.
//
// A candidate whose operand count is not 2 means the host IR is corrupt, and RunSummary panics.
func RunSummary(f Function) Summary {
	half := f.HalfType()
	float := f.FloatType()

	var bd Builder
	var s Summary
	erase := make([]Instruction, 0, 16)
	for _, e1 := range f.Blocks() {
		for _, e2 := range e1.Instructions() {
			op := e2.Opcode()
			if !op.IsCandidate() {
				continue
			}
			if n := e2.NumOperands(); n != 2 {
				panic(fmt.Sprintf("%s with %d operands, expected 2", op.String(), n))
			}
			lhs, rhs := e2.Operand(0), e2.Operand(1)
			if lhs.Type() != half && rhs.Type() != half {
				continue
			}

			if bd == nil {
				bd = f.NewBuilder()
			}
			bd.SetInsertPointBefore(e2)
			if lhs.Type() == half {
				lhs = bd.CreateFPExt(lhs, float)
				s.Extended++
			}
			if rhs.Type() == half {
				rhs = bd.CreateFPExt(rhs, float)
				s.Extended++
			}
			wide := bd.CreateBinOp(op, lhs, rhs, e2)
			bd.CopyMetadata(wide, e2)
			var res Value = wide
			if wide.Type() != e2.Type() {
				trunc := bd.CreateFPTrunc(wide, e2.Type())
				bd.CopyMetadata(trunc, e2)
				res = trunc
				s.Truncated++
			}
			e2.ReplaceAllUsesWith(res)
			erase = append(erase, e2)
		}
	}
	if bd != nil {
		bd.Dispose()
	}

	for _, e1 := range erase {
		e1.EraseFromParent()
	}
	s.Demoted = len(erase)
	return s
}
