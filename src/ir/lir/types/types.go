// Package types defines LIR data types, opcodes, compare predicates and fast-math flags.
package types

import (
	"fmt"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Kind identifies the scalar element of a Type.
type Kind uint

// Type is an LIR data type. Types are plain values and compare with ==. A Type with Lanes > 0 is a vector
// of Lanes elements of Kind, so <2 x half> is never equal to half.
type Type struct {
	Kind  Kind // Scalar element kind.
	Lanes int  // Number of vector lanes. 0 for scalars.
}

// Opcode defines the operation performed by an LIR instruction.
type Opcode uint

// Predicate defines the relation tested by compare instructions.
type Predicate uint

// FastMathFlags is a bit set of relaxations of strict IEEE semantics attached to floating point instructions.
type FastMathFlags uint

// ---------------------
// ----- Constants -----
// ---------------------

const (
	Void   Kind = iota // Void is the type of instructions that produce no value.
	Label              // Label is the type of basic blocks.
	Int1               // Int1 is the boolean result of compare instructions.
	Int32              // Int32 is a 32-bit signed integer.
	Int64              // Int64 is a 64-bit signed integer.
	Half               // Half is the 16-bit IEEE half precision floating point type.
	Float              // Float is the 32-bit IEEE single precision floating point type.
	Double             // Double is the 64-bit IEEE double precision floating point type.
)

const (
	FAdd    Opcode = iota // FAdd identifies the floating point operation a = b + c.
	FSub                  // FSub identifies the floating point operation a = b - c.
	FMul                  // FMul identifies the floating point operation a = b * c.
	FDiv                  // FDiv identifies the floating point operation a = b / c.
	FRem                  // FRem identifies the floating point operation a = b % c.
	Add                   // Add identifies the integer operation a = b + c.
	Sub                   // Sub identifies the integer operation a = b - c.
	Mul                   // Mul identifies the integer operation a = b * c.
	SDiv                  // SDiv identifies the signed integer operation a = b / c.
	SRem                  // SRem identifies the signed integer operation a = b % c.
	FNeg                  // FNeg identifies the floating point operation a = -b.
	FCmp                  // FCmp identifies a floating point comparison.
	ICmp                  // ICmp identifies an integer comparison.
	FPExt                 // FPExt widens a floating point value.
	FPTrunc               // FPTrunc narrows a floating point value.
	SIToFP                // SIToFP converts a signed integer to floating point.
	FPToSI                // FPToSI converts a floating point value to a signed integer.
	Phi                   // Phi selects a value depending on the predecessor block.
	Br                    // Br is an unconditional or conditional branch.
	Ret                   // Ret returns from the function.
)

const (
	PredFalse Predicate = iota // PredFalse always yields false.
	OEQ                        // OEQ is ordered and equal.
	OGT                        // OGT is ordered and greater than.
	OGE                        // OGE is ordered and greater than or equal.
	OLT                        // OLT is ordered and less than.
	OLE                        // OLE is ordered and less than or equal.
	ONE                        // ONE is ordered and not equal.
	ORD                        // ORD is ordered (no NaNs).
	UNO                        // UNO is unordered (either NaN).
	UEQ                        // UEQ is unordered or equal.
	UGT                        // UGT is unordered or greater than.
	UGE                        // UGE is unordered or greater than or equal.
	ULT                        // ULT is unordered or less than.
	ULE                        // ULE is unordered or less than or equal.
	UNE                        // UNE is unordered or not equal.
	PredTrue                   // PredTrue always yields true.
	EQ                         // EQ is integer equal.
	NE                         // NE is integer not equal.
	IUGT                       // IUGT is unsigned greater than.
	IUGE                       // IUGE is unsigned greater than or equal.
	IULT                       // IULT is unsigned less than.
	IULE                       // IULE is unsigned less than or equal.
	SGT                        // SGT is signed greater than.
	SGE                        // SGE is signed greater than or equal.
	SLT                        // SLT is signed less than.
	SLE                        // SLE is signed less than or equal.
)

const (
	Reassoc         FastMathFlags = 1 << iota // Reassoc allows reassociation.
	NoNaNs                                    // NoNaNs assumes no NaN operands or results.
	NoInfs                                    // NoInfs assumes no infinite operands or results.
	NoSignedZeros                             // NoSignedZeros ignores the sign of zero.
	AllowReciprocal                           // AllowReciprocal allows x/y to become x*(1/y).
	AllowContract                             // AllowContract allows fusing, e.g. into fma.
	ApproxFunc                                // ApproxFunc allows approximate library functions.

	// Fast is the union of all flags.
	Fast = Reassoc | NoNaNs | NoInfs | NoSignedZeros | AllowReciprocal | AllowContract | ApproxFunc
)

// -------------------
// ----- Globals -----
// -------------------

// kTyp provides string literals for Kind constants.
var kTyp = [...]string{
	"void",
	"label",
	"i1",
	"i32",
	"i64",
	"half",
	"float",
	"double",
}

// kBits holds the bit width of every Kind.
var kBits = [...]int{0, 0, 1, 32, 64, 16, 32, 64}

// oTyp provides string literals for Opcode constants.
var oTyp = [...]string{
	"fadd",
	"fsub",
	"fmul",
	"fdiv",
	"frem",
	"add",
	"sub",
	"mul",
	"sdiv",
	"srem",
	"fneg",
	"fcmp",
	"icmp",
	"fpext",
	"fptrunc",
	"sitofp",
	"fptosi",
	"phi",
	"br",
	"ret",
}

// pTyp provides string literals for Predicate constants.
var pTyp = [...]string{
	"false",
	"oeq",
	"ogt",
	"oge",
	"olt",
	"ole",
	"one",
	"ord",
	"uno",
	"ueq",
	"ugt",
	"uge",
	"ult",
	"ule",
	"une",
	"true",
	"eq",
	"ne",
	"ugt",
	"uge",
	"ult",
	"ule",
	"sgt",
	"sge",
	"slt",
	"sle",
}

// fTyp provides string literals for single FastMathFlags bits, in bit order.
var fTyp = [...]string{
	"reassoc",
	"nnan",
	"ninf",
	"nsz",
	"arcp",
	"contract",
	"afn",
}

// ---------------------
// ----- Functions -----
// ---------------------

// Scalar returns the scalar Type of Kind k.
func Scalar(k Kind) Type {
	return Type{Kind: k}
}

// Vector returns the vector Type <lanes x k>. Panics if lanes is not positive.
func Vector(k Kind, lanes int) Type {
	if lanes < 1 {
		panic(fmt.Sprintf("vector of %s must have at least one lane, got %d", kTyp[k], lanes))
	}
	return Type{Kind: k, Lanes: lanes}
}

// String provides a print friendly string representation of the Kind.
func (k Kind) String() string {
	if int(k) >= len(kTyp) {
		return fmt.Sprintf("kind(%d)", uint(k))
	}
	return kTyp[k]
}

// IsVector returns true if t is a vector type.
func (t Type) IsVector() bool {
	return t.Lanes > 0
}

// Elem returns the scalar element type of t. For scalars Elem returns t.
func (t Type) Elem() Type {
	return Type{Kind: t.Kind}
}

// IsFloat returns true if the element of t is a floating point kind.
func (t Type) IsFloat() bool {
	return t.Kind == Half || t.Kind == Float || t.Kind == Double
}

// IsInt returns true if the element of t is an integer kind.
func (t Type) IsInt() bool {
	return t.Kind == Int1 || t.Kind == Int32 || t.Kind == Int64
}

// IsVoid returns true if t is the void type.
func (t Type) IsVoid() bool {
	return t.Kind == Void && t.Lanes == 0
}

// Bits returns the bit width of the element of t.
func (t Type) Bits() int {
	return kBits[t.Kind]
}

// SameShape returns true if t and u have the same number of lanes.
func (t Type) SameShape(u Type) bool {
	return t.Lanes == u.Lanes
}

// WithKind returns a Type of the same shape as t with element kind k.
func (t Type) WithKind(k Kind) Type {
	return Type{Kind: k, Lanes: t.Lanes}
}

// String provides the textual LIR representation of the Type.
func (t Type) String() string {
	if t.Lanes > 0 {
		return fmt.Sprintf("<%d x %s>", t.Lanes, kTyp[t.Kind])
	}
	return kTyp[t.Kind]
}

// LookupKind returns the Kind with the textual name s.
func LookupKind(s string) (Kind, bool) {
	for i1, e1 := range kTyp {
		if e1 == s {
			return Kind(i1), true
		}
	}
	return Void, false
}

// String provides a print friendly string representation of the Opcode.
func (op Opcode) String() string {
	if int(op) >= len(oTyp) {
		return fmt.Sprintf("opcode(%d)", uint(op))
	}
	return oTyp[op]
}

// IsBinary returns true for two-operand arithmetic opcodes.
func (op Opcode) IsBinary() bool {
	return op <= SRem
}

// IsFloatBinary returns true for the two-operand floating point arithmetic opcodes.
func (op Opcode) IsFloatBinary() bool {
	return op <= FRem
}

// IsCast returns true for conversion opcodes.
func (op Opcode) IsCast() bool {
	return op >= FPExt && op <= FPToSI
}

// IsTerminator returns true for opcodes that terminate a basic block.
func (op Opcode) IsTerminator() bool {
	return op == Br || op == Ret
}

// LookupOpcode returns the Opcode with the textual name s.
func LookupOpcode(s string) (Opcode, bool) {
	for i1, e1 := range oTyp {
		if e1 == s {
			return Opcode(i1), true
		}
	}
	return 0, false
}

// String provides a print friendly string representation of the Predicate.
func (p Predicate) String() string {
	if int(p) >= len(pTyp) {
		return fmt.Sprintf("predicate(%d)", uint(p))
	}
	return pTyp[p]
}

// IsFloat returns true for fcmp predicates.
func (p Predicate) IsFloat() bool {
	return p <= PredTrue
}

// LookupPredicate returns the Predicate with the textual name s. fcmp and icmp share the names of the unsigned
// predicates, so float selects which of the two sets is searched.
func LookupPredicate(s string, float bool) (Predicate, bool) {
	for i1, e1 := range pTyp {
		if e1 == s && Predicate(i1).IsFloat() == float {
			return Predicate(i1), true
		}
	}
	return 0, false
}

// String returns the textual LIR representation of the flags: "fast" when all flags are set, else the space
// separated names of the set flags.
func (f FastMathFlags) String() string {
	if f == Fast {
		return "fast"
	}
	names := make([]string, 0, len(fTyp))
	for i1, e1 := range fTyp {
		if f&(1<<uint(i1)) != 0 {
			names = append(names, e1)
		}
	}
	return strings.Join(names, " ")
}

// LookupFastMath returns the flag(s) named s. "fast" returns every flag.
func LookupFastMath(s string) (FastMathFlags, bool) {
	if s == "fast" {
		return Fast, true
	}
	for i1, e1 := range fTyp {
		if e1 == s {
			return 1 << uint(i1), true
		}
	}
	return 0, false
}
