package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
	"math"
	"strconv"

	"github.com/x448/float16"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Constant defines an integer or floating point constant. Constants are not uniqued: every call to ConstFloat or
// ConstInt returns a new Constant with its own use list.
type Constant struct {
	value
	f float64 // f holds the value of floating point constants, rounded to the precision of the type.
	i int64   // i holds the value of integer constants.
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

// ConstFloat creates a floating point constant of scalar type typ. v is rounded to the precision of typ.
func ConstFloat(typ types.Type, v float64) *Constant {
	if !typ.IsFloat() || typ.IsVector() {
		panic(fmt.Sprintf("cannot create floating point constant of type %s", typ.String()))
	}
	return &Constant{
		value: value{typ: typ},
		f:     RoundFloat(typ.Kind, v),
	}
}

// ConstInt creates an integer constant of scalar type typ. v is truncated to the width of typ.
func ConstInt(typ types.Type, v int64) *Constant {
	if !typ.IsInt() || typ.IsVector() {
		panic(fmt.Sprintf("cannot create integer constant of type %s", typ.String()))
	}
	return &Constant{
		value: value{typ: typ},
		i:     TruncInt(typ.Kind, v),
	}
}

// RoundFloat rounds v to the precision of the floating point kind k.
func RoundFloat(k types.Kind, v float64) float64 {
	switch k {
	case types.Half:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case types.Float:
		return float64(float32(v))
	}
	return v
}

// TruncInt truncates v to the width of the integer kind k and sign extends the result.
func TruncInt(k types.Kind, v int64) int64 {
	switch k {
	case types.Int1:
		return v & 1
	case types.Int32:
		return int64(int32(v))
	}
	return v
}

// Float returns the value of a floating point Constant.
func (c *Constant) Float() float64 {
	return c.f
}

// Int returns the value of an integer Constant.
func (c *Constant) Int() int64 {
	return c.i
}

// Ident returns the textual literal of the Constant.
func (c *Constant) Ident() string {
	if c.typ.IsInt() {
		if c.typ.Kind == types.Int1 {
			return strconv.FormatBool(c.i != 0)
		}
		return strconv.FormatInt(c.i, 10)
	}
	switch {
	case math.IsNaN(c.f):
		return "nan"
	case math.IsInf(c.f, 1):
		return "inf"
	case math.IsInf(c.f, -1):
		return "-inf"
	}
	s := strconv.FormatFloat(c.f, 'g', -1, 64)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Keep a decimal point so the literal reads as floating point.
		s += ".0"
	}
	return s
}

// String returns the textual LIR representation of the Constant.
func (c *Constant) String() string {
	return fmt.Sprintf("%s %s", c.typ.String(), c.Ident())
}
