// Package lir provides the light intermediate representation: modules, functions, basic blocks and
// instructions with exact use lists, a builder for creating instructions, a textual printer and a verifier.
package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Value defines anything that can be used as an instruction operand: parameters, constants and instructions
// that produce a result.
type Value interface {
	Id() int                    // Unique identifier assigned to Value when it's created.
	Name() string               // Name of Value without the '%' sigil. Empty for constants.
	Type() types.Type           // Data type of the Value.
	Ident() string              // Textual LIR representation of the Value when used as an operand.
	String() string             // Textual LIR representation of the Value's definition.
	Uses() []Use                // Every operand slot referring to the Value.
	NumUses() int               // Number of operand slots referring to the Value.
	ReplaceAllUsesWith(v Value) // Redirect every use of the Value to v.
	base() *value
}

// Use identifies one operand slot of an instruction.
type Use struct {
	User  Instruction // Instruction holding the operand.
	Index int         // Operand index in User.
}

// value holds the state shared by every Value.
type value struct {
	id   int        // Unique identifier.
	name string     // Optional name.
	typ  types.Type // Data type.
	uses []Use      // Use list, in order of creation.
}

// ---------------------
// ----- Constants -----
// ---------------------

// sigil prefixes named values and labels in textual LIR.
const sigil = "%"

// -------------------
// ----- Globals -----
// -------------------

// ---------------------
// ----- Functions -----
// ---------------------

// Id returns the unique identifier of the value.
func (v *value) Id() int {
	return v.id
}

// Name returns the name of the value without sigil.
func (v *value) Name() string {
	return v.name
}

// Type returns the data type of the value.
func (v *value) Type() types.Type {
	return v.typ
}

// Uses returns a copy of the use list of the value.
func (v *value) Uses() []Use {
	res := make([]Use, len(v.uses))
	copy(res, v.uses)
	return res
}

// NumUses returns the number of operand slots referring to the value.
func (v *value) NumUses() int {
	return len(v.uses)
}

// ReplaceAllUsesWith redirects every use of the value to nv. The use list of the value is empty afterwards.
func (v *value) ReplaceAllUsesWith(nv Value) {
	if nv == nil {
		panic(fmt.Sprintf("cannot replace uses of %s%s with <nil>", sigil, v.name))
	}
	if nv.base() == v {
		return
	}
	for len(v.uses) > 0 {
		u := v.uses[0]
		u.User.SetOperand(u.Index, nv)
	}
}

func (v *value) base() *value {
	return v
}

// addUse appends u to the use list.
func (v *value) addUse(u Use) {
	v.uses = append(v.uses, u)
}

// removeUse removes u from the use list. Panics if u is not a use of the value, which means the use lists are
// corrupt.
func (v *value) removeUse(u Use) {
	for i1, e1 := range v.uses {
		if e1.User == u.User && e1.Index == u.Index {
			v.uses = append(v.uses[:i1], v.uses[i1+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("use %d of %s is not in the use list of %s%s", u.Index, u.User.String(), sigil, v.name))
}
