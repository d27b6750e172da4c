package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
)

// Forward stands in for a value that is referenced before its definition has been read, such as a phi operand
// flowing in over a back edge. Once the definition is known, the reference is resolved with ReplaceAllUsesWith.
// A function still using a Forward does not verify.
type Forward struct {
	value
}

// NewForward creates a forward reference to the value named name of type typ.
func NewForward(typ types.Type, name string) *Forward {
	return &Forward{value: value{typ: typ, name: name}}
}

// Ident returns the textual LIR operand representation of the referenced value.
func (fw *Forward) Ident() string {
	return sigil + fw.name
}

// String returns the textual LIR representation of the forward reference.
func (fw *Forward) String() string {
	return fmt.Sprintf("%s %s", fw.typ.String(), fw.Ident())
}
