package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
	"strconv"
	"strings"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Function represents a function. It has a name, return type, parameters and basic blocks.
type Function struct {
	m      *Module         // Parent module. Used for requesting sequence numbers.
	id     int             // Unique identifier assigned to this function.
	name   string          // Name of function.
	typ    types.Type      // Return type of function.
	params []*Param        // Parameters of function.
	blocks []*Block        // Basic blocks in function body, entry block first.
	seq    int             // Sequence number for generating unique identifiers for all children of function.
	names  map[string]bool // Names of values and blocks in use in the function body.
}

// Param represents a function parameter. A parameter has a name and a data type.
type Param struct {
	value
	f *Function // Parent function.
}

// ---------------------
// ----- Constants -----
// ---------------------

// labelParamPrefix defines the Param types name prefix.
const labelParamPrefix = "p"

// labelBlockPrefix defines the name prefix of unnamed basic blocks.
const labelBlockPrefix = "block"

// -------------------
// ----- globals -----
// -------------------

// ---------------------
// ----- functions -----
// ---------------------

// ----------------------------
// ----- Function methods -----
// ----------------------------

// Id returns the unique sequence number assigned to Function f when it was created.
func (f *Function) Id() int {
	return f.id
}

// Name returns the name of Function f.
func (f *Function) Name() string {
	return f.name
}

// Module returns the module owning Function f.
func (f *Function) Module() *Module {
	return f.m
}

// Context returns the type context of Function f.
func (f *Function) Context() *Context {
	return f.m.ctx
}

// ReturnType returns the return type of Function f.
func (f *Function) ReturnType() types.Type {
	return f.typ
}

// Params returns the parameters of Function f.
func (f *Function) Params() []*Param {
	return f.params
}

// Blocks returns the basic blocks of Function f.
func (f *Function) Blocks() []*Block {
	return f.blocks
}

// GetParam returns the parameter with given name, if it exists. If Function f does not have a parameter with the
// given name, nil is returned.
func (f *Function) GetParam(name string) *Param {
	for _, e1 := range f.params {
		if e1.name == name {
			return e1
		}
	}
	return nil
}

// GetBlock returns the basic block with given name, or nil.
func (f *Function) GetBlock(name string) *Block {
	for _, e1 := range f.blocks {
		if e1.name == name {
			return e1
		}
	}
	return nil
}

// CreateParam creates and adds a parameter of type typ to Function f. An empty name assigns a generated name.
func (f *Function) CreateParam(name string, typ types.Type) *Param {
	if typ.IsVoid() || typ.Kind == types.Label {
		panic(fmt.Sprintf("function %s: parameter cannot be of type %s", f.name, typ.String()))
	}
	p := &Param{f: f}
	p.id = f.getId()
	p.typ = typ
	if len(name) < 1 {
		name = fmt.Sprintf("%s%d", labelParamPrefix, p.id)
	}
	p.name = f.uniqueName(name)
	f.params = append(f.params, p)
	return p
}

// CreateBlock creates a new Block at the end of Function f. An empty name assigns a generated name.
func (f *Function) CreateBlock(name string) *Block {
	b := &Block{
		f:  f,
		id: f.m.getId(),
	}
	if len(name) < 1 {
		name = fmt.Sprintf("%s%d", labelBlockPrefix, b.id)
	}
	b.name = f.uniqueName(name)
	f.blocks = append(f.blocks, b)
	return b
}

// NumInstructions returns the number of instructions in the body of Function f.
func (f *Function) NumInstructions() int {
	n := 0
	for _, e1 := range f.blocks {
		n += e1.n
	}
	return n
}

// String returns the textual LIR representation of Function f.
func (f *Function) String() string {
	// Function header.
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("define %s @%s(", f.typ.String(), f.name))
	for i1, e1 := range f.params {
		sb.WriteString(e1.String())
		if i1 < len(f.params)-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString(") {\n")

	// Function body.
	for i1, e1 := range f.blocks {
		if i1 > 0 {
			sb.WriteRune('\n')
		}
		sb.WriteString(e1.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}

// getId returns a unique identifer for any child of Function f.
func (f *Function) getId() int {
	id := f.seq
	f.seq++
	return id
}

// uniqueName returns name if it is unused in Function f, else name suffixed with the lowest free sequence
// number. The returned name is marked as used.
func (f *Function) uniqueName(name string) string {
	if len(name) < 1 {
		name = strconv.Itoa(f.getId())
	}
	res := name
	for i1 := 1; f.names[res]; i1++ {
		res = name + strconv.Itoa(i1)
	}
	f.names[res] = true
	return res
}

// releaseName marks name as unused.
func (f *Function) releaseName(name string) {
	delete(f.names, name)
}

// -------------------------
// ----- Param methods -----
// -------------------------

// Ident returns the textual LIR operand representation of Param p.
func (p *Param) Ident() string {
	return sigil + p.name
}

// Function returns the function owning Param p.
func (p *Param) Function() *Function {
	return p.f
}

// String returns the textual LIR representation of Param p.
func (p *Param) String() string {
	return fmt.Sprintf("%s %s", p.typ.String(), p.Ident())
}
