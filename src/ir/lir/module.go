package lir

import (
	"fmt"
	"hdemote/src/ir/lir/types"
	"strings"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Context owns the canonical types of a compilation. Types are plain values, so a Context is only a stable
// place to request them from.
type Context struct {
	half, float, double types.Type
	i1, i32, i64        types.Type
	void, label         types.Type
}

// Module defines a program that contains functions.
type Module struct {
	Name       string               // Name of module. Not important.
	ctx        *Context             // Type context.
	functions  []*Function          // All functions defined in module, in creation order.
	byName     map[string]*Function // Functions indexed by name.
	seq        int                  // Sequence number used for assigning unique identifiers to every child of module.
	sync.Mutex                      // Mutex for synchronising access to the module during parallel execution.
}

// ---------------------
// ----- Constants -----
// ---------------------

// labelFunctionPrefix is used when assigning names to Function when no name is given.
const labelFunctionPrefix = "func"

// -------------------
// ----- globals -----
// -------------------

// ---------------------
// ----- functions -----
// ---------------------

// NewContext creates a new type context.
func NewContext() *Context {
	return &Context{
		half:   types.Scalar(types.Half),
		float:  types.Scalar(types.Float),
		double: types.Scalar(types.Double),
		i1:     types.Scalar(types.Int1),
		i32:    types.Scalar(types.Int32),
		i64:    types.Scalar(types.Int64),
		void:   types.Scalar(types.Void),
		label:  types.Scalar(types.Label),
	}
}

// HalfType returns the half precision floating point type.
func (c *Context) HalfType() types.Type { return c.half }

// FloatType returns the single precision floating point type.
func (c *Context) FloatType() types.Type { return c.float }

// DoubleType returns the double precision floating point type.
func (c *Context) DoubleType() types.Type { return c.double }

// Int1Type returns the boolean type.
func (c *Context) Int1Type() types.Type { return c.i1 }

// Int32Type returns the 32-bit integer type.
func (c *Context) Int32Type() types.Type { return c.i32 }

// Int64Type returns the 64-bit integer type.
func (c *Context) Int64Type() types.Type { return c.i64 }

// VoidType returns the void type.
func (c *Context) VoidType() types.Type { return c.void }

// NewBuilder returns a Builder without insertion point.
func (c *Context) NewBuilder() *Builder {
	return &Builder{ctx: c}
}

// CreateModule creates a new empty module in context ctx with the given optional name.
func CreateModule(ctx *Context, name string) *Module {
	m := Module{
		ctx:       ctx,
		functions: make([]*Function, 0, 16),
		byName:    make(map[string]*Function, 16),
	}
	if len(name) > 0 {
		m.Name = name
	} else {
		m.Name = "LIR Module"
	}
	return &m
}

// Context returns the type context of Module m.
func (m *Module) Context() *Context {
	return m.ctx
}

// String returns a textual representation of the module.
func (m *Module) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("; module %s\n", m.Name))
	for _, e1 := range m.functions {
		sb.WriteRune('\n')
		sb.WriteString(e1.String())
	}
	return sb.String()
}

// CreateFunction creates a new empty function given return type rtyp and function name. An empty name assigns
// a generated name.
func (m *Module) CreateFunction(name string, rtyp types.Type) (*Function, error) {
	if rtyp.Kind == types.Label {
		return nil, fmt.Errorf("cannot create function %q returning %s", name, rtyp.String())
	}

	m.Lock()
	defer m.Unlock()
	f := &Function{
		m:      m,
		id:     m.seq,
		typ:    rtyp,
		params: make([]*Param, 0, 8), // Assume 8 parameters.
		blocks: make([]*Block, 0, 8), // Assume at most 8 basic blocks. It's a reasonable amount for a simple function.
		names:  make(map[string]bool, 32),
	}
	m.seq++
	if len(name) > 0 {
		f.name = name
	} else {
		f.name = fmt.Sprintf("%s%d", labelFunctionPrefix, f.id)
	}
	if _, ok := m.byName[f.name]; ok {
		return nil, fmt.Errorf("function %q is already defined in module %s", f.name, m.Name)
	}
	m.functions = append(m.functions, f)
	m.byName[f.name] = f
	return f, nil
}

// Functions returns a slice of all functions declared in Module m, in creation order.
func (m *Module) Functions() []*Function {
	res := make([]*Function, len(m.functions))
	copy(res, m.functions)
	return res
}

// GetFunction returns a named function of Module m, if it exits. If no function with the given
// name exits, nil is returned.
func (m *Module) GetFunction(name string) *Function {
	return m.byName[name]
}

// getId returns a unique sequence number that can be assigned to any data object in the Module m.
func (m *Module) getId() int {
	m.Lock()
	defer m.Unlock()
	res := m.seq
	m.seq++
	return res
}
