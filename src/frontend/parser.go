// parser.go provides a recursive descent parser for textual LIR. The scanner runs concurrently to the parser and
// its items are buffered, so every function body can be scanned for block labels before its instructions are
// built. Values referenced before their definition, such as phi operands flowing in over a back edge, are
// represented by forward references that are resolved when the definition is read.

package frontend

import (
	"errors"
	"fmt"
	"hdemote/src/ir/lir"
	"hdemote/src/ir/lir/types"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// parser holds the state of one Parse call.
type parser struct {
	items []item                  // Every item of the source, ending with EOF.
	i     int                     // Index of the next item.
	at    item                    // First item of the construct being parsed. Used to position builder errors.
	m     *lir.Module             // Module receiving the parsed functions.
	f     *lir.Function           // Function being parsed.
	bd    *lir.Builder            // Builder appending to the block being parsed.
	vals  map[string]lir.Value    // Named values of f.
	fwd   map[string]*lir.Forward // Unresolved references of f.
	fwdAt map[string]item         // Item of the first unresolved reference.
}

// parseError carries a positioned syntax error through the recursive descent.
type parseError struct {
	err error
}

// ---------------------
// ----- Functions -----
// ---------------------

// Parse parses the textual LIR in src into a new Module called name, using the types of ctx.
func Parse(ctx *lir.Context, name, src string) (m *lir.Module, err error) {
	l := newLexer(src, lexGlobal)
	defer l.stop()

	// Start scanner and run it concurrently to the parser.
	go l.run()

	p := &parser{
		items: make([]item, 0, len(src)/4),
		m:     lir.CreateModule(ctx, name),
		bd:    ctx.NewBuilder(),
	}
	for {
		it := l.nextItem()
		if it.typ == itemError {
			return nil, errors.New(it.val)
		}
		p.items = append(p.items, it)
		if it.typ == itemEOF {
			break
		}
	}

	defer func() {
		if r := recover(); r != nil {
			m, err = nil, p.recover(r)
		}
	}()
	for p.peek().typ != itemEOF {
		p.function()
	}
	return p.m, nil
}

// TokenStream writes the token stream of the given source string to w as a table.
func TokenStream(w io.Writer, src string) error {
	l := newLexer(src, lexGlobal)
	defer l.stop()
	go l.run()

	tw := tabwriter.NewWriter(w, 10, 20, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Value\tType\tPosition\n")
	for {
		t := l.nextItem()
		switch t.typ {
		case itemEOF:
			return tw.Flush()
		case itemError:
			_ = tw.Flush()
			return errors.New(t.val)
		default:
			if len(t.val) > 20 {
				_, _ = fmt.Fprintf(tw, "%.17q...\t%s\tline: %d:%d\n", t.val, t.typ.String(), t.line, t.pos)
			} else {
				_, _ = fmt.Fprintf(tw, "%q\t%s\tline: %d:%d\n", t.val, t.typ.String(), t.line, t.pos)
			}
		}
	}
}

// recover turns a panic raised while parsing into an error. Builder panics are positioned at the construct being
// parsed. Anything else is not ours and panics again.
func (p *parser) recover(r interface{}) error {
	switch x := r.(type) {
	case parseError:
		return x.err
	case string:
		return fmt.Errorf("line %d:%d: %s", p.at.line, p.at.pos, x)
	}
	panic(r)
}

// errorf aborts parsing with an error positioned at it.
func (p *parser) errorf(it item, format string, args ...interface{}) {
	panic(parseError{err: fmt.Errorf("line %d:%d: %s", it.line, it.pos, fmt.Sprintf(format, args...))})
}

// next consumes and returns the next item. EOF is never consumed.
func (p *parser) next() item {
	it := p.items[p.i]
	if p.i < len(p.items)-1 {
		p.i++
	}
	return it
}

// peek returns, but does not consume, the next item.
func (p *parser) peek() item {
	return p.items[p.i]
}

// peekN returns the item n positions after the next item.
func (p *parser) peekN(n int) item {
	if p.i+n < len(p.items) {
		return p.items[p.i+n]
	}
	return p.items[len(p.items)-1]
}

// expect consumes the next item, which must be of type typ.
func (p *parser) expect(typ itemType) item {
	it := p.next()
	if it.typ != typ {
		p.errorf(it, "expected %s, found %s", typ.String(), describe(it))
	}
	return it
}

// keyword consumes the next item, which must be the word w.
func (p *parser) keyword(w string) item {
	it := p.next()
	if it.typ != itemWord || it.val != w {
		p.errorf(it, "expected %q, found %s", w, describe(it))
	}
	return it
}

// function parses one function definition.
func (p *parser) function() {
	p.at = p.keyword("define")
	var rtyp types.Type
	if p.peek().typ == itemWord && p.peek().val == "void" {
		p.next()
		rtyp = types.Scalar(types.Void)
	} else {
		rtyp = p.typ()
	}
	g := p.expect(itemGlobal)
	f, err := p.m.CreateFunction(g.val[1:], rtyp)
	if err != nil {
		p.errorf(g, "%s", err)
	}
	p.f = f
	p.vals = make(map[string]lir.Value, 32)
	p.fwd = make(map[string]*lir.Forward, 4)
	p.fwdAt = make(map[string]item, 4)

	// Parameters.
	p.expect('(')
	for p.peek().typ != ')' {
		p.at = p.peek()
		typ := p.typ()
		n := p.expect(itemLocal)
		p.define(n, f.CreateParam(n.val[1:], typ))
		if p.peek().typ != ',' {
			break
		}
		p.next()
	}
	p.expect(')')

	// Body.
	p.expect('{')
	p.labels()
	for p.peek().typ != '}' {
		l := p.expect(itemWord)
		p.expect(':')
		p.bd.SetInsertPointAtEnd(f.GetBlock(l.val))
		for p.peek().typ != '}' && !p.atLabel() {
			p.instruction()
		}
	}
	p.expect('}')

	if len(p.fwd) > 0 {
		pending := make([]item, 0, len(p.fwdAt))
		for _, e1 := range p.fwdAt {
			pending = append(pending, e1)
		}
		sort.Slice(pending, func(i, j int) bool {
			if pending[i].line != pending[j].line {
				return pending[i].line < pending[j].line
			}
			return pending[i].pos < pending[j].pos
		})
		p.errorf(pending[0], "%s is never defined in function %s", pending[0].val, f.Name())
	}
}

// labels creates the blocks of the function body starting at the next item, in the order their labels appear.
func (p *parser) labels() {
	for i1 := p.i; i1 < len(p.items)-1 && p.items[i1].typ != '}'; i1++ {
		it := p.items[i1]
		if it.typ != itemWord || p.items[i1+1].typ != ':' {
			continue
		}
		if p.f.GetBlock(it.val) != nil {
			p.errorf(it, "label %s redefined", it.val)
		}
		if b := p.f.CreateBlock(it.val); b.Name() != it.val {
			p.errorf(it, "label %s clashes with a parameter", it.val)
		}
	}
}

// atLabel returns true if the next items start a block.
func (p *parser) atLabel() bool {
	return p.peek().typ == itemWord && p.peekN(1).typ == ':'
}

// define binds the value v to the local name of item at and resolves any forward reference to it.
func (p *parser) define(at item, v lir.Value) {
	name := at.val[1:]
	if _, ok := p.vals[name]; ok {
		p.errorf(at, "%s redefined", at.val)
	}
	if v.Name() != name {
		p.errorf(at, "%s clashes with a label", at.val)
	}
	p.vals[name] = v
	if fw, ok := p.fwd[name]; ok {
		if fw.Type() != v.Type() {
			p.errorf(at, "%s is defined as %s but used as %s", at.val, v.Type().String(), fw.Type().String())
		}
		fw.ReplaceAllUsesWith(v)
		delete(p.fwd, name)
		delete(p.fwdAt, name)
	}
}

// instruction parses one instruction and appends it to the current block.
func (p *parser) instruction() {
	p.at = p.peek()
	var res item
	if p.peek().typ == itemLocal {
		res = p.next()
		p.expect('=')
	}
	name := ""
	if res.typ == itemLocal {
		name = res.val[1:]
	}
	w := p.expect(itemWord)
	op, ok := types.LookupOpcode(w.val)
	if !ok {
		p.errorf(w, "unknown instruction %q", w.val)
	}
	fmf := p.flags()

	var inst lir.Instruction
	switch {
	case op.IsBinary():
		typ := p.typ()
		lhs := p.operand(typ)
		p.expect(',')
		inst = p.bd.CreateTypedBinOp(op, typ, lhs, p.operand(typ), name)
	case op == types.FNeg:
		typ := p.typ()
		inst = p.bd.CreateFNeg(p.operand(typ), name)
	case op == types.FCmp || op == types.ICmp:
		pw := p.expect(itemWord)
		pred, ok := types.LookupPredicate(pw.val, op == types.FCmp)
		if !ok {
			p.errorf(pw, "unknown predicate %q", pw.val)
		}
		typ := p.typ()
		lhs := p.operand(typ)
		p.expect(',')
		if op == types.FCmp {
			inst = p.bd.CreateFCmp(pred, lhs, p.operand(typ), name)
		} else {
			inst = p.bd.CreateICmp(pred, lhs, p.operand(typ), name)
		}
	case op.IsCast():
		src := p.operand(p.typ())
		p.keyword("to")
		inst = p.bd.CreateCast(op, src, p.typ(), name)
	case op == types.Phi:
		typ := p.typ()
		phi := p.bd.CreatePhi(typ, name)
		if res.typ == itemLocal {
			// Define the phi first, its incoming values may refer to it.
			p.define(res, phi)
		}
		for {
			p.expect('[')
			v := p.operand(typ)
			p.expect(',')
			phi.AddIncoming(v, p.label())
			p.expect(']')
			if p.peek().typ != ',' || p.peekN(1).typ != '[' {
				break
			}
			p.next()
		}
		inst = phi
	case op == types.Br:
		if p.peek().typ == itemWord && p.peek().val == "label" {
			p.next()
			inst = p.bd.CreateBr(p.label())
			break
		}
		cond := p.operand(p.typ())
		p.expect(',')
		p.keyword("label")
		thn := p.label()
		p.expect(',')
		p.keyword("label")
		inst = p.bd.CreateCondBr(cond, thn, p.label())
	case op == types.Ret:
		if p.peek().typ == itemWord && p.peek().val == "void" {
			p.next()
			inst = p.bd.CreateRetVoid()
			break
		}
		inst = p.bd.CreateRet(p.operand(p.typ()))
	default:
		p.errorf(w, "unknown instruction %q", w.val)
	}
	inst.SetFastMath(fmf)
	p.metadata(inst)

	switch {
	case inst.Type().IsVoid() && res.typ == itemLocal:
		p.errorf(res, "%s does not produce a value to assign to %s", op.String(), res.val)
	case op != types.Phi && res.typ == itemLocal:
		p.define(res, inst)
	}
}

// flags parses an optional list of fast-math flags.
func (p *parser) flags() types.FastMathFlags {
	var res types.FastMathFlags
	for p.peek().typ == itemWord {
		f, ok := types.LookupFastMath(p.peek().val)
		if !ok {
			break
		}
		p.next()
		res |= f
	}
	return res
}

// metadata parses the metadata attachments following an instruction.
func (p *parser) metadata(inst lir.Instruction) {
	for p.peek().typ == ',' && p.peekN(1).typ == itemMeta {
		p.next()
		kind := p.next()
		val := p.expect(itemString)
		s, err := strconv.Unquote(`"` + val.val + `"`)
		if err != nil {
			p.errorf(val, "malformed string %q", val.val)
		}
		inst.SetMetadata(kind.val[1:], s)
	}
}

// isType returns true if the next items start a type.
func (p *parser) isType() bool {
	it := p.peek()
	if it.typ == '<' {
		return true
	}
	if it.typ != itemWord {
		return false
	}
	k, ok := types.LookupKind(it.val)
	return ok && k != types.Label && k != types.Void
}

// typ parses a scalar or vector value type.
func (p *parser) typ() types.Type {
	it := p.next()
	switch it.typ {
	case itemWord:
		return types.Scalar(p.kind(it))
	case '<':
		n := p.expect(itemNumber)
		lanes, err := strconv.Atoi(n.val)
		if err != nil || lanes < 1 {
			p.errorf(n, "malformed vector length %q", n.val)
		}
		p.keyword("x")
		k := p.kind(p.expect(itemWord))
		p.expect('>')
		return types.Vector(k, lanes)
	}
	p.errorf(it, "expected type, found %s", describe(it))
	return types.Type{}
}

// kind returns the value Kind named by it.
func (p *parser) kind(it item) types.Kind {
	k, ok := types.LookupKind(it.val)
	if !ok || k == types.Label || k == types.Void {
		p.errorf(it, "unknown type %q", it.val)
	}
	return k
}

// label parses a block reference.
func (p *parser) label() *lir.Block {
	it := p.expect(itemLocal)
	b := p.f.GetBlock(it.val[1:])
	if b == nil {
		p.errorf(it, "unknown label %s", it.val)
	}
	return b
}

// operand parses an operand with an optional type prefix. typ is the type of the operand when no prefix is given.
func (p *parser) operand(typ types.Type) lir.Value {
	if p.isType() {
		typ = p.typ()
	}
	it := p.next()
	switch it.typ {
	case itemLocal:
		name := it.val[1:]
		if v, ok := p.vals[name]; ok {
			return v
		}
		if fw, ok := p.fwd[name]; ok {
			if fw.Type() != typ {
				p.errorf(it, "%s is used as both %s and %s", it.val, fw.Type().String(), typ.String())
			}
			return fw
		}
		fw := lir.NewForward(typ, name)
		p.fwd[name] = fw
		p.fwdAt[name] = it
		return fw
	case itemNumber, itemWord:
		return p.literal(it, typ)
	}
	p.errorf(it, "expected operand, found %s", describe(it))
	return nil
}

// literal returns the constant of type typ written as it.
func (p *parser) literal(it item, typ types.Type) lir.Value {
	switch {
	case typ.IsVector():
		p.errorf(it, "literal %s cannot be of type %s", it.val, typ.String())
	case typ.IsFloat():
		if it.val == "true" || it.val == "false" {
			break
		}
		v, err := strconv.ParseFloat(it.val, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			break
		}
		return lir.ConstFloat(typ, v)
	case typ.Kind == types.Int1 && (it.val == "true" || it.val == "false"):
		if it.val == "true" {
			return lir.ConstInt(typ, 1)
		}
		return lir.ConstInt(typ, 0)
	case typ.IsInt():
		v, err := strconv.ParseInt(it.val, 10, 64)
		if err != nil {
			break
		}
		return lir.ConstInt(typ, v)
	}
	p.errorf(it, "malformed %s literal %q", typ.String(), it.val)
	return nil
}

// describe returns a print friendly description of it for error messages.
func describe(it item) string {
	switch it.typ {
	case itemEOF:
		return "end of file"
	case itemWord, itemLocal, itemGlobal, itemNumber, itemMeta:
		return strconv.Quote(it.val)
	case itemString:
		return "string " + strconv.Quote(it.val)
	}
	return strings.Trim(it.typ.String(), "'")
}
