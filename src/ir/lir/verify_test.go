package lir

import (
	"hdemote/src/ir/lir/types"
	"strings"
	"testing"
)

// TestVerify builds malformed functions and checks that the verifier reports the expected problem.
func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		build func(f *Function, bd *Builder)
		exp   string
	}{
		{
			name:  "no blocks",
			build: func(f *Function, bd *Builder) { f.blocks = f.blocks[:0] },
			exp:   "no basic blocks",
		},
		{
			name: "empty block",
			build: func(f *Function, bd *Builder) {
				bd.CreateRet(f.GetParam("a"))
				f.CreateBlock("dangling")
			},
			exp: "block dangling is empty",
		},
		{
			name: "unterminated block",
			build: func(f *Function, bd *Builder) {
				bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "x")
			},
			exp: "block entry is not terminated",
		},
		{
			name: "terminator in the middle",
			build: func(f *Function, bd *Builder) {
				bd.CreateRet(f.GetParam("a"))
				bd.CreateRet(f.GetParam("b"))
			},
			exp: "terminator is not the last instruction",
		},
		{
			name: "phi after non-phi",
			build: func(f *Function, bd *Builder) {
				bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "x")
				p := bd.CreatePhi(f.Context().HalfType(), "p")
				p.AddIncoming(f.GetParam("a"), f.GetBlock("entry"))
				bd.CreateRet(p)
			},
			exp: "phi follows a non-phi",
		},
		{
			name: "use before definition",
			build: func(f *Function, bd *Builder) {
				y := bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "y")
				bd.CreateRet(y)
				bd.SetInsertPointBefore(y)
				bd.CreateFMul(y, y, "z")
			},
			exp: "used before its definition",
		},
		{
			name: "foreign parameter",
			build: func(f *Function, bd *Builder) {
				g, _ := f.Module().CreateFunction("g", f.Context().HalfType())
				bd.CreateRet(g.CreateParam("q", f.Context().HalfType()))
			},
			exp: "is a parameter of function g",
		},
		{
			name: "erased operand",
			build: func(f *Function, bd *Builder) {
				x := bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "x")
				bd.CreateRet(x)
				x.uses = nil
				x.EraseFromParent()
			},
			exp: "refers to erased instruction %x",
		},
		{
			name: "stale use",
			build: func(f *Function, bd *Builder) {
				x := bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "x")
				ret := bd.CreateRet(x)
				x.addUse(Use{User: ret, Index: 3})
			},
			exp: "stale use 3",
		},
		{
			name: "return type",
			build: func(f *Function, bd *Builder) {
				bd.CreateRet(ConstFloat(f.Context().FloatType(), 1))
			},
			exp: "returns float from function returning half",
		},
		{
			name: "void return",
			build: func(f *Function, bd *Builder) {
				bd.CreateRetVoid()
			},
			exp: "function returning half returns void",
		},
		{
			name: "phi incoming type",
			build: func(f *Function, bd *Builder) {
				bd.CreateBr(f.CreateBlock("next"))
				bd.SetInsertPointAtEnd(f.GetBlock("next"))
				p := bd.CreatePhi(f.Context().HalfType(), "p")
				p.AddIncoming(ConstFloat(f.Context().DoubleType(), 2), f.GetBlock("entry"))
				bd.CreateRet(p)
			},
			exp: "incoming value 0 has type double",
		},
		{
			name: "result type",
			build: func(f *Function, bd *Builder) {
				x := bd.CreateFAdd(f.GetParam("a"), f.GetParam("b"), "x")
				x.typ = types.Scalar(types.Double)
				bd.CreateRet(f.GetParam("a"))
			},
			exp: "result type double matches neither operand",
		},
	}
	for _, e1 := range tests {
		f, bd := helperHalfFunction(t)
		e1.build(f, bd)
		err := Verify(f)
		if err == nil {
			t.Errorf("%s: expected verifier error", e1.name)
			continue
		}
		if !strings.Contains(err.Error(), e1.exp) {
			t.Errorf("%s: expected error containing %q, got:\n%s", e1.name, e1.exp, err)
		}
	}
}

// TestVerifyModule checks that problems of every function are reported together.
func TestVerifyModule(t *testing.T) {
	f, bd := helperHalfFunction(t)
	bd.CreateRet(f.GetParam("a"))
	if err := VerifyModule(f.Module()); err != nil {
		t.Fatalf("unexpected verifier error: %s", err)
	}

	g, _ := f.Module().CreateFunction("g", f.Context().VoidType())
	g.CreateBlock("entry")
	if _, err := f.Module().CreateFunction("h", f.Context().VoidType()); err != nil {
		t.Fatal(err)
	}
	err := VerifyModule(f.Module())
	if err == nil {
		t.Fatal("expected verifier error")
	}
	for _, e1 := range []string{"function g: block entry is empty", "function h: function has no basic blocks"} {
		if !strings.Contains(err.Error(), e1) {
			t.Errorf("expected error containing %q, got:\n%s", e1, err)
		}
	}
}
