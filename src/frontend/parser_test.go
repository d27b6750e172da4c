package frontend

import (
	"fmt"
	"hdemote/src/ir/lir"
	"hdemote/src/ir/lir/eval"
	"hdemote/src/ir/lir/types"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// loopSrc is printed exactly as the printer writes it, so parsing and printing it must reproduce it.
const loopSrc = `; module test

define half @f(half %a, half %b, i32 %n) {
entry:
  %s = fadd fast half %a, %b, !fpmath "2.5"
  %w = fpext half %s to float
  %m = fmul float %w, half %b
  %c = fcmp olt float %m, 0.5
  br i1 %c, label %loop, label %done

loop:
  %p = phi half [ %s, %entry ], [ %q, %loop ]
  %i = phi i32 [ 0, %entry ], [ %j, %loop ]
  %q = fsub nnan nsz half %p, 0.0999755859375
  %j = add i32 %i, 1
  %k = icmp slt i32 %j, %n
  br i1 %k, label %loop, label %done

done:
  %r = phi half [ %s, %entry ], [ %q, %loop ]
  %z = fneg half %r
  ret half %z
}

define <2 x half> @v(<2 x half> %x) {
entry:
  %y = fadd <2 x half> %x, %x
  ret <2 x half> %y
}

define half @decl(half %x) {
}
`

// TestParseRoundTrip parses a module and checks that it prints back to the same text and verifies.
func TestParseRoundTrip(t *testing.T) {
	m, err := Parse(lir.NewContext(), "test", loopSrc)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if diff := cmp.Diff(loopSrc, m.String()); diff != "" {
		t.Errorf("printed module differs from source (-want +got):\n%s", diff)
	}
	for _, e1 := range m.Functions() {
		if len(e1.Blocks()) == 0 {
			continue
		}
		if err := lir.Verify(e1); err != nil {
			t.Errorf("parsed function %s does not verify: %s", e1.Name(), err)
		}
	}

	f := m.GetFunction("f")
	if f == nil {
		t.Fatal("function f missing")
	}
	if got := len(f.Blocks()); got != 3 {
		t.Errorf("expected 3 blocks in f, got %d", got)
	}
	s := f.Blocks()[0].First()
	if v, ok := s.Metadata("fpmath"); !ok || v != "2.5" {
		t.Errorf("expected !fpmath \"2.5\" on %s, got %q", s.Ident(), v)
	}
	if got := len(m.GetFunction("decl").Blocks()); got != 0 {
		t.Errorf("expected declaration without blocks, got %d", got)
	}
}

// TestParseForward checks that values referenced before their definition are resolved with exact use lists.
func TestParseForward(t *testing.T) {
	m, err := Parse(lir.NewContext(), "test", loopSrc)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	loop := m.GetFunction("f").GetBlock("loop")
	p := loop.First()
	q := p.Operand(1)
	if q.Name() != "q" || q.Type() != m.Context().HalfType() {
		t.Fatalf("expected phi operand 1 to be half %%q, got %s", q.String())
	}
	if _, ok := q.(lir.Instruction); !ok {
		t.Errorf("expected %%q to be resolved to an instruction, got %T", q)
	}
	// %q flows into both phis.
	if got := q.NumUses(); got != 2 {
		t.Errorf("expected 2 uses of %%q, got %d", got)
	}
}

// TestParseEval runs a parsed function.
func TestParseEval(t *testing.T) {
	src := `define float @g(float %x) {
entry:
  %y = fmul float %x, 2.0
  %z = fadd float %y, -0.25
  ret float %z
}
`
	m, err := Parse(lir.NewContext(), "eval", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	got, err := eval.Run(m.GetFunction("g"), 1.5)
	if err != nil {
		t.Fatalf("unexpected eval error: %s", err)
	}
	if got != 2.75 {
		t.Errorf("expected 2.75, got %v", got)
	}
}

// TestParseLiterals checks constants of every scalar type.
func TestParseLiterals(t *testing.T) {
	src := `define i1 @lit(half %h, float %f, i64 %i) {
entry:
  %a = fadd half %h, inf
  %b = fadd half %a, -inf
  %c = fcmp uno half %b, nan
  %d = fadd float %f, 3.75e-1
  %e = add i64 %i, -7
  %g = icmp ne i1 %c, true
  ret i1 %g
}
`
	m, err := Parse(lir.NewContext(), "lit", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	exp := []string{"half inf", "half -inf", "half nan", "float 0.375", "i64 -7", "i1 true"}
	got := make([]string, 0, len(exp))
	for _, e1 := range m.GetFunction("lit").Blocks()[0].Instructions() {
		if e1.NumOperands() == 2 {
			got = append(got, e1.Operand(1).String())
		}
	}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("literal mismatch (-want +got):\n%s", diff)
	}
}

// TestParsePredicates checks that every compare predicate parses and prints back unchanged.
func TestParsePredicates(t *testing.T) {
	sb := strings.Builder{}
	sb.WriteString("; module pred\n\ndefine i1 @f(half %a, half %b, i32 %i, i32 %j) {\nentry:\n")
	for p := types.PredFalse; p <= types.SLE; p++ {
		if p.IsFloat() {
			sb.WriteString(fmt.Sprintf("  %%c%d = fcmp %s half %%a, %%b\n", int(p), p.String()))
		} else {
			sb.WriteString(fmt.Sprintf("  %%c%d = icmp %s i32 %%i, %%j\n", int(p), p.String()))
		}
	}
	sb.WriteString("  ret i1 %c0\n}\n")
	src := sb.String()

	m, err := Parse(lir.NewContext(), "pred", src)
	if err != nil {
		t.Fatalf("unexpected parse error: %s", err)
	}
	if diff := cmp.Diff(src, m.String()); diff != "" {
		t.Errorf("printed module differs from source (-want +got):\n%s", diff)
	}
	for _, e1 := range m.GetFunction("f").Blocks()[0].Instructions() {
		c, ok := e1.(*lir.CompareInstruction)
		if !ok {
			continue
		}
		if want := "c" + strconv.Itoa(int(c.Predicate())); c.Name() != want {
			t.Errorf("expected predicate %s on %%%s, found it on %%%s", c.Predicate().String(), want, c.Name())
		}
	}
}

// TestParseErrors checks that malformed sources are rejected with positioned errors.
func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "lexical",
			src:  "define half @f() {\n#",
			want: "line 2:1: unexpected character '#'",
		},
		{
			name: "unknown instruction",
			src:  "define void @f() {\nentry:\n  frob\n}\n",
			want: "line 3:3: unknown instruction \"frob\"",
		},
		{
			name: "undefined value",
			src:  "define half @f() {\nentry:\n  ret half %x\n}\n",
			want: "line 3:12: %x is never defined in function f",
		},
		{
			name: "redefinition",
			src:  "define half @f(half %a) {\nentry:\n  %a = fneg half %a\n  ret half %a\n}\n",
			want: "line 3:3: %a redefined",
		},
		{
			name: "label clash",
			src:  "define half @f(half %a) {\nentry:\n  %entry = fneg half %a\n  ret half %a\n}\n",
			want: "%entry clashes with a label",
		},
		{
			name: "label redefined",
			src:  "define void @f() {\nentry:\n  ret void\nentry:\n  ret void\n}\n",
			want: "line 4:1: label entry redefined",
		},
		{
			name: "unknown label",
			src:  "define void @f() {\nentry:\n  br label %nowhere\n}\n",
			want: "unknown label %nowhere",
		},
		{
			name: "float predicate on icmp",
			src:  "define i1 @f(i32 %a) {\nentry:\n  %c = icmp oeq i32 %a, %a\n  ret i1 %c\n}\n",
			want: "line 3:13: unknown predicate \"oeq\"",
		},
		{
			name: "operand types",
			src:  "define half @f(half %a) {\nentry:\n  %x = fadd half %a, i32 1\n  ret half %x\n}\n",
			want: "line 3:3: cannot use half and i32 as operands to fadd",
		},
		{
			name: "forward type",
			src: "define void @f() {\nentry:\n  br label %l\n\nl:\n" +
				"  %p = phi half [ %q, %entry ]\n  %q = add i32 1, 2\n  ret void\n}\n",
			want: "%q is defined as i32 but used as half",
		},
		{
			name: "duplicate function",
			src:  "define void @f() {\n}\ndefine void @f() {\n}\n",
			want: "line 3:13: function \"f\" is already defined",
		},
		{
			name: "void assignment",
			src:  "define void @f() {\nentry:\n  %x = ret void\n}\n",
			want: "ret does not produce a value to assign to %x",
		},
		{
			name: "missing parenthesis",
			src:  "define half @f(half %a {\n}\n",
			want: "line 1:24: expected ')', found {",
		},
		{
			name: "malformed literal",
			src:  "define half @f() {\nentry:\n  ret half abc\n}\n",
			want: "malformed half literal \"abc\"",
		},
		{
			name: "unknown type",
			src:  "define quad @f() {\n}\n",
			want: "line 1:8: unknown type \"quad\"",
		},
		{
			name: "vector literal",
			src:  "define <2 x half> @f() {\nentry:\n  ret <2 x half> 1.0\n}\n",
			want: "literal 1.0 cannot be of type <2 x half>",
		},
		{
			name: "end of file",
			src:  "define half @f(half %a) {\nentry:\n  %x = fadd half %a,",
			want: "expected operand, found end of file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(lir.NewContext(), "bad", tt.src)
			if err == nil {
				t.Fatalf("expected error, got module:\n%s", m.String())
			}
			if m != nil {
				t.Errorf("expected <nil> module on error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}
