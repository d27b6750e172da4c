package llvm

import (
	"hdemote/src/pass"
	"hdemote/src/pass/demote"
	"hdemote/src/util"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/go-llvm"
)

const halfSrc = `define half @f(half %a, half %b) {
entry:
  %r = fadd half %a, %b
  %s = fmul half %r, 0xH3C00
  ret half %s
}

define float @g(float %a, float %b) {
entry:
  %r = fsub float %a, %b
  ret float %r
}

define <2 x half> @v(<2 x half> %a, <2 x half> %b) {
entry:
  %r = fdiv <2 x half> %a, %b
  ret <2 x half> %r
}

declare half @h(half)
`

// helperFile writes src to a file in a temporary directory and returns its path.
func helperFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.ll")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDemoteFloat16(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	buf, err := llvm.NewMemoryBufferFromFile(helperFile(t, halfSrc))
	if err != nil {
		t.Fatal(err)
	}
	m, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("failed to parse module: %s", err)
	}
	defer m.Dispose()

	s := DemoteFloat16(m)
	if diff := cmp.Diff(demote.Summary{Demoted: 2, Extended: 4, Truncated: 2}, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
		t.Errorf("module invalid after transformation: %s", err)
	}

	out := m.String()
	for _, e1 := range []string{
		"%a.ext = fpext half %a to float",
		"%b.ext = fpext half %b to float",
		"%r.wide = fadd float %a.ext, %b.ext",
		"%r.trunc = fptrunc float %r.wide to half",
		"%r.trunc.ext = fpext half %r.trunc to float",
		"%s.trunc = fptrunc float %s.wide to half",
		"ret half %s.trunc",
		"%r = fsub float %a, %b",
		"%r = fdiv <2 x half> %a, %b",
	} {
		if !strings.Contains(out, e1) {
			t.Errorf("expected module to contain %q, got:\n%s", e1, out)
		}
	}

	// A second run finds nothing left to do.
	if s := DemoteFloat16(m); s.Changed() {
		t.Errorf("expected second run to change nothing, got %+v", s)
	}
}

func TestProcess(t *testing.T) {
	t.Cleanup(func() { util.Setup("info", "console") })
	util.SetupWriter(&strings.Builder{}, "info", "json")

	out := filepath.Join(t.TempDir(), "out.ll")
	st := pass.NewStats()
	opt := util.Options{Src: helperFile(t, halfSrc), Out: out, Verify: true}
	if err := Process(opt, st, io.Discard); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "%r.wide = fadd float %a.ext, %b.ext") {
		t.Errorf("expected demoted output, got:\n%s", string(b))
	}

	dump := strings.Builder{}
	if err := st.Dump(&dump); err != nil {
		t.Fatal(err)
	}
	for _, e1 := range []string{
		"hdemote_instructions_demoted_total 2",
		`hdemote_functions_changed_total{pass="DemoteFloat16"} 1`,
	} {
		if !strings.Contains(dump.String(), e1) {
			t.Errorf("expected statistics to contain %q, got:\n%s", e1, dump.String())
		}
	}
}

func TestProcessErrors(t *testing.T) {
	if err := Process(util.Options{}, nil, io.Discard); err == nil {
		t.Error("expected error without source file")
	}
	if err := Process(util.Options{Src: filepath.Join(t.TempDir(), "nope.ll")}, nil, io.Discard); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Process(util.Options{Src: helperFile(t, "define half @f( {\n")}, nil, io.Discard); err == nil ||
		!strings.Contains(err.Error(), "could not parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

const debugSrc = `define half @m(half %a, half %b) !dbg !3 {
entry:
  %r = fadd half %a, %b, !fpmath !6, !dbg !7
  ret half %r, !dbg !7
}

!llvm.dbg.cu = !{!0}
!llvm.module.flags = !{!2}

!0 = distinct !DICompileUnit(language: DW_LANG_C99, file: !1, producer: "hdemote", isOptimized: false, runtimeVersion: 0, emissionKind: FullDebug)
!1 = !DIFile(filename: "m.c", directory: "/tmp")
!2 = !{i32 2, !"Debug Info Version", i32 3}
!3 = distinct !DISubprogram(name: "m", scope: !1, file: !1, line: 1, type: !4, scopeLine: 1, spFlags: DISPFlagDefinition, unit: !0)
!4 = !DISubroutineType(types: !5)
!5 = !{null}
!6 = !{float 2.5}
!7 = !DILocation(line: 2, column: 3, scope: !3)
`

// TestDemoteFloat16Metadata checks that the replacement and the narrowing conversion keep the debug location and
// the other metadata attachments of the original.
func TestDemoteFloat16Metadata(t *testing.T) {
	ctx := llvm.NewContext()
	defer ctx.Dispose()
	buf, err := llvm.NewMemoryBufferFromFile(helperFile(t, debugSrc))
	if err != nil {
		t.Fatal(err)
	}
	m, err := ctx.ParseIR(buf)
	if err != nil {
		t.Fatalf("failed to parse module: %s", err)
	}
	defer m.Dispose()

	if s := DemoteFloat16(m); s.Demoted != 1 {
		t.Fatalf("expected 1 demoted instruction, got %+v", s)
	}
	if err := llvm.VerifyModule(m, llvm.ReturnStatusAction); err != nil {
		t.Errorf("module invalid after transformation: %s", err)
	}

	fpmath := ctx.MDKindID("fpmath")
	found := map[string]bool{}
	fun := m.NamedFunction("m")
	for bb := fun.FirstBasicBlock(); !bb.IsNil(); bb = llvm.NextBasicBlock(bb) {
		for inst := bb.FirstInstruction(); !inst.IsNil(); inst = llvm.NextInstruction(inst) {
			name := inst.Name()
			if name != "r.wide" && name != "r.trunc" {
				continue
			}
			found[name] = true
			if inst.Metadata(fpmath).IsNil() {
				t.Errorf("expected !fpmath on %%%s", name)
			}
			if inst.InstructionDebugLoc().C == nil {
				t.Errorf("expected !dbg on %%%s", name)
			}
		}
	}
	if !found["r.wide"] || !found["r.trunc"] {
		t.Errorf("expected %%r.wide and %%r.trunc, got:\n%s", m.String())
	}
}
