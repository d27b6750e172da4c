package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hdemote/src/frontend"
	"hdemote/src/ir/lir"
	"hdemote/src/pass"
	"hdemote/src/pass/demote"

	"github.com/google/go-cmp/cmp"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// evalCase is one "; eval <function> <args> = <result>" line of a test program.
type evalCase struct {
	fn   string
	args string
	want string
}

// ---------------------
// ----- Constants -----
// ---------------------

// p defines the maximum number of parallel threads to pass to the driver.
const p = 4

// ---------------------
// ----- Functions -----
// ---------------------

// helperPrograms returns the paths of all test programs.
func helperPrograms(t testing.TB) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "*.lir"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test programs found")
	}
	return files
}

// helperEvalCases returns the eval lines of the program at path.
func helperEvalCases(t *testing.T, path string) []evalCase {
	t.Helper()
	fd, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fd.Close()
	res := make([]evalCase, 0, 4)
	sc := bufio.NewScanner(fd)
	for sc.Scan() {
		line := strings.TrimPrefix(sc.Text(), "; eval ")
		if line == sc.Text() {
			continue
		}
		var c evalCase
		lhs, rhs, ok := strings.Cut(line, " = ")
		if !ok {
			t.Fatalf("%s: malformed eval line %q", path, sc.Text())
		}
		c.fn, c.args, _ = strings.Cut(lhs, " ")
		c.want = rhs
		res = append(res, c)
	}
	if err := sc.Err(); err != nil {
		t.Fatal(err)
	}
	return res
}

// helperRun runs the driver and returns its exit code, stdout and stderr.
func helperRun(args ...string) (int, string, string) {
	stdout := bytes.Buffer{}
	stderr := bytes.Buffer{}
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestPrograms runs every test program through the default pipeline, sequentially and in parallel, checks the
// evaluated results and checks that no half precision arithmetic is left in the output.
func TestPrograms(t *testing.T) {
	for _, e1 := range helperPrograms(t) {
		for _, e2 := range helperEvalCases(t, e1) {
			for _, e3 := range []string{"1", "4"} {
				name := strings.Join([]string{filepath.Base(e1), e2.fn, e2.args, "t" + e3}, "/")
				t.Run(name, func(t *testing.T) {
					out := filepath.Join(t.TempDir(), "out.lir")
					code, stdout, stderr := helperRun("-verify", "-t", e3, "-fn", e2.fn, "-eval", e2.args,
						"-o", out, e1)
					if code != 0 {
						t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
					}
					if got := strings.TrimSpace(stdout); got != e2.want {
						t.Errorf("expected %s, got %s", e2.want, got)
					}
					helperCheckDemoted(t, out)
				})
			}
		}
	}
}

// helperCheckDemoted parses the module at path and fails the test if any half precision arithmetic remains.
func helperCheckDemoted(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := lir.NewContext()
	m, err := frontend.Parse(ctx, filepath.Base(path), string(b))
	if err != nil {
		t.Fatalf("could not parse output: %s\n%s", err, string(b))
	}
	for _, e1 := range m.Functions() {
		for _, e2 := range e1.Blocks() {
			for _, e3 := range e2.Instructions() {
				if !e3.Opcode().IsFloatBinary() {
					continue
				}
				for i1 := 0; i1 < e3.NumOperands(); i1++ {
					if e3.Operand(i1).Type() == ctx.HalfType() {
						t.Errorf("half precision operand left in %s", e3.String())
					}
				}
			}
		}
	}
}

// TestRunOutputFile checks the module written to the output file.
func TestRunOutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.lir")
	code, _, stderr := helperRun("-o", out, "-p", demote.Name, filepath.Join("testdata", "axpy.lir"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, e1 := range []string{"%m.wide = fmul float %a.ext, %x.ext", "ret half %r.trunc"} {
		if !strings.Contains(string(b), e1) {
			t.Errorf("expected output to contain %q, got:\n%s", e1, string(b))
		}
	}
}

// TestRunStdout checks that the module goes to stdout without an output file, and that -eval replaces it.
func TestRunStdout(t *testing.T) {
	axpy := filepath.Join("testdata", "axpy.lir")
	code, stdout, stderr := helperRun(axpy)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "; module axpy.lir") || !strings.Contains(stdout, "ret half %r.trunc") {
		t.Errorf("expected the demoted module on stdout, got:\n%s", stdout)
	}

	code, stdout, stderr = helperRun("-fn", "axpy", "-eval", "2,1.5,0.25", axpy)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if stdout != "3.25\n" {
		t.Errorf("expected only the result on stdout, got %q", stdout)
	}
}

func TestRunFlags(t *testing.T) {
	code, stdout, _ := helperRun("-h")
	if code != 0 || !strings.HasPrefix(stdout, "Usage: hdemote") {
		t.Errorf("unexpected help output (%d):\n%s", code, stdout)
	}
	code, stdout, _ = helperRun("-v")
	if code != 0 || stdout != "hdemote 1.0\n" {
		t.Errorf("unexpected version output (%d): %q", code, stdout)
	}
	code, stdout, _ = helperRun("-list")
	if diff := cmp.Diff("DemoteFloat16  Demote Float16 operations to Float32 equivalents.\n", stdout); code != 0 ||
		diff != "" {
		t.Errorf("unexpected pass list (%d) (-want +got):\n%s", code, diff)
	}
}

func TestRunTokenStream(t *testing.T) {
	code, stdout, stderr := helperRun("-ts", filepath.Join("testdata", "axpy.lir"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Value") || !strings.Contains(stdout, `"define"`) {
		t.Errorf("unexpected token stream:\n%s", stdout)
	}
}

func TestRunStats(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.lir")
	code, _, stderr := helperRun("-stats", "-log", "json", "-o", out, filepath.Join("testdata", "mixed.lir"))
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	// mix, overflow and quot hold one candidate each. mix has one half operand and a float result.
	for _, e1 := range []string{
		`hdemote_conversions_inserted_total{kind="fpext"} 5`,
		`hdemote_conversions_inserted_total{kind="fptrunc"} 2`,
		`hdemote_functions_changed_total{pass="DemoteFloat16"} 3`,
		"hdemote_instructions_demoted_total 3",
		`"message":"pass finished"`,
	} {
		if !strings.Contains(stderr, e1) {
			t.Errorf("expected stderr to contain %q, got:\n%s", e1, stderr)
		}
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.lir")
	if err := os.WriteFile(bad, []byte("define half @f(half %a) {\nentry:\n  %r = fadd half %a, %q\n  ret half %r\n}\n"),
		0644); err != nil {
		t.Fatal(err)
	}
	axpy := filepath.Join("testdata", "axpy.lir")
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "args", args: []string{"-t", "0", axpy}, want: "Command line argument error"},
		{name: "missing", args: []string{filepath.Join(dir, "nope.lir")}, want: "Could not read source code"},
		{name: "parse", args: []string{bad}, want: "Parse error: line 3"},
		{name: "pipeline", args: []string{"-p", "nope", axpy}, want: `Pipeline error: unknown pass "nope"`},
		{name: "function", args: []string{"-eval", "1", "-fn", "nope", axpy}, want: "no function @nope"},
		{name: "arity", args: []string{"-eval", "1", "-fn", "axpy", axpy}, want: "takes 3 arguments, got 1"},
		{name: "declaration", args: []string{"-eval", "1", "-fn", "ext", filepath.Join("testdata", "mixed.lir")},
			want: "has no body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := helperRun(tt.args...)
			if code != 1 {
				t.Errorf("expected exit code 1, got %d", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("expected stderr to contain %q, got:\n%s", tt.want, stderr)
			}
		})
	}
}

// BenchmarkPipeline benchmarks parsing and demoting all test programs.
func BenchmarkPipeline(b *testing.B) {
	files := helperPrograms(b)
	src := make([]string, len(files))
	for i1, e1 := range files {
		buf, err := os.ReadFile(e1)
		if err != nil {
			b.Fatal(err)
		}
		src[i1] = string(buf)
	}
	r := pass.NewRegistry()
	if err := demote.Register(r); err != nil {
		b.Fatal(err)
	}
	pm, err := pass.NewManager(r, []string{demote.Name}, pass.Config{Threads: p})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i1 := 0; i1 < b.N; i1++ {
		for i2, e2 := range src {
			m, err := frontend.Parse(lir.NewContext(), files[i2], e2)
			if err != nil {
				b.Fatal(err)
			}
			if _, err := pm.Run(m); err != nil {
				b.Fatal(err)
			}
		}
	}
}
