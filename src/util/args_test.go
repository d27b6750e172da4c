package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseArgs(t *testing.T) {
	def := func(f func(o *Options)) Options {
		o := Options{Threads: 1, LogFormat: "console", Function: DefaultFunction}
		f(&o)
		return o
	}
	tests := []struct {
		name string
		args []string
		want Options
	}{
		{name: "empty", args: nil, want: def(func(o *Options) {})},
		{name: "source", args: []string{"in.lir"}, want: def(func(o *Options) { o.Src = "in.lir" })},
		{
			name: "all",
			args: []string{"-o", "out.lir", "-t", "8", "-p", "count, DemoteFloat16", "-verify", "-stats", "-vb",
				"-log", "json", "-eval", "-1.5,2", "-fn", "@f", "in.lir"},
			want: def(func(o *Options) {
				o.Src = "in.lir"
				o.Out = "out.lir"
				o.Threads = 8
				o.Passes = []string{"count", "DemoteFloat16"}
				o.Verify = true
				o.Stats = true
				o.Verbose = true
				o.LogFormat = "json"
				o.Eval = true
				o.EvalArgs = []float64{-1.5, 2}
				o.Function = "f"
			}),
		},
		{name: "llvm", args: []string{"-ll", "in.ll"}, want: def(func(o *Options) { o.LLVM = true; o.Src = "in.ll" })},
		{name: "eval no args", args: []string{"-eval", ""}, want: def(func(o *Options) {
			o.Eval = true
			o.EvalArgs = []float64{}
		})},
		{name: "flags", args: []string{"-h", "-version", "-list", "-ts"}, want: def(func(o *Options) {
			o.Help = true
			o.Version = true
			o.List = true
			o.TokenStream = true
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"-t"}, want: "got flag -t but no argument"},
		{args: []string{"-t", "0"}, want: "thread count must be integer in range [1, 64]"},
		{args: []string{"-t", "65"}, want: "thread count must be integer in range [1, 64]"},
		{args: []string{"-t", "x"}, want: "expected integer thread count, got: x"},
		{args: []string{"-o", "-vb"}, want: "expected argument to -o, got new flag -vb"},
		{args: []string{"-p", " , "}, want: "empty pass pipeline"},
		{args: []string{"-log", "xml"}, want: "unexpected log format: xml"},
		{args: []string{"-eval", "1,x"}, want: "expected comma separated numbers, got: 1,x"},
		{args: []string{"-eval"}, want: "got flag -eval but no argument"},
		{args: []string{"-q"}, want: "unexpected flag: -q"},
		{args: []string{"a.lir", "b.lir"}, want: "more than one source file: a.lir and b.lir"},
		{args: []string{"-ll", "-ts", "a.ll"}, want: "-ts cannot be combined with -ll"},
		{args: []string{"-ll", "-eval", "1", "a.ll"}, want: "-eval cannot be combined with -ll"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			_, err := ParseArgs(tt.args)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestPrintHelp(t *testing.T) {
	buf := bytes.Buffer{}
	PrintHelp(&buf)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Usage: hdemote [flags] [source]" {
		t.Errorf("unexpected usage line %q", lines[0])
	}
	// Descriptions are aligned in one column.
	col := strings.Index(lines[1], "Prints")
	for _, e1 := range lines[2:] {
		if idx := strings.IndexFunc(e1[col:], func(r rune) bool { return r != ' ' }); idx != 0 || e1[col-1] != ' ' {
			t.Errorf("misaligned help line %q", e1)
		}
	}
}
