package types

import "testing"

// TestPredicates checks that every predicate prints to a name that looks up the same predicate.
func TestPredicates(t *testing.T) {
	floats := 0
	for p := PredFalse; p <= SLE; p++ {
		name := p.String()
		got, ok := LookupPredicate(name, p.IsFloat())
		if !ok || got != p {
			t.Errorf("predicate %d printed as %q looks up %d, %v", uint(p), name, uint(got), ok)
		}
		if p.IsFloat() {
			floats++
		}
	}
	if floats != 16 {
		t.Errorf("expected 16 floating point predicates, got %d", floats)
	}
}

func TestLookupPredicate(t *testing.T) {
	tests := []struct {
		name  string
		float bool
		want  Predicate
		ok    bool
	}{
		{name: "ult", float: true, want: ULT, ok: true},
		{name: "ult", float: false, want: IULT, ok: true},
		{name: "uge", float: true, want: UGE, ok: true},
		{name: "uge", float: false, want: IUGE, ok: true},
		{name: "oeq", float: true, want: OEQ, ok: true},
		{name: "oeq", float: false},
		{name: "slt", float: true},
		{name: "eq", float: false, want: EQ, ok: true},
		{name: "nope", float: true},
	}
	for _, tt := range tests {
		got, ok := LookupPredicate(tt.name, tt.float)
		if ok != tt.ok || got != tt.want {
			t.Errorf("LookupPredicate(%q, %v) = %s, %v; expected %s, %v", tt.name, tt.float, got.String(), ok,
				tt.want.String(), tt.ok)
		}
	}
}

// TestStringRange checks that out of range enumeration values print instead of panicking.
func TestStringRange(t *testing.T) {
	if got := (SLE + 1).String(); got != "predicate(26)" {
		t.Errorf("unexpected predicate string %q", got)
	}
	if got := Opcode(1000).String(); got != "opcode(1000)" {
		t.Errorf("unexpected opcode string %q", got)
	}
	if got := Kind(1000).String(); got != "kind(1000)" {
		t.Errorf("unexpected kind string %q", got)
	}
}
