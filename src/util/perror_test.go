package util

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestPerror(t *testing.T) {
	pe := NewPerror(0)
	wg := sync.WaitGroup{}
	for i1 := 0; i1 < 8; i1++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pe.Append(fmt.Errorf("worker %d failed", n))
			pe.Append(nil)
		}(i1)
	}
	wg.Wait()
	pe.Stop()

	if pe.Len() != 8 {
		t.Fatalf("expected 8 errors, got %d", pe.Len())
	}
	err := pe.Err()
	for i1 := 0; i1 < 8; i1++ {
		if want := fmt.Sprintf("worker %d failed", i1); !strings.Contains(err.Error(), want) {
			t.Errorf("expected joined error to contain %q", want)
		}
	}

	// Errors returns a copy.
	errs := pe.Errors()
	errs[0] = nil
	if pe.Errors()[0] == nil {
		t.Error("expected Errors to return a copy of the buffer")
	}
}

func TestPerrorEmpty(t *testing.T) {
	pe := NewPerror(4)
	pe.Stop()
	if err := pe.Err(); err != nil {
		t.Errorf("expected <nil>, got %v", err)
	}
}

func TestPerrorIs(t *testing.T) {
	target := errors.New("target")
	pe := NewPerror(2)
	pe.Append(fmt.Errorf("wrapped: %w", target))
	pe.Stop()
	if !errors.Is(pe.Err(), target) {
		t.Error("expected joined error to wrap target")
	}
}
