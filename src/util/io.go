package util

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// ---------------------
// ----- Constants -----
// ---------------------

// stdinTimeout is how long ReadSource waits for input on stdin.
const stdinTimeout = 500 * time.Millisecond

// ---------------------
// ----- Functions -----
// ---------------------

// ReadSource reads source code from file or stdin.
// If the Options structure holds a string for source the file will be opened and read.
// Else the function waits for a short period for input on stdin. If no input on stdin is
// provided the function returns an error.
func ReadSource(opt Options) (string, error) {
	if len(opt.Src) > 0 {
		// Read from file.
		b, err := os.ReadFile(opt.Src)
		return string(b), err
	}
	return readTimeout(os.Stdin, stdinTimeout)
}

// readTimeout reads r to the end, giving up if nothing has been read within d.
func readTimeout(r io.Reader, d time.Duration) (string, error) {
	type result struct {
		s   string
		err error
	}
	// Buffered, so the reader can always deliver and return once we have given up.
	c := make(chan result, 1)

	// Concurrently wait for input.
	go func() {
		b, err := io.ReadAll(r)
		c <- result{s: string(b), err: err}
	}()

	// Select between input or timer expiry.
	select {
	case <-time.After(d):
		return "", errors.New("expected input from stdin, got none")
	case res := <-c:
		if res.err != nil {
			return "", fmt.Errorf("could not read stdin: %w", res.err)
		}
		return res.s, nil
	}
}

// WriteOutput writes s to the output file of opt, or to w if no output file is given.
func WriteOutput(opt Options, w io.Writer, s string) error {
	if len(opt.Out) > 0 {
		if err := os.WriteFile(opt.Out, []byte(s), 0644); err != nil {
			return fmt.Errorf("could not write output file: %w", err)
		}
		return nil
	}
	_, err := io.WriteString(w, s)
	return err
}
