package util

import (
	"errors"
	"sync"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// perror listens for errors reported by worker goroutines and keeps them until the parallel job has completed.
type perror struct {
	listen     chan error    // Channel for receiving errors from worker goroutines.
	stop       chan struct{} // Closing stop makes the listener return.
	done       chan struct{} // Closed by the listener when it has returned.
	errors     []error       // Buffer of received errors.
	sync.Mutex               // For synchronising writes and reads.
}

// ----------------------
// ----- Constants ------
// ----------------------

// defaultBufferSize defines the fallback buffer size of the error array.
const defaultBufferSize = 16

// -------------------
// ----- globals -----
// -------------------

// ---------------------
// ----- functions -----
// ---------------------

// NewPerror starts an error listener with n pre-allocated slots for errors in the buffer.
func NewPerror(n int) *perror {
	if n < 1 {
		n = defaultBufferSize
	}
	pe := perror{
		listen: make(chan error),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
		errors: make([]error, 0, n),
	}
	go pe.run()
	return &pe
}

// run receives errors on the listen channel until Stop is called.
func (pe *perror) run() {
	defer close(pe.done)
	for {
		select {
		case err := <-pe.listen:
			pe.Lock()
			pe.errors = append(pe.errors, err)
			pe.Unlock()
		case <-pe.stop:
			return
		}
	}
}

// Append sends err to the error listener. <nil> errors are ignored. Append must not be called after Stop.
func (pe *perror) Append(err error) {
	if err != nil {
		pe.listen <- err
	}
}

// Len returns the number of buffered errors. Errors still in flight are only counted after Stop.
func (pe *perror) Len() int {
	pe.Lock()
	defer pe.Unlock()
	return len(pe.errors)
}

// Errors returns a copy of the buffered errors, in order of arrival.
func (pe *perror) Errors() []error {
	pe.Lock()
	defer pe.Unlock()
	res := make([]error, len(pe.errors))
	copy(res, pe.errors)
	return res
}

// Err returns the buffered errors joined into one error, or <nil> if no error was reported.
func (pe *perror) Err() error {
	return errors.Join(pe.Errors()...)
}

// Stop stops the error listener and waits for it to return. Buffered errors remain readable.
func (pe *perror) Stop() {
	close(pe.stop)
	<-pe.done
}
