// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import "fmt"

// WorkerFault is a panic captured inside a worker while testing a subject.
type WorkerFault struct {
	Subject string // subject under test when the worker panicked.
	Value   any    // value passed to panic.
	Stack   []byte // stack trace of the panicking worker.
}

// Error returns the error message of a WorkerFault, without stack trace.
func (f *WorkerFault) Error() string {
	return fmt.Sprintf("worker fault while testing %q: %v", f.Subject, f.Value)
}

// Unwrap returns the panic value, if it is an error.
func (f *WorkerFault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}
