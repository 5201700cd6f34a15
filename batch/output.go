// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/siemens/reachdig/types"
)

// outputFiles appends tested subjects to per-status files in an output
// directory, such as “output/UP.txt”.
type outputFiles struct {
	dir string

	mu    sync.Mutex
	files map[types.Status]*outputFile
}

type outputFile struct {
	f *os.File
	w *bufio.Writer
}

func newOutputFiles(dir string) *outputFiles {
	return &outputFiles{
		dir:   dir,
		files: map[types.Status]*outputFile{},
	}
}

// Path returns the path of the output file for the specified status.
func (o *outputFiles) Path(status types.Status) string {
	return filepath.Join(o.dir, status.String()+".txt")
}

// Write appends the subject of a test result to the file of its status.
func (o *outputFiles) Write(res types.TestResult) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	of, ok := o.files[res.Status]
	if !ok {
		if err := os.MkdirAll(o.dir, 0o755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
		f, err := os.OpenFile(o.Path(res.Status), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("cannot open output file: %w", err)
		}
		of = &outputFile{f: f, w: bufio.NewWriter(f)}
		o.files[res.Status] = of
	}
	_, err := of.w.WriteString(res.Subject + "\n")
	return err
}

// Flush writes all buffered subjects to their files.
func (o *outputFiles) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, of := range o.files {
		if err := of.w.Flush(); err != nil {
			return fmt.Errorf("cannot write output file: %w", err)
		}
	}
	return nil
}

// Close flushes and closes all files.
func (o *outputFiles) Close() error {
	err := o.Flush()
	o.mu.Lock()
	defer o.mu.Unlock()
	for status, of := range o.files {
		if cerr := of.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		delete(o.files, status)
	}
	return err
}
