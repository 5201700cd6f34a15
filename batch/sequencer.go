// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import "github.com/siemens/reachdig/types"

// sequencer puts out-of-order completions of list positions back into list
// order, so that continuation counters, retest entries and output files always
// describe a gap-free prefix of the list.
type sequencer struct {
	next    int
	pending map[int]completion
	advance func(c completion)
}

// completion of a list position. Positions skipped without a test have no
// result.
type completion struct {
	subject string
	status  types.Status
	result  *types.TestResult
}

func newSequencer(start int, advance func(c completion)) *sequencer {
	return &sequencer{
		next:    start,
		pending: map[int]completion{},
		advance: advance,
	}
}

// done marks the specified list position as completed, advancing all
// positions that are now in order.
func (s *sequencer) done(index int, c completion) {
	if index < s.next {
		return
	}
	s.pending[index] = c
	for {
		c, ok := s.pending[s.next]
		if !ok {
			return
		}
		delete(s.pending, s.next)
		s.advance(c)
		s.next++
	}
}

// Next returns the next list position waiting for completion.
func (s *sequencer) Next() int {
	return s.next
}

// Pending returns the number of completions waiting for earlier positions.
func (s *sequencer) Pending() int {
	return len(s.pending)
}
