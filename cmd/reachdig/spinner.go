// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

// Yet another (braille) spinner.

package main

import (
	"sync"
	"time"
)

// spinner is yet another blindingly simple spinner that advances its phase
// based on the time passed since it was created; there's no background
// ticker to stop.
type spinner struct {
	phases   []string
	interval time.Duration
	start    time.Time
	mu       sync.Mutex
	now      func() time.Time
}

// newSpinner returns a new spinner advancing its phase every interval.
func newSpinner(interval time.Duration) *spinner {
	phases := []string{}
	for _, r := range "⠉⠘⠰⠤⠆⠃" {
		phases = append(phases, string(r)+" ")
	}
	return &spinner{
		phases:   phases,
		interval: interval,
		start:    time.Now(),
		now:      time.Now,
	}
}

// Spinner returns the spinner string for the current phase.
func (s *spinner) Spinner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interval <= 0 {
		return s.phases[0]
	}
	phase := int(s.now().Sub(s.start)/s.interval) % len(s.phases)
	return s.phases[phase]
}
