// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"sort"
	"sync"

	"github.com/siemens/reachdig/types"
)

// ResultMap maps subjects to their most recent test results. A typical use
// case for a ResultMap is to consume the results streamed from an
// Orchestrator's news channel, such as for displaying progress.
type ResultMap struct {
	m      map[string]types.TestResult
	counts map[types.Status]int
	mu     sync.Mutex
}

// NewResultMap returns a new and properly initialized ResultMap.
func NewResultMap() *ResultMap {
	return &ResultMap{
		m:      map[string]types.TestResult{},
		counts: map[types.Status]int{},
	}
}

// Update the map with a test result, superseding any earlier result of the
// same subject.
func (m *ResultMap) Update(res types.TestResult) {
	if res.Subject == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.m[res.Subject]; ok {
		m.counts[old.Status]--
	}
	m.m[res.Subject] = res
	m.counts[res.Status]++
}

// Get returns all results, ordered by subject.
func (m *ResultMap) Get() []types.TestResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	results := make([]types.TestResult, 0, len(m.m))
	for _, res := range m.m {
		results = append(results, res)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Subject < results[j].Subject })
	return results
}

// Len returns the number of subjects with results.
func (m *ResultMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}

// Count returns the number of subjects currently having the specified status.
func (m *ResultMap) Count(status types.Status) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[status]
}

// Track test results received from the specified news channel until the
// channel is closed or the context done. Track only returns after processing
// all results or when the context is done.
func (m *ResultMap) Track(ctx context.Context, news <-chan types.TestResult) error {
	for {
		select {
		case res, ok := <-news:
			if !ok {
				return nil
			}
			m.Update(res)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
