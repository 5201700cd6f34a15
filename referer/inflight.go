// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package referer

import (
	"context"
	"sync"
)

// inflight coalesces concurrent referer lookups for the same suffix, so that
// only the first caller queries IANA, while the others wait for its result
// instead of issuing their own duplicate queries.
type inflight struct {
	mu sync.Mutex
	m  map[string]*pendingLookup // suffix -> lookup in progress
}

// pendingLookup is a referer lookup in progress; done gets closed after
// candidates has been set.
type pendingLookup struct {
	done       chan struct{}
	candidates []string
}

func newInflight() *inflight {
	return &inflight{
		m: map[string]*pendingLookup{},
	}
}

// Do runs the lookup function for the specified suffix, unless another lookup
// for the same suffix is already in progress. In the latter case, Do waits
// for the other lookup to finish and returns its result. If the context gets
// done while waiting, Do returns nil.
func (f *inflight) Do(ctx context.Context, suffix string, lookup func() []string) []string {
	f.mu.Lock()
	if pl, ok := f.m[suffix]; ok {
		f.mu.Unlock()
		select {
		case <-pl.done:
			return pl.candidates
		case <-ctx.Done():
			return nil
		}
	}
	pl := &pendingLookup{done: make(chan struct{})}
	f.m[suffix] = pl
	f.mu.Unlock()

	// Make sure to always release waiting consumers, even if the lookup
	// panics.
	defer func() {
		f.mu.Lock()
		delete(f.m, suffix)
		f.mu.Unlock()
		close(pl.done)
	}()
	pl.candidates = lookup()
	return pl.candidates
}
