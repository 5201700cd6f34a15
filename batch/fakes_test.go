// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/status"
	"github.com/siemens/reachdig/types"
)

// fakeOracle hands out fake resolvers sharing the same canned verdicts and
// call log.
type fakeOracle struct {
	mu       sync.Mutex
	verdicts map[string]types.TestResult // by display name; default DOWN/DNS.
	faulty   map[string]bool
	delays   map[string]time.Duration
	calls    []string
	caches   []status.ExpirationCache
	made     int
	failAt   int // fails creating the n-th resolver (1-based) when non-zero.
	closed   int
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		verdicts: map[string]types.TestResult{},
		faulty:   map[string]bool{},
		delays:   map[string]time.Duration{},
	}
}

func (f *fakeOracle) factory(cfg config.Config, cache status.ExpirationCache) (Resolver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made++
	if f.made == f.failAt {
		return nil, errors.New("no more resolvers")
	}
	f.caches = append(f.caches, cache)
	return &fakeResolver{oracle: f}, nil
}

func (f *fakeOracle) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeOracle) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeResolver struct {
	oracle *fakeOracle
}

func (r *fakeResolver) Resolve(ctx context.Context, subject types.Subject) types.TestResult {
	name := subject.Display()
	f := r.oracle
	f.mu.Lock()
	f.calls = append(f.calls, name)
	res, ok := f.verdicts[name]
	faulty := f.faulty[name]
	delay := f.delays[name]
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}
	if faulty {
		panic("resolver blew up on " + name)
	}
	if !ok {
		res = types.TestResult{Status: types.Down, Source: types.DNS}
	}
	res.Subject = name
	res.IDNASubject = subject.Name
	res.TestedAt = time.Now()
	return res
}

func (r *fakeResolver) Close() error {
	r.oracle.mu.Lock()
	defer r.oracle.mu.Unlock()
	r.oracle.closed++
	return nil
}

// hookRecorder records the checkpoint hooks run.
type hookRecorder struct {
	mu       sync.Mutex
	commands []string
}

func (h *hookRecorder) run(ctx context.Context, command, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.commands = append(h.commands, command)
	return nil
}

func (h *hookRecorder) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.commands...)
}
