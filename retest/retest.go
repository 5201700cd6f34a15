// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package retest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/siemens/reachdig/store"
	"github.com/siemens/reachdig/types"
)

// Cache is the retest cache of a single source file. Caches are safe for
// concurrent use.
type Cache struct {
	store     store.InactiveStore
	file      string
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	mu      sync.Mutex
	entries map[string]store.InactiveRecord  // subject -> current entry
	changed map[string]*store.InactiveRecord // subject -> pending change, nil for removals
}

// CacheOption can be passed to Load when loading a Cache.
type CacheOption func(*Cache)

// WithInterval sets the minimum age of an entry before it is due for retest;
// defaults to 24h.
func WithInterval(interval time.Duration) CacheOption {
	return func(c *Cache) {
		c.interval = interval
	}
}

// WithRetention sets the age after which entries get purged; defaults to 28
// days.
func WithRetention(retention time.Duration) CacheOption {
	return func(c *Cache) {
		c.retention = retention
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// Load returns the retest [Cache] for the specified source file, loaded from
// the specified inactive dataset.
func Load(ctx context.Context, st store.InactiveStore, file string, options ...CacheOption) (*Cache, error) {
	c := &Cache{
		store:     st,
		file:      file,
		interval:  24 * time.Hour,
		retention: 28 * 24 * time.Hour,
		now:       time.Now,
		entries:   map[string]store.InactiveRecord{},
		changed:   map[string]*store.InactiveRecord{},
	}
	for _, opt := range options {
		opt(c)
	}
	recs, err := st.All(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("cannot load retest cache of %s: %w", file, err)
	}
	for _, rec := range recs {
		c.entries[rec.Subject] = rec
	}
	return c, nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ShouldSkip returns true if the subject needs to be skipped in a regular
// pass over its source file: it then is either not yet due or will be tested
// in the retest pass.
func (c *Cache) ShouldSkip(subject string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[subject]
	return ok
}

// Record records the result of a test. Subjects testing UP are removed,
// otherwise they are either added or refreshed.
func (c *Cache) Record(res types.TestResult) {
	if res.Status.IsSettled() {
		c.Remove(res.Subject)
		return
	}
	testedAt := res.TestedAt
	if testedAt.IsZero() {
		testedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[res.Subject]
	if !ok {
		rec = store.InactiveRecord{
			File:       c.file,
			Subject:    res.Subject,
			IncludedAt: testedAt,
		}
	}
	rec.IDNASubject = res.IDNASubject
	rec.Status = res.Status
	rec.StatusSource = res.Source
	rec.LastRetestedAt = testedAt
	c.entries[res.Subject] = rec
	c.changed[res.Subject] = &rec
}

// Remove removes the subject, if present.
func (c *Cache) Remove(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[subject]; !ok {
		return
	}
	delete(c.entries, subject)
	c.changed[subject] = nil
}

// DueForRetest returns the subjects due for retest, in lexical order.
func (c *Cache) DueForRetest() []string {
	now := c.now()
	return c.filter(func(rec store.InactiveRecord) bool {
		return now.Sub(rec.LastRetestedAt) >= c.interval
	})
}

// DueForCleanup returns the subjects older than the retention period, in
// lexical order.
func (c *Cache) DueForCleanup() []string {
	return c.agedOut(c.now())
}

func (c *Cache) agedOut(now time.Time) []string {
	return c.filter(func(rec store.InactiveRecord) bool {
		return now.Sub(rec.IncludedAt) >= c.retention
	})
}

// Cleanup removes all subjects older than the retention period at the
// specified point in time and returns their number.
func (c *Cache) Cleanup(now time.Time) int {
	subjects := c.agedOut(now)
	for _, subject := range subjects {
		c.Remove(subject)
	}
	return len(subjects)
}

func (c *Cache) filter(pred func(store.InactiveRecord) bool) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var subjects []string
	for subject, rec := range c.entries {
		if pred(rec) {
			subjects = append(subjects, subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// Flush writes all pending changes to the inactive dataset. Changes that
// couldn't be written stay pending.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for subject, rec := range c.changed {
		var err error
		if rec == nil {
			err = c.store.Remove(ctx, c.file, subject)
		} else {
			err = c.store.Update(ctx, *rec)
		}
		if err != nil {
			return fmt.Errorf("cannot flush retest cache of %s: %w", c.file, err)
		}
		delete(c.changed, subject)
	}
	return nil
}
