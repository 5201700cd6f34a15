// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/checkpoint"
	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/expiration"
	"github.com/siemens/reachdig/retest"
	"github.com/siemens/reachdig/store"
	"github.com/siemens/reachdig/syntax"
	"github.com/siemens/reachdig/types"
	"golang.org/x/net/publicsuffix"
)

// run is the state of a single Run or RunSubjects call.
type run struct {
	o      *Orchestrator
	file   string
	retest *retest.Cache // nil when not testing a source file.
	pool   *pool
	seq    *sequencer

	seen        map[string]struct{} // display names of all subjects queued so far.
	complements []types.Subject
	mined       []types.Subject
	commitErr   error // first error committing an in-order result.
}

// newRun sets up a run, loading the retest cache of the specified source file
// (if any) and the expiration cache, and creating the resolvers of all
// workers.
func (o *Orchestrator) newRun(ctx context.Context, file string) (*run, error) {
	now := o.now()
	r := &run{
		o:    o,
		file: file,
		seen: map[string]struct{}{},
	}
	if file != "" {
		rc, err := retest.Load(ctx, o.stores.Inactive, file,
			retest.WithInterval(o.cfg.RetestInterval),
			retest.WithRetention(o.cfg.Retention),
			retest.WithClock(o.now))
		if err != nil {
			return nil, err
		}
		if purged := rc.Cleanup(now); purged > 0 {
			o.log.Info().Str("file", file).Int("count", purged).Msg("purged aged inactive subjects")
		}
		r.retest = rc
	}
	cache, removed, err := loadExpirations(ctx, o.stores.Whois, now)
	if err != nil {
		return nil, fmt.Errorf("cannot load whois dataset: %w", err)
	}
	if removed > 0 {
		o.log.Debug().Int("count", removed).Msg("removed expired whois records")
	}
	resolvers := make(chan Resolver, o.cfg.Workers)
	for i := 0; i < o.cfg.Workers; i++ {
		res, err := o.factory(o.cfg.Clone(), cache)
		if err != nil {
			closeResolvers(resolvers, o.log)
			return nil, fmt.Errorf("cannot create worker resolver: %w", err)
		}
		resolvers <- res
	}
	r.pool = newPool(resolvers, o.cfg.Cooldown)
	r.seq = newSequencer(0, r.advance)
	o.current = r
	return r, nil
}

// runFile tests the subjects of a source file, resuming from where a previous
// run left off when auto-continuation is enabled.
func (r *run) runFile(ctx context.Context, subjects []types.Subject) error {
	o := r.o
	names := make([]string, len(subjects))
	for idx, s := range subjects {
		names[idx] = s.Display()
	}
	start := 0
	if o.cfg.AutoContinue {
		start = o.cont.Position(r.file, names)
		r.seq = newSequencer(start, r.advance)
		if start > 0 {
			o.log.Info().Str("file", r.file).Int("position", start).Msg("resuming")
		}
	}
	jobs := make([]job, 0, len(subjects)-start)
	for idx := start; idx < len(subjects); idx++ {
		s := subjects[idx]
		r.seen[names[idx]] = struct{}{}
		if r.skip(s) {
			r.seq.done(idx, completion{subject: names[idx]})
			continue
		}
		jobs = append(jobs, job{index: idx, subject: s})
	}
	// Subjects before the resume position still count as seen, so that
	// complements and mined subjects don't duplicate them.
	for idx := 0; idx < start; idx++ {
		r.seen[names[idx]] = struct{}{}
	}
	return r.passes(ctx, jobs)
}

// skip returns true for subjects that must not be tested in a regular pass.
func (r *run) skip(s types.Subject) bool {
	name := s.Display()
	if r.retest != nil && r.retest.ShouldSkip(name) {
		return true
	}
	for _, re := range r.o.ignore {
		if re.MatchString(name) || re.MatchString(s.Name) {
			return true
		}
	}
	return r.o.cfg.SkipReservedIPs && s.Kind == types.IP && syntax.IsReservedIP(s.Name)
}

// passes runs the regular pass over the specified jobs, followed by the
// retest, complements, and mining passes.
func (r *run) passes(ctx context.Context, jobs []job) error {
	if err := r.pass(ctx, "regular", jobs, true); err != nil {
		return err
	}
	if r.retest != nil {
		var due []job
		for _, name := range r.retest.DueForRetest() {
			if s, ok := r.normalize(name); ok {
				due = append(due, job{index: -1, subject: s})
			}
		}
		if err := r.pass(ctx, "retest", due, true); err != nil {
			return err
		}
	}
	if err := r.pass(ctx, "complements", r.queued(&r.complements), false); err != nil {
		return err
	}
	// Mined subjects may in turn yield further subjects.
	for len(r.mined) > 0 {
		if err := r.pass(ctx, "mining", r.queued(&r.mined), false); err != nil {
			return err
		}
	}
	return nil
}

// queued drains the specified queue into jobs.
func (r *run) queued(queue *[]types.Subject) []job {
	jobs := make([]job, 0, len(*queue))
	for _, s := range *queue {
		jobs = append(jobs, job{index: -1, subject: s})
	}
	*queue = nil
	return jobs
}

// pass runs the specified jobs through the worker pool and merges their
// results. Retest accounting takes place only for record passes. In live
// mode, results get merged as they arrive; in batch mode, the jobs get run in
// chunks the size of the pool, merging each chunk after the pool drained. A
// pass stops at the first worker fault or checkpoint exit, with checkpoints
// checked after each merged result or chunk respectively.
func (r *run) pass(ctx context.Context, name string, jobs []job, record bool) error {
	if len(jobs) == 0 {
		return nil
	}
	o := r.o
	o.log.Info().Str("pass", name).Int("subjects", len(jobs)).Msg("starting pass")
	if o.cfg.MergeMode == config.MergeLive {
		return r.drain(ctx, jobs, record, true)
	}
	for len(jobs) > 0 {
		chunk := jobs
		if len(chunk) > r.pool.size {
			chunk = chunk[:r.pool.size]
		}
		jobs = jobs[len(chunk):]
		if err := r.drain(ctx, chunk, record, false); err != nil {
			return err
		}
		if o.sched.ShouldCheckpointNow() {
			if err := o.sched.Checkpoint(ctx, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// drain runs the specified jobs until the pool drained, merging the results
// either as they arrive (live) or after the pool drained.
func (r *run) drain(ctx context.Context, jobs []job, record bool, live bool) error {
	o := r.o
	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var collected []outcome
	var fault *WorkerFault
	var stop error
	for out := range r.pool.run(passCtx, jobs) {
		if fault != nil || stop != nil || out.aborted {
			continue
		}
		if out.fault != nil {
			fault = out.fault
			cancel()
			o.log.Error().
				Str("subject", fault.Subject).
				Interface("panic", fault.Value).
				Bytes("stack", fault.Stack).
				Msg("worker fault, halting")
			continue
		}
		if !live {
			collected = append(collected, out)
			continue
		}
		if err := r.merge(ctx, out, record); err != nil {
			stop = err
			cancel()
			continue
		}
		if o.sched.ShouldCheckpointNow() {
			if err := o.sched.Checkpoint(ctx, false); err != nil {
				stop = err
				cancel()
			}
		}
	}
	// Results that completed before a fault are still valid.
	for _, out := range collected {
		if err := r.merge(ctx, out, record); err != nil {
			return err
		}
	}
	switch {
	case fault != nil:
		return fault
	case stop != nil:
		return stop
	}
	return ctx.Err()
}

// merge folds a single result into the datasets, the output files, and the
// continuation counters, and queues complements and mined subjects.
func (r *run) merge(ctx context.Context, out outcome, record bool) error {
	o := r.o
	res := out.result
	if o.news != nil {
		select {
		case o.news <- res:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// Results of list positions only get committed once all earlier
	// positions have been committed.
	if out.job.index >= 0 {
		r.seq.done(out.job.index, completion{subject: res.Subject, status: res.Status, result: &res})
		if err := r.commitErr; err != nil {
			r.commitErr = nil
			return err
		}
	} else if err := r.commit(res, record); err != nil {
		return err
	}
	if res.Source == types.Whois && res.ExpirationDate != "" && res.IDNASubject != "" {
		if t, err := expiration.Time(res.ExpirationDate); err == nil && t.After(o.now()) {
			if err := o.stores.Whois.Update(ctx, store.WhoisRecord{
				Subject:        res.Subject,
				IDNASubject:    res.IDNASubject,
				ExpirationDate: res.ExpirationDate,
				Epoch:          t.Unix(),
			}); err != nil {
				return fmt.Errorf("cannot update whois dataset: %w", err)
			}
		}
	}
	if o.cfg.Mining {
		for _, host := range res.Mined {
			r.enqueue(&r.mined, host)
		}
	}
	if o.cfg.Complements && out.job.subject.Kind == types.Domain {
		if c := complement(res.Subject); c != "" {
			r.enqueue(&r.complements, c)
		}
	}
	return nil
}

// advance accounts for the next list position in order.
func (r *run) advance(c completion) {
	if r.o.cfg.AutoContinue && r.file != "" {
		r.o.cont.Advance(r.file, c.subject, c.status)
	}
	if c.result == nil {
		return
	}
	if err := r.commit(*c.result, true); err != nil && r.commitErr == nil {
		r.commitErr = err
	}
}

// commit records a result in the retest cache (for record passes only) and
// appends it to its output file.
func (r *run) commit(res types.TestResult, record bool) error {
	if record && r.retest != nil {
		r.retest.Record(res)
	}
	return r.o.out.Write(res)
}

// enqueue adds a subject to the specified queue, unless it has been seen
// before.
func (r *run) enqueue(queue *[]types.Subject, line string) {
	s, ok := r.normalize(line)
	if !ok {
		return
	}
	name := s.Display()
	if _, seen := r.seen[name]; seen {
		return
	}
	r.seen[name] = struct{}{}
	*queue = append(*queue, s)
}

func (r *run) normalize(line string) (types.Subject, bool) {
	s, ok := syntax.Normalize(line, syntax.Options{IDNA: r.o.cfg.IDNA, Local: r.o.cfg.Local})
	if ok {
		s.File = r.file
	}
	return s, ok
}

// complement returns the “www.” complement of a domain: the registrable
// domain for a “www.” subdomain, and vice versa. Other names have no
// complement.
func complement(name string) string {
	if strings.HasPrefix(name, "www.") {
		return strings.TrimPrefix(name, "www.")
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil || etld1 != name {
		return ""
	}
	return "www." + name
}

// finish ends a run. A completed run gets its final checkpoint, while an
// aborted run only persists its state.
func (r *run) finish(ctx context.Context, err error) error {
	o := r.o
	defer func() {
		closeResolvers(r.pool.resolvers, o.log)
		o.current = nil
	}()
	switch {
	case err == nil:
		return o.sched.Checkpoint(ctx, true)
	case errors.Is(err, checkpoint.ErrCheckpointExit):
		return err
	}
	pctx := ctx
	if ctx.Err() != nil {
		pctx = context.Background()
	}
	if perr := o.persist(pctx); perr != nil {
		o.log.Error().Err(perr).Msg("cannot persist state")
	}
	return err
}

// readSubjects reads the subjects of a source file, skipping lines without
// any subject.
func readSubjects(path string, opts syntax.Options) ([]types.Subject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open source file: %w", err)
	}
	defer f.Close()
	var subjects []types.Subject
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		s, ok := syntax.Normalize(scanner.Text(), opts)
		if !ok {
			continue
		}
		s.File = path
		subjects = append(subjects, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read source file: %w", err)
	}
	return subjects, nil
}

// closeResolvers closes the idle resolvers that own resources, that is,
// implement [io.Closer].
func closeResolvers(resolvers chan Resolver, log zerolog.Logger) {
	for {
		select {
		case res := <-resolvers:
			if c, ok := res.(io.Closer); ok {
				if err := c.Close(); err != nil {
					log.Warn().Err(err).Msg("cannot close worker resolver")
				}
			}
		default:
			return
		}
	}
}
