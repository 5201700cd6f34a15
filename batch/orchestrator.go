// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/checkpoint"
	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/continuation"
	"github.com/siemens/reachdig/status"
	"github.com/siemens/reachdig/store"
	"github.com/siemens/reachdig/syntax"
	"github.com/siemens/reachdig/types"
)

// ResolverFactory creates the resolver of a worker from the worker's own copy
// of the configuration. All resolvers of a run share the same read-only
// expiration cache.
type ResolverFactory func(cfg config.Config, cache status.ExpirationCache) (Resolver, error)

// Orchestrator runs batches of subjects over a pool of workers.
type Orchestrator struct {
	cfg       config.Config
	stores    *store.Stores
	factory   ResolverFactory
	cont      *continuation.Store
	sched     *checkpoint.Scheduler
	schedOpts []checkpoint.SchedulerOption
	out       *outputFiles
	ignore    []*regexp.Regexp
	news      chan<- types.TestResult
	now       func() time.Time
	log       zerolog.Logger

	current *run // only accessed by the coordinating goroutine.
}

// OrchestratorOption can be passed to New when creating a new Orchestrator.
type OrchestratorOption func(*Orchestrator)

// New returns a new [Orchestrator] for the specified configuration, using the
// specified datasets and creating the resolvers of its workers using the
// specified factory.
func New(cfg config.Config, stores *store.Stores, factory ResolverFactory, options ...OrchestratorOption) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ignore, err := cfg.IgnoreRegexps()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:     cfg,
		stores:  stores,
		factory: factory,
		out:     newOutputFiles(cfg.OutputDir),
		ignore:  ignore,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(o)
	}
	o.cont, err = continuation.Open(filepath.Join(cfg.OutputDir, continuation.FileName))
	if err != nil {
		return nil, err
	}
	o.sched = checkpoint.New(cfg, append([]checkpoint.SchedulerOption{
		checkpoint.WithClock(o.now),
		checkpoint.WithLogger(o.log),
		checkpoint.WithPersisters(o.persist),
	}, o.schedOpts...)...)
	return o, nil
}

// WithNews sets a channel receiving all merged test results. The channel is
// never closed by the Orchestrator.
func WithNews(news chan<- types.TestResult) OrchestratorOption {
	return func(o *Orchestrator) {
		o.news = news
	}
}

// WithClock sets the clock.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		o.log = log
	}
}

// WithSchedulerOptions passes options on to the checkpoint scheduler.
func WithSchedulerOptions(options ...checkpoint.SchedulerOption) OrchestratorOption {
	return func(o *Orchestrator) {
		o.schedOpts = append(o.schedOpts, options...)
	}
}

// Close flushes and closes the output files; it doesn't close the datasets.
func (o *Orchestrator) Close() error {
	return o.out.Close()
}

// Run tests the subjects listed in the specified source file. Run returns
// [checkpoint.ErrCheckpointExit] when a CI checkpoint asks for termination,
// and a [*WorkerFault] when a worker panicked.
func (o *Orchestrator) Run(ctx context.Context, sourceFile string) error {
	subjects, err := readSubjects(sourceFile, syntax.Options{IDNA: o.cfg.IDNA, Local: o.cfg.Local})
	if err != nil {
		return err
	}
	r, err := o.newRun(ctx, sourceFile)
	if err != nil {
		return err
	}
	return r.finish(ctx, r.runFile(ctx, subjects))
}

// RunSubjects tests the specified subjects, independent of any source file:
// there is neither continuation nor retest accounting.
func (o *Orchestrator) RunSubjects(ctx context.Context, subjects []string) error {
	var jobs []job
	for _, line := range subjects {
		s, ok := syntax.Normalize(line, syntax.Options{IDNA: o.cfg.IDNA, Local: o.cfg.Local})
		if !ok {
			continue
		}
		jobs = append(jobs, job{index: -1, subject: s})
	}
	if len(jobs) == 0 {
		return errors.New("no subjects to test")
	}
	r, err := o.newRun(ctx, "")
	if err != nil {
		return err
	}
	for _, j := range jobs {
		r.seen[j.subject.Display()] = struct{}{}
	}
	return r.finish(ctx, r.passes(ctx, jobs))
}

// persist makes the state of the current run durable; it is called on
// checkpoints as well as at the end of a run.
func (o *Orchestrator) persist(ctx context.Context) error {
	r := o.current
	if r != nil && r.retest != nil {
		if err := r.retest.Flush(ctx); err != nil {
			return err
		}
	}
	if o.cfg.AutoContinue && r != nil && r.file != "" {
		if err := o.cont.Save(); err != nil {
			return err
		}
	}
	if err := o.out.Flush(); err != nil {
		return err
	}
	if err := o.stores.Flush(); err != nil {
		return fmt.Errorf("cannot flush datasets: %w", err)
	}
	return nil
}
