// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/siemens/reachdig/types"
)

// Resolver resolves the status of subjects; each worker owns its own
// Resolver.
type Resolver interface {
	Resolve(ctx context.Context, subject types.Subject) types.TestResult
}

// job is a self-contained request to test a subject. Index is the position of
// the subject in its source file, or -1 for subjects not taking part in
// continuation accounting.
type job struct {
	index   int
	subject types.Subject
}

// outcome is the self-contained answer of a worker to a job.
type outcome struct {
	job     job
	result  types.TestResult
	fault   *WorkerFault
	aborted bool // job got cancelled; its result is meaningless.
}

// pool dispatches jobs to workers. The idle resolvers double as the gate
// limiting the number of jobs in flight: a job only gets submitted after it
// acquired an idle resolver.
type pool struct {
	size      int
	resolvers chan Resolver
	cooldown  time.Duration
	faulted   atomic.Bool
}

func newPool(resolvers chan Resolver, cooldown time.Duration) *pool {
	return &pool{
		size:      cap(resolvers),
		resolvers: resolvers,
		cooldown:  cooldown,
	}
}

// run dispatches the jobs in order and returns the channel of their outcomes,
// which gets closed after the last worker finished. Dispatching stops as soon
// as a worker faulted or the context is done.
func (p *pool) run(ctx context.Context, jobs []job) <-chan outcome {
	outcomes := make(chan outcome, p.size)
	wp := workerpool.New(p.size)
	go func() {
		defer func() {
			wp.StopWait()
			close(outcomes)
		}()
		for _, j := range jobs {
			var res Resolver
			select {
			case res = <-p.resolvers:
			case <-ctx.Done():
				return
			}
			if p.faulted.Load() || ctx.Err() != nil {
				p.resolvers <- res
				return
			}
			j := j
			wp.Submit(func() {
				out := p.work(ctx, res, j)
				// Release the resolver only after the fault flag has been
				// raised, so the dispatcher never hands out further jobs
				// after a fault.
				p.resolvers <- res
				outcomes <- out
			})
		}
	}()
	return outcomes
}

// work tests a single subject, capturing any panic as a fault.
func (p *pool) work(ctx context.Context, res Resolver, j job) (out outcome) {
	defer func() {
		if v := recover(); v != nil {
			p.faulted.Store(true)
			out = outcome{
				job: j,
				fault: &WorkerFault{
					Subject: j.subject.Display(),
					Value:   v,
					Stack:   debug.Stack(),
				},
			}
		}
	}()
	result := res.Resolve(ctx, j.subject)
	if ctx.Err() != nil {
		return outcome{job: j, aborted: true}
	}
	if p.cooldown > 0 {
		select {
		case <-time.After(p.cooldown):
		case <-ctx.Done():
		}
	}
	return outcome{job: j, result: result}
}
