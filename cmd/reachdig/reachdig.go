// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gosuri/uilive"
	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/batch"
	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/store"
	"github.com/siemens/reachdig/types"
)

// reporting configures how progress and results get reported.
type reporting struct {
	term            io.Writer // live progress; nil disables live progress.
	out             io.Writer // final summary.
	spinnerInterval time.Duration
}

// digAndReport tests the subjects of the specified source files, followed by
// the individually specified subjects, while rendering the progress.
func digAndReport(ctx context.Context, cfg config.Config, files, subjects []string, rep reporting, log zerolog.Logger) (err error) {
	stores, err := store.Open(cfg.Backend, cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("cannot open datasets: %w", err)
	}
	defer func() {
		if cerr := stores.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	factory, err := newResolverFactory(cfg, log)
	if err != nil {
		return err
	}

	// Create an empty (concurrency-safe) result map and immediately fire off
	// the tracking and rendering goroutines. Rendering only stops after
	// tracking has finished because the news channel has been closed. We then
	// render a final update and end rendering, signalling the end of our
	// activities via renderingDone.
	results := batch.NewResultMap()
	news := make(chan types.TestResult, cfg.Workers)
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})
	go func() {
		_ = results.Track(context.Background(), news)
		close(trackingDone)
	}()
	go func() {
		defer close(renderingDone)
		if rep.term == nil {
			<-trackingDone
			return
		}
		// Avoid uilive's background updating which may trigger with the
		// rendering into the buffer not yet complete; flush explicitly
		// instead.
		term := uilive.New()
		term.Out = rep.term
		r := newRenderer(term, newSpinner(rep.spinnerInterval))
		defer func() {
			r.Stop()
			renderData(term, r, results)
		}()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			renderData(term, r, results)
			select {
			case <-ticker.C:
			case <-trackingDone:
				return
			}
		}
	}()

	orch, err := batch.New(cfg, stores, factory,
		batch.WithNews(news),
		batch.WithLogger(log))
	if err == nil {
		err = run(ctx, orch, files, subjects)
		if cerr := orch.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	close(news)
	<-renderingDone

	fmt.Fprintf(rep.out, "%s %d, %s %d, %s %d; results in %s\n",
		upStyle.Styled(types.Up.String()), results.Count(types.Up),
		downStyle.Styled(types.Down.String()), results.Count(types.Down),
		invalidStyle.Styled(types.Invalid.String()), results.Count(types.Invalid),
		cfg.OutputDir)
	return err
}

// run tests the source files one after another, and then the individual
// subjects, stopping at the first error.
func run(ctx context.Context, orch *batch.Orchestrator, files, subjects []string) error {
	for _, file := range files {
		if err := orch.Run(ctx, file); err != nil {
			return err
		}
	}
	if len(subjects) == 0 {
		return nil
	}
	return orch.RunSubjects(ctx, subjects)
}

// renderData gets the current results and then renders (and flushes) them to
// the terminal.
func renderData(term *uilive.Writer, r *renderer, results *batch.ResultMap) {
	r.Render(results.Get())
	_ = term.Flush()
}
