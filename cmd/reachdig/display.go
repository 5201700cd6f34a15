// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/siemens/reachdig/types"
)

// recentResults is the number of most recent results shown in the live
// display.
const recentResults = 10

// renderer renders the terminal display, based on the test results passed
// to its Render method.
type renderer struct {
	Indentation int
	w           io.Writer
	spinner     *spinner
	done        bool
}

// newRenderer returns a renderer rendering to the specified io.Writer.
func newRenderer(w io.Writer, sp *spinner) *renderer {
	return &renderer{
		Indentation: 3,
		w:           w,
		spinner:     sp,
	}
}

// Stop the renderer, so that the final rendering doesn't show a spinner.
func (r *renderer) Stop() {
	r.done = true
}

// Render the given test results.
func (r *renderer) Render(results []types.TestResult) {
	if len(results) == 0 {
		if r.done {
			fmt.Fprintln(r.w, "no subjects tested")
			return
		}
		fmt.Fprintf(r.w, "%stesting subjects...\n", r.spinner.Spinner())
		return
	}
	counts := map[types.Status]int{}
	for _, res := range results {
		counts[res.Status]++
	}
	prefix := ""
	if !r.done {
		prefix = r.spinner.Spinner()
	}
	fmt.Fprintf(r.w, "%s%s %d subjects: ", prefix, headingStyle.Styled("tested"), len(results))
	for idx, status := range []types.Status{types.Up, types.Down, types.Invalid} {
		if idx > 0 {
			fmt.Fprint(r.w, " ")
		}
		fmt.Fprint(r.w, statusStyle(status).Styled(fmt.Sprintf("%s %d", status, counts[status])))
	}
	fmt.Fprintln(r.w)

	recent := mostRecent(results, recentResults)
	// Keep the subject column from zig-zagging around.
	maxlen := 0
	for _, res := range recent {
		if l := len(res.Subject); l > maxlen {
			maxlen = l
		}
	}
	for _, res := range recent {
		r.renderResult(maxlen, res)
	}
}

// renderResult renders a single test result line.
func (r *renderer) renderResult(labelwidth int, res types.TestResult) {
	fmt.Fprintf(r.w, "%-*s%-*s ", r.Indentation, "", labelwidth, res.Subject)
	fmt.Fprint(r.w, statusStyle(res.Status).Styled(fmt.Sprintf("%-7s", res.Status)))
	fmt.Fprintf(r.w, " %s", res.Source)
	if res.Analytic != types.None {
		fmt.Fprint(r.w, " ", statusStyle(res.Analytic).Styled(res.Analytic.String()))
	}
	if res.HTTPStatusCode != 0 {
		fmt.Fprintf(r.w, " HTTP %d", res.HTTPStatusCode)
	}
	if res.ExpirationDate != "" {
		fmt.Fprintf(r.w, " expires %s", res.ExpirationDate)
	}
	fmt.Fprintln(r.w)
}

// mostRecent returns up to limit most recently tested results, most recent
// first. Note: mostRecent modifies the passed results in place.
func mostRecent(results []types.TestResult, limit int) []types.TestResult {
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].TestedAt.After(results[b].TestedAt)
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
