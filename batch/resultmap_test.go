// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"

	"github.com/siemens/reachdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("result map", func() {

	It("supersedes earlier results", func() {
		m := NewResultMap()
		m.Update(types.TestResult{Subject: "b.example", Status: types.Down})
		m.Update(types.TestResult{Subject: "a.example", Status: types.Down})
		m.Update(types.TestResult{Subject: "b.example", Status: types.Up})
		m.Update(types.TestResult{})

		Expect(m.Len()).To(Equal(2))
		Expect(m.Count(types.Up)).To(Equal(1))
		Expect(m.Count(types.Down)).To(Equal(1))
		Expect(m.Get()).To(HaveExactElements(
			HaveField("Subject", "a.example"),
			HaveField("Status", types.Up)))
	})

	It("tracks news until the channel is closed", func(ctx context.Context) {
		m := NewResultMap()
		news := make(chan types.TestResult, 2)
		news <- types.TestResult{Subject: "a.example", Status: types.Invalid}
		news <- types.TestResult{Subject: "b.example", Status: types.Up}
		close(news)
		Expect(m.Track(ctx, news)).To(Succeed())
		Expect(m.Count(types.Invalid)).To(Equal(1))
		Expect(m.Len()).To(Equal(2))
	})

	It("stops tracking when the context is done", func(ctx context.Context) {
		m := NewResultMap()
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(m.Track(cctx, make(chan types.TestResult))).To(MatchError(context.Canceled))
	})

})
