// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"github.com/siemens/reachdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("sequencer", func() {

	var advanced []string

	BeforeEach(func() {
		advanced = nil
	})

	record := func(c completion) {
		advanced = append(advanced, c.subject)
	}

	It("advances completions in list order", func() {
		seq := newSequencer(2, record)
		seq.done(4, completion{subject: "e", status: types.Up})
		seq.done(3, completion{subject: "d", status: types.Down})
		Expect(advanced).To(BeEmpty())
		Expect(seq.Next()).To(Equal(2))
		Expect(seq.Pending()).To(Equal(2))

		seq.done(2, completion{subject: "c"})
		Expect(advanced).To(HaveExactElements("c", "d", "e"))
		Expect(seq.Next()).To(Equal(5))
		Expect(seq.Pending()).To(BeZero())
	})

	It("ignores positions already advanced", func() {
		seq := newSequencer(1, record)
		seq.done(0, completion{subject: "a", status: types.Up})
		seq.done(1, completion{subject: "b", status: types.Up})
		seq.done(1, completion{subject: "b", status: types.Up})
		Expect(advanced).To(HaveExactElements("b"))
	})

	It("hands over results", func() {
		var results []types.TestResult
		seq := newSequencer(0, func(c completion) {
			if c.result != nil {
				results = append(results, *c.result)
			}
		})
		seq.done(1, completion{subject: "b", result: &types.TestResult{Subject: "b"}})
		seq.done(0, completion{subject: "a"})
		Expect(results).To(HaveExactElements(HaveField("Subject", "b")))
	})

})
