// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("verdicts", func() {

	DescribeTable("maps loose status signals",
		func(signal string, expected Status) {
			s, ok := StatusFromSignal(signal)
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal(expected))
		},
		Entry(nil, "UP", Up),
		Entry(nil, "active", Up),
		Entry(nil, " INACTIVE ", Down),
		Entry(nil, "down", Down),
		Entry(nil, "INVALID", Invalid),
		Entry(nil, "potentially_active", PotentiallyUp),
		Entry(nil, "POTENTIALLY_DOWN", PotentiallyDown),
		Entry(nil, "", None),
	)

	It("rejects unknown signals", func() {
		_, ok := StatusFromSignal("SOMEWHAT_UP")
		Expect(ok).To(BeFalse())
		var s Status
		Expect(s.UnmarshalText([]byte("SOMEWHAT_UP"))).To(HaveOccurred())
	})

	It("renders unknown values", func() {
		Expect(Status(42).String()).To(Equal("Status(42)"))
		Expect(Source(42).String()).To(Equal("Source(42)"))
	})

	It("keeps results human-readable in JSON", func() {
		r := TestResult{
			Subject: "example.org",
			Status:  Down,
			Source:  DNS,
		}
		b := Successful(json.Marshal(r))
		Expect(string(b)).To(ContainSubstring(`"status":"DOWN"`))
		Expect(string(b)).To(ContainSubstring(`"status_source":"DNS"`))

		var back TestResult
		Expect(json.Unmarshal([]byte(`{"subject":"example.org","status":"INACTIVE","status_source":"NSLOOKUP"}`), &back)).To(Succeed())
		Expect(back.Status).To(Equal(Down))
		Expect(back.Source).To(Equal(DNS))
	})

	It("derives superseding results without touching the original", func() {
		r := TestResult{Subject: "example.org", Status: Down, Source: DNS, Mined: []string{"a.example.org"}}
		r2 := r.With(Up, HTTPCode)
		r2.Mined[0] = "b.example.org"
		Expect(r.Status).To(Equal(Down))
		Expect(r.Mined).To(ConsistOf("a.example.org"))
		Expect(r2.Status).To(Equal(Up))
		Expect(r2.Source).To(Equal(HTTPCode))
	})

	It("displays subjects as listed", func() {
		Expect(Subject{Name: "xn--mnchen-3ya.de", Original: "München.DE.", Kind: Domain}.Display()).
			To(Equal("münchen.de"))
		Expect(Subject{Name: "example.org", Kind: Domain}.Display()).To(Equal("example.org"))
		Expect(Subject{Name: "https://example.org/", Original: "HTTPS://Example.org/", Kind: URL}.Display()).
			To(Equal("https://example.org/"))
	})

})
