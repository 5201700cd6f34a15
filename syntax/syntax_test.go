// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package syntax

import (
	"github.com/siemens/reachdig/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("subject grammar", func() {

	DescribeTable("validates domains",
		func(name string, valid bool) {
			Expect(IsValidDomain(name)).To(Equal(valid))
		},
		Entry(nil, "example.org", true),
		Entry(nil, "www.example.co.uk.", true),
		Entry(nil, "xn--bcher-kva.example", true),
		Entry(nil, "example.xn--p1ai", true),
		Entry(nil, "localhost", false),
		Entry(nil, "example.c", false),
		Entry(nil, "example.123", false),
		Entry(nil, "exa mple.org", false),
		Entry(nil, "", false),
	)

	It("validates IPs and URLs", func() {
		Expect(IsValidIP("192.0.2.1")).To(BeTrue())
		Expect(IsValidIP("2001:db8::1")).To(BeTrue())
		Expect(IsValidIP("300.1.1.1")).To(BeFalse())
		Expect(IsValidURL("https://example.org/path")).To(BeTrue())
		Expect(IsValidURL("http://192.0.2.1:8080/")).To(BeTrue())
		Expect(IsValidURL("ftp://example.org")).To(BeFalse())
		Expect(IsValidURL("https://exa_mple/")).To(BeFalse())
	})

	It("validates local host names", func() {
		Expect(IsValidHostname("printer")).To(BeTrue())
		Expect(IsValidHostname("nas.lan.")).To(BeTrue())
		Expect(IsValidHostname("")).To(BeFalse())
		Expect(IsValidHostname("bad host")).To(BeFalse())
	})

	It("spots reserved addresses", func() {
		Expect(IsReservedIP("10.1.2.3")).To(BeTrue())
		Expect(IsReservedIP("::ffff:192.168.1.1")).To(BeTrue())
		Expect(IsReservedIP("fe80::1")).To(BeTrue())
		Expect(IsReservedIP("8.8.8.8")).To(BeFalse())
		Expect(IsReservedIP("example.org")).To(BeFalse())
	})

	It("normalizes lines", func() {
		_, ok := Normalize("   # just a comment", Options{})
		Expect(ok).To(BeFalse())

		s, ok := Normalize("0.0.0.0 Example.ORG # ads", Options{})
		Expect(ok).To(BeTrue())
		Expect(s.Name).To(Equal("example.org"))
		Expect(s.Original).To(Equal("Example.ORG"))
		Expect(s.Kind).To(Equal(types.Domain))
		Expect(s.Local).To(BeFalse())

		s, _ = Normalize("192.168.1.1", Options{})
		Expect(s.Kind).To(Equal(types.IP))
		Expect(s.Local).To(BeTrue())

		s, _ = Normalize("HTTPS://Example.org/Path", Options{})
		Expect(s.Kind).To(Equal(types.URL))
		Expect(s.Name).To(Equal("https://example.org/Path"))
		Expect(s.Host).To(Equal("example.org"))

		s, _ = Normalize("printer.lan", Options{})
		Expect(s.Local).To(BeTrue())

		s, _ = Normalize("printer", Options{})
		Expect(s.Local).To(BeFalse())
		s, _ = Normalize("printer", Options{Local: true})
		Expect(s.Local).To(BeTrue())
	})

	DescribeTable("local names",
		func(name string, expected bool) {
			Expect(IsLocal(name)).To(Equal(expected))
		},
		Entry(nil, "printer.local", true),
		Entry(nil, "router.home.arpa", true),
		Entry(nil, "10.0.0.1", true),
		Entry(nil, "example", false),
		Entry(nil, "com", false),
		Entry(nil, "example.com", false),
	)

	It("converts internationalized names", func() {
		s, _ := Normalize("bücher.example", Options{IDNA: true})
		Expect(s.Name).To(Equal("xn--bcher-kva.example"))
		s, _ = Normalize("bücher.example", Options{})
		Expect(s.Name).To(Equal("bücher.example"))
	})

})
