// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package expiration

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("expiration dates", func() {

	Context("normalizing", func() {

		DescribeTable("reassembles date fields",
			func(day, month, year, expected string) {
				Expect(NormalizeDate(day, month, year)).To(Equal(expected))
			},
			Entry(nil, "2", "1", "2017", "02-jan-2017"),
			Entry(nil, "02", "01", "2017", "02-jan-2017"),
			Entry(nil, "31", "December", "1999", "31-dec-1999"),
			Entry(nil, "1", "Sept.", "2020", "01-sep-2020"),
			Entry(nil, "15", "März", "2024", "15-mar-2024"),
			Entry("invalid day", "32", "01", "2017", ""),
			Entry("invalid month", "02", "13", "2017", ""),
			Entry("unknown month", "02", "foo", "2017", ""),
			Entry("short year", "02", "01", "17", ""),
		)

	})

	Context("parsing", func() {

		DescribeTable("date shapes",
			func(value, expected string) {
				Expect(Parse(value)).To(Equal(expected))
			},
			Entry(nil, "02-jan-2017", "02-jan-2017"),
			Entry(nil, "02-Jan-2017 15:00:00 UTC", "02-jan-2017"),
			Entry(nil, "02.01.2017", "02-jan-2017"),
			Entry(nil, "02.01.2017 15:00:00", "02-jan-2017"),
			Entry(nil, "02/01/2017", "02-jan-2017"),
			Entry(nil, "2 January 2017", "02-jan-2017"),
			Entry(nil, "2nd January 2017", "02-jan-2017"),
			Entry(nil, "Mon, 02 Jan 2017 15:00:00 GMT", "02-jan-2017"),
			Entry(nil, "02jan2017", "02-jan-2017"),
			Entry(nil, "Mon Jan 02 15:00:00 GMT 2017", "02-jan-2017"),
			Entry(nil, "Mon Jan 02 2017", "02-jan-2017"),
			Entry(nil, "January 02, 2017", "02-jan-2017"),
			Entry(nil, "Jan 2nd, 2017", "02-jan-2017"),
			Entry(nil, "jan-02-2017", "02-jan-2017"),
			Entry(nil, "2017-01-02", "02-jan-2017"),
			Entry(nil, "2017-01-02T15:00:00Z", "02-jan-2017"),
			Entry(nil, "2017-01-02T15:00:00.000+0200", "02-jan-2017"),
			Entry(nil, "2017.01.02", "02-jan-2017"),
			Entry(nil, "2017. 01. 02.", "02-jan-2017"),
			Entry(nil, "2017/01/02 01:00:00 (+0900)", "02-jan-2017"),
			Entry(nil, "2017年01月02日", "02-jan-2017"),
			Entry(nil, "2017-Jan-02", "02-jan-2017"),
			Entry(nil, "20170102", "02-jan-2017"),
			Entry(nil, "20170102 15:00:00", "02-jan-2017"),
			Entry("garbage", "soon-ish", ""),
			Entry("empty", "   ", ""),
		)

		It("is idempotent on normalized dates", func() {
			for _, value := range []string{
				"02-Jan-2017 15:00:00 UTC",
				"2017-12-31T00:00:00Z",
				"Mon Feb 29 2016",
			} {
				date := Parse(value)
				Expect(date).NotTo(BeEmpty(), value)
				Expect(Parse(date)).To(Equal(date))
			}
		})

	})

	Context("extracting", func() {

		It("finds the expiry date", func() {
			date, matched, digitFree := Extract(`Domain Name: EXAMPLE.COM
Registrar: Example Registrar, Inc.
Expiry Date: 02-Jan-2017 15:00:00 UTC
Name Server: NS1.EXAMPLE.COM
`)
			Expect(matched).To(BeTrue())
			Expect(digitFree).To(BeFalse())
			Expect(date).To(Equal("02-jan-2017"))
		})

		It("prefers the registry expiry date", func() {
			date, _, _ := Extract("Registrar Registration Expiration Date: 2020-05-05\r\n" +
				"Registry Expiry Date: 2021-06-07T04:00:00Z\r\n")
			Expect(date).To(Equal("07-jun-2021"))
		})

		It("reports digit-free values", func() {
			date, matched, digitFree := Extract("domain: example.net\nexpire: never\n")
			Expect(matched).To(BeTrue())
			Expect(digitFree).To(BeTrue())
			Expect(date).To(BeEmpty())
		})

		It("skips empty values", func() {
			_, matched, _ := Extract("Expiry Date:\nstatus: ok\n")
			Expect(matched).To(BeFalse())
		})

		It("reports unparseable values as ambiguous", func() {
			date, matched, digitFree := Extract("paid-till: 99 bottles of beer\n")
			Expect(matched).To(BeTrue())
			Expect(digitFree).To(BeFalse())
			Expect(date).To(BeEmpty())
		})

		It("reports records without labels", func() {
			date, matched, digitFree := Extract("No match for \"EXAMPLE.INVALID\".\n")
			Expect(date).To(BeEmpty())
			Expect(matched).To(BeFalse())
			Expect(digitFree).To(BeFalse())
		})

	})

	It("converts normalized dates into points in time", func() {
		Expect(Successful(Time("02-jan-2017"))).To(
			Equal(time.Date(2017, time.January, 2, 0, 0, 0, 0, time.UTC)))
		Expect(Time("02-foo-2017")).Error().To(HaveOccurred())
		Expect(Time("garbage")).Error().To(HaveOccurred())
	})

})
