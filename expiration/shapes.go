// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package expiration

import "regexp"

// order tells which capture group of a date shape holds the day, month and
// year.
type order struct {
	day, month, year int
}

var (
	dayMonthYear = order{day: 1, month: 2, year: 3}
	monthDayYear = order{day: 2, month: 1, year: 3}
	yearMonthDay = order{day: 3, month: 2, year: 1}
)

// shape is a single date shape together with the order of its fields.
type shape struct {
	re    *regexp.Regexp
	order order
}

// shapes lists the known date shapes, bucketed by field order. Shapes are
// anchored at the beginning of a value but not at its end, so trailing time
// and zone information is ignored.
var shapes = buildShapes(map[order][]string{
	dayMonthYear: {
		`(\d{1,2})-(\pL{3,9})-(\d{4})`,                      // 02-jan-2017, 02-Jan-2017 15:00:00 UTC
		`(\d{1,2})\.(\d{1,2})\.(\d{4})`,                     // 02.01.2017, 02.01.2017 15:00:00
		`(\d{1,2})/(\d{1,2})/(\d{4})`,                       // 02/01/2017
		`(\d{1,2})-(\d{1,2})-(\d{4})`,                       // 02-01-2017
		`(\d{1,2})\s*/\s*(\d{1,2})\s*/\s*(\d{4})`,           // 02 / 01 / 2017
		`(\d{1,2})\s+(\pL{3,9})\.?,?\s+(\d{4})`,             // 02 Jan 2017, 2 January, 2017
		`(\d{1,2})/(\pL{3,9})/(\d{4})`,                      // 02/jan/2017
		`(\d{1,2})\.(\pL{3,9})\.(\d{4})`,                    // 02.jan.2017
		`(\d{1,2})\.\s+(\pL{3,9})\.?\s+(\d{4})`,             // 2. Januar 2017
		`(\d{1,2})(?:st|nd|rd|th)\s+(\pL{3,9}),?\s+(\d{4})`, // 2nd January 2017
		`(\d{2})(\pL{3})(\d{4})`,                            // 02jan2017
		`\pL{3,9},?\s+(\d{1,2})\s+(\pL{3,9})\s+(\d{4})`,     // Mon, 02 Jan 2017 15:00:00 GMT
		`\pL{3,9},?\s+(\d{1,2})-(\pL{3,9})-(\d{4})`,         // Monday, 02-Jan-2017
		// 15:00:00 02.01.2017
		`\d{2}:\d{2}(?::\d{2})?\s+(\d{1,2})\.(\d{1,2})\.(\d{4})`,
	},
	monthDayYear: {
		`\pL{3,9}\s+(\pL{3,9})\s+(\d{1,2})\s+\d{2}:\d{2}:\d{2}\s+\pL{2,5}\s+(\d{4})`, // Mon Jan 02 15:00:00 GMT 2017
		`\pL{3,9}\s+(\pL{3,9})\s+(\d{1,2})\s+\d{2}:\d{2}:\d{2}\s+(\d{4})`,            // Mon Jan 02 15:00:00 2017
		`\pL{3,9}\s+(\pL{3,9})\s+(\d{1,2})\s+(\d{4})`,                                // Mon Jan 02 2017
		`\pL{3,9},?\s+(\pL{3,9})\s+(\d{1,2}),?\s+(\d{4})`,                            // Monday, January 02, 2017
		`(\pL{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})`,                                      // January 02, 2017, Jan 2 2017
		`(\pL{3,9})\.?\s+(\d{1,2})(?:st|nd|rd|th),?\s+(\d{4})`,                       // January 2nd, 2017
		`(\pL{3,9})-(\d{1,2})-(\d{4})`,                                               // jan-02-2017
		`(\pL{3,9})/(\d{1,2})/(\d{4})`,                                               // jan/02/2017
		`(\pL{3,9})\.(\d{1,2})\.(\d{4})`,                                             // jan.02.2017
	},
	yearMonthDay: {
		`(\d{4})-(\d{1,2})-(\d{1,2})`,             // 2017-01-02, 2017-01-02T15:00:00Z, 2017-01-02 15:00:00
		`(\d{4})\.\s?(\d{1,2})\.\s?(\d{1,2})`,     // 2017.01.02, 2017. 01. 02.
		`(\d{4})/(\d{1,2})/(\d{1,2})`,             // 2017/01/02, 2017/01/02 01:00:00 (+0900)
		`(\d{4})\s*/\s*(\d{1,2})\s*/\s*(\d{1,2})`, // 2017 / 01 / 02
		`(\d{4})年(\d{1,2})月(\d{1,2})日`,            // 2017年01月02日
		`(\d{4})-(\pL{3,9})-(\d{1,2})`,            // 2017-jan-02
		`(\d{4})/(\pL{3,9})/(\d{1,2})`,            // 2017/jan/02
		`(\d{4})\.(\pL{3,9})\.(\d{1,2})`,          // 2017.jan.02
		`(\d{4})\s+(\pL{3,9})\.?\s+(\d{1,2})`,     // 2017 jan 02
		`(\d{4})(\d{2})(\d{2})`,                   // 20170102, 20170102 15:00:00
	},
})

// bucketOrder is the order in which the buckets get tried.
var bucketOrder = []order{dayMonthYear, monthDayYear, yearMonthDay}

func buildShapes(buckets map[order][]string) []shape {
	var res []shape
	for _, o := range bucketOrder {
		for _, pattern := range buckets[o] {
			res = append(res, shape{
				re:    regexp.MustCompile(`(?i)^` + pattern),
				order: o,
			})
		}
	}
	return res
}
