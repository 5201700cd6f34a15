// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package whoisoracle

import (
	"bufio"
	"strings"
)

// Referral returns the value of the first "refer:" (or "whois:") line of a
// WHOIS record, as returned by the IANA root WHOIS server for top-level
// domains. Referral returns "" if the record has no such line.
func Referral(record string) string {
	sc := bufio.NewScanner(strings.NewReader(record))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "refer", "whois":
			if value = strings.TrimSpace(value); value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}
