// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package expiration

import "regexp"

// markers locate the value of an expiration date field in WHOIS records; the
// first capture group is the value. Order matters, as the first marker with a
// non-empty value wins.
var markers = compileAll([]string{
	`registry expiry date:(.*)`,
	`registrar registration expiration date:(.*)`,
	`domain expiration date:(.*)`,
	`expiration date\s*:(.*)`,
	`expiration date\.+:(.*)`,
	`expiration time:(.*)`,
	`expiry date:(.*)`,
	`expiry\s*:(.*)`,
	`expire date:(.*)`,
	`expire on:(.*)`,
	`expire:(.*)`,
	`expires at:(.*)`,
	`expires on\.*:(.*)`,
	`expires\.*:(.*)`,
	`expires on(.*)`,
	`\[expires on\](.*)`,
	`\[有効期限\](.*)`,
	`record expires on(.*)`,
	`expiration\s*:(.*)`,
	`valid until:(.*)`,
	`valid-until:(.*)`,
	`validity:(.*)`,
	`paid-till:(.*)`,
	`free-date:(.*)`,
	`renewal date:(.*)`,
	`renewal:(.*)`,
	`domain_datebilleduntil:(.*)`,
	`billed until:(.*)`,
	`data de expiração / expiration date \(dd/mm/yyyy\):(.*)`,
	`fecha de vencimiento:(.*)`,
	`fecha de expiración \(expiration date\):(.*)`,
	`date d'expiration:(.*)`,
	`ablaufdatum:(.*)`,
	`vervaldatum:(.*)`,
	`scadenza:(.*)`,
	`expired:(.*)`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		res = append(res, regexp.MustCompile(`(?i)`+pattern))
	}
	return res
}
