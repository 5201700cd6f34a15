// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package expiration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// months maps month names and their common abbreviations (in several
// languages found in WHOIS records) onto the canonical three-letter codes.
var months = map[string]string{}

func init() {
	for code, names := range map[string][]string{
		"jan": {"january", "januar", "janv", "janvier", "enero", "ene", "gennaio", "gen", "januari"},
		"feb": {"february", "februar", "fev", "fév", "févr", "fevr", "février", "febrero", "febbraio", "februari"},
		"mar": {"march", "märz", "maerz", "mär", "mars", "marzo", "maart", "mrt"},
		"apr": {"april", "avr", "avril", "abril", "abr", "aprile"},
		"may": {"mai", "mayo", "maggio", "mei", "mag"},
		"jun": {"june", "juni", "juin", "junio", "giugno", "giu"},
		"jul": {"july", "juli", "juil", "juillet", "julio", "luglio", "lug"},
		"aug": {"august", "aoû", "aou", "août", "aout", "agosto", "ago", "augustus"},
		"sep": {"september", "sept", "septembre", "septiembre", "settembre", "set"},
		"oct": {"october", "oktober", "okt", "octobre", "octubre", "ottobre", "ott"},
		"nov": {"november", "novembre", "noviembre"},
		"dec": {"december", "dezember", "dez", "déc", "decembre", "décembre", "diciembre", "dic", "dicembre"},
	} {
		months[code] = code
		for _, name := range names {
			months[name] = code
		}
	}
	for idx, code := range []string{"jan", "feb", "mar", "apr", "may", "jun",
		"jul", "aug", "sep", "oct", "nov", "dec"} {
		months[strconv.Itoa(idx+1)] = code
		months[fmt.Sprintf("%02d", idx+1)] = code
	}
}

// NormalizeDate reassembles the specified day, month and year into the
// canonical “DD-mon-YYYY” form. Months can be given either as numbers or as
// (abbreviated) names. NormalizeDate returns an empty string if any of the
// fields isn't valid.
func NormalizeDate(day, month, year string) string {
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > 31 {
		return ""
	}
	mon, ok := months[strings.ToLower(strings.TrimSuffix(strings.TrimSpace(month), "."))]
	if !ok {
		return ""
	}
	year = strings.TrimSpace(year)
	if len(year) != 4 {
		return ""
	}
	if _, err := strconv.Atoi(year); err != nil {
		return ""
	}
	return fmt.Sprintf("%02d-%s-%s", d, mon, year)
}

// Parse matches the specified date value against the known date shapes and
// returns it in normalized “DD-mon-YYYY” form. An empty string is returned if
// the value doesn't match any known shape. Parse is idempotent on already
// normalized dates.
func Parse(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	for _, sh := range shapes {
		m := sh.re.FindStringSubmatch(value)
		if m == nil {
			continue
		}
		if date := NormalizeDate(m[sh.order.day], m[sh.order.month], m[sh.order.year]); date != "" {
			return date
		}
	}
	return ""
}

// Extract locates the expiration date field in a raw WHOIS record and returns
// the normalized date. matched reports whether any expiration label was found
// at all. digitFree reports a matched label whose value doesn't contain any
// digit; date is then always empty.
//
// A matched label with an empty date and digitFree being false means that the
// date value couldn't be parsed.
func Extract(record string) (date string, matched bool, digitFree bool) {
	for _, marker := range markers {
		for _, m := range marker.FindAllStringSubmatch(record, -1) {
			value := strings.TrimSpace(m[1])
			if value == "" {
				continue
			}
			if strings.IndexFunc(value, unicode.IsDigit) < 0 {
				return "", true, true
			}
			matched = true
			if date = Parse(value); date != "" {
				return date, true, false
			}
		}
	}
	return "", matched, false
}

// Time returns the point in time (at midnight UTC) of a normalized date.
func Time(date string) (time.Time, error) {
	t, err := time.Parse("02-Jan-2006", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed normalized date %q: %w", date, err)
	}
	return t, nil
}
