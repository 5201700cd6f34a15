// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"strings"
)

// Status is the consensus availability verdict for a subject.
type Status int

// The availability verdicts of a subject. The zero value None only appears in
// [TestResult.Analytic] and means “no side-signal”.
const (
	None            Status = iota // no verdict (yet).
	Up                            // subject is reachable or registered.
	Down                          // subject is unreachable or unregistered.
	Invalid                       // subject is malformed or its suffix unknown.
	PotentiallyUp                 // analytic: evidence of life despite a negative verdict.
	PotentiallyDown               // analytic: evidence reinforcing a negative verdict.
)

// String returns the clear-text representation of a Status value.
func (s Status) String() string {
	switch s {
	case None:
		return ""
	case Up:
		return "UP"
	case Down:
		return "DOWN"
	case Invalid:
		return "INVALID"
	case PotentiallyUp:
		return "POTENTIALLY_UP"
	case PotentiallyDown:
		return "POTENTIALLY_DOWN"
	}
	return fmt.Sprintf("Status(%d)", s)
}

// IsSettled returns true for verdicts that end retesting of a subject.
func (s Status) IsSettled() bool {
	return s == Up
}

// MarshalText renders a Status in its clear-text form, so that stores and
// continuation files stay human-readable.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the clear-text form of a Status.
func (s *Status) UnmarshalText(text []byte) error {
	st, ok := StatusFromSignal(string(text))
	if !ok {
		return fmt.Errorf("unknown status %q", string(text))
	}
	*s = st
	return nil
}

// StatusFromSignal maps a loosely-typed status signal onto the closed set of
// Status values. Besides the canonical names it accepts the legacy
// ACTIVE/INACTIVE vocabulary still found in older datasets. The empty string
// maps to None.
func StatusFromSignal(signal string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(signal)) {
	case "":
		return None, true
	case "UP", "ACTIVE", "VALID":
		return Up, true
	case "DOWN", "INACTIVE":
		return Down, true
	case "INVALID":
		return Invalid, true
	case "POTENTIALLY_UP", "POTENTIALLY_ACTIVE":
		return PotentiallyUp, true
	case "POTENTIALLY_DOWN", "POTENTIALLY_INACTIVE":
		return PotentiallyDown, true
	}
	return None, false
}

// Source names the oracle whose evidence decided a verdict.
type Source int

// The sources of evidence.
const (
	NoSource Source = iota
	Whois
	DNS
	HTTPCode
	Syntax
)

// String returns the clear-text representation of a Source value.
func (s Source) String() string {
	switch s {
	case NoSource:
		return ""
	case Whois:
		return "WHOIS"
	case DNS:
		return "DNS"
	case HTTPCode:
		return "HTTP_CODE"
	case Syntax:
		return "SYNTAX"
	}
	return fmt.Sprintf("Source(%d)", s)
}

// MarshalText renders a Source in its clear-text form.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the clear-text form of a Source. The legacy NSLOOKUP
// name is accepted as DNS.
func (s *Source) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "":
		*s = NoSource
	case "WHOIS":
		*s = Whois
	case "DNS", "NSLOOKUP":
		*s = DNS
	case "HTTP_CODE", "HTTP CODE":
		*s = HTTPCode
	case "SYNTAX":
		*s = Syntax
	default:
		return fmt.Errorf("unknown status source %q", string(text))
	}
	return nil
}
