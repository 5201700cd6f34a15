// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import (
	"strings"
	"time"
)

// Kind tells apart the three flavours of subjects.
type Kind int

// The kinds of subjects.
const (
	Domain Kind = iota
	IP
	URL
)

// String returns the clear-text representation of a Kind value.
func (k Kind) String() string {
	switch k {
	case IP:
		return "ip"
	case URL:
		return "url"
	}
	return "domain"
}

// Subject is a normalized (lower-cased and optionally IDNA-converted) domain,
// IP address or URL. Subjects are never modified once a resolution started.
type Subject struct {
	Name     string `json:"subject"`               // normalized subject
	Original string `json:"original,omitempty"`    // subject as it appeared in the source
	Kind     Kind   `json:"kind"`                  // domain, ip, or url
	Host     string `json:"host,omitempty"`        // host part of URL subjects
	Local    bool   `json:"local,omitempty"`       // local-network subject, skips WHOIS
	File     string `json:"source_file,omitempty"` // list the subject was read from
}

// Display returns the lower-cased subject as it appeared in its list, before
// any IDNA conversion. Datasets and output files key subjects by this name.
func (s Subject) Display() string {
	if s.Kind != Domain || s.Original == "" {
		return s.Name
	}
	return strings.TrimSuffix(strings.ToLower(s.Original), ".")
}

// TestResult is the outcome of a single resolution attempt. A superseding
// attempt yields a new TestResult; existing values never get modified.
type TestResult struct {
	Subject        string    `json:"subject"`
	IDNASubject    string    `json:"idna_subject,omitempty"`
	Status         Status    `json:"status"`
	Source         Source    `json:"status_source"`
	Analytic       Status    `json:"analytic,omitempty"`
	ExpirationDate string    `json:"expiration_date,omitempty"` // DD-mon-YYYY
	HTTPStatusCode int       `json:"http_status_code,omitempty"`
	WhoisServer    string    `json:"whois_server,omitempty"`
	TestedAt       time.Time `json:"tested_at"`
	// Subjects discovered incidentally, such as hosts along a redirect
	// chain; the coordinator feeds them into its mining queue.
	Mined []string `json:"mined,omitempty"`
}

// With returns a copy of the result with a new verdict.
func (r TestResult) With(status Status, source Source) TestResult {
	r.Status = status
	r.Source = source
	if r.Mined != nil {
		r.Mined = append([]string(nil), r.Mined...)
	}
	return r
}
