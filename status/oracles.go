// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package status

import (
	"context"
	"time"

	"github.com/siemens/reachdig/types"
)

// DNSOracle checks subjects for existing DNS records.
type DNSOracle interface {
	Exists(ctx context.Context, subject types.Subject) bool
}

// WhoisOracle queries WHOIS servers, returning an empty record on failure.
type WhoisOracle interface {
	Query(ctx context.Context, server, query string) string
}

// RefererOracle returns the WHOIS server responsible for a subject.
type RefererOracle interface {
	Resolve(ctx context.Context, subject types.Subject) (string, error)
}

// HTTPOracle probes URLs for their HTTP status code, returning 0 if there was
// no answer.
type HTTPOracle interface {
	StatusCode(ctx context.Context, url string) int
	Redirects(ctx context.Context, url string) []string
}

// PingOracle checks IP addresses for ICMP echo replies.
type PingOracle interface {
	Reachable(ctx context.Context, addr string) bool
}

// ExpirationCache knows about the expiration dates of subjects from earlier
// WHOIS queries.
type ExpirationCache interface {
	Expiration(subject string) (date string, epoch time.Time, ok bool)
}

// Oracles bundles the oracles consulted by a [Resolver]. Only DNS is
// mandatory; without Whois or Referer the WHOIS steps are skipped, and
// without HTTP the status code overlay is skipped (and URLs can't be
// resolved). Ping is only consulted for IP address subjects.
type Oracles struct {
	DNS     DNSOracle
	Whois   WhoisOracle
	Referer RefererOracle
	HTTP    HTTPOracle
	Ping    PingOracle
}
