// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package status

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/siemens/reachdig/types"
)

// calls counts the network calls of all fake oracles.
type calls struct {
	n atomic.Int32
}

func (c *calls) inc() { c.n.Add(1) }

type fakeDNS struct {
	*calls
	exists map[string]bool
}

func (d fakeDNS) Exists(ctx context.Context, subject types.Subject) bool {
	d.inc()
	name := subject.Name
	if subject.Kind == types.URL {
		name = subject.Host
	}
	return d.exists[name]
}

type fakeWhois struct {
	*calls
	records map[string]string // query -> record
}

func (w fakeWhois) Query(ctx context.Context, server, query string) string {
	w.inc()
	return w.records[query]
}

type fakeReferer struct {
	*calls
	server string
	err    error
}

func (f fakeReferer) Resolve(ctx context.Context, subject types.Subject) (string, error) {
	f.inc()
	if subject.Local || subject.Kind == types.IP {
		return "", nil
	}
	return f.server, f.err
}

type fakeHTTP struct {
	*calls
	codes     map[string]int
	redirects map[string][]string
}

func (h fakeHTTP) StatusCode(ctx context.Context, url string) int {
	h.inc()
	return h.codes[url]
}

func (h fakeHTTP) Redirects(ctx context.Context, url string) []string {
	h.inc()
	return h.redirects[url]
}

type fakePing struct {
	*calls
	reachable map[string]bool
}

func (p fakePing) Reachable(ctx context.Context, addr string) bool {
	p.inc()
	return p.reachable[addr]
}

type fakeCache map[string]time.Time

func (c fakeCache) Expiration(subject string) (string, time.Time, bool) {
	epoch, ok := c[subject]
	if !ok {
		return "", time.Time{}, false
	}
	return strings.ToLower(epoch.Format("02-Jan-2006")), epoch, true
}
