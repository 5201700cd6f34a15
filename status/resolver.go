// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package status

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/expiration"
	"github.com/siemens/reachdig/httpprobe"
	"github.com/siemens/reachdig/referer"
	"github.com/siemens/reachdig/syntax"
	"github.com/siemens/reachdig/types"
)

// Resolver resolves the availability status of subjects. Given identical
// oracle answers, a Resolver always comes to the same verdict.
type Resolver struct {
	cfg     config.Config
	oracles Oracles
	cache   ExpirationCache
	now     func() time.Time
	log     zerolog.Logger

	active          map[int]struct{}
	potentiallyUp   map[int]struct{}
	potentiallyDown map[int]struct{}
}

// ResolverOption can be passed to New when creating new Resolver objects.
type ResolverOption func(*Resolver)

// New returns a new [Resolver] for the specified configuration, consulting the
// specified oracles.
func New(cfg config.Config, oracles Oracles, options ...ResolverOption) *Resolver {
	r := &Resolver{
		cfg:             cfg,
		oracles:         oracles,
		now:             time.Now,
		log:             zerolog.Nop(),
		active:          codeSet(cfg.HTTPActive),
		potentiallyUp:   codeSet(cfg.HTTPPotentiallyUp),
		potentiallyDown: codeSet(cfg.HTTPPotentiallyDown),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// WithExpirationCache sets a cache of expiration dates consulted before any
// WHOIS query.
func WithExpirationCache(cache ExpirationCache) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithClock sets the clock used to timestamp results and to check cached
// expiration dates.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

func codeSet(codes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return set
}

// Resolve resolves the availability of the specified subject.
func (r *Resolver) Resolve(ctx context.Context, subject types.Subject) types.TestResult {
	res := types.TestResult{
		Subject:     subject.Display(),
		IDNASubject: subject.Name,
		TestedAt:    r.now(),
	}
	if subject.Kind == types.URL {
		res = r.resolveURL(ctx, subject, res)
	} else {
		res = r.resolveHost(ctx, subject, res)
	}
	r.log.Debug().Str("subject", res.Subject).Stringer("status", res.Status).
		Stringer("source", res.Source).Msg("resolved")
	return res
}

func (r *Resolver) resolveHost(ctx context.Context, subject types.Subject, res types.TestResult) types.TestResult {
	switch subject.Kind {
	case types.IP:
		if !syntax.IsValidIP(subject.Name) {
			return res.With(types.Invalid, types.Syntax)
		}
	default:
		if !syntax.IsValidDomain(subject.Name) &&
			!(subject.Local && syntax.IsValidHostname(subject.Name)) {
			return res.With(types.Invalid, types.Syntax)
		}
	}
	if subject.Kind == types.Domain && !subject.Local && !r.cfg.Local && r.cfg.Whois &&
		r.oracles.Whois != nil && r.oracles.Referer != nil {
		var final, overlay bool
		res, final, overlay = r.whois(ctx, subject, res)
		if final {
			if overlay {
				return r.overlayHTTP(ctx, subject, res)
			}
			return res
		}
	}
	return r.fallback(ctx, subject, res)
}

// whois runs the WHOIS steps. It returns final true if the WHOIS evidence
// settled the verdict; overlay then tells whether HTTP evidence still may
// override the verdict.
func (r *Resolver) whois(ctx context.Context, subject types.Subject, res types.TestResult) (types.TestResult, bool, bool) {
	if r.cache != nil {
		if date, epoch, ok := r.cache.Expiration(subject.Name); ok && epoch.After(res.TestedAt) {
			res.ExpirationDate = date
			return res.With(types.Up, types.Whois), true, false
		}
	}
	server, err := r.oracles.Referer.Resolve(ctx, subject)
	switch {
	case errors.Is(err, referer.ErrNoCentralRegistry):
		return res.With(types.Down, types.Whois), true, false
	case errors.Is(err, referer.ErrUnknownSuffix):
		return res.With(types.Invalid, types.Syntax), true, false
	case err != nil:
		r.log.Warn().Str("subject", res.Subject).Err(err).Msg("referer lookup failed")
		return res, false, false
	case server == "":
		return res, false, false
	}
	res.WhoisServer = server
	record := r.oracles.Whois.Query(ctx, server, subject.Name)
	if record == "" {
		return res.With(types.Down, types.DNS), true, true
	}
	date, matched, digitFree := expiration.Extract(record)
	switch {
	case digitFree:
		return res.With(types.Down, types.Whois), true, false
	case date != "":
		res.ExpirationDate = date
		return res.With(types.Up, types.Whois), true, false
	case matched:
		r.log.Debug().Str("subject", res.Subject).Str("server", server).
			Msg("unparseable expiration date")
	}
	return res, false, false
}

// fallback decides on DNS evidence, optionally overlaid with ICMP and HTTP
// evidence.
func (r *Resolver) fallback(ctx context.Context, subject types.Subject, res types.TestResult) types.TestResult {
	if r.oracles.DNS.Exists(ctx, subject) {
		res = res.With(types.Up, types.DNS)
	} else {
		res = res.With(types.Down, types.DNS)
	}
	if subject.Kind == types.IP && r.cfg.ICMP && r.oracles.Ping != nil &&
		res.Status == types.Down && r.oracles.Ping.Reachable(ctx, subject.Name) {
		res = res.With(types.Up, types.DNS)
		res.Analytic = types.PotentiallyUp
	}
	return r.overlayHTTP(ctx, subject, res)
}

// overlayHTTP overlays the verdict with the HTTP status code of the subject,
// if enabled.
func (r *Resolver) overlayHTTP(ctx context.Context, subject types.Subject, res types.TestResult) types.TestResult {
	if !r.cfg.HTTPCodes || r.oracles.HTTP == nil {
		return res
	}
	probeURL := httpprobe.URLFor(subject.Name)
	code := r.oracles.HTTP.StatusCode(ctx, probeURL)
	res.HTTPStatusCode = code
	if code == httpprobe.NoAnswer {
		return res
	}
	switch {
	case r.isActive(code):
		if res.Status != types.Up {
			res = res.With(types.Up, types.HTTPCode)
			res.Analytic = types.PotentiallyUp
		}
	case r.isPotentiallyUp(code):
		if res.Status == types.Down {
			res.Analytic = types.PotentiallyUp
		}
	case r.isPotentiallyDown(code):
		if res.Status == types.Down {
			res.Analytic = types.PotentiallyDown
		}
	}
	return r.mine(ctx, probeURL, res)
}

func (r *Resolver) resolveURL(ctx context.Context, subject types.Subject, res types.TestResult) types.TestResult {
	if !syntax.IsValidURL(subject.Name) && !(subject.Local && isLocalURL(subject.Name)) {
		return res.With(types.Invalid, types.Syntax)
	}
	if r.oracles.HTTP == nil {
		return res.With(types.Invalid, types.HTTPCode)
	}
	code := r.oracles.HTTP.StatusCode(ctx, subject.Name)
	res.HTTPStatusCode = code
	switch {
	case r.isActive(code), r.isPotentiallyUp(code):
		res = res.With(types.Up, types.HTTPCode)
	case r.isPotentiallyDown(code):
		res = res.With(types.Down, types.HTTPCode)
	default:
		return res.With(types.Invalid, types.HTTPCode)
	}
	return r.mine(ctx, subject.Name, res)
}

// mine adds the hosts along the redirect chain of the specified URL to the
// result, if mining is enabled.
func (r *Resolver) mine(ctx context.Context, probeURL string, res types.TestResult) types.TestResult {
	if !r.cfg.Mining {
		return res
	}
	if hosts := r.oracles.HTTP.Redirects(ctx, probeURL); len(hosts) > 0 {
		res.Mined = hosts
	}
	return res
}

func isLocalURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	return syntax.IsValidHostname(u.Hostname()) || syntax.IsValidIP(u.Hostname())
}

func (r *Resolver) isActive(code int) bool {
	_, ok := r.active[code]
	return ok
}

func (r *Resolver) isPotentiallyUp(code int) bool {
	_, ok := r.potentiallyUp[code]
	return ok
}

func (r *Resolver) isPotentiallyDown(code int) bool {
	_, ok := r.potentiallyDown[code]
	return ok
}
