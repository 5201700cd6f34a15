// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package referer

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/types"
	"github.com/siemens/reachdig/whoisoracle"
	"golang.org/x/net/publicsuffix"
)

// IANAServer is the root WHOIS server delegating suffixes to their registries.
const IANAServer = "whois.iana.org"

// ErrUnknownSuffix signals a subject whose suffix is neither in the suffix
// table nor ICANN-managed.
var ErrUnknownSuffix = errors.New("unknown suffix")

// ErrNoCentralRegistry signals a subject whose suffix is operated without any
// central registry.
var ErrNoCentralRegistry = errors.New("suffix without central registry")

// WhoisQuerier queries WHOIS servers.
type WhoisQuerier interface {
	Query(ctx context.Context, server, query string) string
}

// HostResolver resolves host names into IP addresses.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) []string
}

// Resolver resolves the WHOIS servers (“referers”) of subjects. Resolvers are
// safe for concurrent use.
type Resolver struct {
	table *Table
	whois WhoisQuerier
	dns   HostResolver
	cache *cache.Cache // suffix -> []string of referer addresses
	infl  *inflight
	log   zerolog.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

// ResolverOption can be passed to New when creating new Resolver objects.
type ResolverOption func(*Resolver)

// New returns a new [Resolver] that queries IANA using the specified WHOIS
// querier and resolves referred hosts using the specified host resolver.
//
// Referer lookups are cached for an hour by default, use [WithTTL] to change.
func New(whois WhoisQuerier, dns HostResolver, options ...ResolverOption) *Resolver {
	r := &Resolver{
		table: DefaultTable(),
		whois: whois,
		dns:   dns,
		infl:  newInflight(),
		log:   zerolog.Nop(),
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	// No janitor: expired referrals are never returned and the number of
	// suffixes is bounded anyway.
	r.cache = cache.New(time.Hour, 0)
	for _, opt := range options {
		opt(r)
	}
	return r
}

// WithTable sets the suffix table, replacing the built-in one.
func WithTable(t *Table) ResolverOption {
	return func(r *Resolver) {
		r.table = t
	}
}

// WithTTL sets how long IANA referrals are cached.
func WithTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.cache = cache.New(ttl, 0)
	}
}

// WithRandSource sets the source of randomness used when picking one of
// several referer addresses.
func WithRandSource(src rand.Source) ResolverOption {
	return func(r *Resolver) {
		r.rnd = rand.New(src)
	}
}

// WithLogger sets the logger for side-channel diagnostics, such as suffixes
// without resolvable referer.
func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// Suffix returns the top-level suffix of a subject name.
func Suffix(name string) string {
	name = strings.TrimSuffix(name, ".")
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

// Resolve returns the WHOIS server for the specified subject. It returns an
// empty server without error for local-network subjects, IP addresses and
// suffixes whose referer couldn't be resolved: these all must be resolved
// using other oracles. Otherwise, it returns [ErrNoCentralRegistry] or
// [ErrUnknownSuffix].
func (r *Resolver) Resolve(ctx context.Context, subject types.Subject) (string, error) {
	if subject.Local || subject.Kind == types.IP {
		return "", nil
	}
	name := subject.Name
	if subject.Kind == types.URL {
		name = subject.Host
	}
	suffix := Suffix(strings.ToLower(name))
	if r.table.HasNoRegistry(suffix) {
		return "", ErrNoCentralRegistry
	}
	server, ok := r.table.Lookup(suffix)
	if !ok {
		if _, icann := publicsuffix.PublicSuffix(suffix); !icann {
			return "", ErrUnknownSuffix
		}
	}
	if server != "" {
		return server, nil
	}
	return r.pick(r.referers(ctx, suffix)), nil
}

// referers returns the (cached) addresses of the referer for the specified
// suffix, as delegated by IANA.
func (r *Resolver) referers(ctx context.Context, suffix string) []string {
	if candidates, ok := r.cache.Get(suffix); ok {
		return candidates.([]string)
	}
	return r.infl.Do(ctx, suffix, func() []string {
		// Another lookup might have finished in the meantime.
		if candidates, ok := r.cache.Get(suffix); ok {
			return candidates.([]string)
		}
		record := r.whois.Query(ctx, IANAServer, suffix)
		if record == "" {
			// No answer at all, so don't cache this and try again later.
			r.log.Warn().Str("suffix", suffix).Msg("IANA didn't answer referer query")
			return nil
		}
		var candidates []string
		if host := whoisoracle.Referral(record); host != "" {
			candidates = r.dns.LookupHost(ctx, host)
			if len(candidates) == 0 {
				r.log.Warn().Str("suffix", suffix).Str("referer", host).
					Msg("cannot resolve referer")
			}
		} else {
			r.log.Warn().Str("suffix", suffix).Msg("no referer for suffix")
		}
		if candidates == nil {
			candidates = []string{}
		}
		r.cache.SetDefault(suffix, candidates)
		return candidates
	})
}

// pick returns one of the candidates at random, or an empty string if there
// are no candidates.
func (r *Resolver) pick(candidates []string) string {
	switch len(candidates) {
	case 0:
		return ""
	case 1:
		return candidates[0]
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return candidates[r.rnd.Intn(len(candidates))]
}
