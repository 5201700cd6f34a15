// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/batch"
	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/dnsworker"
	"github.com/siemens/reachdig/httpprobe"
	"github.com/siemens/reachdig/ping"
	"github.com/siemens/reachdig/referer"
	"github.com/siemens/reachdig/status"
	"github.com/siemens/reachdig/whoisoracle"
)

// newResolverFactory returns a factory creating the status resolvers of the
// workers. The WHOIS client and the referer resolver are safe for concurrent
// use and thus shared by all workers, so that rate limits and cached
// referers apply across workers. Each worker gets its own DNS resolver and
// HTTP prober.
func newResolverFactory(cfg config.Config, log zerolog.Logger) (batch.ResolverFactory, error) {
	whois := whoisoracle.New(
		whoisoracle.WithTimeout(cfg.WhoisTimeout),
		whoisoracle.WithRateLimit(cfg.WhoisRate),
		whoisoracle.WithLogger(log))
	refdns, err := newDNSResolver(cfg, log)
	if err != nil {
		return nil, err
	}
	table := referer.DefaultTable()
	if cfg.SuffixFile != "" {
		table, err = referer.LoadTable(cfg.SuffixFile)
		if err != nil {
			return nil, err
		}
	}
	referers := referer.New(whois, refdns,
		referer.WithTable(table),
		referer.WithLogger(log))

	return func(cfg config.Config, cache status.ExpirationCache) (batch.Resolver, error) {
		dnsr, err := newDNSResolver(cfg, log)
		if err != nil {
			return nil, err
		}
		oracles := status.Oracles{
			DNS:     dnsr,
			Whois:   whois,
			Referer: referers,
			HTTP: httpprobe.New(
				httpprobe.WithTimeout(cfg.HTTPTimeout),
				httpprobe.WithUserAgent(cfg.UserAgent),
				httpprobe.WithLogger(log)),
		}
		if cfg.ICMP {
			oracles.Ping = ping.New(
				ping.InNetworkNamespace(cfg.NetNS),
				ping.WithLogger(log))
		}
		return status.New(cfg, oracles,
			status.WithExpirationCache(cache),
			status.WithLogger(log)), nil
	}, nil
}

func newDNSResolver(cfg config.Config, log zerolog.Logger) (*dnsworker.Resolver, error) {
	options := []dnsworker.ResolverOption{
		dnsworker.WithProtocol(cfg.DNSProtocol),
		dnsworker.WithTimeout(cfg.DNSTimeout),
		dnsworker.WithLifetime(cfg.DNSLifetime),
		dnsworker.InNetworkNamespace(cfg.NetNS),
		dnsworker.WithLogger(log),
	}
	if len(cfg.DNSServers) > 0 {
		options = append(options, dnsworker.WithServers(cfg.DNSServers...))
	}
	r, err := dnsworker.New(options...)
	if err != nil {
		return nil, fmt.Errorf("cannot create DNS resolver: %w", err)
	}
	return r, nil
}
