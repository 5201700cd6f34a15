// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"

	"github.com/siemens/reachdig/types"
)

// DefaultResolvConf is where the system's resolver configuration is read from
// when no explicit DNS servers have been specified.
const DefaultResolvConf = "/etc/resolv.conf"

// Resolver is the DNS oracle. It answers questions by asking a list of DNS
// servers in order, until one of them gives an authoritative answer. Resolver
// never returns network errors: a question without answer simply yields no
// records, as absence of an answer is evidence in itself.
//
// A Resolver is safe for concurrent use by multiple batch workers.
type Resolver struct {
	client   *dns.Client
	servers  []string           // "host:port" of the DNS servers to ask.
	lifetime time.Duration      // overall time budget for a single question.
	netns    relations.Relation // network namespace to resolve from, or nil.
	log      zerolog.Logger
}

// ResolverOption can be passed to New when creating new [Resolver] objects.
type ResolverOption func(*Resolver)

// New returns a new DNS [Resolver]. Unless the [WithServers] option is given,
// New picks up the DNS servers configured in /etc/resolv.conf.
//
// The resolver defaults to UDP transport, a per-query timeout of 3s and an
// overall lifetime of 10s per question.
func New(options ...ResolverOption) (*Resolver, error) {
	r := &Resolver{
		client: &dns.Client{
			Net:     "udp",
			Timeout: 3 * time.Second,
		},
		lifetime: 10 * time.Second,
		log:      zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	if len(r.servers) == 0 {
		cc, err := dns.ClientConfigFromFile(DefaultResolvConf)
		if err != nil {
			return nil, fmt.Errorf("cannot determine system DNS servers: %w", err)
		}
		for _, server := range cc.Servers {
			r.servers = append(r.servers, net.JoinHostPort(server, cc.Port))
		}
		if len(r.servers) == 0 {
			return nil, fmt.Errorf("no DNS servers configured in %s", DefaultResolvConf)
		}
	}
	return r, nil
}

// WithServers sets the DNS servers to ask, in "host" or "host:port" notation.
func WithServers(servers ...string) ResolverOption {
	return func(r *Resolver) {
		r.servers = nil
		for _, server := range servers {
			if _, _, err := net.SplitHostPort(server); err != nil {
				server = net.JoinHostPort(server, "53")
			}
			r.servers = append(r.servers, server)
		}
	}
}

// WithProtocol sets the DNS transport, either "udp" or "tcp".
func WithProtocol(proto string) ResolverOption {
	return func(r *Resolver) {
		r.client.Net = proto
	}
}

// WithTimeout sets the timeout of individual DNS queries.
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.client.Timeout = timeout
	}
}

// WithLifetime sets the overall time budget for answering a single question,
// including asking further servers after a failed query.
func WithLifetime(lifetime time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.lifetime = lifetime
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(log zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.log = log
	}
}

// InNetworkNamespace optionally runs the DNS queries of a Resolver inside the
// network namespace referenced by the specified filesystem path (such as
// "/proc/666/ns/net"). An empty path keeps the current network namespace.
func InNetworkNamespace(netnsref string) ResolverOption {
	return func(r *Resolver) {
		if netnsref == "" {
			return
		}
		r.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// Servers returns the DNS servers this resolver asks.
func (r *Resolver) Servers() []string {
	return append([]string(nil), r.servers...)
}

// Lookup asks for the records of the specified type and returns them in
// textual form (addresses, target names). Lookup returns nil if there are no
// records, the name does not exist, or none of the servers answered in time.
func (r *Resolver) Lookup(ctx context.Context, name string, qtype uint16) []string {
	ctx, cancel := context.WithTimeout(ctx, r.lifetime)
	defer cancel()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), qtype)
	msg.RecursionDesired = true

	for _, server := range r.servers {
		// don't try to ask further servers if the context has been cancelled
		// or our lifetime is over.
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		resp, err := r.exchange(ctx, msg, server)
		if err != nil {
			r.log.Debug().Str("name", name).Str("server", server).Err(err).Msg("DNS query failed")
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
			return answers(resp, qtype)
		case dns.RcodeNameError:
			return nil // NXDOMAIN is final, asking others won't change it.
		default:
			r.log.Debug().Str("name", name).Str("server", server).
				Str("rcode", dns.RcodeToString[resp.Rcode]).Msg("DNS server refused answer")
		}
	}
	return nil
}

// exchange sends a single DNS query to a particular server, switching into the
// configured network namespace if necessary.
func (r *Resolver) exchange(ctx context.Context, msg *dns.Msg, server string) (*dns.Msg, error) {
	query := func() interface{} {
		resp, _, err := r.client.ExchangeContext(ctx, msg.Copy(), server)
		if err != nil {
			return err
		}
		if resp.Truncated && r.client.Net == "udp" {
			tcpclnt := *r.client
			tcpclnt.Net = "tcp"
			if resp, _, err = tcpclnt.ExchangeContext(ctx, msg.Copy(), server); err != nil {
				return err
			}
		}
		return resp
	}
	var res interface{}
	if r.netns != nil {
		var err error
		// lxkns' ops.Execute differentiates between a namespace switching
		// error and the result of the function called in the switched
		// namespaces.
		res, err = ops.Execute(query, r.netns)
		if err != nil {
			return nil, err
		}
	} else {
		res = query()
	}
	if err, ok := res.(error); ok {
		return nil, err
	}
	return res.(*dns.Msg), nil
}

// answers extracts the textual record data of the requested type from a DNS
// response.
func answers(resp *dns.Msg, qtype uint16) []string {
	var records []string
	for _, rr := range resp.Answer {
		if rr.Header().Rrtype != qtype {
			continue
		}
		switch rr := rr.(type) {
		case *dns.A:
			records = append(records, rr.A.String())
		case *dns.AAAA:
			records = append(records, rr.AAAA.String())
		case *dns.NS:
			records = append(records, rr.Ns)
		case *dns.CNAME:
			records = append(records, rr.Target)
		case *dns.PTR:
			records = append(records, rr.Ptr)
		default:
			records = append(records,
				strings.TrimSpace(strings.TrimPrefix(rr.String(), rr.Header().String())))
		}
	}
	return records
}

// LookupHost returns the IPv4 and IPv6 addresses of a host name, or nil.
func (r *Resolver) LookupHost(ctx context.Context, host string) []string {
	var addrs []string
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		addrs = append(addrs, r.Lookup(ctx, host, qtype)...)
	}
	return addrs
}

// Exists checks whether DNS knows about a subject. Domains exist as soon as
// any of NS, A, AAAA, or CNAME records are found, checked in this order. IP
// addresses exist if they have reverse PTR records.
func (r *Resolver) Exists(ctx context.Context, subject types.Subject) bool {
	name := subject.Name
	if subject.Kind == types.URL {
		name = subject.Host
	}
	if ip := net.ParseIP(name); ip != nil {
		arpa, err := dns.ReverseAddr(name)
		if err != nil {
			return false
		}
		return len(r.Lookup(ctx, arpa, dns.TypePTR)) > 0
	}
	for _, qtype := range []uint16{dns.TypeNS, dns.TypeA, dns.TypeAAAA, dns.TypeCNAME} {
		if len(r.Lookup(ctx, name, qtype)) > 0 {
			return true
		}
	}
	return false
}
