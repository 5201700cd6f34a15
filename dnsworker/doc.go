/*
Package dnsworker implements reachdig's DNS oracle. A [Resolver] asks a list of
DNS servers (explicitly configured, or from /etc/resolv.conf) and reduces their
answers to the question “does DNS know about this subject?”.

Usage

	resolver, err := dnsworker.New(
	    dnsworker.WithServers("9.9.9.9", "149.112.112.112"),
	    dnsworker.WithProtocol("tcp"),
	    dnsworker.WithLifetime(10*time.Second),
	)
	if resolver.Exists(ctx, subject) {
	    // ...
	}

Failed queries, timeouts and NXDOMAIN answers are never reported as errors:
they all mean “no answer”, which callers take as evidence of non-existence.

Queries can optionally be carried out from inside a different network
namespace using [InNetworkNamespace], for instance to check reachability as
seen from a container.

# Acknowledgements

Under its hood, [Resolver] leverages [miekg/dns] as its DNS client.

[miekg/dns]: https://github.com/miekg/dns
*/
package dnsworker
