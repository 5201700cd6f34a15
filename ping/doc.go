/*
Package ping implements an ICMP(v4/v6)-based reachability side-signal for IP
address subjects.

IP addresses without reverse DNS records are quite common, so a DNS-only
verdict would declare plenty of perfectly alive hosts as down. When enabled,
the status resolver additionally asks a [Pinger] and upgrades a DNS-derived
DOWN verdict to UP if the address answers echo requests.

Privileged ICMP requires either root or the CAP_NET_RAW capability; use
[AsUnprivileged] for UDP-based “pings” on systems allowing them via
net.ipv4.ping_group_range.

# Acknowledgements

Under its hood, [Pinger] leverages [go-ping/ping].

[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
