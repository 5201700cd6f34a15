/*
Package status decides the availability of subjects by chaining unreliable
oracles (WHOIS, DNS, HTTP and optionally ICMP) into a single consensus
verdict.

For domains and IP addresses, a [Resolver] runs the following steps:

 1. grammar check: malformed subjects are INVALID, without any network
    traffic. IP addresses and local-network subjects skip directly to
    step 5.
 2. referer lookup: suffixes without central registry are DOWN, unknown
    suffixes INVALID.
 3. WHOIS query: no answer means DOWN.
 4. WHOIS record parsing: a digit-free expiration date means DOWN, with no
    further oracle being able to change this verdict. A parsed expiration
    date means UP. Records without (parseable) expiration date are
    inconclusive.
 5. DNS existence check, followed by the HTTP status code overlay: an
    “active” status code turns a DOWN into an UP, while recording the
    earlier DOWN as the analytic POTENTIALLY_UP side-signal.

URLs only get their grammar checked, followed by a single HTTP probe.
*/
package status
