/*
Package referer maps the suffix of a subject to the WHOIS server
authoritative for it, its “referer”.

The [Resolver] first consults its suffix [Table]: suffixes with a single known
WHOIS server return it directly. Suffixes operated without any central
registry yield [ErrNoCentralRegistry], while suffixes that are neither in the
table nor ICANN-managed according to the public suffix list yield
[ErrUnknownSuffix]. All other suffixes are looked up at the IANA root WHOIS
server, which answers with a “refer:” line; the referred host then gets
resolved via DNS and one of its addresses picked at random.

IANA referrals are cached for a limited time and concurrent lookups of the
same suffix are coalesced into a single IANA query.
*/
package referer
