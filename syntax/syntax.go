// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package syntax

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/asaskevich/govalidator"
	"golang.org/x/net/idna"

	"github.com/siemens/reachdig/types"
)

// IsValidDomain returns true if name is a syntactically valid, fully qualified
// domain name with at least two labels and a plausible top-level label. A
// single trailing dot is tolerated.
func IsValidDomain(name string) bool {
	name = strings.TrimSuffix(name, ".")
	if name == "" || len(name) > 253 || !strings.Contains(name, ".") {
		return false
	}
	if !govalidator.IsDNSName(name) {
		return false
	}
	tld := name[strings.LastIndexByte(name, '.')+1:]
	if strings.HasPrefix(tld, "xn--") {
		return len(tld) > 4
	}
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// IsValidIP returns true if addr is an IPv4 or IPv6 address literal.
func IsValidIP(addr string) bool {
	return govalidator.IsIP(addr)
}

// IsValidHostname returns true if name is a syntactically valid host name,
// including single-label names only meaningful on local networks.
func IsValidHostname(name string) bool {
	name = strings.TrimSuffix(name, ".")
	return name != "" && len(name) <= 253 && govalidator.IsDNSName(name)
}

// IsValidURL returns true if rawURL is an absolute http(s) URL whose host part
// is either a valid domain or IP address.
func IsValidURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := u.Hostname()
	return IsValidDomain(strings.ToLower(host)) || IsValidIP(host)
}

// reservedPrefixes lists special-purpose address blocks (RFC 6890 and
// friends) which never make sense to test for public availability.
var reservedPrefixes = func() []netip.Prefix {
	blocks := []string{
		"0.0.0.0/8", "10.0.0.0/8", "100.64.0.0/10", "127.0.0.0/8",
		"169.254.0.0/16", "172.16.0.0/12", "192.0.0.0/24", "192.0.2.0/24",
		"192.88.99.0/24", "192.168.0.0/16", "198.18.0.0/15", "198.51.100.0/24",
		"203.0.113.0/24", "224.0.0.0/4", "240.0.0.0/4", "255.255.255.255/32",
		"::/128", "::1/128", "64:ff9b::/96", "100::/64", "2001::/23",
		"2001:db8::/32", "fc00::/7", "fe80::/10", "ff00::/8",
	}
	prefixes := make([]netip.Prefix, 0, len(blocks))
	for _, block := range blocks {
		prefixes = append(prefixes, netip.MustParsePrefix(block))
	}
	return prefixes
}()

// IsReservedIP returns true if addr is an IP address literal from a reserved
// or private address block.
func IsReservedIP(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return false
	}
	ip = ip.Unmap()
	for _, prefix := range reservedPrefixes {
		if prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// localSuffixes are suffixes that never have a public registry behind them.
var localSuffixes = []string{".local", ".localhost", ".lan", ".home.arpa", ".internal"}

// IsLocal returns true for names under a local-network suffix and for
// reserved IP addresses. Single-label names are not considered local, as
// they are malformed unless local mode has been explicitly requested.
func IsLocal(name string) bool {
	for _, suffix := range localSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return IsReservedIP(name)
}

// Options control subject normalization.
type Options struct {
	IDNA  bool // convert internationalized names to their ASCII form.
	Local bool // treat every subject as a local-network subject.
}

// Normalize turns a raw line from a source list into a [types.Subject]. It
// strips comments and surrounding whitespace and lower-cases the subject.
// Normalize returns false for lines without any subject. Normalize does not
// validate the subject: grammar checks are left to the status resolver, so
// that invalid subjects still get their INVALID verdict.
func Normalize(line string, opts Options) (types.Subject, bool) {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return types.Subject{}, false
	}
	original := fields[0]
	// Hosts file style "0.0.0.0 example.org" lines carry the subject in
	// their second column.
	if len(fields) > 1 && IsValidIP(fields[0]) {
		original = fields[1]
	}
	subject := types.Subject{
		Original: original,
		Local:    opts.Local,
	}
	if strings.Contains(original, "://") {
		subject.Kind = types.URL
		subject.Name = original
		if u, err := url.Parse(original); err == nil {
			u.Scheme = strings.ToLower(u.Scheme)
			u.Host = strings.ToLower(u.Host)
			subject.Name = u.String()
			subject.Host = convert(u.Hostname(), opts.IDNA)
		}
		return subject, true
	}
	name := strings.ToLower(original)
	if IsValidIP(name) {
		subject.Kind = types.IP
		subject.Name = name
		subject.Local = subject.Local || IsReservedIP(name)
		return subject, true
	}
	subject.Kind = types.Domain
	subject.Name = convert(strings.TrimSuffix(name, "."), opts.IDNA)
	subject.Local = subject.Local || IsLocal(subject.Name)
	return subject, true
}

// convert optionally converts a (possibly internationalized) host name into
// its ASCII-compatible encoding; names that fail conversion are returned
// unchanged and will fail the later grammar checks.
func convert(name string, toASCII bool) string {
	if !toASCII {
		return name
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return name
	}
	return ascii
}
