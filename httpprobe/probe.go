// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package httpprobe

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NoAnswer is the status code reported when a probe didn't get any HTTP
// answer at all.
const NoAnswer = 0

// maxRedirects limits how far the redirect miner follows a chain.
const maxRedirects = 10

// Prober probes HTTP(S) endpoints for their status codes.
//
// A Prober is safe for concurrent use.
type Prober struct {
	client    *http.Client
	userAgent string
	log       zerolog.Logger
}

// ProberOption can be passed to New when creating new [Prober] objects.
type ProberOption func(*Prober)

// New returns a new [Prober]. Probes default to a timeout of 5s and do not
// verify TLS certificates: a broken certificate still proves a listening web
// server.
func New(options ...ProberOption) *Prober {
	p := &Prober{
		client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				Proxy:             http.ProxyFromEnvironment,
				TLSClientConfig:   &tls.Config{InsecureSkipVerify: true}, // #nosec G402
				DisableKeepAlives: true,
			},
		},
		log: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// WithTimeout sets the overall time budget of a single probe.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *Prober) {
		p.client.Timeout = timeout
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ProberOption {
	return func(p *Prober) {
		p.userAgent = ua
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(log zerolog.Logger) ProberOption {
	return func(p *Prober) {
		p.log = log
	}
}

// WithTransport replaces the HTTP transport, such as for tests.
func WithTransport(rt http.RoundTripper) ProberOption {
	return func(p *Prober) {
		p.client.Transport = rt
	}
}

// URLFor returns the URL to probe for a domain or IP address subject.
func URLFor(host string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]" // IPv6 literal
	}
	return "http://" + host + "/"
}

// StatusCode sends a HEAD request to the specified URL without following any
// redirect and returns the status code of the answer, or [NoAnswer].
func (p *Prober) StatusCode(ctx context.Context, rawURL string) int {
	req, err := p.request(ctx, rawURL)
	if err != nil {
		return NoAnswer
	}
	clnt := *p.client
	clnt.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := clnt.Do(req)
	if err != nil {
		p.log.Debug().Str("url", rawURL).Err(err).Msg("no HTTP answer")
		return NoAnswer
	}
	resp.Body.Close()
	return resp.StatusCode
}

// Redirects follows the redirect chain starting at the specified URL and
// returns the (lower-case) host names along the chain, excluding the starting
// host. It returns nil if there are no redirects to other hosts.
func (p *Prober) Redirects(ctx context.Context, rawURL string) []string {
	start, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	req, err := p.request(ctx, rawURL)
	if err != nil {
		return nil
	}
	seen := map[string]struct{}{strings.ToLower(start.Hostname()): {}}
	var hosts []string
	clnt := *p.client
	clnt.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return errStopRedirects
		}
		host := strings.ToLower(req.URL.Hostname())
		if _, ok := seen[host]; !ok {
			seen[host] = struct{}{}
			hosts = append(hosts, host)
		}
		return nil
	}
	resp, err := clnt.Do(req)
	if err == nil {
		resp.Body.Close()
	}
	return hosts
}

var errStopRedirects = errors.New("too many redirects")

func (p *Prober) request(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	return req, nil
}
