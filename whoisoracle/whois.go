// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package whoisoracle

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"
)

// Port is the well-known WHOIS port.
const Port = "43"

// maxRecordSize limits how much of a WHOIS record gets read.
const maxRecordSize = 1 << 20

// Client queries WHOIS servers over plain TCP. A Client never returns network
// errors: refused connections, timeouts and empty answers all result in an
// empty record.
//
// A Client is safe for concurrent use.
type Client struct {
	timeout  time.Duration
	interval time.Duration // minimum distance between queries to the same server.
	dialer   net.Dialer
	log      zerolog.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter // per WHOIS server
}

// ClientOption can be passed to New when creating new [Client] objects.
type ClientOption func(*Client)

// New returns a new WHOIS [Client]. The client defaults to a timeout of 5s per
// query and doesn't rate-limit queries.
func New(options ...ClientOption) *Client {
	c := &Client{
		timeout:  5 * time.Second,
		log:      zerolog.Nop(),
		limiters: map[string]*rate.Limiter{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// WithTimeout sets the time budget of a single query, including connecting
// and reading the complete record.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRateLimit sets the minimum distance between two queries to the same
// WHOIS server; registries tend to blacklist overly chatty clients. A zero
// interval disables rate limiting.
func WithRateLimit(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.interval = interval
	}
}

// WithLogger sets the logger for diagnostic output.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// Query sends the query (usually a domain name) to the specified WHOIS
// server, given as "host" or "host:port", and returns the record until the
// server closes the connection. Query returns an empty record when there is
// no answer within the timeout.
func (c *Client) Query(ctx context.Context, server, query string) string {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, Port)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if lim := c.limiter(server); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			c.log.Debug().Str("server", server).Err(err).Msg("WHOIS query rate-limited away")
			return ""
		}
	}
	conn, err := c.dialer.DialContext(ctx, "tcp", server)
	if err != nil {
		c.log.Debug().Str("server", server).Err(err).Msg("cannot connect to WHOIS server")
		return ""
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	if _, err := io.WriteString(conn, query+"\r\n"); err != nil {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(conn, maxRecordSize))
	if err != nil && len(raw) == 0 {
		c.log.Debug().Str("server", server).Err(err).Msg("no WHOIS answer")
		return ""
	}
	return c.decode(raw)
}

// limiter returns the rate limiter for the specified server, or nil if rate
// limiting is disabled.
func (c *Client) limiter(server string) *rate.Limiter {
	if c.interval <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[server]
	if !ok {
		lim = rate.NewLimiter(rate.Every(c.interval), 1)
		c.limiters[server] = lim
	}
	return lim
}

// decode turns a raw WHOIS record into text. Records are expected to be
// UTF-8, but quite some registries still answer in Latin-1; such records are
// re-decoded lossily instead of failing.
func (c *Client) decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	c.log.Debug().Msg("WHOIS record is not UTF-8, decoding as ISO-8859-1")
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "�")
	}
	return string(text)
}
