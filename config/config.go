// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"regexp"
	"time"
)

// MergeMode selects how the batch coordinator merges worker results into its
// durable stores.
type MergeMode string

// The supported merge modes.
const (
	MergeBatch MergeMode = "batch" // merge once the worker pool drained.
	MergeLive  MergeMode = "live"  // merge each result as soon as it arrives.
)

// Backend selects the on-disk representation of the inactive and whois stores.
type Backend string

// The supported store backends.
const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

// Config is the complete, immutable configuration of a reachdig run. It is
// constructed once, validated, and then handed by value or pointer to every
// constructor; workers get their own deep copy via [Config.Clone].
type Config struct {
	// Oracle selection.
	Whois     bool // consult WHOIS before DNS/HTTP.
	HTTPCodes bool // overlay HTTP status codes onto DNS verdicts.
	ICMP      bool // overlay ICMP replies onto DNS verdicts of IP subjects.
	Local     bool // treat all subjects as local-network subjects.
	IDNA      bool // convert internationalized subjects to ASCII.

	// Oracle tuning.
	DNSServers   []string      // explicit resolvers; empty means /etc/resolv.conf.
	DNSProtocol  string        // "udp" or "tcp".
	DNSTimeout   time.Duration // per query.
	DNSLifetime  time.Duration // total time budget of one existence check.
	WhoisTimeout time.Duration
	WhoisRate    time.Duration // minimum distance between queries to the same WHOIS server; 0 disables.
	HTTPTimeout  time.Duration
	UserAgent    string
	NetNS        string // optional network namespace path for DNS lookups.

	// HTTP status code sets.
	HTTPActive          []int
	HTTPPotentiallyUp   []int
	HTTPPotentiallyDown []int

	// Suffix dataset.
	SuffixFile string // optional YAML/JSON suffix→WHOIS server table.

	// Batch orchestration.
	Workers         int
	Cooldown        time.Duration // sleep after each resolution inside a worker.
	MergeMode       MergeMode
	Complements     bool
	Mining          bool
	IgnorePatterns  []string // regular expressions of subjects never tested.
	SkipReservedIPs bool

	// Persistence.
	OutputDir      string
	Backend        Backend
	AutoContinue   bool
	RetestInterval time.Duration // minimum age before re-testing a non-up subject.
	Retention      time.Duration // age after which inactive entries get purged.

	// Checkpointing.
	CI             bool
	AutosaveBudget time.Duration
	PreExitCommand string
	CommitCommand  string
	FinalCommand   string
	CommitMessage  string
	FinalCommitMsg string
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Whois:               true,
		HTTPCodes:           true,
		IDNA:                true,
		DNSProtocol:         "udp",
		DNSTimeout:          3 * time.Second,
		DNSLifetime:         10 * time.Second,
		WhoisTimeout:        5 * time.Second,
		HTTPTimeout:         5 * time.Second,
		UserAgent:           "reachdig/1.0",
		HTTPActive:          []int{100, 101, 200, 201, 202, 203, 204, 205, 206},
		HTTPPotentiallyUp:   []int{300, 301, 302, 303, 304, 305, 307, 308, 403, 405, 406, 407, 408, 411, 413, 417, 500, 501, 502, 503, 504, 505},
		HTTPPotentiallyDown: []int{400, 402, 404, 409, 410, 412, 414, 415, 416, 451},
		Workers:             1,
		MergeMode:           MergeLive,
		OutputDir:           "output",
		Backend:             BackendJSON,
		AutoContinue:        true,
		RetestInterval:      24 * time.Hour,
		Retention:           28 * 24 * time.Hour,
		AutosaveBudget:      15 * time.Minute,
		CommitMessage:       "reachdig: autosave",
		FinalCommitMsg:      "reachdig: test results",
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Workers < 1 || c.Workers > 100 {
		return fmt.Errorf("workers out of range [1..100]")
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	switch c.DNSProtocol {
	case "udp", "tcp":
	default:
		return fmt.Errorf("dns protocol must be udp or tcp, got %q", c.DNSProtocol)
	}
	switch c.MergeMode {
	case MergeBatch, MergeLive:
	default:
		return fmt.Errorf("merge mode must be batch or live, got %q", c.MergeMode)
	}
	switch c.Backend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("store backend must be json or sqlite, got %q", c.Backend)
	}
	if c.DNSTimeout <= 0 || c.WhoisTimeout <= 0 || c.HTTPTimeout <= 0 {
		return fmt.Errorf("oracle timeouts must be positive")
	}
	if c.DNSLifetime < c.DNSTimeout {
		return fmt.Errorf("dns lifetime must be at least the dns timeout")
	}
	if c.RetestInterval <= 0 || c.Retention <= 0 {
		return fmt.Errorf("retest interval and retention must be positive")
	}
	if c.CI && c.AutosaveBudget <= 0 {
		return fmt.Errorf("autosave budget must be positive in CI mode")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if _, err := c.IgnoreRegexps(); err != nil {
		return err
	}
	return nil
}

// IgnoreRegexps compiles the ignore patterns.
func (c *Config) IgnoreRegexps() ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(c.IgnorePatterns))
	for _, pattern := range c.IgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Clone returns a deep copy of the configuration, sharing no slices with the
// original.
func (c Config) Clone() Config {
	c.DNSServers = append([]string(nil), c.DNSServers...)
	c.HTTPActive = append([]int(nil), c.HTTPActive...)
	c.HTTPPotentiallyUp = append([]int(nil), c.HTTPPotentiallyUp...)
	c.HTTPPotentiallyDown = append([]int(nil), c.HTTPPotentiallyDown...)
	c.IgnorePatterns = append([]string(nil), c.IgnorePatterns...)
	return c
}
