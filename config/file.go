// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to keep the TOML
// file friendly. Unset (zero or nil) fields leave the defaults untouched.
type FileConfig struct {
	Whois     *bool `toml:"whois"`
	HTTPCodes *bool `toml:"http_codes"`
	ICMP      *bool `toml:"icmp"`
	Local     *bool `toml:"local"`
	IDNA      *bool `toml:"idna"`

	DNSServers   []string `toml:"dns_servers"`
	DNSProtocol  string   `toml:"dns_protocol"`
	DNSTimeout   string   `toml:"dns_timeout"`
	DNSLifetime  string   `toml:"dns_lifetime"`
	WhoisTimeout string   `toml:"whois_timeout"`
	WhoisRate    string   `toml:"whois_rate"`
	HTTPTimeout  string   `toml:"http_timeout"`
	UserAgent    string   `toml:"user_agent"`
	NetNS        string   `toml:"netns"`

	HTTPActive          []int `toml:"http_active"`
	HTTPPotentiallyUp   []int `toml:"http_potentially_up"`
	HTTPPotentiallyDown []int `toml:"http_potentially_down"`

	SuffixFile string `toml:"suffix_file"`

	Workers         int      `toml:"workers"`
	Cooldown        string   `toml:"cooldown"`
	MergeMode       string   `toml:"merge_mode"`
	Complements     *bool    `toml:"complements"`
	Mining          *bool    `toml:"mining"`
	IgnorePatterns  []string `toml:"ignore_patterns"`
	SkipReservedIPs *bool    `toml:"skip_reserved_ips"`

	OutputDir      string `toml:"output_dir"`
	Backend        string `toml:"db_backend"`
	AutoContinue   *bool  `toml:"autocontinue"`
	RetestInterval string `toml:"retest_interval"`
	Retention      string `toml:"retention"`

	CI             *bool  `toml:"ci"`
	AutosaveBudget string `toml:"autosave"`
	PreExitCommand string `toml:"ci_pre_exit_command"`
	CommitCommand  string `toml:"ci_commit_command"`
	FinalCommand   string `toml:"ci_final_command"`
	CommitMessage  string `toml:"ci_commit_message"`
	FinalCommitMsg string `toml:"ci_final_commit_message"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path, that is,
// ~/.reachdig/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".reachdig", "config.toml")
	}
	return ""
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ApplyFileConfig applies configuration from a file to the Config struct. It
// respects flags that have been explicitly set (changed map, keyed by flag
// name).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setBool("whois", fc.Whois, &cfg.Whois)
	s.setBool("http-codes", fc.HTTPCodes, &cfg.HTTPCodes)
	s.setBool("icmp", fc.ICMP, &cfg.ICMP)
	s.setBool("local", fc.Local, &cfg.Local)
	s.setBool("idna", fc.IDNA, &cfg.IDNA)
	s.setBool("complements", fc.Complements, &cfg.Complements)
	s.setBool("mining", fc.Mining, &cfg.Mining)
	s.setBool("skip-reserved", fc.SkipReservedIPs, &cfg.SkipReservedIPs)
	s.setBool("autocontinue", fc.AutoContinue, &cfg.AutoContinue)
	s.setBool("ci", fc.CI, &cfg.CI)

	s.setStrings("dns-server", fc.DNSServers, &cfg.DNSServers)
	s.setStrings("ignore", fc.IgnorePatterns, &cfg.IgnorePatterns)
	s.setInts("", fc.HTTPActive, &cfg.HTTPActive)
	s.setInts("", fc.HTTPPotentiallyUp, &cfg.HTTPPotentiallyUp)
	s.setInts("", fc.HTTPPotentiallyDown, &cfg.HTTPPotentiallyDown)

	s.setString("dns-protocol", fc.DNSProtocol, &cfg.DNSProtocol)
	s.setString("user-agent", fc.UserAgent, &cfg.UserAgent)
	s.setString("netns", fc.NetNS, &cfg.NetNS)
	s.setString("suffix-file", fc.SuffixFile, &cfg.SuffixFile)
	s.setString("output", fc.OutputDir, &cfg.OutputDir)
	s.setString("ci-pre-exit", fc.PreExitCommand, &cfg.PreExitCommand)
	s.setString("ci-commit", fc.CommitCommand, &cfg.CommitCommand)
	s.setString("ci-final", fc.FinalCommand, &cfg.FinalCommand)
	s.setString("", fc.CommitMessage, &cfg.CommitMessage)
	s.setString("", fc.FinalCommitMsg, &cfg.FinalCommitMsg)
	if fc.MergeMode != "" && !changed["merge"] {
		cfg.MergeMode = MergeMode(fc.MergeMode)
	}
	if fc.Backend != "" && !changed["db-backend"] {
		cfg.Backend = Backend(fc.Backend)
	}

	s.setInt("workers", fc.Workers, &cfg.Workers)

	for _, d := range []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"dns-timeout", fc.DNSTimeout, &cfg.DNSTimeout},
		{"dns-lifetime", fc.DNSLifetime, &cfg.DNSLifetime},
		{"whois-timeout", fc.WhoisTimeout, &cfg.WhoisTimeout},
		{"whois-rate", fc.WhoisRate, &cfg.WhoisRate},
		{"http-timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
		{"cooldown", fc.Cooldown, &cfg.Cooldown},
		{"retest-interval", fc.RetestInterval, &cfg.RetestInterval},
		{"retention", fc.Retention, &cfg.Retention},
		{"autosave", fc.AutosaveBudget, &cfg.AutosaveBudget},
	} {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}
	return nil
}

// configSetter helps apply configuration values while respecting flag
// precedence: it only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]string(nil), value...)
}

func (s *configSetter) setInts(flag string, value []int, dst *[]int) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = append([]int(nil), value...)
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not
// changed. Besides Go durations it accepts a plain number of days with a "d"
// suffix, such as "28d".
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// ParseDuration parses a Go duration string, additionally accepting whole days
// in the form "<n>d".
func ParseDuration(value string) (time.Duration, error) {
	if n := len(value); n > 1 && value[n-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(value[:n-1], "%d", &days); err == nil && fmt.Sprint(days) == value[:n-1] {
			return time.Duration(days) * 24 * time.Hour, nil
		}
	}
	return time.ParseDuration(value)
}
