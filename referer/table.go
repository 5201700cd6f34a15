// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package referer

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed suffixes.yaml
var defaultSuffixes []byte

// Table maps suffixes (without leading dot) onto their WHOIS servers. An
// empty server tells a [Resolver] to ask IANA instead.
type Table struct {
	Servers    map[string]string `yaml:"servers"`
	NoRegistry []string          `yaml:"no_registry"`

	noRegistry map[string]struct{}
}

// DefaultTable returns the built-in suffix table.
func DefaultTable() *Table {
	t, err := parseTable(defaultSuffixes)
	if err != nil {
		panic(fmt.Errorf("invalid built-in suffix table: %w", err))
	}
	return t
}

// LoadTable reads a suffix table from the specified YAML or JSON file and
// merges it on top of the built-in table: entries from the file take
// precedence.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read suffix table: %w", err)
	}
	t, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("cannot parse suffix table %s: %w", path, err)
	}
	base := DefaultTable()
	for suffix, server := range t.Servers {
		base.Servers[suffix] = server
	}
	for suffix := range t.noRegistry {
		base.noRegistry[suffix] = struct{}{}
	}
	return base, nil
}

func parseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	servers := make(map[string]string, len(t.Servers))
	for suffix, server := range t.Servers {
		servers[normalizeSuffix(suffix)] = strings.ToLower(strings.TrimSpace(server))
	}
	t.Servers = servers
	t.noRegistry = make(map[string]struct{}, len(t.NoRegistry))
	for _, suffix := range t.NoRegistry {
		t.noRegistry[normalizeSuffix(suffix)] = struct{}{}
	}
	return &t, nil
}

func normalizeSuffix(suffix string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(suffix)), ".")
}

// Lookup returns the server for the specified suffix, and whether the suffix
// is in the table at all.
func (t *Table) Lookup(suffix string) (string, bool) {
	server, ok := t.Servers[suffix]
	return server, ok
}

// HasNoRegistry returns true if the specified suffix is operated without any
// central registry.
func (t *Table) HasNoRegistry(suffix string) bool {
	_, ok := t.noRegistry[suffix]
	return ok
}
