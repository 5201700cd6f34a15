// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package config_test

import (
	"os"
	"path/filepath"
	"time"

	"github.com/siemens/reachdig/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("configuration", func() {

	It("has valid defaults", func() {
		cfg := config.Default()
		Expect(cfg.Validate()).To(Succeed())
		Expect(cfg.RetestInterval).To(Equal(24 * time.Hour))
		Expect(cfg.HTTPActive).To(ContainElement(200))
		Expect(cfg.HTTPPotentiallyUp).To(ContainElement(403))
		Expect(cfg.HTTPPotentiallyDown).NotTo(ContainElement(403))
	})

	DescribeTable("rejects invalid settings",
		func(mod func(*config.Config)) {
			cfg := config.Default()
			mod(&cfg)
			Expect(cfg.Validate()).NotTo(Succeed())
		},
		Entry("no workers", func(c *config.Config) { c.Workers = 0 }),
		Entry("too many workers", func(c *config.Config) { c.Workers = 101 }),
		Entry("bad dns protocol", func(c *config.Config) { c.DNSProtocol = "quic" }),
		Entry("bad merge mode", func(c *config.Config) { c.MergeMode = "eventually" }),
		Entry("bad backend", func(c *config.Config) { c.Backend = "csv" }),
		Entry("short lifetime", func(c *config.Config) { c.DNSLifetime = time.Millisecond }),
		Entry("bad ignore regexp", func(c *config.Config) { c.IgnorePatterns = []string{"("} }),
		Entry("no output", func(c *config.Config) { c.OutputDir = "" }),
		Entry("CI without budget", func(c *config.Config) { c.CI = true; c.AutosaveBudget = 0 }),
	)

	It("deep-copies", func() {
		cfg := config.Default()
		cfg.DNSServers = []string{"192.0.2.53:53"}
		clone := cfg.Clone()
		clone.DNSServers[0] = "198.51.100.53:53"
		clone.HTTPActive[0] = 999
		Expect(cfg.DNSServers[0]).To(Equal("192.0.2.53:53"))
		Expect(cfg.HTTPActive[0]).To(Equal(100))
	})

	It("parses day durations", func() {
		Expect(config.ParseDuration("28d")).To(Equal(28 * 24 * time.Hour))
		Expect(config.ParseDuration("90m")).To(Equal(90 * time.Minute))
		_, err := config.ParseDuration("1.5d")
		Expect(err).To(HaveOccurred())
	})

	It("applies a TOML file, respecting changed flags", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(path, []byte(`
workers = 8
whois = false
dns_servers = ["9.9.9.9:53"]
retention = "7d"
merge_mode = "batch"
cooldown = "250ms"
`), 0o600)).To(Succeed())

		fc := Successful(config.LoadFileConfig(path))
		cfg := config.Default()
		cfg.Workers = 2
		Expect(config.ApplyFileConfig(&cfg, fc, map[string]bool{"workers": true})).To(Succeed())
		Expect(cfg.Workers).To(Equal(2))
		Expect(cfg.Whois).To(BeFalse())
		Expect(cfg.DNSServers).To(ConsistOf("9.9.9.9:53"))
		Expect(cfg.Retention).To(Equal(7 * 24 * time.Hour))
		Expect(cfg.MergeMode).To(Equal(config.MergeBatch))
		Expect(cfg.Cooldown).To(Equal(250 * time.Millisecond))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("reports broken files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.toml")
		Expect(os.WriteFile(path, []byte(`workers = "many`), 0o600)).To(Succeed())
		_, err := config.LoadFileConfig(path)
		Expect(err).To(HaveOccurred())

		cfg := config.Default()
		Expect(config.ApplyFileConfig(&cfg, config.FileConfig{Cooldown: "soon"}, nil)).NotTo(Succeed())
	})

})
