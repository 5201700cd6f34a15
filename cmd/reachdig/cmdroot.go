// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRootCmd() (rootCmd *cobra.Command) {
	cfg := config.Default()
	var (
		configPath      string
		files           []string
		debug           bool
		noProgress      bool
		mergeMode       string
		backend         string
		spinnerInterval time.Duration
	)
	rootCmd = &cobra.Command{
		Use:           "reachdig [flags] [subject...]",
		Short:         "reachdig tests domains, IP addresses and URLs for their availability",
		Version:       "0.9",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			cfg.MergeMode = config.MergeMode(mergeMode)
			cfg.Backend = config.Backend(backend)
			path := configPath
			if path == "" {
				if p := config.DefaultConfigPath(); p != "" && config.FileExists(p) {
					path = p
				}
			}
			if path != "" {
				fc, err := config.LoadFileConfig(path)
				if err != nil {
					return err
				}
				if err := config.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if len(files) == 0 && len(args) == 0 {
				return errors.New("neither source files nor subjects specified")
			}
			if spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), debug)
			log.Debug().Msg("debug logging enabled")
			var term io.Writer
			if !noProgress && isTerminal(cmd.OutOrStdout()) {
				term = cmd.OutOrStdout()
			}
			return digAndReport(cmd.Context(), cfg, files, args, reporting{
				term:            term,
				out:             cmd.OutOrStdout(),
				spinnerInterval: spinnerInterval,
			}, log)
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "enable debugging output")
	flags.StringVar(&configPath, "config", "", "TOML configuration file (default ~/.reachdig/config.toml)")
	flags.StringSliceVarP(&files, "file", "f", nil, "source file(s) listing subjects to test")
	flags.BoolVar(&noProgress, "no-progress", false, "don't render live progress")
	flags.DurationVar(&spinnerInterval, "spinner", 100*time.Millisecond, "spinner interval")

	flags.BoolVar(&cfg.Whois, "whois", cfg.Whois, "consult WHOIS before DNS")
	flags.BoolVar(&cfg.HTTPCodes, "http-codes", cfg.HTTPCodes, "overlay HTTP status codes onto verdicts")
	flags.BoolVar(&cfg.ICMP, "icmp", cfg.ICMP, "overlay ICMP echo replies onto verdicts of IP addresses")
	flags.BoolVar(&cfg.Local, "local", cfg.Local, "treat all subjects as local-network subjects")
	flags.BoolVar(&cfg.IDNA, "idna", cfg.IDNA, "convert internationalized names to ASCII")
	flags.BoolVar(&cfg.Complements, "complements", cfg.Complements, "also test www. complements")
	flags.BoolVar(&cfg.Mining, "mining", cfg.Mining, "also test hosts found along HTTP redirects")
	flags.BoolVar(&cfg.SkipReservedIPs, "skip-reserved", cfg.SkipReservedIPs, "skip reserved IP addresses")
	flags.BoolVar(&cfg.AutoContinue, "autocontinue", cfg.AutoContinue, "resume interrupted runs")
	flags.BoolVar(&cfg.CI, "ci", cfg.CI, "run in CI mode with autosave checkpoints")

	flags.StringSliceVar(&cfg.DNSServers, "dns-server", cfg.DNSServers, "DNS server(s) to ask (default from /etc/resolv.conf)")
	flags.StringSliceVar(&cfg.IgnorePatterns, "ignore", cfg.IgnorePatterns, "regular expression(s) of subjects to skip")
	flags.StringVar(&cfg.DNSProtocol, "dns-protocol", cfg.DNSProtocol, "DNS transport, udp or tcp")
	flags.StringVar(&cfg.UserAgent, "user-agent", cfg.UserAgent, "HTTP user agent")
	flags.StringVar(&cfg.NetNS, "netns", cfg.NetNS, "network namespace path to test from")
	flags.StringVar(&cfg.SuffixFile, "suffix-file", cfg.SuffixFile, "YAML or JSON table of suffix WHOIS servers")
	flags.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "output and dataset directory")
	flags.StringVar(&cfg.PreExitCommand, "ci-pre-exit", cfg.PreExitCommand, "command to run before each checkpoint exit")
	flags.StringVar(&cfg.CommitCommand, "ci-commit", cfg.CommitCommand, "command to run at intermediate CI checkpoints")
	flags.StringVar(&cfg.FinalCommand, "ci-final", cfg.FinalCommand, "command to run at the final CI checkpoint")
	flags.StringVar(&mergeMode, "merge", string(cfg.MergeMode), "merge results live or in batch")
	flags.StringVar(&backend, "db-backend", string(cfg.Backend), "dataset backend, json or sqlite")

	flags.IntVarP(&cfg.Workers, "workers", "w", cfg.Workers, "number of workers")
	flags.DurationVar(&cfg.DNSTimeout, "dns-timeout", cfg.DNSTimeout, "DNS query timeout")
	flags.DurationVar(&cfg.DNSLifetime, "dns-lifetime", cfg.DNSLifetime, "total DNS time per subject")
	flags.DurationVar(&cfg.WhoisTimeout, "whois-timeout", cfg.WhoisTimeout, "WHOIS query timeout")
	flags.DurationVar(&cfg.WhoisRate, "whois-rate", cfg.WhoisRate, "minimum interval between queries to the same WHOIS server")
	flags.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "HTTP probe timeout")
	flags.DurationVar(&cfg.Cooldown, "cooldown", cfg.Cooldown, "pause of a worker after each subject")
	flags.DurationVar(&cfg.RetestInterval, "retest-interval", cfg.RetestInterval, "minimum age of inactive subjects before retesting")
	flags.DurationVar(&cfg.Retention, "retention", cfg.Retention, "age after which inactive subjects get purged")
	flags.DurationVar(&cfg.AutosaveBudget, "autosave", cfg.AutosaveBudget, "time budget between checkpoints")
	return
}

// newLogger returns a console logger writing to w.
func newLogger(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

// isTerminal returns true if w is a terminal able to render live progress.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return termenv.NewOutput(f).Profile != termenv.Ascii
}
