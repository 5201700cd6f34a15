// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package checkpoint

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/siemens/reachdig/config"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("checkpoint scheduler", func() {

	var (
		cfg   config.Config
		now   time.Time
		clock func() time.Time
		hooks []string
	)

	BeforeEach(func() {
		cfg = config.Default()
		cfg.AutosaveBudget = 10 * time.Minute
		now = time.Date(2023, time.June, 1, 12, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }
		hooks = nil
	})

	recorder := func(ctx context.Context, command, message string) error {
		hooks = append(hooks, command+": "+message)
		if command == "fail" {
			return errors.New("D'oh!")
		}
		return nil
	}

	It("checkpoints when the budget is used up", func() {
		s := New(cfg, WithClock(clock))
		Expect(s.ShouldCheckpointNow()).To(BeFalse())
		now = now.Add(10*time.Minute - time.Second)
		Expect(s.ShouldCheckpointNow()).To(BeFalse())
		now = now.Add(time.Second)
		Expect(s.ShouldCheckpointNow()).To(BeTrue())
		Expect(s.Elapsed()).To(Equal(10 * time.Minute))
	})

	It("checkpoints when forced", func(ctx context.Context) {
		s := New(cfg, WithClock(clock))
		s.Force()
		Expect(s.ShouldCheckpointNow()).To(BeTrue())
		Expect(s.Checkpoint(ctx, false)).To(Succeed())
		Expect(s.ShouldCheckpointNow()).To(BeFalse())
	})

	It("never checkpoints without budget unless forced", func() {
		cfg.AutosaveBudget = 0
		s := New(cfg, WithClock(clock))
		now = now.Add(1000 * time.Hour)
		Expect(s.ShouldCheckpointNow()).To(BeFalse())
	})

	It("persists and restarts the budget outside CI", func(ctx context.Context) {
		var persisted []string
		s := New(cfg, WithClock(clock), WithHookRunner(recorder), WithPersisters(
			func(context.Context) error {
				persisted = append(persisted, "a")
				return nil
			},
			func(context.Context) error {
				persisted = append(persisted, "b")
				return nil
			},
		))
		now = now.Add(11 * time.Minute)
		Expect(s.ShouldCheckpointNow()).To(BeTrue())
		Expect(s.Checkpoint(ctx, false)).To(Succeed())
		Expect(persisted).To(Equal([]string{"a", "b"}))
		Expect(hooks).To(BeEmpty())
		Expect(s.ShouldCheckpointNow()).To(BeFalse())

		cfg.PreExitCommand = "pre"
		s = New(cfg, WithClock(clock), WithHookRunner(recorder))
		Expect(s.Checkpoint(ctx, false)).To(Succeed())
		Expect(hooks).To(Equal([]string{"pre: reachdig: autosave"}))
	})

	It("reports persistence failures", func(ctx context.Context) {
		s := New(cfg, WithClock(clock), WithPersisters(
			func(context.Context) error { return errors.New("disk full") }))
		Expect(s.Checkpoint(ctx, false)).To(MatchError(ContainSubstring("disk full")))
	})

	Context("CI mode", func() {

		BeforeEach(func() {
			cfg.CI = true
			cfg.PreExitCommand = "pre"
			cfg.CommitCommand = "commit"
			cfg.FinalCommand = "final"
			cfg.CommitMessage = "autosave"
			cfg.FinalCommitMsg = "done"
		})

		It("asks to exit after committing", func(ctx context.Context) {
			s := New(cfg, WithClock(clock), WithHookRunner(recorder))
			Expect(s.Checkpoint(ctx, false)).To(MatchError(ErrCheckpointExit))
			Expect(hooks).To(Equal([]string{"pre: autosave", "commit: autosave"}))
		})

		It("runs the final command on the final checkpoint", func(ctx context.Context) {
			s := New(cfg, WithClock(clock), WithHookRunner(recorder))
			Expect(s.Checkpoint(ctx, true)).To(Succeed())
			Expect(hooks).To(Equal([]string{"pre: done", "final: done"}))
		})

		It("doesn't exit when the commit fails", func(ctx context.Context) {
			cfg.CommitCommand = "fail"
			s := New(cfg, WithClock(clock), WithHookRunner(recorder))
			err := s.Checkpoint(ctx, false)
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(ErrCheckpointExit))
		})

		It("runs shell hooks", func(ctx context.Context) {
			out := filepath.Join(GinkgoT().TempDir(), "msg")
			cfg.PreExitCommand = ""
			cfg.CommitCommand = `printf '%s' "$` + CommitMessageEnv + `" > ` + out
			s := New(cfg, WithClock(clock))
			Expect(s.Checkpoint(ctx, false)).To(MatchError(ErrCheckpointExit))
			Expect(os.ReadFile(out)).To(Equal([]byte("autosave")))
		})

	})

})
