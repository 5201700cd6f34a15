// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/siemens/reachdig/config"
)

// ErrCheckpointExit asks the caller to end the process with exit code 0 after
// a CI checkpoint.
var ErrCheckpointExit = errors.New("checkpoint reached, exiting for continuation")

// CommitMessageEnv is the name of the environment variable passing the commit
// message to hook commands.
const CommitMessageEnv = "REACHDIG_COMMIT_MESSAGE"

// Persister makes some state durable.
type Persister func(ctx context.Context) error

// HookRunner runs a hook command with the specified commit message.
type HookRunner func(ctx context.Context, command, message string) error

// Scheduler decides when to checkpoint and carries out checkpoints.
type Scheduler struct {
	cfg        config.Config
	now        func() time.Time
	run        HookRunner
	log        zerolog.Logger
	persisters []Persister

	mu     sync.Mutex
	start  time.Time
	forced bool
}

// SchedulerOption can be passed to New when creating a new Scheduler.
type SchedulerOption func(*Scheduler)

// New returns a new [Scheduler] for the specified configuration, with its
// budget starting now.
func New(cfg config.Config, options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cfg: cfg,
		now: time.Now,
		run: Shell,
		log: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	s.start = s.now()
	return s
}

// WithClock sets the clock.
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithHookRunner sets the runner for hook commands, replacing [Shell].
func WithHookRunner(run HookRunner) SchedulerOption {
	return func(s *Scheduler) {
		s.run = run
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = log
	}
}

// WithPersisters adds persisters to be run on each checkpoint, in the order
// specified.
func WithPersisters(p ...Persister) SchedulerOption {
	return func(s *Scheduler) {
		s.persisters = append(s.persisters, p...)
	}
}

// Elapsed returns the time elapsed since the start of the current budget.
func (s *Scheduler) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now().Sub(s.start)
}

// ShouldCheckpointNow returns true if the time budget has been used up or a
// checkpoint has been forced.
func (s *Scheduler) ShouldCheckpointNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forced {
		return true
	}
	return s.cfg.AutosaveBudget > 0 && s.now().Sub(s.start) >= s.cfg.AutosaveBudget
}

// Force forces the next checkpoint, regardless of the time budget.
func (s *Scheduler) Force() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced = true
}

// Checkpoint persists all state, runs the optional pre-exit hook, and then
// starts the time budget anew. In CI mode, a non-final checkpoint
// returns [ErrCheckpointExit] after the commit command succeeded, while the
// final checkpoint runs the final command instead.
func (s *Scheduler) Checkpoint(ctx context.Context, final bool) error {
	s.log.Info().Bool("final", final).Dur("elapsed", s.Elapsed()).Msg("checkpoint")
	for _, persist := range s.persisters {
		if err := persist(ctx); err != nil {
			return fmt.Errorf("checkpoint failed: %w", err)
		}
	}
	s.mu.Lock()
	s.forced = false
	s.start = s.now()
	s.mu.Unlock()
	if err := s.hook(ctx, s.cfg.PreExitCommand, s.message(final)); err != nil {
		return err
	}
	if !s.cfg.CI {
		return nil
	}
	if final {
		return s.hook(ctx, s.cfg.FinalCommand, s.cfg.FinalCommitMsg)
	}
	if err := s.hook(ctx, s.cfg.CommitCommand, s.cfg.CommitMessage); err != nil {
		return err
	}
	return ErrCheckpointExit
}

func (s *Scheduler) message(final bool) string {
	if final {
		return s.cfg.FinalCommitMsg
	}
	return s.cfg.CommitMessage
}

func (s *Scheduler) hook(ctx context.Context, command, message string) error {
	if command == "" {
		return nil
	}
	s.log.Debug().Str("command", command).Msg("running checkpoint hook")
	if err := s.run(ctx, command, message); err != nil {
		return fmt.Errorf("checkpoint hook %q failed: %w", command, err)
	}
	return nil
}

// Shell runs the specified command using “sh -c”, passing the commit message
// in the environment. The command's output goes to stderr.
func Shell(ctx context.Context, command, message string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = append(os.Environ(), CommitMessageEnv+"="+message)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
