// Package scheduler wires up the cron job that periodically runs the digest
// for every search profile.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"jobmate/digest-service/internal/config"
	"jobmate/digest-service/internal/model"
)

// Runner executes one digest cycle for a profile.
type Runner interface {
	Run(ctx context.Context, p config.Profile) (model.Digest, error)
}

// Scheduler wraps robfig/cron and manages the digest loop.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	profiles []config.Profile
	spec     string // cron spec, e.g. "@every 24h" or "0 9 * * *"
	log      *slog.Logger
	startup  sync.WaitGroup
}

// New creates a Scheduler that fires on spec. A tick that arrives while the
// previous cycle is still running is skipped.
func New(runner Runner, profiles []config.Profile, spec string, log *slog.Logger) *Scheduler {
	log = log.With("component", "scheduler")
	cl := cronLogger{log: log}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner:   runner,
		profiles: profiles,
		spec:     spec,
		log:      log,
	}
}

// Start registers the job and starts the scheduler. Also runs one cycle
// immediately so a digest exists without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunAll(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("cron started", "spec", s.spec, "profiles", len(s.profiles))

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.RunAll(ctx)
	}()
	return nil
}

// Stop shuts down the scheduler and waits for running cycles, the startup
// one included, to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info("cron stopped")
}

// RunAll runs the digest for every profile in order. A failing profile is
// logged and does not stop the others.
func (s *Scheduler) RunAll(ctx context.Context) {
	if len(s.profiles) == 0 {
		s.log.Warn("no search profiles, nothing to run")
		return
	}

	s.log.Info("digest cycle started", "profiles", len(s.profiles))
	for _, p := range s.profiles {
		if ctx.Err() != nil {
			s.log.Info("digest cycle cancelled")
			return
		}
		if _, err := s.runner.Run(ctx, p); err != nil {
			s.log.Error("digest run failed", "profile", p.ID, "err", err)
		}
	}
	s.log.Info("digest cycle complete")
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
