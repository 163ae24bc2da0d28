package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dockhand/internal/composition"
	"dockhand/internal/deploy"
)

// Sweeper periodically redeploys every registered composition so each
// one runs the latest published image even when no external trigger
// arrives.
type Sweeper struct {
	registry *composition.Registry
	deployer *deploy.Deployer
	interval time.Duration
	logger   *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates the sweep worker. A zero interval disables it.
func NewSweeper(registry *composition.Registry, deployer *deploy.Deployer, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		deployer: deployer,
		interval: interval,
		logger:   logger.With("component", "sweeper"),
	}
}

// Start begins the sweep goroutine. The first sweep runs immediately;
// later ones follow every interval. Start is a no-op when the worker
// is disabled.
func (s *Sweeper) Start() {
	if s.interval <= 0 {
		s.logger.Info("periodic redeploy disabled")
		return
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.run()

	s.logger.Info("periodic redeploy started", "interval", s.interval.String())
}

// Stop cancels the loop and waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("periodic redeploy stopped")
}

// run is the sweep loop. Cancellation is observed only here at the
// select, so a sweep that has started always covers the full set.
func (s *Sweeper) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.runSweep()

	ticker := NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

// runSweep attempts one redeploy per registered composition,
// sequentially in name order. A failure is logged and never stops the
// rest of the sweep.
func (s *Sweeper) runSweep() {
	names := s.registry.Names()
	if len(names) == 0 {
		return
	}

	start := time.Now()
	s.logger.Info("starting redeploy sweep", "compositions", len(names))

	// Detached from the loop context: an invocation in flight is
	// never killed by shutdown.
	ctx := context.WithoutCancel(s.ctx)

	failed := 0
	for _, name := range names {
		err := s.deployer.Redeploy(ctx, name)
		if err == nil {
			continue
		}

		var inProgress *deploy.InProgressError
		if errors.As(err, &inProgress) {
			s.logger.Info("skipping composition, redeploy already running", "composition", name)
			continue
		}

		failed++
		var cmdErr *deploy.CommandError
		if errors.As(err, &cmdErr) {
			s.logger.Error("sweep redeploy failed",
				"composition", name,
				"exit_code", cmdErr.ExitCode,
				"stdout", cmdErr.Stdout,
				"stderr", cmdErr.Stderr)
			continue
		}
		s.logger.Error("sweep redeploy failed", "composition", name, "error", err)
	}

	recordSweep(time.Since(start).Seconds())
	s.logger.Info("redeploy sweep completed",
		"compositions", len(names),
		"failed", failed,
		"duration", time.Since(start).String())
}
