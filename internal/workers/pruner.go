package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"dockhand/internal/deploy"
)

// Pruner periodically reclaims disk space by removing unused container
// images.
type Pruner struct {
	deployer *deploy.Deployer
	interval time.Duration
	logger   *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPruner creates the prune worker. A zero interval disables it.
func NewPruner(deployer *deploy.Deployer, interval time.Duration, logger *slog.Logger) *Pruner {
	return &Pruner{
		deployer: deployer,
		interval: interval,
		logger:   logger.With("component", "pruner"),
	}
}

// Start begins the prune goroutine. The first prune runs immediately;
// later ones follow every interval. Start is a no-op when the worker
// is disabled.
func (p *Pruner) Start() {
	if p.interval <= 0 {
		p.logger.Info("periodic prune disabled")
		return
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go p.run()

	p.logger.Info("periodic prune started", "interval", p.interval.String())
}

// Stop cancels the loop and waits for an in-progress prune to finish.
func (p *Pruner) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info("periodic prune stopped")
}

func (p *Pruner) run() {
	defer p.wg.Done()

	// Run immediately on start
	p.runPrune()

	ticker := NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.runPrune()
		}
	}
}

// runPrune performs a single prune. A failure is logged and the loop
// carries on to its next tick.
func (p *Pruner) runPrune() {
	ctx := context.WithoutCancel(p.ctx)

	err := p.deployer.Prune(ctx)
	if err == nil {
		return
	}

	var cmdErr *deploy.CommandError
	if errors.As(err, &cmdErr) {
		p.logger.Error("image prune failed",
			"exit_code", cmdErr.ExitCode,
			"stdout", cmdErr.Stdout,
			"stderr", cmdErr.Stderr)
		return
	}
	p.logger.Error("image prune failed", "error", err)
}
