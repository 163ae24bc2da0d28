package deploy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"dockhand/internal/composition"
	"dockhand/pkg/cmdutil"
)

// Default commands invoked against the container tool.
var (
	DefaultRedeployCommand = []string{"docker", "compose", "up", "-d", "--pull", "always"}
	DefaultPruneCommand    = []string{"docker", "image", "prune", "-a", "-f"}
)

// Options tunes a Deployer beyond its required collaborators.
type Options struct {
	// RedeployCommand overrides the default redeploy argv.
	RedeployCommand []string

	// PruneCommand overrides the default prune argv.
	PruneCommand []string

	// SerializeRedeploys enables the per-name guard: a redeploy for a
	// composition that already has one running is rejected with
	// InProgressError instead of racing against the same work
	// directory.
	SerializeRedeploys bool
}

// Deployer executes redeploy and prune operations by invoking the
// container tool through a Runner. It holds no mutable state beyond
// the optional per-name guard, so a single instance serves the HTTP
// handlers and both periodic tasks concurrently.
type Deployer struct {
	registry *composition.Registry
	runner   cmdutil.Runner
	logger   *slog.Logger

	redeployCmd []string
	pruneCmd    []string

	serialize bool
	locks     *LockManager
}

// NewDeployer creates a Deployer. Empty command overrides fall back to
// the defaults.
func NewDeployer(registry *composition.Registry, runner cmdutil.Runner, logger *slog.Logger, opts Options) *Deployer {
	redeployCmd := opts.RedeployCommand
	if len(redeployCmd) == 0 {
		redeployCmd = DefaultRedeployCommand
	}

	pruneCmd := opts.PruneCommand
	if len(pruneCmd) == 0 {
		pruneCmd = DefaultPruneCommand
	}

	return &Deployer{
		registry:    registry,
		runner:      runner,
		logger:      logger.With("component", "deploy"),
		redeployCmd: redeployCmd,
		pruneCmd:    pruneCmd,
		serialize:   opts.SerializeRedeploys,
		locks:       NewLockManager(),
	}
}

// Redeploy brings the named composition up with freshly pulled images.
// A nil return means the tool exited zero. Otherwise the error is a
// *NotFoundError for an unregistered name, a *CommandError when the
// tool ran and exited non-zero, a *InProgressError when the serialize
// guard reports the name busy, or a plain wrapped error when the tool
// could not be started at all.
func (d *Deployer) Redeploy(ctx context.Context, name string) error {
	comp, ok := d.registry.Get(name)
	if !ok {
		return &NotFoundError{Name: name}
	}

	if d.serialize {
		if !d.locks.TryLock(name) {
			return &InProgressError{Name: name}
		}
		defer d.locks.Unlock(name)
	}

	log := d.logger.With("run_id", uuid.New().String(), "composition", name)
	log.Info("redeploying composition",
		"work", comp.Work,
		"command", cmdutil.FormatCommand(d.redeployCmd))

	result, err := d.runner.Run(ctx, cmdutil.Spec{
		Command: d.redeployCmd[0],
		Args:    d.redeployCmd[1:],
		Dir:     comp.Work,
	})
	if err != nil {
		recordRedeploy(name, outcomeIOError)
		return fmt.Errorf("redeploying '%s': %w", name, err)
	}

	observeInvocation(OpRedeploy, result.Duration.Seconds())

	if !result.OK() {
		recordRedeploy(name, outcomeProcessFailed)
		return &CommandError{
			Op:       OpRedeploy,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
	}

	recordRedeploy(name, outcomeSuccess)
	log.Info("composition redeployed", "duration", result.Duration.String())
	return nil
}

// Prune reclaims disk space by removing unused container images. Same
// error classification as Redeploy, minus the registry step.
func (d *Deployer) Prune(ctx context.Context) error {
	log := d.logger.With("run_id", uuid.New().String())
	log.Info("pruning unused images", "command", cmdutil.FormatCommand(d.pruneCmd))

	result, err := d.runner.Run(ctx, cmdutil.Spec{
		Command: d.pruneCmd[0],
		Args:    d.pruneCmd[1:],
	})
	if err != nil {
		recordPrune(outcomeIOError)
		return fmt.Errorf("pruning images: %w", err)
	}

	observeInvocation(OpPrune, result.Duration.Seconds())

	if !result.OK() {
		recordPrune(outcomeProcessFailed)
		return &CommandError{
			Op:       OpPrune,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		}
	}

	recordPrune(outcomeSuccess)
	log.Info("image prune completed", "duration", result.Duration.String())
	return nil
}
