// Package daemon wires the configuration, composition registry,
// deployer, HTTP servers, and background workers into one runnable
// unit.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"dockhand/internal/composition"
	"dockhand/internal/deploy"
	"dockhand/internal/server"
	"dockhand/internal/workers"
	"dockhand/pkg/cmdutil"
)

// Options configures a Daemon beyond what the configuration file
// carries.
type Options struct {
	ConfigPath string

	// Host is the interface the trigger server binds. The port comes
	// from the configuration file.
	Host string

	// Port overrides the configured port when positive.
	Port int

	// ListenAddr overrides Host and the port entirely when set.
	ListenAddr string

	// MetricsAddr enables the admin listener when non-empty.
	MetricsAddr string

	RedeployCommand    []string
	PruneCommand       []string
	SerializeRedeploys bool
}

// Daemon owns every long-running component of the process.
type Daemon struct {
	Config   *composition.Config
	Registry *composition.Registry

	opts    Options
	logger  *slog.Logger
	server  *server.Server
	admin   *server.AdminServer
	sweeper *workers.Sweeper
	pruner  *workers.Pruner

	serverErr <-chan error
	adminErr  <-chan error
}

// New loads the configuration at opts.ConfigPath and assembles the
// daemon. Nothing is started yet.
func New(opts Options, logger *slog.Logger) (*Daemon, error) {
	config, err := composition.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	registry := composition.NewRegistry(config.Compositions)
	runner := cmdutil.NewExecRunner()
	deployer := deploy.NewDeployer(registry, runner, logger, deploy.Options{
		RedeployCommand:    opts.RedeployCommand,
		PruneCommand:       opts.PruneCommand,
		SerializeRedeploys: opts.SerializeRedeploys,
	})

	d := &Daemon{
		Config:   config,
		Registry: registry,
		opts:     opts,
		logger:   logger,
		server:   server.NewServer(config, registry, deployer, logger, false),
		sweeper:  workers.NewSweeper(registry, deployer, config.ForceUpdateEvery(), logger),
		pruner:   workers.NewPruner(deployer, config.PruneEvery(), logger),
	}
	if opts.MetricsAddr != "" {
		d.admin = server.NewAdminServer(registry, logger)
	}

	return d, nil
}

// Start brings up the listeners, then the background workers.
func (d *Daemon) Start() error {
	addr := d.opts.ListenAddr
	if addr == "" {
		port := d.Config.Port
		if d.opts.Port > 0 {
			port = d.opts.Port
		}
		addr = net.JoinHostPort(d.opts.Host, strconv.Itoa(port))
	}

	serverErr, err := d.server.Start(addr)
	if err != nil {
		return err
	}
	d.serverErr = serverErr

	if d.admin != nil {
		adminErr, err := d.admin.Start(d.opts.MetricsAddr)
		if err != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.AdminRequestTimeout)
			defer cancel()
			return errors.Join(err, d.server.Shutdown(shutdownCtx))
		}
		d.adminErr = adminErr
	}

	d.sweeper.Start()
	d.pruner.Start()

	d.logger.Info("daemon started",
		"addr", d.server.Addr(),
		"compositions", d.Registry.Count())
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or a
// listener fails, then drains and stops every component. The drain is
// unbounded: an in-flight redeploy always runs to completion.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
	case err := <-d.serverErr:
		if err != nil {
			d.logger.Error("trigger server failed", "error", err)
			return errors.Join(err, d.Shutdown(context.Background()))
		}
	case err := <-d.adminErr:
		if err != nil {
			d.logger.Error("admin server failed", "error", err)
			return errors.Join(err, d.Shutdown(context.Background()))
		}
	}

	return d.Shutdown(context.Background())
}

// Shutdown stops the listeners first, draining in-flight trigger
// requests, then waits for the background workers to finish any
// invocation they already started.
func (d *Daemon) Shutdown(ctx context.Context) error {
	var errs []error

	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("trigger server shutdown: %w", err))
	}
	if d.admin != nil {
		if err := d.admin.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("admin server shutdown: %w", err))
		}
	}

	d.sweeper.Stop()
	d.pruner.Stop()

	d.logger.Info("daemon stopped")
	return errors.Join(errs...)
}

// TriggerAddr returns the bound trigger address once Start has
// succeeded.
func (d *Daemon) TriggerAddr() string {
	return d.server.Addr()
}

// AdminAddr returns the bound admin address, or "" when the admin
// listener is disabled.
func (d *Daemon) AdminAddr() string {
	if d.admin == nil {
		return ""
	}
	return d.admin.Addr()
}
