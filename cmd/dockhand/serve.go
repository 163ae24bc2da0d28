package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"dockhand/internal/composition"
	"dockhand/internal/daemon"
	"dockhand/pkg/cmdutil"

	"github.com/spf13/cobra"
)

var (
	configFile         string
	host               string
	port               int
	logFile            string
	logFormat          string
	logLevel           string
	metricsAddr        string
	redeployCommand    string
	pruneCommand       string
	serializeRedeploys bool
)

var serveCmd = &cobra.Command{
	Use:   "serve [config]",
	Short: "Start the redeploy trigger server",
	Long: `Start the HTTP server and the background workers.

The server listens for authenticated trigger requests, redeploys every
composition on the configured interval, and prunes unused Docker images.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	// Flags for serve command
	serveCmd.Flags().StringVarP(&configFile, "config", "c", getEnvOrDefault("DOCKHAND_CONFIG_FILE", composition.DefaultConfigPath), "Path to the configuration file")
	serveCmd.Flags().StringVar(&host, "host", getEnvOrDefault("DOCKHAND_HOST", "0.0.0.0"), "Host to bind the trigger server to")
	serveCmd.Flags().IntVarP(&port, "port", "p", getEnvOrDefaultInt("DOCKHAND_PORT", 0), "Override the configured port")
	serveCmd.Flags().StringVar(&logFile, "log-file", getEnvOrDefault("DOCKHAND_LOG_FILE", ""), "Also append logs to this file")
	serveCmd.Flags().StringVar(&logFormat, "log-format", getEnvOrDefault("DOCKHAND_LOG_FORMAT", "json"), "Log format: json or text")
	serveCmd.Flags().StringVar(&logLevel, "log-level", getEnvOrDefault("DOCKHAND_LOG_LEVEL", "info"), "Log level: debug, info, warn or error")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", getEnvOrDefault("DOCKHAND_METRICS_ADDR", ""), "Serve /healthz and /metrics on this address (disabled when empty)")
	serveCmd.Flags().StringVar(&redeployCommand, "redeploy-command", getEnvOrDefault("DOCKHAND_REDEPLOY_COMMAND", ""), "Override the redeploy command line")
	serveCmd.Flags().StringVar(&pruneCommand, "prune-command", getEnvOrDefault("DOCKHAND_PRUNE_COMMAND", ""), "Override the image prune command line")
	serveCmd.Flags().BoolVar(&serializeRedeploys, "serialize-redeploys", os.Getenv("DOCKHAND_SERIALIZE_REDEPLOYS") == "1", "Reject a trigger while the same composition is already redeploying")
}

func runServe(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		configFile = args[0]
	}

	// Set up logging
	logger, logFileHandle, err := setupLogging(logLevel, logFormat, logFile)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if logFileHandle != nil {
		defer logFileHandle.Close()
	}

	opts := daemon.Options{
		ConfigPath:         configFile,
		Host:               host,
		Port:               port,
		MetricsAddr:        metricsAddr,
		SerializeRedeploys: serializeRedeploys,
	}

	if redeployCommand != "" {
		opts.RedeployCommand, err = cmdutil.ParseCommandString(redeployCommand)
		if err != nil {
			return fmt.Errorf("invalid --redeploy-command: %w", err)
		}
	}
	if pruneCommand != "" {
		opts.PruneCommand, err = cmdutil.ParseCommandString(pruneCommand)
		if err != nil {
			return fmt.Errorf("invalid --prune-command: %w", err)
		}
	}

	logger.Info("Starting dockhand", "config", configFile)

	d, err := daemon.New(opts, logger)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Warn if no compositions are configured
	if d.Registry.Count() == 0 {
		logger.Warn("No compositions configured in config file", "config", configFile)
		logger.Warn("The server will start but every trigger will report not found")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		logger.Error("Daemon failed", "error", err)
		return fmt.Errorf("daemon failed: %w", err)
	}

	return nil
}

// setupLogging configures slog. With a log file set, output goes to
// both stdout and the file; the caller must close the returned handle.
func setupLogging(level, format, logPath string) (*slog.Logger, *os.File, error) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}

	var out io.Writer = os.Stdout
	var file *os.File
	if logPath != "" {
		// Create log directory if needed
		logDir := filepath.Dir(logPath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}

	handlerOpts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	case "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	default:
		if file != nil {
			file.Close()
		}
		return nil, nil, fmt.Errorf("unknown log format %q", format)
	}

	return slog.New(handler), file, nil
}

// Helpers for environment variable fallbacks
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
