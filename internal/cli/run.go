package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/glados/internal/audit"
	"github.com/roach88/glados/internal/config"
	"github.com/roach88/glados/internal/portal"
	"github.com/roach88/glados/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath    string
	Database      string
	IPCPath       string
	Period        time.Duration
	BatchSize     int
	LookupTimeout time.Duration

	// BatchTokens allows overriding the per-tick batch token generator (for testing).
	// If nil, the pipeline uses UUIDv7 tokens.
	BatchTokens audit.BatchTokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the audit pipeline",
		Long: `Start the audit pipeline against a Portal node.

Every audit period the scheduler reads the newest content keys from the
catalog and queues them. The auditor asks the node for each one over its
JSON-RPC IPC socket and records a pass/fail audit in the same database.

The pipeline stops on SIGINT/SIGTERM, or on the first unrecoverable error
(node unreachable, database write failure), in which case the exit code is 1.

Flags override values from --config.

Example:
  glados-audit run --db ./glados.db --ipc-path /tmp/trin-jsonrpc.ipc
  glados-audit run --config ./glados.yaml --period 30s --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database")
	cmd.Flags().StringVar(&opts.IPCPath, "ipc-path", "", "path to the Portal node's JSON-RPC socket")
	cmd.Flags().DurationVar(&opts.Period, "period", config.DefaultAuditPeriod, "time between catalog polls")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", config.DefaultBatchSize, "content keys queued per poll")
	cmd.Flags().DurationVar(&opts.LookupTimeout, "lookup-timeout", 0, "bound on each node lookup (0 = none)")

	return cmd
}

// resolveConfig loads the config file, if any, and applies explicitly set flags.
func resolveConfig(opts *RunOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Database = opts.Database
	}
	if flags.Changed("ipc-path") {
		cfg.IPCPath = opts.IPCPath
	}
	if flags.Changed("period") {
		cfg.AuditPeriod = opts.Period
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.BatchSize
	}
	if flags.Changed("lookup-timeout") {
		cfg.LookupTimeout = opts.LookupTimeout
	}

	return cfg, cfg.Validate()
}

func runAudit(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	slog.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	slog.Info("connecting to portal node", "ipc_path", cfg.IPCPath)
	client, err := portal.Dial(ctx, cfg.IPCPath, portal.WithTimeout(cfg.LookupTimeout))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect to portal node", err)
	}
	defer client.Close()

	pipelineOpts := []audit.Option{
		audit.WithPeriod(cfg.AuditPeriod),
		audit.WithBatchSize(cfg.BatchSize),
		audit.WithQueueCapacity(cfg.QueueCapacity),
	}
	if opts.BatchTokens != nil {
		pipelineOpts = append(pipelineOpts, audit.WithBatchTokens(opts.BatchTokens))
	}
	sup := audit.New(st, st, client, pipelineOpts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("audit pipeline starting",
		"period", cfg.AuditPeriod,
		"batch_size", cfg.BatchSize,
		"queue_capacity", cfg.QueueCapacity,
	)
	fmt.Fprintln(cmd.OutOrStdout(), "Audit pipeline started. Press Ctrl-C to stop.")

	runErr := sup.Run(ctx)

	// Stop the remaining task before the deferred closes release the store
	// and the socket it may still be using.
	cancel()

	if runErr != nil {
		return WrapExitError(ExitFailure, "audit pipeline failed", runErr)
	}

	slog.Info("audit pipeline stopped")
	return nil
}
