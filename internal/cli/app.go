package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/access"
	"github.com/roach88/secretsanta/internal/config"
	"github.com/roach88/secretsanta/internal/derange"
	"github.com/roach88/secretsanta/internal/dispatch"
	"github.com/roach88/secretsanta/internal/messenger"
	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
	"github.com/roach88/secretsanta/internal/store"
)

// app is the wiring shared by every subcommand.
type app struct {
	cfg       config.Config
	registry  *store.Registry
	coord     *santa.Coordinator
	outbox    *messenger.Outbox
	formatter *OutputFormatter
	logger    *slog.Logger
	actor     participant.Identity
}

// appOptions tweak wiring per subcommand.
type appOptions struct {
	// messenger overrides the outbox for distribution deliveries.
	messenger dispatch.Messenger

	// observer is called once per delivery outcome as it happens, with the
	// giver's display name. Calls are serialized.
	observer func(o dispatch.Outcome, giverName string)
}

// newFormatter builds the formatter for cmd's writers.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger configures logging based on the verbose flag.
func newLogger(verbose bool, w io.Writer) *slog.Logger {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
}

// openApp loads configuration, opens the registry and wires the coordinator.
// Setup failures are reported through the formatter and returned as
// ExitErrors; a corrupt registry stops the command before any operation.
func openApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command, ao appOptions) (*app, error) {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts.Verbose, cmd.ErrOrStderr())

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, outputCommandError(formatter, ErrCodeConfig, "failed to load configuration", err)
	}
	if opts.StorePath != "" {
		cfg.StorePath = opts.StorePath
	}
	if opts.AdminID != "" {
		cfg.AdminID = participant.Identity(opts.AdminID)
	}
	if err := cfg.Validate(); err != nil {
		return nil, outputCommandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	if cfg.AdminID == "" {
		logger.Warn("no administrator configured; privileged commands will be refused")
	}

	logger.Debug("opening registry", "path", cfg.StorePath)
	backend, err := store.OpenBackend(cfg.StorePath)
	if err != nil {
		return nil, openStoreError(formatter, err)
	}
	registry, err := store.Open(ctx, backend,
		store.WithLogger(logger),
		store.WithLock(store.NewFileLock(cfg.StorePath)),
	)
	if err != nil {
		backend.Close()
		return nil, openStoreError(formatter, err)
	}

	outbox := messenger.NewOutbox(cfg.OutboxDir)
	var m dispatch.Messenger = outbox
	if ao.messenger != nil {
		m = ao.messenger
	}

	generator := derange.New(derange.WithMaxAttempts(cfg.MaxShuffleAttempts))
	dispatchOpts := []dispatch.Option{
		dispatch.WithTimeout(cfg.DeliveryTimeout),
		dispatch.WithConcurrency(cfg.DeliveryConcurrency),
		dispatch.WithLogger(logger),
	}
	if ao.observer != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithObserver(func(o dispatch.Outcome) {
			name, ok := registry.Name(o.Pair.Giver)
			if !ok {
				name = string(o.Pair.Giver)
			}
			ao.observer(o, name)
		}))
	}
	dispatcher := dispatch.New(m, dispatchOpts...)

	return &app{
		cfg:       cfg,
		registry:  registry,
		coord:     santa.New(registry, access.New(cfg.AdminID), generator, dispatcher, santa.WithLogger(logger)),
		outbox:    outbox,
		formatter: formatter,
		logger:    logger,
		actor:     participant.Identity(opts.Actor),
	}, nil
}

func openStoreError(formatter *OutputFormatter, err error) error {
	if errors.Is(err, participant.ErrStorageCorrupt) {
		return outputCommandError(formatter, ErrCodeStorageCorrupt, santa.Reply(err), err)
	}
	return outputCommandError(formatter, ErrCodeStorage, "failed to open participant registry", err)
}

// Close releases the registry.
func (a *app) Close() {
	if err := a.registry.Close(); err != nil {
		a.logger.Error("error closing registry", "error", err)
	}
}

// commandContext returns cmd's context, or Background when run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
