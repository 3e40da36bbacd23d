package cli

import (
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/derange"
	"github.com/roach88/secretsanta/internal/dispatch"
	"github.com/roach88/secretsanta/internal/messenger"
	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// DistributeOptions holds flags for the distribute command.
type DistributeOptions struct {
	*RootOptions
	Console bool
}

// NewDistributeCommand creates the distribute command.
func NewDistributeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DistributeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Assign gift receivers and notify givers (administrator)",
		Long: `Draw a random assignment in which nobody gives to themselves, then send
each giver a private message naming their receiver.

Messages go to the participants' inboxes under the outbox directory.
Participants without an inbox are reported as soon as their delivery fails
and skipped; the run still completes for everybody else. Run it again to
redraw.

Example:
  santa distribute --as 7302033371
  santa distribute --as 7302033371 --console`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDistribute(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Console, "console", false, "print private messages instead of filing them in inboxes")

	return cmd
}

// DistributeResult is the JSON payload of a distribution run.
type DistributeResult struct {
	RunID     string            `json:"run_id"`
	Method    derange.Method    `json:"method"`
	Attempts  int               `json:"attempts"`
	Delivered int               `json:"delivered"`
	Failed    []DeliveryFailure `json:"failed"`
	Message   string            `json:"message"`
}

// DeliveryFailure names a giver that could not be notified.
type DeliveryFailure struct {
	Giver participant.Identity `json:"giver"`
	Name  string               `json:"name"`
	Error string               `json:"error"`
}

// lockedWriter serializes writes from concurrent deliveries.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func runDistribute(opts *DistributeOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := &lockedWriter{w: cmd.OutOrStdout()}
	text := opts.Format != "json"

	var ao appOptions
	if opts.Console {
		ao.messenger = messenger.NewConsole(out)
	}
	if text {
		// Warn about each unreachable giver while the run is still going.
		ao.observer = func(o dispatch.Outcome, giverName string) {
			if !o.Delivered() {
				io.WriteString(out, santa.RenderFailure(giverName))
			}
		}
	}
	a, err := openApp(ctx, opts.RootOptions, cmd, ao)
	if err != nil {
		return err
	}
	defer a.Close()

	if text && a.coord.IsAdministrator(a.actor) && a.registry.Len() >= 2 {
		io.WriteString(out, santa.TextDistributing+"\n")
	}

	d, err := a.coord.Distribute(ctx, a.actor)
	if err != nil {
		return outputOperationError(a.formatter, err)
	}
	a.formatter.VerboseLog("run %s: %s after %d attempt(s)", d.RunID, d.Method, d.Attempts)

	result := DistributeResult{
		RunID:     d.RunID,
		Method:    d.Method,
		Attempts:  d.Attempts,
		Delivered: d.Delivered(),
		Failed:    []DeliveryFailure{},
		Message:   santa.RenderDistribution(d),
	}
	for _, o := range d.Failures() {
		result.Failed = append(result.Failed, DeliveryFailure{
			Giver: o.Pair.Giver,
			Name:  d.Names[o.Pair.Giver],
			Error: o.Err.Error(),
		})
	}
	return a.formatter.Success(santa.RenderSummary(d), result)
}
