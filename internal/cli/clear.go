package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/santa"
)

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every participant (administrator)",
		Long: `Empty the participant registry.

Example:
  santa clear --as 7302033371`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(rootOpts, cmd)
		},
	}
}

func runClear(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.coord.Clear(ctx, a.actor); err != nil {
		return outputOperationError(a.formatter, err)
	}
	return a.formatter.Success(santa.TextCleared, map[string]string{"message": santa.TextCleared})
}
