package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List participants (administrator)",
		Long: `List registered participants in registration order.

Example:
  santa list --as 7302033371
  santa list --as 7302033371 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

// ListResult is the JSON payload of a listing.
type ListResult struct {
	Participants []participant.Entry `json:"participants"`
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(commandContext(cmd), opts, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.coord.List(a.actor)
	if err != nil {
		return outputOperationError(a.formatter, err)
	}

	result := ListResult{Participants: slices.Collect(entries)}
	if result.Participants == nil {
		result.Participants = []participant.Entry{}
	}
	return a.formatter.Success(santa.RenderList(slices.Values(result.Participants)), result)
}
