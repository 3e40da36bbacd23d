package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <identity>",
		Short: "Remove one participant (administrator)",
		Long: `Remove a participant from the registry.

Removing an identity that is not registered is reported and changes nothing.

Example:
  santa remove --as 7302033371 42`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, participant.Identity(args[0]), cmd)
		},
	}
}

// RemoveResult is the JSON payload of a removal.
type RemoveResult struct {
	Removed participant.Participant `json:"removed"`
	Message string                  `json:"message"`
}

func runRemove(opts *RootOptions, target participant.Identity, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.coord.Remove(ctx, a.actor, target)
	if err != nil {
		return outputOperationError(a.formatter, err)
	}

	message := santa.Removed(removed)
	return a.formatter.Success(message, RemoveResult{Removed: removed, Message: message})
}
