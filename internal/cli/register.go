package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Username string
	FullName string
	NoInbox  bool
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Take part in the gift exchange",
		Long: `Register the acting user (--as) as a participant.

The display name is the username, or the full name when no username is
given. Registering again updates the name. Registration also opens the
participant's inbox so distribution results can be delivered.

Example:
  santa register --as 42 --username elf
  santa register --as 43 --full-name "Nick Claus"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Username, "username", "", "display username")
	cmd.Flags().StringVar(&opts.FullName, "full-name", "", "full name, used when username is empty")
	cmd.Flags().BoolVar(&opts.NoInbox, "no-inbox", false, "register without opening an inbox")

	return cmd
}

// RegisterResult is the JSON payload of a registration.
type RegisterResult struct {
	ID      participant.Identity `json:"id"`
	Name    string               `json:"name"`
	Message string               `json:"message"`
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx, opts.RootOptions, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	name := participant.DisplayName(opts.Username, opts.FullName)
	if err := a.coord.Register(ctx, a.actor, name); err != nil {
		return outputOperationError(a.formatter, err)
	}

	if !opts.NoInbox {
		if err := a.outbox.Open(a.actor); err != nil {
			a.logger.Warn("could not open inbox", "participant_id", a.actor, "error", err)
		}
	}

	stored, _ := a.registry.Name(a.actor)
	return a.formatter.Success(santa.TextRegistered, RegisterResult{
		ID:      a.actor,
		Name:    stored,
		Message: santa.TextRegistered,
	})
}
