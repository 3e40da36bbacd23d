package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// NewWhoamiCommand creates the whoami command, the CLI counterpart of the
// bot's start greeting.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the greeting and role of the acting user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(rootOpts, cmd)
		},
	}
}

// WhoamiResult is the JSON payload of whoami.
type WhoamiResult struct {
	ID         participant.Identity `json:"id"`
	Admin      bool                 `json:"admin"`
	Registered bool                 `json:"registered"`
	Message    string               `json:"message"`
}

func runWhoami(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(commandContext(cmd), opts, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	isAdmin := a.coord.IsAdministrator(a.actor)
	_, registered := a.registry.Name(a.actor)
	message := santa.Welcome(isAdmin)
	return a.formatter.Success(message, WhoamiResult{
		ID:         a.actor,
		Admin:      isAdmin,
		Registered: registered,
		Message:    message,
	})
}
