package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/secretsanta/internal/participant"
)

// NewInboxCommand creates the inbox command.
func NewInboxCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Show the private messages of the acting user",
		Long: `Print the messages delivered to the acting user's inbox.

Example:
  santa inbox --as 42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInbox(rootOpts, cmd)
		},
	}
}

// InboxResult is the JSON payload of inbox.
type InboxResult struct {
	ID       participant.Identity `json:"id"`
	Messages []string             `json:"messages"`
}

func runInbox(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(commandContext(cmd), opts, cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	messages, err := a.outbox.Messages(a.actor)
	if err != nil {
		return outputOperationError(a.formatter, err)
	}
	if messages == nil {
		messages = []string{}
	}

	text := "No messages."
	if len(messages) > 0 {
		text = strings.Join(messages, "\n")
	}
	return a.formatter.Success(text, InboxResult{ID: a.actor, Messages: messages})
}
