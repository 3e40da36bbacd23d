package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	StorePath  string
	AdminID    string
	Actor      string // identity the command acts as
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the santa CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "santa",
		Short: "santa - Secret Santa gift exchange",
		Long: `Coordinate a Secret Santa gift exchange.

Participants register themselves; the administrator lists, removes or
clears participants and distributes the assignments. Every giver is sent
a private message naming the participant they give a gift to, and nobody
is ever assigned to themselves.`,
		// main reports errors that subcommands have not already printed.
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE or JSON config file")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "participant registry document (.json, .yaml, .db)")
	cmd.PersistentFlags().StringVar(&opts.AdminID, "admin", "", "administrator identity (overrides SANTA_ADMIN_ID)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "as", "", "identity of the user issuing the command")

	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewDistributeCommand(opts))
	cmd.AddCommand(NewInboxCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
