package cli

import (
	"errors"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/santa"
)

// Error codes reported by the CLI.
const (
	ErrCodeGeneric         = "E001" // Unclassified failure
	ErrCodeConfig          = "E002" // Invalid or unreadable configuration
	ErrCodeStorageCorrupt  = "E003" // Registry document is malformed
	ErrCodeStorage         = "E004" // Registry could not be read or written
	ErrCodeDenied          = "E010" // Caller is not the administrator
	ErrCodeTooFew          = "E011" // Distribution needs at least two participants
	ErrCodeNotFound        = "E012" // Participant is not registered
	ErrCodeInvalidIdentity = "E013" // Missing or malformed identity
)

// classify maps an error to its CLI code and exit code.
func classify(err error) (code string, exit int) {
	switch {
	case errors.Is(err, participant.ErrAuthorizationDenied):
		return ErrCodeDenied, ExitFailure
	case errors.Is(err, participant.ErrTooFewParticipants):
		return ErrCodeTooFew, ExitFailure
	case errors.Is(err, participant.ErrNotFound):
		return ErrCodeNotFound, ExitFailure
	case errors.Is(err, participant.ErrInvalidIdentity):
		return ErrCodeInvalidIdentity, ExitFailure
	case errors.Is(err, participant.ErrStorageCorrupt):
		return ErrCodeStorageCorrupt, ExitCommandError
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// outputOperationError reports err with its user-facing reply and returns
// the matching ExitError.
func outputOperationError(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	message := santa.Reply(err)

	var details any
	if formatter.Verbose {
		details = err.Error()
	}
	_ = formatter.Error(code, message, details)
	return WrapExitError(exit, message, err)
}

// outputCommandError reports a setup failure that is not an operation outcome.
func outputCommandError(formatter *OutputFormatter, code, message string, err error) error {
	_ = formatter.Error(code, message, err.Error())
	return WrapExitError(ExitCommandError, message, err)
}
