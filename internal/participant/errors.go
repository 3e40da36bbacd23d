package participant

import "errors"

var (
	// ErrAuthorizationDenied is returned when a non-administrator invokes
	// a privileged operation. No state is changed.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrPrecondition is the parent of every "cannot run in this state"
	// outcome. It is surfaced to the user, never treated as a crash.
	ErrPrecondition = errors.New("precondition failed")

	// ErrTooFewParticipants is returned when a distribution is requested
	// with fewer than two participants.
	ErrTooFewParticipants = &preconditionError{msg: "need at least 2 participants"}

	// ErrNotFound is returned when removing an identity that is not registered.
	ErrNotFound = &preconditionError{msg: "participant not found"}

	// ErrInvalidIdentity is returned when registering without an identity.
	ErrInvalidIdentity = &preconditionError{msg: "invalid identity"}

	// ErrDuplicateIdentity is returned when the same identity appears twice
	// in a derangement input.
	ErrDuplicateIdentity = &preconditionError{msg: "duplicate identity"}

	// ErrRecipientUnreachable marks a failed private delivery, including
	// delivery timeouts.
	ErrRecipientUnreachable = errors.New("recipient unreachable")

	// ErrStorageCorrupt is returned when the durable registry document is
	// malformed. Startup must not continue past it.
	ErrStorageCorrupt = errors.New("storage corrupt")
)

// preconditionError is a distinct sentinel that also matches ErrPrecondition.
type preconditionError struct {
	msg string
}

func (e *preconditionError) Error() string {
	return e.msg
}

func (e *preconditionError) Is(target error) bool {
	return target == ErrPrecondition
}
