// Package participant defines the data model shared by the gift exchange:
// participant identities, registry listing entries, giver/receiver
// assignments, and the error taxonomy every layer reports through.
//
// # Identities
//
// An Identity is the stable key assigned by the messaging platform, carried
// as a string so the durable document can use it as an object key verbatim.
// Identities are unique within a registry; display names are not.
//
// # Errors
//
// Callers match errors with errors.Is against the sentinels in errors.go:
//   - ErrAuthorizationDenied: a non-administrator invoked a privileged operation
//   - ErrPrecondition: the operation cannot run in the current state
//   - ErrRecipientUnreachable: a private message could not be delivered
//   - ErrStorageCorrupt: the durable document could not be parsed
package participant
