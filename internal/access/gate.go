// Package access separates the single administrator from ordinary
// participants.
package access

import (
	"fmt"

	"github.com/roach88/secretsanta/internal/participant"
)

// Gate authorizes privileged operations against one configured
// administrator identity, fixed for the life of the process.
type Gate struct {
	admin participant.Identity
}

// New returns a gate for admin. An empty admin authorizes nobody.
func New(admin participant.Identity) Gate {
	return Gate{admin: admin}
}

// IsAdministrator reports whether id is the configured administrator.
func (g Gate) IsAdministrator(id participant.Identity) bool {
	return g.admin != "" && id == g.admin
}

// Require returns participant.ErrAuthorizationDenied unless id is the
// administrator.
func (g Gate) Require(id participant.Identity) error {
	if !g.IsAdministrator(id) {
		return fmt.Errorf("%s: %w", id, participant.ErrAuthorizationDenied)
	}
	return nil
}
