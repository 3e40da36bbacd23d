package santa

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/roach88/secretsanta/internal/participant"
)

// User-facing texts.
const (
	TextWelcomeAdmin = "Admin panel: list, remove, clear, distribute."
	TextWelcome      = "Welcome to Secret Santa! 🎅\nRegister to take part."
	TextRegistered   = "🎉 You are registered! Wait for the distribution."
	TextCleared      = "🗑 The participant list has been cleared!"
	TextEmptyList    = "No participants yet."
	TextDistributing = "🎁 Sending out the results..."
)

// Welcome returns the greeting shown on first contact.
func Welcome(isAdmin bool) string {
	if isAdmin {
		return TextWelcomeAdmin
	}
	return TextWelcome
}

// Removed confirms a removal.
func Removed(p participant.Participant) string {
	return fmt.Sprintf("❌ Participant %s removed.", p.Name)
}

// Reply converts an operation error into the message shown to the user.
func Reply(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, participant.ErrAuthorizationDenied):
		return "❌ You do not have permission."
	case errors.Is(err, participant.ErrTooFewParticipants):
		return "At least 2 participants are needed!"
	case errors.Is(err, participant.ErrNotFound):
		return "❗ That participant has already been removed."
	case errors.Is(err, participant.ErrInvalidIdentity):
		return "❗ Cannot register without an identity."
	case errors.Is(err, participant.ErrStorageCorrupt):
		return "⚠ The participant registry is unreadable."
	default:
		return "⚠ Something went wrong, please try again."
	}
}

// RenderList renders the participant listing, 1-indexed.
func RenderList(entries iter.Seq[participant.Entry]) string {
	var b strings.Builder
	for e := range entries {
		if b.Len() == 0 {
			b.WriteString("📜 Participants:\n\n")
		}
		fmt.Fprintf(&b, "%d. %s\n", e.Position, e.Name)
	}
	if b.Len() == 0 {
		return TextEmptyList + "\n"
	}
	return b.String()
}

// RenderDistribution renders what the administrator sees after a run:
// the announcement, one warning per unreachable giver, then the summary.
func RenderDistribution(d Distribution) string {
	var b strings.Builder
	b.WriteString(TextDistributing + "\n")
	for _, o := range d.Failures() {
		b.WriteString(RenderFailure(d.Names[o.Pair.Giver]))
	}
	b.WriteString(RenderSummary(d))
	return b.String()
}

// RenderFailure is the warning for one giver that could not be messaged.
func RenderFailure(name string) string {
	return fmt.Sprintf("⚠ Could not message participant %s. They have not started a conversation with the bot.\n", name)
}

// RenderSummary is the closing line of a distribution.
func RenderSummary(d Distribution) string {
	return fmt.Sprintf("Done! 🎉 Delivered %d of %d assignments.\n", d.Delivered(), len(d.Outcomes))
}
