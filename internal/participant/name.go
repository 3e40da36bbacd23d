package participant

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DisplayName picks the name a participant is shown under.
//
// The primary value (typically a username) wins when it is not blank;
// otherwise the fallback (typically the full name) is used. Both are
// trimmed and NFC-normalized so visually identical names compare equal
// in the stored document.
func DisplayName(primary, fallback string) string {
	if name := normalizeName(primary); name != "" {
		return name
	}
	return normalizeName(fallback)
}

func normalizeName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
