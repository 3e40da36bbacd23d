package participant

import "fmt"

// Identity is the platform-assigned key of a participant.
type Identity string

// Participant is one registry row.
type Participant struct {
	ID   Identity `json:"id"`
	Name string   `json:"name"`
}

// Entry is a participant as presented in a listing.
// Position is 1-indexed and follows registry insertion order.
type Entry struct {
	Position int      `json:"position"`
	ID       Identity `json:"id"`
	Name     string   `json:"name"`
}

// Assignment pairs a giver with the receiver they buy a gift for.
// Assignments live only for the duration of one distribution run.
type Assignment struct {
	Giver    Identity `json:"giver"`
	Receiver Identity `json:"receiver"`
}

// String renders the pairing as "giver→receiver".
func (a Assignment) String() string {
	return fmt.Sprintf("%s→%s", a.Giver, a.Receiver)
}

// IDs returns the identities of ps in order.
func IDs(ps []Participant) []Identity {
	ids := make([]Identity, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}
