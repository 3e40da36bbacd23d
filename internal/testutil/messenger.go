package testutil

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/roach88/secretsanta/internal/participant"
)

// ErrNeverStarted is returned by RecordingMessenger for unreachable recipients.
var ErrNeverStarted = errors.New("recipient never started a conversation")

// Message is one private message captured by RecordingMessenger.
type Message struct {
	To   participant.Identity
	Text string
}

// RecordingMessenger captures sent messages for assertions.
//
// Recipients listed in Unreachable fail with ErrNeverStarted; recipients in
// Hang block until the context is done, simulating a stalled transport.
//
// Thread-safety: safe for concurrent use.
type RecordingMessenger struct {
	mu          sync.Mutex
	Unreachable map[participant.Identity]bool
	Hang        map[participant.Identity]bool
	sent        []Message
	attempts    map[participant.Identity]int
}

// NewRecordingMessenger returns a messenger that cannot reach the given ids.
func NewRecordingMessenger(unreachable ...participant.Identity) *RecordingMessenger {
	m := &RecordingMessenger{
		Unreachable: make(map[participant.Identity]bool),
		Hang:        make(map[participant.Identity]bool),
		attempts:    make(map[participant.Identity]int),
	}
	for _, id := range unreachable {
		m.Unreachable[id] = true
	}
	return m
}

// Send implements dispatch.Messenger.
func (m *RecordingMessenger) Send(ctx context.Context, to participant.Identity, text string) error {
	m.mu.Lock()
	m.attempts[to]++
	unreachable := m.Unreachable[to]
	hang := m.Hang[to]
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if unreachable {
		return ErrNeverStarted
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Message{To: to, Text: text})
	return nil
}

// Sent returns delivered messages sorted by recipient.
func (m *RecordingMessenger) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]Message(nil), m.sent...)
	sort.Slice(out, func(i, j int) bool { return out[i].To < out[j].To })
	return out
}

// Attempts returns how many times Send was called for to.
func (m *RecordingMessenger) Attempts(to participant.Identity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[to]
}

// TotalAttempts returns the number of Send calls across all recipients.
func (m *RecordingMessenger) TotalAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.attempts {
		n += c
	}
	return n
}
