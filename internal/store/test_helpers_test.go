package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/secretsanta/internal/participant"
)

// createTestRegistry opens a registry over a JSON document in a temp dir.
func createTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "participants.json")
	r, err := Open(context.Background(), NewJSONFile(path))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r, path
}

// collect drains a listing into a slice.
func collect(r *Registry) []participant.Entry {
	var out []participant.Entry
	for e := range r.List() {
		out = append(out, e)
	}
	return out
}

// memoryBackend keeps the last saved document in memory and can be told to
// fail the next saves.
type memoryBackend struct {
	mu      sync.Mutex
	saved   []participant.Participant
	saves   int
	failErr error
}

var errInjected = errors.New("injected save failure")

func (m *memoryBackend) Load(context.Context) ([]participant.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]participant.Participant(nil), m.saved...), nil
}

func (m *memoryBackend) Save(_ context.Context, ps []participant.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.saved = append([]participant.Participant(nil), ps...)
	return nil
}

func (m *memoryBackend) Close() error { return nil }

func (m *memoryBackend) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
