package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/secretsanta/internal/participant"
)

func createTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "participants.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

// verifyPragma checks that a pragma is set to the expected value.
func (s *SQLite) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func TestOpenSQLite_AppliesPragmasAndVersion(t *testing.T) {
	s, _ := createTestSQLite(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("user_version", fmt.Sprint(currentSchemaVersion)))
}

func TestOpenSQLite_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.db")

	for i := 0; i < 3; i++ {
		s, err := OpenSQLite(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	s, path := createTestSQLite(t)
	ctx := context.Background()
	in := []participant.Participant{
		{ID: "3", Name: "carol"},
		{ID: "1", Name: "alice"},
		{ID: "2", Name: "Снегурочка"},
	}

	require.NoError(t, s.Save(ctx, in))
	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, s.Close())
	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	out, err = reopened.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSQLite_SaveReplacesEverything(t *testing.T) {
	s, _ := createTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []participant.Participant{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}))
	require.NoError(t, s.Save(ctx, []participant.Participant{{ID: "2", Name: "b"}}))

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []participant.Participant{{ID: "2", Name: "b"}}, out)

	require.NoError(t, s.Save(ctx, nil))
	out, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenSQLite_NotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("not a sqlite database\n", 64)), 0644))

	_, err := OpenSQLite(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, participant.ErrStorageCorrupt)
}

func TestRegistry_OverSQLite(t *testing.T) {
	s, _ := createTestSQLite(t)
	ctx := context.Background()

	r, err := Open(ctx, s)
	require.NoError(t, err)

	require.NoError(t, r.Register(ctx, "1", "alice"))
	require.NoError(t, r.Register(ctx, "2", "bob"))
	_, err = r.Remove(ctx, "1")
	require.NoError(t, err)

	out, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []participant.Participant{{ID: "2", Name: "bob"}}, out)
}

func TestSQLite_LoadNewDatabase(t *testing.T) {
	s, _ := createTestSQLite(t)

	out, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestOpenBackend_NewSQLiteFileIsEmptyRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "participants.sqlite3")
	b, err := OpenBackend(path)
	require.NoError(t, err)

	r, err := Open(context.Background(), b)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 0, r.Len())
}

func TestSQLite_PositionsAreUnique(t *testing.T) {
	s, _ := createTestSQLite(t)

	_, err := s.db.Exec(`INSERT INTO participants (identity, name, position) VALUES ('1', 'a', 1), ('2', 'b', 1)`)
	require.Error(t, err)
}

func TestOpenSQLite_RejectsNewerSchema(t *testing.T) {
	s, path := createTestSQLite(t)
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion+1))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = OpenSQLite(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}
