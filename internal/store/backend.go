package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/secretsanta/internal/participant"
)

// Backend persists the registry as a whole document.
//
// Load returns participants in stored order. A missing document is not an
// error; malformed content must wrap participant.ErrStorageCorrupt.
// Save replaces the stored document with ps.
type Backend interface {
	Load(ctx context.Context) ([]participant.Participant, error)
	Save(ctx context.Context, ps []participant.Participant) error
	Close() error
}

// OpenBackend picks a backend from the extension of path.
// Unknown extensions use the JSON document format.
func OpenBackend(path string) (Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("open backend: empty path")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLFile(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return NewJSONFile(path), nil
	}
}

// writeFileAtomic replaces path with data via a synced temp file and rename,
// so readers never observe a half-written document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// readDocument returns the file content, or nil when the file does not exist.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
