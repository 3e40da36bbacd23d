// Package store provides the durable participant registry.
//
// A Registry is an ordered identity→name mapping guarded by a single
// RWMutex and backed by a Backend that receives the full registry after
// every mutation.
//
// # Persistence Contract
//
//   - Persist-before-commit: a mutation is applied to a copy, saved, and
//     only then made visible. A failed save leaves the registry unchanged.
//   - Whole-document writes: Save always receives every participant, in
//     insertion order. There is no partial-write window.
//   - Corruption is fatal: Load reports ErrStorageCorrupt for malformed
//     content and the registry refuses to open.
//
// # Backends
//
//   - JSONFile: human-readable JSON object (default, ".json")
//   - YAMLFile: human-readable YAML mapping (".yaml", ".yml")
//   - SQLite: single-table database (".db", ".sqlite", ".sqlite3")
//
// OpenBackend selects one from the file extension.
package store
