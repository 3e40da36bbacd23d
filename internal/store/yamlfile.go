package store

import (
	"bytes"
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/roach88/secretsanta/internal/participant"
)

// YAMLFile stores the registry as a YAML mapping of identity to display
// name, in registry order. Identities are always written as strings so
// numeric platform ids survive a round trip unchanged.
type YAMLFile struct {
	path string
}

// NewYAMLFile returns a backend for the document at path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Load parses the document. A missing, empty or null document yields no
// participants.
func (f *YAMLFile) Load(_ context.Context) ([]participant.Participant, error) {
	data, err := readDocument(f.path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", participant.ErrStorageCorrupt, f.path, err)
	}

	ps, err := decodeYAMLDocument(&doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", participant.ErrStorageCorrupt, f.path, err)
	}
	return ps, nil
}

// Save replaces the document with ps.
func (f *YAMLFile) Save(_ context.Context, ps []participant.Participant) error {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range ps {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(p.ID)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: p.Name},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	return writeFileAtomic(f.path, buf.Bytes(), 0o644)
}

// Close is a no-op.
func (f *YAMLFile) Close() error {
	return nil
}

func decodeYAMLDocument(doc *yaml.Node) ([]participant.Participant, error) {
	if doc.Kind == 0 || (doc.Kind == yaml.DocumentNode && len(doc.Content) == 0) {
		return nil, nil // comments only
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("expected a single document")
	}

	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected mapping", root.Line)
	}

	var ps []participant.Participant
	index := make(map[participant.Identity]int)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.Tag == "!!null" {
			return nil, fmt.Errorf("line %d: expected scalar identity", key.Line)
		}
		if value.Kind != yaml.ScalarNode || value.Tag == "!!null" {
			return nil, fmt.Errorf("line %d: expected scalar name for %q", value.Line, key.Value)
		}

		id := participant.Identity(key.Value)
		if at, seen := index[id]; seen {
			ps[at].Name = value.Value
			continue
		}
		index[id] = len(ps)
		ps = append(ps, participant.Participant{ID: id, Name: value.Value})
	}
	return ps, nil
}
