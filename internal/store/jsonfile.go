package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/secretsanta/internal/participant"
)

// JSONFile stores the registry as a single JSON object mapping identity to
// display name:
//
//	{
//	    "7302033371": "santa_fan",
//	    "1234567890": "Снегурочка"
//	}
//
// Keys appear in registry order. Non-ASCII text is written verbatim so the
// file stays readable and editable by an operator.
type JSONFile struct {
	path string
}

// NewJSONFile returns a backend for the document at path.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Load parses the document. A missing file yields no participants.
func (f *JSONFile) Load(_ context.Context) ([]participant.Participant, error) {
	data, err := readDocument(f.path)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	ps, err := decodeJSONDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", participant.ErrStorageCorrupt, f.path, err)
	}
	return ps, nil
}

// Save replaces the document with ps.
func (f *JSONFile) Save(_ context.Context, ps []participant.Participant) error {
	data, err := encodeJSONDocument(ps)
	if err != nil {
		return fmt.Errorf("encode %s: %w", f.path, err)
	}
	return writeFileAtomic(f.path, data, 0o644)
}

// Close is a no-op; the file is only open during Load and Save.
func (f *JSONFile) Close() error {
	return nil
}

// encodeJSONDocument writes an ordered object with 4-space indentation.
// encoding/json sorts map keys, so the object is assembled member by member.
func encodeJSONDocument(ps []participant.Participant) ([]byte, error) {
	var buf bytes.Buffer
	if len(ps) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, p := range ps {
		key, err := marshalJSONString(string(p.ID))
		if err != nil {
			return nil, err
		}
		value, err := marshalJSONString(p.Name)
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(ps)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// marshalJSONString encodes s without HTML escaping.
func marshalJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// decodeJSONDocument reads exactly one object of string members, keeping
// member order. A repeated key keeps its first position and its last value.
func decodeJSONDocument(data []byte) ([]participant.Participant, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var ps []participant.Participant
	index := make(map[participant.Identity]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		var value *string
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		if value == nil {
			return nil, fmt.Errorf("value for %q: null name", key)
		}
		name := *value

		id := participant.Identity(key)
		if i, seen := index[id]; seen {
			ps[i].Name = name
			continue
		}
		index[id] = len(ps)
		ps = append(ps, participant.Participant{ID: id, Name: name})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read closing token: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after object")
	}
	return ps, nil
}
