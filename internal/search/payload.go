package search

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeRaw validates a stored JSON document and returns it untouched.
// NULL and empty columns decode to nil without error.
func DecodeRaw(raw []byte) (json.RawMessage, error) {
	if isEmptyPayload(raw) {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("decode payload: invalid JSON")
	}
	return json.RawMessage(bytes.Clone(raw)), nil
}

// DecodeObject decodes a stored JSON object. Numbers are kept as json.Number so
// payloads round-trip without precision loss.
func DecodeObject(raw []byte) (map[string]any, error) {
	if isEmptyPayload(raw) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

func isEmptyPayload(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
