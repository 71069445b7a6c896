package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONExporter renders arbitrary values into indented JSON bytes.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Render produces JSON encoded bytes for the value.
func (e *JSONExporter) Render(value interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("encode json export: %w", err)
	}
	return buf.Bytes(), nil
}
