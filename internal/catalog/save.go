package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Marshal encodes a snapshot as "yaml" or "json".
func Marshal(s *Snapshot, format string) ([]byte, error) {
	books := s.Books()
	switch format {
	case "yaml", "yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(books); err != nil {
			return nil, fmt.Errorf("encoding catalog: %w", err)
		}
		return buf.Bytes(), nil
	case "json":
		data, err := json.MarshalIndent(books, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding catalog: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want yaml or json)", format)
	}
}
