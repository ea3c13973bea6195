package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultFormats are the extensions the upload picker offers.
var DefaultFormats = []string{"pdf", "epub", "doc", "docx"}

// CheckFormat reports whether name's extension is in allowed. An empty
// allow-list accepts anything.
func CheckFormat(name string, allowed []string) error {
	if len(allowed) == 0 {
		return nil
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == ext {
			return nil
		}
	}
	if ext == "" {
		return fmt.Errorf("%q has no file extension; allowed: %s", name, strings.Join(allowed, ", "))
	}
	return fmt.Errorf(".%s files are not accepted; allowed: %s", ext, strings.Join(allowed, ", "))
}
