package catalog

import (
	"bytes"
	"encoding/json"

	"github.com/blackwell-systems/bookstorectl/internal/apperr"
)

const opParse = "parse catalog"

// Parse decodes a catalog service response into a snapshot.
//
// The payload must be a JSON array of books, or an object wrapping one under
// "books". Any entry failing validation rejects the whole response; a
// partially filtered catalog is never returned.
func Parse(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Books json.RawMessage `json:"books"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, apperr.Wrap(apperr.KindInvalidResponse, opParse, err)
		}
		trimmed = bytes.TrimSpace(env.Books)
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, apperr.New(apperr.KindInvalidResponse, opParse, "expected a list of books")
	}

	var books []Book
	if err := json.Unmarshal(trimmed, &books); err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidResponse, opParse, err)
	}
	for i := range books {
		if err := Validate(books[i]); err != nil {
			return nil, apperr.New(apperr.KindInvalidResponse, opParse, "entry %d: %v", i, err)
		}
	}
	return NewSnapshot(books), nil
}
