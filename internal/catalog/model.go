package catalog

import (
	"encoding/json"
	"strings"
)

// DefaultCategory is the bucket for books without a category. Upload
// normalization and grouping both go through NormalizeCategory so a book
// uploaded with a blank category lands where a fetched one would.
const DefaultCategory = "Uncategorized"

// Book is one entry in the remote catalog. The client only holds a replica.
type Book struct {
	ID        string `json:"id" yaml:"id" validate:"nonblank"`
	Title     string `json:"title" yaml:"title" validate:"nonblank"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	ObjectRef string `json:"objectRef,omitempty" yaml:"object_ref,omitempty"`
	URL       string `json:"url,omitempty" yaml:"url,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	Size      int64  `json:"size,omitempty" yaml:"size,omitempty"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// wireBook accepts the field names the catalog service has used over time.
type wireBook struct {
	ID        string `json:"id"`
	MongoID   string `json:"_id"`
	PublicID  string `json:"publicId"`
	ObjectRef string `json:"objectRef"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	URL       string `json:"url"`
	Format    string `json:"format"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"createdAt"`
}

// UnmarshalJSON maps service payloads onto Book. The handle used for
// service operations is id, then publicId, then _id. The object reference
// falls back to publicId and finally to the handle itself.
func (b *Book) UnmarshalJSON(data []byte) error {
	var w wireBook
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*b = Book{
		ID:        firstNonBlank(w.ID, w.PublicID, w.MongoID),
		Title:     w.Title,
		Category:  w.Category,
		ObjectRef: firstNonBlank(w.ObjectRef, w.PublicID),
		URL:       w.URL,
		Format:    w.Format,
		Size:      w.Size,
		CreatedAt: w.CreatedAt,
	}
	return nil
}

// Ref returns the object-store reference for the book's payload.
func (b Book) Ref() string {
	if b.ObjectRef != "" {
		return b.ObjectRef
	}
	return b.ID
}

// CategoryName returns the book's category with the default applied.
func (b Book) CategoryName() string {
	return NormalizeCategory(b.Category)
}

// NormalizeCategory trims s and substitutes DefaultCategory when blank.
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultCategory
	}
	return s
}

func firstNonBlank(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
