package catalog

// Snapshot is an immutable point-in-time copy of the catalog. Order is the
// order the service returned and is preserved for stable rendering.
type Snapshot struct {
	books []Book
}

// NewSnapshot copies books into a new snapshot.
func NewSnapshot(books []Book) *Snapshot {
	cp := make([]Book, len(books))
	copy(cp, books)
	return &Snapshot{books: cp}
}

// Books returns a copy of the snapshot's entries. Safe on a nil snapshot.
func (s *Snapshot) Books() []Book {
	if s == nil {
		return []Book{}
	}
	cp := make([]Book, len(s.books))
	copy(cp, s.books)
	return cp
}

// Len returns the number of books. Safe on a nil snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.books)
}

// Lookup returns the book whose ID or object reference equals ref.
func (s *Snapshot) Lookup(ref string) (Book, bool) {
	if s == nil || ref == "" {
		return Book{}, false
	}
	for _, b := range s.books {
		if b.ID == ref || b.ObjectRef == ref {
			return b, true
		}
	}
	return Book{}, false
}

// Contains reports whether ref names a book in the snapshot.
func (s *Snapshot) Contains(ref string) bool {
	_, ok := s.Lookup(ref)
	return ok
}
