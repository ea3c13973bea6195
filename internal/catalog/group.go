package catalog

// CategoryGroup is a derived view of a snapshot keyed by category. It is
// recomputed from the snapshot and never edited on its own.
type CategoryGroup struct {
	// Names lists categories in order of first appearance.
	Names []string
	// Books maps a category to its books in snapshot order.
	Books map[string][]Book
}

// Len returns the number of categories.
func (g CategoryGroup) Len() int { return len(g.Names) }

// Get returns the books filed under name.
func (g CategoryGroup) Get(name string) []Book { return g.Books[name] }

// Group buckets a snapshot by category. Books with a blank category go to
// DefaultCategory.
func Group(s *Snapshot) CategoryGroup {
	g := CategoryGroup{Names: []string{}, Books: map[string][]Book{}}
	for _, b := range s.Books() {
		name := b.CategoryName()
		if _, seen := g.Books[name]; !seen {
			g.Names = append(g.Names, name)
		}
		g.Books[name] = append(g.Books[name], b)
	}
	return g
}
