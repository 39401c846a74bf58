package category

// Store owns the ordered category list and the current selection.
// It is not safe for concurrent use; the frame loop is its only user.
type Store struct {
	categories []Category
	index      int
}

// New copies categories into a store. At most MaxCategories entries are kept.
func New(categories []Category) (*Store, error) {
	if len(categories) == 0 {
		return nil, ErrEmptyStore
	}
	if len(categories) > MaxCategories {
		categories = categories[:MaxCategories]
	}
	list := make([]Category, len(categories))
	copy(list, categories)
	return &Store{categories: list}, nil
}

func (s *Store) Current() Category { return s.categories[s.index] }

func (s *Store) Index() int { return s.index }

func (s *Store) Count() int { return len(s.categories) }

// Next advances the selection, wrapping to the first category.
func (s *Store) Next() int {
	s.index = (s.index + 1) % len(s.categories)
	return s.index
}

// Previous moves the selection back, wrapping to the last category.
func (s *Store) Previous() int {
	s.index = (s.index - 1 + len(s.categories)) % len(s.categories)
	return s.index
}

// SetIndex selects index modulo the category count.
func (s *Store) SetIndex(index int) int {
	n := len(s.categories)
	s.index = ((index % n) + n) % n
	return s.index
}

// Find returns the index of the first category with the given name.
func (s *Store) Find(name string) (int, bool) {
	for i, c := range s.categories {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// All returns a copy of the category list.
func (s *Store) All() []Category {
	out := make([]Category, len(s.categories))
	copy(out, s.categories)
	return out
}
