package core

import "strings"

// DefaultCategories seeds every user's category set.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Utilities",
	"Housing",
	"Entertainment",
	"Health",
	"Shopping",
	"Education",
	"Other",
}

// ValidateCategoryName checks a category name before it is stored.
func ValidateCategoryName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyCategory
	}
	if len(name) > 50 {
		return ErrCategoryLong
	}
	return nil
}

// CategorySet is an insertion-ordered set of category names. Membership is
// exact-match and case-sensitive; names are never removed.
type CategorySet struct {
	names []string
	index map[string]struct{}
}

// NewCategorySet builds a set from the given names, dropping duplicates and
// blanks while keeping first-seen order.
func NewCategorySet(names ...string) *CategorySet {
	s := &CategorySet{index: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Contains reports whether name is already in the set.
func (s *CategorySet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Add inserts name and reports whether it was new.
func (s *CategorySet) Add(name string) bool {
	if strings.TrimSpace(name) == "" || s.Contains(name) {
		return false
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
	return true
}

// Names returns a copy of the set in insertion order.
func (s *CategorySet) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *CategorySet) Len() int {
	return len(s.names)
}
