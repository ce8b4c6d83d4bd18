package core

import (
	"reflect"
	"testing"
)

func TestCategorySet(t *testing.T) {
	s := NewCategorySet(DefaultCategories...)
	if s.Len() != len(DefaultCategories) {
		t.Fatalf("Len() = %d", s.Len())
	}
	if s.Add("Food") {
		t.Fatalf("duplicate should not be added")
	}
	if !s.Add("food") {
		t.Fatalf("membership is case-sensitive, %q should be new", "food")
	}
	if s.Add("  ") {
		t.Fatalf("blank names should be ignored")
	}
	names := s.Names()
	if names[len(names)-1] != "food" {
		t.Fatalf("new names are appended, got %v", names)
	}
	names[0] = "mutated"
	if s.Names()[0] != "Food" {
		t.Fatalf("Names() must return a copy")
	}
}

func TestNewCategorySetDedupe(t *testing.T) {
	got := NewCategorySet("B", "A", "B", "", "C").Names()
	if !reflect.DeepEqual(got, []string{"B", "A", "C"}) {
		t.Fatalf("Names() = %v", got)
	}
}
