package model

import "fmt"

// CategoryType classifies categories. Transfers are never categorized.
type CategoryType string

const (
	CategoryTypeExpense CategoryType = "expense"
	CategoryTypeIncome  CategoryType = "income"
)

// ParseCategoryType converts a string to a CategoryType.
func ParseCategoryType(s string) (CategoryType, error) {
	t := CategoryType(s)
	switch t {
	case CategoryTypeExpense, CategoryTypeIncome:
		return t, nil
	}
	return "", fmt.Errorf("unknown category type %q", s)
}

// Category is a classification label. Nesting is at most one level deep.
type Category struct {
	ID         string
	OwnerID    string
	Name       string
	Type       CategoryType
	ParentID   string // "" = top-level
	SortOrder  int64
	IsArchived bool
}

// Scope returns the ordering partition the category belongs to.
func (c Category) Scope() Scope {
	return Scope{OwnerID: c.OwnerID, ParentID: c.ParentID, Archived: c.IsArchived}
}

// Orderable returns the category's ordering projection.
func (c Category) Orderable() Orderable {
	return Orderable{ID: c.ID, SortOrder: c.SortOrder}
}
