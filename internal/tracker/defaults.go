package tracker

import (
	"context"
	"fmt"

	"github.com/cleared-dev/tally/internal/model"
)

type categorySeed struct {
	Name     string
	Type     model.CategoryType
	Children []string
}

// defaultCategories returns the category tree seeded into a new tracker.
func defaultCategories() []categorySeed {
	return []categorySeed{
		{Name: "Food", Type: model.CategoryTypeExpense, Children: []string{"Groceries"}},
		{Name: "Transport", Type: model.CategoryTypeExpense},
		{Name: "Housing", Type: model.CategoryTypeExpense},
		{Name: "Salary", Type: model.CategoryTypeIncome},
		{Name: "Other", Type: model.CategoryTypeIncome},
	}
}

// SeedDefaultCategories creates the default category tree for an owner.
func (s *Service) SeedDefaultCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	var created []model.Category
	for _, seed := range defaultCategories() {
		parent, err := s.CreateCategory(ctx, ownerID, NewCategoryParams{Name: seed.Name, Type: seed.Type})
		if err != nil {
			return nil, fmt.Errorf("seeding %s: %w", seed.Name, err)
		}
		created = append(created, parent)

		for _, child := range seed.Children {
			c, err := s.CreateCategory(ctx, ownerID, NewCategoryParams{Name: child, Type: seed.Type, ParentID: parent.ID})
			if err != nil {
				return nil, fmt.Errorf("seeding %s: %w", child, err)
			}
			created = append(created, c)
		}
	}
	return created, nil
}
