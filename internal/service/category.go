package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/finance_tracker/internal/logging"
	"github.com/Skotchmaster/finance_tracker/internal/models"
	"github.com/Skotchmaster/finance_tracker/internal/repo"
)

type CategoryInput struct {
	Name  string
	Type  string
	Color string
}

var defaultCategories = []CategoryInput{
	{Name: "Food", Type: models.TypeExpense, Color: "#ff7f50"},
	{Name: "Rent", Type: models.TypeExpense, Color: "#ffa500"},
	{Name: "Transport", Type: models.TypeExpense, Color: "#1e90ff"},
	{Name: "Entertainment", Type: models.TypeExpense, Color: "#8a2be2"},
	{Name: "Salary", Type: models.TypeIncome, Color: "#2e8b57"},
}

type CategoryService struct {
	Store CategoryStore
}

// Init seeds the default categories into an empty registry.
func (s *CategoryService) Init(ctx context.Context) error {
	defaults := make([]models.Category, 0, len(defaultCategories))
	for _, d := range defaultCategories {
		defaults = append(defaults, models.Category{ID: uuid.NewString(), Name: d.Name, Type: d.Type, Color: d.Color})
	}

	seeded, err := s.Store.SeedCategories(ctx, defaults)
	if err != nil {
		return fmt.Errorf("seed categories: %w", err)
	}
	if seeded {
		logging.FromContext(ctx).Info("seeded default categories", "count", len(defaults))
	}
	return nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	items, err := s.Store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return items, nil
}

func (s *CategoryService) Add(ctx context.Context, in CategoryInput) (*models.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !models.ValidType(in.Type) {
		return nil, invalid("type must be expense or income")
	}

	c := &models.Category{
		ID:    uuid.NewString(),
		Name:  name,
		Type:  in.Type,
		Color: strings.TrimSpace(in.Color),
	}
	if err := s.Store.AddCategory(ctx, c); err != nil {
		return nil, fmt.Errorf("add category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	c, err := s.Store.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.Store.DeleteCategory(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return ok, nil
}
