package services

import (
	"context"

	"github.com/gofrs/uuid"

	"day-planner/backend/internal/apperrors"
	"day-planner/backend/internal/models"
)

type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context, ownerID uuid.UUID) ([]models.Category, error) {
	return s.store.ListCategories(ctx, ownerID)
}

func (s *CategoryService) Get(ctx context.Context, ownerID, id uuid.UUID) (models.Category, error) {
	return s.store.GetCategory(ctx, id, ownerID)
}

func (s *CategoryService) Create(ctx context.Context, ownerID uuid.UUID, input CategoryInput) (models.Category, error) {
	if ownerID == uuid.Nil {
		return models.Category{}, apperrors.Validation("owner_id", "caller identity is required")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return models.Category{}, apperrors.Transport("failed to generate category id", err)
	}

	category := models.Category{
		ID:      id,
		OwnerID: ownerID,
		Name:    input.Name,
		Color:   input.Color,
	}
	if err := category.Validate(); err != nil {
		return models.Category{}, err
	}

	// Name uniqueness is scoped per owner; the store reports a duplicate
	// as a conflict.
	if err := s.store.CreateCategory(ctx, &category); err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, ownerID, id uuid.UUID, input CategoryInput) (models.Category, error) {
	category, err := s.store.GetCategory(ctx, id, ownerID)
	if err != nil {
		return models.Category{}, err
	}

	if input.Name != "" {
		category.Name = input.Name
	}
	if input.Color != "" {
		category.Color = input.Color
	}
	if err := category.Validate(); err != nil {
		return models.Category{}, err
	}

	return s.store.UpdateCategory(ctx, category)
}

// Delete removes a category. Dependent tasks survive with their category
// reference nulled; that happens inside the store's transaction.
func (s *CategoryService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return s.store.DeleteCategory(ctx, id, ownerID)
}
