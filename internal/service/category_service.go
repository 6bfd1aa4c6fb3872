package service

import (
	"context"
	"strings"

	"ticket-service/internal/models"
	"ticket-service/internal/util"

	"go.uber.org/zap"
)

// CategoryStore is the persistence the category service needs
type CategoryStore interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
}

// CategoryService manages event categories
type CategoryService struct {
	store  CategoryStore
	logger *zap.Logger
}

// NewCategoryService creates a new category service
func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store, logger: util.GetLogger()}
}

// CategoryInput carries the editable fields of a category
type CategoryInput struct {
	Name        string  `json:"name" binding:"required,notblank"`
	Description *string `json:"description"`
}

func (CategoryInput) messages() validationMessages {
	return validationMessages{"": "Category name is required"}
}

func (in CategoryInput) category(id int64) (*models.Category, error) {
	if err := validateRequest(in); err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}, nil
}

// List returns all categories ordered by name
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// Create adds a category with a unique name
func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category, err := in.category(0)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.logger.Info("Category created", zap.Int64("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

// Update renames a category
func (s *CategoryService) Update(ctx context.Context, id int64, in CategoryInput) error {
	category, err := in.category(id)
	if err != nil {
		return err
	}
	if id < 1 {
		return models.ErrCategoryNotFound
	}
	return s.store.UpdateCategory(ctx, category)
}

// Delete removes a category no event uses
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if id < 1 {
		return models.ErrCategoryNotFound
	}
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Category deleted", zap.Int64("category_id", id))
	return nil
}
