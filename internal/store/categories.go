package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ticket-service/internal/models"
)

// GetCategories retrieves all categories ordered by name
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories,
		"SELECT id, name, description, created_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *Store) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := s.db.GetContext(ctx, &category,
		"SELECT id, name, description, created_at FROM categories WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// CreateCategory inserts a category with a unique name
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	err := s.db.GetContext(ctx, category, `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		category.Name, category.Description)
	if isUniqueViolation(err) {
		return models.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// UpdateCategory renames or redescribes a category
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE categories SET name = $1, description = $2 WHERE id = $3",
		category.Name, category.Description, category.ID)
	if isUniqueViolation(err) {
		return models.ErrCategoryExists
	}
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return expectOneRow(res, models.ErrCategoryNotFound)
}

// DeleteCategory removes a category no event refers to
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := s.GetCategoryByID(ctx, id); err != nil {
		return err
	}

	var inUse bool
	if err := s.db.GetContext(ctx, &inUse,
		"SELECT EXISTS(SELECT 1 FROM events WHERE category_id = $1)", id); err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse {
		return models.ErrCategoryInUse
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if isForeignKeyViolation(err) {
		return models.ErrCategoryInUse
	}
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}
