// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/utils"
	"gorm.io/gorm"
)

// CategoryRepositoryImpl implements CategoryRepository interface
type CategoryRepositoryImpl struct {
	*BaseRepository[models.Category, models.CategoryFilter]
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &CategoryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Category, models.CategoryFilter](db),
	}
}

// ByUUID retrieves a category by UUID (string)
func (r *CategoryRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Category, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.CategoryFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// BySlug retrieves a category by its slug
func (r *CategoryRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	filter := models.CategoryFilter{Slug: &slug}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListChildren retrieves the direct children of a category
func (r *CategoryRepositoryImpl) ListChildren(ctx context.Context, parentID uint) ([]*models.Category, error) {
	filter := models.CategoryFilter{ParentID: &parentID}
	return r.ByFilter(ctx, filter, "id ASC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *CategoryRepositoryImpl) applyFilter(query *gorm.DB, filter models.CategoryFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Slug != nil {
		query = query.Where("slug = ?", *filter.Slug)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves categories based on filter criteria
func (r *CategoryRepositoryImpl) ByFilter(ctx context.Context, filter models.CategoryFilter, orderBy string, limit, offset int) ([]*models.Category, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Category{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var categories []*models.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Count returns the number of categories matching the filter
func (r *CategoryRepositoryImpl) Count(ctx context.Context, filter models.CategoryFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Category{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any category matching the filter exists
func (r *CategoryRepositoryImpl) Exists(ctx context.Context, filter models.CategoryFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ByID retrieves a category by its ID
func (r *CategoryRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Category, error) {
	db := r.getDB(ctx)

	var category models.Category
	err := db.Last(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &category, nil
}
