// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/utils"
	"gorm.io/gorm"
)

// SequenceConfigRepositoryImpl implements SequenceConfigRepository interface
type SequenceConfigRepositoryImpl struct {
	*BaseRepository[models.SequenceConfig, models.SequenceConfigFilter]
}

// NewSequenceConfigRepository creates a new sequence config repository
func NewSequenceConfigRepository(db *gorm.DB) SequenceConfigRepository {
	return &SequenceConfigRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SequenceConfig, models.SequenceConfigFilter](db),
	}
}

// ByID retrieves a sequence config by its ID
func (r *SequenceConfigRepositoryImpl) ByID(ctx context.Context, id uint) (*models.SequenceConfig, error) {
	db := r.getDB(ctx)

	var config models.SequenceConfig
	err := db.Last(&config, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &config, nil
}

// ByUUID retrieves a sequence config by UUID (string)
func (r *SequenceConfigRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.SequenceConfig, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.SequenceConfigFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByExactScope retrieves the active config for an exact scope, without the
// category-wide fallback.
func (r *SequenceConfigRepositoryImpl) ByExactScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*models.SequenceConfig, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.SequenceConfig{}).
		Where("category_id = ? AND is_active = ?", categoryID, true)
	if subcategoryID != nil {
		query = query.Where("subcategory_id = ?", *subcategoryID)
	} else {
		query = query.Where("subcategory_id IS NULL")
	}

	var config models.SequenceConfig
	err := query.Order("id DESC").First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &config, nil
}

// ByScope retrieves the active config for a scope. A subcategory without a
// dedicated config shares its parent category's counter, so a miss on the
// exact scope falls back to the category-wide row.
func (r *SequenceConfigRepositoryImpl) ByScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*models.SequenceConfig, error) {
	config, err := r.ByExactScope(ctx, categoryID, subcategoryID)
	if err != nil {
		return nil, err
	}
	if config != nil {
		return config, nil
	}
	if subcategoryID == nil {
		return nil, nil
	}
	return r.ByExactScope(ctx, categoryID, nil)
}

// IncrementAndGet atomically advances current_sequence and returns the new
// value in a single statement. Concurrent allocators on the same scope each
// receive a distinct number; collision probes burn numbers rather than ever
// re-reading the counter.
func (r *SequenceConfigRepositoryImpl) IncrementAndGet(ctx context.Context, id uint) (int64, error) {
	db := r.getDB(ctx)

	var newValue int64
	err := db.Raw(
		"UPDATE sequence_configs SET current_sequence = current_sequence + 1, updated_at = ? WHERE id = ? RETURNING current_sequence",
		utils.UTCNow(), id,
	).Scan(&newValue).Error
	if err != nil {
		return 0, err
	}
	return newValue, nil
}

// Update updates mutable fields for a sequence config by ID
func (r *SequenceConfigRepositoryImpl) Update(ctx context.Context, config *models.SequenceConfig) error {
	if config == nil {
		return errors.New("sequence config payload is nil")
	}
	if config.ID == 0 {
		return errors.New("sequence config ID is required for update")
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	updates := map[string]any{
		"updated_at": utils.UTCNow(),
	}
	if config.Prefix != "" {
		updates["prefix"] = config.Prefix
	}
	if config.Template != "" {
		updates["template"] = config.Template
	}
	if config.StartingNumber != 0 {
		updates["starting_number"] = config.StartingNumber
		updates["current_sequence"] = config.CurrentSequence
	}
	if config.IsActive != nil {
		updates["is_active"] = *config.IsActive
	}

	result := db.Model(&models.SequenceConfig{}).
		Where("id = ?", config.ID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("sequence config not found with ID: " + strconv.Itoa(int(config.ID)))
	}
	return nil
}

// Delete removes a sequence config row
func (r *SequenceConfigRepositoryImpl) Delete(ctx context.Context, id uint) error {
	db := r.getDB(ctx)

	result := db.Delete(&models.SequenceConfig{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("sequence config not found with ID: " + strconv.Itoa(int(id)))
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SequenceConfigRepositoryImpl) applyFilter(query *gorm.DB, filter models.SequenceConfigFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("subcategory_id = ?", *filter.SubcategoryID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves sequence configs based on filter criteria
func (r *SequenceConfigRepositoryImpl) ByFilter(ctx context.Context, filter models.SequenceConfigFilter, orderBy string, limit, offset int) ([]*models.SequenceConfig, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SequenceConfig{})

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

	var configs []*models.SequenceConfig
	if err := query.Find(&configs).Error; err != nil {
		return nil, err
	}
	return configs, nil
}

// Count returns the number of sequence configs matching the filter
func (r *SequenceConfigRepositoryImpl) Count(ctx context.Context, filter models.SequenceConfigFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SequenceConfig{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any sequence config matching the filter exists
func (r *SequenceConfigRepositoryImpl) Exists(ctx context.Context, filter models.SequenceConfigFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
