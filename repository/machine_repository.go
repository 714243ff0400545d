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

// MachineRepositoryImpl implements MachineRepository interface
type MachineRepositoryImpl struct {
	*BaseRepository[models.Machine, models.MachineFilter]
}

// NewMachineRepository creates a new machine repository
func NewMachineRepository(db *gorm.DB) MachineRepository {
	return &MachineRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Machine, models.MachineFilter](db),
	}
}

// ByID retrieves a machine by its ID
func (r *MachineRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Machine, error) {
	db := r.getDB(ctx)

	var machine models.Machine
	err := db.Last(&machine, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &machine, nil
}

// ByUUID retrieves a machine by UUID (string)
func (r *MachineRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Machine, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.MachineFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ExistsLiveByIdentifier is the uniqueness oracle for the sequence allocator:
// does any non-deleted machine already carry this exact identifier.
func (r *MachineRepositoryImpl) ExistsLiveByIdentifier(ctx context.Context, identifier string) (bool, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Machine{}).
		Where("machine_sequence = ? AND deleted_at IS NULL", identifier).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListLiveByScope retrieves all non-deleted machines whose scope matches
// exactly. A nil subcategoryID matches machines with no subcategory, not any.
func (r *MachineRepositoryImpl) ListLiveByScope(ctx context.Context, categoryID uint, subcategoryID *uint) ([]*models.Machine, error) {
	db := r.getDB(ctx)

	query := db.Model(&models.Machine{}).
		Where("category_id = ? AND deleted_at IS NULL", categoryID)
	if subcategoryID != nil {
		query = query.Where("subcategory_id = ?", *subcategoryID)
	} else {
		query = query.Where("subcategory_id IS NULL")
	}

	var machines []*models.Machine
	if err := query.Order("id ASC").Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// UpdateIdentifier sets a machine's identifier to a new value. Used by the
// reformat migrator; each call touches a disjoint row.
func (r *MachineRepositoryImpl) UpdateIdentifier(ctx context.Context, machineID uint, identifier string) error {
	db := r.getDB(ctx)

	result := db.Model(&models.Machine{}).
		Where("id = ?", machineID).
		Updates(map[string]any{
			"machine_sequence": identifier,
			"updated_at":       utils.UTCNow(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("machine not found with ID: " + strconv.Itoa(int(machineID)))
	}
	return nil
}

// Update updates mutable fields for a machine by ID
func (r *MachineRepositoryImpl) Update(ctx context.Context, machine *models.Machine) error {
	if machine == nil {
		return errors.New("machine payload is nil")
	}
	if machine.ID == 0 {
		return errors.New("machine ID is required for update")
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
	if machine.Name != "" {
		updates["name"] = machine.Name
	}
	if machine.Status != "" {
		updates["status"] = machine.Status
	}
	if machine.SerialNumber != nil {
		updates["serial_number"] = *machine.SerialNumber
	}
	if machine.Manufacturer != nil {
		updates["manufacturer"] = *machine.Manufacturer
	}

	result := db.Model(&models.Machine{}).
		Where("id = ?", machine.ID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("machine not found with ID: " + strconv.Itoa(int(machine.ID)))
	}
	return nil
}

// SoftDelete marks a machine as deleted; its identifier leaves the
// uniqueness universe but stays on the row.
func (r *MachineRepositoryImpl) SoftDelete(ctx context.Context, machineID uint) error {
	db := r.getDB(ctx)

	result := db.Model(&models.Machine{}).
		Where("id = ? AND deleted_at IS NULL", machineID).
		Updates(map[string]any{
			"deleted_at": utils.UTCNow(),
			"updated_at": utils.UTCNow(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("machine not found with ID: " + strconv.Itoa(int(machineID)))
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *MachineRepositoryImpl) applyFilter(query *gorm.DB, filter models.MachineFilter) *gorm.DB {
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
	if filter.MachineSequence != nil {
		query = query.Where("machine_sequence = ?", *filter.MachineSequence)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves machines based on filter criteria. Soft-deleted rows are
// excluded; callers needing them go through dedicated methods.
func (r *MachineRepositoryImpl) ByFilter(ctx context.Context, filter models.MachineFilter, orderBy string, limit, offset int) ([]*models.Machine, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Machine{}).Where("deleted_at IS NULL")

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

	var machines []*models.Machine
	if err := query.Find(&machines).Error; err != nil {
		return nil, err
	}
	return machines, nil
}

// Count returns the number of live machines matching the filter
func (r *MachineRepositoryImpl) Count(ctx context.Context, filter models.MachineFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Machine{}).Where("deleted_at IS NULL")
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any live machine matching the filter exists
func (r *MachineRepositoryImpl) Exists(ctx context.Context, filter models.MachineFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
