// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"

	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/utils"
	"gorm.io/gorm"
)

// SalesOrderRepositoryImpl implements SalesOrderRepository interface
type SalesOrderRepositoryImpl struct {
	*BaseRepository[models.SalesOrder, models.SalesOrderFilter]
}

// NewSalesOrderRepository creates a new sales order repository
func NewSalesOrderRepository(db *gorm.DB) SalesOrderRepository {
	return &SalesOrderRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SalesOrder, models.SalesOrderFilter](db),
	}
}

// ByID retrieves a sales order by its ID
func (r *SalesOrderRepositoryImpl) ByID(ctx context.Context, id uint) (*models.SalesOrder, error) {
	db := r.getDB(ctx)

	var order models.SalesOrder
	err := db.Last(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &order, nil
}

// ByUUID retrieves a sales order by UUID (string)
func (r *SalesOrderRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.SalesOrder, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.SalesOrderFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByOrderNumber retrieves a sales order by its order number
func (r *SalesOrderRepositoryImpl) ByOrderNumber(ctx context.Context, orderNumber string) (*models.SalesOrder, error) {
	filter := models.SalesOrderFilter{OrderNumber: &orderNumber}
	items, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SalesOrderRepositoryImpl) applyFilter(query *gorm.DB, filter models.SalesOrderFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.OrderNumber != nil {
		query = query.Where("order_number = ?", *filter.OrderNumber)
	}
	if filter.MachineID != nil {
		query = query.Where("machine_id = ?", *filter.MachineID)
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

// ByFilter retrieves sales orders based on filter criteria
func (r *SalesOrderRepositoryImpl) ByFilter(ctx context.Context, filter models.SalesOrderFilter, orderBy string, limit, offset int) ([]*models.SalesOrder, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SalesOrder{})

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

	var orders []*models.SalesOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count returns the number of sales orders matching the filter
func (r *SalesOrderRepositoryImpl) Count(ctx context.Context, filter models.SalesOrderFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SalesOrder{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any sales order matching the filter exists
func (r *SalesOrderRepositoryImpl) Exists(ctx context.Context, filter models.SalesOrderFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
