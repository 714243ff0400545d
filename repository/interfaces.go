// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/karakuri-works/Karakuri/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CategoryRepository defines read operations over the category hierarchy.
// The sequence engine only ever reads categories; tree maintenance belongs to
// an external service.
type CategoryRepository interface {
	Repository[models.Category, models.CategoryFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Category, error)
	BySlug(ctx context.Context, slug string) (*models.Category, error)
	ListChildren(ctx context.Context, parentID uint) ([]*models.Category, error)
}

// MachineRepository defines operations for machines, including the three
// collaborator calls the sequence engine depends on: the live-identifier
// uniqueness oracle, scope fetch, and identifier update.
type MachineRepository interface {
	Repository[models.Machine, models.MachineFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Machine, error)
	ExistsLiveByIdentifier(ctx context.Context, identifier string) (bool, error)
	ListLiveByScope(ctx context.Context, categoryID uint, subcategoryID *uint) ([]*models.Machine, error)
	UpdateIdentifier(ctx context.Context, machineID uint, identifier string) error
	Update(ctx context.Context, machine *models.Machine) error
	SoftDelete(ctx context.Context, machineID uint) error
}

// SequenceConfigRepository is the counter store consumed by the allocator and
// the config manager.
type SequenceConfigRepository interface {
	Repository[models.SequenceConfig, models.SequenceConfigFilter]
	ByUUID(ctx context.Context, uuid string) (*models.SequenceConfig, error)
	// ByScope resolves the active config for an exact (category, subcategory)
	// scope, falling back to the category-wide config (NULL subcategory) when
	// no dedicated one exists.
	ByScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*models.SequenceConfig, error)
	// ByExactScope resolves a config without the fallback rule; used for
	// duplicate detection at creation time.
	ByExactScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*models.SequenceConfig, error)
	// IncrementAndGet atomically advances current_sequence by one and returns
	// the new value. This is the only counter mutation the allocator performs.
	IncrementAndGet(ctx context.Context, id uint) (int64, error)
	Update(ctx context.Context, config *models.SequenceConfig) error
	Delete(ctx context.Context, id uint) error
}

// SalesOrderRepository defines operations for sales orders
type SalesOrderRepository interface {
	Repository[models.SalesOrder, models.SalesOrderFilter]
	ByUUID(ctx context.Context, uuid string) (*models.SalesOrder, error)
	ByOrderNumber(ctx context.Context, orderNumber string) (*models.SalesOrder, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
