// Package models contains domain entities and business models for the machine registry
package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a node in the machine category hierarchy. Level 1 nodes are
// top-level categories; deeper nodes reference their parent. The sequence
// engine only reads categories (slug resolution); tree maintenance lives in
// an external service.
// Table: categories
type Category struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_categories_uuid" json:"uuid"`

	Name     string `gorm:"size:255;not null" json:"name"`
	Slug     string `gorm:"size:100;not null;index:idx_categories_slug" json:"slug"`
	ParentID *uint  `gorm:"index:idx_categories_parent_id" json:"parent_id,omitempty"`
	Level    int    `gorm:"not null;default:1;index:idx_categories_level" json:"level"`

	IsActive  *bool     `gorm:"default:true;index:idx_categories_is_active" json:"is_active"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_categories_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

// CategoryFilter represents filter criteria for category queries
type CategoryFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Slug     *string
	ParentID *uint
	Level    *int
	IsActive *bool
}
