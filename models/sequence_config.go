package models

import (
	"time"

	"github.com/google/uuid"
)

// SequenceConfig is the per-scope counter record driving machine identifier
// allocation. A scope is a (category, optional subcategory) pair; a row with
// a NULL subcategory is the category-wide counter and acts as a fallback for
// subcategories without a dedicated row.
//
// CurrentSequence is the last number actually issued (not the next one);
// the invariant CurrentSequence >= StartingNumber-1 holds at all times.
// It is mutated only by the allocator's atomic increment or by an explicit
// reset/starting-number change.
// Table: sequence_configs
type SequenceConfig struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sequence_configs_uuid" json:"uuid"`

	CategoryID    uint  `gorm:"not null;index:idx_sequence_configs_category_id" json:"category_id"`
	SubcategoryID *uint `gorm:"index:idx_sequence_configs_subcategory_id" json:"subcategory_id,omitempty"`

	Prefix          string `gorm:"size:10;not null" json:"prefix"`
	Template        string `gorm:"size:255;not null" json:"template"`
	StartingNumber  int64  `gorm:"not null;default:1" json:"starting_number"`
	CurrentSequence int64  `gorm:"not null;default:0" json:"current_sequence"`

	Category    *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Subcategory *Category `gorm:"foreignKey:SubcategoryID;references:ID" json:"subcategory,omitempty"`

	IsActive  *bool     `gorm:"default:true;index:idx_sequence_configs_is_active" json:"is_active"`
	CreatedBy *string   `gorm:"size:255" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sequence_configs_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SequenceConfig) TableName() string {
	return "sequence_configs"
}

// SequenceConfigFilter represents filter criteria for sequence config queries
type SequenceConfigFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CategoryID    *uint
	SubcategoryID *uint
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
