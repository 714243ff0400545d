package models

import (
	"time"

	"github.com/google/uuid"
)

// Machine statuses
const (
	MachineStatusDraft          = "draft"
	MachineStatusActive         = "active"
	MachineStatusDecommissioned = "decommissioned"
)

// Machine is a tracked machine record. MachineSequence is the human-readable
// identifier allocated by the sequence engine; it is unique among live
// (non-deleted) machines only, which is enforced at the application layer —
// soft-deleted rows keep their identifier but leave the uniqueness universe.
// Table: machines
type Machine struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_machines_uuid" json:"uuid"`

	Name            string  `gorm:"size:255;not null" json:"name"`
	CategoryID      uint    `gorm:"not null;index:idx_machines_category_id" json:"category_id"`
	SubcategoryID   *uint   `gorm:"index:idx_machines_subcategory_id" json:"subcategory_id,omitempty"`
	MachineSequence string  `gorm:"size:100;not null;index:idx_machines_sequence" json:"machine_sequence"`
	SerialNumber    *string `gorm:"size:100" json:"serial_number,omitempty"`
	Manufacturer    *string `gorm:"size:255" json:"manufacturer,omitempty"`
	Status          string  `gorm:"size:30;not null;default:'active';index:idx_machines_status" json:"status"`

	Category    *Category `gorm:"foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	Subcategory *Category `gorm:"foreignKey:SubcategoryID;references:ID" json:"subcategory,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_machines_created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index:idx_machines_deleted_at" json:"deleted_at,omitempty"`
}

func (Machine) TableName() string {
	return "machines"
}

// IsLive reports whether the machine participates in identifier uniqueness.
func (m *Machine) IsLive() bool {
	return m.DeletedAt == nil
}

// MachineFilter represents filter criteria for machine queries
type MachineFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	CategoryID      *uint
	SubcategoryID   *uint
	MachineSequence *string
	Status          *string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
}
