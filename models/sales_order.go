package models

import (
	"time"

	"github.com/google/uuid"
)

// Sales order statuses
const (
	SalesOrderStatusDraft     = "draft"
	SalesOrderStatusConfirmed = "confirmed"
	SalesOrderStatusShipped   = "shipped"
	SalesOrderStatusCancelled = "cancelled"
)

// SalesOrder records the sale of a machine. Ordinary CRUD state with no
// coupling to the sequence engine beyond referencing a machine.
// Table: sales_orders
type SalesOrder struct {
	ID   uint      `gorm:"primaryKey" json:"id"`
	UUID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sales_orders_uuid" json:"uuid"`

	OrderNumber  string  `gorm:"size:50;not null;uniqueIndex:uk_sales_orders_number" json:"order_number"`
	MachineID    uint    `gorm:"not null;index:idx_sales_orders_machine_id" json:"machine_id"`
	CustomerName string  `gorm:"size:255;not null" json:"customer_name"`
	Amount       int64   `gorm:"not null" json:"amount"`
	Currency     string  `gorm:"size:10;not null;default:'USD'" json:"currency"`
	Status       string  `gorm:"size:30;not null;default:'draft';index:idx_sales_orders_status" json:"status"`
	Notes        *string `gorm:"type:text" json:"notes,omitempty"`

	Machine *Machine `gorm:"foreignKey:MachineID;references:ID" json:"machine,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sales_orders_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

func (SalesOrder) TableName() string {
	return "sales_orders"
}

// SalesOrderFilter represents filter criteria for sales order queries
type SalesOrderFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	OrderNumber   *string
	MachineID     *uint
	Status        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
