// Package testing provides test utilities and database setup for testing the machine registry
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestCategory creates a top-level category with the given name and slug
func (tf *TestFixtures) CreateTestCategory(name, slug string) (*models.Category, error) {
	category := &models.Category{
		UUID:     uuid.New(),
		Name:     name,
		Slug:     slug,
		Level:    1,
		IsActive: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create test category: %w", err)
	}
	return category, nil
}

// CreateTestSubcategory creates a child category under the given parent
func (tf *TestFixtures) CreateTestSubcategory(parent *models.Category, name, slug string) (*models.Category, error) {
	subcategory := &models.Category{
		UUID:     uuid.New(),
		Name:     name,
		Slug:     slug,
		ParentID: &parent.ID,
		Level:    parent.Level + 1,
		IsActive: utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(subcategory).Error; err != nil {
		return nil, fmt.Errorf("failed to create test subcategory: %w", err)
	}
	return subcategory, nil
}

// CreateTestSequenceConfig creates a sequence config for the given scope.
// The counter starts one below startingNumber, matching a freshly created config.
func (tf *TestFixtures) CreateTestSequenceConfig(categoryID uint, subcategoryID *uint, prefix, template string, startingNumber int64) (*models.SequenceConfig, error) {
	cfg := &models.SequenceConfig{
		UUID:            uuid.New(),
		CategoryID:      categoryID,
		SubcategoryID:   subcategoryID,
		Prefix:          prefix,
		Template:        template,
		StartingNumber:  startingNumber,
		CurrentSequence: startingNumber - 1,
		IsActive:        utils.ToPtr(true),
	}
	if err := tf.DB.DB.Create(cfg).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sequence config: %w", err)
	}
	return cfg, nil
}

// CreateTestMachine creates a live machine with the given identifier
func (tf *TestFixtures) CreateTestMachine(categoryID uint, subcategoryID *uint, identifier string) (*models.Machine, error) {
	machine := &models.Machine{
		UUID:            uuid.New(),
		Name:            fmt.Sprintf("Test Machine %04d", rand.Intn(10000)),
		CategoryID:      categoryID,
		SubcategoryID:   subcategoryID,
		MachineSequence: identifier,
		Status:          models.MachineStatusActive,
	}
	if err := tf.DB.DB.Create(machine).Error; err != nil {
		return nil, fmt.Errorf("failed to create test machine: %w", err)
	}
	return machine, nil
}

// CreateTestSalesOrder creates a sales order referencing the given machine
func (tf *TestFixtures) CreateTestSalesOrder(machineID uint, orderNumber string) (*models.SalesOrder, error) {
	order := &models.SalesOrder{
		UUID:         uuid.New(),
		OrderNumber:  orderNumber,
		MachineID:    machineID,
		CustomerName: "Test Customer",
		Amount:       150000,
		Currency:     "USD",
		Status:       models.SalesOrderStatusDraft,
	}
	if err := tf.DB.DB.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create test sales order: %w", err)
	}
	return order, nil
}
