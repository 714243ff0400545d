// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/stretchr/testify/assert"
)

func TestMachineIsLive(t *testing.T) {
	m := &models.Machine{}
	assert.True(t, m.IsLive())

	now := time.Now().UTC()
	m.DeletedAt = &now
	assert.False(t, m.IsLive())
}

func TestAuditLogIsFailed(t *testing.T) {
	entry := &models.AuditLog{}
	assert.False(t, entry.IsFailed())

	entry.Success = utils.ToPtr(true)
	assert.False(t, entry.IsFailed())

	entry.Success = utils.ToPtr(false)
	assert.True(t, entry.IsFailed())
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "categories", models.Category{}.TableName())
	assert.Equal(t, "machines", models.Machine{}.TableName())
	assert.Equal(t, "sequence_configs", models.SequenceConfig{}.TableName())
	assert.Equal(t, "sales_orders", models.SalesOrder{}.TableName())
	assert.Equal(t, "audit_log", models.AuditLog{}.TableName())
}
