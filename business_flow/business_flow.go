// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/config"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

func redisKey(cfg config.CacheConfig, key string) string {
	if cfg.RedisPrefix == "" {
		return key
	}
	return cfg.RedisPrefix + ":" + key
}

// createAuditLog creates an audit log entry for a business operation
func createAuditLog(ctx context.Context, auditRepo repository.AuditLogRepository, action, description string, success bool, errorMsg *string, metadata *ClientMetadata) error {
	ipAddress := ""
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errorMsg,
	}

	// Extract request ID from context if available
	requestID := ctx.Value(utils.RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return auditRepo.Save(ctx, audit)
}

// ToSequenceConfigDTO converts a sequence config model to its response DTO
func ToSequenceConfigDTO(config models.SequenceConfig) dto.SequenceConfigDTO {
	return dto.SequenceConfigDTO{
		ID:              config.ID,
		UUID:            config.UUID.String(),
		CategoryID:      config.CategoryID,
		SubcategoryID:   config.SubcategoryID,
		Prefix:          config.Prefix,
		Template:        config.Template,
		StartingNumber:  config.StartingNumber,
		CurrentSequence: config.CurrentSequence,
		IsActive:        config.IsActive,
		CreatedBy:       config.CreatedBy,
		CreatedAt:       config.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       config.UpdatedAt.Format(time.RFC3339),
	}
}

// ToMachineDTO converts a machine model to its response DTO
func ToMachineDTO(machine models.Machine) dto.MachineDTO {
	return dto.MachineDTO{
		ID:              machine.ID,
		UUID:            machine.UUID.String(),
		Name:            machine.Name,
		CategoryID:      machine.CategoryID,
		SubcategoryID:   machine.SubcategoryID,
		MachineSequence: machine.MachineSequence,
		SerialNumber:    machine.SerialNumber,
		Manufacturer:    machine.Manufacturer,
		Status:          machine.Status,
		CreatedAt:       machine.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       machine.UpdatedAt.Format(time.RFC3339),
	}
}

// ToCategoryDTO converts a category model to its response DTO
func ToCategoryDTO(category models.Category) dto.CategoryDTO {
	return dto.CategoryDTO{
		ID:       category.ID,
		UUID:     category.UUID.String(),
		Name:     category.Name,
		Slug:     category.Slug,
		ParentID: category.ParentID,
		Level:    category.Level,
		IsActive: category.IsActive,
	}
}

// ToSalesOrderDTO converts a sales order model to its response DTO
func ToSalesOrderDTO(order models.SalesOrder) dto.SalesOrderDTO {
	return dto.SalesOrderDTO{
		ID:           order.ID,
		UUID:         order.UUID.String(),
		OrderNumber:  order.OrderNumber,
		MachineID:    order.MachineID,
		CustomerName: order.CustomerName,
		Amount:       order.Amount,
		Currency:     order.Currency,
		Status:       order.Status,
		Notes:        order.Notes,
		CreatedAt:    order.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    order.UpdatedAt.Format(time.RFC3339),
	}
}
