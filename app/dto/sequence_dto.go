// Package dto contains Data Transfer Objects for API request and response structures
package dto

// CreateSequenceConfigRequest represents the payload to create a sequence
// config for a (category, optional subcategory) scope. Admin-only endpoint
type CreateSequenceConfigRequest struct {
	CategoryUUID    string  `json:"category_uuid" validate:"required,uuid"`
	SubcategoryUUID *string `json:"subcategory_uuid,omitempty" validate:"omitempty,uuid"`
	Prefix          string  `json:"prefix" validate:"required,min=1,max=10"`
	Template        string  `json:"template" validate:"required,min=1,max=255"`
	StartingNumber  *int64  `json:"starting_number,omitempty" validate:"omitempty,min=1"`
}

// UpdateSequenceConfigRequest represents a partial update of a sequence
// config. Changing the starting number rewinds the counter to start fresh;
// changing only the template leaves the counter alone. Reformat opts in to
// rewriting existing machine identifiers under the new template.
type UpdateSequenceConfigRequest struct {
	Prefix         *string `json:"prefix,omitempty" validate:"omitempty,min=1,max=10"`
	Template       *string `json:"template,omitempty" validate:"omitempty,min=1,max=255"`
	StartingNumber *int64  `json:"starting_number,omitempty" validate:"omitempty,min=1"`
	IsActive       *bool   `json:"is_active,omitempty" validate:"omitempty"`
	Reformat       bool    `json:"reformat,omitempty"`
}

// ResetSequenceConfigRequest rewinds a counter to a new starting number
type ResetSequenceConfigRequest struct {
	StartingNumber int64 `json:"starting_number" validate:"required,min=1"`
}

// SequenceConfigDTO represents a sequence config for responses
type SequenceConfigDTO struct {
	ID              uint    `json:"id"`
	UUID            string  `json:"uuid"`
	CategoryID      uint    `json:"category_id"`
	SubcategoryID   *uint   `json:"subcategory_id,omitempty"`
	Prefix          string  `json:"prefix"`
	Template        string  `json:"template"`
	StartingNumber  int64   `json:"starting_number"`
	CurrentSequence int64   `json:"current_sequence"`
	IsActive        *bool   `json:"is_active"`
	CreatedBy       *string `json:"created_by,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// ListSequenceConfigsResponse wraps the sequence config list
type ListSequenceConfigsResponse struct {
	Message string              `json:"message"`
	Items   []SequenceConfigDTO `json:"items"`
}

// GenerateSequenceRequest represents the payload to allocate the next
// identifier for a scope without creating a machine
type GenerateSequenceRequest struct {
	CategoryUUID    string  `json:"category_uuid" validate:"required,uuid"`
	SubcategoryUUID *string `json:"subcategory_uuid,omitempty" validate:"omitempty,uuid"`
}

// GeneratedSequenceDTO represents an allocated identifier
type GeneratedSequenceDTO struct {
	Identifier string `json:"identifier"`
	Number     int64  `json:"number"`
	ConfigUUID string `json:"config_uuid"`
}

// ReformatReportDTO summarizes a reformat migration over a scope
type ReformatReportDTO struct {
	Total              int `json:"total"`
	Updated            int `json:"updated"`
	SkippedUnchanged   int `json:"skipped_unchanged"`
	SkippedUndecodable int `json:"skipped_undecodable"`
	Failed             int `json:"failed"`
}

// UpdateSequenceConfigResponse wraps the updated config plus the reformat
// report when one was requested
type UpdateSequenceConfigResponse struct {
	Message  string             `json:"message"`
	Config   SequenceConfigDTO  `json:"config"`
	Reformat *ReformatReportDTO `json:"reformat,omitempty"`
}
