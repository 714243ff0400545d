package dto

// CreateMachineRequest represents the payload to register a new machine.
// The identifier is allocated by the sequence engine; clients never supply it
type CreateMachineRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=255"`
	CategoryUUID    string  `json:"category_uuid" validate:"required,uuid"`
	SubcategoryUUID *string `json:"subcategory_uuid,omitempty" validate:"omitempty,uuid"`
	SerialNumber    *string `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	Manufacturer    *string `json:"manufacturer,omitempty" validate:"omitempty,max=255"`
	Status          *string `json:"status,omitempty" validate:"omitempty,oneof=draft active decommissioned"`
}

// UpdateMachineRequest represents a partial update of a machine
type UpdateMachineRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	SerialNumber *string `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	Manufacturer *string `json:"manufacturer,omitempty" validate:"omitempty,max=255"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=draft active decommissioned"`
}

// MachineDTO represents a machine for responses
type MachineDTO struct {
	ID              uint    `json:"id"`
	UUID            string  `json:"uuid"`
	Name            string  `json:"name"`
	CategoryID      uint    `json:"category_id"`
	SubcategoryID   *uint   `json:"subcategory_id,omitempty"`
	MachineSequence string  `json:"machine_sequence"`
	SerialNumber    *string `json:"serial_number,omitempty"`
	Manufacturer    *string `json:"manufacturer,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// ListMachinesResponse wraps the machine list with the total row count for
// pagination
type ListMachinesResponse struct {
	Message string       `json:"message"`
	Items   []MachineDTO `json:"items"`
	Total   int64        `json:"total"`
}
