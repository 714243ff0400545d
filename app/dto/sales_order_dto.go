package dto

// CreateSalesOrderRequest represents the payload to create a sales order for
// an existing machine
type CreateSalesOrderRequest struct {
	OrderNumber  string  `json:"order_number" validate:"required,min=1,max=50"`
	MachineUUID  string  `json:"machine_uuid" validate:"required,uuid"`
	CustomerName string  `json:"customer_name" validate:"required,min=1,max=255"`
	Amount       int64   `json:"amount" validate:"required,gt=0"`
	Currency     *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// SalesOrderDTO represents a sales order for responses
type SalesOrderDTO struct {
	ID           uint    `json:"id"`
	UUID         string  `json:"uuid"`
	OrderNumber  string  `json:"order_number"`
	MachineID    uint    `json:"machine_id"`
	CustomerName string  `json:"customer_name"`
	Amount       int64   `json:"amount"`
	Currency     string  `json:"currency"`
	Status       string  `json:"status"`
	Notes        *string `json:"notes,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// ListSalesOrdersResponse wraps the sales order list
type ListSalesOrdersResponse struct {
	Message string          `json:"message"`
	Items   []SalesOrderDTO `json:"items"`
	Total   int64           `json:"total"`
}
