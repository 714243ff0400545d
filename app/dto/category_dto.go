package dto

// CategoryDTO represents a category node for responses
type CategoryDTO struct {
	ID       uint   `json:"id"`
	UUID     string `json:"uuid"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ParentID *uint  `json:"parent_id,omitempty"`
	Level    int    `json:"level"`
	IsActive *bool  `json:"is_active"`
}

// ListCategoriesResponse wraps the category list
type ListCategoriesResponse struct {
	Message string        `json:"message"`
	Items   []CategoryDTO `json:"items"`
}
