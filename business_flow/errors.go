// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Category-related errors
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryInactive    = errors.New("category is inactive")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrSubcategoryMismatch = errors.New("subcategory does not belong to the category")

	// Sequence config errors
	ErrSequenceConfigNotFound  = errors.New("sequence config not found")
	ErrDuplicateSequenceConfig = errors.New("sequence config already exists for this scope")
	ErrInvalidTemplate         = errors.New("template is invalid")
	ErrInvalidPrefix           = errors.New("prefix is invalid")
	ErrInvalidStartingNumber   = errors.New("starting number must be at least 1")
	ErrConfigUpdateRequired    = errors.New("at least one field must be provided for update")

	// Allocation errors
	ErrSequenceGenerationExhausted = errors.New("sequence generation exhausted retry attempts")

	// Machine errors
	ErrMachineNotFound = errors.New("machine not found")

	// Sales order errors
	ErrSalesOrderNotFound       = errors.New("sales order not found")
	ErrOrderNumberAlreadyExists = errors.New("order number already exists")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCategoryNotFound(err error) bool {
	return errors.Is(err, ErrCategoryNotFound)
}

func IsCategoryInactive(err error) bool {
	return errors.Is(err, ErrCategoryInactive)
}

func IsSubcategoryNotFound(err error) bool {
	return errors.Is(err, ErrSubcategoryNotFound)
}

func IsSubcategoryMismatch(err error) bool {
	return errors.Is(err, ErrSubcategoryMismatch)
}

func IsSequenceConfigNotFound(err error) bool {
	return errors.Is(err, ErrSequenceConfigNotFound)
}

func IsDuplicateSequenceConfig(err error) bool {
	return errors.Is(err, ErrDuplicateSequenceConfig)
}

func IsInvalidTemplate(err error) bool {
	return errors.Is(err, ErrInvalidTemplate)
}

func IsInvalidPrefix(err error) bool {
	return errors.Is(err, ErrInvalidPrefix)
}

func IsInvalidStartingNumber(err error) bool {
	return errors.Is(err, ErrInvalidStartingNumber)
}

func IsConfigUpdateRequired(err error) bool {
	return errors.Is(err, ErrConfigUpdateRequired)
}

func IsSequenceGenerationExhausted(err error) bool {
	return errors.Is(err, ErrSequenceGenerationExhausted)
}

func IsMachineNotFound(err error) bool {
	return errors.Is(err, ErrMachineNotFound)
}

func IsSalesOrderNotFound(err error) bool {
	return errors.Is(err, ErrSalesOrderNotFound)
}

func IsOrderNumberAlreadyExists(err error) bool {
	return errors.Is(err, ErrOrderNumberAlreadyExists)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}
