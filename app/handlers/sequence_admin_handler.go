// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/karakuri-works/Karakuri/app/dto"
	businessflow "github.com/karakuri-works/Karakuri/business_flow"
	"github.com/karakuri-works/Karakuri/utils"
)

// SequenceAdminHandlerInterface defines handler methods for admin sequence operations
type SequenceAdminHandlerInterface interface {
	CreateSequenceConfig(c fiber.Ctx) error
	ListSequenceConfigs(c fiber.Ctx) error
	GetSequenceConfig(c fiber.Ctx) error
	UpdateSequenceConfig(c fiber.Ctx) error
	DeleteSequenceConfig(c fiber.Ctx) error
	ResetSequenceConfig(c fiber.Ctx) error
	ReformatSequenceConfig(c fiber.Ctx) error
	GenerateSequence(c fiber.Ctx) error
}

// SequenceAdminHandler implements admin sequence endpoints
type SequenceAdminHandler struct {
	configFlow    businessflow.SequenceConfigFlow
	allocatorFlow businessflow.SequenceAllocatorFlow
	validator     *validator.Validate
}

func NewSequenceAdminHandler(configFlow businessflow.SequenceConfigFlow, allocatorFlow businessflow.SequenceAllocatorFlow) SequenceAdminHandlerInterface {
	return &SequenceAdminHandler{
		configFlow:    configFlow,
		allocatorFlow: allocatorFlow,
		validator:     validator.New(),
	}
}

func (h *SequenceAdminHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *SequenceAdminHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreateSequenceConfig creates a sequence config for a scope (admin only)
func (h *SequenceAdminHandler) CreateSequenceConfig(c fiber.Ctx) error {
	var req dto.CreateSequenceConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	res, err := h.configFlow.Create(h.createRequestContext(c, "/api/v1/admin/sequence-configs"), &req, metadata)
	if err != nil {
		if mapped := h.mapScopeError(c, err); mapped != nil {
			return mapped
		}
		if businessflow.IsInvalidPrefix(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Prefix is invalid", "INVALID_PREFIX", nil)
		}
		if businessflow.IsInvalidTemplate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Template is invalid", "INVALID_TEMPLATE", nil)
		}
		if businessflow.IsInvalidStartingNumber(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Starting number must be at least 1", "INVALID_STARTING_NUMBER", nil)
		}
		if businessflow.IsDuplicateSequenceConfig(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Sequence config already exists for this scope", "SEQUENCE_CONFIG_EXISTS", nil)
		}
		log.Println("Create sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create sequence config failed", "SEQUENCE_CONFIG_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Sequence config created", res)
}

// ListSequenceConfigs returns paginated sequence configs (admin only)
func (h *SequenceAdminHandler) ListSequenceConfigs(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	res, err := h.configFlow.List(h.createRequestContext(c, "/api/v1/admin/sequence-configs"), page, pageSize)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}
		log.Println("List sequence configs failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List sequence configs failed", "SEQUENCE_CONFIG_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence configs retrieved", res)
}

// GetSequenceConfig returns one sequence config by UUID (admin only)
func (h *SequenceAdminHandler) GetSequenceConfig(c fiber.Ctx) error {
	res, err := h.configFlow.Get(h.createRequestContext(c, "/api/v1/admin/sequence-configs/:id"), c.Params("id"))
	if err != nil {
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sequence config not found", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		log.Println("Get sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get sequence config failed", "SEQUENCE_CONFIG_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence config retrieved", res)
}

// UpdateSequenceConfig updates template, prefix, starting number or active
// flag; reformat of existing identifiers is opt-in via the payload
func (h *SequenceAdminHandler) UpdateSequenceConfig(c fiber.Ctx) error {
	var req dto.UpdateSequenceConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	res, err := h.configFlow.Update(h.createRequestContext(c, "/api/v1/admin/sequence-configs/:id"), c.Params("id"), &req, metadata)
	if err != nil {
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sequence config not found", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		if businessflow.IsConfigUpdateRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "CONFIG_UPDATE_REQUIRED", nil)
		}
		if businessflow.IsInvalidPrefix(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Prefix is invalid", "INVALID_PREFIX", nil)
		}
		if businessflow.IsInvalidTemplate(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Template is invalid", "INVALID_TEMPLATE", nil)
		}
		if businessflow.IsInvalidStartingNumber(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Starting number must be at least 1", "INVALID_STARTING_NUMBER", nil)
		}
		log.Println("Update sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update sequence config failed", "SEQUENCE_CONFIG_UPDATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence config updated", res)
}

// DeleteSequenceConfig removes a sequence config (admin only)
func (h *SequenceAdminHandler) DeleteSequenceConfig(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.configFlow.Delete(h.createRequestContext(c, "/api/v1/admin/sequence-configs/:id"), c.Params("id"), metadata); err != nil {
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sequence config not found", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		log.Println("Delete sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Delete sequence config failed", "SEQUENCE_CONFIG_DELETE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence config deleted", fiber.Map{"deleted": true})
}

// ResetSequenceConfig rewinds the counter to a new starting number
func (h *SequenceAdminHandler) ResetSequenceConfig(c fiber.Ctx) error {
	var req dto.ResetSequenceConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	res, err := h.configFlow.Reset(h.createRequestContext(c, "/api/v1/admin/sequence-configs/:id/reset"), c.Params("id"), &req, metadata)
	if err != nil {
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sequence config not found", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidStartingNumber(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Starting number must be at least 1", "INVALID_STARTING_NUMBER", nil)
		}
		log.Println("Reset sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Reset sequence config failed", "SEQUENCE_CONFIG_RESET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence config reset", res)
}

// ReformatSequenceConfig rewrites the scope's identifiers under the current template
func (h *SequenceAdminHandler) ReformatSequenceConfig(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	// Reformats can touch many rows; give them more room than regular requests
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/admin/sequence-configs/:id/reformat", 5*time.Minute)
	res, err := h.configFlow.Reformat(ctx, c.Params("id"), metadata)
	if err != nil {
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sequence config not found", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		log.Println("Reformat sequence config failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Reformat failed", "SEQUENCE_REFORMAT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Reformat completed", res)
}

// GenerateSequence allocates the next identifier for a scope
func (h *SequenceAdminHandler) GenerateSequence(c fiber.Ctx) error {
	var req dto.GenerateSequenceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, e := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(e))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	res, err := h.allocatorFlow.Generate(h.createRequestContext(c, "/api/v1/admin/sequences/generate"), &req, metadata)
	if err != nil {
		if mapped := h.mapScopeError(c, err); mapped != nil {
			return mapped
		}
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No sequence config for this scope", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		if businessflow.IsSequenceGenerationExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Sequence generation exhausted retries", "SEQUENCE_GENERATION_EXHAUSTED", nil)
		}
		log.Println("Generate sequence failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Generate sequence failed", "SEQUENCE_GENERATION_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sequence generated", res)
}

// mapScopeError translates scope resolution failures shared by several endpoints
func (h *SequenceAdminHandler) mapScopeError(c fiber.Ctx, err error) error {
	if businessflow.IsCategoryNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
	}
	if businessflow.IsCategoryInactive(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Category is inactive", "CATEGORY_INACTIVE", nil)
	}
	if businessflow.IsSubcategoryNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Subcategory not found", "SUBCATEGORY_NOT_FOUND", nil)
	}
	if businessflow.IsSubcategoryMismatch(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Subcategory does not belong to the category", "SUBCATEGORY_MISMATCH", nil)
	}
	return nil
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *SequenceAdminHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *SequenceAdminHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
