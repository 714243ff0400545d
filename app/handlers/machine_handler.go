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

// MachineHandlerInterface defines handler methods for machine operations
type MachineHandlerInterface interface {
	CreateMachine(c fiber.Ctx) error
	ListMachines(c fiber.Ctx) error
	GetMachine(c fiber.Ctx) error
	UpdateMachine(c fiber.Ctx) error
	DeleteMachine(c fiber.Ctx) error
	ExportMachines(c fiber.Ctx) error
}

// MachineHandler implements machine endpoints
type MachineHandler struct {
	flow      businessflow.MachineFlow
	validator *validator.Validate
}

func NewMachineHandler(flow businessflow.MachineFlow) MachineHandlerInterface {
	return &MachineHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *MachineHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *MachineHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreateMachine registers a machine; its identifier comes from the sequence engine
func (h *MachineHandler) CreateMachine(c fiber.Ctx) error {
	var req dto.CreateMachineRequest
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
	res, err := h.flow.Create(h.createRequestContext(c, "/api/v1/machines"), &req, metadata)
	if err != nil {
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
		if businessflow.IsSequenceConfigNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "No sequence config for this scope", "SEQUENCE_CONFIG_NOT_FOUND", nil)
		}
		if businessflow.IsSequenceGenerationExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Identifier allocation exhausted retries", "SEQUENCE_GENERATION_EXHAUSTED", nil)
		}
		log.Println("Create machine failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create machine failed", "MACHINE_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Machine created", res)
}

// ListMachines returns paginated live machines
func (h *MachineHandler) ListMachines(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}

	res, err := h.flow.List(h.createRequestContext(c, "/api/v1/machines"), page, pageSize, status)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}
		log.Println("List machines failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List machines failed", "MACHINE_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Machines retrieved", res)
}

// GetMachine returns one machine by UUID
func (h *MachineHandler) GetMachine(c fiber.Ctx) error {
	res, err := h.flow.Get(h.createRequestContext(c, "/api/v1/machines/:id"), c.Params("id"))
	if err != nil {
		if businessflow.IsMachineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Machine not found", "MACHINE_NOT_FOUND", nil)
		}
		log.Println("Get machine failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get machine failed", "MACHINE_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Machine retrieved", res)
}

// UpdateMachine updates mutable machine fields; the identifier never changes here
func (h *MachineHandler) UpdateMachine(c fiber.Ctx) error {
	var req dto.UpdateMachineRequest
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
	res, err := h.flow.Update(h.createRequestContext(c, "/api/v1/machines/:id"), c.Params("id"), &req, metadata)
	if err != nil {
		if businessflow.IsMachineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Machine not found", "MACHINE_NOT_FOUND", nil)
		}
		log.Println("Update machine failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Update machine failed", "MACHINE_UPDATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Machine updated", res)
}

// DeleteMachine soft-deletes a machine
func (h *MachineHandler) DeleteMachine(c fiber.Ctx) error {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if err := h.flow.Delete(h.createRequestContext(c, "/api/v1/machines/:id"), c.Params("id"), metadata); err != nil {
		if businessflow.IsMachineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Machine not found", "MACHINE_NOT_FOUND", nil)
		}
		log.Println("Delete machine failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Delete machine failed", "MACHINE_DELETE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Machine deleted", fiber.Map{"deleted": true})
}

// ExportMachines streams an XLSX export of live machines (admin only)
func (h *MachineHandler) ExportMachines(c fiber.Ctx) error {
	ctx := h.createRequestContextWithTimeout(c, "/api/v1/admin/machines/export", 2*time.Minute)
	data, err := h.flow.ExportXLSX(ctx)
	if err != nil {
		log.Println("Export machines failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Export machines failed", "MACHINE_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="machines.xlsx"`)
	return c.Status(fiber.StatusOK).Send(data)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *MachineHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *MachineHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
