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

// SalesOrderHandlerInterface defines handler methods for sales order operations
type SalesOrderHandlerInterface interface {
	CreateSalesOrder(c fiber.Ctx) error
	ListSalesOrders(c fiber.Ctx) error
	GetSalesOrder(c fiber.Ctx) error
}

// SalesOrderHandler implements sales order endpoints
type SalesOrderHandler struct {
	flow      businessflow.SalesOrderFlow
	validator *validator.Validate
}

func NewSalesOrderHandler(flow businessflow.SalesOrderFlow) SalesOrderHandlerInterface {
	return &SalesOrderHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *SalesOrderHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *SalesOrderHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// CreateSalesOrder creates a sales order for an existing machine
func (h *SalesOrderHandler) CreateSalesOrder(c fiber.Ctx) error {
	var req dto.CreateSalesOrderRequest
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
	res, err := h.flow.Create(h.createRequestContext(c, "/api/v1/sales-orders"), &req, metadata)
	if err != nil {
		if businessflow.IsMachineNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Machine not found", "MACHINE_NOT_FOUND", nil)
		}
		if businessflow.IsOrderNumberAlreadyExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Order number already exists", "ORDER_NUMBER_EXISTS", nil)
		}
		log.Println("Create sales order failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Create sales order failed", "SALES_ORDER_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Sales order created", res)
}

// ListSalesOrders returns paginated sales orders
func (h *SalesOrderHandler) ListSalesOrders(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	var status *string
	if v := c.Query("status"); v != "" {
		status = &v
	}

	res, err := h.flow.List(h.createRequestContext(c, "/api/v1/sales-orders"), page, pageSize, status)
	if err != nil {
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid pagination parameters", "INVALID_PAGINATION", nil)
		}
		log.Println("List sales orders failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List sales orders failed", "SALES_ORDER_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sales orders retrieved", res)
}

// GetSalesOrder returns one sales order by UUID
func (h *SalesOrderHandler) GetSalesOrder(c fiber.Ctx) error {
	res, err := h.flow.Get(h.createRequestContext(c, "/api/v1/sales-orders/:id"), c.Params("id"))
	if err != nil {
		if businessflow.IsSalesOrderNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Sales order not found", "SALES_ORDER_NOT_FOUND", nil)
		}
		log.Println("Get sales order failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get sales order failed", "SALES_ORDER_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Sales order retrieved", res)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *SalesOrderHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 30*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
