// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/karakuri-works/Karakuri/app/dto"
	businessflow "github.com/karakuri-works/Karakuri/business_flow"
	"github.com/karakuri-works/Karakuri/utils"
)

// CategoryHandlerInterface defines handler methods for category reads
type CategoryHandlerInterface interface {
	ListCategories(c fiber.Ctx) error
	GetCategory(c fiber.Ctx) error
	ListSubcategories(c fiber.Ctx) error
}

// CategoryHandler implements category endpoints
type CategoryHandler struct {
	flow businessflow.CategoryFlow
}

func NewCategoryHandler(flow businessflow.CategoryFlow) CategoryHandlerInterface {
	return &CategoryHandler{flow: flow}
}

func (h *CategoryHandler) ErrorResponse(c fiber.Ctx, status int, message, code string, details any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: false, Message: message, Error: dto.ErrorDetail{Code: code, Details: details}})
}

func (h *CategoryHandler) SuccessResponse(c fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(dto.APIResponse{Success: true, Message: message, Data: data})
}

// ListCategories returns categories, optionally filtered by tree level
func (h *CategoryHandler) ListCategories(c fiber.Ctx) error {
	var level *int
	if v := c.Query("level"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			level = &parsed
		}
	}

	res, err := h.flow.List(h.createRequestContext(c, "/api/v1/categories"), level)
	if err != nil {
		log.Println("List categories failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List categories failed", "CATEGORY_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Categories retrieved", res)
}

// GetCategory returns one category by UUID
func (h *CategoryHandler) GetCategory(c fiber.Ctx) error {
	res, err := h.flow.Get(h.createRequestContext(c, "/api/v1/categories/:id"), c.Params("id"))
	if err != nil {
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		log.Println("Get category failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get category failed", "CATEGORY_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Category retrieved", res)
}

// ListSubcategories returns the direct children of a category
func (h *CategoryHandler) ListSubcategories(c fiber.Ctx) error {
	res, err := h.flow.ListChildren(h.createRequestContext(c, "/api/v1/categories/:id/children"), c.Params("id"))
	if err != nil {
		if businessflow.IsCategoryNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Category not found", "CATEGORY_NOT_FOUND", nil)
		}
		log.Println("List subcategories failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List subcategories failed", "CATEGORY_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Subcategories retrieved", res)
}

// createRequestContext mirrors other handlers for request-scoped values
func (h *CategoryHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 30*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
