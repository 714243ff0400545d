// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/utils"
)

// SalesOrderFlow handles sales order CRUD. Orders reference machines but have
// no coupling to the sequence engine.
type SalesOrderFlow interface {
	Create(ctx context.Context, req *dto.CreateSalesOrderRequest, metadata *ClientMetadata) (*dto.SalesOrderDTO, error)
	Get(ctx context.Context, orderUUID string) (*dto.SalesOrderDTO, error)
	List(ctx context.Context, page, pageSize int, status *string) (*dto.ListSalesOrdersResponse, error)
}

type SalesOrderFlowImpl struct {
	orderRepo   repository.SalesOrderRepository
	machineRepo repository.MachineRepository
	auditRepo   repository.AuditLogRepository
}

func NewSalesOrderFlow(
	orderRepo repository.SalesOrderRepository,
	machineRepo repository.MachineRepository,
	auditRepo repository.AuditLogRepository,
) SalesOrderFlow {
	return &SalesOrderFlowImpl{
		orderRepo:   orderRepo,
		machineRepo: machineRepo,
		auditRepo:   auditRepo,
	}
}

func (f *SalesOrderFlowImpl) Create(ctx context.Context, req *dto.CreateSalesOrderRequest, metadata *ClientMetadata) (*dto.SalesOrderDTO, error) {
	if req == nil {
		return nil, NewBusinessError("SALES_ORDER_VALIDATION_FAILED", "Create sales order validation failed", ErrMachineNotFound)
	}

	machine, err := f.machineRepo.ByUUID(ctx, req.MachineUUID)
	if err != nil {
		return nil, NewBusinessError("MACHINE_LOOKUP_FAILED", "Failed to look up machine", err)
	}
	if machine == nil || !machine.IsLive() {
		return nil, NewBusinessError("MACHINE_NOT_FOUND", "Machine not found", ErrMachineNotFound)
	}

	existing, err := f.orderRepo.ByOrderNumber(ctx, req.OrderNumber)
	if err != nil {
		return nil, NewBusinessError("SALES_ORDER_LOOKUP_FAILED", "Failed to check order number", err)
	}
	if existing != nil {
		return nil, NewBusinessError("ORDER_NUMBER_EXISTS", "Order number already exists", ErrOrderNumberAlreadyExists)
	}

	currency := "USD"
	if req.Currency != nil {
		currency = *req.Currency
	}

	order := models.SalesOrder{
		UUID:         uuid.New(),
		OrderNumber:  req.OrderNumber,
		MachineID:    machine.ID,
		CustomerName: req.CustomerName,
		Amount:       req.Amount,
		Currency:     currency,
		Status:       models.SalesOrderStatusDraft,
		Notes:        req.Notes,
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}

	if err := f.orderRepo.Save(ctx, &order); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSalesOrderCreated, "Failed to create sales order", false, &errMsg, metadata)
		return nil, NewBusinessError("SALES_ORDER_CREATE_FAILED", "Failed to create sales order", err)
	}

	msg := "Sales order created: " + order.OrderNumber
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSalesOrderCreated, msg, true, nil, metadata)

	resp := ToSalesOrderDTO(order)
	return &resp, nil
}

func (f *SalesOrderFlowImpl) Get(ctx context.Context, orderUUID string) (*dto.SalesOrderDTO, error) {
	order, err := f.orderRepo.ByUUID(ctx, orderUUID)
	if err != nil {
		return nil, NewBusinessError("SALES_ORDER_LOOKUP_FAILED", "Failed to look up sales order", err)
	}
	if order == nil {
		return nil, NewBusinessError("SALES_ORDER_NOT_FOUND", "Sales order not found", ErrSalesOrderNotFound)
	}

	resp := ToSalesOrderDTO(*order)
	return &resp, nil
}

func (f *SalesOrderFlowImpl) List(ctx context.Context, page, pageSize int, status *string) (*dto.ListSalesOrdersResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.SalesOrderFilter{Status: status}
	orders, err := f.orderRepo.ByFilter(ctx, filter, "id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("SALES_ORDER_LIST_FAILED", "Failed to list sales orders", err)
	}
	total, err := f.orderRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("SALES_ORDER_COUNT_FAILED", "Failed to count sales orders", err)
	}

	items := make([]dto.SalesOrderDTO, 0, len(orders))
	for _, o := range orders {
		items = append(items, ToSalesOrderDTO(*o))
	}

	return &dto.ListSalesOrdersResponse{
		Message: "Sales orders retrieved",
		Items:   items,
		Total:   total,
	}, nil
}
