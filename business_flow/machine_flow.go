// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/xuri/excelize/v2"
)

// MachineFlow handles machine registration and lifecycle. Creation allocates
// the identifier through the sequence engine; clients never choose one.
type MachineFlow interface {
	Create(ctx context.Context, req *dto.CreateMachineRequest, metadata *ClientMetadata) (*dto.MachineDTO, error)
	Update(ctx context.Context, machineUUID string, req *dto.UpdateMachineRequest, metadata *ClientMetadata) (*dto.MachineDTO, error)
	Get(ctx context.Context, machineUUID string) (*dto.MachineDTO, error)
	List(ctx context.Context, page, pageSize int, status *string) (*dto.ListMachinesResponse, error)
	Delete(ctx context.Context, machineUUID string, metadata *ClientMetadata) error
	ExportXLSX(ctx context.Context) ([]byte, error)
}

type MachineFlowImpl struct {
	machineRepo  repository.MachineRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditLogRepository
	allocator    SequenceAllocatorFlow
}

func NewMachineFlow(
	machineRepo repository.MachineRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditLogRepository,
	allocator SequenceAllocatorFlow,
) MachineFlow {
	return &MachineFlowImpl{
		machineRepo:  machineRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		allocator:    allocator,
	}
}

func (f *MachineFlowImpl) Create(ctx context.Context, req *dto.CreateMachineRequest, metadata *ClientMetadata) (*dto.MachineDTO, error) {
	if req == nil {
		return nil, NewBusinessError("MACHINE_VALIDATION_FAILED", "Create machine validation failed", ErrCategoryNotFound)
	}

	category, subcategory, err := resolveScope(ctx, f.categoryRepo, req.CategoryUUID, req.SubcategoryUUID)
	if err != nil {
		return nil, err
	}
	var subcategoryID *uint
	if subcategory != nil {
		subcategoryID = &subcategory.ID
	}

	allocation, err := f.allocator.AllocateForScope(ctx, category.ID, subcategoryID)
	if err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionMachineCreated, "Failed to allocate identifier for new machine", false, &errMsg, metadata)
		return nil, err
	}

	status := models.MachineStatusActive
	if req.Status != nil {
		status = *req.Status
	}

	machine := models.Machine{
		UUID:            uuid.New(),
		Name:            req.Name,
		CategoryID:      category.ID,
		SubcategoryID:   subcategoryID,
		MachineSequence: allocation.Identifier,
		SerialNumber:    req.SerialNumber,
		Manufacturer:    req.Manufacturer,
		Status:          status,
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}

	if err := f.machineRepo.Save(ctx, &machine); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionMachineCreated, "Failed to create machine", false, &errMsg, metadata)
		return nil, NewBusinessError("MACHINE_CREATE_FAILED", "Failed to create machine", err)
	}

	msg := fmt.Sprintf("Machine created with identifier %s", machine.MachineSequence)
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionMachineCreated, msg, true, nil, metadata)

	resp := ToMachineDTO(machine)
	return &resp, nil
}

func (f *MachineFlowImpl) Update(ctx context.Context, machineUUID string, req *dto.UpdateMachineRequest, metadata *ClientMetadata) (*dto.MachineDTO, error) {
	machine, err := f.requireMachine(ctx, machineUUID)
	if err != nil {
		return nil, err
	}

	upd := models.Machine{ID: machine.ID}
	if req.Name != nil {
		upd.Name = *req.Name
	}
	if req.Status != nil {
		upd.Status = *req.Status
	}
	upd.SerialNumber = req.SerialNumber
	upd.Manufacturer = req.Manufacturer

	if err := f.machineRepo.Update(ctx, &upd); err != nil {
		return nil, NewBusinessError("MACHINE_UPDATE_FAILED", "Failed to update machine", err)
	}

	updated, err := f.machineRepo.ByID(ctx, machine.ID)
	if err != nil || updated == nil {
		return nil, NewBusinessError("MACHINE_RELOAD_FAILED", "Failed to reload machine", err)
	}

	resp := ToMachineDTO(*updated)
	return &resp, nil
}

func (f *MachineFlowImpl) Get(ctx context.Context, machineUUID string) (*dto.MachineDTO, error) {
	machine, err := f.requireMachine(ctx, machineUUID)
	if err != nil {
		return nil, err
	}
	resp := ToMachineDTO(*machine)
	return &resp, nil
}

func (f *MachineFlowImpl) List(ctx context.Context, page, pageSize int, status *string) (*dto.ListMachinesResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	filter := models.MachineFilter{Status: status}
	machines, err := f.machineRepo.ByFilter(ctx, filter, "id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("MACHINE_LIST_FAILED", "Failed to list machines", err)
	}
	total, err := f.machineRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("MACHINE_COUNT_FAILED", "Failed to count machines", err)
	}

	items := make([]dto.MachineDTO, 0, len(machines))
	for _, m := range machines {
		items = append(items, ToMachineDTO(*m))
	}

	return &dto.ListMachinesResponse{
		Message: "Machines retrieved",
		Items:   items,
		Total:   total,
	}, nil
}

// Delete soft-deletes a machine; its identifier leaves the uniqueness
// universe and may be reissued to a future machine.
func (f *MachineFlowImpl) Delete(ctx context.Context, machineUUID string, metadata *ClientMetadata) error {
	machine, err := f.requireMachine(ctx, machineUUID)
	if err != nil {
		return err
	}

	if err := f.machineRepo.SoftDelete(ctx, machine.ID); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionMachineDeleted, "Failed to delete machine "+machineUUID, false, &errMsg, metadata)
		return NewBusinessError("MACHINE_DELETE_FAILED", "Failed to delete machine", err)
	}

	msg := "Machine deleted: " + machine.MachineSequence
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionMachineDeleted, msg, true, nil, metadata)
	return nil
}

// ExportXLSX builds a spreadsheet of all live machines with their identifiers
func (f *MachineFlowImpl) ExportXLSX(ctx context.Context) ([]byte, error) {
	machines, err := f.machineRepo.ByFilter(ctx, models.MachineFilter{}, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("MACHINE_EXPORT_FAILED", "Failed to list machines for export", err)
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	const sheet = "Machines"
	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return nil, NewBusinessError("MACHINE_EXPORT_FAILED", "Failed to prepare export sheet", err)
	}

	headers := []string{"ID", "UUID", "Identifier", "Name", "Category ID", "Subcategory ID", "Serial Number", "Manufacturer", "Status", "Created At"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, h); err != nil {
			return nil, NewBusinessError("MACHINE_EXPORT_FAILED", "Failed to write export header", err)
		}
	}

	for row, m := range machines {
		values := []any{
			m.ID,
			m.UUID.String(),
			m.MachineSequence,
			m.Name,
			m.CategoryID,
			derefUint(m.SubcategoryID),
			derefString(m.SerialNumber),
			derefString(m.Manufacturer),
			m.Status,
			m.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := file.SetCellValue(sheet, cell, v); err != nil {
				return nil, NewBusinessError("MACHINE_EXPORT_FAILED", "Failed to write export row", err)
			}
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, NewBusinessError("MACHINE_EXPORT_FAILED", "Failed to serialize export", err)
	}
	return buf.Bytes(), nil
}

func (f *MachineFlowImpl) requireMachine(ctx context.Context, machineUUID string) (*models.Machine, error) {
	machine, err := f.machineRepo.ByUUID(ctx, machineUUID)
	if err != nil {
		return nil, NewBusinessError("MACHINE_LOOKUP_FAILED", "Failed to look up machine", err)
	}
	if machine == nil || !machine.IsLive() {
		return nil, NewBusinessError("MACHINE_NOT_FOUND", "Machine not found", ErrMachineNotFound)
	}
	return machine, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefUint(v *uint) any {
	if v == nil {
		return ""
	}
	return *v
}
