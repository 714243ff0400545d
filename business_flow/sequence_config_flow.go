// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/sequence"
	"github.com/karakuri-works/Karakuri/utils"
)

// SequenceConfigFlow handles admin operations on sequence configs
type SequenceConfigFlow interface {
	Create(ctx context.Context, req *dto.CreateSequenceConfigRequest, metadata *ClientMetadata) (*dto.SequenceConfigDTO, error)
	Update(ctx context.Context, configUUID string, req *dto.UpdateSequenceConfigRequest, metadata *ClientMetadata) (*dto.UpdateSequenceConfigResponse, error)
	Reset(ctx context.Context, configUUID string, req *dto.ResetSequenceConfigRequest, metadata *ClientMetadata) (*dto.SequenceConfigDTO, error)
	Reformat(ctx context.Context, configUUID string, metadata *ClientMetadata) (*dto.ReformatReportDTO, error)
	Delete(ctx context.Context, configUUID string, metadata *ClientMetadata) error
	Get(ctx context.Context, configUUID string) (*dto.SequenceConfigDTO, error)
	List(ctx context.Context, page, pageSize int) (*dto.ListSequenceConfigsResponse, error)
}

type SequenceConfigFlowImpl struct {
	configRepo   repository.SequenceConfigRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditLogRepository
	reformatFlow SequenceReformatFlow
}

func NewSequenceConfigFlow(
	configRepo repository.SequenceConfigRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditLogRepository,
	reformatFlow SequenceReformatFlow,
) SequenceConfigFlow {
	return &SequenceConfigFlowImpl{
		configRepo:   configRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		reformatFlow: reformatFlow,
	}
}

func (f *SequenceConfigFlowImpl) Create(ctx context.Context, req *dto.CreateSequenceConfigRequest, metadata *ClientMetadata) (*dto.SequenceConfigDTO, error) {
	// Validate
	if req == nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_VALIDATION_FAILED", "Create sequence config validation failed", ErrInvalidTemplate)
	}
	if !sequence.PrefixPattern.MatchString(req.Prefix) {
		return nil, NewBusinessError("INVALID_PREFIX", "Prefix must be 1-10 uppercase letters, digits, or hyphens", ErrInvalidPrefix)
	}
	if _, err := sequence.ParseTemplate(req.Template); err != nil {
		return nil, NewBusinessError("INVALID_TEMPLATE", err.Error(), ErrInvalidTemplate)
	}
	startingNumber := int64(1)
	if req.StartingNumber != nil {
		if *req.StartingNumber < 1 {
			return nil, NewBusinessError("INVALID_STARTING_NUMBER", "Starting number must be at least 1", ErrInvalidStartingNumber)
		}
		startingNumber = *req.StartingNumber
	}

	category, subcategory, err := resolveScope(ctx, f.categoryRepo, req.CategoryUUID, req.SubcategoryUUID)
	if err != nil {
		return nil, err
	}
	var subcategoryID *uint
	if subcategory != nil {
		subcategoryID = &subcategory.ID
	}

	// Uniqueness check on the exact scope; the category-wide fallback does not
	// count as a duplicate of a dedicated subcategory config
	existing, err := f.configRepo.ByExactScope(ctx, category.ID, subcategoryID)
	if err != nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_LOOKUP_FAILED", "Failed to check existing config", err)
	}
	if existing != nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_EXISTS", "Sequence config already exists for this scope", ErrDuplicateSequenceConfig)
	}

	cfg := models.SequenceConfig{
		UUID:            uuid.New(),
		CategoryID:      category.ID,
		SubcategoryID:   subcategoryID,
		Prefix:          req.Prefix,
		Template:        req.Template,
		StartingNumber:  startingNumber,
		CurrentSequence: startingNumber - 1,
		IsActive:        utils.ToPtr(true),
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}

	if err := f.configRepo.Save(ctx, &cfg); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigCreated, "Failed to create sequence config", false, &errMsg, metadata)
		return nil, NewBusinessError("SEQUENCE_CONFIG_CREATE_FAILED", "Failed to create sequence config", err)
	}

	msg := "Sequence config created for category " + category.Slug
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigCreated, msg, true, nil, metadata)

	resp := ToSequenceConfigDTO(cfg)
	return &resp, nil
}

func (f *SequenceConfigFlowImpl) Update(ctx context.Context, configUUID string, req *dto.UpdateSequenceConfigRequest, metadata *ClientMetadata) (*dto.UpdateSequenceConfigResponse, error) {
	if req == nil || (req.Prefix == nil && req.Template == nil && req.StartingNumber == nil && req.IsActive == nil) {
		return nil, NewBusinessError("SEQUENCE_CONFIG_UPDATE_VALIDATION_FAILED", "At least one field must be provided", ErrConfigUpdateRequired)
	}

	cfg, err := f.requireConfig(ctx, configUUID)
	if err != nil {
		return nil, err
	}
	oldTemplate := cfg.Template

	if req.Prefix != nil && !sequence.PrefixPattern.MatchString(*req.Prefix) {
		return nil, NewBusinessError("INVALID_PREFIX", "Prefix must be 1-10 uppercase letters, digits, or hyphens", ErrInvalidPrefix)
	}
	if req.Template != nil {
		if _, err := sequence.ParseTemplate(*req.Template); err != nil {
			return nil, NewBusinessError("INVALID_TEMPLATE", err.Error(), ErrInvalidTemplate)
		}
	}
	if req.StartingNumber != nil && *req.StartingNumber < 1 {
		return nil, NewBusinessError("INVALID_STARTING_NUMBER", "Starting number must be at least 1", ErrInvalidStartingNumber)
	}

	// A template-only change leaves the counter untouched; a starting number
	// change rewinds it so the next allocation begins at the new start.
	upd := models.SequenceConfig{ID: cfg.ID, IsActive: req.IsActive}
	if req.Prefix != nil {
		upd.Prefix = *req.Prefix
	}
	if req.Template != nil {
		upd.Template = *req.Template
	}
	if req.StartingNumber != nil {
		upd.StartingNumber = *req.StartingNumber
		upd.CurrentSequence = *req.StartingNumber - 1
	}

	if err := f.configRepo.Update(ctx, &upd); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigUpdated, "Failed to update sequence config "+configUUID, false, &errMsg, metadata)
		return nil, NewBusinessError("SEQUENCE_CONFIG_UPDATE_FAILED", "Failed to update sequence config", err)
	}

	updated, err := f.configRepo.ByID(ctx, cfg.ID)
	if err != nil || updated == nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_RELOAD_FAILED", "Failed to reload sequence config", err)
	}

	msg := "Sequence config updated: " + configUUID
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigUpdated, msg, true, nil, metadata)

	resp := &dto.UpdateSequenceConfigResponse{
		Message: "Sequence config updated",
		Config:  ToSequenceConfigDTO(*updated),
	}

	// Existing identifiers are only rewritten on explicit opt-in
	if req.Reformat && req.Template != nil && *req.Template != oldTemplate {
		report, err := f.reformatFlow.ReformatScope(ctx, updated, oldTemplate, metadata)
		if err != nil {
			return nil, err
		}
		reportDTO := report.ToDTO()
		resp.Reformat = &reportDTO
	}

	return resp, nil
}

func (f *SequenceConfigFlowImpl) Reset(ctx context.Context, configUUID string, req *dto.ResetSequenceConfigRequest, metadata *ClientMetadata) (*dto.SequenceConfigDTO, error) {
	if req == nil || req.StartingNumber < 1 {
		return nil, NewBusinessError("INVALID_STARTING_NUMBER", "Starting number must be at least 1", ErrInvalidStartingNumber)
	}

	cfg, err := f.requireConfig(ctx, configUUID)
	if err != nil {
		return nil, err
	}

	upd := models.SequenceConfig{
		ID:              cfg.ID,
		StartingNumber:  req.StartingNumber,
		CurrentSequence: req.StartingNumber - 1,
	}
	if err := f.configRepo.Update(ctx, &upd); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigReset, "Failed to reset sequence config "+configUUID, false, &errMsg, metadata)
		return nil, NewBusinessError("SEQUENCE_CONFIG_RESET_FAILED", "Failed to reset sequence config", err)
	}

	msg := fmt.Sprintf("Sequence config %s reset to start at %d", configUUID, req.StartingNumber)
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigReset, msg, true, nil, metadata)

	updated, err := f.configRepo.ByID(ctx, cfg.ID)
	if err != nil || updated == nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_RELOAD_FAILED", "Failed to reload sequence config", err)
	}

	resp := ToSequenceConfigDTO(*updated)
	return &resp, nil
}

// Reformat rewrites the scope's identifiers under the current template. Legacy
// identifiers that no longer match it structurally are decoded heuristically.
func (f *SequenceConfigFlowImpl) Reformat(ctx context.Context, configUUID string, metadata *ClientMetadata) (*dto.ReformatReportDTO, error) {
	cfg, err := f.requireConfig(ctx, configUUID)
	if err != nil {
		return nil, err
	}

	report, err := f.reformatFlow.ReformatScope(ctx, cfg, cfg.Template, metadata)
	if err != nil {
		return nil, err
	}

	reportDTO := report.ToDTO()
	return &reportDTO, nil
}

func (f *SequenceConfigFlowImpl) Delete(ctx context.Context, configUUID string, metadata *ClientMetadata) error {
	cfg, err := f.requireConfig(ctx, configUUID)
	if err != nil {
		return err
	}

	if err := f.configRepo.Delete(ctx, cfg.ID); err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigDeleted, "Failed to delete sequence config "+configUUID, false, &errMsg, metadata)
		return NewBusinessError("SEQUENCE_CONFIG_DELETE_FAILED", "Failed to delete sequence config", err)
	}

	msg := "Sequence config deleted: " + configUUID
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceConfigDeleted, msg, true, nil, metadata)
	return nil
}

func (f *SequenceConfigFlowImpl) Get(ctx context.Context, configUUID string) (*dto.SequenceConfigDTO, error) {
	cfg, err := f.requireConfig(ctx, configUUID)
	if err != nil {
		return nil, err
	}
	resp := ToSequenceConfigDTO(*cfg)
	return &resp, nil
}

func (f *SequenceConfigFlowImpl) List(ctx context.Context, page, pageSize int) (*dto.ListSequenceConfigsResponse, error) {
	if page < 1 {
		return nil, NewBusinessError("INVALID_PAGE", "Page must be at least 1", ErrInvalidPage)
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "Page size must be between 1 and 100", ErrInvalidPageSize)
	}

	configs, err := f.configRepo.ByFilter(ctx, models.SequenceConfigFilter{}, "id DESC", pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_LIST_FAILED", "Failed to list sequence configs", err)
	}

	items := make([]dto.SequenceConfigDTO, 0, len(configs))
	for _, cfg := range configs {
		items = append(items, ToSequenceConfigDTO(*cfg))
	}

	return &dto.ListSequenceConfigsResponse{
		Message: "Sequence configs retrieved",
		Items:   items,
	}, nil
}

func (f *SequenceConfigFlowImpl) requireConfig(ctx context.Context, configUUID string) (*models.SequenceConfig, error) {
	cfg, err := f.configRepo.ByUUID(ctx, configUUID)
	if err != nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_LOOKUP_FAILED", "Failed to look up sequence config", err)
	}
	if cfg == nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_NOT_FOUND", "Sequence config not found", ErrSequenceConfigNotFound)
	}
	return cfg, nil
}
