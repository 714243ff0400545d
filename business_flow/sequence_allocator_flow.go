// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"
	"fmt"
	"strconv"

	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/config"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/sequence"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	// Identifiers issued, partitioned by category slug
	sequencesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sequences_generated_total",
			Help: "Total number of machine identifiers issued",
		},
		[]string{"category"},
	)

	// Reserved numbers that rendered to an already-taken identifier
	sequenceCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sequence_collisions_total",
			Help: "Total number of allocation probes that hit an existing identifier",
		},
	)

	// Allocations that ran out of retry attempts
	sequenceExhaustionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sequence_exhaustions_total",
			Help: "Total number of allocations aborted after exhausting retries",
		},
	)
)

// SequenceAllocation is the result of reserving the next identifier in a scope
type SequenceAllocation struct {
	Identifier string
	Number     int64
	Config     *models.SequenceConfig
}

// SequenceAllocatorFlow issues unique machine identifiers for a scope
type SequenceAllocatorFlow interface {
	Generate(ctx context.Context, req *dto.GenerateSequenceRequest, metadata *ClientMetadata) (*dto.GeneratedSequenceDTO, error)
	AllocateForScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*SequenceAllocation, error)
}

type SequenceAllocatorFlowImpl struct {
	configRepo   repository.SequenceConfigRepository
	machineRepo  repository.MachineRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditLogRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
}

func NewSequenceAllocatorFlow(
	configRepo repository.SequenceConfigRepository,
	machineRepo repository.MachineRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) SequenceAllocatorFlow {
	return &SequenceAllocatorFlowImpl{
		configRepo:   configRepo,
		machineRepo:  machineRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
	}
}

// Generate resolves the requested scope and allocates the next identifier
func (f *SequenceAllocatorFlowImpl) Generate(ctx context.Context, req *dto.GenerateSequenceRequest, metadata *ClientMetadata) (*dto.GeneratedSequenceDTO, error) {
	if req == nil {
		return nil, NewBusinessError("SEQUENCE_GENERATION_VALIDATION_FAILED", "Generate sequence validation failed", ErrCategoryNotFound)
	}

	category, subcategory, err := resolveScope(ctx, f.categoryRepo, req.CategoryUUID, req.SubcategoryUUID)
	if err != nil {
		return nil, err
	}

	var subcategoryID *uint
	if subcategory != nil {
		subcategoryID = &subcategory.ID
	}

	allocation, err := f.AllocateForScope(ctx, category.ID, subcategoryID)
	if err != nil {
		errMsg := err.Error()
		_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceGenerated, "Sequence generation failed for category "+category.Slug, false, &errMsg, metadata)
		return nil, err
	}

	msg := "Sequence generated: " + allocation.Identifier
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceGenerated, msg, true, nil, metadata)

	return &dto.GeneratedSequenceDTO{
		Identifier: allocation.Identifier,
		Number:     allocation.Number,
		ConfigUUID: allocation.Config.UUID.String(),
	}, nil
}

// AllocateForScope reserves the next number for an already-resolved scope and
// renders it into an identifier. Each probe reserves a fresh number via the
// atomic counter increment; numbers that render to a taken identifier are
// burned, never reused.
func (f *SequenceAllocatorFlowImpl) AllocateForScope(ctx context.Context, categoryID uint, subcategoryID *uint) (*SequenceAllocation, error) {
	cfg, err := f.configRepo.ByScope(ctx, categoryID, subcategoryID)
	if err != nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_LOOKUP_FAILED", "Failed to resolve sequence config", err)
	}
	if cfg == nil {
		return nil, NewBusinessError("SEQUENCE_CONFIG_NOT_FOUND", "No sequence config for this scope", ErrSequenceConfigNotFound)
	}

	tmpl, err := sequence.ParseTemplate(cfg.Template)
	if err != nil {
		return nil, NewBusinessError("INVALID_TEMPLATE", "Stored template failed to parse", ErrInvalidTemplate)
	}

	// Slugs come from the requested scope, not the config row: a subcategory
	// served by the category-wide fallback config still renders its own slug.
	categorySlug, err := f.slugByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	subcategorySlug := ""
	if subcategoryID != nil {
		subcategorySlug, err = f.slugByID(ctx, *subcategoryID)
		if err != nil {
			return nil, err
		}
	}

	for attempt := 0; attempt < utils.MaxGenerationAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number, err := f.configRepo.IncrementAndGet(ctx, cfg.ID)
		if err != nil {
			return nil, NewBusinessError("SEQUENCE_INCREMENT_FAILED", "Failed to advance sequence counter", err)
		}

		identifier := tmpl.Render(categorySlug, subcategorySlug, number)

		taken, err := f.machineRepo.ExistsLiveByIdentifier(ctx, identifier)
		if err != nil {
			return nil, NewBusinessError("SEQUENCE_UNIQUENESS_CHECK_FAILED", "Failed to check identifier uniqueness", err)
		}
		if taken {
			sequenceCollisionsTotal.Inc()
			continue
		}

		sequencesGeneratedTotal.WithLabelValues(categorySlug).Inc()
		return &SequenceAllocation{
			Identifier: identifier,
			Number:     number,
			Config:     cfg,
		}, nil
	}

	sequenceExhaustionsTotal.Inc()
	return nil, NewBusinessErrorf("SEQUENCE_GENERATION_EXHAUSTED", "Gave up after %d attempts", ErrSequenceGenerationExhausted, utils.MaxGenerationAttempts)
}

// resolveScope loads and validates the (category, optional subcategory) pair
func resolveScope(ctx context.Context, categoryRepo repository.CategoryRepository, categoryUUID string, subcategoryUUID *string) (*models.Category, *models.Category, error) {
	category, err := categoryRepo.ByUUID(ctx, categoryUUID)
	if err != nil {
		return nil, nil, NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to look up category", err)
	}
	if category == nil {
		return nil, nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}
	if !utils.IsTrue(category.IsActive) {
		return nil, nil, NewBusinessError("CATEGORY_INACTIVE", "Category is inactive", ErrCategoryInactive)
	}

	if subcategoryUUID == nil {
		return category, nil, nil
	}

	subcategory, err := categoryRepo.ByUUID(ctx, *subcategoryUUID)
	if err != nil {
		return nil, nil, NewBusinessError("SUBCATEGORY_LOOKUP_FAILED", "Failed to look up subcategory", err)
	}
	if subcategory == nil {
		return nil, nil, NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
	}
	if subcategory.ParentID == nil || *subcategory.ParentID != category.ID {
		return nil, nil, NewBusinessError("SUBCATEGORY_MISMATCH", "Subcategory does not belong to the category", ErrSubcategoryMismatch)
	}

	return category, subcategory, nil
}

// slugByID resolves a category slug, consulting Redis before the database
func (f *SequenceAllocatorFlowImpl) slugByID(ctx context.Context, id uint) (string, error) {
	var cacheKey string
	if f.rc != nil && f.cacheConfig != nil {
		cacheKey = redisKey(*f.cacheConfig, utils.CategoryCacheKeyPrefix+":"+strconv.Itoa(int(id)))
		if slug, err := f.rc.Get(ctx, cacheKey).Result(); err == nil && slug != "" {
			return slug, nil
		}
	}

	category, err := f.categoryRepo.ByID(ctx, id)
	if err != nil {
		return "", NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to look up category", err)
	}
	if category == nil {
		return "", NewBusinessError("CATEGORY_NOT_FOUND", fmt.Sprintf("Category %d not found", id), ErrCategoryNotFound)
	}

	if f.rc != nil && cacheKey != "" {
		_ = f.rc.Set(ctx, cacheKey, category.Slug, f.cacheConfig.DefaultTTL).Err()
	}

	return category.Slug, nil
}
