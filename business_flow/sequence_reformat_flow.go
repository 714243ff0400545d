// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
	"github.com/karakuri-works/Karakuri/sequence"
	"github.com/karakuri-works/Karakuri/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reformat item outcomes
const (
	ReformatOutcomeUpdated            = "updated"
	ReformatOutcomeSkippedUnchanged   = "skipped_unchanged"
	ReformatOutcomeSkippedUndecodable = "skipped_undecodable"
	ReformatOutcomeFailed             = "failed"
)

var reformatOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sequence_reformat_outcomes_total",
		Help: "Total number of reformat migration items by outcome",
	},
	[]string{"outcome"},
)

// ReformatItem is the per-machine detail of a reformat migration
type ReformatItem struct {
	MachineID     uint   `json:"machine_id"`
	OldIdentifier string `json:"old_identifier"`
	NewIdentifier string `json:"new_identifier,omitempty"`
	Outcome       string `json:"outcome"`
	Error         string `json:"error,omitempty"`
}

// ReformatReport summarizes a reformat migration over one scope
type ReformatReport struct {
	Total              int            `json:"total"`
	Updated            int            `json:"updated"`
	SkippedUnchanged   int            `json:"skipped_unchanged"`
	SkippedUndecodable int            `json:"skipped_undecodable"`
	Failed             int            `json:"failed"`
	Items              []ReformatItem `json:"items"`
}

// ToDTO converts the report to its response DTO (summary only)
func (r *ReformatReport) ToDTO() dto.ReformatReportDTO {
	return dto.ReformatReportDTO{
		Total:              r.Total,
		Updated:            r.Updated,
		SkippedUnchanged:   r.SkippedUnchanged,
		SkippedUndecodable: r.SkippedUndecodable,
		Failed:             r.Failed,
	}
}

// SequenceReformatFlow rewrites existing machine identifiers after a template
// change. It never runs implicitly; callers opt in per config update.
type SequenceReformatFlow interface {
	ReformatScope(ctx context.Context, cfg *models.SequenceConfig, oldTemplate string, metadata *ClientMetadata) (*ReformatReport, error)
}

type SequenceReformatFlowImpl struct {
	machineRepo  repository.MachineRepository
	categoryRepo repository.CategoryRepository
	auditRepo    repository.AuditLogRepository
}

func NewSequenceReformatFlow(
	machineRepo repository.MachineRepository,
	categoryRepo repository.CategoryRepository,
	auditRepo repository.AuditLogRepository,
) SequenceReformatFlow {
	return &SequenceReformatFlowImpl{
		machineRepo:  machineRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
	}
}

// ReformatScope migrates all live machines whose scope matches the config
// exactly. Undecodable identifiers are skipped, never fatal; identifiers that
// already render identically are no-op skips, which makes a second run over
// the same scope yield zero updates.
func (f *SequenceReformatFlowImpl) ReformatScope(ctx context.Context, cfg *models.SequenceConfig, oldTemplate string, metadata *ClientMetadata) (*ReformatReport, error) {
	if cfg == nil {
		return nil, NewBusinessError("REFORMAT_VALIDATION_FAILED", "Reformat requires a sequence config", ErrSequenceConfigNotFound)
	}

	tmpl, err := sequence.ParseTemplate(cfg.Template)
	if err != nil {
		return nil, NewBusinessError("INVALID_TEMPLATE", "New template failed to parse", ErrInvalidTemplate)
	}

	categorySlug, subcategorySlug, err := f.scopeSlugs(ctx, cfg.CategoryID, cfg.SubcategoryID)
	if err != nil {
		return nil, err
	}

	machines, err := f.machineRepo.ListLiveByScope(ctx, cfg.CategoryID, cfg.SubcategoryID)
	if err != nil {
		return nil, NewBusinessError("REFORMAT_LIST_FAILED", "Failed to list machines for scope", err)
	}

	report := &ReformatReport{Total: len(machines)}

	// Classify sequentially; only the row updates run in parallel.
	type pendingUpdate struct {
		machineID     uint
		oldIdentifier string
		newIdentifier string
	}
	var pending []pendingUpdate

	for _, m := range machines {
		number, _, ok := sequence.DecodeSequence(m.MachineSequence, oldTemplate, categorySlug, subcategorySlug)
		if !ok {
			report.SkippedUndecodable++
			report.Items = append(report.Items, ReformatItem{
				MachineID:     m.ID,
				OldIdentifier: m.MachineSequence,
				Outcome:       ReformatOutcomeSkippedUndecodable,
			})
			reformatOutcomesTotal.WithLabelValues(ReformatOutcomeSkippedUndecodable).Inc()
			continue
		}

		newIdentifier := tmpl.Render(categorySlug, subcategorySlug, number)
		if newIdentifier == m.MachineSequence {
			report.SkippedUnchanged++
			report.Items = append(report.Items, ReformatItem{
				MachineID:     m.ID,
				OldIdentifier: m.MachineSequence,
				NewIdentifier: newIdentifier,
				Outcome:       ReformatOutcomeSkippedUnchanged,
			})
			reformatOutcomesTotal.WithLabelValues(ReformatOutcomeSkippedUnchanged).Inc()
			continue
		}

		pending = append(pending, pendingUpdate{
			machineID:     m.ID,
			oldIdentifier: m.MachineSequence,
			newIdentifier: newIdentifier,
		})
	}

	// Apply queued updates with a bounded worker pool. Each update touches a
	// disjoint row; failures are recorded per item and never roll back the
	// rest of the migration.
	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan pendingUpdate)

	for i := 0; i < utils.ReformatWorkerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range work {
				item := ReformatItem{
					MachineID:     u.machineID,
					OldIdentifier: u.oldIdentifier,
					NewIdentifier: u.newIdentifier,
				}
				if err := f.machineRepo.UpdateIdentifier(ctx, u.machineID, u.newIdentifier); err != nil {
					item.Outcome = ReformatOutcomeFailed
					item.Error = err.Error()
				} else {
					item.Outcome = ReformatOutcomeUpdated
				}
				reformatOutcomesTotal.WithLabelValues(item.Outcome).Inc()

				mu.Lock()
				if item.Outcome == ReformatOutcomeUpdated {
					report.Updated++
				} else {
					report.Failed++
				}
				report.Items = append(report.Items, item)
				mu.Unlock()
			}
		}()
	}

	for _, u := range pending {
		work <- u
	}
	close(work)
	wg.Wait()

	msg := fmt.Sprintf("Reformatted scope of config %s: %d updated, %d unchanged, %d undecodable, %d failed",
		cfg.UUID.String(), report.Updated, report.SkippedUnchanged, report.SkippedUndecodable, report.Failed)
	_ = createAuditLog(ctx, f.auditRepo, models.AuditActionSequenceReformatted, msg, report.Failed == 0, nil, metadata)

	return report, nil
}

// scopeSlugs resolves the slugs rendered for every machine in the scope
func (f *SequenceReformatFlowImpl) scopeSlugs(ctx context.Context, categoryID uint, subcategoryID *uint) (string, string, error) {
	category, err := f.categoryRepo.ByID(ctx, categoryID)
	if err != nil {
		return "", "", NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to look up category", err)
	}
	if category == nil {
		return "", "", NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	subcategorySlug := ""
	if subcategoryID != nil {
		subcategory, err := f.categoryRepo.ByID(ctx, *subcategoryID)
		if err != nil {
			return "", "", NewBusinessError("SUBCATEGORY_LOOKUP_FAILED", "Failed to look up subcategory", err)
		}
		if subcategory == nil {
			return "", "", NewBusinessError("SUBCATEGORY_NOT_FOUND", "Subcategory not found", ErrSubcategoryNotFound)
		}
		subcategorySlug = subcategory.Slug
	}

	return category.Slug, subcategorySlug, nil
}
