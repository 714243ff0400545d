// Package businessflow contains the core business logic and use cases for sequence management workflows
package businessflow

import (
	"context"

	"github.com/karakuri-works/Karakuri/app/dto"
	"github.com/karakuri-works/Karakuri/models"
	"github.com/karakuri-works/Karakuri/repository"
)

// CategoryFlow exposes the read side of the category hierarchy
type CategoryFlow interface {
	Get(ctx context.Context, categoryUUID string) (*dto.CategoryDTO, error)
	List(ctx context.Context, level *int) (*dto.ListCategoriesResponse, error)
	ListChildren(ctx context.Context, categoryUUID string) (*dto.ListCategoriesResponse, error)
}

type CategoryFlowImpl struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryFlow(categoryRepo repository.CategoryRepository) CategoryFlow {
	return &CategoryFlowImpl{categoryRepo: categoryRepo}
}

func (f *CategoryFlowImpl) Get(ctx context.Context, categoryUUID string) (*dto.CategoryDTO, error) {
	category, err := f.categoryRepo.ByUUID(ctx, categoryUUID)
	if err != nil {
		return nil, NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to look up category", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	resp := ToCategoryDTO(*category)
	return &resp, nil
}

func (f *CategoryFlowImpl) List(ctx context.Context, level *int) (*dto.ListCategoriesResponse, error) {
	filter := models.CategoryFilter{Level: level}
	categories, err := f.categoryRepo.ByFilter(ctx, filter, "id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("CATEGORY_LIST_FAILED", "Failed to list categories", err)
	}

	items := make([]dto.CategoryDTO, 0, len(categories))
	for _, c := range categories {
		items = append(items, ToCategoryDTO(*c))
	}

	return &dto.ListCategoriesResponse{
		Message: "Categories retrieved",
		Items:   items,
	}, nil
}

func (f *CategoryFlowImpl) ListChildren(ctx context.Context, categoryUUID string) (*dto.ListCategoriesResponse, error) {
	category, err := f.categoryRepo.ByUUID(ctx, categoryUUID)
	if err != nil {
		return nil, NewBusinessError("CATEGORY_LOOKUP_FAILED", "Failed to look up category", err)
	}
	if category == nil {
		return nil, NewBusinessError("CATEGORY_NOT_FOUND", "Category not found", ErrCategoryNotFound)
	}

	children, err := f.categoryRepo.ListChildren(ctx, category.ID)
	if err != nil {
		return nil, NewBusinessError("CATEGORY_LIST_FAILED", "Failed to list subcategories", err)
	}

	items := make([]dto.CategoryDTO, 0, len(children))
	for _, c := range children {
		items = append(items, ToCategoryDTO(*c))
	}

	return &dto.ListCategoriesResponse{
		Message: "Subcategories retrieved",
		Items:   items,
	}, nil
}
