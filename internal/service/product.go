package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/model"
	"github.com/flicky/go-shop-api/internal/repository"
)

type ProductService struct {
	productRepo  repository.ProductRepository
	reviewRepo   repository.ReviewRepository
	relationRepo repository.RelationRepository
	cache        *ProductCache
}

func NewProductService(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	relationRepo repository.RelationRepository,
	cache *ProductCache,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		reviewRepo:   reviewRepo,
		relationRepo: relationRepo,
		cache:        cache,
	}
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductFields, error) {
	switch {
	case req.Price == nil:
		return nil, invalid("price", "is required")
	case req.Price.IsNegative():
		return nil, invalid("price", "must not be negative")
	}
	product := &model.Product{
		Title:        req.Title,
		Description:  req.Description,
		Size:         req.Size,
		Color:        req.Color,
		Price:        *req.Price,
		CategorySlug: req.Category,
		Image:        req.Image,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrReference) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	resp := toProductFields(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductDetail, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, nil
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	reviews, err := s.reviewRepo.List(ctx, &id)
	if err != nil {
		return nil, fmt.Errorf("get product reviews: %w", err)
	}
	likes, err := s.relationRepo.CountActive(ctx, model.RelationLike, id)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}

	detail := toProductDetail(product, reviews, likes)
	s.cache.Set(ctx, id, &detail)
	return &detail, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	return s.list(ctx, repository.ProductFilter{
		Title:     req.Title,
		MinSize:   req.Size,
		PriceFrom: req.PriceFrom,
		PriceTo:   req.PriceTo,
		Category:  req.Category,
		Ordering:  req.Ordering,
	}, req.Page, req.Limit)
}

func (s *ProductService) Search(ctx context.Context, req dto.SearchProductsRequest) (*dto.ProductListResponse, error) {
	return s.list(ctx, repository.ProductFilter{Search: req.Query}, req.Page, req.Limit)
}

func (s *ProductService) list(ctx context.Context, f repository.ProductFilter, page, limit int) (*dto.ProductListResponse, error) {
	f.Limit = limit
	f.Offset = (page - 1) * limit
	products, total, err := s.productRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	items := make([]dto.ProductListItem, 0, len(products))
	for i := range products {
		items = append(items, toProductListItem(&products[i]))
	}
	return &dto.ProductListResponse{Products: items, Total: total, Page: page, Limit: limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductFields, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Title != nil {
		product.Title = *req.Title
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Size != nil {
		product.Size = *req.Size
	}
	if req.Color != nil {
		product.Color = *req.Color
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, invalid("price", "must not be negative")
		}
		product.Price = *req.Price
	}
	if req.Category != nil {
		product.CategorySlug = *req.Category
	}
	if req.Image != nil {
		product.Image = *req.Image
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProductNotFound
		case errors.Is(err, repository.ErrReference):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.cache.Invalidate(ctx, id)
	resp := toProductFields(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrProductNotFound
		case errors.Is(err, repository.ErrReference):
			return ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	return nil
}
