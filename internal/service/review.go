package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/model"
	"github.com/flicky/go-shop-api/internal/repository"
)

const (
	minRating = 1
	maxRating = 5
)

type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	cache       *ProductCache
}

func NewReviewService(reviewRepo repository.ReviewRepository, productRepo repository.ProductRepository, cache *ProductCache) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, productRepo: productRepo, cache: cache}
}

func validateRating(rating int) error {
	if rating < minRating || rating > maxRating {
		return invalid("rating", fmt.Sprintf("must be between %d and %d", minRating, maxRating))
	}
	return nil
}

// Create stores a review authored by userID. Any author supplied by the
// client is ignored.
func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, text string, rating int) (*dto.ReviewResponse, error) {
	if err := validateRating(rating); err != nil {
		return nil, err
	}
	if text == "" {
		return nil, invalid("text", "must not be empty")
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	review := &model.Review{AuthorID: userID, ProductID: productID, Text: text, Rating: rating}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrReviewExists
		case errors.Is(err, repository.ErrReference):
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.cache.Invalidate(ctx, productID)

	stored, err := s.reviewRepo.GetByID(ctx, review.ID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if stored == nil {
		return nil, ErrReviewNotFound
	}
	resp := toReviewResponse(stored)
	return &resp, nil
}

func (s *ReviewService) List(ctx context.Context, productID *uuid.UUID) ([]dto.ReviewResponse, error) {
	reviews, err := s.reviewRepo.List(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	out := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		out = append(out, toReviewResponse(&reviews[i]))
	}
	return out, nil
}

// load fetches a review and applies the author-or-staff check for op.
func (s *ReviewService) load(ctx context.Context, op access.Operation, p access.Principal, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	if err := access.AuthorizeObject(op, p, review.AuthorID); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Get(ctx context.Context, p access.Principal, id uuid.UUID) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, access.OpGetReview, p, id)
	if err != nil {
		return nil, err
	}
	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) Update(ctx context.Context, p access.Principal, id uuid.UUID, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.load(ctx, access.OpUpdateReview, p, id)
	if err != nil {
		return nil, err
	}

	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return nil, err
		}
		review.Rating = *req.Rating
	}
	if req.Text != nil {
		if *req.Text == "" {
			return nil, invalid("text", "must not be empty")
		}
		review.Text = *req.Text
	}

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.cache.Invalidate(ctx, review.ProductID)

	resp := toReviewResponse(review)
	return &resp, nil
}

func (s *ReviewService) Delete(ctx context.Context, p access.Principal, id uuid.UUID) error {
	review, err := s.load(ctx, access.OpDeleteReview, p, id)
	if err != nil {
		return err
	}
	if err := s.reviewRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}
	s.cache.Invalidate(ctx, review.ProductID)
	return nil
}
