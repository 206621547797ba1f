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

// toggleLabels holds the message for the new state, indexed [false, true].
// Favorite and cart read inverted relative to the state.
var toggleLabels = map[model.RelationKind][2]string{
	model.RelationLike:     {"dislike", "like"},
	model.RelationFavorite: {"added to favorites", "removed from favorites"},
	model.RelationCart:     {"added to cart", "removed from cart"},
}

func toggleLabel(kind model.RelationKind, state bool) string {
	labels := toggleLabels[kind]
	if state {
		return labels[1]
	}
	return labels[0]
}

type RelationService struct {
	relationRepo repository.RelationRepository
	productRepo  repository.ProductRepository
	cache        *ProductCache
}

func NewRelationService(relationRepo repository.RelationRepository, productRepo repository.ProductRepository, cache *ProductCache) *RelationService {
	return &RelationService{relationRepo: relationRepo, productRepo: productRepo, cache: cache}
}

func (s *RelationService) Toggle(ctx context.Context, kind model.RelationKind, userID, productID uuid.UUID) (*dto.ToggleResponse, error) {
	if !kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("unknown relation %q", kind))
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	state, err := s.relationRepo.Toggle(ctx, kind, userID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrReference) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("toggle %s: %w", kind, err)
	}

	if kind == model.RelationLike {
		s.cache.Invalidate(ctx, productID)
	}
	return &dto.ToggleResponse{State: state, Message: toggleLabel(kind, state)}, nil
}

// ListActive returns the products the user currently has flagged under kind.
func (s *RelationService) ListActive(ctx context.Context, kind model.RelationKind, userID uuid.UUID) ([]dto.RelationEntry, error) {
	products, err := s.relationRepo.ListActiveProducts(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return toRelationEntries(products), nil
}

func (s *RelationService) ListLikes(ctx context.Context) ([]dto.LikeResponse, error) {
	likes, err := s.relationRepo.List(ctx, model.RelationLike)
	if err != nil {
		return nil, fmt.Errorf("list likes: %w", err)
	}
	out := make([]dto.LikeResponse, 0, len(likes))
	for _, l := range likes {
		out = append(out, dto.LikeResponse{ID: l.ID, UserID: l.UserID, ProductID: l.ProductID, IsLiked: l.State})
	}
	return out, nil
}
