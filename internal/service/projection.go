package service

import (
	"github.com/shopspring/decimal"

	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/model"
)

const anonymousAuthor = "Anonymous user"

func toProductListItem(p *model.Product) dto.ProductListItem {
	return dto.ProductListItem{ID: p.ID, Title: p.Title, Price: p.Price, Image: p.Image}
}

func toProductFields(p *model.Product) dto.ProductFields {
	return dto.ProductFields{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Size:        p.Size,
		Color:       p.Color,
		Price:       p.Price,
		Category:    p.CategorySlug,
		Image:       p.Image,
	}
}

// toProductDetail assembles the detail read model: stored fields, the
// product's reviews, their average rating and the number of active likes.
func toProductDetail(p *model.Product, reviews []model.Review, likes int) dto.ProductDetail {
	out := dto.ProductDetail{
		ProductFields: toProductFields(p),
		Reviews:       make([]dto.ReviewResponse, 0, len(reviews)),
		Rating:        averageRating(reviews),
		Like:          max(likes, 0),
	}
	for i := range reviews {
		out.Reviews = append(out.Reviews, toReviewResponse(&reviews[i]))
	}
	return out
}

// averageRating is sum/count rounded to one decimal place, or 0 without reviews.
func averageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var sum int64
	for _, r := range reviews {
		sum += int64(r.Rating)
	}
	return decimal.NewFromInt(sum).
		DivRound(decimal.NewFromInt(int64(len(reviews))), 1).
		InexactFloat64()
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		Product:   r.ProductID,
		Text:      r.Text,
		Rating:    r.Rating,
		Author:    toReviewAuthor(r.Author),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toReviewAuthor(u *model.User) dto.ReviewAuthor {
	if u == nil {
		return dto.ReviewAuthor{FullName: anonymousAuthor}
	}
	author := dto.ReviewAuthor{Name: u.FirstName, Surname: u.LastName}
	if u.FirstName == "" && u.LastName == "" {
		author.FullName = anonymousAuthor
	}
	return author
}

func toRelationEntries(products []model.Product) []dto.RelationEntry {
	entries := make([]dto.RelationEntry, 0, len(products))
	for i := range products {
		entries = append(entries, dto.RelationEntry{Product: toProductFields(&products[i])})
	}
	return entries
}
