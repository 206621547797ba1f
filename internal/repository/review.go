package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-shop-api/internal/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	// List returns reviews with their authors; a nil productID lists all.
	List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

const reviewSelect = `SELECT r.id, r.author_id, r.product_id, r.text, r.rating, r.created_at, r.updated_at,
		u.first_name, u.last_name
	FROM reviews r JOIN users u ON u.id = r.author_id`

func scanReview(row pgx.Row) (*model.Review, error) {
	rv := &model.Review{Author: &model.User{}}
	err := row.Scan(
		&rv.ID, &rv.AuthorID, &rv.ProductID, &rv.Text, &rv.Rating, &rv.CreatedAt, &rv.UpdatedAt,
		&rv.Author.FirstName, &rv.Author.LastName,
	)
	if err != nil {
		return nil, err
	}
	rv.Author.ID = rv.AuthorID
	return rv, nil
}

func (r *pgReviewRepo) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.New()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO reviews (id, author_id, product_id, text, rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		review.ID, review.AuthorID, review.ProductID, review.Text, review.Rating,
	).Scan(&review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create review: %w", classify(err))
	}
	return nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) List(ctx context.Context, productID *uuid.UUID) ([]model.Review, error) {
	rows, err := r.pool.Query(ctx,
		reviewSelect+` WHERE ($1::uuid IS NULL OR r.product_id = $1) ORDER BY r.created_at`, productID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, *rv)
	}
	return reviews, rows.Err()
}

func (r *pgReviewRepo) Update(ctx context.Context, review *model.Review) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE reviews SET text = $2, rating = $3, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		review.ID, review.Text, review.Rating,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
