package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-shop-api/internal/model"
)

// ProductFilter narrows a product listing. Zero values disable a condition.
type ProductFilter struct {
	Title     string
	Search    string
	MinSize   *float64
	PriceFrom *decimal.Decimal
	PriceTo   *decimal.Decimal
	Category  string
	Ordering  string
	Limit     int
	Offset    int
}

var productOrderings = map[string]string{
	"title":  "title ASC",
	"-title": "title DESC",
	"price":  "price ASC",
	"-price": "price DESC",
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, f ProductFilter) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgProductRepo struct{ pool *pgxpool.Pool }

func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &pgProductRepo{pool: pool}
}

const productColumns = `id, title, description, size, color, price, category_slug, image, created_at, updated_at`

func scanProduct(row pgx.Row, p *model.Product) error {
	return row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Size, &p.Color, &p.Price,
		&p.CategorySlug, &p.Image, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, title, description, size, color, price, category_slug, image, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Title, product.Description, product.Size, product.Color,
		product.Price, product.CategorySlug, product.Image,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", classify(err))
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p := &model.Product{}
	err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, f ProductFilter) ([]model.Product, int, error) {
	where, args := productWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	orderBy, ok := productOrderings[f.Ordering]
	if !ok {
		orderBy = "created_at DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s, id LIMIT $%d OFFSET $%d`,
		productColumns, where, orderBy, len(args)+1, len(args)+2)

	rows, err := r.pool.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func productWhere(f ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Title != "" {
		add(`title ILIKE '%%' || $%d || '%%'`, f.Title)
	}
	if f.Search != "" {
		args = append(args, f.Search)
		n := len(args)
		conds = append(conds, fmt.Sprintf(`(title ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')`, n, n))
	}
	if f.MinSize != nil {
		add(`size >= $%d`, *f.MinSize)
	}
	if f.PriceFrom != nil {
		add(`price >= $%d`, *f.PriceFrom)
	}
	if f.PriceTo != nil {
		add(`price <= $%d`, *f.PriceTo)
	}
	if f.Category != "" {
		add(`category_slug = $%d`, f.Category)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET title=$2, description=$3, size=$4, color=$5, price=$6,
				category_slug=$7, image=$8, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.ID, product.Title, product.Description, product.Size, product.Color,
		product.Price, product.CategorySlug, product.Image,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update product: %w", classify(err))
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", classify(err))
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
