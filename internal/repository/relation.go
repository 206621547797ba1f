package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/go-shop-api/internal/model"
)

type relationTable struct {
	name string
	flag string
}

// Each kind lives in its own table with one boolean column.
var relationTables = map[model.RelationKind]relationTable{
	model.RelationLike:     {name: "likes", flag: "is_liked"},
	model.RelationFavorite: {name: "favorites", flag: "favorite"},
	model.RelationCart:     {name: "carts", flag: `"add"`},
}

func tableFor(kind model.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, fmt.Errorf("unknown relation kind %q", kind)
	}
	return t, nil
}

type RelationRepository interface {
	// Toggle flips the flag for (user, product) and returns the new state.
	// A missing row counts as false, so the first toggle stores true.
	Toggle(ctx context.Context, kind model.RelationKind, userID, productID uuid.UUID) (bool, error)
	ListActiveProducts(ctx context.Context, kind model.RelationKind, userID uuid.UUID) ([]model.Product, error)
	List(ctx context.Context, kind model.RelationKind) ([]model.Relation, error)
	CountActive(ctx context.Context, kind model.RelationKind, productID uuid.UUID) (int, error)
}

type pgRelationRepo struct{ pool *pgxpool.Pool }

func NewRelationRepository(pool *pgxpool.Pool) RelationRepository {
	return &pgRelationRepo{pool: pool}
}

// Toggle is a single upsert: concurrent callers on the same key serialize on
// the unique index, so the table never holds two rows for one (user, product).
func (r *pgRelationRepo) Toggle(ctx context.Context, kind model.RelationKind, userID, productID uuid.UUID) (bool, error) {
	t, err := tableFor(kind)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`INSERT INTO %[1]s (id, user_id, product_id, %[2]s) VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (user_id, product_id) DO UPDATE SET %[2]s = NOT %[1]s.%[2]s
		RETURNING %[2]s`, t.name, t.flag)

	var state bool
	if err := r.pool.QueryRow(ctx, query, uuid.New(), userID, productID).Scan(&state); err != nil {
		return false, fmt.Errorf("toggle %s: %w", kind, classify(err))
	}
	return state, nil
}

func (r *pgRelationRepo) ListActiveProducts(ctx context.Context, kind model.RelationKind, userID uuid.UUID) ([]model.Product, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT p.id, p.title, p.description, p.size, p.color, p.price, p.category_slug,
			p.image, p.created_at, p.updated_at
		FROM %[1]s rel JOIN products p ON p.id = rel.product_id
		WHERE rel.user_id = $1 AND rel.%[2]s
		ORDER BY p.title`, t.name, t.flag)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s products: %w", kind, err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *pgRelationRepo) List(ctx context.Context, kind model.RelationKind) ([]model.Relation, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, user_id, product_id, %s FROM %s ORDER BY id`, t.flag, t.name))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var relations []model.Relation
	for rows.Next() {
		rel := model.Relation{Kind: kind}
		if err := rows.Scan(&rel.ID, &rel.UserID, &rel.ProductID, &rel.State); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}

func (r *pgRelationRepo) CountActive(ctx context.Context, kind model.RelationKind, productID uuid.UUID) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var n int
	err = r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE product_id = $1 AND %s`, t.name, t.flag), productID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}
