package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-shop-api/internal/model"
)

// OrderFilter narrows an order listing. Nil pointers disable a condition.
type OrderFilter struct {
	UserID       *uuid.UUID
	TotalFrom    *decimal.Decimal
	TotalTo      *decimal.Decimal
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	ProductTitle string
	Ordering     string
}

var orderOrderings = map[string]string{
	"total_sum":   "o.total_sum ASC",
	"-total_sum":  "o.total_sum DESC",
	"created_at":  "o.created_at ASC",
	"-created_at": "o.created_at DESC",
}

// OrderTx is the set of writes available inside an order transaction.
type OrderTx interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	// UnitPrice returns ErrNotFound when the product does not exist.
	UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	// CreateItem returns ErrDuplicate when the order already has the product.
	CreateItem(ctx context.Context, item *model.OrderItem) error
	UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error
}

type OrderRepository interface {
	// WithTx commits when fn returns nil and rolls everything back otherwise.
	WithTx(ctx context.Context, fn func(tx OrderTx) error) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	List(ctx context.Context, f OrderFilter) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) WithTx(ctx context.Context, fn func(tx OrderTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgOrderTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgOrderTx struct{ tx pgx.Tx }

func (t *pgOrderTx) CreateOrder(ctx context.Context, order *model.Order) error {
	order.ID = uuid.New()
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, status, total_sum, created_at)
		 VALUES ($1, $2, $3, $4, NOW()) RETURNING created_at`,
		order.ID, order.UserID, order.Status, order.TotalSum,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", classify(err))
	}
	return nil
}

func (t *pgOrderTx) UnitPrice(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := t.tx.QueryRow(ctx,
		`SELECT price FROM products WHERE id = $1 FOR SHARE`, productID,
	).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("get unit price: %w", err)
	}
	return price, nil
}

func (t *pgOrderTx) CreateItem(ctx context.Context, item *model.OrderItem) error {
	item.ID = uuid.New()
	_, err := t.tx.Exec(ctx,
		`INSERT INTO order_items (id, order_id, product_id, quantity) VALUES ($1, $2, $3, $4)`,
		item.ID, item.OrderID, item.ProductID, item.Quantity,
	)
	if err != nil {
		return fmt.Errorf("insert order item: %w", classify(err))
	}
	return nil
}

func (t *pgOrderTx) UpdateTotal(ctx context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET total_sum = $2 WHERE id = $1`, orderID, total)
	if err != nil {
		return fmt.Errorf("update order total: %w", err)
	}
	return nil
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, status, total_sum, created_at FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.Status, &order.TotalSum, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := r.items(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *pgOrderRepo) items(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, quantity FROM order_items WHERE order_id = $1 ORDER BY id`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		item := model.OrderItem{OrderID: orderID}
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *pgOrderRepo) List(ctx context.Context, f OrderFilter) ([]model.Order, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != nil {
		add(`o.user_id = $%d`, *f.UserID)
	}
	if f.TotalFrom != nil {
		add(`o.total_sum >= $%d`, *f.TotalFrom)
	}
	if f.TotalTo != nil {
		add(`o.total_sum <= $%d`, *f.TotalTo)
	}
	if f.CreatedFrom != nil {
		add(`o.created_at >= $%d`, *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		add(`o.created_at <= $%d`, *f.CreatedTo)
	}
	if f.ProductTitle != "" {
		add(`EXISTS (SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = o.id AND p.title ILIKE '%%' || $%d || '%%')`, f.ProductTitle)
	}

	query := `SELECT o.id, o.user_id, o.status, o.total_sum, o.created_at FROM orders o`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	orderBy, ok := orderOrderings[f.Ordering]
	if !ok {
		orderBy = "o.created_at DESC"
	}
	query += " ORDER BY " + orderBy + ", o.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalSum, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	for i := range orders {
		items, err := r.items(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) error {
	ct, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
