package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/model"
	"github.com/flicky/go-shop-api/internal/repository"
)

// mockOrderRepo stages writes made inside WithTx and applies them only when
// the callback succeeds.
type mockOrderRepo struct {
	orders   map[uuid.UUID]*model.Order
	products *mockProductRepo
}

func newMockOrderRepo(products *mockProductRepo) *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*model.Order), products: products}
}

type mockOrderTx struct {
	repo   *mockOrderRepo
	staged map[uuid.UUID]*model.Order
}

func (m *mockOrderRepo) WithTx(_ context.Context, fn func(tx repository.OrderTx) error) error {
	tx := &mockOrderTx{repo: m, staged: make(map[uuid.UUID]*model.Order)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, o := range tx.staged {
		m.orders[id] = o
	}
	return nil
}

func (t *mockOrderTx) CreateOrder(_ context.Context, order *model.Order) error {
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	t.staged[order.ID] = &model.Order{
		ID: order.ID, UserID: order.UserID, Status: order.Status,
		TotalSum: order.TotalSum, CreatedAt: order.CreatedAt,
	}
	return nil
}

func (t *mockOrderTx) UnitPrice(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	p, ok := t.repo.products.products[productID]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	return p.Price, nil
}

func (t *mockOrderTx) CreateItem(_ context.Context, item *model.OrderItem) error {
	o := t.staged[item.OrderID]
	for _, existing := range o.Items {
		if existing.ProductID == item.ProductID {
			return repository.ErrDuplicate
		}
	}
	item.ID = uuid.New()
	o.Items = append(o.Items, *item)
	return nil
}

func (t *mockOrderTx) UpdateTotal(_ context.Context, orderID uuid.UUID, total decimal.Decimal) error {
	t.staged[orderID].TotalSum = total
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) List(_ context.Context, f repository.OrderFilter) ([]model.Order, error) {
	var out []model.Order
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.TotalFrom != nil && o.TotalSum.LessThan(*f.TotalFrom) {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

type recordingPublisher struct {
	events []model.OrderPlacedEvent
	err    error
}

func (p *recordingPublisher) PublishOrderPlaced(_ context.Context, event model.OrderPlacedEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func newTestOrderService() (*OrderService, *mockOrderRepo, *mockProductRepo, *recordingPublisher) {
	products := newMockProductRepo()
	orders := newMockOrderRepo(products)
	pub := &recordingPublisher{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewOrderService(orders, pub, log), orders, products, pub
}

func qty(n int) *int { return &n }

func TestOrderService_PlaceOrder(t *testing.T) {
	svc, orders, products, pub := newTestOrderService()
	a := products.add("A", "10.00")
	b := products.add("B", "2.50")
	userID := uuid.New()

	order, err := svc.PlaceOrder(context.Background(), userID, []dto.OrderLineRequest{
		{ProductID: a.ID, Quantity: qty(2)},
		{ProductID: b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusNew, order.Status)
	assert.True(t, decimal.RequireFromString("22.50").Equal(order.TotalSum), order.TotalSum.String())
	require.Len(t, order.Items, 2)
	assert.Equal(t, 1, order.Items[1].Quantity)

	stored := orders.orders[order.ID]
	require.NotNil(t, stored)
	assert.True(t, order.TotalSum.Equal(stored.TotalSum))
	assert.Len(t, stored.Items, 2)

	require.Len(t, pub.events, 1)
	assert.Equal(t, order.ID, pub.events[0].OrderID)
	assert.ElementsMatch(t, []uuid.UUID{a.ID, b.ID}, pub.events[0].ProductIDs)
}

func TestOrderService_PlaceOrder_UnknownProductRollsBack(t *testing.T) {
	svc, orders, products, pub := newTestOrderService()
	a := products.add("A", "10.00")

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []dto.OrderLineRequest{
		{ProductID: a.ID},
		{ProductID: uuid.New()},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, orders.orders)
	assert.Empty(t, pub.events)
}

func TestOrderService_PlaceOrder_DuplicateLine(t *testing.T) {
	svc, orders, products, _ := newTestOrderService()
	a := products.add("A", "10.00")

	_, err := svc.PlaceOrder(context.Background(), uuid.New(), []dto.OrderLineRequest{
		{ProductID: a.ID}, {ProductID: a.ID, Quantity: qty(3)},
	})
	assert.ErrorIs(t, err, ErrDuplicateLineItem)
	assert.Empty(t, orders.orders)
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	svc, orders, products, _ := newTestOrderService()
	a := products.add("A", "10.00")

	tests := []struct {
		name  string
		lines []dto.OrderLineRequest
		field string
	}{
		{"empty", nil, "products"},
		{"zero quantity", []dto.OrderLineRequest{{ProductID: a.ID, Quantity: qty(0)}}, "products[0].quantity"},
		{"missing product", []dto.OrderLineRequest{{ProductID: a.ID}, {}}, "products[1].product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), uuid.New(), tt.lines)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
	assert.Empty(t, orders.orders)
}

func TestOrderService_PlaceOrder_PublishFailureKeepsOrder(t *testing.T) {
	svc, orders, products, pub := newTestOrderService()
	pub.err = errors.New("broker down")
	a := products.add("A", "1.00")

	order, err := svc.PlaceOrder(context.Background(), uuid.New(), []dto.OrderLineRequest{{ProductID: a.ID}})
	require.NoError(t, err)
	assert.Contains(t, orders.orders, order.ID)
}

func TestOrderService_ListAndGet_Scoping(t *testing.T) {
	svc, _, products, _ := newTestOrderService()
	a := products.add("A", "1.00")
	ctx := context.Background()

	alice, bob := uuid.New(), uuid.New()
	aliceOrder, err := svc.PlaceOrder(ctx, alice, []dto.OrderLineRequest{{ProductID: a.ID}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, bob, []dto.OrderLineRequest{{ProductID: a.ID}})
	require.NoError(t, err)

	own, err := svc.List(ctx, access.Principal{UserID: alice}, dto.ListOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, alice, own[0].UserID)

	all, err := svc.List(ctx, access.Principal{UserID: uuid.New(), Staff: true}, dto.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.GetByID(ctx, access.Principal{UserID: bob}, aliceOrder.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := svc.GetByID(ctx, access.Principal{UserID: alice}, aliceOrder.ID)
	require.NoError(t, err)
	assert.Equal(t, aliceOrder.ID, got.ID)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	svc, _, products, _ := newTestOrderService()
	a := products.add("A", "1.00")
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, uuid.New(), []dto.OrderLineRequest{{ProductID: a.ID}})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, order.ID, model.OrderStatusDone)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDone, updated.Status)

	_, err = svc.UpdateStatus(ctx, order.ID, "shipped")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.UpdateStatus(ctx, uuid.New(), model.OrderStatusCanceled)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
