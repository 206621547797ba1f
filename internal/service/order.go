package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/model"
	"github.com/flicky/go-shop-api/internal/repository"
)

const defaultQuantity = 1

// OrderPublisher announces committed orders.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, event model.OrderPlacedEvent) error
}

type OrderService struct {
	orderRepo repository.OrderRepository
	publisher OrderPublisher
	log       *slog.Logger
}

func NewOrderService(orderRepo repository.OrderRepository, publisher OrderPublisher, log *slog.Logger) *OrderService {
	return &OrderService{orderRepo: orderRepo, publisher: publisher, log: log}
}

// PlaceOrder creates the order and its line items in one transaction.
// Unit prices are read at line-item time and not stored on the item; a
// product repeated within one request is rejected, not merged.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, lines []dto.OrderLineRequest) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, invalid("products", "at least one line item is required")
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, invalid(fmt.Sprintf("products[%d].product_id", i), "is required")
		}
		if line.Quantity != nil && *line.Quantity < 1 {
			return nil, invalid(fmt.Sprintf("products[%d].quantity", i), "must be at least 1")
		}
	}

	order := &model.Order{UserID: userID, Status: model.OrderStatusNew, TotalSum: decimal.Zero}
	err := s.orderRepo.WithTx(ctx, func(tx repository.OrderTx) error {
		order.Items = nil
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range lines {
			quantity := defaultQuantity
			if line.Quantity != nil {
				quantity = *line.Quantity
			}

			price, err := tx.UnitPrice(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
				}
				return err
			}
			total = total.Add(price.Mul(decimal.NewFromInt(int64(quantity))))

			item := model.OrderItem{OrderID: order.ID, ProductID: line.ProductID, Quantity: quantity}
			if err := tx.CreateItem(ctx, &item); err != nil {
				switch {
				case errors.Is(err, repository.ErrDuplicate):
					return fmt.Errorf("%w: %s", ErrDuplicateLineItem, line.ProductID)
				case errors.Is(err, repository.ErrReference):
					return fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
				}
				return err
			}
			order.Items = append(order.Items, item)
		}

		if err := tx.UpdateTotal(ctx, order.ID, total); err != nil {
			return err
		}
		order.TotalSum = total
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrDuplicateLineItem) {
			return nil, err
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	s.publishPlaced(ctx, order)
	return order, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, order *model.Order) {
	if s.publisher == nil {
		return
	}
	event := model.OrderPlacedEvent{OrderID: order.ID, UserID: order.UserID}
	for _, item := range order.Items {
		event.ProductIDs = append(event.ProductIDs, item.ProductID)
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.log.Error("publish order placed", "error", err, "order_id", order.ID, "user_id", order.UserID)
	}
}

// List returns the caller's orders; staff see every order.
func (s *OrderService) List(ctx context.Context, p access.Principal, req dto.ListOrdersRequest) ([]model.Order, error) {
	f := repository.OrderFilter{
		TotalFrom:    req.TotalFrom,
		TotalTo:      req.TotalTo,
		CreatedFrom:  req.CreatedFrom,
		CreatedTo:    req.CreatedTo,
		ProductTitle: req.Product,
		Ordering:     req.Ordering,
	}
	if !p.Staff {
		userID := p.UserID
		f.UserID = &userID
	}

	orders, err := s.orderRepo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetByID hides other users' orders from non-staff callers as not found.
func (s *OrderService) GetByID(ctx context.Context, p access.Principal, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || (!p.Staff && order.UserID != p.UserID) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", status))
	}
	if err := s.orderRepo.UpdateStatus(ctx, orderID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
