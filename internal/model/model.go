package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) IsStaff() bool { return u.Role == RoleAdmin }

type Category struct {
	Slug  string
	Title string
}

type Product struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Size         float64
	Color        string
	Price        decimal.Decimal
	CategorySlug string
	Image        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Review struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	ProductID uuid.UUID
	Text      string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Author is populated by reads that join users.
	Author *User
}

// RelationKind names one of the per-user boolean flags kept on a product.
type RelationKind string

const (
	RelationLike     RelationKind = "like"
	RelationFavorite RelationKind = "favorite"
	RelationCart     RelationKind = "cart"
)

func (k RelationKind) Valid() bool {
	switch k {
	case RelationLike, RelationFavorite, RelationCart:
		return true
	}
	return false
}

type Relation struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Kind      RelationKind
	State     bool
}

type OrderStatus string

const (
	OrderStatusNew      OrderStatus = "new"
	OrderStatusDone     OrderStatus = "done"
	OrderStatusCanceled OrderStatus = "canceled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusDone, OrderStatusCanceled:
		return true
	}
	return false
}

type Order struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Status    OrderStatus
	TotalSum  decimal.Decimal
	Items     []OrderItem
	CreatedAt time.Time
}

type OrderItem struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
}

// OrderPlacedEvent is published after an order commits.
type OrderPlacedEvent struct {
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	ProductIDs []uuid.UUID `json:"product_ids"`
}
