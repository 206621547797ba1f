// Package access holds the table that decides which callers may run which
// operation. Handlers consult it once per request through middleware.Require;
// owner checks that need the stored record go through AuthorizeObject.
package access

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("permission denied")
)

type Operation string

const (
	OpGetProfile Operation = "auth.me"

	OpListProducts   Operation = "products.list"
	OpGetProduct     Operation = "products.get"
	OpSearchProducts Operation = "products.search"
	OpCreateProduct  Operation = "products.create"
	OpUpdateProduct  Operation = "products.update"
	OpDeleteProduct  Operation = "products.delete"

	OpListCategories Operation = "categories.list"
	OpCreateCategory Operation = "categories.create"
	OpDeleteCategory Operation = "categories.delete"

	OpCreateReview Operation = "reviews.create"
	OpListReviews  Operation = "reviews.list"
	OpGetReview    Operation = "reviews.get"
	OpUpdateReview Operation = "reviews.update"
	OpDeleteReview Operation = "reviews.delete"

	OpToggleLike     Operation = "relations.like"
	OpToggleFavorite Operation = "relations.favorite"
	OpToggleCart     Operation = "relations.cart"
	OpListFavorites  Operation = "relations.favorites"
	OpListCart       Operation = "relations.cart_list"
	OpListLikes      Operation = "relations.likes"

	OpPlaceOrder  Operation = "orders.create"
	OpListOrders  Operation = "orders.list"
	OpGetOrder    Operation = "orders.get"
	OpUpdateOrder Operation = "orders.update"
	OpDeleteOrder Operation = "orders.delete"
)

type Capability int

const (
	Anyone Capability = iota
	Authenticated
	Staff
	// AuthorOrStaff needs an authenticated caller at the boundary and the
	// record owner (or staff) once the record is loaded.
	AuthorOrStaff
	// Nobody denies every caller, staff included.
	Nobody
)

var Policy = map[Operation]Capability{
	OpGetProfile: Authenticated,

	OpListProducts:   Anyone,
	OpGetProduct:     Anyone,
	OpSearchProducts: Anyone,
	OpCreateProduct:  Staff,
	OpUpdateProduct:  Staff,
	OpDeleteProduct:  Staff,

	OpListCategories: Anyone,
	OpCreateCategory: Staff,
	OpDeleteCategory: Staff,

	OpCreateReview: Authenticated,
	OpListReviews:  Anyone,
	OpGetReview:    AuthorOrStaff,
	OpUpdateReview: AuthorOrStaff,
	OpDeleteReview: AuthorOrStaff,

	OpToggleLike:     Authenticated,
	OpToggleFavorite: Authenticated,
	OpToggleCart:     Authenticated,
	OpListFavorites:  Authenticated,
	OpListCart:       Authenticated,
	OpListLikes:      Anyone,

	OpPlaceOrder:  Authenticated,
	OpListOrders:  Authenticated,
	OpGetOrder:    Authenticated,
	OpUpdateOrder: Staff,
	OpDeleteOrder: Nobody,
}

// Principal is the caller identity supplied by the authentication layer.
// The zero value is an anonymous caller.
type Principal struct {
	UserID uuid.UUID
	Staff  bool
}

func (p Principal) Authenticated() bool { return p.UserID != uuid.Nil }

// Authorize checks op against the policy table. Operations missing from the
// table are denied.
func Authorize(op Operation, p Principal) error {
	capability, ok := Policy[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %q", ErrForbidden, op)
	}

	switch capability {
	case Anyone:
		return nil
	case Nobody:
		return ErrForbidden
	}

	if !p.Authenticated() {
		return ErrUnauthorized
	}
	if capability == Staff && !p.Staff {
		return ErrForbidden
	}
	return nil
}

// AuthorizeObject applies the owner half of AuthorOrStaff.
func AuthorizeObject(op Operation, p Principal, ownerID uuid.UUID) error {
	if err := Authorize(op, p); err != nil {
		return err
	}
	if Policy[op] != AuthorOrStaff {
		return nil
	}
	if p.Staff || p.UserID == ownerID {
		return nil
	}
	return ErrForbidden
}
