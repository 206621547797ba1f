package repository

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProductWhere(t *testing.T) {
	where, args := productWhere(ProductFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	size := 42.0
	to := decimal.NewFromInt(100)
	where, args = productWhere(ProductFilter{Title: "boot", MinSize: &size, PriceTo: &to, Category: "shoes"})
	assert.Equal(t,
		` WHERE title ILIKE '%' || $1 || '%' AND size >= $2 AND price <= $3 AND category_slug = $4`, where)
	assert.Equal(t, []any{"boot", 42.0, to, "shoes"}, args)
}

func TestTableFor(t *testing.T) {
	tbl, err := tableFor("cart")
	assert.NoError(t, err)
	assert.Equal(t, "carts", tbl.name)

	_, err = tableFor("wishlist")
	assert.Error(t, err)
}
