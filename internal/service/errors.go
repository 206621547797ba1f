package service

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryExists    = errors.New("category already exists")
	ErrCategoryInUse     = errors.New("category has products referenced by orders")
	ErrProductInUse      = errors.New("product is referenced by orders")
	ErrReviewNotFound    = errors.New("review not found")
	ErrReviewExists      = errors.New("review for this product already exists")
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateLineItem = errors.New("product listed more than once in order")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
