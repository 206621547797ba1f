package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/service"
)

var (
	notFoundErrors = []error{
		service.ErrUserNotFound,
		service.ErrProductNotFound,
		service.ErrCategoryNotFound,
		service.ErrReviewNotFound,
		service.ErrOrderNotFound,
	}
	conflictErrors = []error{
		service.ErrUserAlreadyExists,
		service.ErrCategoryExists,
		service.ErrCategoryInUse,
		service.ErrReviewExists,
		service.ErrDuplicateLineItem,
		service.ErrProductInUse,
	}
)

func matches(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondError writes the status and body for an error returned by a service.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  verr.Error(),
			Code:   "validation_error",
			Fields: []dto.FieldError{{Field: verr.Field, Message: verr.Message}},
		})
	case matches(err, notFoundErrors):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error(), Code: "not_found"})
	case matches(err, conflictErrors):
		c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error(), Code: "conflict"})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, access.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: err.Error(), Code: "unauthorized"})
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: access.ErrForbidden.Error(), Code: "forbidden"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error", Code: "internal"})
	}
}

// respondBindError reports a request that failed binding or tag validation.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Code: "bad_request"})
		return
	}

	fields := make([]dto.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, dto.FieldError{
			Field:   fieldName(fe.Namespace()),
			Message: fieldMessage(fe),
			Tag:     fe.Tag(),
		})
	}
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:  "request validation failed",
		Code:   "validation_error",
		Fields: fields,
	})
}

// fieldName drops the struct name from a validator namespace such as
// "PlaceOrderRequest.Products[0].ProductID".
func fieldName(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:  "invalid " + param,
			Code:   "validation_error",
			Fields: []dto.FieldError{{Field: param, Message: "must be a UUID"}},
		})
		return uuid.Nil, false
	}
	return id, true
}
