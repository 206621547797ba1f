package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flicky/go-shop-api/internal/dto"
	"github.com/flicky/go-shop-api/internal/middleware"
	"github.com/flicky/go-shop-api/internal/service"
)

type ReviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// CreateForProduct handles POST /products/:id/reviews.
func (h *ReviewHandler) CreateForProduct(c *gin.Context) {
	productID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.create(c, productID, req)
}

// Create handles POST /reviews, where the product comes from the body.
func (h *ReviewHandler) Create(c *gin.Context) {
	var req dto.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if req.ProductID == uuid.Nil {
		respondError(c, &service.ValidationError{Field: "product_id", Message: "is required"})
		return
	}
	h.create(c, req.ProductID, req)
}

func (h *ReviewHandler) create(c *gin.Context, productID uuid.UUID, req dto.CreateReviewRequest) {
	p := middleware.PrincipalFrom(c)
	resp, err := h.reviewService.Create(c.Request.Context(), p.UserID, productID, req.Text, req.Rating)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReviewHandler) List(c *gin.Context) {
	var productID *uuid.UUID
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, &service.ValidationError{Field: "product_id", Message: "must be a UUID"})
			return
		}
		productID = &id
	}

	resp, err := h.reviewService.List(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	resp, err := h.reviewService.Get(c.Request.Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update serves both PUT and PATCH; omitted fields keep their stored value.
func (h *ReviewHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.reviewService.Update(c.Request.Context(), middleware.PrincipalFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReviewHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.reviewService.Delete(c.Request.Context(), middleware.PrincipalFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
