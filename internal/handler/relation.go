package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/go-shop-api/internal/middleware"
	"github.com/flicky/go-shop-api/internal/model"
	"github.com/flicky/go-shop-api/internal/service"
)

type RelationHandler struct {
	relationService *service.RelationService
}

func NewRelationHandler(relationService *service.RelationService) *RelationHandler {
	return &RelationHandler{relationService: relationService}
}

// Toggle returns a handler that flips kind for the caller and the product
// named by :id.
func (h *RelationHandler) Toggle(kind model.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := parseID(c, "id")
		if !ok {
			return
		}

		p := middleware.PrincipalFrom(c)
		resp, err := h.relationService.Toggle(c.Request.Context(), kind, p.UserID, productID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// ListActive returns a handler listing the caller's products flagged with kind.
func (h *RelationHandler) ListActive(kind model.RelationKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := middleware.PrincipalFrom(c)
		resp, err := h.relationService.ListActive(c.Request.Context(), kind, p.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func (h *RelationHandler) ListLikes(c *gin.Context) {
	resp, err := h.relationService.ListLikes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
