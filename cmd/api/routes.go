package main

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/flicky/go-shop-api/internal/access"
	"github.com/flicky/go-shop-api/internal/handler"
	"github.com/flicky/go-shop-api/internal/middleware"
	"github.com/flicky/go-shop-api/internal/model"
)

type routes struct {
	auth     *handler.AuthHandler
	category *handler.CategoryHandler
	product  *handler.ProductHandler
	review   *handler.ReviewHandler
	relation *handler.RelationHandler
	order    *handler.OrderHandler
	health   *handler.HealthHandler
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func newRouter(jwtSecret string, origins []string, h routes) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(origins)))

	router.GET("/healthz", h.health.Healthz)
	router.GET("/readyz", h.health.Readyz)

	v1 := router.Group("/api/v1", middleware.Authenticate(jwtSecret))
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.auth.Register)
		auth.POST("/login", h.auth.Login)
		auth.GET("/me", middleware.Require(access.OpGetProfile), h.auth.Me)

		categories := v1.Group("/categories")
		categories.GET("", middleware.Require(access.OpListCategories), h.category.List)
		categories.POST("", middleware.Require(access.OpCreateCategory), h.category.Create)
		categories.DELETE("/:slug", middleware.Require(access.OpDeleteCategory), h.category.Delete)

		products := v1.Group("/products")
		products.GET("", middleware.Require(access.OpListProducts), h.product.List)
		products.GET("/search", middleware.Require(access.OpSearchProducts), h.product.Search)
		products.GET("/:id", middleware.Require(access.OpGetProduct), h.product.GetByID)
		products.POST("", middleware.Require(access.OpCreateProduct), h.product.Create)
		products.PATCH("/:id", middleware.Require(access.OpUpdateProduct), h.product.Update)
		products.DELETE("/:id", middleware.Require(access.OpDeleteProduct), h.product.Delete)

		products.POST("/:id/like", middleware.Require(access.OpToggleLike), h.relation.Toggle(model.RelationLike))
		products.POST("/:id/favorite", middleware.Require(access.OpToggleFavorite), h.relation.Toggle(model.RelationFavorite))
		products.POST("/:id/cart", middleware.Require(access.OpToggleCart), h.relation.Toggle(model.RelationCart))
		products.POST("/:id/reviews", middleware.Require(access.OpCreateReview), h.review.CreateForProduct)

		v1.GET("/favorites", middleware.Require(access.OpListFavorites), h.relation.ListActive(model.RelationFavorite))
		v1.GET("/cart", middleware.Require(access.OpListCart), h.relation.ListActive(model.RelationCart))
		v1.GET("/likes", middleware.Require(access.OpListLikes), h.relation.ListLikes)

		reviews := v1.Group("/reviews")
		reviews.GET("", middleware.Require(access.OpListReviews), h.review.List)
		reviews.POST("", middleware.Require(access.OpCreateReview), h.review.Create)
		reviews.GET("/:id", middleware.Require(access.OpGetReview), h.review.Get)
		reviews.PATCH("/:id", middleware.Require(access.OpUpdateReview), h.review.Update)
		reviews.DELETE("/:id", middleware.Require(access.OpDeleteReview), h.review.Delete)

		orders := v1.Group("/orders")
		orders.POST("", middleware.Require(access.OpPlaceOrder), h.order.CreateOrder)
		orders.GET("", middleware.Require(access.OpListOrders), h.order.ListOrders)
		orders.GET("/:id", middleware.Require(access.OpGetOrder), h.order.GetOrder)
		orders.PATCH("/:id", middleware.Require(access.OpUpdateOrder), h.order.UpdateOrder)
		orders.DELETE("/:id", middleware.Require(access.OpDeleteOrder), h.order.DeleteOrder)
	}

	return router
}
