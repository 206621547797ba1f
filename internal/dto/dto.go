package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/go-shop-api/internal/model"
)

// --- Errors ---

type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag,omitempty"`
}

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Staff     bool      `json:"staff"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Slug  string `json:"slug" binding:"required,max=100"`
	Title string `json:"title" binding:"required,max=100"`
}

type CategoryResponse struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// --- Product ---

type CreateProductRequest struct {
	Title       string           `json:"title" binding:"required,max=100"`
	Description string           `json:"description" binding:"required"`
	Size        float64          `json:"size" binding:"min=0"`
	Color       string           `json:"color" binding:"required,max=25"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    string           `json:"category" binding:"required"`
	Image       string           `json:"image"`
}

type UpdateProductRequest struct {
	Title       *string          `json:"title" binding:"omitempty,max=100"`
	Description *string          `json:"description"`
	Size        *float64         `json:"size" binding:"omitempty,min=0"`
	Color       *string          `json:"color" binding:"omitempty,max=25"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Image       *string          `json:"image"`
}

type ListProductsRequest struct {
	Page      int              `form:"page,default=1" binding:"min=1"`
	Limit     int              `form:"limit,default=20" binding:"min=1,max=100"`
	Title     string           `form:"title"`
	Size      *float64         `form:"size"`
	PriceFrom *decimal.Decimal `form:"price_from"`
	PriceTo   *decimal.Decimal `form:"price_to"`
	Category  string           `form:"category"`
	Ordering  string           `form:"ordering" binding:"omitempty,oneof=title -title price -price"`
}

type SearchProductsRequest struct {
	Query string `form:"q" binding:"required"`
	Page  int    `form:"page,default=1" binding:"min=1"`
	Limit int    `form:"limit,default=20" binding:"min=1,max=100"`
}

// ProductListItem is the short form used in listings.
type ProductListItem struct {
	ID    uuid.UUID       `json:"id"`
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// ProductFields is every stored product attribute.
type ProductFields struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Size        float64         `json:"size"`
	Color       string          `json:"color"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
}

type ProductDetail struct {
	ProductFields
	Reviews []ReviewResponse `json:"reviews"`
	Rating  float64          `json:"rating"`
	Like    int              `json:"like"`
}

type ProductListResponse struct {
	Products []ProductListItem `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Review ---

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Text      string    `json:"text" binding:"required"`
	Rating    int       `json:"rating"`
}

type UpdateReviewRequest struct {
	Text   *string `json:"text"`
	Rating *int    `json:"rating"`
}

type ReviewAuthor struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	FullName string `json:"full_name,omitempty"`
}

// ReviewResponse omits the review id and the raw author id.
type ReviewResponse struct {
	Product   uuid.UUID    `json:"product"`
	Text      string       `json:"text"`
	Rating    int          `json:"rating"`
	Author    ReviewAuthor `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// --- Relations ---

type ToggleResponse struct {
	State   bool   `json:"state"`
	Message string `json:"message"`
}

type RelationEntry struct {
	Product ProductFields `json:"product"`
}

type LikeResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user"`
	ProductID uuid.UUID `json:"product"`
	IsLiked   bool      `json:"is_liked"`
}

// --- Order ---

type OrderLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  *int      `json:"quantity"`
}

type PlaceOrderRequest struct {
	Products []OrderLineRequest `json:"products" binding:"required,dive"`
}

type UpdateOrderRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=new done canceled"`
}

type ListOrdersRequest struct {
	TotalFrom   *decimal.Decimal `form:"total_from"`
	TotalTo     *decimal.Decimal `form:"total_to"`
	CreatedFrom *time.Time       `form:"created_from" time_format:"2006-01-02T15:04:05Z07:00"`
	CreatedTo   *time.Time       `form:"created_to" time_format:"2006-01-02T15:04:05Z07:00"`
	Product     string           `form:"product"`
	Ordering    string           `form:"ordering" binding:"omitempty,oneof=total_sum -total_sum created_at -created_at"`
}

type OrderResponse struct {
	ID        uuid.UUID           `json:"id"`
	UserID    uuid.UUID           `json:"user_id"`
	Status    model.OrderStatus   `json:"status"`
	TotalSum  decimal.Decimal     `json:"total_sum"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
}

type OrderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}
