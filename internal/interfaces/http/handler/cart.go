package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/checkout"
)

// CartService manages the caller's cart
type CartService interface {
	AddToCart(ctx context.Context, userID uuid.UUID, req checkout.AddToCartRequest) (*checkout.CartItemResponse, error)
	ListCart(ctx context.Context, userID uuid.UUID) (*checkout.CartResponse, error)
	RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error
}

// CartHandler serves the cart endpoints
type CartHandler struct {
	BaseHandler
	service CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(service CartService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes mounts the cart routes
func (h *CartHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/cart", h.List)
	rg.POST("/cart", h.Add)
	rg.DELETE("/cart/:itemId", h.Remove)
}

// List godoc
// @Summary      Get the cart
// @Description  Returns the caller's cart priced at current catalog prices
// @Tags         cart
// @Produce      json
// @Success      200 {object} dto.Response{data=checkout.CartResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [get]
func (h *CartHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	cart, err := h.service.ListCart(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cart)
}

// Add godoc
// @Summary      Add to cart
// @Description  Puts a product in the cart, merging with an existing line for the same product and variant
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body checkout.AddToCartRequest true "Product, optional variant and quantity"
// @Success      201 {object} dto.Response{data=checkout.CartItemResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart [post]
func (h *CartHandler) Add(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req checkout.AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, err := h.service.AddToCart(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Remove godoc
// @Summary      Remove from cart
// @Tags         cart
// @Param        itemId path string true "Cart item ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /cart/{itemId} [delete]
func (h *CartHandler) Remove(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	if err := h.service.RemoveFromCart(c.Request.Context(), userID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
