package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/checkout"
	"github.com/marketplace/backend/internal/domain/shared"
)

// IdempotencyKeyHeader carries the client's retry key for checkout
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

// CheckoutService places, cancels and lists orders
type CheckoutService interface {
	Checkout(ctx context.Context, userID uuid.UUID, req checkout.CheckoutRequest) (*checkout.OrderResponse, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (*checkout.OrderResponse, error)
	GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*checkout.OrderResponse, error)
	ListOrders(ctx context.Context, userID uuid.UUID, query checkout.ListOrdersQuery) (*shared.Paginated[checkout.OrderSummaryResponse], error)
}

// CheckoutHandler serves order placement and order history
type CheckoutHandler struct {
	BaseHandler
	service CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(service CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{service: service}
}

// RegisterRoutes mounts the checkout and order routes
func (h *CheckoutHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout/create", h.Create)
	rg.PUT("/checkout/:orderId/cancel", h.Cancel)
	rg.GET("/orders", h.List)
	rg.GET("/orders/:id", h.Get)
}

// Create godoc
// @Summary      Place an order
// @Description  Creates an order from the requested items in one transaction. Any line that cannot be filled rolls back the whole order.
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client retry key, at most 255 characters"
// @Param        request body checkout.CheckoutRequest true "Order lines, address and payment method"
// @Success      201 {object} dto.Response{data=checkout.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /checkout/create [post]
func (h *CheckoutHandler) Create(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req checkout.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		h.ErrorWithCode(c, shared.CodeInvalidInput, "Idempotency-Key is too long")
		return
	}

	order, err := h.service.Checkout(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Cancels an undelivered order and puts its stock back. A paid order is marked REFUNDED.
// @Tags         checkout
// @Produce      json
// @Param        orderId path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=checkout.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /checkout/{orderId}/cancel [put]
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}

	order, err := h.service.Cancel(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Order cancelled successfully", order)
}

// Get godoc
// @Summary      Get an order
// @Description  Returns one of the caller's orders with its items and address
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=checkout.OrderResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *CheckoutHandler) Get(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// List godoc
// @Summary      List orders
// @Description  Returns the caller's order history, newest first by default
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status" Enums(PENDING, CONFIRMED, PROCESSING, SHIPPED, DELIVERED, CANCELLED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        order_by query string false "Sort field" default(created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc) default(desc)
// @Success      200 {object} dto.Response{data=[]checkout.OrderSummaryResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /orders [get]
func (h *CheckoutHandler) List(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var query checkout.ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.service.ListOrders(c.Request.Context(), userID, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize, page.TotalPages)
}
