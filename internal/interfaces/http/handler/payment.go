package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/marketplace/backend/internal/application/payment"
)

// PaymentService runs the two-phase payment flow
type PaymentService interface {
	Initialize(ctx context.Context, userID, orderID uuid.UUID) (*paymentapp.InitializeResponse, error)
	Verify(ctx context.Context, userID, orderID uuid.UUID, req paymentapp.VerifyRequest) (*paymentapp.VerifyResponse, error)
}

// PaymentHandler serves payment initialization and verification
type PaymentHandler struct {
	BaseHandler
	service PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(service PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// RegisterRoutes mounts the payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/checkout/:orderId/payment/initialize", h.Initialize)
	rg.POST("/checkout/:orderId/payment/verify", h.Verify)
}

// Initialize godoc
// @Summary      Start a payment
// @Description  Starts a hosted gateway payment for the order total and returns the URL to send the customer to
// @Tags         payments
// @Produce      json
// @Param        orderId path string true "Order ID" format(uuid)
// @Success      200 {object} dto.Response{data=paymentapp.InitializeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /checkout/{orderId}/payment/initialize [post]
func (h *PaymentHandler) Initialize(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}

	resp, err := h.service.Initialize(c.Request.Context(), userID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Verify godoc
// @Summary      Verify a payment
// @Description  Confirms a payment with the gateway. A rejected payment answers 402 with the gateway's reason and leaves the order open.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        orderId path string true "Order ID" format(uuid)
// @Param        request body paymentapp.VerifyRequest true "Gateway transaction reference and redirect status"
// @Success      200 {object} dto.Response{data=paymentapp.VerifyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      402 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /checkout/{orderId}/payment/verify [post]
func (h *PaymentHandler) Verify(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "orderId")
	if !ok {
		return
	}
	var req paymentapp.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	resp, err := h.service.Verify(c.Request.Context(), userID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Message(c, "Payment verified successfully", resp)
}
