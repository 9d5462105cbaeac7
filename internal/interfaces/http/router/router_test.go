package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/catalogimport"
	"github.com/marketplace/backend/internal/application/checkout"
	paymentapp "github.com/marketplace/backend/internal/application/payment"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/csvimport"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("tag")) })
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(pingRoutes{}, func(c *gin.Context) {
		c.Set("tag", "scoped")
		c.Next()
	})
	r.Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scoped", w.Body.String())
}

// stubServices answers every call with an empty order history
type stubServices struct{}

func (stubServices) Checkout(context.Context, uuid.UUID, checkout.CheckoutRequest) (*checkout.OrderResponse, error) {
	return nil, shared.ErrNotFound
}

func (stubServices) Cancel(context.Context, uuid.UUID, uuid.UUID) (*checkout.OrderResponse, error) {
	return nil, shared.ErrNotFound
}

func (stubServices) GetOrder(context.Context, uuid.UUID, uuid.UUID) (*checkout.OrderResponse, error) {
	return nil, shared.ErrNotFound
}

func (stubServices) ListOrders(context.Context, uuid.UUID, checkout.ListOrdersQuery) (*shared.Paginated[checkout.OrderSummaryResponse], error) {
	page := shared.NewPaginated([]checkout.OrderSummaryResponse{}, 0, 1, 20)
	return &page, nil
}

func (stubServices) AddToCart(context.Context, uuid.UUID, checkout.AddToCartRequest) (*checkout.CartItemResponse, error) {
	return nil, shared.ErrNotFound
}

func (stubServices) ListCart(context.Context, uuid.UUID) (*checkout.CartResponse, error) {
	return &checkout.CartResponse{Items: []checkout.CartItemResponse{}}, nil
}

func (stubServices) RemoveFromCart(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (stubServices) Initialize(context.Context, uuid.UUID, uuid.UUID) (*paymentapp.InitializeResponse, error) {
	return &paymentapp.InitializeResponse{Provider: "sandbox"}, nil
}

func (stubServices) Verify(context.Context, uuid.UUID, uuid.UUID, paymentapp.VerifyRequest) (*paymentapp.VerifyResponse, error) {
	return nil, shared.ErrNotFound
}

func (stubServices) Import(context.Context, string, catalogimport.Uploader) (*catalogimport.Result, error) {
	return &catalogimport.Result{Errors: []string{}}, nil
}

func (stubServices) Preview(context.Context, string) (*csvimport.Statistics, error) {
	return &csvimport.Statistics{}, nil
}

func (stubServices) Save(context.Context, string, io.Reader) (string, error) {
	return "key.csv", nil
}

func (stubServices) Ping(context.Context) error { return nil }

func newTestEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	return newEngine(t, false)
}

func newEngine(t *testing.T, swagger bool) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	tokens := auth.NewJWTService(config.JWTConfig{Secret: "router-test-secret-at-least-32ch", AccessTokenExpiration: time.Hour})
	svc := stubServices{}
	engine, err := New(Options{
		Tokens:         tokens,
		PaymentLimiter: middleware.NewRateLimiter(1, time.Hour),
		Swagger:        swagger,
	}, Handlers{
		Health:   handler.NewHealthHandler(svc),
		Checkout: handler.NewCheckoutHandler(svc),
		Cart:     handler.NewCartHandler(svc),
		Payment:  handler.NewPaymentHandler(svc),
		Import:   handler.NewImportHandler(svc, svc, 0),
	})
	require.NoError(t, err)
	return engine, tokens
}

func bearer(t *testing.T, tokens *auth.JWTService, role identity.Role) string {
	t.Helper()
	user, err := identity.NewUser(string(role)+"@example.com", "Test", "User")
	require.NoError(t, err)
	user.Role = role
	token, _, err := tokens.GenerateAccessToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

func request(engine *gin.Engine, method, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNew_Routes(t *testing.T) {
	engine, tokens := newTestEngine(t)
	customer := bearer(t, tokens, identity.RoleCustomer)

	w := request(engine, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	assert.Equal(t, http.StatusUnauthorized, request(engine, http.MethodGet, "/api/v1/orders", "").Code)
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/api/v1/orders", customer).Code)
	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/api/v1/cart", customer).Code)

	orderPath := "/api/v1/checkout/" + uuid.NewString() + "/payment/initialize"
	assert.Equal(t, http.StatusOK, request(engine, http.MethodPost, orderPath, customer).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(engine, http.MethodPost, orderPath, customer).Code)

	assert.Equal(t, http.StatusForbidden, request(engine, http.MethodPost, "/api/v1/import/products/upload", customer).Code)
	admin := bearer(t, tokens, identity.RoleAdmin)
	// an admin passes auth and reaches the handler, which wants a file
	assert.Equal(t, http.StatusBadRequest, request(engine, http.MethodPost, "/api/v1/import/products/upload", admin).Code)

	assert.Equal(t, http.StatusNotFound, request(engine, http.MethodGet, "/api/v1/unknown", customer).Code)
}

func TestNew_Swagger(t *testing.T) {
	engine, _ := newEngine(t, true)

	w := request(engine, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/checkout/create"`)
	assert.Contains(t, w.Body.String(), `"/import/products/upload"`)
	assert.Contains(t, w.Body.String(), `"basePath": "/api/v1"`)

	assert.Equal(t, http.StatusOK, request(engine, http.MethodGet, "/swagger/index.html", "").Code)

	disabled, _ := newTestEngine(t)
	assert.Equal(t, http.StatusNotFound, request(disabled, http.MethodGet, "/swagger/doc.json", "").Code)
}
