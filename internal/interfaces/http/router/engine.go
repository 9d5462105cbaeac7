package router

import (
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/marketplace/backend/docs"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// multipart framing allowance on top of the file size limit
const uploadOverhead = 1 << 20

// Handlers are the route sets served by the API
type Handlers struct {
	Health   *handler.HealthHandler
	Checkout *handler.CheckoutHandler
	Cart     *handler.CartHandler
	Payment  *handler.PaymentHandler
	Import   *handler.ImportHandler
}

// Options configure the engine
type Options struct {
	Logger         *zap.Logger
	HTTP           config.HTTPConfig
	Telemetry      config.TelemetryConfig
	Tokens         middleware.TokenValidator
	PaymentLimiter *middleware.RateLimiter
	Swagger        bool // serve the API docs at /swagger/index.html
}

// New builds the gin engine with the global middleware chain and all routes
func New(opts Options, h Handlers) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PaymentLimiter == nil {
		opts.PaymentLimiter = middleware.NewRateLimiter(30, time.Minute)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(opts.Logger),
		logger.Recovery(opts.Logger),
		middleware.Tracing(opts.Telemetry.ServiceName, opts.Telemetry.Enabled),
		middleware.CORS(middleware.DefaultCORSConfig(opts.HTTP.CORSAllowOrigins)),
		middleware.Secure(),
	)

	auth := middleware.JWTAuth(opts.Tokens)
	r := NewRouter(engine)
	r.Register(h.Health)
	r.Register(h.Checkout, auth)
	r.Register(h.Cart, auth)
	r.Register(h.Payment, auth, middleware.RateLimit(opts.PaymentLimiter))
	r.Register(h.Import,
		middleware.BodyLimit(h.Import.MaxSize()+uploadOverhead),
		auth,
		middleware.RequireRole(identity.RoleAdmin, identity.RoleVendor),
	)
	r.Setup()

	if opts.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return engine, nil
}
