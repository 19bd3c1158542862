package router

import (
	"fmt"
	"time"

	"github.com/erp/salescore/internal/infrastructure/config"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/erp/salescore/internal/interfaces/http/handler"
	"github.com/erp/salescore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers groups the HTTP handlers mounted by New
type Handlers struct {
	Sales        *handler.SalesDocumentHandler
	Customers    *handler.CustomerHandler
	Finance      *handler.FinanceHandler
	AccessRights *handler.AccessRightHandler
	System       *handler.SystemHandler
}

// Options configures the engine built by New
type Options struct {
	HTTP        config.HTTPConfig
	Swagger     config.SwaggerConfig
	ServiceName string
	// Tracing adds the otelgin middleware
	Tracing bool
	// Profiling tags pyroscope samples with the route
	Profiling bool
	// Meter enables the HTTP metrics middleware when not nil
	Meter metric.Meter
}

// Dependencies are the collaborators shared by every route
type Dependencies struct {
	Logger      *zap.Logger
	Tokens      middleware.TokenValidator
	Permissions middleware.PermissionChecker
	Handlers    Handlers
}

// New builds the gin engine. Middleware order:
//  1. Recovery - catch panics
//  2. RequestID - generate or propagate the request id
//  3. Logger - log requests
//  4. Tracing and metrics - when enabled
//  5. Security headers and CORS
//  6. BodyLimit and RateLimit
func New(opts Options, deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log, "/health", "/ready"))
	if opts.Tracing {
		engine.Use(middleware.Tracing(opts.ServiceName), middleware.SpanEnricher())
	}
	if opts.Meter != nil {
		metrics, err := middleware.HTTPMetrics(opts.Meter)
		if err != nil {
			return nil, fmt.Errorf("http metrics: %w", err)
		}
		engine.Use(metrics)
	}
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	engine.Use(middleware.CORS(cors))

	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(opts.HTTP.RateLimitRequests, opts.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", opts.HTTP.RateLimitRequests),
			zap.Duration("window", opts.HTTP.RateLimitWindow),
		)
	}

	h := deps.Handlers
	auth := middleware.JWTAuth(deps.Tokens, log)

	// Health check endpoints (outside API versioning)
	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}
	engine.GET("/swagger/*any", middleware.DocsGate(opts.Swagger.Enabled), ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := NewAPI("v1", auth)
	if opts.Profiling {
		api.Use(middleware.Profiling())
	}
	if h.Sales != nil {
		api.Add(SalesRoutes(h.Sales, deps.Permissions))
	}
	if h.Customers != nil {
		api.Add(PartnerRoutes(h.Customers, deps.Permissions))
	}
	if h.Finance != nil {
		api.Add(FinanceRoutes(h.Finance, deps.Permissions))
	}
	if h.AccessRights != nil {
		api.Add(IdentityRoutes(h.AccessRights, deps.Permissions))
	}
	if h.System != nil {
		api.Add(SystemRoutes(h.System))
	}
	api.Install(engine)

	return engine, nil
}
