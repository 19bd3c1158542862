package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	financeapp "github.com/erp/salescore/internal/application/finance"
	identityapp "github.com/erp/salescore/internal/application/identity"
	partnerapp "github.com/erp/salescore/internal/application/partner"
	salesapp "github.com/erp/salescore/internal/application/sales"
	"github.com/erp/salescore/internal/infrastructure/auth"
	"github.com/erp/salescore/internal/infrastructure/cache"
	"github.com/erp/salescore/internal/infrastructure/config"
	"github.com/erp/salescore/internal/infrastructure/event"
	"github.com/erp/salescore/internal/infrastructure/logger"
	"github.com/erp/salescore/internal/infrastructure/persistence"
	"github.com/erp/salescore/internal/infrastructure/telemetry"
	"github.com/erp/salescore/internal/interfaces/http/handler"
	"github.com/erp/salescore/internal/interfaces/http/router"

	_ "github.com/erp/salescore/docs"
)

//	@title			Sales Core API
//	@version		1.0
//	@description	Multi-tenant sales documents with receivables posting

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting sales core",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers are no-ops when disabled
	tel, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if tel.Logs.IsEnabled() {
		log = tel.Logs.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver != config.DriverPostgres {
		// postgres schemas come from cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	// httpMeter stays nil when metrics are off so the router skips HTTPMetrics
	var httpMeter metric.Meter
	meter := tel.Meter.Meter("salescore")
	if tel.Meter.IsEnabled() {
		httpMeter = meter
		dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meter, telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		defer dbMetrics.Stop()
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to access connection pool", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Redis is optional; it backs cross-instance invalidation, numbering
	// and transfer locks when enabled.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	// Repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	documentRepo := persistence.NewGormSalesDocumentRepository(db.DB)
	arInvoiceRepo := persistence.NewGormARInvoiceRepository(db.DB)
	periodLockRepo := persistence.NewGormPeriodLockRepository(db.DB)
	groupRepo := persistence.NewGormUserGroupRepository(db.DB)
	rightRepo := persistence.NewGormAccessRightRepository(db.DB)

	scopeOpts := []persistence.ScopeOption{persistence.WithNumberPadding(cfg.Numbering.Padding)}
	if cfg.Numbering.Backend == config.NumberingBackendRedis {
		if redisClient == nil {
			log.Fatal("Redis numbering requires redis.enabled")
		}
		scopeOpts = append(scopeOpts, persistence.WithNumbering(cache.NewRedisNumberingService(redisClient, cfg.Numbering.Padding)))
	}
	scope := persistence.NewGormTransactionScope(db.DB, scopeOpts...)

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	audit := event.NewAuditLogHandler(event.DefaultCatalog(), log)
	eventBus.Subscribe(audit, audit.EventTypes()...)
	if tel.Meter.IsEnabled() {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:              meter,
			Logger:             log,
			ReceivableProvider: telemetry.NewGormReceivableMetricsProvider(db.DB),
		})
		if err != nil {
			log.Fatal("Failed to create business metrics", zap.Error(err))
		}
		eventBus.Subscribe(businessMetrics, businessMetrics.EventTypes()...)
		businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), time.Minute)
		defer businessMetrics.Stop()
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	permissionCache := cache.NewInMemoryPermissionCache(
		cache.WithPermissionTTL(cfg.Permission.CacheTTL),
		cache.WithPermissionCacheLogger(log),
	)
	evaluator := identityapp.NewPermissionEvaluator(rightRepo, permissionCache, log)
	if redisClient != nil {
		invalidator := cache.NewRedisPermissionInvalidator(redisClient,
			cache.WithInvalidatorChannel(cfg.Permission.InvalidationChannel),
			cache.WithInvalidatorLogger(log),
		)
		evaluator.SetBroadcaster(invalidator)
		go func() {
			if err := invalidator.Subscribe(ctx, permissionCache); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("Permission invalidation subscription stopped", zap.Error(err))
			}
		}()
		defer func() { _ = invalidator.Close() }()
	}
	accessRightService := identityapp.NewAccessRightService(groupRepo, rightRepo, evaluator, log)

	customerService := partnerapp.NewCustomerService(customerRepo, cfg.App.PhoneRegion, log)
	customerService.SetEventPublisher(eventBus)

	periodLockService := financeapp.NewPeriodLockService(periodLockRepo, log)
	arInvoiceService := financeapp.NewARInvoiceService(arInvoiceRepo, log)
	arInvoiceService.SetEventPublisher(eventBus)
	arSyncService := financeapp.NewARSyncService(log)

	documentService := salesapp.NewDocumentService(scope, documentRepo, customerRepo, periodLockService, arSyncService, log)
	documentService.SetEventPublisher(eventBus)
	if cfg.Transfer.LockEnabled && redisClient != nil {
		documentService.SetSourceLocker(cache.NewRedisSourceLocker(redisClient, cfg.Transfer.LockTTL, log))
	}

	// HTTP
	jwtService := auth.NewJWTService(cfg.JWT)
	engine, err := router.New(router.Options{
		HTTP:        cfg.HTTP,
		Swagger:     cfg.Swagger,
		ServiceName: cfg.Telemetry.ServiceName,
		Tracing:     tel.Tracer.IsEnabled(),
		Profiling:   tel.Profiler.IsEnabled(),
		Meter:       httpMeter,
	}, router.Dependencies{
		Logger:      log,
		Tokens:      jwtService,
		Permissions: evaluator,
		Handlers: router.Handlers{
			Sales:        handler.NewSalesDocumentHandler(documentService),
			Customers:    handler.NewCustomerHandler(customerService),
			Finance:      handler.NewFinanceHandler(arInvoiceService, periodLockService),
			AccessRights: handler.NewAccessRightHandler(accessRightService),
			System:       handler.NewSystemHandler(cfg.App.Name, version, sqlDB),
		},
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
