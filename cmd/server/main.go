package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"propertyhub/internal/api"
	"propertyhub/internal/api/handlers"
	"propertyhub/internal/api/middleware"
	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/engine/webhooks"
	"propertyhub/internal/pkg/logger"
	"propertyhub/internal/pkg/lookup"
	"propertyhub/internal/platform/audit"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.Logging)
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set")
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("Unknown timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Databases
	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to global DB")
	}
	defer globalDB.Close()
	if _, err := database.Migrate(ctx, globalDB, database.TargetGlobal); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate global DB")
	}

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	// Lookup cache: Redis when configured, otherwise in process.
	var cache lookup.Cache = lookup.NewMemoryCache()
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		cache = lookup.NewRedisCache(rdb, cfg.Redis.KeyPrefix)
	}

	// Services
	m := metrics.New()
	tokenSvc := auth.NewTokenService(cfg.JWT)
	orgs := organizations.NewService(globalDB, tenantDBPool, tokenSvc, cfg.Billing)
	dispatcher := webhooks.NewDispatcher(cfg.Webhooks.Timeout, m)
	apiKeys := repositories.NewAPIKeyRepository(globalDB)
	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)

	engines := &handlers.Engines{
		Webhooks: dispatcher,
		Metrics:  m,
		Lookup:   lookup.NewService(cache),
		Audit:    audit.NewLogger(globalDB),
		Location: loc,
	}

	health := handlers.NewHealthHandler(globalDB)
	if rdb != nil {
		health.WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	router := api.NewRouter(&api.Dependencies{
		AuthHandler:       handlers.NewAuthHandler(orgs),
		OrgHandler:        handlers.NewOrgHandler(engines, orgs),
		UserHandler:       handlers.NewUserHandler(engines, orgs),
		PropertyHandler:   handlers.NewPropertyHandler(engines),
		TenantHandler:     handlers.NewTenantHandler(engines),
		PaymentHandler:    handlers.NewPaymentHandler(engines),
		RentHandler:       handlers.NewRentHandler(engines),
		ReportHandler:     handlers.NewReportHandler(engines),
		LookupHandler:     handlers.NewLookupHandler(engines),
		WebhookHandler:    handlers.NewWebhookHandler(engines),
		APIKeyHandler:     handlers.NewAPIKeyHandler(engines, apiKeys),
		AuditHandler:      handlers.NewAuditHandler(engines),
		SuperAdminHandler: handlers.NewSuperAdminHandler(orgs),
		HealthHandler:     health,
		AuthMiddleware:    middleware.NewAuthMiddleware(tokenSvc, apiKeys),
		TenantMiddleware:  middleware.NewTenantMiddleware(repositories.NewOrganizationRepository(globalDB), tenantDBPool),
		RateLimiter:       limiter,
		Metrics:           m,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      middleware.CORS(cfg.Domains.Origins())(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	dispatcher.Wait()
}
