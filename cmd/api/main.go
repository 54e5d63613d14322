package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"genie-storefront-assistant/internal/application"
	"genie-storefront-assistant/internal/application/tools"
	"genie-storefront-assistant/internal/application/webhook_handlers"
	"genie-storefront-assistant/internal/config"
	"genie-storefront-assistant/internal/domain"
	apiinfra "genie-storefront-assistant/internal/infrastructure/api"
	"genie-storefront-assistant/internal/infrastructure/llm"
	"genie-storefront-assistant/internal/infrastructure/lock"
	"genie-storefront-assistant/internal/infrastructure/metrics"
	"genie-storefront-assistant/internal/infrastructure/repository"
	shopifyinfra "genie-storefront-assistant/internal/infrastructure/shopify"
	"genie-storefront-assistant/internal/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Storage handle, connected on first use
	store := repository.NewStore(cfg.MongoURI, cfg.MongoDatabase, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to ensure MongoDB indexes, will retry on first use")
	}

	// Initialize repositories
	shopRepo := repository.NewMongoShopRepository(store)
	widgetRepo := repository.NewMongoWidgetRepository(store)
	customerRepo := repository.NewMongoCustomerRepository(store)

	// Provisioning lease
	var locker ports.Locker = lock.NewLocalLocker()
	if cfg.RedisURL != "" {
		redisClient, err := lock.NewRedisClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to configure Redis")
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, logger)
		logger.Info().Msg("Using Redis provisioning leases")
	}

	// Platform clients
	shopifyClient := shopifyinfra.NewClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, shopifyinfra.Options{
		APIVersion: cfg.ShopifyAPIVersion,
		Timeout:    cfg.HTTPTimeout,
		Metrics:    m,
	}, logger)
	storefrontClient := shopifyinfra.NewStorefrontClient(cfg.ShopifyAPIVersion, cfg.HTTPTimeout, nil, m, logger)
	customerAccountClient := shopifyinfra.NewCustomerAccountClient(shopifyinfra.DefaultCustomerAccountEndpoints, cfg.HTTPTimeout, m, logger)

	// Language model; without a key every chat gets the default reply
	var completion ports.CompletionClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.GeminiModel,
			Timeout: cfg.LLMTimeout,
		}, m, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize Gemini client")
		}
		completion = gemini
	} else {
		logger.Warn().Msg("GEMINI_API_KEY not set, chat replies will use the default message")
	}

	// Initialize application services
	provisioner := application.NewWidgetProvisioner(shopifyClient, widgetRepo, shopRepo, locker, m, cfg.AppURL, cfg.ProvisionLockTTL, logger)
	shopService := application.NewShopService(shopRepo, shopifyClient, logger)
	installService := application.NewInstallationService(shopifyClient, shopRepo, provisioner, cfg.FrontendURL, logger)
	widgetService := application.NewWidgetService(shopService, widgetRepo, provisioner)
	customerAuthService := application.NewCustomerAuthService(shopRepo, customerRepo, customerAccountClient, logger)

	pipeline := application.NewAssistantPipeline(map[domain.Intent]tools.Tool{
		domain.IntentProductSearch:  tools.NewCatalogSearch(shopRepo, shopifyClient, logger),
		domain.IntentCartInquiry:    tools.NewCartLookup(shopRepo, storefrontClient, logger),
		domain.IntentPolicyQuestion: tools.NewPolicySearch(shopRepo, shopifyClient, logger),
	}, completion, m, cfg.LLMTimeout, logger)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, shopRepo, widgetRepo))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewCustomerHandler(logger, customerRepo))

	router := apiinfra.NewRouter(apiinfra.Services{
		Install:      installService,
		Widgets:      widgetService,
		Shops:        shopService,
		CustomerAuth: customerAuthService,
		Pipeline:     pipeline,
		Webhooks:     webhookDispatcher,
		Shopify:      shopifyClient,
	}, apiinfra.RouterConfig{
		AppURL:      cfg.AppURL,
		WidgetURL:   cfg.FrontendURL + "/chat-widget.js",
		SwaggerFile: "./docs/swagger.json",
		Gatherer:    registry,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// chat replies may wait for the tool call and the model
		WriteTimeout: cfg.HTTPTimeout + cfg.LLMTimeout + 5*time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
