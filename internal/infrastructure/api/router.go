package api

import (
	"net/http"

	"genie-storefront-assistant/internal/application"
	securitymiddleware "genie-storefront-assistant/internal/infrastructure/middleware"
	"genie-storefront-assistant/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services are the application components the HTTP surface exposes
type Services struct {
	Install      *application.InstallationService
	Widgets      *application.WidgetService
	Shops        *application.ShopService
	CustomerAuth *application.CustomerAuthService
	Pipeline     *application.AssistantPipeline
	Webhooks     *application.WebhookDispatcher
	Shopify      ports.ShopifyClient
}

// RouterConfig carries the URLs and registries the router needs
type RouterConfig struct {
	AppURL      string
	WidgetURL   string
	SwaggerFile string
	Gatherer    prometheus.Gatherer
}

// NewRouter builds the HTTP handler. Every application route is also served
// under /api.
func NewRouter(svc Services, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(securitymiddleware.RequestLogging(logger))
	r.Use(securitymiddleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/health", HealthHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.SwaggerFile != "" {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
		r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			http.ServeFile(w, r, cfg.SwaggerFile)
		})
	}

	r.Get("/widget-loader.js", WidgetLoaderHandler(cfg.AppURL, cfg.WidgetURL))

	routes := func(r chi.Router) {
		r.Get("/auth", AuthCallbackHandler(svc.Install))

		r.Post("/inject-widget", InjectWidgetHandler(svc.Widgets))
		r.Post("/remove-widget", RemoveWidgetHandler(svc.Widgets))
		r.Get("/script/{shop}", ScriptHandler(svc.Widgets))

		r.Post("/chat/storefront", StorefrontChatHandler(svc.Pipeline))
		r.Post("/chat", LegacyChatHandler(svc.Pipeline))

		r.Post("/shop-info", ShopInfoHandler(svc.Shops))
		r.Post("/create-storefront-token", CreateStorefrontTokenHandler(svc.Shops))
		r.Post("/store-customer-auth", StoreCustomerAuthHandler(svc.Shops))

		r.Get("/customer-auth/login", CustomerLoginHandler(svc.CustomerAuth, cfg.AppURL))
		r.Get("/customer-auth/callback", CustomerCallbackHandler(svc.CustomerAuth, cfg.AppURL))

		r.Post("/webhooks/shopify", WebhookHandler(svc.Shopify, svc.Webhooks))
	}
	routes(r)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandler())
		routes(r)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   "API endpoint not found",
		})
	})

	return r
}
