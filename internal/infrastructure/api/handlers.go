package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"genie-storefront-assistant/internal/application"
	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type shopRequest struct {
	Shop string `json:"shop"`
}

type chatRequest struct {
	Message  string                 `json:"message"`
	Shop     string                 `json:"shop"`
	Customer domain.CustomerContext `json:"customer"`
	Cart     domain.CartContext     `json:"cart"`
	Session  struct {
		ID string `json:"id"`
	} `json:"session"`
}

type customerAuthRequest struct {
	Shop         string `json:"shop"`
	ClientID     string `json:"customer_account_client_id"`
	ClientSecret string `json:"customer_account_client_secret"`
}

// HealthHandler reports liveness
func HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// AuthCallbackHandler completes the merchant OAuth install
func AuthCallbackHandler(install *application.InstallationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		result, err := install.CompleteInstall(r.Context(), application.InstallRequest{
			Code:  q.Get("code"),
			Shop:  q.Get("shop"),
			State: q.Get("state"),
			Query: q,
		})

		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			writeError(w, r, err)
			return
		}
		if err != nil {
			_, reason := classify(err)
			hlog.FromRequest(r).Error().Err(err).Str("shop", q.Get("shop")).Msg("Install failed")
			http.Redirect(w, r, install.FailureRedirect(reason), http.StatusFound)
			return
		}

		http.Redirect(w, r, result.RedirectURL, http.StatusFound)
	}
}

// InjectWidgetHandler re-provisions the widget for a registered shop
func InjectWidgetHandler(widgets *application.WidgetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shopRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		installation, err := widgets.Inject(r.Context(), req.Shop)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":   true,
			"message":   "Widget installed via " + string(installation.Mechanism),
			"mechanism": installation.Mechanism,
			"script":    summarize(installation),
		})
	}
}

// RemoveWidgetHandler retires the widget of a registered shop
func RemoveWidgetHandler(widgets *application.WidgetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shopRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := widgets.Remove(r.Context(), req.Shop); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Widget removed",
		})
	}
}

// ScriptHandler returns the active installation of a shop
func ScriptHandler(widgets *application.WidgetService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		installation, err := widgets.Installation(r.Context(), chi.URLParam(r, "shop"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"script":  summarize(installation),
		})
	}
}

// StorefrontChatHandler answers a message from the storefront widget
func StorefrontChatHandler(pipeline *application.AssistantPipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requireChatFields(req.Message, req.Shop); err != nil {
			writeError(w, r, err)
			return
		}

		reply := pipeline.Respond(r.Context(), application.ChatRequest{
			Message:   req.Message,
			Shop:      req.Shop,
			Customer:  req.Customer,
			Cart:      req.Cart,
			SessionID: req.Session.ID,
		})
		writeChatReply(w, reply)
	}
}

// LegacyChatHandler accepts the older message-and-shop payload
func LegacyChatHandler(pipeline *application.AssistantPipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message string `json:"message"`
			Shop    string `json:"shop"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		if err := requireChatFields(req.Message, req.Shop); err != nil {
			writeError(w, r, err)
			return
		}

		writeChatReply(w, pipeline.RespondLegacy(r.Context(), req.Message, req.Shop))
	}
}

func requireChatFields(message, shop string) error {
	if message == "" {
		return domain.NewValidationError("message")
	}
	if shop == "" {
		return domain.NewValidationError("shop")
	}
	return nil
}

func writeChatReply(w http.ResponseWriter, reply application.ChatReply) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"response": reply.Response,
		"cartId":   reply.CartID,
		"actions":  reply.Actions,
		"intent":   reply.Intent,
	})
}

// ShopInfoHandler returns the merchant dashboard snapshot
func ShopInfoHandler(shops *application.ShopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shopRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		info, err := shops.ShopInfo(r.Context(), req.Shop)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

// CreateStorefrontTokenHandler creates and stores a Storefront API token
func CreateStorefrontTokenHandler(shops *application.ShopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shopRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		if _, err := shops.CreateStorefrontToken(r.Context(), req.Shop); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Storefront access token created",
		})
	}
}

// StoreCustomerAuthHandler saves Customer Account API client credentials
func StoreCustomerAuthHandler(shops *application.ShopService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req customerAuthRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		err := shops.StoreCustomerAuth(r.Context(), req.Shop, domain.CustomerAccountCredentials{
			ClientID:     req.ClientID,
			ClientSecret: req.ClientSecret,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Customer auth credentials stored",
		})
	}
}

// CustomerLoginHandler sends the shopper to the right login page
func CustomerLoginHandler(auth *application.CustomerAuthService, appURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		target, err := auth.LoginURL(r.Context(), q.Get("shop"), appURL+"/customer-auth/callback", q.Get("return_url"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// CustomerCallbackHandler finishes the shopper login and renders the result page
func CustomerCallbackHandler(auth *application.CustomerAuthService, appURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		shop := q.Get("shop")

		session, err := auth.HandleCallback(r.Context(), shop, q.Get("code"), q.Get("state"), appURL+"/customer-auth/callback")
		if err != nil {
			status, msg := classify(err)
			hlog.FromRequest(r).Warn().Err(err).Str("shop", shop).Msg("Customer login failed")
			renderLoginResult(w, status, loginResult{Message: msg})
			return
		}

		renderLoginResult(w, http.StatusOK, loginResult{OK: true, Email: session.Email, Shop: shop})
	}
}

// WebhookHandler verifies and dispatches platform webhooks
func WebhookHandler(client ports.ShopifyClient, dispatcher *application.WebhookDispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 5<<20))
		if err != nil {
			writeError(w, r, &domain.ValidationError{Field: "body", Message: "failed to read request body"})
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(payload))

		if !client.VerifyWebhook(r) {
			hlog.FromRequest(r).Warn().Msg("Webhook signature verification failed")
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"error":   "Invalid signature",
			})
			return
		}

		event := &domain.WebhookEvent{
			Topic:      r.Header.Get("X-Shopify-Topic"),
			Shop:       r.Header.Get("X-Shopify-Shop-Domain"),
			WebhookID:  r.Header.Get("X-Shopify-Webhook-Id"),
			Payload:    payload,
			ReceivedAt: time.Now().UTC(),
		}
		if err := dispatcher.Dispatch(r.Context(), event); err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"received": "true"})
	}
}
