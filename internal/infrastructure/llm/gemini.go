package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/infrastructure/metrics"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModel is used when GEMINI_MODEL is not set
const DefaultModel = "gemini-2.0-flash"

// GeminiConfig configures the Gemini completion client
type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int32
	// BaseURL overrides the Gemini API endpoint, mainly for tests
	BaseURL string
}

// GeminiClient implements ports.CompletionClient on the Gemini API
type GeminiClient struct {
	client  *genai.Client
	cfg     GeminiConfig
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

var _ ports.CompletionClient = (*GeminiClient)(nil)

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, m *metrics.Metrics, logger zerolog.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.4
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
	}, nil
}

// Complete sends one grounded prompt and returns the completion text. An empty
// completion is reported as an error so callers fall back uniformly.
func (g *GeminiClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	defer g.metrics.ObserveExternalCall("gemini", "generate_content", time.Now())

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.cfg.Temperature),
		MaxOutputTokens: g.cfg.MaxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return "", &domain.ExternalAPIError{Op: "llm-completion", Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &domain.ExternalAPIError{Op: "llm-completion", Err: fmt.Errorf("empty completion")}
	}

	g.logger.Debug().Str("model", g.cfg.Model).Int("chars", len(text)).Msg("Completion received")
	return text, nil
}
