package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"genie-storefront-assistant/internal/application/tools"
	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultReply is returned whenever a grounded reply cannot be produced
const DefaultReply = "Thanks for your message! I'm having trouble looking that up right now. Please try again in a moment, or browse the store while I get back on track."

const systemPrompt = `You are Genie, a friendly shopping assistant embedded in an online store.
Answer the shopper's message in at most four short sentences.
Only use facts from the JSON context below. If the context has no relevant data, say so and suggest what the shopper could try.
Never invent products, prices or policies.`

// ChatRequest is one shopper message with its client-side state
type ChatRequest struct {
	Message   string
	Shop      string
	Customer  domain.CustomerContext
	Cart      domain.CartContext
	SessionID string
}

// ChatReply is what the chat surface renders
type ChatReply struct {
	Response string              `json:"response"`
	CartID   *string             `json:"cartId"`
	Actions  []domain.ChatAction `json:"actions"`
	Intent   domain.Intent       `json:"intent"`
}

// groundingContext is serialized into the model's system instruction
type groundingContext struct {
	Shop      string                 `json:"shop"`
	Intent    domain.Intent          `json:"intent"`
	Customer  domain.CustomerContext `json:"customer"`
	CartID    *string                `json:"cartId"`
	SessionID string                 `json:"sessionId,omitempty"`
	Tool      *domain.ToolResult     `json:"toolResult,omitempty"`
}

// AssistantPipeline turns a shopper message into a grounded reply. Respond
// never fails; every problem degrades to DefaultReply.
type AssistantPipeline struct {
	tools      map[domain.Intent]tools.Tool
	completion ports.CompletionClient
	metrics    ports.Metrics
	timeout    time.Duration
	logger     zerolog.Logger
}

// NewAssistantPipeline creates a new pipeline. toolset maps each intent to the
// adapter it dispatches to; intents without an entry invoke no tool.
func NewAssistantPipeline(toolset map[domain.Intent]tools.Tool, completion ports.CompletionClient, m ports.Metrics, timeout time.Duration, logger zerolog.Logger) *AssistantPipeline {
	if m == nil {
		m = ports.NopMetrics{}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &AssistantPipeline{
		tools:      toolset,
		completion: completion,
		metrics:    m,
		timeout:    timeout,
		logger:     logger,
	}
}

// Respond runs classification, tool dispatch, context assembly and reply synthesis
func (p *AssistantPipeline) Respond(ctx context.Context, req ChatRequest) (reply ChatReply) {
	turn := &domain.ConversationTurn{
		ID:       uuid.NewString(),
		Shop:     req.Shop,
		Message:  req.Message,
		Customer: req.Customer,
		Cart:     req.Cart,
	}
	logger := p.logger.With().Str("turnId", turn.ID).Str("shop", req.Shop).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Assistant pipeline panicked")
			p.metrics.FallbackReply("panic")
			reply = ChatReply{Response: DefaultReply, CartID: req.Cart.CartID, Actions: []domain.ChatAction{}, Intent: turn.Intent}
		}
	}()

	turn.Intent = ClassifyIntent(req.Message)
	p.metrics.ChatMessage(string(turn.Intent))

	if tool, ok := p.tools[turn.Intent]; ok && tool != nil {
		result := tool.Run(ctx, tools.ToolRequest{
			Shop:     req.Shop,
			Message:  req.Message,
			Customer: req.Customer,
			Cart:     req.Cart,
		})
		turn.Tool = &result
		if result.Error != "" {
			logger.Info().Str("tool", result.Tool).Str("toolError", result.Error).Msg("Tool returned no data")
		}
	}

	turn.Actions = actionsFor(turn.Tool)
	turn.Reply = p.synthesize(ctx, turn, req.SessionID, logger)

	logger.Info().
		Str("intent", string(turn.Intent)).
		Bool("grounded", turn.Tool != nil && !turn.Tool.Empty()).
		Msg("Chat message answered")

	return ChatReply{
		Response: turn.Reply,
		CartID:   req.Cart.CartID,
		Actions:  turn.Actions,
		Intent:   turn.Intent,
	}
}

// RespondLegacy serves the message-and-shop-only chat entry point
func (p *AssistantPipeline) RespondLegacy(ctx context.Context, message string, shop string) ChatReply {
	return p.Respond(ctx, ChatRequest{Message: message, Shop: shop})
}

func (p *AssistantPipeline) synthesize(ctx context.Context, turn *domain.ConversationTurn, sessionID string, logger zerolog.Logger) string {
	if p.completion == nil {
		p.metrics.FallbackReply("no_model")
		return DefaultReply
	}

	grounding, err := json.Marshal(groundingContext{
		Shop:      turn.Shop,
		Intent:    turn.Intent,
		Customer:  turn.Customer,
		CartID:    turn.Cart.CartID,
		SessionID: sessionID,
		Tool:      turn.Tool,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to encode grounding context")
		p.metrics.FallbackReply("context")
		return DefaultReply
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.completion.Complete(ctx, ports.CompletionRequest{
		System: fmt.Sprintf("%s\n\nContext:\n%s", systemPrompt, grounding),
		Prompt: turn.Message,
	})
	if err != nil {
		reason := "llm_error"
		if ctx.Err() != nil {
			reason = "timeout"
		}
		logger.Warn().Err(err).Str("reason", reason).Msg("Language model unavailable, using default reply")
		p.metrics.FallbackReply(reason)
		return DefaultReply
	}
	if text == "" {
		p.metrics.FallbackReply("empty")
		return DefaultReply
	}
	return text
}

// actionsFor derives client affordances from tool data
func actionsFor(result *domain.ToolResult) []domain.ChatAction {
	actions := []domain.ChatAction{}
	if result == nil {
		return actions
	}
	for _, item := range result.Items {
		switch v := item.(type) {
		case tools.CatalogItem:
			if v.URL != "" {
				actions = append(actions, domain.ChatAction{Type: "view_product", Label: v.Title, URL: v.URL})
			}
		case domain.Cart:
			if v.CheckoutURL != "" {
				actions = append(actions, domain.ChatAction{Type: "checkout", Label: "Checkout", URL: v.CheckoutURL})
			}
		}
	}
	return actions
}
