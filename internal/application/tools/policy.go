package tools

import (
	"context"
	"strings"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"

	"github.com/rs/zerolog"
)

// PolicyTool is the tool name reported for policy searches
const PolicyTool = "policy_search"

// PolicyItem is one published shop policy
type PolicyItem struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// policyTopics maps message keywords to policy types
var policyTopics = map[string]string{
	"return":   "REFUND_POLICY",
	"refund":   "REFUND_POLICY",
	"exchange": "REFUND_POLICY",
	"shipping": "SHIPPING_POLICY",
	"delivery": "SHIPPING_POLICY",
	"privacy":  "PRIVACY_POLICY",
	"data":     "PRIVACY_POLICY",
	"terms":    "TERMS_OF_SERVICE",
	"warranty": "TERMS_OF_SERVICE",
	"contact":  "CONTACT_INFORMATION",
}

// PolicySearch returns the shop policies relevant to a message
type PolicySearch struct {
	shops   ports.ShopRepository
	shopify ports.ShopifyClient
	logger  zerolog.Logger
}

// NewPolicySearch creates the policy adapter
func NewPolicySearch(shops ports.ShopRepository, client ports.ShopifyClient, logger zerolog.Logger) *PolicySearch {
	return &PolicySearch{shops: shops, shopify: client, logger: logger}
}

func (t *PolicySearch) Name() string { return PolicyTool }

func (t *PolicySearch) Run(ctx context.Context, req ToolRequest) domain.ToolResult {
	account, miss := lookupAccount(ctx, t.shops, PolicyTool, req.Shop)
	if miss != nil {
		return *miss
	}

	policies, err := t.shopify.ShopPolicies(ctx, req.Shop, account.Credentials.AccessToken)
	if err != nil {
		t.logger.Warn().Err(err).Str("shop", req.Shop).Msg("Policy search failed")
		return failed(PolicyTool, "policy search failed")
	}

	wanted := map[string]bool{}
	text := strings.ToLower(req.Message)
	for keyword, policyType := range policyTopics {
		if strings.Contains(text, keyword) {
			wanted[policyType] = true
		}
	}

	items := make([]any, 0, len(policies))
	for _, policy := range policies {
		if len(wanted) > 0 && !wanted[policy.Type] {
			continue
		}
		items = append(items, PolicyItem{
			Type:  policy.Type,
			Title: policy.Title,
			Body:  plainText(policy.Body, 1500),
			URL:   policy.URL,
		})
	}
	return domain.ToolResult{Tool: PolicyTool, Items: items}
}
