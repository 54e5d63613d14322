package domain

// Intent is the closed-set classification of a shopper message
type Intent string

const (
	IntentProductSearch  Intent = "product_search"
	IntentCartInquiry    Intent = "cart_inquiry"
	IntentPolicyQuestion Intent = "policy_question"
	IntentGeneral        Intent = "general"
)

// CustomerContext is what the storefront widget knows about the shopper
type CustomerContext struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	ID         string `json:"id,omitempty"`
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
}

// CartContext carries the client-side cart reference
type CartContext struct {
	CartID *string `json:"cartId"`
}

// ID returns the cart id or an empty string
func (c CartContext) ID() string {
	if c.CartID == nil {
		return ""
	}
	return *c.CartID
}

// ToolResult is the payload of one tool adapter call. Error is set instead of
// propagating a failure.
type ToolResult struct {
	Tool  string `json:"tool"`
	Items []any  `json:"items"`
	Error string `json:"error,omitempty"`
}

// Empty reports whether the adapter produced no data
func (r ToolResult) Empty() bool {
	return len(r.Items) == 0
}

// ChatAction is a client-side affordance returned alongside a reply
type ChatAction struct {
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
	URL   string `json:"url,omitempty"`
}

// ConversationTurn lives for a single pipeline invocation and is never persisted
type ConversationTurn struct {
	ID       string
	Shop     string
	Message  string
	Intent   Intent
	Customer CustomerContext
	Cart     CartContext
	Tool     *ToolResult
	Reply    string
	Actions  []ChatAction
}
