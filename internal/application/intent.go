package application

import (
	"strings"

	"genie-storefront-assistant/internal/domain"
)

type intentRule struct {
	intent   domain.Intent
	keywords []string
}

// intentRules are evaluated in order and the first match wins
var intentRules = []intentRule{
	{
		intent: domain.IntentProductSearch,
		keywords: []string{
			"product", "looking for", "do you have", "search", "find", "show me",
			"buy", "sell", "recommend", "price", "in stock", "available",
		},
	},
	{
		intent: domain.IntentCartInquiry,
		keywords: []string{
			"cart", "checkout", "basket", "my order", "added",
		},
	},
	{
		intent: domain.IntentPolicyQuestion,
		keywords: []string{
			"return", "refund", "shipping", "policy", "exchange", "warranty",
			"privacy", "terms", "delivery",
		},
	},
}

// ClassifyIntent maps a shopper message to an intent by keyword containment
func ClassifyIntent(message string) domain.Intent {
	text := strings.ToLower(message)
	for _, rule := range intentRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.intent
			}
		}
	}
	return domain.IntentGeneral
}
