package application

import (
	"testing"

	"genie-storefront-assistant/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		message string
		want    domain.Intent
	}{
		{"Do you have blue shoes?", domain.IntentProductSearch},
		{"I'm LOOKING FOR a winter coat", domain.IntentProductSearch},
		{"What's the price of the red mug?", domain.IntentProductSearch},
		{"What's in my cart?", domain.IntentCartInquiry},
		{"Where is my order", domain.IntentCartInquiry},
		{"What is your refund policy?", domain.IntentPolicyQuestion},
		{"How long does delivery take?", domain.IntentPolicyQuestion},
		// product keywords win over policy keywords
		{"Can I return this product?", domain.IntentProductSearch},
		// cart keywords win over policy keywords
		{"Can I get shipping on my cart?", domain.IntentCartInquiry},
		{"Hello!", domain.IntentGeneral},
		{"", domain.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIntent(tt.message))
		})
	}
}
