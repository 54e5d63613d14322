package tools

import (
	"context"
	"regexp"
	"strings"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"
)

// ToolRequest is everything a tool adapter may look at for one message
type ToolRequest struct {
	Shop     string
	Message  string
	Customer domain.CustomerContext
	Cart     domain.CartContext
}

// Tool fetches one category of shop data. Run never fails: problems are
// reported in ToolResult.Error with an empty item list.
type Tool interface {
	Name() string
	Run(ctx context.Context, req ToolRequest) domain.ToolResult
}

const errShopNotRegistered = "shop not registered"

func failed(tool string, msg string) domain.ToolResult {
	return domain.ToolResult{Tool: tool, Items: []any{}, Error: msg}
}

// lookupAccount resolves a shop's credentials, turning every miss into a result annotation
func lookupAccount(ctx context.Context, shops ports.ShopRepository, tool, shop string) (*domain.ShopAccount, *domain.ToolResult) {
	account, err := shops.FindByDomain(ctx, shop)
	if err != nil {
		r := failed(tool, "failed to load shop: "+err.Error())
		return nil, &r
	}
	if account == nil || account.Credentials.AccessToken == "" {
		r := failed(tool, errShopNotRegistered)
		return nil, &r
	}
	return account, nil
}

var (
	wordPattern  = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "any": {}, "are": {}, "can": {}, "do": {}, "does": {},
	"for": {}, "have": {}, "i": {}, "i'm": {}, "im": {}, "in": {}, "is": {}, "it": {},
	"looking": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "please": {},
	"show": {}, "some": {}, "the": {}, "to": {}, "want": {}, "what": {}, "with": {},
	"you": {}, "your": {}, "find": {}, "search": {}, "buy": {}, "product": {},
	"products": {}, "need": {}, "would": {}, "like": {}, "there": {}, "got": {},
}

// keywords lower-cases a message and drops filler words
func keywords(message string) []string {
	var out []string
	for _, word := range wordPattern.FindAllString(strings.ToLower(message), -1) {
		word = strings.Trim(word, "'-")
		if len(word) < 2 {
			continue
		}
		if _, skip := stopWords[word]; skip {
			continue
		}
		out = append(out, word)
	}
	return out
}

// plainText strips markup and truncates to max runes
func plainText(html string, max int) string {
	text := strings.TrimSpace(spacePattern.ReplaceAllString(tagPattern.ReplaceAllString(html, " "), " "))
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
