// Package portstest provides in-memory implementations of the ports for tests
package portstest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	shopify "github.com/bold-commerce/go-shopify/v4"

	"genie-storefront-assistant/internal/domain"
	"genie-storefront-assistant/internal/ports"
)

// ShopRepository keeps accounts in a map
type ShopRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.ShopAccount
	Err      error
}

func NewShopRepository(accounts ...*domain.ShopAccount) *ShopRepository {
	r := &ShopRepository{accounts: map[string]*domain.ShopAccount{}}
	for _, a := range accounts {
		r.accounts[a.Domain] = a
	}
	return r
}

func (r *ShopRepository) FindByDomain(_ context.Context, shopDomain string) (*domain.ShopAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	a, ok := r.accounts[shopDomain]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *ShopRepository) Upsert(_ context.Context, account *domain.ShopAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	c := *account
	if existing, ok := r.accounts[account.Domain]; ok {
		c.Widget = existing.Widget
	}
	r.accounts[account.Domain] = &c
	return nil
}

func (r *ShopRepository) UpdateWidgetState(_ context.Context, shopDomain string, state domain.WidgetState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[shopDomain]; ok {
		a.Widget = state
	}
	return nil
}

func (r *ShopRepository) UpdateProvisioningError(_ context.Context, shopDomain string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[shopDomain]; ok {
		a.Widget.LastError = message
	}
	return nil
}

func (r *ShopRepository) UpdateStorefrontToken(_ context.Context, shopDomain string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[shopDomain]
	if !ok {
		return domain.NewNotFoundError("shop", shopDomain)
	}
	a.Credentials.StorefrontAccessToken = token
	return nil
}

func (r *ShopRepository) UpdateCustomerAccount(_ context.Context, shopDomain string, creds domain.CustomerAccountCredentials) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[shopDomain]
	if !ok {
		return domain.NewNotFoundError("shop", shopDomain)
	}
	a.CustomerAccount = &creds
	return nil
}

// Get returns the stored account without copying, or nil
func (r *ShopRepository) Get(shopDomain string) *domain.ShopAccount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[shopDomain]
}

// WidgetRepository keeps one installation per shop
type WidgetRepository struct {
	mu    sync.Mutex
	items map[string]domain.WidgetInstallation
	Saves int
}

func NewWidgetRepository() *WidgetRepository {
	return &WidgetRepository{items: map[string]domain.WidgetInstallation{}}
}

func (r *WidgetRepository) FindByDomain(_ context.Context, shopDomain string) (*domain.WidgetInstallation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[shopDomain]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *WidgetRepository) Save(_ context.Context, installation *domain.WidgetInstallation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[installation.ShopDomain] = *installation
	r.Saves++
	return nil
}

// CustomerRepository keeps sessions keyed by shop and email
type CustomerRepository struct {
	mu       sync.Mutex
	Sessions map[string]domain.CustomerSession
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{Sessions: map[string]domain.CustomerSession{}}
}

func (r *CustomerRepository) Upsert(_ context.Context, session *domain.CustomerSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sessions[session.ShopDomain+"|"+session.Email] = *session
	return nil
}

func (r *CustomerRepository) DeleteByShop(_ context.Context, shopDomain string, email string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, s := range r.Sessions {
		if s.ShopDomain != shopDomain {
			continue
		}
		if email != "" && s.Email != email {
			continue
		}
		delete(r.Sessions, key)
		n++
	}
	return n, nil
}

// Shopify is a scriptable ShopifyClient. Script tags and theme assets are
// kept in memory; the *Err fields force failures.
type Shopify struct {
	mu sync.Mutex

	Grant         *domain.TokenGrant
	ExchangeErr   error
	CallbackValid bool
	WebhookValid  bool

	Shop      *shopify.Shop
	Products  []shopify.Product
	Customers []shopify.Customer
	Orders    []shopify.Order
	ShopErr   error

	Tags      []ports.ScriptTagRef
	CreateErr error
	DeleteErr error
	Deleted   []int64
	Creates   int

	Themes      []ports.ThemeRef
	Assets      map[string]string
	AssetWrites int
	WriteErr    error

	// Admin GraphQL results; GraphQLErr fails every GraphQL operation
	SearchResults   []ports.ProductSummary
	Searches        []string
	Policies        []ports.ShopPolicy
	StorefrontToken string
	TokenTitles     []string
	GraphQLErr      error

	nextID int64
}

func NewShopify() *Shopify {
	return &Shopify{Assets: map[string]string{}, nextID: 1000}
}

func assetKey(themeID int64, key string) string {
	return fmt.Sprintf("%d/%s", themeID, key)
}

// SetAsset seeds a theme asset
func (s *Shopify) SetAsset(themeID int64, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Assets[assetKey(themeID, key)] = value
}

// Asset returns a theme asset
func (s *Shopify) Asset(themeID int64, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Assets[assetKey(themeID, key)]
}

func (s *Shopify) ExchangeToken(_ context.Context, _ string, _ string) (*domain.TokenGrant, error) {
	if s.ExchangeErr != nil {
		return nil, s.ExchangeErr
	}
	return s.Grant, nil
}

func (s *Shopify) VerifyCallback(map[string][]string) (bool, error) { return s.CallbackValid, nil }

func (s *Shopify) VerifyWebhook(*http.Request) bool { return s.WebhookValid }

func (s *Shopify) GetShop(context.Context, string, string) (*shopify.Shop, error) {
	return s.Shop, s.ShopErr
}

func (s *Shopify) GetProducts(context.Context, string, string, interface{}) ([]shopify.Product, error) {
	return s.Products, nil
}

func (s *Shopify) GetCustomers(context.Context, string, string, interface{}) ([]shopify.Customer, error) {
	return s.Customers, nil
}

func (s *Shopify) GetOrders(context.Context, string, string, interface{}) ([]shopify.Order, error) {
	return s.Orders, nil
}

func (s *Shopify) ListScriptTags(context.Context, string, string) ([]ports.ScriptTagRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ScriptTagRef(nil), s.Tags...), nil
}

func (s *Shopify) CreateScriptTag(_ context.Context, _ string, _ string, src string) (*ports.ScriptTagRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	s.nextID++
	s.Creates++
	tag := ports.ScriptTagRef{ID: s.nextID, Src: src}
	s.Tags = append(s.Tags, tag)
	return &tag, nil
}

func (s *Shopify) DeleteScriptTag(_ context.Context, _ string, _ string, scriptTagID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.Deleted = append(s.Deleted, scriptTagID)
	kept := s.Tags[:0]
	for _, t := range s.Tags {
		if t.ID != scriptTagID {
			kept = append(kept, t)
		}
	}
	s.Tags = kept
	return nil
}

func (s *Shopify) ListThemes(context.Context, string, string) ([]ports.ThemeRef, error) {
	return s.Themes, nil
}

func (s *Shopify) GetAsset(_ context.Context, _ string, _ string, themeID int64, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.Assets[assetKey(themeID, key)]
	if !ok {
		return "", fmt.Errorf("asset %s not found", key)
	}
	return v, nil
}

func (s *Shopify) UpdateAsset(_ context.Context, _ string, _ string, themeID int64, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.AssetWrites++
	s.Assets[assetKey(themeID, key)] = value
	return nil
}

func (s *Shopify) SearchProducts(_ context.Context, _ string, _ string, query string) ([]ports.ProductSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Searches = append(s.Searches, query)
	if s.GraphQLErr != nil {
		return nil, s.GraphQLErr
	}
	return s.SearchResults, nil
}

func (s *Shopify) ShopPolicies(context.Context, string, string) ([]ports.ShopPolicy, error) {
	if s.GraphQLErr != nil {
		return nil, s.GraphQLErr
	}
	return s.Policies, nil
}

func (s *Shopify) CreateStorefrontAccessToken(_ context.Context, _ string, _ string, title string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TokenTitles = append(s.TokenTitles, title)
	if s.GraphQLErr != nil {
		return "", s.GraphQLErr
	}
	return s.StorefrontToken, nil
}

// Storefront returns a fixed cart
type Storefront struct {
	Cart  *domain.Cart
	Err   error
	Calls int
}

func (s *Storefront) GetCart(context.Context, string, string, string) (*domain.Cart, error) {
	s.Calls++
	return s.Cart, s.Err
}

// Completion returns Text or Err and records the last request
type Completion struct {
	Text     string
	Err      error
	Block    bool
	Requests []ports.CompletionRequest
}

func (c *Completion) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	c.Requests = append(c.Requests, req)
	if c.Block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return c.Text, c.Err
}

var (
	_ ports.ShopRepository               = (*ShopRepository)(nil)
	_ ports.WidgetInstallationRepository = (*WidgetRepository)(nil)
	_ ports.CustomerRepository           = (*CustomerRepository)(nil)
	_ ports.ShopifyClient                = (*Shopify)(nil)
	_ ports.StorefrontClient             = (*Storefront)(nil)
	_ ports.CompletionClient             = (*Completion)(nil)
)
