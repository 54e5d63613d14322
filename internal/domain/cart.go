package domain

// Cart is the storefront cart as seen by the assistant
type Cart struct {
	ID            string     `json:"id"`
	CheckoutURL   string     `json:"checkoutUrl,omitempty"`
	TotalQuantity int        `json:"totalQuantity"`
	Subtotal      string     `json:"subtotal,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	Lines         []CartLine `json:"lines"`
}

// CartLine is one merchandise line of a cart
type CartLine struct {
	Title    string `json:"title"`
	Variant  string `json:"variant,omitempty"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price,omitempty"`
}
