package domain

// CartItem is a single cart line referencing one variant. By convention ID
// equals VariantID at creation time.
type CartItem struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Price          float64          `json:"price"`
	CurrencyCode   string           `json:"currencyCode"`
	Quantity       int              `json:"quantity"`
	Image          string           `json:"image"`
	VariantID      string           `json:"variantId"`
	ProductID      string           `json:"productId"`
	Handle         string           `json:"handle"`
	Category       string           `json:"category,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	VariantOptions []SelectedOption `json:"variantOptions,omitempty"`
	CompareAtPrice *Money           `json:"compareAtPrice,omitempty"`
}

// Cart is the full cart payload returned to the client.
type Cart struct {
	Items []CartItem `json:"items"`
	// Open mirrors the storefront drawer: set after an add so the client
	// knows to present the cart.
	Open             bool            `json:"open"`
	TotalItems       int             `json:"totalItems"`
	TotalPrice       float64         `json:"totalPrice"`
	SelectedShipping *ShippingOption `json:"selectedShipping,omitempty"`
	// ShippingGeneration identifies the most recent quote request for this
	// cart; selections carrying an older generation are ignored.
	ShippingGeneration uint64 `json:"shippingGeneration"`
}
