package domain

// ShippingCompany identifies the carrier behind a shipping option.
type ShippingCompany struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Logo string `json:"picture,omitempty"`
}

// ShippingOption is one selectable rate returned by the carrier API. Price is
// kept as the carrier's decimal string.
type ShippingOption struct {
	ID           int              `json:"id"`
	Name         string           `json:"name"`
	Price        string           `json:"price"`
	Currency     string           `json:"currency,omitempty"`
	DeliveryTime int              `json:"delivery_time,omitempty"`
	DeliveryMin  int              `json:"delivery_min,omitempty"`
	DeliveryMax  int              `json:"delivery_max,omitempty"`
	Company      *ShippingCompany `json:"company,omitempty"`
}
