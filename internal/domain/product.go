package domain

// Money is a Shopify money value: a decimal amount kept as a string to avoid
// float drift on the wire, plus an ISO currency code.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// Image is a product or variant image.
type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// SelectedOption is one name/value pair of a variant, e.g. {Color, Black}.
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Metafield is an arbitrary namespaced key/value attribute attached to a
// product, used for spec sheets and color-swatch hex values.
type Metafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Variant is a purchasable SKU of a product, identified by a combination of
// option values.
type Variant struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Price            Money  `json:"price"`
	CompareAtPrice   *Money `json:"compareAtPrice,omitempty"`
	AvailableForSale bool   `json:"availableForSale"`
	// QuantityAvailable is nil when the store does not expose inventory
	// for this variant. See InStock for how that is interpreted.
	QuantityAvailable *int             `json:"quantityAvailable,omitempty"`
	SelectedOptions   []SelectedOption `json:"selectedOptions"`
	ColorHex          string           `json:"colorHex,omitempty"`
	Images            []Image          `json:"images,omitempty"`
}

// InStock reports whether the variant can be sold. An explicit quantity of
// zero or less is out of stock; an unknown quantity defers to the
// availableForSale flag.
func (v Variant) InStock() bool {
	if v.QuantityAvailable == nil {
		return v.AvailableForSale
	}
	return *v.QuantityAvailable > 0
}

// OptionValue returns the variant's value for the named option axis and
// whether the variant declares that axis at all.
func (v Variant) OptionValue(name string) (string, bool) {
	for _, opt := range v.SelectedOptions {
		if opt.Name == name {
			return opt.Value, true
		}
	}
	return "", false
}

// ProductOption is one option axis of a product (e.g. "Storage") together
// with the distinct values observed across the product's variants.
type ProductOption struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// Product is an immutable catalog snapshot fetched per request.
type Product struct {
	ID              string      `json:"id"`
	Title           string      `json:"title"`
	Handle          string      `json:"handle"`
	Description     string      `json:"description,omitempty"`
	DescriptionHTML string      `json:"descriptionHtml,omitempty"`
	ProductType     string      `json:"productType,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	MinPrice        Money       `json:"minPrice"`
	Images          []Image     `json:"images,omitempty"`
	Variants        []Variant   `json:"variants,omitempty"`
	Metafields      []Metafield `json:"metafields,omitempty"`
}

// Collection is a named group of products identified by a URL handle.
type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Handle      string `json:"handle"`
	Description string `json:"description,omitempty"`
	Image       *Image `json:"image,omitempty"`
}

// PageInfo carries the opaque cursors of a paginated catalog response.
type PageInfo struct {
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

// ProductPage is one page of products plus its cursors.
type ProductPage struct {
	Products []Product `json:"products"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// CollectionPage is a collection together with one page of its products.
type CollectionPage struct {
	Collection Collection `json:"collection"`
	Products   []Product  `json:"products"`
	PageInfo   PageInfo   `json:"pageInfo"`
}
