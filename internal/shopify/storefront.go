package shopify

import (
	"context"
	"errors"
	"fmt"

	"shopmi-api/internal/domain"

	"go.uber.org/zap"
)

// ErrNotFound marks a product or collection handle that the store does not
// know. It is an empty state, not a failure.
var ErrNotFound = errors.New("not found")

// DefaultPageSize is the fixed page size for catalog listings.
const DefaultPageSize = 12

// PageArgs selects one page of a cursor-paginated connection. A request is
// backward iff both Last and Before are set; the pairs are mutually
// exclusive and normalize resolves any conflict in favor of the backward
// pair, mirroring how the UI resets the opposite direction.
type PageArgs struct {
	First  int
	After  string
	Last   int
	Before string
}

func (p PageArgs) normalize() PageArgs {
	if p.Last > 0 && p.Before != "" {
		return PageArgs{Last: p.Last, Before: p.Before}
	}
	if p.First <= 0 {
		p.First = DefaultPageSize
	}
	return PageArgs{First: p.First, After: p.After}
}

func (p PageArgs) backward() bool {
	return p.Last > 0 && p.Before != ""
}

// SortArgs is the Storefront API's (sortKey, reverse) pair.
type SortArgs struct {
	Key     string
	Reverse bool
}

// PriceFilter restricts a collection page to a price window. Nil bounds are
// open-ended.
type PriceFilter struct {
	Min *float64
	Max *float64
}

// Storefront wraps the public Storefront API operations.
type Storefront struct {
	client *Client
	logger *zap.Logger
}

func NewStorefront(client *Client, logger *zap.Logger) *Storefront {
	return &Storefront{client: client, logger: logger}
}

// --- wire shapes (edges/node/pageInfo) ---

type moneyNode struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

type imageNode struct {
	OriginalSrc string  `json:"originalSrc"`
	AltText     *string `json:"altText"`
}

type imagesConnection struct {
	Edges []struct {
		Node imageNode `json:"node"`
	} `json:"edges"`
}

type selectedOptionNode struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type variantNode struct {
	ID                string               `json:"id"`
	Title             string               `json:"title"`
	Price             moneyNode            `json:"price"`
	CompareAtPrice    *moneyNode           `json:"compareAtPrice"`
	AvailableForSale  bool                 `json:"availableForSale"`
	QuantityAvailable *int                 `json:"quantityAvailable"`
	SelectedOptions   []selectedOptionNode `json:"selectedOptions"`
	Metafield         *struct {
		Value string `json:"value"`
	} `json:"metafield"`
	MediaVariant *struct {
		References struct {
			Nodes []struct {
				Image imageNode `json:"image"`
			} `json:"nodes"`
		} `json:"references"`
	} `json:"mediavariant"`
}

type metafieldNode struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

type productNode struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Handle          string   `json:"handle"`
	Description     string   `json:"description"`
	DescriptionHTML string   `json:"descriptionHtml"`
	ProductType     string   `json:"productType"`
	Tags            []string `json:"tags"`
	PriceRange      struct {
		MinVariantPrice moneyNode `json:"minVariantPrice"`
	} `json:"priceRange"`
	Images   imagesConnection `json:"images"`
	Variants *struct {
		Edges []struct {
			Node variantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
	Metafields []*metafieldNode `json:"metafields"`
}

type pageInfoNode struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type productsConnection struct {
	Edges []struct {
		Node productNode `json:"node"`
	} `json:"edges"`
	PageInfo pageInfoNode `json:"pageInfo"`
}

type collectionNode struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Handle      string              `json:"handle"`
	Description string              `json:"description"`
	Image       *imageNode          `json:"image"`
	Products    *productsConnection `json:"products"`
}

// --- mapping to the domain model ---

func mapImage(n imageNode) domain.Image {
	alt := ""
	if n.AltText != nil {
		alt = *n.AltText
	}
	return domain.Image{Src: n.OriginalSrc, Alt: alt}
}

func mapMoney(n moneyNode) domain.Money {
	return domain.Money{Amount: n.Amount, CurrencyCode: n.CurrencyCode}
}

func mapVariant(n variantNode) domain.Variant {
	v := domain.Variant{
		ID:                n.ID,
		Title:             n.Title,
		Price:             mapMoney(n.Price),
		AvailableForSale:  n.AvailableForSale,
		QuantityAvailable: n.QuantityAvailable,
	}
	if n.CompareAtPrice != nil {
		cap := mapMoney(*n.CompareAtPrice)
		v.CompareAtPrice = &cap
	}
	for _, opt := range n.SelectedOptions {
		v.SelectedOptions = append(v.SelectedOptions, domain.SelectedOption{Name: opt.Name, Value: opt.Value})
	}
	if n.Metafield != nil {
		v.ColorHex = n.Metafield.Value
	}
	if n.MediaVariant != nil {
		for _, node := range n.MediaVariant.References.Nodes {
			v.Images = append(v.Images, mapImage(node.Image))
		}
	}
	return v
}

func mapProduct(n productNode) domain.Product {
	p := domain.Product{
		ID:              n.ID,
		Title:           n.Title,
		Handle:          n.Handle,
		Description:     n.Description,
		DescriptionHTML: n.DescriptionHTML,
		ProductType:     n.ProductType,
		Tags:            n.Tags,
		MinPrice:        mapMoney(n.PriceRange.MinVariantPrice),
	}
	for _, edge := range n.Images.Edges {
		p.Images = append(p.Images, mapImage(edge.Node))
	}
	if n.Variants != nil {
		for _, edge := range n.Variants.Edges {
			p.Variants = append(p.Variants, mapVariant(edge.Node))
		}
	}
	for _, mf := range n.Metafields {
		// Unresolved identifiers come back as explicit nulls.
		if mf == nil {
			continue
		}
		p.Metafields = append(p.Metafields, domain.Metafield{
			Namespace: mf.Namespace,
			Key:       mf.Key,
			Value:     mf.Value,
		})
	}
	return p
}

func mapPageInfo(n pageInfoNode) domain.PageInfo {
	pi := domain.PageInfo{
		HasNextPage:     n.HasNextPage,
		HasPreviousPage: n.HasPreviousPage,
	}
	if n.StartCursor != nil {
		pi.StartCursor = *n.StartCursor
	}
	if n.EndCursor != nil {
		pi.EndCursor = *n.EndCursor
	}
	return pi
}

func mapProductPage(conn productsConnection) *domain.ProductPage {
	page := &domain.ProductPage{PageInfo: mapPageInfo(conn.PageInfo)}
	for _, edge := range conn.Edges {
		page.Products = append(page.Products, mapProduct(edge.Node))
	}
	return page
}

// paginationArgs returns the variable declarations and connection arguments
// for one direction of cursor pagination, plus the bound variables.
func paginationArgs(page PageArgs, vars map[string]interface{}) (defs, args string) {
	page = page.normalize()
	if page.backward() {
		vars["last"] = page.Last
		vars["before"] = page.Before
		return "$last: Int!, $before: String", "last: $last, before: $before"
	}
	vars["first"] = page.First
	if page.After != "" {
		vars["after"] = page.After
	}
	return "$first: Int!, $after: String", "first: $first, after: $after"
}

const productSummaryFields = `
	id
	title
	handle
	description
	priceRange {
		minVariantPrice {
			amount
			currencyCode
		}
	}
	images(first: 1) {
		edges {
			node {
				originalSrc
				altText
			}
		}
	}`

// Products returns one page of the store's full product list.
func (s *Storefront) Products(ctx context.Context, page PageArgs) (*domain.ProductPage, error) {
	vars := map[string]interface{}{}
	defs, args := paginationArgs(page, vars)

	query := fmt.Sprintf(`
		query GetProducts(%s) {
			products(%s) {
				edges {
					node {%s
					}
				}
				pageInfo {
					hasNextPage
					endCursor
					hasPreviousPage
					startCursor
				}
			}
		}`, defs, args, productSummaryFields)

	var resp struct {
		Products productsConnection `json:"products"`
	}
	if err := s.client.Do(ctx, query, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return mapProductPage(resp.Products), nil
}

// productDetailMetafields is the fixed identifier list fetched for product
// detail pages: spec-sheet values plus the mobile HTML block.
const productDetailMetafields = `metafields(identifiers: [
	{namespace: "custom", key: "tela"},
	{namespace: "custom", key: "sistema_operacional"},
	{namespace: "custom", key: "sensores"},
	{namespace: "custom", key: "rede_bandas"},
	{namespace: "custom", key: "processador"},
	{namespace: "custom", key: "memoria"},
	{namespace: "custom", key: "garantia"},
	{namespace: "custom", key: "dimensoes"},
	{namespace: "custom", key: "conteudo_embalagem"},
	{namespace: "custom", key: "conectividade"},
	{namespace: "custom", key: "camera"},
	{namespace: "custom", key: "bateria"},
	{namespace: "custom", key: "audio_video"},
	{namespace: "custom", key: "html_mobile"}
]) {
	namespace
	key
	value
}`

// ProductByHandle fetches the full detail snapshot for one product,
// including variants, their color metafields and variant media. Returns
// ErrNotFound for unknown handles.
func (s *Storefront) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	query := fmt.Sprintf(`
		query GetProductByHandle($handle: String!) {
			productByHandle(handle: $handle) {
				id
				title
				handle
				description
				descriptionHtml
				productType
				tags
				priceRange {
					minVariantPrice {
						amount
						currencyCode
					}
				}
				images(first: 5) {
					edges {
						node {
							originalSrc
							altText
						}
					}
				}
				variants(first: 50) {
					edges {
						node {
							id
							title
							price {
								amount
								currencyCode
							}
							compareAtPrice {
								amount
								currencyCode
							}
							availableForSale
							quantityAvailable
							selectedOptions {
								name
								value
							}
							metafield(namespace: "custom", key: "cor") {
								value
							}
							mediavariant: metafield(namespace: "custom", key: "mediavariant") {
								references(first: 20) {
									nodes {
										... on MediaImage {
											image {
												originalSrc
												altText
											}
										}
									}
								}
							}
						}
					}
				}
				%s
			}
		}`, productDetailMetafields)

	var resp struct {
		ProductByHandle *productNode `json:"productByHandle"`
	}
	if err := s.client.Do(ctx, query, map[string]interface{}{"handle": handle}, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch product %q: %w", handle, err)
	}
	if resp.ProductByHandle == nil {
		return nil, ErrNotFound
	}
	product := mapProduct(*resp.ProductByHandle)
	return &product, nil
}

// Collections lists every collection of the store.
func (s *Storefront) Collections(ctx context.Context) ([]domain.Collection, error) {
	query := `
		query GetCollections {
			collections(first: 250) {
				edges {
					node {
						id
						title
						handle
						description
						image {
							originalSrc
							altText
						}
					}
				}
			}
		}`

	var resp struct {
		Collections struct {
			Edges []struct {
				Node collectionNode `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	}
	if err := s.client.Do(ctx, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch collections: %w", err)
	}

	collections := make([]domain.Collection, 0, len(resp.Collections.Edges))
	for _, edge := range resp.Collections.Edges {
		collections = append(collections, mapCollection(edge.Node))
	}
	return collections, nil
}

func mapCollection(n collectionNode) domain.Collection {
	c := domain.Collection{
		ID:          n.ID,
		Title:       n.Title,
		Handle:      n.Handle,
		Description: n.Description,
	}
	if n.Image != nil {
		img := mapImage(*n.Image)
		c.Image = &img
	}
	return c
}

// CollectionProducts returns one sorted, optionally price-filtered page of a
// collection's products. Returns ErrNotFound for unknown handles.
func (s *Storefront) CollectionProducts(ctx context.Context, handle string, page PageArgs, sort SortArgs, filter *PriceFilter) (*domain.CollectionPage, error) {
	vars := map[string]interface{}{"handle": handle}
	defs, args := paginationArgs(page, vars)

	defs = "$handle: String!, " + defs
	if sort.Key != "" {
		defs += ", $sortKey: ProductCollectionSortKeys, $reverse: Boolean"
		args += ", sortKey: $sortKey, reverse: $reverse"
		vars["sortKey"] = sort.Key
		vars["reverse"] = sort.Reverse
	}
	if filter != nil {
		defs += ", $filters: [ProductFilter!]"
		args += ", filters: $filters"
		price := map[string]interface{}{}
		if filter.Min != nil {
			price["min"] = *filter.Min
		}
		if filter.Max != nil {
			price["max"] = *filter.Max
		}
		vars["filters"] = []interface{}{map[string]interface{}{"price": price}}
	}

	query := fmt.Sprintf(`
		query GetProductsByCollection(%s) {
			collectionByHandle(handle: $handle) {
				id
				title
				handle
				description
				image {
					originalSrc
					altText
				}
				products(%s) {
					edges {
						node {%s
						}
					}
					pageInfo {
						hasNextPage
						endCursor
						hasPreviousPage
						startCursor
					}
				}
			}
		}`, defs, args, productSummaryFields)

	var resp struct {
		CollectionByHandle *collectionNode `json:"collectionByHandle"`
	}
	if err := s.client.Do(ctx, query, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch collection %q: %w", handle, err)
	}
	if resp.CollectionByHandle == nil {
		return nil, ErrNotFound
	}

	result := &domain.CollectionPage{Collection: mapCollection(*resp.CollectionByHandle)}
	if resp.CollectionByHandle.Products != nil {
		productPage := mapProductPage(*resp.CollectionByHandle.Products)
		result.Products = productPage.Products
		result.PageInfo = productPage.PageInfo
	}
	return result, nil
}

// Search returns one page of products matching a free-text query.
func (s *Storefront) Search(ctx context.Context, text string, page PageArgs) (*domain.ProductPage, error) {
	vars := map[string]interface{}{"queryText": text}
	defs, args := paginationArgs(page, vars)

	query := fmt.Sprintf(`
		query SearchProducts($queryText: String!, %s) {
			products(query: $queryText, %s) {
				edges {
					node {%s
					}
				}
				pageInfo {
					hasNextPage
					endCursor
					hasPreviousPage
					startCursor
				}
			}
		}`, defs, args, productSummaryFields)

	var resp struct {
		Products productsConnection `json:"products"`
	}
	if err := s.client.Do(ctx, query, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return mapProductPage(resp.Products), nil
}
