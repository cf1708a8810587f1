package shopify

import (
	"context"
	"encoding/json"
	"fmt"

	"shopmi-api/internal/domain"

	"go.uber.org/zap"
)

// Admin wraps the privileged Admin API mutations used by the back office.
type Admin struct {
	client *Client
	logger *zap.Logger
}

func NewAdmin(client *Client, logger *zap.Logger) *Admin {
	return &Admin{client: client, logger: logger}
}

// Ready reports whether the admin client was configured with a token.
func (a *Admin) Ready() bool {
	return a.client != nil
}

// ProductCreateInput is the payload accepted by CreateProduct.
type ProductCreateInput struct {
	Title           string               `json:"title" validate:"required"`
	DescriptionHTML string               `json:"descriptionHtml,omitempty"`
	ProductType     string               `json:"productType,omitempty"`
	Vendor          string               `json:"vendor,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
	Images          []ImageInput         `json:"images,omitempty"`
	Variants        []VariantCreateInput `json:"variants,omitempty"`
}

type ImageInput struct {
	Src     string `json:"src" validate:"required"`
	AltText string `json:"altText,omitempty"`
}

type VariantCreateInput struct {
	Price             string `json:"price" validate:"required"`
	CompareAtPrice    string `json:"compareAtPrice,omitempty"`
	SKU               string `json:"sku,omitempty"`
	InventoryQuantity int    `json:"inventoryQuantity,omitempty"`
}

// UserErrorsError carries the userErrors list of an admin mutation.
type UserErrorsError struct {
	Operation string
	Errors    []userError
}

type userError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

func (e *UserErrorsError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("%s failed", e.Operation)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Errors[0].Message)
}

// CreateProduct runs the productCreate mutation and returns the created
// product as raw JSON for pass-through to the caller.
func (a *Admin) CreateProduct(ctx context.Context, input ProductCreateInput) (json.RawMessage, error) {
	const mutation = `
		mutation productCreate($input: ProductInput!) {
			productCreate(input: $input) {
				product {
					id
					title
					handle
					descriptionHtml
					productType
					vendor
					tags
					variants(first: 10) {
						edges {
							node {
								id
								title
								price
								compareAtPrice
								sku
								inventoryQuantity
							}
						}
					}
					images(first: 10) {
						edges {
							node {
								id
								src
								altText
							}
						}
					}
				}
				userErrors {
					field
					message
				}
			}
		}`

	images := make([]map[string]interface{}, 0, len(input.Images))
	for _, img := range input.Images {
		alt := img.AltText
		if alt == "" {
			alt = input.Title
		}
		images = append(images, map[string]interface{}{"src": img.Src, "altText": alt})
	}

	variants := make([]map[string]interface{}, 0, len(input.Variants))
	for _, v := range input.Variants {
		variant := map[string]interface{}{
			"price":             v.Price,
			"inventoryQuantity": v.InventoryQuantity,
		}
		if v.CompareAtPrice != "" {
			variant["compareAtPrice"] = v.CompareAtPrice
		}
		if v.SKU != "" {
			variant["sku"] = v.SKU
		}
		variants = append(variants, variant)
	}
	if len(variants) == 0 {
		// The API requires at least one variant.
		variants = append(variants, map[string]interface{}{"price": "0.00"})
	}

	vars := map[string]interface{}{
		"input": map[string]interface{}{
			"title":           input.Title,
			"descriptionHtml": input.DescriptionHTML,
			"productType":     input.ProductType,
			"vendor":          input.Vendor,
			"tags":            input.Tags,
			"images":          images,
			"variants":        variants,
		},
	}

	var resp struct {
		ProductCreate struct {
			Product    json.RawMessage `json:"product"`
			UserErrors []userError     `json:"userErrors"`
		} `json:"productCreate"`
	}
	if err := a.client.Do(ctx, mutation, vars, &resp); err != nil {
		return nil, fmt.Errorf("productCreate failed: %w", err)
	}
	if len(resp.ProductCreate.UserErrors) > 0 {
		a.logger.Error("productCreate returned user errors",
			zap.Any("userErrors", resp.ProductCreate.UserErrors),
		)
		return nil, &UserErrorsError{Operation: "productCreate", Errors: resp.ProductCreate.UserErrors}
	}
	return resp.ProductCreate.Product, nil
}

// CollectionCreateInput is the payload accepted by CreateCollection.
type CollectionCreateInput struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// CreateCollection runs the collectionCreate mutation.
func (a *Admin) CreateCollection(ctx context.Context, input CollectionCreateInput) (json.RawMessage, error) {
	const mutation = `
		mutation collectionCreate($input: CollectionInput!) {
			collectionCreate(input: $input) {
				collection {
					id
					title
					handle
					descriptionHtml
					image {
						id
						src
						altText
					}
				}
				userErrors {
					field
					message
				}
			}
		}`

	in := map[string]interface{}{
		"title":           input.Title,
		"descriptionHtml": input.Description,
	}
	if input.Image != "" {
		in["image"] = map[string]interface{}{"src": input.Image, "altText": input.Title}
	}

	var resp struct {
		CollectionCreate struct {
			Collection json.RawMessage `json:"collection"`
			UserErrors []userError     `json:"userErrors"`
		} `json:"collectionCreate"`
	}
	if err := a.client.Do(ctx, mutation, map[string]interface{}{"input": in}, &resp); err != nil {
		return nil, fmt.Errorf("collectionCreate failed: %w", err)
	}
	if len(resp.CollectionCreate.UserErrors) > 0 {
		a.logger.Error("collectionCreate returned user errors",
			zap.Any("userErrors", resp.CollectionCreate.UserErrors),
		)
		return nil, &UserErrorsError{Operation: "collectionCreate", Errors: resp.CollectionCreate.UserErrors}
	}
	return resp.CollectionCreate.Collection, nil
}

// MenuCollection is one entry of the storefront navigation menu: a collection
// flagged as a main collection, with its subcollection list already parsed.
type MenuCollection struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Handle          string          `json:"handle"`
	DescriptionHTML string          `json:"descriptionHtml,omitempty"`
	Image           *domain.Image   `json:"image,omitempty"`
	Subcollections  []Subcollection `json:"subcollections"`
}

// Subcollection is one child entry of a main collection's menu metafield.
type Subcollection struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Handle string `json:"handle,omitempty"`
}

// Collections builds the navigation menu from the store's collections. Only
// collections whose custom/main_collection metafield is "true" are included;
// each one's custom/subcollections metafield is a JSON array parsed here so
// the client never sees the raw metafields. A malformed subcollections value
// degrades that collection to an empty submenu instead of failing the menu.
func (a *Admin) Collections(ctx context.Context) ([]MenuCollection, error) {
	const query = `
		query GetCollections {
			collections(first: 50) {
				edges {
					node {
						id
						title
						handle
						descriptionHtml
						image {
							src
							altText
						}
						subcollections: metafield(namespace: "custom", key: "subcollections") {
							value
						}
						mainCollection: metafield(namespace: "custom", key: "main_collection") {
							value
						}
					}
				}
			}
		}`

	var resp struct {
		Collections struct {
			Edges []struct {
				Node struct {
					ID              string `json:"id"`
					Title           string `json:"title"`
					Handle          string `json:"handle"`
					DescriptionHTML string `json:"descriptionHtml"`
					Image           *struct {
						Src     string `json:"src"`
						AltText string `json:"altText"`
					} `json:"image"`
					Subcollections *struct {
						Value string `json:"value"`
					} `json:"subcollections"`
					MainCollection *struct {
						Value string `json:"value"`
					} `json:"mainCollection"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"collections"`
	}
	if err := a.client.Do(ctx, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch admin collections: %w", err)
	}

	menu := make([]MenuCollection, 0, len(resp.Collections.Edges))
	for _, edge := range resp.Collections.Edges {
		node := edge.Node
		if node.MainCollection == nil || node.MainCollection.Value != "true" {
			continue
		}

		entry := MenuCollection{
			ID:              node.ID,
			Title:           node.Title,
			Handle:          node.Handle,
			DescriptionHTML: node.DescriptionHTML,
			Subcollections:  []Subcollection{},
		}
		if node.Image != nil {
			entry.Image = &domain.Image{Src: node.Image.Src, Alt: node.Image.AltText}
		}
		if node.Subcollections != nil && node.Subcollections.Value != "" {
			entry.Subcollections = a.parseSubcollections(node.Title, node.Subcollections.Value)
		}
		menu = append(menu, entry)
	}
	return menu, nil
}

// parseSubcollections decodes one subcollections metafield. Entries without an
// id are dropped; an unparseable value yields an empty list.
func (a *Admin) parseSubcollections(collectionTitle, value string) []Subcollection {
	var parsed []Subcollection
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		a.logger.Error("Failed to parse subcollections metafield",
			zap.String("collection", collectionTitle),
			zap.Error(err),
		)
		return []Subcollection{}
	}

	subcollections := make([]Subcollection, 0, len(parsed))
	for _, sub := range parsed {
		if sub.ID == "" {
			continue
		}
		subcollections = append(subcollections, sub)
	}
	return subcollections
}

// Proxy forwards an arbitrary GraphQL document to the Admin API and returns
// the raw data payload. Backs the admin test console only.
func (a *Admin) Proxy(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	if a.client == nil {
		return nil, ErrClientNotInitialized
	}
	return a.client.DoRaw(ctx, query, variables)
}
