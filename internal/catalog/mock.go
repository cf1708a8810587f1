package catalog

import (
	"context"
	"fmt"
	"strings"

	"shopmi-api/internal/domain"
	"shopmi-api/internal/shopify"
)

// MockProvider serves a small placeholder dataset. It exists for development
// and tests only and is wired solely through explicit configuration; the
// production catalog path never falls back to it.
type MockProvider struct {
	products    []domain.Product
	collections []domain.Collection
}

func intp(v int) *int { return &v }

// NewMockProvider builds the placeholder dataset.
func NewMockProvider() *MockProvider {
	m := &MockProvider{}

	for i := 0; i < 10; i++ {
		handle := fmt.Sprintf("xiaomi-smartphone-%d", i+1)
		price := fmt.Sprintf("%d", 999+i*100)
		product := domain.Product{
			ID:          fmt.Sprintf("gid://shopify/Product/%d", i+1),
			Title:       fmt.Sprintf("Xiaomi Smartphone %d", i+1),
			Handle:      handle,
			Description: "Este é um smartphone Xiaomi de alta qualidade com excelentes recursos e desempenho.",
			ProductType: "Smartphone",
			MinPrice:    domain.Money{Amount: price, CurrencyCode: "BRL"},
			Images: []domain.Image{{
				Src: "https://placehold.co/600x400?text=Xiaomi+Smartphone",
				Alt: fmt.Sprintf("Xiaomi Smartphone %d", i+1),
			}},
		}
		// A small variant matrix so product pages exercise selection.
		for vi, color := range []string{"Preto", "Branco"} {
			for si, storage := range []string{"128GB", "256GB"} {
				qty := 5
				if vi == 1 && si == 1 {
					qty = 0
				}
				product.Variants = append(product.Variants, domain.Variant{
					ID:                fmt.Sprintf("gid://shopify/ProductVariant/%d%d%d", i+1, vi, si),
					Title:             color + " / " + storage,
					Price:             domain.Money{Amount: price, CurrencyCode: "BRL"},
					AvailableForSale:  qty > 0,
					QuantityAvailable: intp(qty),
					SelectedOptions: []domain.SelectedOption{
						{Name: "Cor", Value: color},
						{Name: "Armazenamento", Value: storage},
					},
				})
			}
		}
		m.products = append(m.products, product)
	}

	m.collections = []domain.Collection{
		{
			ID: "gid://shopify/Collection/1", Title: "Smartphones", Handle: "smartphones",
			Description: "Nossa coleção de smartphones Xiaomi",
			Image:       &domain.Image{Src: "https://placehold.co/600x400?text=Smartphones", Alt: "Smartphones"},
		},
		{
			ID: "gid://shopify/Collection/2", Title: "Acessórios", Handle: "acessorios",
			Description: "Acessórios para seus dispositivos Xiaomi",
			Image:       &domain.Image{Src: "https://placehold.co/600x400?text=Acessorios", Alt: "Acessórios"},
		},
		{
			ID: "gid://shopify/Collection/3", Title: "Casa Inteligente", Handle: "casa-inteligente",
			Description: "Produtos Xiaomi para sua casa inteligente",
			Image:       &domain.Image{Src: "https://placehold.co/600x400?text=Casa+Inteligente", Alt: "Casa Inteligente"},
		},
	}

	return m
}

// paginate slices the dataset using product IDs as cursors.
func paginate(products []domain.Product, page shopify.PageArgs) *domain.ProductPage {
	size := page.First
	if page.Last > 0 && page.Before != "" {
		size = page.Last
	}
	if size <= 0 {
		size = shopify.DefaultPageSize
	}

	start := 0
	if page.After != "" {
		for i, p := range products {
			if p.ID == page.After {
				start = i + 1
				break
			}
		}
	} else if page.Before != "" {
		for i, p := range products {
			if p.ID == page.Before {
				start = i - size
				if start < 0 {
					start = 0
				}
				break
			}
		}
	}

	end := start + size
	if end > len(products) {
		end = len(products)
	}
	slice := products[start:end]

	result := &domain.ProductPage{
		Products: slice,
		PageInfo: domain.PageInfo{
			HasNextPage:     end < len(products),
			HasPreviousPage: start > 0,
		},
	}
	if len(slice) > 0 {
		result.PageInfo.StartCursor = slice[0].ID
		result.PageInfo.EndCursor = slice[len(slice)-1].ID
	}
	return result
}

func (m *MockProvider) Products(_ context.Context, page shopify.PageArgs) (*domain.ProductPage, error) {
	return paginate(m.products, page), nil
}

func (m *MockProvider) ProductByHandle(_ context.Context, handle string) (*domain.Product, error) {
	for i := range m.products {
		if m.products[i].Handle == handle {
			return &m.products[i], nil
		}
	}
	return nil, shopify.ErrNotFound
}

func (m *MockProvider) Collections(_ context.Context) ([]domain.Collection, error) {
	return m.collections, nil
}

func (m *MockProvider) CollectionProducts(_ context.Context, handle string, page shopify.PageArgs, _ shopify.SortArgs, _ *shopify.PriceFilter) (*domain.CollectionPage, error) {
	for _, c := range m.collections {
		if c.Handle == handle {
			productPage := paginate(m.products, page)
			return &domain.CollectionPage{
				Collection: c,
				Products:   productPage.Products,
				PageInfo:   productPage.PageInfo,
			}, nil
		}
	}
	return nil, shopify.ErrNotFound
}

func (m *MockProvider) Search(_ context.Context, text string, page shopify.PageArgs) (*domain.ProductPage, error) {
	var matched []domain.Product
	for _, p := range m.products {
		if containsFold(p.Title, text) || containsFold(p.Description, text) {
			matched = append(matched, p)
		}
	}
	return paginate(matched, page), nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
