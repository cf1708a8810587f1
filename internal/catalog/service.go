// Package catalog translates UI-level pagination, sort and filter parameters
// into the Storefront API's idioms and serves collection previews from a
// keyed cache.
package catalog

import (
	"context"
	"time"

	"shopmi-api/internal/domain"
	"shopmi-api/internal/shopify"

	"go.uber.org/zap"
)

// Provider is the data source behind the catalog: the live Storefront API in
// production, or the mock dataset in explicitly configured dev environments.
type Provider interface {
	Products(ctx context.Context, page shopify.PageArgs) (*domain.ProductPage, error)
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
	Collections(ctx context.Context) ([]domain.Collection, error)
	CollectionProducts(ctx context.Context, handle string, page shopify.PageArgs, sort shopify.SortArgs, filter *shopify.PriceFilter) (*domain.CollectionPage, error)
	Search(ctx context.Context, text string, page shopify.PageArgs) (*domain.ProductPage, error)
}

// Service maps UI parameters onto Provider calls.
type Service struct {
	provider Provider
	logger   *zap.Logger
	previews *collectionCache
}

func NewService(provider Provider, logger *zap.Logger) *Service {
	return &Service{
		provider: provider,
		logger:   logger,
		previews: newCollectionCache(5 * time.Minute),
	}
}

// SortFromParam maps a UI sort key onto the Storefront API's (sortKey,
// reverse) pair. Unknown values fall back to the featured ordering.
func (s *Service) SortFromParam(param string) shopify.SortArgs {
	switch param {
	case "price-asc":
		return shopify.SortArgs{Key: "PRICE", Reverse: false}
	case "price-desc":
		return shopify.SortArgs{Key: "PRICE", Reverse: true}
	case "name-asc":
		return shopify.SortArgs{Key: "TITLE", Reverse: false}
	case "name-desc":
		return shopify.SortArgs{Key: "TITLE", Reverse: true}
	case "created-desc":
		return shopify.SortArgs{Key: "CREATED", Reverse: true}
	case "created-asc":
		return shopify.SortArgs{Key: "CREATED", Reverse: false}
	case "featured", "":
		return shopify.SortArgs{Key: "BEST_SELLING"}
	default:
		s.logger.Debug("Unknown sort parameter, using featured ordering", zap.String("sort", param))
		return shopify.SortArgs{Key: "BEST_SELLING"}
	}
}

func f64(v float64) *float64 { return &v }

// PriceFilterFromParam maps a UI price bucket onto a price window. Unknown
// buckets are dropped with a warning instead of failing the request.
func (s *Service) PriceFilterFromParam(param string) *shopify.PriceFilter {
	switch param {
	case "", "any":
		return nil
	case "0-500":
		return &shopify.PriceFilter{Max: f64(500)}
	case "500-1000":
		return &shopify.PriceFilter{Min: f64(500), Max: f64(1000)}
	case "1000-2000":
		return &shopify.PriceFilter{Min: f64(1000), Max: f64(2000)}
	case "2000+":
		return &shopify.PriceFilter{Min: f64(2000)}
	default:
		s.logger.Warn("Unknown price range parameter, ignoring filter", zap.String("priceRange", param))
		return nil
	}
}

func (s *Service) Products(ctx context.Context, page shopify.PageArgs) (*domain.ProductPage, error) {
	return s.provider.Products(ctx, page)
}

func (s *Service) ProductByHandle(ctx context.Context, handle string) (*domain.Product, error) {
	return s.provider.ProductByHandle(ctx, handle)
}

func (s *Service) Collections(ctx context.Context) ([]domain.Collection, error) {
	return s.provider.Collections(ctx)
}

func (s *Service) CollectionProducts(ctx context.Context, handle string, page shopify.PageArgs, sortParam, priceParam string) (*domain.CollectionPage, error) {
	return s.provider.CollectionProducts(ctx, handle, page, s.SortFromParam(sortParam), s.PriceFilterFromParam(priceParam))
}

func (s *Service) Search(ctx context.Context, text string, page shopify.PageArgs) (*domain.ProductPage, error) {
	return s.provider.Search(ctx, text, page)
}

// CollectionPreview serves the first featured page of a collection from the
// keyed cache, refreshing it on miss. A stale in-flight refresh can never
// overwrite a newer one: each refresh carries a generation token and only the
// latest is applied.
func (s *Service) CollectionPreview(ctx context.Context, handle string) (*domain.CollectionPage, error) {
	if page, ok := s.previews.get(handle); ok {
		return page, nil
	}

	generation := s.previews.begin(handle)
	page, err := s.provider.CollectionProducts(ctx, handle,
		shopify.PageArgs{First: shopify.DefaultPageSize},
		shopify.SortArgs{Key: "BEST_SELLING"},
		nil,
	)
	if err != nil {
		return nil, err
	}
	if !s.previews.complete(handle, generation, page) {
		s.logger.Debug("Discarding stale collection preview", zap.String("handle", handle))
	}
	return page, nil
}
