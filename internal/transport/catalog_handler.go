package transport

import (
	"errors"
	"net/http"
	"strconv"

	"shopmi-api/internal/catalog"
	"shopmi-api/internal/domain"
	"shopmi-api/internal/middleware"
	"shopmi-api/internal/shopify"
	"shopmi-api/internal/variant"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogHandler serves product and collection pages.
type CatalogHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewCatalogHandler(catalogService *catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalogService, logger: logger}
}

// RegisterRoutes registers all catalog routes.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", h.ListProducts)
		r.Get("/products/{handle}", h.GetProduct)
		r.Post("/products/{handle}/variant", h.ResolveVariant)
		r.Get("/collections", h.ListCollections)
		r.Get("/collections/{handle}/products", h.CollectionProducts)
		r.Get("/collections/{handle}/preview", h.CollectionPreview)
		r.Get("/search", h.Search)
	})
}

// pageArgsFromQuery reads the cursor pagination parameters. Sending a
// backward pair resets any forward pair and vice versa (handled by the
// shopify layer's normalization).
func pageArgsFromQuery(r *http.Request) shopify.PageArgs {
	q := r.URL.Query()
	page := shopify.PageArgs{
		After:  q.Get("after"),
		Before: q.Get("before"),
	}
	if v, err := strconv.Atoi(q.Get("first")); err == nil {
		page.First = v
	}
	if v, err := strconv.Atoi(q.Get("last")); err == nil {
		page.Last = v
	}
	return page
}

// respondCatalogError maps catalog failures onto the error taxonomy: missing
// handles are empty states, an unconfigured client is a degraded mode, and
// upstream GraphQL failures surface as a generic catalog API error.
func (h *CatalogHandler) respondCatalogError(w http.ResponseWriter, err error) {
	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, shopify.ErrNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "not found")
	case errors.Is(err, shopify.ErrClientNotInitialized):
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "catalog client not initialized")
	case errors.As(err, &apiErr):
		middleware.RespondWithError(w, http.StatusBadGateway, "catalog API error")
	default:
		h.logger.Error("Catalog request failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadGateway, "catalog API error")
	}
}

// ListProducts returns one page of the full product list.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.Products(r.Context(), pageArgsFromQuery(r))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// GetProduct returns the full detail snapshot for one handle, including the
// derived option axes and the default selection state.
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	product, err := h.catalog.ProductByHandle(r.Context(), handle)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	resolver := variant.NewResolver(product.Variants)
	selections, color := resolver.DefaultSelection()

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"product": product,
		"options": resolver.Options(),
		"colors":  resolver.Colors(),
		"defaultSelection": map[string]interface{}{
			"options": selections,
			"color":   color,
		},
	})
}

// ResolveVariantRequest carries the buyer's current selection state.
type ResolveVariantRequest struct {
	Selections map[string]string `json:"selections"`
	Color      string            `json:"color"`
}

// ResolveVariantResponse reports the matched variant (if the selection is
// complete and valid) and which values remain selectable.
type ResolveVariantResponse struct {
	Variant    *domain.Variant            `json:"variant"`
	Selectable map[string]map[string]bool `json:"selectable"`
	Colors     map[string]bool            `json:"colorSelectable,omitempty"`
}

// ResolveVariant maps a selection state onto zero-or-one variant and the
// per-value selectability matrix used to disable exhausted combinations.
func (h *CatalogHandler) ResolveVariant(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	var req ResolveVariantRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Selections == nil {
		req.Selections = map[string]string{}
	}

	product, err := h.catalog.ProductByHandle(r.Context(), handle)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}

	resolver := variant.NewResolver(product.Variants)

	resp := ResolveVariantResponse{
		Variant:    resolver.Resolve(req.Selections, req.Color),
		Selectable: map[string]map[string]bool{},
	}
	for _, opt := range resolver.Options() {
		values := map[string]bool{}
		for _, value := range opt.Values {
			values[value] = resolver.ValueSelectable(opt.Name, value, req.Selections, req.Color)
		}
		resp.Selectable[opt.Name] = values
	}
	if colors := resolver.Colors(); len(colors) > 0 {
		resp.Colors = map[string]bool{}
		for _, color := range colors {
			resp.Colors[color] = resolver.ColorSelectable(color, req.Selections)
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}

// ListCollections returns every collection of the store.
func (h *CatalogHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.catalog.Collections(r.Context())
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"collections": collections})
}

// CollectionProducts returns one sorted, optionally filtered page of a
// collection.
func (h *CatalogHandler) CollectionProducts(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	q := r.URL.Query()

	page, err := h.catalog.CollectionProducts(r.Context(), handle,
		pageArgsFromQuery(r), q.Get("sort"), q.Get("priceRange"))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// CollectionPreview serves the cached first page used by navigation hovers.
func (h *CatalogHandler) CollectionPreview(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	page, err := h.catalog.CollectionPreview(r.Context(), handle)
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Search returns one page of products matching the q parameter.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	if text == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "missing search query")
		return
	}

	page, err := h.catalog.Search(r.Context(), text, pageArgsFromQuery(r))
	if err != nil {
		h.respondCatalogError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, page)
}
