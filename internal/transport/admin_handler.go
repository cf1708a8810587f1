package transport

import (
	"errors"
	"net/http"

	"shopmi-api/internal/middleware"
	"shopmi-api/internal/shopify"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminHandler proxies back-office operations to the Shopify Admin API.
type AdminHandler struct {
	admin  *shopify.Admin
	logger *zap.Logger
}

func NewAdminHandler(admin *shopify.Admin, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// RegisterRoutes registers the JWT-gated admin routes.
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/collections", h.GetCollections)
		r.Post("/collections", h.CreateCollection)
		r.Post("/products", h.CreateProduct)
		r.Post("/shopify-proxy", h.Proxy)
	})
}

func (h *AdminHandler) respondAdminError(w http.ResponseWriter, action string, err error) {
	var userErrs *shopify.UserErrorsError
	var apiErr *shopify.APIError
	switch {
	case errors.Is(err, shopify.ErrClientNotInitialized):
		middleware.RespondWithErrorEnvelope(w, http.StatusServiceUnavailable,
			action, "admin API client not initialized; check SHOPIFY_ADMIN_API_TOKEN")
	case errors.As(err, &userErrs):
		middleware.RespondWithErrorEnvelope(w, http.StatusUnprocessableEntity, action, userErrs.Error())
	case errors.As(err, &apiErr):
		middleware.RespondWithErrorEnvelope(w, http.StatusBadGateway, action, "admin API error")
	default:
		h.logger.Error("Admin operation failed", zap.String("action", action), zap.Error(err))
		middleware.RespondWithErrorEnvelope(w, http.StatusInternalServerError, action, err.Error())
	}
}

func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

// GetCollections returns the navigation menu: main collections with their
// parsed subcollection lists.
func (h *AdminHandler) GetCollections(w http.ResponseWriter, r *http.Request) {
	menu, err := h.admin.Collections(r.Context())
	if err != nil {
		h.respondAdminError(w, "failed to fetch collections", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, menu)
}

// CreateCollection runs the collectionCreate mutation.
func (h *AdminHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req shopify.CollectionCreateInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.admin.CreateCollection(r.Context(), req)
	if err != nil {
		h.respondAdminError(w, "failed to create collection", err)
		return
	}
	writeRawJSON(w, created)
}

// CreateProduct runs the productCreate mutation.
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req shopify.ProductCreateInput
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.admin.CreateProduct(r.Context(), req)
	if err != nil {
		h.respondAdminError(w, "failed to create product", err)
		return
	}
	writeRawJSON(w, created)
}

// ProxyRequest is an arbitrary GraphQL document for the admin test console.
type ProxyRequest struct {
	Query     string                 `json:"query" validate:"required"`
	Variables map[string]interface{} `json:"variables"`
}

// Proxy forwards a raw GraphQL document to the Admin API.
func (h *AdminHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	var req ProxyRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := h.admin.Proxy(r.Context(), req.Query, req.Variables)
	if err != nil {
		h.respondAdminError(w, "admin API call failed", err)
		return
	}
	writeRawJSON(w, data)
}
