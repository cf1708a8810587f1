package transport

import (
	"errors"
	"net/http"

	"shopmi-api/internal/cart"
	"shopmi-api/internal/domain"
	"shopmi-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddItemRequest is the payload for adding a line to the cart.
type AddItemRequest struct {
	VariantID      string                  `json:"variantId" validate:"required"`
	ProductID      string                  `json:"productId" validate:"required"`
	Title          string                  `json:"title" validate:"required"`
	Price          float64                 `json:"price" validate:"gte=0"`
	CurrencyCode   string                  `json:"currencyCode" validate:"required"`
	Quantity       int                     `json:"quantity" validate:"gte=1"`
	Image          string                  `json:"image"`
	Handle         string                  `json:"handle"`
	Category       string                  `json:"category"`
	Tags           []string                `json:"tags"`
	VariantOptions []domain.SelectedOption `json:"variantOptions"`
	CompareAtPrice *domain.Money           `json:"compareAtPrice"`
}

// UpdateQuantityRequest replaces a line's quantity; zero removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// SelectShippingRequest applies a quoted option to the cart. The generation
// echoes the value issued by the matching calculate call.
type SelectShippingRequest struct {
	Generation uint64                `json:"generation"`
	Option     domain.ShippingOption `json:"option" validate:"required"`
}

// CartHandler serves the session cart.
type CartHandler struct {
	carts  *cart.Service
	logger *zap.Logger
}

func NewCartHandler(carts *cart.Service, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes registers all cart routes.
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Clear)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{id}", h.UpdateQuantity)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/shipping", h.SelectShipping)
	})
}

func (h *CartHandler) sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "missing session")
		return "", false
	}
	return sessionID, true
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error) {
	if errors.Is(err, cart.ErrItemNotFound) {
		middleware.RespondWithError(w, http.StatusNotFound, "cart item not found")
		return
	}
	h.logger.Error("Cart operation failed", zap.Error(err))
	middleware.RespondWithError(w, http.StatusInternalServerError, "cart operation failed")
}

// Get returns the current cart with its derived totals.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	current, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, current)
}

// AddItem adds a line or increments an existing one with the same variant.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item := domain.CartItem{
		ID:             req.VariantID,
		Title:          req.Title,
		Price:          req.Price,
		CurrencyCode:   req.CurrencyCode,
		Quantity:       req.Quantity,
		Image:          req.Image,
		VariantID:      req.VariantID,
		ProductID:      req.ProductID,
		Handle:         req.Handle,
		Category:       req.Category,
		Tags:           req.Tags,
		VariantOptions: req.VariantOptions,
		CompareAtPrice: req.CompareAtPrice,
	}

	current, err := h.carts.Add(r.Context(), sessionID, item)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, current)
}

// UpdateQuantity replaces a line's quantity; zero removes it.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	current, err := h.carts.UpdateQuantity(r.Context(), sessionID, chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, current)
}

// RemoveItem deletes a line; removing an absent line is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	current, err := h.carts.Remove(r.Context(), sessionID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, current)
}

// Clear empties the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	current, err := h.carts.Clear(r.Context(), sessionID)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, current)
}

// SelectShipping stores a quoted option on the cart. Selections from an
// outdated quote are rejected so a stale response can never win over a
// newer one.
func (h *CartHandler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(w, r)
	if !ok {
		return
	}

	var req SelectShippingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.carts.SelectShipping(sessionID, req.Generation, req.Option) {
		middleware.RespondWithError(w, http.StatusConflict, "shipping quote is no longer current")
		return
	}

	current, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, current)
}
