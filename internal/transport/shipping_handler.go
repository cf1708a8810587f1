package transport

import (
	"errors"
	"net/http"
	"strconv"

	"shopmi-api/internal/cart"
	"shopmi-api/internal/middleware"
	"shopmi-api/internal/shipping"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// QuoteGenerationHeader carries the generation token of a calculate call;
// clients echo it when selecting one of the returned options.
const QuoteGenerationHeader = "X-Quote-Generation"

// CalculateShippingRequest is the POST /api/shipping/calculate payload.
type CalculateShippingRequest struct {
	CEP string `json:"cep" validate:"required"`
}

// ShippingHandler quotes delivery rates for the session cart.
type ShippingHandler struct {
	client *shipping.Client
	carts  *cart.Service
	logger *zap.Logger
}

func NewShippingHandler(client *shipping.Client, carts *cart.Service, logger *zap.Logger) *ShippingHandler {
	return &ShippingHandler{client: client, carts: carts, logger: logger}
}

// RegisterRoutes registers the shipping routes. The rate-limit middleware is
// applied here because each calculate call spends carrier API quota.
func (h *ShippingHandler) RegisterRoutes(r chi.Router, rateLimit func(http.Handler) http.Handler) {
	r.Route("/api/shipping", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/calculate", h.Calculate)
		})
		r.Get("/services", h.Services)
	})
}

// Calculate validates the destination code, quotes the fixed default package
// and returns the valid options. The response body is the bare option array;
// the quote generation travels in a header.
func (h *ShippingHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		middleware.RespondWithErrorEnvelope(w, http.StatusInternalServerError, "missing session", nil)
		return
	}

	var req CalculateShippingRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithErrorEnvelope(w, http.StatusBadRequest, "invalid postal code", nil)
		return
	}

	// Reject malformed codes before starting a quote or touching the
	// network.
	if !shipping.ValidCEP(req.CEP) {
		middleware.RespondWithErrorEnvelope(w, http.StatusBadRequest, "invalid postal code", nil)
		return
	}

	// A new calculation invalidates any previously selected option and
	// all outstanding quotes for this session.
	generation := h.carts.BeginQuote(sessionID)

	options, err := h.client.Quote(r.Context(), req.CEP)
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}

	w.Header().Set(QuoteGenerationHeader, strconv.FormatUint(generation, 10))
	middleware.RespondWithJSON(w, http.StatusOK, options)
}

func (h *ShippingHandler) respondQuoteError(w http.ResponseWriter, err error) {
	var gateway *shipping.GatewayError
	switch {
	case errors.Is(err, shipping.ErrInvalidPostalCode):
		middleware.RespondWithErrorEnvelope(w, http.StatusBadRequest, "invalid postal code", nil)
	case errors.Is(err, shipping.ErrClientNotInitialized):
		middleware.RespondWithErrorEnvelope(w, http.StatusServiceUnavailable, "shipping client not initialized", nil)
	case errors.Is(err, shipping.ErrNoShippingOptions):
		middleware.RespondWithErrorEnvelope(w, http.StatusInternalServerError,
			"failed to calculate shipping", "no shipping options available for this postal code")
	case errors.As(err, &gateway):
		middleware.RespondWithErrorEnvelope(w, http.StatusBadGateway,
			"carrier API call failed", map[string]interface{}{"status": gateway.StatusCode})
	default:
		h.logger.Error("Shipping calculation failed", zap.Error(err))
		middleware.RespondWithErrorEnvelope(w, http.StatusInternalServerError, "failed to calculate shipping", nil)
	}
}

// Services lists the carrier services available to the account.
func (h *ShippingHandler) Services(w http.ResponseWriter, r *http.Request) {
	services, err := h.client.Services(r.Context())
	if err != nil {
		h.respondQuoteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(services)
}
