package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopmi-api/internal/cart"
	"shopmi-api/internal/config"
	"shopmi-api/internal/domain"
	"shopmi-api/internal/middleware"
	"shopmi-api/internal/repository"
	"shopmi-api/internal/shipping"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newShippingTestServer(t *testing.T, carrierStatus int, carrierBody string) http.Handler {
	t.Helper()

	carrier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(carrierStatus)
		w.Write([]byte(carrierBody))
	}))
	t.Cleanup(carrier.Close)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	logger := zap.NewNop()
	carts := cart.NewService(repository.NewCartRepository(redisClient, logger), logger)
	client := shipping.NewClient(config.CarrierConfig{
		BaseURL:   carrier.URL,
		Token:     "test-token",
		OriginCEP: "13802-170",
	}, logger)

	router := chi.NewRouter()
	router.Use(middleware.SessionMiddleware())
	NewShippingHandler(client, carts, logger).RegisterRoutes(router, nil)
	return router
}

func calculate(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/shipping/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestCalculateReturnsBareOptionArray(t *testing.T) {
	handler := newShippingTestServer(t, http.StatusOK, `[
		{"id":1,"name":"PAC","price":"21.90","currency":"R$","delivery_time":8},
		{"id":2,"name":"SEDEX","price":"35.50","currency":"R$","delivery_time":3}
	]`)

	w := calculate(t, handler, `{"cep":"01310-100"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	// The body is the plain option array, not an object wrapping it.
	var options []domain.ShippingOption
	if err := json.Unmarshal(w.Body.Bytes(), &options); err != nil {
		t.Fatalf("response is not an option array: %v (%s)", err, w.Body.String())
	}
	if len(options) != 2 || options[0].Name != "PAC" {
		t.Errorf("unexpected options: %+v", options)
	}

	if w.Header().Get(QuoteGenerationHeader) == "" {
		t.Error("expected the quote generation header")
	}
}

func TestCalculateGenerationAdvances(t *testing.T) {
	handler := newShippingTestServer(t, http.StatusOK, `[]`)

	first := calculate(t, handler, `{"cep":"01310100"}`).Header().Get(QuoteGenerationHeader)
	second := calculate(t, handler, `{"cep":"01310100"}`).Header().Get(QuoteGenerationHeader)
	if first == second {
		t.Errorf("each calculation must issue a new generation, got %q twice", first)
	}
}

func TestCalculateRejectsInvalidCEP(t *testing.T) {
	handler := newShippingTestServer(t, http.StatusOK, `[]`)

	w := calculate(t, handler, `{"cep":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error != "invalid postal code" {
		t.Errorf("unexpected error message: %q", envelope.Error)
	}
}

func TestCalculateAllServicesFailed(t *testing.T) {
	handler := newShippingTestServer(t, http.StatusOK,
		`[{"id":1,"name":"PAC","error":"no service"},{"id":2,"name":"SEDEX","error":"no service"}]`)

	w := calculate(t, handler, `{"cep":"01310100"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	var envelope struct {
		Error   string      `json:"error"`
		Details interface{} `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if envelope.Error != "failed to calculate shipping" || envelope.Details == nil {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
}

func TestCalculateCarrierFailure(t *testing.T) {
	handler := newShippingTestServer(t, http.StatusUnauthorized, `{"message":"Unauthenticated."}`)

	w := calculate(t, handler, `{"cep":"01310100"}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502 for a carrier failure, got %d", w.Code)
	}
}
