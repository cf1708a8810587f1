package shipping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"shopmi-api/internal/config"

	"go.uber.org/zap"
)

func newTestClient(baseURL string) *Client {
	return NewClient(config.CarrierConfig{
		BaseURL:   baseURL,
		Token:     "test-token",
		ClientID:  "client-1",
		OriginCEP: "13802-170",
	}, zap.NewNop())
}

func carrierStub(t *testing.T, status int, body string, called *bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if called != nil {
			*called = true
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestValidCEP(t *testing.T) {
	cases := []struct {
		cep  string
		want bool
	}{
		{"01310100", true},
		{"01310-100", true},
		{"13802-170", true},
		{"abc", false},
		{"1234-567", false},
		{"123456789", false},
		{"01310_100", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidCEP(tc.cep); got != tc.want {
			t.Errorf("ValidCEP(%q) = %v, want %v", tc.cep, got, tc.want)
		}
	}
}

func TestQuoteRejectsInvalidCEPWithoutNetworkCall(t *testing.T) {
	called := false
	srv := carrierStub(t, http.StatusOK, `[]`, &called)
	client := newTestClient(srv.URL)

	_, err := client.Quote(context.Background(), "abc")
	if !errors.Is(err, ErrInvalidPostalCode) {
		t.Fatalf("expected ErrInvalidPostalCode, got %v", err)
	}
	if called {
		t.Error("invalid postal code must be rejected before any carrier call")
	}
}

func TestQuoteWithoutTokenFails(t *testing.T) {
	client := NewClient(config.CarrierConfig{BaseURL: "http://localhost"}, zap.NewNop())

	_, err := client.Quote(context.Background(), "01310100")
	if !errors.Is(err, ErrClientNotInitialized) {
		t.Fatalf("expected ErrClientNotInitialized, got %v", err)
	}
}

func TestQuoteKeepsValidOptions(t *testing.T) {
	body := `[
		{"id":1,"name":"PAC","price":"21.90","currency":"R$","delivery_time":8,
		 "delivery_range":{"min":7,"max":9},
		 "company":{"id":1,"name":"Correios","picture":"https://cdn/correios.png"}},
		{"id":2,"name":"SEDEX","price":"35.50","currency":"R$","delivery_time":3},
		{"id":3,"name":"Mini Envios","error":"service unavailable for this route"}
	]`
	srv := carrierStub(t, http.StatusOK, body, nil)
	client := newTestClient(srv.URL)

	options, err := client.Quote(context.Background(), "01310-100")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 valid options, got %d", len(options))
	}
	if options[0].Name != "PAC" || options[0].Price != "21.90" {
		t.Errorf("unexpected first option: %+v", options[0])
	}
	if options[0].DeliveryMin != 7 || options[0].DeliveryMax != 9 {
		t.Errorf("delivery range not mapped: %+v", options[0])
	}
	if options[0].Company == nil || options[0].Company.Name != "Correios" {
		t.Errorf("company not mapped: %+v", options[0].Company)
	}
}

func TestQuoteAllOptionsErrored(t *testing.T) {
	body := `[
		{"id":1,"name":"PAC","error":"no service"},
		{"id":2,"name":"SEDEX","error":"no service"}
	]`
	srv := carrierStub(t, http.StatusOK, body, nil)
	client := newTestClient(srv.URL)

	_, err := client.Quote(context.Background(), "01310100")
	if !errors.Is(err, ErrNoShippingOptions) {
		t.Fatalf("expected ErrNoShippingOptions, got %v", err)
	}
}

func TestQuoteSingleErrorObject(t *testing.T) {
	srv := carrierStub(t, http.StatusOK, `{"error":"invalid destination"}`, nil)
	client := newTestClient(srv.URL)

	_, err := client.Quote(context.Background(), "01310100")
	if !errors.Is(err, ErrNoShippingOptions) {
		t.Fatalf("expected ErrNoShippingOptions, got %v", err)
	}
}

func TestQuoteEmptyListIsValid(t *testing.T) {
	srv := carrierStub(t, http.StatusOK, `[]`, nil)
	client := newTestClient(srv.URL)

	options, err := client.Quote(context.Background(), "01310100")
	if err != nil {
		t.Fatalf("an empty option list is a valid outcome, got %v", err)
	}
	if len(options) != 0 {
		t.Errorf("expected no options, got %d", len(options))
	}
}

func TestQuoteSkipsEntriesWithoutPrice(t *testing.T) {
	body := `[
		{"id":1,"name":"PAC","price":"21.90"},
		{"id":2,"name":"SEDEX","price":""}
	]`
	srv := carrierStub(t, http.StatusOK, body, nil)
	client := newTestClient(srv.URL)

	options, err := client.Quote(context.Background(), "01310100")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if len(options) != 1 || options[0].Name != "PAC" {
		t.Errorf("expected only the priced option, got %+v", options)
	}
}

func TestQuoteAuthFailure(t *testing.T) {
	srv := carrierStub(t, http.StatusUnauthorized, `{"message":"Unauthenticated."}`, nil)
	client := newTestClient(srv.URL)

	_, err := client.Quote(context.Background(), "01310100")
	var gateway *GatewayError
	if !errors.As(err, &gateway) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if !gateway.AuthFailure() {
		t.Errorf("expected an auth failure, got status %d", gateway.StatusCode)
	}
}

func TestQuoteUpstreamFailure(t *testing.T) {
	srv := carrierStub(t, http.StatusBadGateway, `oops`, nil)
	client := newTestClient(srv.URL)

	_, err := client.Quote(context.Background(), "01310100")
	var gateway *GatewayError
	if !errors.As(err, &gateway) {
		t.Fatalf("expected GatewayError, got %v", err)
	}
	if gateway.AuthFailure() {
		t.Error("a 502 is not an auth failure")
	}
}

func TestFormatToken(t *testing.T) {
	if got := formatToken("abc"); got != "Bearer abc" {
		t.Errorf("expected Bearer prefix, got %q", got)
	}
	if got := formatToken("Bearer abc"); got != "Bearer abc" {
		t.Errorf("prefix must not be doubled, got %q", got)
	}
	if got := formatToken(""); got != "" {
		t.Errorf("empty token must stay empty, got %q", got)
	}
}

func TestServices(t *testing.T) {
	srv := carrierStub(t, http.StatusOK, `[{"id":1,"name":"PAC"}]`, nil)
	client := newTestClient(srv.URL)

	raw, err := client.Services(context.Background())
	if err != nil {
		t.Fatalf("services failed: %v", err)
	}
	if string(raw) != `[{"id":1,"name":"PAC"}]` {
		t.Errorf("services must pass the body through untouched, got %s", raw)
	}
}
