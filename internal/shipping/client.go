// Package shipping quotes delivery rates through the Melhor Envio API and
// normalizes its heterogeneous responses into a clean option list.
package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"shopmi-api/internal/config"
	"shopmi-api/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrInvalidPostalCode rejects destination codes before any network
	// call is made.
	ErrInvalidPostalCode = errors.New("invalid postal code")

	// ErrNoShippingOptions covers both an upstream error object and an
	// option list where every entry failed.
	ErrNoShippingOptions = errors.New("no shipping options available")

	// ErrClientNotInitialized is returned when no carrier token was
	// configured.
	ErrClientNotInitialized = errors.New("shipping client not initialized: missing carrier token")
)

// GatewayError is an HTTP or network failure from the carrier, distinct from
// a valid "nothing available" response.
type GatewayError struct {
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("carrier gateway failure: status %d", e.StatusCode)
	}
	return fmt.Sprintf("carrier gateway failure: %v", e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// AuthFailure reports whether the gateway rejected our credentials.
func (e *GatewayError) AuthFailure() bool { return e.StatusCode == http.StatusUnauthorized }

// cepPattern is the carrier's postal code format: 8 digits, hyphen optional.
var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

// ValidCEP reports whether a destination postal code is well-formed.
func ValidCEP(cep string) bool {
	return cepPattern.MatchString(cep)
}

// The quoted package is a fixed profile, not derived from cart contents, so
// prices are an approximation for a typical parcel.
type packageDimensions struct {
	Weight float64 `json:"weight"` // kg
	Width  float64 `json:"width"`  // cm
	Height float64 `json:"height"` // cm
	Length float64 `json:"length"` // cm
}

var defaultPackage = packageDimensions{
	Weight: 0.25,
	Width:  12,
	Height: 2,
	Length: 17,
}

// defaultServices selects PAC (1) and SEDEX (2).
const defaultServices = "1,2"

const defaultInsuranceValue = 100.00

type address struct {
	PostalCode string `json:"postal_code"`
}

type quoteOptions struct {
	InsuranceValue float64 `json:"insurance_value"`
	Receipt        bool    `json:"receipt"`
	OwnHand        bool    `json:"own_hand"`
	Collect        bool    `json:"collect"`
}

type calculatePayload struct {
	From     address           `json:"from"`
	To       address           `json:"to"`
	Package  packageDimensions `json:"package"`
	Services string            `json:"services,omitempty"`
	Options  quoteOptions      `json:"options"`
}

// rawOption is the carrier's option shape; entries may carry an error field
// instead of a usable rate.
type rawOption struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Currency      string `json:"currency"`
	DeliveryTime  int    `json:"delivery_time"`
	DeliveryRange *struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"delivery_range"`
	Company *struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	} `json:"company"`
	Error string `json:"error"`
}

// Client calls the carrier rate API with a fixed origin and package profile.
type Client struct {
	baseURL   string
	token     string
	clientID  string
	originCEP string
	httpc     *http.Client
	logger    *zap.Logger
}

func NewClient(cfg config.CarrierConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		token:     formatToken(cfg.Token),
		clientID:  cfg.ClientID,
		originCEP: stripHyphen(cfg.OriginCEP),
		httpc:     &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
	}
}

// formatToken ensures the Bearer prefix without doubling it.
func formatToken(token string) string {
	if token == "" || strings.HasPrefix(token, "Bearer ") {
		return token
	}
	return "Bearer " + token
}

func stripHyphen(cep string) string {
	return strings.ReplaceAll(cep, "-", "")
}

// Quote validates the destination code, requests rates for the default
// package and returns the valid options. Partially failing entries are
// dropped silently; an all-failed response or an upstream error object is
// reported as ErrNoShippingOptions.
func (c *Client) Quote(ctx context.Context, cep string) ([]domain.ShippingOption, error) {
	if !ValidCEP(cep) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPostalCode, cep)
	}
	if c.token == "" {
		return nil, ErrClientNotInitialized
	}

	payload := calculatePayload{
		From:     address{PostalCode: c.originCEP},
		To:       address{PostalCode: stripHyphen(cep)},
		Package:  defaultPackage,
		Services: defaultServices,
		Options:  quoteOptions{InsuranceValue: defaultInsuranceValue},
	}

	body, err := c.post(ctx, "/me/shipment/calculate", payload)
	if err != nil {
		return nil, err
	}
	return c.normalize(body)
}

// Services lists the carrier services available to the account.
func (c *Client) Services(ctx context.Context) (json.RawMessage, error) {
	if c.token == "" {
		return nil, ErrClientNotInitialized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/me/shipment/services", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build services request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logStatusFailure(resp.StatusCode, body)
		return nil, &GatewayError{StatusCode: resp.StatusCode}
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MiBrasil (contato@mibrasil.com.br)")
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode carrier payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to build carrier request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("Carrier request failed", zap.Error(err))
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logStatusFailure(resp.StatusCode, body)
		return nil, &GatewayError{StatusCode: resp.StatusCode}
	}
	return body, nil
}

// logStatusFailure separates authentication failures from other upstream
// failures in the logs; tokens are never logged past a short prefix.
func (c *Client) logStatusFailure(status int, body []byte) {
	if status == http.StatusUnauthorized {
		c.logger.Error("Carrier authentication failed (401); check that the token is valid and not expired",
			zap.String("client_id", c.clientID),
			zap.String("token_prefix", tokenPrefix(c.token)),
		)
		return
	}
	c.logger.Error("Carrier returned non-2xx status",
		zap.Int("status", status),
		zap.ByteString("body", body),
	)
}

func tokenPrefix(token string) string {
	const n = 10
	if len(token) <= n {
		return token
	}
	return token[:n] + "..."
}

// normalize maps the carrier's response shapes onto a clean option list:
// a bare error object and an all-failed list are hard failures, an empty
// list means no service is available, and mixed lists keep only the valid
// entries.
func (c *Client) normalize(body []byte) ([]domain.ShippingOption, error) {
	var raw []rawOption
	if err := json.Unmarshal(body, &raw); err != nil {
		// Not an array: the carrier reports some failures as a single
		// object with an error field.
		var single struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &single); err != nil || single.Error == "" {
			return nil, fmt.Errorf("unexpected carrier response: %s", body)
		}
		c.logger.Error("Carrier returned an error object", zap.String("error", single.Error))
		return nil, fmt.Errorf("%w: %s", ErrNoShippingOptions, single.Error)
	}

	if len(raw) == 0 {
		// No service for this route; a valid empty outcome.
		c.logger.Warn("Carrier returned no shipping options")
		return []domain.ShippingOption{}, nil
	}

	errored := 0
	valid := make([]domain.ShippingOption, 0, len(raw))
	for _, opt := range raw {
		if opt.Error != "" {
			errored++
			c.logger.Warn("Dropping unavailable shipping service",
				zap.String("service", opt.Name),
				zap.String("error", opt.Error),
			)
			continue
		}
		if opt.Price == "" {
			continue
		}
		valid = append(valid, mapOption(opt))
	}

	// Only an all-failed list is a hard failure; partial failures were
	// already filtered above.
	if errored == len(raw) {
		return nil, ErrNoShippingOptions
	}
	return valid, nil
}

func mapOption(opt rawOption) domain.ShippingOption {
	out := domain.ShippingOption{
		ID:           opt.ID,
		Name:         opt.Name,
		Price:        opt.Price,
		Currency:     opt.Currency,
		DeliveryTime: opt.DeliveryTime,
	}
	if opt.DeliveryRange != nil {
		out.DeliveryMin = opt.DeliveryRange.Min
		out.DeliveryMax = opt.DeliveryRange.Max
	}
	if opt.Company != nil {
		out.Company = &domain.ShippingCompany{
			ID:   opt.Company.ID,
			Name: opt.Company.Name,
			Logo: opt.Company.Picture,
		}
	}
	return out
}
