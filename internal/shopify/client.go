package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrClientNotInitialized is returned when an operation needs an API client
// whose access token was not configured. Callers treat it as a degraded mode,
// not a crash.
var ErrClientNotInitialized = errors.New("shopify client not initialized: missing access token")

// GraphQLError is a single entry of a GraphQL "errors" list.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// APIError wraps the error list of a GraphQL response. The full list is
// logged at the client; callers see a generic API failure.
type APIError struct {
	Errors []GraphQLError
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return "shopify API error"
	}
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	return fmt.Sprintf("shopify API error: %s", strings.Join(msgs, "; "))
}

// Client posts GraphQL documents to a single Shopify endpoint. A nil Client
// is valid and fails every call with ErrClientNotInitialized, which is how a
// missing token degrades.
type Client struct {
	endpoint string
	headers  map[string]string
	httpc    *http.Client
	logger   *zap.Logger
}

// NewStorefrontClient builds a client for the public Storefront API. Returns
// nil when the token is empty.
func NewStorefrontClient(storeDomain, token, apiVersion string, logger *zap.Logger) *Client {
	if token == "" {
		return nil
	}
	return &Client{
		endpoint: fmt.Sprintf("https://%s/api/%s/graphql.json", storeDomain, apiVersion),
		headers: map[string]string{
			"X-Shopify-Storefront-Access-Token": token,
		},
		httpc:  &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// NewAdminClient builds a client for the privileged Admin API. Returns nil
// when the token is empty.
func NewAdminClient(storeDomain, token, apiVersion string, logger *zap.Logger) *Client {
	if token == "" {
		return nil
	}
	return &Client{
		endpoint: fmt.Sprintf("https://%s/admin/api/%s/graphql.json", storeDomain, apiVersion),
		headers: map[string]string{
			"X-Shopify-Access-Token": token,
		},
		httpc:  &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// Do executes one GraphQL document and unmarshals the "data" object into out.
func (c *Client) Do(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	data, err := c.DoRaw(ctx, query, variables)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode graphql data: %w", err)
	}
	return nil
}

// DoRaw executes one GraphQL document and returns the raw "data" payload.
// Used by the admin proxy route, which passes responses through untouched.
func (c *Client) DoRaw(ctx context.Context, query string, variables map[string]interface{}) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrClientNotInitialized
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graphql request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read graphql response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("Shopify API returned non-2xx status",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", c.endpoint),
		)
		return nil, fmt.Errorf("graphql request failed with status %d", resp.StatusCode)
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to decode graphql response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		c.logger.Error("Shopify API returned errors",
			zap.String("endpoint", c.endpoint),
			zap.Any("errors", gqlResp.Errors),
		)
		return nil, &APIError{Errors: gqlResp.Errors}
	}

	if gqlResp.Data == nil {
		return nil, errors.New("graphql response contained no data")
	}

	return gqlResp.Data, nil
}
