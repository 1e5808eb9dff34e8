// Package client provides a typed HTTP client SDK for chamicore-sandwich.
//
// Requests are sent once; the client never retries.
package client

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"git.cscs.ch/openchami/chamicore-sandwich/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "chamicore-sandwich-client"
)

// Config holds sandwich client configuration.
type Config struct {
	// BaseURL is the root URL of the sandwich API (for example: http://localhost:27780).
	BaseURL string
	// Timeout is the per-request timeout. Defaults to 30s.
	Timeout time.Duration
	// HTTPClient overrides the underlying client. Timeout is ignored when set.
	HTTPClient *http.Client
	// UserAgent is sent with every request.
	UserAgent string
}

// Client is the typed HTTP SDK for the sandwich API.
type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string

	Orders       *Collection[types.Order, types.CreateOrderRequest, types.UpdateOrderRequest]
	OrderDetails *Collection[types.OrderDetail, types.CreateOrderDetailRequest, types.UpdateOrderDetailRequest]
	Sandwiches   *Collection[types.Sandwich, types.CreateSandwichRequest, types.UpdateSandwichRequest]
	Recipes      *Collection[types.Recipe, types.CreateRecipeRequest, types.UpdateRecipeRequest]
	Resources    *Collection[types.Resource, types.CreateResourceRequest, types.UpdateResourceRequest]
}

// New creates a new sandwich client.
func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("client: BaseURL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := &Client{http: httpClient, baseURL: baseURL, userAgent: userAgent}
	c.Orders = newCollection[types.Order, types.CreateOrderRequest, types.UpdateOrderRequest](c, "orders", "order")
	c.OrderDetails = newCollection[types.OrderDetail, types.CreateOrderDetailRequest, types.UpdateOrderDetailRequest](c, "order_details", "order detail")
	c.Sandwiches = newCollection[types.Sandwich, types.CreateSandwichRequest, types.UpdateSandwichRequest](c, "sandwich", "sandwich")
	c.Recipes = newCollection[types.Recipe, types.CreateRecipeRequest, types.UpdateRecipeRequest](c, "recipes", "recipe")
	c.Resources = newCollection[types.Resource, types.CreateResourceRequest, types.UpdateResourceRequest](c, "resources", "resource")
	return c, nil
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Problem    types.ProblemDetail
}

func (e *APIError) Error() string {
	if e.Problem.Detail != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Problem.Detail)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Collection exposes the five CRUD calls of one entity path.
//
// W is the record type, C the create request and U the update request.
type Collection[W, C, U any] struct {
	client *Client
	path   string
	noun   string
}

func newCollection[W, C, U any](c *Client, path, noun string) *Collection[W, C, U] {
	return &Collection[W, C, U]{client: c, path: "/" + path, noun: noun}
}

// List returns every record.
func (col *Collection[W, C, U]) List(ctx context.Context) ([]W, error) {
	var out []W
	if err := col.client.do(ctx, http.MethodGet, col.path, nil, &out); err != nil {
		return nil, fmt.Errorf("listing %ss: %w", col.noun, err)
	}
	if out == nil {
		out = []W{}
	}
	return out, nil
}

// Get returns one record.
func (col *Collection[W, C, U]) Get(ctx context.Context, id int64) (*W, error) {
	var out W
	if err := col.client.do(ctx, http.MethodGet, col.itemPath(id), nil, &out); err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", col.noun, id, err)
	}
	return &out, nil
}

// Create stores a new record and returns it with its assigned id.
func (col *Collection[W, C, U]) Create(ctx context.Context, req C) (*W, error) {
	var out W
	if err := col.client.do(ctx, http.MethodPost, col.path, req, &out); err != nil {
		return nil, fmt.Errorf("creating %s: %w", col.noun, err)
	}
	return &out, nil
}

// Update changes the non-nil fields of req and returns the updated record.
func (col *Collection[W, C, U]) Update(ctx context.Context, id int64, req U) (*W, error) {
	var out W
	if err := col.client.do(ctx, http.MethodPut, col.itemPath(id), req, &out); err != nil {
		return nil, fmt.Errorf("updating %s %d: %w", col.noun, id, err)
	}
	return &out, nil
}

// Delete removes a record.
func (col *Collection[W, C, U]) Delete(ctx context.Context, id int64) error {
	if err := col.client.do(ctx, http.MethodDelete, col.itemPath(id), nil, nil); err != nil {
		return fmt.Errorf("deleting %s %d: %w", col.noun, id, err)
	}
	return nil
}

func (col *Collection[W, C, U]) itemPath(id int64) string {
	return fmt.Sprintf("%s/%d", col.path, id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = json.Unmarshal(data, &apiErr.Problem)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
