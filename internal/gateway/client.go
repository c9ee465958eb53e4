// Package gateway is the client side of the remote catalog API: product CRUD
// and the natural-language AI search. It owns no state besides the HTTP client
// and the AI-search rate limiter; every call is bound to its context.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/catalog/internal/product"
)

const (
	// DefaultTimeout bounds every request. A timeout is a network failure.
	DefaultTimeout = 10 * time.Second

	productsPath = "/api/v1/products"
	aiSearchPath = "/api/v1/product/ai-search"

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 4 << 20
)

// Client talks to the catalog API.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter // paces AISearch; nil disables pacing
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithSearchRate paces AI searches to one per interval. Zero disables pacing.
func WithSearchRate(interval time.Duration) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// New creates a Client for baseURL (e.g. "http://localhost:8000").
// If timeout is zero, DefaultTimeout is used.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListProducts fetches the full product set. The server may answer with a bare
// array or with {"products": [...], "count": N}.
func (c *Client) ListProducts(ctx context.Context) ([]product.Product, error) {
	body, err := c.do(ctx, http.MethodGet, productsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// GetProduct fetches a single product. Returns ErrNotFound if absent.
func (c *Client) GetProduct(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product
	body, err := c.do(ctx, http.MethodGet, productPath(id), nil)
	if err != nil {
		return p, fmt.Errorf("get product %d: %w", id, err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("get product %d: parse response: %w", id, err)
	}
	return p, nil
}

// CreateProduct creates a product; the server assigns the id.
// Not safe to retry.
func (c *Client) CreateProduct(ctx context.Context, in product.Input) (product.Product, error) {
	var p product.Product
	body, err := c.do(ctx, http.MethodPost, productsPath, in)
	if err != nil {
		return p, fmt.Errorf("create product: %w", err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("create product: parse response: %w", err)
	}
	return p, nil
}

// UpdateProduct replaces the editable fields of product id.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in product.Input) (product.Product, error) {
	var p product.Product
	body, err := c.do(ctx, http.MethodPut, productPath(id), in)
	if err != nil {
		return p, fmt.Errorf("update product %d: %w", id, err)
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("update product %d: parse response: %w", id, err)
	}
	return p, nil
}

// DeleteProduct deletes product id.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, productPath(id), nil); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}

// AISearch sends a natural-language query to the ranking service and returns
// the ranked products (possibly empty). Cancel ctx to abandon a superseded query;
// the limiter wait is released by the same context.
func (c *Client) AISearch(ctx context.Context, query string) ([]product.Product, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("ai search: rate limiter: %w", err)
		}
	}

	body, err := c.do(ctx, http.MethodPost, aiSearchPath, aiSearchRequest{UserQuery: query})
	if err != nil {
		return nil, fmt.Errorf("ai search: %w", err)
	}
	products, err := decodeProducts(body)
	if err != nil {
		return nil, fmt.Errorf("ai search: %w", err)
	}
	return products, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

func productPath(id int64) string {
	return productsPath + "/" + strconv.FormatInt(id, 10)
}

// aiSearchRequest is the request body for the AI search endpoint.
type aiSearchRequest struct {
	UserQuery string `json:"user_query"`
}

// productList is the wrapper shape of list and search responses.
type productList struct {
	Products []product.Product `json:"products"`
	Count    int               `json:"count"`
}

// decodeProducts accepts a bare JSON array or a {"products": [...]} wrapper.
// Never returns a nil slice on success.
func decodeProducts(body []byte) ([]product.Product, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []product.Product{}, nil
	}

	var products []product.Product
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
	} else {
		var wrapped productList
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
		products = wrapped.Products
	}
	if products == nil {
		products = []product.Product{}
	}
	return products, nil
}
