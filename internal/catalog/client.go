package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultURL is the product catalog endpoint used when none is configured.
const DefaultURL = "https://dummyjson.com/products"

// ErrCatalogStatus is returned when the catalog answers with a non-2xx status.
var ErrCatalogStatus = errors.New("catalog returned unexpected status")

// Fetcher reads the product collection. Satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Product, error)
}

// ClientOptions configures a Client. Zero values mean "no limit".
type ClientOptions struct {
	URL          string
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

// Client performs the single catalog read.
type Client struct {
	http *http.Client
	opts ClientOptions
}

// NewClient creates a catalog client. A nil httpClient uses a fresh
// http.Client with opts.Timeout.
func NewClient(httpClient *http.Client, opts ClientOptions) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{http: httpClient, opts: opts}
}

// URL returns the endpoint this client reads from.
func (c *Client) URL() string {
	return c.opts.URL
}

// response is the wire shape of the catalog endpoint. Only the first page
// the endpoint returns by default is read.
type response struct {
	Products []Product `json:"products"`
}

// Fetch issues one GET to the catalog endpoint and decodes the products.
func (c *Client) Fetch(ctx context.Context) ([]Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrCatalogStatus, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if c.opts.MaxBodyBytes > 0 {
		body = io.LimitReader(resp.Body, c.opts.MaxBodyBytes)
	}

	var payload response
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	seen := make(map[int64]struct{}, len(payload.Products))
	for _, p := range payload.Products {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("decode catalog response: %w: %d", ErrDuplicateID, p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	return payload.Products, nil
}
