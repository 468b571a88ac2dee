// Package client is a Go SDK for the produkku HTTP API. Besides plain API
// calls it implements the incremental listing protocol the UI relies on:
// pages accumulate via LoadMore, ShowPrevious shrinks the visible window
// without a network call, and drag reorders apply optimistically with
// rollback (see ProductList).
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Product mirrors the product resource returned by the API.
type Product struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Comment   string    `json:"comment"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User mirrors the user resource returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Pagination mirrors the listing metadata returned by the API.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	Limit       int   `json:"limit"`
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// DeleteStats summarizes the list after a delete.
type DeleteStats struct {
	RemainingProducts int64   `json:"remainingProducts"`
	TotalValue        float64 `json:"totalValue"`
}

// DeleteResult is the response of a delete call.
type DeleteResult struct {
	DeletedProduct Product     `json:"deletedProduct"`
	Stats          DeleteStats `json:"stats"`
}

// CreateProduct is the payload for creating a product.
type CreateProduct struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Comment string  `json:"comment,omitempty"`
}

// UpdateProduct is a partial product update; nil fields are not sent.
type UpdateProduct struct {
	Name     *string  `json:"name,omitempty"`
	Amount   *float64 `json:"amount,omitempty"`
	Comment  *string  `json:"comment,omitempty"`
	Position *int     `json:"position,omitempty"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client talks to the produkku HTTP API. The session cookie issued by Login
// is kept in an in-memory jar, mirroring a browser session.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New creates a Client for the API at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// do performs one JSON request/response round trip. Error responses are
// surfaced as *APIError with the server's error message.
func (c *Client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Login authenticates by email (creating the account on first login) and
// stores the session cookie for subsequent calls.
func (c *Client) Login(email string) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(http.MethodPost, "/auth/login", map[string]string{"email": email}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout clears the session on the server and in the local jar.
func (c *Client) Logout() error {
	return c.do(http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the user behind the current session.
func (c *Client) Me() (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ListParams describes a product listing: filters, sort and page size.
type ListParams struct {
	Search       string
	AmountFilter []string // bucket tokens, e.g. "0-99", "1000+"
	DateFilter   []string // today, week, month, year
	SortBy       string
	SortOrder    string
	Limit        int
}

func (p ListParams) values(page int) url.Values {
	v := url.Values{}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if len(p.AmountFilter) > 0 {
		v.Set("amountFilter", strings.Join(p.AmountFilter, ","))
	}
	if len(p.DateFilter) > 0 {
		v.Set("dateFilter", strings.Join(p.DateFilter, ","))
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", p.SortOrder)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	v.Set("page", strconv.Itoa(page))
	return v
}

// GetProducts fetches one page of products.
func (c *Client) GetProducts(params ListParams, page int) (*ProductPage, error) {
	var resp ProductPage
	path := "/products?" + params.values(page).Encode()
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(id string) (*Product, error) {
	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(http.MethodGet, "/products/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// CreateProduct creates a new product at the end of the list.
func (c *Client) CreateProduct(in CreateProduct) (*Product, error) {
	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(http.MethodPost, "/products", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// UpdateProduct applies a partial update to a product.
func (c *Client) UpdateProduct(id string, in UpdateProduct) (*Product, error) {
	var resp struct {
		Product Product `json:"product"`
	}
	if err := c.do(http.MethodPut, "/products/"+id, in, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

// DeleteProduct removes a product and returns it with updated list stats.
func (c *Client) DeleteProduct(id string) (*DeleteResult, error) {
	var resp DeleteResult
	if err := c.do(http.MethodDelete, "/products/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reorder submits the desired full order and returns the list as the server
// ordered it.
func (c *Client) Reorder(productIDs []string) ([]Product, error) {
	var resp struct {
		Products []Product `json:"products"`
	}
	body := map[string][]string{"productIds": productIDs}
	if err := c.do(http.MethodPut, "/products/reorder", body, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}
