package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verdantfoods/storefront/internal/domain"
)

// sessionHeader carries the anonymous client session identity so the backend
// can correlate cart activity across requests.
const sessionHeader = "X-Session-Id"

// Client is a Source backed by the store's REST API.
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client
}

// NewClient creates a catalog client for the API at baseURL.
// sessionID may be empty; when set it is forwarded on every request.
func NewClient(baseURL, sessionID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		sessionID: sessionID,
		http:      &http.Client{Timeout: timeout},
	}
}

// SetSessionID updates the session identity forwarded on requests. Called
// once after cart hydration establishes the identity; not safe to call
// concurrently with in-flight requests.
func (c *Client) SetSessionID(id string) {
	c.sessionID = id
}

// envelope is the API's uniform response wrapper.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ProductsByIDs fetches current product details for the given IDs in one
// round trip. IDs the backend no longer knows are missing from the result.
func (c *Client) ProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, domain.Internal(err, "catalog.byids", "failed to encode product ID list")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/product/by-ids", bytes.NewReader(body))
	if err != nil {
		return nil, domain.Internal(err, "catalog.byids", "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	var products []domain.Product
	if err := c.do(req, "catalog.byids", &products); err != nil {
		return nil, err
	}

	return products, nil
}

// ListProducts fetches one page of the browsable catalog.
func (c *Client) ListProducts(ctx context.Context, params ListParams) (*ProductPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	if params.Size > 0 {
		q.Set("size", strconv.Itoa(params.Size))
	}
	if params.Name != "" {
		q.Set("name", params.Name)
	}
	if params.Origin != "" {
		q.Set("origin", params.Origin)
	}
	if params.CategoryName != "" {
		q.Set("categoryName", params.CategoryName)
	}
	if params.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatInt(params.MinPrice, 10))
	}
	if params.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatInt(params.MaxPrice, 10))
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/product/search?"+q.Encode(), nil)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list", "failed to build request")
	}

	// The search endpoint returns Spring-style paging metadata.
	var page struct {
		Content []domain.Product `json:"content"`
		Page    struct {
			Size          int   `json:"size"`
			Number        int   `json:"number"`
			TotalElements int64 `json:"totalElements"`
			TotalPages    int   `json:"totalPages"`
		} `json:"page"`
	}
	if err := c.do(req, "catalog.list", &page); err != nil {
		return nil, err
	}

	return &ProductPage{
		Content:       page.Content,
		Page:          page.Page.Number,
		Size:          page.Page.Size,
		TotalElements: page.Page.TotalElements,
		TotalPages:    page.Page.TotalPages,
	}, nil
}

// do executes the request and decodes the envelope's result into out.
func (c *Client) do(req *http.Request, op string, out interface{}) error {
	if c.sessionID != "" {
		req.Header.Set(sessionHeader, c.sessionID)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Unavailable(err, op, "failed to reach the product catalog")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return domain.Unavailable(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			op, "the product catalog is temporarily unavailable")
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Errorf(domain.EINVALID, op, "catalog rejected the request with status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return domain.Unavailable(err, op, "failed to decode catalog response")
	}

	if err := json.Unmarshal(env.Result, out); err != nil {
		return domain.Unavailable(err, op, "failed to decode catalog response")
	}

	return nil
}
