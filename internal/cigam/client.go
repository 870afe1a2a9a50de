package cigam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cigamsync/config"
)

const dateLayout = "2006-01-02"

// Client talks to the CIGAM integration API over HTTP/JSON.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.CigamConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cigam request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cigam returned status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out struct {
		Status string `json:"status"`
	}
	if err := c.get(probeCtx, "/health", nil, &out); err != nil {
		return false
	}
	return true
}

func (c *Client) FetchLookups(ctx context.Context) (*Lookups, error) {
	var out Lookups
	if err := c.get(ctx, "/lookups", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CountProducts(ctx context.Context) (int64, error) {
	var out struct {
		Total int64 `json:"total"`
	}
	if err := c.get(ctx, "/products/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Total, nil
}

func (c *Client) FetchProductsChunk(ctx context.Context, afterReference string, limit int) ([]ProductRecord, error) {
	q := url.Values{}
	if afterReference != "" {
		q.Set("after", afterReference)
	}
	q.Set("limit", strconv.Itoa(limit))

	var out []ProductRecord
	if err := c.get(ctx, "/products", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchPrices(ctx context.Context) ([]PriceRecord, error) {
	var out []PriceRecord
	if err := c.get(ctx, "/prices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchSales(ctx context.Context, start, end time.Time, storeCodeFilter string) ([]SaleRecord, error) {
	q := url.Values{}
	q.Set("start", start.Format(dateLayout))
	q.Set("end", end.Format(dateLayout))
	if storeCodeFilter != "" {
		q.Set("store", storeCodeFilter)
	}

	var out []SaleRecord
	if err := c.get(ctx, "/sales", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}
