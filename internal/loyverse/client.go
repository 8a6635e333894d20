// Package loyverse talks to the Loyverse POS API and normalizes the
// receipts it returns.
package loyverse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL  = "https://api.loyverse.com/v1.0"
	DefaultTimeout  = 30 * time.Second
	DefaultPageSize = 250
)

type Config struct {
	BaseURL  string
	Token    string
	StoreID  string
	Timeout  time.Duration
	PageSize int
}

type Client struct {
	baseURL  string
	token    string
	storeID  string
	timeout  time.Duration
	pageSize int
	http     *http.Client
}

// Page is one page of raw receipts. An empty Cursor means the listing is exhausted.
type Page struct {
	Receipts []json.RawMessage
	Cursor   string
}

// APIError is a non-2xx answer from the POS API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("loyverse api: status %d: %s", e.StatusCode, e.Body)
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize < 1 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		storeID:  cfg.StoreID,
		timeout:  cfg.Timeout,
		pageSize: cfg.PageSize,
		http:     &http.Client{},
	}
}

// FetchReceipts fetches one page of receipts created in [from, to). Each
// call is bounded by the client timeout.
func (c *Client) FetchReceipts(ctx context.Context, from, to time.Time, cursor string) (Page, error) {
	query := url.Values{}
	query.Set("created_at_min", from.UTC().Format(time.RFC3339))
	query.Set("created_at_max", to.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if c.storeID != "" {
		query.Set("store_id", c.storeID)
	}
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var body struct {
		Receipts      []json.RawMessage `json:"receipts"`
		Cursor        string            `json:"cursor"`
		NextPageToken string            `json:"next_page_token"`
	}
	if err := c.get(ctx, "/receipts", query, &body); err != nil {
		return Page{}, err
	}

	next := body.Cursor
	if next == "" {
		next = body.NextPageToken
	}
	return Page{Receipts: body.Receipts, Cursor: next}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("loyverse api: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return &APIError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("loyverse api: decode %s: %w", path, err)
	}
	return nil
}
