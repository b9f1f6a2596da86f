package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// API defines the remote commerce operations the sync engine depends on.
type API interface {
	// SearchVariants runs an indexed query-language search (e.g. a
	// disjunction of barcode terms) and returns matching variants.
	SearchVariants(ctx context.Context, query string, limit int) ([]Variant, error)
	// GetVariant fetches one variant by its remote id. A missing record
	// returns (nil, nil), not an error.
	GetVariant(ctx context.Context, id string) (*Variant, error)
	// ListVariants pages through the full catalog. An empty cursor starts
	// from the beginning; an empty next cursor means the last page.
	ListVariants(ctx context.Context, cursor string, limit int) ([]Variant, string, error)
	// ListLocations returns all stock locations.
	ListLocations(ctx context.Context) ([]Location, error)
	// GetInventoryLevel reads the available quantity of an inventory item
	// at a location. A level that does not exist yet reads as zero.
	GetInventoryLevel(ctx context.Context, inventoryItemID, locationID string) (int, error)
	// SetInventoryLevel writes an absolute available quantity. Absolute,
	// not delta, so a retried write is idempotent.
	SetInventoryLevel(ctx context.Context, inventoryItemID, locationID string, quantity int) error
}

// Client implements API over HTTP JSON with rate limiting and retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *Limiter
	policy     Policy
	logger     *zap.Logger
}

// NewClient creates a remote API client. The limiter must be the shared
// process-wide instance; see Limiter.
func NewClient(cfg Config, limiter *Limiter, logger *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	// Strict transport timeouts so a hung remote counts as a network
	// failure instead of stalling a whole sync run.
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	policy := DefaultPolicy()
	if cfg.MaxRetries > 0 {
		policy.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelayMS > 0 {
		policy.BaseDelay = time.Duration(cfg.BaseDelayMS) * time.Millisecond
	}
	if cfg.MaxDelayMS > 0 {
		policy.MaxDelay = time.Duration(cfg.MaxDelayMS) * time.Millisecond
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		baseURL: strings.TrimRight(cfg.Endpoint, "/"),
		token:   cfg.Token,
		limiter: limiter,
		policy:  policy,
		logger:  logger,
	}
}

// SearchVariants implements API.
func (c *Client) SearchVariants(ctx context.Context, query string, limit int) ([]Variant, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", limit))

	var out struct {
		Variants []Variant `json:"variants"`
	}
	if err := c.call(ctx, http.MethodGet, "/admin/variants/search.json", params, nil, &out); err != nil {
		return nil, err
	}
	return out.Variants, nil
}

// GetVariant implements API.
func (c *Client) GetVariant(ctx context.Context, id string) (*Variant, error) {
	var out struct {
		Variant Variant `json:"variant"`
	}
	err := c.call(ctx, http.MethodGet, "/admin/variants/"+url.PathEscape(id)+".json", nil, nil, &out)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out.Variant, nil
}

// ListVariants implements API.
func (c *Client) ListVariants(ctx context.Context, cursor string, limit int) ([]Variant, string, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		params.Set("page_info", cursor)
	}

	var out struct {
		Variants   []Variant `json:"variants"`
		NextCursor string    `json:"next_cursor"`
	}
	if err := c.call(ctx, http.MethodGet, "/admin/variants.json", params, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Variants, out.NextCursor, nil
}

// ListLocations implements API.
func (c *Client) ListLocations(ctx context.Context) ([]Location, error) {
	var out struct {
		Locations []Location `json:"locations"`
	}
	if err := c.call(ctx, http.MethodGet, "/admin/locations.json", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Locations, nil
}

// GetInventoryLevel implements API.
func (c *Client) GetInventoryLevel(ctx context.Context, inventoryItemID, locationID string) (int, error) {
	params := url.Values{}
	params.Set("inventory_item_id", inventoryItemID)
	params.Set("location_id", locationID)

	var out struct {
		InventoryLevels []InventoryLevel `json:"inventory_levels"`
	}
	if err := c.call(ctx, http.MethodGet, "/admin/inventory_levels.json", params, nil, &out); err != nil {
		return 0, err
	}
	if len(out.InventoryLevels) == 0 {
		return 0, nil
	}
	return out.InventoryLevels[0].Available, nil
}

// SetInventoryLevel implements API.
func (c *Client) SetInventoryLevel(ctx context.Context, inventoryItemID, locationID string, quantity int) error {
	body := map[string]any{
		"inventory_item_id": inventoryItemID,
		"location_id":       locationID,
		"available":         quantity,
	}
	return c.call(ctx, http.MethodPost, "/admin/inventory_levels/set.json", nil, body, nil)
}

// call issues one logical API call: wait for a limiter slot, round-trip,
// classify the failure, retry within the policy budget. Throttled attempts
// are forgiven on the limiter since they never consumed remote quota.
func (c *Client) call(ctx context.Context, method, path string, params url.Values, body, out any) error {
	attempt := 0
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := c.roundTrip(ctx, method, path, params, body, out)
		if err == nil {
			return nil
		}

		switch {
		case IsThrottle(err):
			c.limiter.Forgive()
			if c.policy.Exhausted(attempt) {
				return fmt.Errorf("throttled after %d retries: %w", attempt, err)
			}
			delay := c.policy.BackoffDelay(attempt)
			c.logger.Warn("Remote API throttled, backing off",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			if serr := sleepWithContext(ctx, delay); serr != nil {
				return serr
			}
		case isTransient(err):
			if c.policy.Exhausted(attempt) {
				return fmt.Errorf("remote call failed after %d retries: %w", attempt, err)
			}
			delay := c.policy.TransientDelay()
			c.logger.Warn("Remote call failed, retrying",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if serr := sleepWithContext(ctx, delay); serr != nil {
				return serr
			}
		default:
			return err
		}
		attempt++
	}
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Access-Token", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newError(resp.StatusCode, resp.Status, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}
