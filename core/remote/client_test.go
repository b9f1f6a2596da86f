package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestClient builds a client against the test server with a fast,
// deterministic retry policy.
func newTestClient(server *httptest.Server, maxRetries int) *Client {
	return &Client{
		httpClient: server.Client(),
		baseURL:    server.URL,
		token:      "test-token",
		limiter:    NewLimiter(1000, time.Second),
		policy: Policy{
			MaxRetries: maxRetries,
			BaseDelay:  1 * time.Millisecond,
			MaxDelay:   5 * time.Millisecond,
			Jitter:     noJitter,
		},
		logger: zap.NewNop(),
	}
}

func TestClient_RetriesThrottling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"locations": []Location{{ID: "L1", Name: "Main", Active: true}}})
	}))
	defer server.Close()

	c := newTestClient(server, 5)
	locations, err := c.ListLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, "Main", locations[0].Name)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_ThrottlingExhaustsBudget(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server, 2)
	_, err := c.ListLocations(context.Background())
	require.Error(t, err)
	assert.True(t, IsThrottle(err))
	// Initial attempt plus two retries.
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_TerminalErrorNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"invalid quantity"}`))
	}))
	defer server.Close()

	c := newTestClient(server, 5)
	err := c.SetInventoryLevel(context.Background(), "I1", "L1", -1)
	require.Error(t, err)
	assert.True(t, IsTerminal(err))
	// Exactly one attempt for a caller bug.
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"inventory_levels": []InventoryLevel{
			{InventoryItemID: "I1", LocationID: "L1", Available: 7},
		}})
	}))
	defer server.Close()

	c := newTestClient(server, 3)
	available, err := c.GetInventoryLevel(context.Background(), "I1", "L1")
	require.NoError(t, err)
	assert.Equal(t, 7, available)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClient_GetVariant(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/variants/V1.json":
			_ = json.NewEncoder(w).Encode(map[string]any{"variant": Variant{
				ID: "V1", ProductID: "P1", Barcode: "111", InventoryItemID: "I1",
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server, 1)

	variant, err := c.GetVariant(context.Background(), "V1")
	require.NoError(t, err)
	require.NotNil(t, variant)
	assert.Equal(t, "111", variant.Barcode)

	// Absence is a business outcome, not an error.
	missing, err := c.GetVariant(context.Background(), "V404")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClient_SearchAndListVariants(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/variants/search.json":
			assert.Equal(t, `barcode:"111" OR barcode:"222"`, r.URL.Query().Get("query"))
			_ = json.NewEncoder(w).Encode(map[string]any{"variants": []Variant{
				{ID: "V1", Barcode: "111"},
			}})
		case "/admin/variants.json":
			if r.URL.Query().Get("page_info") == "" {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"variants":    []Variant{{ID: "V1", Barcode: "111"}},
					"next_cursor": "page2",
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"variants": []Variant{{ID: "V2", Barcode: "222"}},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newTestClient(server, 1)

	found, err := c.SearchVariants(context.Background(), `barcode:"111" OR barcode:"222"`, 50)
	require.NoError(t, err)
	require.Len(t, found, 1)

	first, cursor, err := c.ListVariants(context.Background(), "", 250)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "page2", cursor)

	second, cursor, err := c.ListVariants(context.Background(), cursor, 250)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Empty(t, cursor)
}

func TestClient_SetInventoryLevelPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/admin/inventory_levels/set.json", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Access-Token"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "I1", body["inventory_item_id"])
		assert.Equal(t, "L1", body["location_id"])
		assert.EqualValues(t, 5, body["available"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(server, 1)
	require.NoError(t, c.SetInventoryLevel(context.Background(), "I1", "L1", 5))
}
