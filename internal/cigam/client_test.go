package cigam

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cigamsync/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(config.CigamConfig{
		BaseURL:        server.URL,
		Token:          "test-token",
		TimeoutSeconds: 5,
	})
	return client, server
}

func TestIsAvailable(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))

	assert.True(t, client.IsAvailable(context.Background()))
}

func TestIsAvailableFalseOnServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	assert.False(t, client.IsAvailable(context.Background()))
}

func TestFetchProductsChunkQueryParams(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "REF-0010", r.URL.Query().Get("after"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]ProductRecord{
			{Reference: "REF-0011", Description: "Camisa", SalePrice: "99.90",
				Variants: []VariantRecord{{Barcode: "111", SizeCode: "M"}}},
		})
	}))

	records, err := client.FetchProductsChunk(context.Background(), "REF-0010", 50)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "REF-0011", records[0].Reference)
	assert.Equal(t, "M", records[0].Variants[0].SizeCode)
}

func TestFetchProductsChunkOmitsEmptyCursor(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAfter := r.URL.Query()["after"]
		assert.False(t, hasAfter)
		json.NewEncoder(w).Encode([]ProductRecord{})
	}))

	records, err := client.FetchProductsChunk(context.Background(), "", 100)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchSalesDateRange(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sales", r.URL.Path)
		assert.Equal(t, "2026-08-01", r.URL.Query().Get("start"))
		assert.Equal(t, "2026-08-31", r.URL.Query().Get("end"))
		assert.Equal(t, "001", r.URL.Query().Get("store"))
		json.NewEncoder(w).Encode([]SaleRecord{
			{EmployeeCPF: "11122233344", StoreCode: "001", Total: "350.00", Qty: 4},
		})
	}))

	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchSales(context.Background(), start, end, "001")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "350.00", records[0].Total)
}

func TestFetchLookupsErrorOnBadStatus(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.FetchLookups(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
