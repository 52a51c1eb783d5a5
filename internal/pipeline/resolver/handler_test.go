package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planiq/internal/common/config"
	"planiq/internal/common/logger"
	"planiq/internal/models"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		ProductTopK:  5,
		LocationTopK: 10,
		EventTopK:    5,
		CalendarTopK: 20,
		MetadataTopK: 3,
		Indexes: config.IndexConfig{
			Products:  "products-index",
			Locations: "locations-index",
			Events:    "events-index",
			Calendar:  "calendar-index",
			Metadata:  "metadata-index",
		},
	}
}

func newFakeSearchServer(t *testing.T, docsByIndex map[string][]map[string]interface{}) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		index := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), "/_search")

		docs := docsByIndex[index]
		hits := make([]map[string]interface{}, 0, len(docs))
		for i, doc := range docs {
			hits = append(hits, map[string]interface{}{
				"_score":  10.0 - float64(i),
				"_source": doc,
			})
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{
				"hits": hits,
			},
		})
	}))
}

func newESClient(t *testing.T, url string) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	require.NoError(t, err)
	return client
}

func TestHandler_Execute_ResolvesAllCategories(t *testing.T) {
	server := newFakeSearchServer(t, map[string][]map[string]interface{}{
		"products-index": {
			{"product_id": "PROD_1", "name": "Sandwiches", "category": "Deli"},
			{"product_id": "PROD_2", "name": "Tomatoes", "category": "Produce"},
		},
		"locations-index": {
			{"location_id": "LOC_7", "name": "Store 7", "region": "northeast"},
		},
		"events-index": {
			{"event_id": "EVT_3", "name": "Thanksgiving"},
		},
		"calendar-index": {
			{"date_id": "2025-11-08", "name": "Week 45", "date": "2025-11-08"},
		},
		"metadata-index": {
			{"table_name": "sales_fact", "description": "weekly sales", "columns": []string{"sales_units", "total_amount"}},
		},
	})
	defer server.Close()

	handler := NewHandler(createTestConfig(), newESClient(t, server.URL), logger.NewTestLogger(t))

	result := handler.Execute(context.Background(), "sandwich sales in store 7")

	require.Len(t, result.Products, 2)
	assert.Equal(t, "PROD_1", result.Products[0].ID)
	assert.Equal(t, "Sandwiches", result.Products[0].DisplayName)
	assert.Equal(t, models.EntityKindProduct, result.Products[0].Kind)
	assert.Greater(t, result.Products[0].Score, result.Products[1].Score)

	require.Len(t, result.Locations, 1)
	assert.Equal(t, "LOC_7", result.Locations[0].ID)

	require.Len(t, result.Events, 1)
	require.Len(t, result.Dates, 1)

	require.Len(t, result.Schema, 1)
	assert.Equal(t, "sales_fact", result.Schema[0].Table)
	assert.Contains(t, result.Schema[0].Columns, "sales_units")
}

func TestHandler_Execute_UnreachableSearchYieldsEmptyCategories(t *testing.T) {
	server := newFakeSearchServer(t, nil)
	server.Close() // all requests fail

	handler := NewHandler(createTestConfig(), newESClient(t, server.URL), logger.NewNoOpLogger())

	result := handler.Execute(context.Background(), "sales last week")

	assert.Empty(t, result.Products)
	assert.Empty(t, result.Locations)
	assert.Empty(t, result.Events)
	assert.Empty(t, result.Dates)
	assert.Empty(t, result.Schema)
}

func TestHandler_Execute_SearchErrorYieldsEmptyCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	handler := NewHandler(createTestConfig(), newESClient(t, server.URL), logger.NewNoOpLogger())

	result := handler.Execute(context.Background(), "inventory by region")

	assert.Empty(t, result.Products)
	assert.Empty(t, result.Locations)
}

func TestHandler_Execute_SkipsHitsWithoutIDs(t *testing.T) {
	server := newFakeSearchServer(t, map[string][]map[string]interface{}{
		"products-index": {
			{"name": "orphan without id"},
			{"product_id": "PROD_9", "name": "Lettuce"},
		},
	})
	defer server.Close()

	handler := NewHandler(createTestConfig(), newESClient(t, server.URL), logger.NewNoOpLogger())

	result := handler.Execute(context.Background(), "lettuce")

	require.Len(t, result.Products, 1)
	assert.Equal(t, "PROD_9", result.Products[0].ID)
}
