// internal/pipeline/resolver/handler.go
package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "entity-resolver"

type Handler struct {
	config   *Config
	esClient *elasticsearch.Client
	logger   logger.Logger
}

func NewHandler(config *Config, esClient *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		esClient: esClient,
		logger: log.WithFields(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// categorySearch describes one similarity lookup.
type categorySearch struct {
	name  string
	index string
	topK  int
	kind  models.EntityKind
}

// Execute resolves free text into ranked candidates per category. A category
// whose search fails resolves to an empty list; resolution itself never
// fails the request.
func (h *Handler) Execute(ctx context.Context, query string) *Result {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	searches := []categorySearch{
		{"products", h.config.Indexes.Products, h.config.ProductTopK, models.EntityKindProduct},
		{"locations", h.config.Indexes.Locations, h.config.LocationTopK, models.EntityKindLocation},
		{"events", h.config.Indexes.Events, h.config.EventTopK, models.EntityKindEvent},
		{"calendar", h.config.Indexes.Calendar, h.config.CalendarTopK, models.EntityKindDate},
	}

	result := &Result{}
	for _, s := range searches {
		entities, err := h.searchCategory(ctx, s, query)
		if err != nil {
			metrics.PipelineStageFailures.WithLabelValues(StageName, "SEARCH_UNAVAILABLE").Inc()
			h.logger.Warn("similarity search degraded to empty candidates", map[string]interface{}{
				"category": s.name,
				"error":    err.Error(),
			})
			entities = nil
		}
		switch s.kind {
		case models.EntityKindProduct:
			result.Products = entities
		case models.EntityKindLocation:
			result.Locations = entities
		case models.EntityKindEvent:
			result.Events = entities
		case models.EntityKindDate:
			result.Dates = entities
		}
	}

	result.Schema = h.searchSchemaMetadata(ctx, query)

	h.logger.Debug("entities resolved", map[string]interface{}{
		"products":  len(result.Products),
		"locations": len(result.Locations),
		"events":    len(result.Events),
		"dates":     len(result.Dates),
	})

	return result
}

func (h *Handler) searchCategory(ctx context.Context, s categorySearch, query string) ([]models.ResolvedEntity, error) {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "display_name^2", "description", "aliases", "category", "department", "market", "region"},
				"fuzziness": "AUTO",
			},
		},
		"size": s.topK,
	}

	hits, err := h.search(ctx, s.index, queryBody)
	if err != nil {
		return nil, err
	}

	entities := make([]models.ResolvedEntity, 0, len(hits))
	for _, hit := range hits {
		entity := models.ResolvedEntity{
			ID:          extractString(hit.source, "id", string(s.kind)+"_id"),
			DisplayName: extractString(hit.source, "name", "display_name", string(s.kind)+"_name"),
			Kind:        s.kind,
			Score:       hit.score,
			Attributes:  hit.source,
		}
		if entity.ID == "" {
			continue
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// searchSchemaMetadata finds the tables relevant to the question. Failures
// degrade to no schema hints.
func (h *Handler) searchSchemaMetadata(ctx context.Context, query string) []models.SchemaMetadata {
	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"table_name", "description", "columns"},
			},
		},
		"size": h.config.MetadataTopK,
	}

	hits, err := h.search(ctx, h.config.Indexes.Metadata, queryBody)
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "SEARCH_UNAVAILABLE").Inc()
		h.logger.Warn("schema metadata search degraded to empty", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	var out []models.SchemaMetadata
	for _, hit := range hits {
		meta := models.SchemaMetadata{
			Table:       extractString(hit.source, "table_name", "table"),
			Description: extractString(hit.source, "description"),
		}
		if cols, ok := hit.source["columns"].([]interface{}); ok {
			for _, c := range cols {
				if col, ok := c.(string); ok {
					meta.Columns = append(meta.Columns, col)
				}
			}
		}
		if meta.Table != "" {
			out = append(out, meta)
		}
	}
	return out
}

type searchHit struct {
	source map[string]interface{}
	score  float64
}

func (h *Handler) search(ctx context.Context, index string, queryBody map[string]interface{}) ([]searchHit, error) {
	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{index},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.String())
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	hitsWrapper, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	rawHits, ok := hitsWrapper["hits"].([]interface{})
	if !ok {
		return nil, nil
	}

	var hits []searchHit
	for _, raw := range rawHits {
		hm, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hm["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		score, _ := hm["_score"].(float64)
		hits = append(hits, searchHit{source: source, score: score})
	}
	return hits, nil
}

func extractString(source map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if val, ok := source[key].(string); ok && val != "" {
			return val
		}
	}
	return ""
}
