// internal/pipeline/expander/handler.go
package expander

import (
	"context"
	"strings"
	"time"

	"planiq/internal/common/database"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "relationship-expander"

type Handler struct {
	config *Config
	graph  *database.GraphClient
	logger logger.Logger
}

func NewHandler(config *Config, graph *database.GraphClient, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		graph:  graph,
		logger: log.WithFields(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Execute expands seed entities along category and market relationships.
// When the graph is unreachable, every category expands to nothing and the
// pipeline keeps going (degraded-but-functional).
func (h *Handler) Execute(ctx context.Context, input *Input) *Result {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	result := &Result{}

	if !h.ensureConnected(ctx) {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GRAPH_UNAVAILABLE").Inc()
		h.logger.Warn("graph unreachable, expansions degraded to empty", nil)
		return result
	}

	result.Products = h.expandProducts(ctx, input.ProductIDs)
	result.Locations = h.expandLocations(ctx, input.LocationIDs)
	result.Locations = append(result.Locations, h.expandEventLocations(ctx, input.EventIDs)...)
	result.Events = h.findRelatedEvents(ctx, input.ProductIDs, input.LocationIDs)

	h.logger.Debug("relationships expanded", map[string]interface{}{
		"seedProducts":      len(input.ProductIDs),
		"seedLocations":     len(input.LocationIDs),
		"seedEvents":        len(input.EventIDs),
		"expandedProducts":  len(result.Products),
		"expandedLocations": len(result.Locations),
		"relatedEvents":     len(result.Events),
	})

	return result
}

// ensureConnected gates every traversal batch on a live server check.
func (h *Handler) ensureConnected(ctx context.Context) bool {
	return h.graph.Ping(ctx) == nil
}

// expandProducts walks product -> category -> sibling products.
func (h *Handler) expandProducts(ctx context.Context, seedIDs []string) []models.ResolvedEntity {
	if len(seedIDs) == 0 {
		return nil
	}

	script := `g.V(ids).out('IN_CATEGORY').in('IN_CATEGORY')` +
		`.where(without('seeds')).dedup().limit(fanout)` +
		`.project('id','name','category')` +
		`.by(id).by(values('name')).by(out('IN_CATEGORY').values('name'))`

	vertexIDs := make([]string, 0, len(seedIDs))
	for _, id := range seedIDs {
		vertexIDs = append(vertexIDs, toGraphProductID(id))
	}

	rows, err := h.graph.EvalMaps(ctx, script, map[string]interface{}{
		"ids":    vertexIDs,
		"seeds":  vertexIDs,
		"fanout": h.config.CategoryFanout,
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GRAPH_UNAVAILABLE").Inc()
		h.logger.Warn("product expansion failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	return toEntities(rows, models.EntityKindProduct, fromGraphProductID)
}

// expandLocations walks location -> market -> sibling stores.
func (h *Handler) expandLocations(ctx context.Context, seedIDs []string) []models.ResolvedEntity {
	if len(seedIDs) == 0 {
		return nil
	}

	script := `g.V(ids).out('IN_MARKET').in('IN_MARKET')` +
		`.where(without('seeds')).dedup().limit(fanout)` +
		`.project('id','name','market')` +
		`.by(id).by(values('name')).by(out('IN_MARKET').values('name'))`

	rows, err := h.graph.EvalMaps(ctx, script, map[string]interface{}{
		"ids":    seedIDs,
		"seeds":  seedIDs,
		"fanout": h.config.MarketFanout,
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GRAPH_UNAVAILABLE").Inc()
		h.logger.Warn("location expansion failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	return toEntities(rows, models.EntityKindLocation, nil)
}

// expandEventLocations pulls the stores hosting or affected by the seed
// events, so an event-anchored question still reaches store-level rows.
func (h *Handler) expandEventLocations(ctx context.Context, eventIDs []string) []models.ResolvedEntity {
	if len(eventIDs) == 0 {
		return nil
	}

	script := `g.V(ids).both('HOSTS_EVENT','AFFECTED_BY').hasLabel('Location')` +
		`.dedup().limit(fanout)` +
		`.project('id','name','market')` +
		`.by(id).by(values('name')).by(out('IN_MARKET').values('name'))`

	rows, err := h.graph.EvalMaps(ctx, script, map[string]interface{}{
		"ids":    eventIDs,
		"fanout": h.config.MarketFanout,
	})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GRAPH_UNAVAILABLE").Inc()
		h.logger.Warn("event location expansion failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	return toEntities(rows, models.EntityKindLocation, nil)
}

// findRelatedEvents surfaces events touching any seed product or location.
func (h *Handler) findRelatedEvents(ctx context.Context, productIDs, locationIDs []string) []models.ResolvedEntity {
	if len(productIDs) == 0 && len(locationIDs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(productIDs)+len(locationIDs))
	for _, id := range productIDs {
		ids = append(ids, toGraphProductID(id))
	}
	ids = append(ids, locationIDs...)

	script := `g.V(ids).both('AFFECTED_BY','HOSTS_EVENT').hasLabel('Event')` +
		`.dedup().limit(20)` +
		`.project('id','name','event_type')` +
		`.by(id).by(values('name')).by(values('EventType'))`

	rows, err := h.graph.EvalMaps(ctx, script, map[string]interface{}{"ids": ids})
	if err != nil {
		metrics.PipelineStageFailures.WithLabelValues(StageName, "GRAPH_UNAVAILABLE").Inc()
		h.logger.Warn("event lookup failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	return toEntities(rows, models.EntityKindEvent, nil)
}

func toEntities(rows []map[string]interface{}, kind models.EntityKind, mapID func(string) string) []models.ResolvedEntity {
	var out []models.ResolvedEntity
	for _, row := range rows {
		id, _ := row["id"].(string)
		if id == "" {
			continue
		}
		if mapID != nil {
			id = mapID(id)
		}
		name, _ := row["name"].(string)
		out = append(out, models.ResolvedEntity{
			ID:          id,
			DisplayName: name,
			Kind:        kind,
			Attributes:  row,
		})
	}
	return out
}

// Product vertices use P_<n> ids while search documents use PROD_<n>.
func toGraphProductID(id string) string {
	if strings.HasPrefix(id, "PROD_") {
		return "P_" + strings.TrimPrefix(id, "PROD_")
	}
	return id
}

func fromGraphProductID(id string) string {
	if strings.HasPrefix(id, "P_") && !strings.HasPrefix(id, "PROD_") {
		return "PROD_" + strings.TrimPrefix(id, "P_")
	}
	return id
}
