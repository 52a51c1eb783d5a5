// internal/pipeline/executor/handler.go
package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"planiq/internal/common/database"
	"planiq/internal/common/logger"
	"planiq/internal/common/metrics"
	"planiq/internal/models"
)

const StageName = "query-executor"

const cacheKeyPrefix = "planiq:qcache:"

type Handler struct {
	config *Config
	db     *database.PostgresClient
	cache  *redis.Client
	logger logger.Logger
}

// NewHandler builds the executor. cache may be nil; every query then goes
// straight to the database.
func NewHandler(config *Config, db *database.PostgresClient, cache *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		cache:  cache,
		logger: log.WithFields(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Execute runs one generated query and materializes the rows. The result
// always carries the query text; a database failure becomes a failure
// status rather than an error so the pipeline can still answer.
func (h *Handler) Execute(ctx context.Context, query string) *models.QueryExecutionResult {
	start := time.Now()
	defer func() {
		metrics.PipelineStageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	if cached := h.cachedResult(ctx, query); cached != nil {
		return cached
	}

	result := &models.QueryExecutionResult{GeneratedQuery: query}

	rows, err := h.db.Query(ctx, query)
	if err != nil {
		return h.fail(result, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return h.fail(result, err)
	}
	result.Columns = columns

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return h.fail(result, err)
		}

		record := make(models.RowRecord, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return h.fail(result, err)
	}

	result.RowCount = len(result.Rows)
	if result.RowCount == 0 {
		result.Status = models.ExecStatusNoData
		h.logger.Warn("query matched no rows", map[string]interface{}{
			"query": query,
		})
		return result
	}

	result.Status = models.ExecStatusSuccess
	h.storeResult(ctx, query, result)
	h.logger.Info("query executed", map[string]interface{}{
		"rows":        result.RowCount,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return result
}

func cacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

// cachedResult is a best-effort read. Redis being down or holding garbage
// just means a database round trip.
func (h *Handler) cachedResult(ctx context.Context, query string) *models.QueryExecutionResult {
	if h.cache == nil {
		return nil
	}

	raw, err := h.cache.Get(ctx, cacheKey(query)).Result()
	if err != nil {
		if err != redis.Nil {
			h.logger.Debug("result cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil
	}

	var result models.QueryExecutionResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil
	}

	h.logger.Debug("result cache hit", map[string]interface{}{
		"rows": result.RowCount,
	})
	return &result
}

// storeResult caches successful results only. No-data and failed runs are
// not cached so new data shows up as soon as it lands.
func (h *Handler) storeResult(ctx context.Context, query string, result *models.QueryExecutionResult) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, cacheKey(query), payload, h.config.CacheTTL).Err(); err != nil {
		h.logger.Debug("result cache write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) fail(result *models.QueryExecutionResult, err error) *models.QueryExecutionResult {
	code := "QUERY_EXECUTION_FAILED"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "QUERY_TIMEOUT"
	}
	metrics.PipelineStageFailures.WithLabelValues(StageName, code).Inc()
	h.logger.Error("query execution failed", map[string]interface{}{
		"query": result.GeneratedQuery,
		"error": err.Error(),
	})

	result.Status = models.ExecStatusFailure
	result.Error = err.Error()
	result.Rows = nil
	result.RowCount = 0
	return result
}

// normalizeValue converts database-native values into JSON-safe primitives:
// timestamps to ISO-8601 strings, numeric byte slices to int or float, and
// anything unrecognized to its string form.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		return v.Format(time.RFC3339)
	case []byte:
		return normalizeBytes(v)
	case string, bool, int, int32, int64, float32, float64:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// normalizeBytes handles lib/pq returning NUMERIC columns as raw bytes.
// Whole numbers come back as int64 so counts do not render as "8.0".
func normalizeBytes(raw []byte) interface{} {
	s := string(raw)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	}
	return s
}

// Ping reports database reachability for the health endpoint.
func (h *Handler) Ping(ctx context.Context) error {
	return h.db.Ping(ctx)
}
