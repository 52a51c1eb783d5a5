// internal/pipeline/executor/handler_test.go
package executor

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planiq/internal/common/database"
	"planiq/internal/common/logger"
	"planiq/internal/models"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	handler := NewHandler(
		&Config{Timeout: 5 * time.Second},
		&database.PostgresClient{DB: db},
		nil,
		logger.NewTestLogger(t),
	)
	return handler, mock
}

func newCachedTestHandler(t *testing.T, ttl time.Duration) (*Handler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	handler := NewHandler(
		&Config{Timeout: 5 * time.Second, CacheTTL: ttl},
		&database.PostgresClient{DB: db},
		cache,
		logger.NewTestLogger(t),
	)
	return handler, mock
}

func TestExecute_NormalizesRows(t *testing.T) {
	handler, mock := newTestHandler(t)

	query := "SELECT product, revenue, units, sold_on FROM sales LIMIT 50"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"product", "revenue", "units", "sold_on"}).
			AddRow("Sandwiches", []byte("123.45"), []byte("8"), time.Date(2025, 11, 8, 0, 0, 0, 0, time.UTC)).
			AddRow("Milk", []byte("99.00"), []byte("3"), time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)),
	)

	result := handler.Execute(context.Background(), query)

	require.Equal(t, models.ExecStatusSuccess, result.Status)
	require.Equal(t, 2, result.RowCount)
	assert.Equal(t, query, result.GeneratedQuery)
	assert.Equal(t, []string{"product", "revenue", "units", "sold_on"}, result.Columns)

	first := result.Rows[0]
	assert.Equal(t, "Sandwiches", first["product"])
	assert.Equal(t, 123.45, first["revenue"])
	// Whole-number numerics come back as integers, not floats.
	assert.Equal(t, int64(8), first["units"])
	assert.Equal(t, "2025-11-08T00:00:00Z", first["sold_on"])

	// 99.00 is whole, so it normalizes to an integer too.
	assert.Equal(t, int64(99), result.Rows[1]["revenue"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ZeroRowsIsNoData(t *testing.T) {
	handler, mock := newTestHandler(t)

	query := "SELECT product FROM sales WHERE product = 'Unobtainium' LIMIT 50"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"product"}),
	)

	result := handler.Execute(context.Background(), query)

	assert.Equal(t, models.ExecStatusNoData, result.Status)
	assert.Zero(t, result.RowCount)
	assert.Empty(t, result.Rows)
	assert.Equal(t, query, result.GeneratedQuery)
	assert.Empty(t, result.Error)
}

func TestExecute_DatabaseFailure(t *testing.T) {
	handler, mock := newTestHandler(t)

	query := "SELECT nope FROM missing LIMIT 50"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnError(errors.New(`relation "missing" does not exist`))

	result := handler.Execute(context.Background(), query)

	assert.Equal(t, models.ExecStatusFailure, result.Status)
	assert.Contains(t, result.Error, "does not exist")
	// The failing query stays attached for diagnosis.
	assert.Equal(t, query, result.GeneratedQuery)
	assert.Empty(t, result.Rows)
}

func TestExecute_SecondRunServedFromCache(t *testing.T) {
	handler, mock := newCachedTestHandler(t, 5*time.Minute)

	query := "SELECT region, revenue FROM sales LIMIT 50"
	// Exactly one database round trip is expected for two executions.
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"region", "revenue"}).
			AddRow("southeast", []byte("450.5")),
	)

	first := handler.Execute(context.Background(), query)
	require.Equal(t, models.ExecStatusSuccess, first.Status)

	second := handler.Execute(context.Background(), query)
	require.Equal(t, models.ExecStatusSuccess, second.Status)
	assert.Equal(t, first.RowCount, second.RowCount)
	assert.Equal(t, first.Columns, second.Columns)
	assert.Equal(t, "southeast", second.Rows[0]["region"])
	assert.Equal(t, 450.5, second.Rows[0]["revenue"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_NoDataIsNotCached(t *testing.T) {
	handler, mock := newCachedTestHandler(t, 5*time.Minute)

	query := "SELECT product FROM sales WHERE product = 'Unobtainium' LIMIT 50"
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"product"}),
	)
	mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
		sqlmock.NewRows([]string{"product"}).AddRow("Unobtainium"),
	)

	first := handler.Execute(context.Background(), query)
	assert.Equal(t, models.ExecStatusNoData, first.Status)

	// The empty result was not cached, so the fresh row is visible.
	second := handler.Execute(context.Background(), query)
	assert.Equal(t, models.ExecStatusSuccess, second.Status)
	assert.Equal(t, 1, second.RowCount)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_ZeroTTLDisablesCache(t *testing.T) {
	handler, mock := newCachedTestHandler(t, 0)

	query := "SELECT region FROM location LIMIT 50"
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WillReturnRows(
			sqlmock.NewRows([]string{"region"}).AddRow("northeast"),
		)
	}

	handler.Execute(context.Background(), query)
	handler.Execute(context.Background(), query)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		in       interface{}
		expected interface{}
	}{
		{"nil passes through", nil, nil},
		{"string passes through", "northeast", "northeast"},
		{"bool passes through", true, true},
		{"int64 passes through", int64(42), int64(42)},
		{"float passes through", 3.14, 3.14},
		{"timestamp to iso8601", time.Date(2025, 11, 8, 12, 30, 0, 0, time.UTC), "2025-11-08T12:30:00Z"},
		{"whole decimal bytes to int", []byte("120"), int64(120)},
		{"fractional decimal bytes to float", []byte("120.5"), 120.5},
		{"whole float bytes to int", []byte("120.0"), int64(120)},
		{"non numeric bytes to string", []byte("ST0050"), "ST0050"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeValue(tt.in))
		})
	}
}
