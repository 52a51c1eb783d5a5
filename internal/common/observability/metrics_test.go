package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegisterer_IsolatedRegistries(t *testing.T) {
	// Two instances, two registries. A shared registry would reject the
	// second exporter's metric families and break gathering.
	regA := prometheus.NewRegistry()
	regB := prometheus.NewRegistry()

	obsA := NewWithRegisterer("planiq-a", regA)
	obsB := NewWithRegisterer("planiq-b", regB)
	defer obsA.Shutdown()
	defer obsB.Shutdown()

	ctx := context.Background()
	obsA.RecordRequest(ctx, "data_query", "success")
	obsA.RecordRequestDuration(ctx, 42*time.Millisecond, "success")
	obsB.RecordRequest(ctx, "conversation", "success")

	for _, reg := range []*prometheus.Registry{regA, regB} {
		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	}
}

func TestRecord_NoopOnEmptyInstance(t *testing.T) {
	obs := &Observability{}

	obs.RecordRequest(context.Background(), "data_query", "success")
	obs.RecordRequestDuration(context.Background(), time.Second, "success")
	obs.Shutdown()
}
