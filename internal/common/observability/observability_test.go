// internal/common/observability/observability_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRecordTurn(t *testing.T) {
	reader := metric.NewManualReader()
	obs := NewWithReader("test", reader)
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordTurn(ctx, "search_clinics", "heuristic", 12*time.Millisecond)
	obs.RecordTurn(ctx, "search_clinics", "heuristic", 8*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "assistant.turns" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total)
}

func TestStartSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	obs := NewWithReader("test", metric.NewManualReader(), recorder)
	defer obs.Shutdown()

	_, span := obs.StartSpan(context.Background(), "route", attribute.String("intent", "faq_query"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "route", ended[0].Name())
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var obs *Observability
	ctx, span := obs.StartSpan(context.Background(), "noop")
	span.End()
	assert.NotNil(t, ctx)
	obs.RecordTurn(ctx, "unknown", "classifier", time.Millisecond)
	obs.Shutdown()
}
