package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestFlowMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewFlowMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordTransition(ctx, "onboarding", "welcome", "city-selection", "continue")
	m.RecordTransition(ctx, "onboarding", "city-selection", "invite-code", "select_city")
	m.RecordIntroFetch(ctx, 0.2, errors.New("boom"))
	m.UpdateActiveSessions(ctx, 1)

	got := collect(t, reader)

	transitions, ok := got["flow_transitions_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range transitions.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)

	errs, ok := got["intro_fetch_errors_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)
}

func TestFlowMetrics_NilSafe(t *testing.T) {
	var m *FlowMetrics
	assert.NotPanics(t, func() {
		m.RecordTransition(context.Background(), "", "", "", "")
		m.RecordVerification(context.Background(), "success", 1)
		m.UpdateActiveSessions(context.Background(), 1)
	})
}
