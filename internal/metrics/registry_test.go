package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestObserveRequestIncrementsErrorCounterOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)

	m.ObserveRequest("/findFriends", 0.01, nil)
	m.ObserveRequest("/findFriends", 0.02, assertError{})

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range metricFamilies {
		if mf.GetName() == "latticedb_gateway_handler_errors_total" {
			found = true
			require.Len(t, mf.Metric, 1)
			require.Equal(t, float64(1), mf.Metric[0].Counter.GetValue())
		}
	}
	require.True(t, found)
}

func TestCacheHitRatioGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRegistry(reg)
	m.SetCacheHitRatio("indices", 0.87)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var gauge *dto.Metric
	for _, mf := range mfs {
		if mf.GetName() == "latticedb_storage_cache_hit_ratio" {
			gauge = mf.Metric[0]
		}
	}
	require.NotNil(t, gauge)
	require.InDelta(t, 0.87, gauge.Gauge.GetValue(), 0.0001)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
