// Copyright 2025 AndeLabs. All rights reserved.
// See the file LICENSE for licensing terms.

package prometheus

import (
	"testing"

	"github.com/luxfi/geth/metrics"
	"github.com/stretchr/testify/require"
)

func TestGatherer_Gather(t *testing.T) {
	registry := metrics.NewRegistry()

	counter := metrics.NewCounter()
	counter.Inc(12345)
	require.NoError(t, registry.Register("engine/txpool_count", counter))

	gauge := metrics.NewGauge()
	gauge.Update(7)
	require.NoError(t, registry.Register("engine/peer_count", gauge))

	gatherer := NewGatherer(registry)
	families, err := gatherer.Gather()
	require.NoError(t, err)
	require.Len(t, families, 2)

	byName := make(map[string]float64)
	for _, fam := range families {
		byName[fam.GetName()] = fam.GetMetric()[0].GetCounter().GetValue() + fam.GetMetric()[0].GetGauge().GetValue()
	}
	require.Equal(t, float64(12345), byName["engine_txpool_count"])
	require.Equal(t, float64(7), byName["engine_peer_count"])
}

func TestGatherer_SkipsGaugeInfo(t *testing.T) {
	registry := metrics.NewRegistry()
	gaugeInfo := metrics.NewGaugeInfo()
	gaugeInfo.Update(metrics.GaugeInfoValue{"key": "value"})
	require.NoError(t, registry.Register("engine/build_info", gaugeInfo))

	gatherer := NewGatherer(registry)
	families, err := gatherer.Gather()
	require.NoError(t, err)
	require.Empty(t, families)
}

func TestGatherer_UnsupportedTypeErrors(t *testing.T) {
	registry := metrics.NewRegistry()
	require.NoError(t, registry.Register("engine/healthcheck", metrics.NewHealthcheck(nil)))

	gatherer := NewGatherer(registry)
	_, err := gatherer.Gather()
	require.ErrorIs(t, err, errMetricTypeNotSupported)
}
