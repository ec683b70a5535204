package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetricsObserveStage(t *testing.T) {
	m := NewPipelineMetrics(100)

	m.ObserveStage("ranked", 0.002)
	m.ObserveStage("ranked", 0.004)
	m.ObserveStage(StageDone, 0.010)

	stats := m.GetStats()

	require.Contains(t, stats.Stages, "ranked")
	assert.Equal(t, 2, stats.Stages["ranked"].Count)
	assert.InDelta(t, 3.0, stats.Stages["ranked"].Mean, 1e-9)
	assert.InDelta(t, 10.0, stats.Stages[StageDone].Max, 1e-9)
	assert.Equal(t, uint64(1), stats.Runs)
}

func TestPipelineMetricsRequests(t *testing.T) {
	m := NewPipelineMetrics(0)

	m.ObserveRequest(5*time.Millisecond, false)
	m.ObserveRequest(7*time.Millisecond, false)
	m.ObserveRequest(9*time.Millisecond, false)
	m.ObserveRequest(11*time.Millisecond, true)

	stats := m.GetStats()

	assert.Equal(t, uint64(4), stats.APIRequests)
	assert.Equal(t, uint64(1), stats.APIErrors)
	assert.InDelta(t, 75.0, stats.APISuccessRate, 1e-9)
	assert.Equal(t, 4, stats.Stages["http_request"].Count)
}

func TestPipelineMetricsReset(t *testing.T) {
	m := NewPipelineMetrics(10)
	m.ObserveStage(StageDone, 0.1)
	m.ObserveRequest(time.Millisecond, true)

	m.Reset()
	stats := m.GetStats()

	assert.Zero(t, stats.Runs)
	assert.Zero(t, stats.APIRequests)
	assert.Zero(t, stats.Stages[StageDone].Count)
}

func TestPipelineMetricsNoRequestsHasZeroSuccessRate(t *testing.T) {
	stats := NewPipelineMetrics(10).GetStats()
	assert.Zero(t, stats.APISuccessRate)
	assert.Empty(t, stats.Stages)
}
