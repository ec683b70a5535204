package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// StageDone is the stage name the engine reports once per finished run.
const StageDone = "done"

// PipelineMetrics records per-stage latencies of the suggestion engine and
// request counters of the HTTP API.
type PipelineMetrics struct {
	mu         sync.RWMutex
	stages     map[string]*Histogram
	windowSize int

	Runs        atomic.Uint64
	APIRequests atomic.Uint64
	APIErrors   atomic.Uint64

	startTime time.Time
}

// NewPipelineMetrics creates a collector keeping windowSize samples per stage.
func NewPipelineMetrics(windowSize int) *PipelineMetrics {
	return &PipelineMetrics{
		stages:     make(map[string]*Histogram),
		windowSize: windowSize,
		startTime:  time.Now(),
	}
}

// ObserveStage records how long a pipeline stage took, in seconds.
func (m *PipelineMetrics) ObserveStage(stage string, seconds float64) {
	m.histogram(stage).ObserveMillis(seconds * 1000)
	if stage == StageDone {
		m.Runs.Add(1)
	}
}

// ObserveRequest records one API request.
func (m *PipelineMetrics) ObserveRequest(d time.Duration, failed bool) {
	m.histogram("http_request").Record(d)
	m.APIRequests.Add(1)
	if failed {
		m.APIErrors.Add(1)
	}
}

func (m *PipelineMetrics) histogram(name string) *Histogram {
	m.mu.RLock()
	h, ok := m.stages[name]
	m.mu.RUnlock()
	if ok {
		return h
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok = m.stages[name]; !ok {
		h = NewHistogram(m.windowSize)
		m.stages[name] = h
	}
	return h
}

// Stats is a point-in-time view of the collector.
type Stats struct {
	Stages         map[string]LatencyStats `json:"stages"`
	Runs           uint64                  `json:"runs"`
	APIRequests    uint64                  `json:"api_requests"`
	APIErrors      uint64                  `json:"api_errors"`
	APISuccessRate float64                 `json:"api_success_rate"` // percentage
	Uptime         string                  `json:"uptime"`
}

// GetStats returns a snapshot of the current statistics.
func (m *PipelineMetrics) GetStats() *Stats {
	m.mu.RLock()
	stages := make(map[string]LatencyStats, len(m.stages))
	for name, h := range m.stages {
		stages[name] = h.Snapshot()
	}
	startTime := m.startTime
	m.mu.RUnlock()

	requests := m.APIRequests.Load()
	failures := m.APIErrors.Load()
	successRate := 0.0
	if requests > 0 {
		successRate = float64(requests-failures) / float64(requests) * 100
	}

	return &Stats{
		Stages:         stages,
		Runs:           m.Runs.Load(),
		APIRequests:    requests,
		APIErrors:      failures,
		APISuccessRate: successRate,
		Uptime:         time.Since(startTime).Round(time.Second).String(),
	}
}

// Reset clears all metrics.
func (m *PipelineMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, h := range m.stages {
		h.Reset()
	}
	m.Runs.Store(0)
	m.APIRequests.Store(0)
	m.APIErrors.Store(0)
	m.startTime = time.Now()
}
