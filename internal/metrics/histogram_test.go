package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHistogramEmpty(t *testing.T) {
	h := NewHistogram(10)

	assert.Equal(t, LatencyStats{}, h.Snapshot())
}

func TestHistogramSnapshot(t *testing.T) {
	h := NewHistogram(100)
	for i := 1; i <= 5; i++ {
		h.Record(time.Duration(i) * time.Millisecond)
	}

	s := h.Snapshot()

	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 3.0, s.Mean, 1e-9)
	assert.InDelta(t, 3.0, s.P50, 1e-9)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
	assert.InDelta(t, 1.0, s.Min, 1e-9)
	assert.InDelta(t, 5.0, s.Max, 1e-9)
}

func TestHistogramPercentileInterpolates(t *testing.T) {
	h := NewHistogram(10)
	h.ObserveMillis(10)
	h.ObserveMillis(20)

	s := h.Snapshot()
	assert.InDelta(t, 15.0, s.P50, 1e-9)
	assert.InDelta(t, 19.5, s.P95, 1e-9)
	assert.InDelta(t, 10.0, s.Min, 1e-9)
	assert.InDelta(t, 20.0, s.Max, 1e-9)
}

func TestHistogramDropsOldestSamples(t *testing.T) {
	h := NewHistogram(10)
	for i := 1; i <= 11; i++ {
		h.ObserveMillis(float64(i))
	}

	// The eleventh sample overflows the window and the oldest two go.
	assert.Equal(t, 9, h.Snapshot().Count)
	assert.InDelta(t, 3.0, h.Snapshot().Min, 1e-9)
}

func TestHistogramDefaultSize(t *testing.T) {
	h := NewHistogram(0)
	assert.Equal(t, DefaultHistogramSize, h.maxSize)
}

func TestHistogramReset(t *testing.T) {
	h := NewHistogram(10)
	h.ObserveMillis(1)
	h.Reset()
	assert.Zero(t, h.Snapshot().Count)
}

func TestHistogramConcurrentUse(t *testing.T) {
	h := NewHistogram(50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h.ObserveMillis(float64(i))
				_ = h.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, h.Snapshot().Count, 50)
}
