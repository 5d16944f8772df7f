package profiler

import (
	"testing"
	"time"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerReportsPerInterval(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "oxy.profiler")
	defer teardown()

	p := NewProfiler(20 * time.Millisecond)
	assert.False(t, p.Tick(4))
	assert.False(t, p.Tick(2))
	time.Sleep(25 * time.Millisecond)
	require.True(t, p.Tick(3))

	s := p.Last()
	assert.InDelta(t, 3.0, s.LinesPerFrame, 1e-9)
	assert.Positive(t, s.FPS)
	assert.Positive(t, s.HeapMB)

	assert.False(t, p.Tick(0))
}

func TestProfilerDefaultInterval(t *testing.T) {
	p := NewProfiler(0)
	assert.Equal(t, time.Second, p.updateInterval)
}
