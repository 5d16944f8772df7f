package profiler

import (
	"runtime"
	"time"

	"github.com/npillmayer/schuko/tracing"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.profiler")
}

// Stats is one reporting interval of a Profiler.
type Stats struct {
	FPS float64

	// LinesPerFrame is the average number of line records drawn per frame.
	LinesPerFrame float64

	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	MaxPauseUs  uint64
}

// Profiler tracks frame rate, line throughput and memory statistics and reports them through
// tracing at a fixed interval.
type Profiler struct {
	frameCount     int
	lineCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a Profiler reporting once per interval. Non-positive intervals use one second.
//
// Parameters:
//   - interval: the reporting interval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick records one frame that drew lineRecords records and reports when the interval has elapsed.
//
// Parameters:
//   - lineRecords: the number of line records drawn this frame
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick(lineRecords int) bool {
	p.frameCount++
	p.lineCount += lineRecords
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	// PauseNs is a ring of the last 256 pauses
	for i := max(p.lastGCCount, gcCount-min(gcCount, 256)); i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.last = Stats{
		FPS:           float64(p.frameCount) / elapsed.Seconds(),
		LinesPerFrame: float64(p.lineCount) / float64(p.frameCount),
		HeapMB:        float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB:   float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:       gcCount,
		MaxPauseUs:    maxPauseUs,
	}
	tracer().Infof("FPS: %.2f | lines/frame: %.1f | heap: %.2f MB | alloc rate: %.2f MB/s | GC: %d (max pause %d µs)",
		p.last.FPS, p.last.LinesPerFrame, p.last.HeapMB, p.last.AllocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.lineCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the stats of the last reported interval.
func (p *Profiler) Last() Stats {
	return p.last
}
