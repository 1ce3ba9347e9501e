package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-spin/common"
)

// Stats is a snapshot of the most recent reporting window plus lifetime totals.
type Stats struct {
	FPS           float64
	MinFrame      time.Duration
	MaxFrame      time.Duration
	AvgFrame      time.Duration
	WindowFrames  int
	WindowSkipped int
	TotalFrames   uint64
	TotalSkipped  uint64
	HeapMB        float64
	GCCount       uint32
}

// Profiler tracks frame rate, frame time spread and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	updateInterval time.Duration
	readMem        bool

	windowStart time.Time
	lastFrame   time.Time
	frames      int
	skipped     int
	minFrame    time.Duration
	maxFrame    time.Duration
	sumFrame    time.Duration

	totalFrames  uint64
	totalSkipped uint64
	last         Stats

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerBuilderOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are reported. Non-positive values are ignored.
//
// Parameters:
//   - d: the reporting interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval option
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithMemStats enables reading runtime memory statistics on every report.
func WithMemStats(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second and memory
// statistics are read on each report.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range options {
		opt(p)
	}
	p.Reset(time.Now())
	return p
}

// Reset starts a new reporting window at now and forgets the previous frame time.
func (p *Profiler) Reset(now time.Time) {
	p.windowStart = now
	p.lastFrame = now
	p.frames = 0
	p.skipped = 0
	p.minFrame = 0
	p.maxFrame = 0
	p.sumFrame = 0
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - rendered: false if the frame failed and was skipped
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(rendered bool) bool {
	return p.TickAt(time.Now(), rendered)
}

// TickAt is Tick with an explicit timestamp.
//
// Parameters:
//   - now: the time the frame finished
//   - rendered: false if the frame failed and was skipped
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) TickAt(now time.Time, rendered bool) bool {
	frame := now.Sub(p.lastFrame)
	p.lastFrame = now

	p.frames++
	p.totalFrames++
	if !rendered {
		p.skipped++
		p.totalSkipped++
	}
	if p.frames == 1 || frame < p.minFrame {
		p.minFrame = frame
	}
	if frame > p.maxFrame {
		p.maxFrame = frame
	}
	p.sumFrame += frame

	elapsed := now.Sub(p.windowStart)
	if elapsed < p.updateInterval {
		return false
	}

	s := Stats{
		FPS:           float64(p.frames) / elapsed.Seconds(),
		MinFrame:      p.minFrame,
		MaxFrame:      p.maxFrame,
		AvgFrame:      p.sumFrame / time.Duration(p.frames),
		WindowFrames:  p.frames,
		WindowSkipped: p.skipped,
		TotalFrames:   p.totalFrames,
		TotalSkipped:  p.totalSkipped,
	}

	attrs := []any{
		"fps", s.FPS,
		"frameAvg", s.AvgFrame,
		"frameMin", s.MinFrame,
		"frameMax", s.MaxFrame,
		"skipped", s.WindowSkipped,
	}
	if p.readMem {
		runtime.ReadMemStats(&p.memStats)
		// Alloc is live heap; TotalAlloc only grows and tracks churn
		s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
		s.GCCount = p.memStats.NumGC
		allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()
		attrs = append(attrs,
			"heapMB", s.HeapMB,
			"allocRateMBs", allocRateMB,
			"gc", s.GCCount-p.lastGCCount,
			"sysMB", float64(p.memStats.Sys)/1024/1024,
		)
		p.lastGCCount = s.GCCount
		p.lastTotalAlloc = p.memStats.TotalAlloc
	}
	common.Logger().Info("[Profiler] frame stats", attrs...)

	p.last = s
	p.windowStart = now
	p.frames = 0
	p.skipped = 0
	p.minFrame = 0
	p.maxFrame = 0
	p.sumFrame = 0
	return true
}

// Stats returns the statistics of the most recently reported window.
func (p *Profiler) Stats() Stats {
	return p.last
}
