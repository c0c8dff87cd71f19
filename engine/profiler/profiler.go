package profiler

import (
	"log"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

// Report is one interval of frame and simulation statistics.
type Report struct {
	FPS        float64
	Updates    uint64 // update dispatches in the interval
	Inits      uint64 // init dispatches in the interval
	Draws      uint64 // brush dispatches in the interval
	HeapMB     float64
	AllocRate  float64 // MB/s allocated in the interval
	GCCount    uint32
	MaxPauseUs uint64
}

// Profiler tracks frame rate, memory and simulation dispatch statistics.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now       func() time.Time
	stats     func() automata.Stats
	lastStats automata.Stats
	last      Report
	quiet     bool
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	if p.stats != nil {
		p.lastStats = p.stats()
	}
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs a report when the update interval has elapsed.
//
// Returns:
//   - bool: true if stats were reported this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := Report{FPS: float64(p.frameCount) / elapsed.Seconds()}

	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.AllocRate = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()
	r.GCCount = p.memStats.NumGC
	// PauseNs is a circular buffer of the last 256 pauses.
	start := p.lastGCCount
	if r.GCCount-start > 256 {
		start = r.GCCount - 256
	}
	for i := start; i < r.GCCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	if p.stats != nil {
		s := p.stats()
		r.Updates = s.UpdateDispatches - p.lastStats.UpdateDispatches
		r.Inits = s.InitDispatches - p.lastStats.InitDispatches
		r.Draws = s.DrawDispatches - p.lastStats.DrawDispatches
		p.lastStats = s
	}

	if !p.quiet {
		log.Printf("[Profiler] FPS: %.2f | Sim: %d update, %d init, %d draw | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
			r.FPS, r.Updates, r.Inits, r.Draws, r.HeapMB, r.AllocRate, r.GCCount, r.MaxPauseUs)
	}

	p.last = r
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = r.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recent report, or a zero Report before the first interval ends.
func (p *Profiler) Last() Report {
	return p.last
}
