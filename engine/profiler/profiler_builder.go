package profiler

import (
	"time"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

// ProfilerBuilderOption is a functional option applied to a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is logged. Non-positive values keep the default.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithStatsSource adds simulation dispatch counters to each report.
//
// Parameters:
//   - stats: returns the cumulative counters, e.g. Simulation.Stats
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the source
func WithStatsSource(stats func() automata.Stats) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.stats = stats
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithQuiet keeps reports in Last without logging them.
func WithQuiet(quiet bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.quiet = quiet
	}
}
