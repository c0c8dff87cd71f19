package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/pixel-world/engine/automata"
)

func TestTickReportsIntervalDeltas(t *testing.T) {
	clock := time.Unix(0, 0)
	stats := automata.Stats{UpdateDispatches: 100, DrawDispatches: 3}

	p := NewProfiler(
		WithQuiet(true),
		WithClock(func() time.Time { return clock }),
		WithStatsSource(func() automata.Stats { return stats }),
	)

	for range 59 {
		clock = clock.Add(10 * time.Millisecond)
		if p.Tick() {
			t.Fatal("reported before the interval elapsed")
		}
	}

	stats.UpdateDispatches += 60
	stats.DrawDispatches += 5
	clock = time.Unix(1, 0)
	if !p.Tick() {
		t.Fatal("expected a report after one second")
	}

	r := p.Last()
	if r.FPS != 60 {
		t.Errorf("FPS = %v, want 60", r.FPS)
	}
	if r.Updates != 60 || r.Draws != 5 || r.Inits != 0 {
		t.Errorf("deltas = %d update %d draw %d init", r.Updates, r.Draws, r.Inits)
	}
}

func TestTickWithoutStatsSource(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewProfiler(WithQuiet(true), WithInterval(time.Millisecond), WithClock(func() time.Time { return clock }))
	clock = clock.Add(2 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("expected a report")
	}
	if r := p.Last(); r.Updates != 0 || r.FPS <= 0 {
		t.Errorf("report = %+v", r)
	}
}
