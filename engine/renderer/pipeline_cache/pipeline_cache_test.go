package pipeline_cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func waitAll(t *testing.T, c PipelineCache) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestQueueReachesReady(t *testing.T) {
	c := NewPipelineCache(WithWorkers(2))
	if !c.Queue("automata_update", func() error { return nil }) {
		t.Fatal("Queue returned false for a new key")
	}
	waitAll(t, c)

	if got := c.Status("automata_update"); got != StatusReady {
		t.Fatalf("status = %v, want ready", got)
	}
	if err := c.Err("automata_update"); err != nil {
		t.Fatalf("Err = %v, want nil", err)
	}
}

func TestCompileErrorIsFailed(t *testing.T) {
	boom := errors.New("entry point not found")
	c := NewPipelineCache()
	c.Queue("automata_draw", func() error { return boom })
	waitAll(t, c)

	if got := c.Status("automata_draw"); got != StatusFailed {
		t.Fatalf("status = %v, want failed", got)
	}
	if err := c.Err("automata_draw"); !errors.Is(err, boom) {
		t.Fatalf("Err = %v, want %v", err, boom)
	}
}

func TestCompilePanicIsFailed(t *testing.T) {
	c := NewPipelineCache()
	c.Queue("automata_init", func() error { panic("device lost") })
	c.Queue("nil_compile", nil)
	waitAll(t, c)

	for _, key := range []string{"automata_init", "nil_compile"} {
		if got := c.Status(key); got != StatusFailed {
			t.Errorf("%s status = %v, want failed", key, got)
		}
		if c.Err(key) == nil {
			t.Errorf("%s: expected a recorded error", key)
		}
	}
}

func TestQueueIsIdempotent(t *testing.T) {
	c := NewPipelineCache()
	calls := make(chan struct{}, 2)
	compile := func() error {
		calls <- struct{}{}
		return nil
	}
	c.Queue("automata_update", compile)
	if c.Queue("automata_update", compile) {
		t.Fatal("second Queue for the same key returned true")
	}
	waitAll(t, c)

	if len(calls) != 1 {
		t.Fatalf("compile ran %d times, want 1", len(calls))
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "automata_update" {
		t.Fatalf("Keys = %v", keys)
	}
}

func TestUnknownKey(t *testing.T) {
	c := NewPipelineCache()
	if got := c.Status("missing"); got != StatusPending {
		t.Fatalf("status = %v, want pending", got)
	}
	if err := c.Err("missing"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("Err = %v, want ErrUnknownKey", err)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	c := NewPipelineCache()
	release := make(chan struct{})
	c.Queue("slow", func() error {
		<-release
		return nil
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait = %v, want deadline exceeded", err)
	}
	if got := c.Status("slow"); got != StatusPending {
		t.Fatalf("status = %v, want pending", got)
	}
}

func TestStatusString(t *testing.T) {
	cases := map[Status]string{
		StatusPending: "pending",
		StatusReady:   "ready",
		StatusFailed:  "failed",
		Status(42):    "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
