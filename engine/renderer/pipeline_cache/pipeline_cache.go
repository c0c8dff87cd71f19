package pipeline_cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// ErrUnknownKey is returned by Err for keys that were never queued.
var ErrUnknownKey = errors.New("pipeline_cache: unknown pipeline key")

type entry struct {
	status Status
	err    error
}

// pipelineCache is the implementation of the PipelineCache interface.
type pipelineCache struct {
	mu      *sync.Mutex
	entries map[string]*entry
	changed chan struct{}

	workers   int
	queueSize int
	idle      time.Duration
	pool      worker.DynamicWorkerPool
	nextID    int
}

// PipelineCache tracks asynchronous pipeline compilation. Compile work runs on a pool of
// reusable workers so the render loop only ever polls Status and never blocks on the device.
type PipelineCache interface {
	// Queue submits a compile request for the given key and returns immediately.
	// Queueing a key that is already known is a no-op.
	//
	// Parameters:
	//   - key: the unique pipeline key
	//   - compile: the blocking compile step, run on a worker
	//
	// Returns:
	//   - bool: true if the request was queued, false if the key was already known
	Queue(key string, compile CompileFunc) bool

	// Status reports the current compile state of the key. Unknown keys report StatusPending.
	//
	// Parameters:
	//   - key: the pipeline key to query
	//
	// Returns:
	//   - Status: the current status
	Status(key string) Status

	// Err returns the compile error for a Failed key, nil for Pending or Ready keys,
	// and ErrUnknownKey for keys that were never queued.
	//
	// Parameters:
	//   - key: the pipeline key to query
	//
	// Returns:
	//   - error: the recorded error
	Err(key string) error

	// Keys returns every queued key in sorted order.
	//
	// Returns:
	//   - []string: the sorted keys
	Keys() []string

	// Wait blocks until no key is Pending or the context is done. Intended for tools and
	// tests; the frame loop must never call it.
	//
	// Parameters:
	//   - ctx: the context bounding the wait
	//
	// Returns:
	//   - error: ctx.Err() if the context finished first, otherwise nil
	Wait(ctx context.Context) error
}

var _ PipelineCache = &pipelineCache{}

// NewPipelineCache creates a PipelineCache backed by a dynamic worker pool.
// The worker count defaults to NumCPU-1 (minimum 1).
//
// Parameters:
//   - options: functional options to configure the cache
//
// Returns:
//   - PipelineCache: the new cache
func NewPipelineCache(options ...PipelineCacheBuilderOption) PipelineCache {
	c := &pipelineCache{
		mu:        &sync.Mutex{},
		entries:   make(map[string]*entry),
		changed:   make(chan struct{}),
		workers:   max(runtime.NumCPU()-1, 1),
		queueSize: 64,
		idle:      5 * time.Second,
	}
	for _, opt := range options {
		opt(c)
	}
	c.pool = worker.NewDynamicWorkerPool(c.workers, c.queueSize, c.idle)
	return c
}

func (c *pipelineCache) Queue(key string, compile CompileFunc) bool {
	c.mu.Lock()
	if _, exists := c.entries[key]; exists {
		c.mu.Unlock()
		return false
	}
	c.entries[key] = &entry{status: StatusPending}
	id := c.nextID
	c.nextID++
	c.mu.Unlock()

	c.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			c.finish(key, runCompile(compile))
			return nil, nil
		},
	})
	return true
}

func (c *pipelineCache) Status(key string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return StatusPending
	}
	return e.status
}

func (c *pipelineCache) Err(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return ErrUnknownKey
	}
	return e.err
}

func (c *pipelineCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *pipelineCache) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		pending := false
		for _, e := range c.entries {
			if e.status == StatusPending {
				pending = true
				break
			}
		}
		changed := c.changed
		c.mu.Unlock()

		if !pending {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// finish records the compile result and wakes any Wait callers.
func (c *pipelineCache) finish(key string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	if err != nil {
		e.status = StatusFailed
		e.err = err
		log.Printf("[PipelineCache] %s failed: %v", key, err)
	} else {
		e.status = StatusReady
		log.Printf("[PipelineCache] %s ready", key)
	}

	close(c.changed)
	c.changed = make(chan struct{})
}

// runCompile invokes compile and converts a panic into an error so a bad shader can
// never take down a worker.
func runCompile(compile CompileFunc) (err error) {
	if compile == nil {
		return errors.New("pipeline_cache: nil compile function")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline_cache: compile panicked: %v", r)
		}
	}()
	return compile()
}
