package pipeline_cache

import "time"

// PipelineCacheBuilderOption is a functional option applied to a pipeline cache during construction.
type PipelineCacheBuilderOption func(*pipelineCache)

// WithWorkers sets the maximum number of concurrent compile workers. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - PipelineCacheBuilderOption: a function that applies the worker count
func WithWorkers(n int) PipelineCacheBuilderOption {
	return func(c *pipelineCache) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithQueueSize sets the capacity of the pending compile queue.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - PipelineCacheBuilderOption: a function that applies the queue size
func WithQueueSize(n int) PipelineCacheBuilderOption {
	return func(c *pipelineCache) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// WithIdleTimeout sets how long an idle worker lives before exiting.
func WithIdleTimeout(d time.Duration) PipelineCacheBuilderOption {
	return func(c *pipelineCache) {
		if d > 0 {
			c.idle = d
		}
	}
}
