package pipeline_cache

// Status is the compilation state of a queued pipeline.
type Status int

const (
	// StatusPending means the pipeline was queued and has not finished compiling.
	// Unknown keys also report StatusPending so callers polling a key that was never
	// queued simply never advance.
	StatusPending Status = iota

	// StatusReady means the pipeline compiled and can be bound.
	StatusReady

	// StatusFailed means compilation returned an error or panicked. Failed is terminal.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CompileFunc performs the blocking part of pipeline creation. A nil return marks the
// pipeline Ready, anything else marks it Failed.
type CompileFunc func() error

// IsReady reports whether the pipeline can be bound.
func (s Status) IsReady() bool {
	return s == StatusReady
}
