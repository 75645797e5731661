// Package metrics counts the results of a rename run.
package metrics

import (
	"sync/atomic"
	"time"
)

// Registry holds the counters of one run. It is safe for concurrent use.
type Registry struct {
	start   time.Time
	renamed atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// Summary is a point-in-time copy of a Registry.
type Summary struct {
	Renamed  int64         `json:"renamed"`
	Failed   int64         `json:"failed"`
	Skipped  int64         `json:"skipped"`
	Duration time.Duration `json:"duration_ns"`
}

// Total returns the number of entries seen.
func (s Summary) Total() int64 {
	return s.Renamed + s.Failed + s.Skipped
}

// NewRegistry creates a registry whose clock starts now.
func NewRegistry() *Registry {
	return &Registry{start: time.Now()}
}

// RecordRename records one rename attempt.
func (r *Registry) RecordRename(success bool) {
	if success {
		r.renamed.Add(1)
	} else {
		r.failed.Add(1)
	}
}

// RecordSkip records an entry left alone.
func (r *Registry) RecordSkip() {
	r.skipped.Add(1)
}

// Snapshot returns the current counters and the time elapsed since creation.
func (r *Registry) Snapshot() Summary {
	return Summary{
		Renamed:  r.renamed.Load(),
		Failed:   r.failed.Load(),
		Skipped:  r.skipped.Load(),
		Duration: time.Since(r.start),
	}
}
