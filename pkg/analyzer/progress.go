package analyzer

import (
	"context"
	"sync/atomic"
)

// ProgressFunc is called after each file with the running counts and the
// file that just finished.
type ProgressFunc func(done, total int, path string)

// Tracker counts analyzed and skipped files. It is safe for concurrent use.
type Tracker struct {
	total    atomic.Int32
	done     atomic.Int32
	skipped  atomic.Int32
	callback ProgressFunc
}

// NewTracker creates a tracker that reports through callback (may be nil).
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// SetTotal sets the number of files that will be processed.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int32(n))
}

// Tick marks one file as finished.
func (t *Tracker) Tick(path string) {
	done := int(t.done.Add(1))
	if t.callback != nil {
		t.callback(done, int(t.total.Load()), path)
	}
}

// Skip marks one file as finished without a result.
func (t *Tracker) Skip(path string) {
	t.skipped.Add(1)
	t.Tick(path)
}

// Done returns the number of finished files, skipped ones included.
func (t *Tracker) Done() int {
	return int(t.done.Load())
}

// Skipped returns the number of skipped files.
func (t *Tracker) Skipped() int {
	return int(t.skipped.Load())
}

// Total returns the expected number of files.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries a progress tracker.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext extracts the progress tracker from the context, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
