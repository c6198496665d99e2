package dispatch

import "time"

// DefaultDebounce is the coalescing window for select-driven edits.
const DefaultDebounce = 100 * time.Millisecond

// Debouncer coalesces bursts of edits per field. Every Schedule call
// supersedes the previous one for the same key; the caller arms a timer for
// Window and calls Fire with the returned sequence when it expires. Only the
// latest sequence fires, so a burst dispatches once with its last value.
//
// A Debouncer is not safe for concurrent use; it belongs to the event loop.
type Debouncer struct {
	Window  time.Duration
	seq     map[string]uint64
	pending map[string]any
}

// NewDebouncer returns a Debouncer; a non-positive window means DefaultDebounce.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounce
	}
	return &Debouncer{
		Window:  window,
		seq:     make(map[string]uint64),
		pending: make(map[string]any),
	}
}

// Schedule records v as the pending value for key and returns its sequence.
func (d *Debouncer) Schedule(key string, v any) uint64 {
	d.seq[key]++
	d.pending[key] = v
	return d.seq[key]
}

// Fire returns the pending value for key if seq is still the latest
// schedule. A fired value is consumed.
func (d *Debouncer) Fire(key string, seq uint64) (any, bool) {
	if d.seq[key] != seq {
		return nil, false
	}
	v, ok := d.pending[key]
	if !ok {
		return nil, false
	}
	delete(d.pending, key)
	return v, true
}

// Cancel drops any pending value for key.
func (d *Debouncer) Cancel(key string) {
	d.seq[key]++
	delete(d.pending, key)
}

// Take consumes the pending value for key without waiting for its timer.
// The armed timer for it no longer fires.
func (d *Debouncer) Take(key string) (any, bool) {
	v, ok := d.pending[key]
	if !ok {
		return nil, false
	}
	d.seq[key]++
	delete(d.pending, key)
	return v, true
}

// Pending reports whether key has a value waiting to fire.
func (d *Debouncer) Pending(key string) bool {
	_, ok := d.pending[key]
	return ok
}
